// Package portable answers battery control messages from the values the
// operating system reports through github.com/distatus/battery, so the same
// core can run on hosts without the battery class driver.
package portable

import (
	"strconv"
	"strings"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/device"
	"github.com/charlie0129/battray/pkg/ioctl"
)

const pathPrefix = "portable:"

// Source reads batteries by index.
type Source interface {
	Get(idx int) (*battery.Battery, error)
	GetAll() ([]*battery.Battery, error)
}

type systemSource struct{}

func (systemSource) Get(idx int) (*battery.Battery, error) { return battery.Get(idx) }
func (systemSource) GetAll() ([]*battery.Battery, error)   { return battery.GetAll() }

// Backend is an Enumerator and Opener over a Source.
type Backend struct {
	src Source
}

var (
	_ device.Enumerator = &Backend{}
	_ device.Opener     = &Backend{}
)

// New returns a Backend reading the system batteries.
func New() *Backend {
	return &Backend{src: systemSource{}}
}

// NewWithSource returns a Backend reading from src.
func NewWithSource(src Source) *Backend {
	return &Backend{src: src}
}

// Path returns the device path of the battery at idx.
func Path(idx int) string {
	return pathPrefix + strconv.Itoa(idx)
}

// Enumerate implements device.Enumerator. Batteries that could not be read
// at all are skipped; their index is kept in the path of the others.
func (b *Backend) Enumerate() ([]string, error) {
	logrus.Tracef("portable Enumerate called")

	bats, err := b.src.GetAll()
	errs, partial := err.(battery.Errors)
	if err != nil && !partial {
		return nil, pkgerrors.Wrapf(err, "failed to list batteries")
	}

	var paths []string
	for i, bat := range bats {
		if bat == nil {
			continue
		}
		if partial && i < len(errs) && errs[i] != nil {
			if _, fatal := errs[i].(battery.ErrFatal); fatal {
				logrus.WithField("index", i).WithError(errs[i]).Debug("skipping unreadable battery")
				continue
			}
		}
		paths = append(paths, Path(i))
	}

	return paths, nil
}

// Open implements device.Opener.
func (b *Backend) Open(path string) (device.Handle, error) {
	idxStr, ok := strings.CutPrefix(path, pathPrefix)
	if !ok {
		return nil, pkgerrors.Wrapf(device.ErrDeviceUnavailable, "%s is not a portable battery path", path)
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return nil, pkgerrors.Wrapf(device.ErrDeviceUnavailable, "%s has an invalid index", path)
	}

	if _, err := b.read(idx); err != nil {
		return nil, pkgerrors.Wrapf(device.ErrDeviceUnavailable, "%s: %v", path, err)
	}

	return device.Guard(path, &handle{backend: b, idx: idx}), nil
}

func (b *Backend) read(idx int) (*battery.Battery, error) {
	bat, err := b.src.Get(idx)
	if bat == nil {
		if err == nil {
			err = device.ErrNoSuchDevice
		}
		return nil, err
	}
	if err != nil {
		logrus.WithField("index", idx).WithError(err).Trace("partial battery data")
	}
	return bat, nil
}

type handle struct {
	backend *Backend
	idx     int
}

func (h *handle) tag() uint32 {
	return uint32(h.idx) + 1
}

func (h *handle) Control(code uint32, in, out []byte) (int, error) {
	bat, err := h.backend.read(h.idx)
	if err != nil {
		return 0, err
	}

	var resp []byte

	switch code {
	case ioctl.QueryTagCode:
		resp = ioctl.Marshal(h.tag())

	case ioctl.QueryInformationCode:
		var req ioctl.QueryInformation
		if err := ioctl.Unmarshal(in, &req); err != nil {
			return 0, err
		}
		if req.BatteryTag != h.tag() {
			return 0, pkgerrors.Errorf("stale battery tag %d", req.BatteryTag)
		}
		resp = ioctl.Marshal(ioctl.Information{
			Capabilities:        ioctl.SystemBattery,
			DesignedCapacity:    uint32(bat.Design),
			FullChargedCapacity: uint32(bat.Full),
		})

	case ioctl.QueryStatusCode:
		var req ioctl.WaitStatus
		if err := ioctl.Unmarshal(in, &req); err != nil {
			return 0, err
		}
		if req.BatteryTag != h.tag() {
			return 0, pkgerrors.Errorf("stale battery tag %d", req.BatteryTag)
		}
		resp = ioctl.Marshal(statusOf(bat))

	default:
		return 0, pkgerrors.Wrapf(ioctl.ErrUnknownCode, "0x%x", code)
	}

	return copy(out, resp), nil
}

func (h *handle) Close() error {
	return nil
}

func statusOf(bat *battery.Battery) ioctl.Status {
	s := ioctl.Status{
		Capacity: uint32(bat.Current),
		Voltage:  uint32(bat.Voltage * 1000),
		Rate:     int32(bat.ChargeRate),
	}

	switch bat.State {
	case battery.Charging:
		s.PowerState = ioctl.PowerOnLine | ioctl.Charging
	case battery.Full:
		s.PowerState = ioctl.PowerOnLine
	case battery.Discharging:
		s.PowerState = ioctl.Discharging
		s.Rate = -s.Rate
	default:
		s.Rate = ioctl.UnknownRate
	}

	return s
}
