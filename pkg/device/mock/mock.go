// Package mock provides a simulated battery bus. Its handles decode requests
// and encode responses with the same ioctl layouts the native driver uses, so
// everything above the device layer can be exercised without hardware.
package mock

import (
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battray/pkg/device"
	"github.com/charlie0129/battray/pkg/ioctl"
)

// Battery is the simulated state of one device.
type Battery struct {
	Tag                 uint32
	DesignedCapacity    uint32
	FullChargedCapacity uint32
	Capacity            uint32
	PowerState          uint32
	Capabilities        uint32
	CycleCount          uint32
	Voltage             uint32
	Rate                int32
	Chemistry           string

	// FailTag, FailInformation and FailStatus make the corresponding
	// control message fail.
	FailTag         bool
	FailInformation bool
	FailStatus      bool
}

// Bus is a set of simulated devices keyed by path.
type Bus struct {
	mu        sync.Mutex
	batteries map[string]*Battery
	order     []string
	denied    map[string]bool
	opened    int
	closed    int
	enumErr   error
}

var (
	_ device.Enumerator = &Bus{}
	_ device.Opener     = &Bus{}
)

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		batteries: make(map[string]*Battery),
		denied:    make(map[string]bool),
	}
}

// Add attaches a battery at path. Enumeration order follows insertion order.
func (b *Bus) Add(path string, bat Battery) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.batteries[path]; !ok {
		b.order = append(b.order, path)
	}
	cp := bat
	b.batteries[path] = &cp
}

// Remove detaches the battery at path.
func (b *Bus) Remove(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.batteries, path)
	for i, p := range b.order {
		if p == path {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Update mutates the battery at path in place.
func (b *Bus) Update(path string, fn func(bat *Battery)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bat, ok := b.batteries[path]; ok {
		fn(bat)
	}
}

// Deny makes Open fail for path even though it is enumerated.
func (b *Bus) Deny(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.denied[path] = true
}

// FailEnumeration makes Enumerate return err until called again with nil.
func (b *Bus) FailEnumeration(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enumErr = err
}

// Opened returns how many handles were successfully opened.
func (b *Bus) Opened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

// Closed returns how many handles were closed.
func (b *Bus) Closed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Enumerate implements device.Enumerator.
func (b *Bus) Enumerate() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.enumErr != nil {
		return nil, b.enumErr
	}

	paths := make([]string, len(b.order))
	copy(paths, b.order)
	return paths, nil
}

// Open implements device.Opener.
func (b *Bus) Open(path string) (device.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.batteries[path]; !ok {
		return nil, pkgerrors.Wrapf(device.ErrDeviceUnavailable, "%s: %v", path, device.ErrNoSuchDevice)
	}
	if b.denied[path] {
		return nil, pkgerrors.Wrapf(device.ErrDeviceUnavailable, "%s: access denied", path)
	}

	b.opened++
	return device.Guard(path, &handle{bus: b, path: path}), nil
}

type handle struct {
	bus  *Bus
	path string
}

func (h *handle) Control(code uint32, in, out []byte) (int, error) {
	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()

	bat, ok := h.bus.batteries[h.path]
	if !ok {
		return 0, pkgerrors.Wrapf(device.ErrNoSuchDevice, "%s was removed", h.path)
	}

	var resp []byte

	switch code {
	case ioctl.QueryTagCode:
		if bat.FailTag {
			return 0, pkgerrors.New("tag query failed")
		}
		resp = ioctl.Marshal(bat.Tag)

	case ioctl.QueryInformationCode:
		var req ioctl.QueryInformation
		if err := ioctl.Unmarshal(in, &req); err != nil {
			return 0, err
		}
		if bat.FailInformation || req.BatteryTag == 0 || req.BatteryTag != bat.Tag {
			return 0, pkgerrors.Errorf("information query failed for tag %d", req.BatteryTag)
		}
		if req.InformationLevel != ioctl.BatteryInformation {
			return 0, pkgerrors.Errorf("unsupported information level %d", req.InformationLevel)
		}
		info := ioctl.Information{
			Capabilities:        bat.Capabilities,
			DesignedCapacity:    bat.DesignedCapacity,
			FullChargedCapacity: bat.FullChargedCapacity,
			CycleCount:          bat.CycleCount,
		}
		copy(info.Chemistry[:], bat.Chemistry)
		resp = ioctl.Marshal(info)

	case ioctl.QueryStatusCode:
		var req ioctl.WaitStatus
		if err := ioctl.Unmarshal(in, &req); err != nil {
			return 0, err
		}
		if bat.FailStatus || req.BatteryTag == 0 || req.BatteryTag != bat.Tag {
			return 0, pkgerrors.Errorf("status query failed for tag %d", req.BatteryTag)
		}
		resp = ioctl.Marshal(ioctl.Status{
			PowerState: bat.PowerState,
			Capacity:   bat.Capacity,
			Voltage:    bat.Voltage,
			Rate:       bat.Rate,
		})

	default:
		return 0, pkgerrors.Wrapf(ioctl.ErrUnknownCode, "0x%x", code)
	}

	return copy(out, resp), nil
}

func (h *handle) Close() error {
	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	h.bus.closed++
	return nil
}
