package battery

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battray/pkg/device"
	"github.com/charlie0129/battray/pkg/ioctl"
)

// Information is the static descriptor of a battery.
type Information struct {
	DesignedCapacity    uint32
	FullChargedCapacity uint32
	Capabilities        uint32
	CycleCount          uint32
	Chemistry           string
}

// ShortTerm reports whether the battery is a short-term (fail-safe / UPS) type.
func (i Information) ShortTerm() bool {
	return i.Capabilities&ioctl.IsShortTerm != 0
}

// Status is the dynamic state of a battery.
type Status struct {
	Capacity   uint32
	PowerState uint32
	Voltage    uint32
	Rate       int32
}

// OnLine reports whether the system is running on external power.
func (s Status) OnLine() bool {
	return s.PowerState&ioctl.PowerOnLine != 0
}

// QueryTag asks the device for the tag of the battery currently behind h.
// On failure the zero tag is returned together with the error; callers pass
// it on anyway and the following queries fail the same way.
func QueryTag(h device.Handle) (uint32, error) {
	logrus.Tracef("QueryTag called")

	wait := uint32(0)
	out := make([]byte, ioctl.Size(uint32(0)))

	n, err := h.Control(ioctl.QueryTagCode, ioctl.Marshal(wait), out)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "battery tag query failed")
	}

	var tag uint32
	if err := ioctl.Unmarshal(out[:n], &tag); err != nil {
		return 0, err
	}

	logrus.Tracef("QueryTag returned %d", tag)

	return tag, nil
}

// QueryInformation reads the static information of the battery with tag.
func QueryInformation(h device.Handle, tag uint32) (Information, error) {
	logrus.Tracef("QueryInformation called with tag %d", tag)

	req := ioctl.QueryInformation{
		BatteryTag:       tag,
		InformationLevel: ioctl.BatteryInformation,
	}
	out := make([]byte, ioctl.Size(ioctl.Information{}))

	n, err := h.Control(ioctl.QueryInformationCode, ioctl.Marshal(req), out)
	if err != nil {
		return Information{}, pkgerrors.Wrapf(err, "battery information query failed")
	}

	var raw ioctl.Information
	if err := ioctl.Unmarshal(out[:n], &raw); err != nil {
		return Information{}, err
	}

	return Information{
		DesignedCapacity:    raw.DesignedCapacity,
		FullChargedCapacity: raw.FullChargedCapacity,
		Capabilities:        raw.Capabilities,
		CycleCount:          raw.CycleCount,
		Chemistry:           raw.ChemistryString(),
	}, nil
}

// QueryStatus reads the dynamic status of the battery with tag.
func QueryStatus(h device.Handle, tag uint32) (Status, error) {
	logrus.Tracef("QueryStatus called with tag %d", tag)

	req := ioctl.WaitStatus{BatteryTag: tag}
	out := make([]byte, ioctl.Size(ioctl.Status{}))

	n, err := h.Control(ioctl.QueryStatusCode, ioctl.Marshal(req), out)
	if err != nil {
		return Status{}, pkgerrors.Wrapf(err, "battery status query failed")
	}

	var raw ioctl.Status
	if err := ioctl.Unmarshal(out[:n], &raw); err != nil {
		return Status{}, err
	}

	return Status{
		Capacity:   raw.Capacity,
		PowerState: raw.PowerState,
		Voltage:    raw.Voltage,
		Rate:       raw.Rate,
	}, nil
}

// queryInformation refreshes the tag and then reads the information.
func queryInformation(h device.Handle) (Information, error) {
	tag, tagErr := QueryTag(h)
	info, err := QueryInformation(h, tag)
	if err != nil && tagErr != nil {
		return info, tagErr
	}
	return info, err
}

// queryStatus refreshes the tag and then reads the status.
func queryStatus(h device.Handle) (Status, error) {
	tag, tagErr := QueryTag(h)
	status, err := QueryStatus(h, tag)
	if err != nil && tagErr != nil {
		return status, tagErr
	}
	return status, err
}
