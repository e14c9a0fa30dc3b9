// Package ioctl describes the fixed binary ABI of the battery class control
// messages: the control codes, the request/response layouts and their flags.
//
// Layouts mirror the platform structs field by field (little endian, no
// padding). Callers above this package only deal with the decoded fields.
package ioctl

import (
	"bytes"
	"encoding/binary"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Control codes of the battery class driver.
// CTL_CODE(FILE_DEVICE_BATTERY, function, METHOD_BUFFERED, FILE_READ_ACCESS)
const (
	QueryTagCode         uint32 = 0x294040
	QueryInformationCode uint32 = 0x294044
	QueryStatusCode      uint32 = 0x29404C
)

// ErrUnknownCode is returned by simulated devices for control codes they do not implement.
var ErrUnknownCode = errors.New("unknown control code")

// InformationLevel selects what IOCTL_BATTERY_QUERY_INFORMATION returns.
type InformationLevel int32

const (
	BatteryInformation InformationLevel = iota
	BatteryGranularityInformation
	BatteryTemperature
	BatteryEstimatedTime
	BatteryDeviceName
	BatteryManufactureDate
	BatteryManufactureName
	BatteryUniqueID
	BatterySerialNumber
)

// Power state bits of Status.PowerState and WaitStatus.PowerState.
const (
	PowerOnLine   uint32 = 0x00000001
	Discharging   uint32 = 0x00000002
	Charging      uint32 = 0x00000004
	Critical      uint32 = 0x00000008
	PowerStateAll uint32 = PowerOnLine | Discharging | Charging | Critical
)

// Capability bits of Information.Capabilities.
const (
	SetChargeSupported    uint32 = 0x00000001
	SetDischargeSupported uint32 = 0x00000002
	IsShortTerm           uint32 = 0x20000000
	CapacityRelative      uint32 = 0x40000000
	SystemBattery         uint32 = 0x80000000
)

// UnknownRate is reported in Status.Rate when the driver cannot measure it.
const UnknownRate int32 = -0x80000000

// QueryInformation is the input of IOCTL_BATTERY_QUERY_INFORMATION.
type QueryInformation struct {
	BatteryTag       uint32
	InformationLevel InformationLevel
	AtRate           int32
}

// Information is the output of IOCTL_BATTERY_QUERY_INFORMATION for BatteryInformation.
type Information struct {
	Capabilities        uint32
	Technology          uint8
	Reserved            [3]uint8
	Chemistry           [4]byte
	DesignedCapacity    uint32
	FullChargedCapacity uint32
	DefaultAlert1       uint32
	DefaultAlert2       uint32
	CriticalBias        uint32
	CycleCount          uint32
}

// WaitStatus is the input of IOCTL_BATTERY_QUERY_STATUS.
type WaitStatus struct {
	BatteryTag   uint32
	Timeout      uint32
	PowerState   uint32
	LowCapacity  uint32
	HighCapacity uint32
}

// Status is the output of IOCTL_BATTERY_QUERY_STATUS.
type Status struct {
	PowerState uint32
	Capacity   uint32
	Voltage    uint32
	Rate       int32
}

// Size returns the encoded size of v in bytes.
func Size(v any) int {
	return binary.Size(v)
}

// Marshal encodes v into its fixed little endian layout.
func Marshal(v any) []byte {
	buf := &bytes.Buffer{}
	buf.Grow(binary.Size(v))
	// Writing a fixed-size struct to a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}

// Unmarshal decodes b into v, which must be a pointer to one of the layouts
// above. A short buffer, including an empty one, decodes as zero-filled.
func Unmarshal(b []byte, v any) error {
	size := binary.Size(v)
	if size < 0 {
		return pkgerrors.Errorf("type %T does not have a fixed size", v)
	}

	padded := make([]byte, size)
	copy(padded, b)

	err := binary.Read(bytes.NewReader(padded), binary.LittleEndian, v)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to decode %T", v)
	}

	return nil
}

// ChemistryString returns the chemistry code as a trimmed string.
func (i Information) ChemistryString() string {
	return string(bytes.TrimRight(i.Chemistry[:], "\x00 "))
}
