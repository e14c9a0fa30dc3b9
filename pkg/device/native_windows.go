//go:build windows

package device

import (
	"errors"
	"unsafe"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

var (
	modsetupapi = windows.NewLazySystemDLL("setupapi.dll")

	procSetupDiGetClassDevsW             = modsetupapi.NewProc("SetupDiGetClassDevsW")
	procSetupDiEnumDeviceInterfaces      = modsetupapi.NewProc("SetupDiEnumDeviceInterfaces")
	procSetupDiGetDeviceInterfaceDetailW = modsetupapi.NewProc("SetupDiGetDeviceInterfaceDetailW")
	procSetupDiDestroyDeviceInfoList     = modsetupapi.NewProc("SetupDiDestroyDeviceInfoList")
)

// GUID_DEVCLASS_BATTERY {72631E54-78A4-11D0-BCF7-00AA00B7B32A}
var batteryClassGUID = windows.GUID{
	Data1: 0x72631e54,
	Data2: 0x78a4,
	Data3: 0x11d0,
	Data4: [8]byte{0xbc, 0xf7, 0x00, 0xaa, 0x00, 0xb7, 0xb3, 0x2a},
}

const (
	digcfPresent         = 0x00000002
	digcfDeviceInterface = 0x00000010
)

// spDeviceInterfaceData is SP_DEVICE_INTERFACE_DATA.
type spDeviceInterfaceData struct {
	cbSize             uint32
	interfaceClassGUID windows.GUID
	flags              uint32
	reserved           uintptr
}

// detailDataSize is sizeof(SP_DEVICE_INTERFACE_DETAIL_DATA_W), which differs
// between 32 and 64 bit builds because of packing.
func detailDataSize() uint32 {
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return 8
	}
	return 6
}

// NativeEnumerator enumerates battery class device interfaces via SetupAPI.
type NativeEnumerator struct{}

// Enumerate implements Enumerator.
func (NativeEnumerator) Enumerate() ([]string, error) {
	logrus.Tracef("Enumerate called")

	devInfo, _, err := procSetupDiGetClassDevsW.Call(
		uintptr(unsafe.Pointer(&batteryClassGUID)),
		0,
		0,
		digcfPresent|digcfDeviceInterface,
	)
	if windows.Handle(devInfo) == windows.InvalidHandle {
		return nil, pkgerrors.Wrapf(err, "SetupDiGetClassDevs failed")
	}
	defer func() {
		_, _, _ = procSetupDiDestroyDeviceInfoList.Call(devInfo)
	}()

	var paths []string
	for i := uint32(0); ; i++ {
		did := spDeviceInterfaceData{}
		did.cbSize = uint32(unsafe.Sizeof(did))

		ok, _, err := procSetupDiEnumDeviceInterfaces.Call(
			devInfo,
			0,
			uintptr(unsafe.Pointer(&batteryClassGUID)),
			uintptr(i),
			uintptr(unsafe.Pointer(&did)),
		)
		if ok == 0 {
			if errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
				break
			}
			return paths, pkgerrors.Wrapf(err, "SetupDiEnumDeviceInterfaces failed at index %d", i)
		}

		path, err := interfaceDetailPath(devInfo, &did)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"index": i,
				"error": err,
			}).Warn("failed to resolve battery device path")
			continue
		}
		paths = append(paths, path)
	}

	logrus.WithField("paths", paths).Trace("Enumerate returned")

	return paths, nil
}

// interfaceDetailPath asks for the required detail size first, then fetches
// the variable-length detail and returns its device path.
func interfaceDetailPath(devInfo uintptr, did *spDeviceInterfaceData) (string, error) {
	var required uint32
	_, _, err := procSetupDiGetDeviceInterfaceDetailW.Call(
		devInfo,
		uintptr(unsafe.Pointer(did)),
		0,
		0,
		uintptr(unsafe.Pointer(&required)),
		0,
	)
	if required == 0 {
		return "", pkgerrors.Wrapf(err, "SetupDiGetDeviceInterfaceDetail returned no size")
	}

	// []uint32 keeps cbSize 4-byte aligned.
	buf := make([]uint32, (required+3)/4)
	buf[0] = detailDataSize()

	ok, _, err := procSetupDiGetDeviceInterfaceDetailW.Call(
		devInfo,
		uintptr(unsafe.Pointer(did)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(required),
		uintptr(unsafe.Pointer(&required)),
		0,
	)
	if ok == 0 {
		return "", pkgerrors.Wrapf(err, "SetupDiGetDeviceInterfaceDetail failed")
	}

	devicePath := (*uint16)(unsafe.Add(unsafe.Pointer(&buf[0]), 4))
	return windows.UTF16PtrToString(devicePath), nil
}

// NativeOpener opens battery devices with CreateFile.
type NativeOpener struct{}

// Open implements Opener.
func (NativeOpener) Open(path string) (Handle, error) {
	logrus.WithField("path", path).Trace("Open called")

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrDeviceUnavailable, "invalid device path %q: %v", path, err)
	}

	h, err := windows.CreateFile(p,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrDeviceUnavailable, "failed to open %s: %v", path, err)
	}

	return Guard(path, &nativeHandle{h: h}), nil
}

type nativeHandle struct {
	h windows.Handle
}

func (n *nativeHandle) Control(code uint32, in, out []byte) (int, error) {
	var inPtr, outPtr *byte
	if len(in) > 0 {
		inPtr = &in[0]
	}
	if len(out) > 0 {
		outPtr = &out[0]
	}

	var returned uint32
	err := windows.DeviceIoControl(n.h, code,
		inPtr, uint32(len(in)),
		outPtr, uint32(len(out)),
		&returned, nil)

	return int(returned), err
}

func (n *nativeHandle) Close() error {
	return windows.CloseHandle(n.h)
}
