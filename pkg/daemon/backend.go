package daemon

import (
	"runtime"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/battray/pkg/battery"
	"github.com/charlie0129/battray/pkg/config"
	"github.com/charlie0129/battray/pkg/device"
	"github.com/charlie0129/battray/pkg/device/portable"
	"github.com/charlie0129/battray/pkg/types"
)

// Backend is an Enumerator/Opener pair the registry is built from.
type Backend struct {
	Name string
	device.Enumerator
	device.Opener
}

// NewBackend selects the device backend named kind. "auto" picks the native
// backend on windows and the portable one elsewhere. Non-empty paths replace
// enumeration.
func NewBackend(kind string, paths []string) (*Backend, error) {
	if kind == config.BackendAuto {
		kind = config.BackendPortable
		if runtime.GOOS == "windows" {
			kind = config.BackendNative
		}
	}

	b := &Backend{Name: kind}

	switch kind {
	case config.BackendNative:
		if runtime.GOOS != "windows" {
			return nil, pkgerrors.Wrapf(device.ErrUnsupported, "backend %s", kind)
		}
		b.Enumerator = device.NativeEnumerator{}
		b.Opener = device.NativeOpener{}
	case config.BackendPortable:
		p := portable.New()
		b.Enumerator = p
		b.Opener = p
	default:
		return nil, pkgerrors.Errorf("unknown backend %q", kind)
	}

	if len(paths) > 0 {
		b.Enumerator = device.StaticEnumerator(paths)
	}

	return b, nil
}

// PollLocal builds a registry on b, polls it once and releases it again.
// It is used when no daemon is running.
func PollLocal(b *Backend) (types.Snapshot, error) {
	reg := battery.NewRegistry(b, b)
	if err := reg.Build(); err != nil {
		return types.Snapshot{}, err
	}
	defer func() {
		_ = reg.Close()
	}()

	p := battery.NewPoller(reg, battery.WithTopologyCheckEvery(0))
	p.PollOnce()
	return p.Snapshot(), nil
}
