package daemon

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/battray/pkg/config"
	"github.com/charlie0129/battray/pkg/device"
)

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(config.BackendAuto, nil)
	require.NoError(t, err)
	if runtime.GOOS == "windows" {
		assert.Equal(t, config.BackendNative, b.Name)
	} else {
		assert.Equal(t, config.BackendPortable, b.Name)
	}

	_, err = NewBackend("smc", nil)
	assert.Error(t, err)

	b, err = NewBackend(config.BackendPortable, []string{"portable:1"})
	require.NoError(t, err)
	paths, err := b.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"portable:1"}, paths)
}

func TestNewBackendNativeUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("native backend is supported here")
	}

	_, err := NewBackend(config.BackendNative, nil)
	assert.ErrorIs(t, err, device.ErrUnsupported)
}

func TestPollLocal(t *testing.T) {
	bus := newTestBus()

	snap, err := PollLocal(&Backend{Name: "mock", Enumerator: bus, Opener: bus})
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Summary.Count)
	assert.Equal(t, uint64(5500), snap.Summary.TotalCharge)
	assert.Nil(t, snap.Summary.RatePercentPerSecond)
	assert.Equal(t, bus.Opened(), bus.Closed())
}
