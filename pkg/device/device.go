// Package device owns the lifecycle of battery device handles and the
// discovery of battery device paths.
package device

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrDeviceUnavailable is returned when a device path cannot be opened:
	// the device is absent, access is denied or the path is wrong.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrUnsupported is returned by the native backend on platforms without
	// the battery class control interface.
	ErrUnsupported = errors.New("native battery devices are not supported on this platform")

	// ErrClosed is returned when a handle is used or closed after Close.
	ErrClosed = errors.New("device handle already closed")

	// ErrNoSuchDevice is returned by simulated backends for unknown paths.
	ErrNoSuchDevice = errors.New("no such device")
)

// Handle is an open handle to one battery device.
type Handle interface {
	// Control sends one control message and reads its response into out.
	// It returns the number of bytes written to out.
	Control(code uint32, in, out []byte) (int, error)
	// Close releases the handle. It must be called exactly once.
	Close() error
}

// Opener opens device paths.
type Opener interface {
	Open(path string) (Handle, error)
}

// Enumerator lists the paths of every present battery device.
type Enumerator interface {
	Enumerate() ([]string, error)
}

// StaticEnumerator always reports the same configured paths.
type StaticEnumerator []string

// Enumerate implements Enumerator.
func (s StaticEnumerator) Enumerate() ([]string, error) {
	paths := make([]string, len(s))
	copy(paths, s)
	return paths, nil
}

// onceCloser makes Close idempotent in the sense that only the first call
// reaches the underlying handle. Later calls report ErrClosed.
type onceCloser struct {
	Handle
	path   string
	mu     sync.Mutex
	closed bool
}

// Guard wraps h so that Control and Close fail with ErrClosed once the handle
// has been released.
func Guard(path string, h Handle) Handle {
	return &onceCloser{Handle: h, path: path}
}

func (o *onceCloser) Control(code uint32, in, out []byte) (int, error) {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return o.Handle.Control(code, in, out)
}

func (o *onceCloser) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.closed = true
	o.mu.Unlock()

	logrus.WithField("path", o.path).Trace("closing device handle")
	return o.Handle.Close()
}
