//go:build !windows

package device

// NativeEnumerator is unavailable outside windows.
type NativeEnumerator struct{}

// Enumerate implements Enumerator.
func (NativeEnumerator) Enumerate() ([]string, error) {
	return nil, ErrUnsupported
}

// NativeOpener is unavailable outside windows.
type NativeOpener struct{}

// Open implements Opener.
func (NativeOpener) Open(string) (Handle, error) {
	return nil, ErrUnsupported
}
