// Package display turns battery snapshots into short colored text for the
// presentation surfaces (tray title, tooltip, terminal status).
package display

import (
	"errors"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Mode selects what subset of the battery values is rendered.
type Mode int

const (
	// ModeTotal renders the combined charge of all batteries.
	ModeTotal Mode = iota
	// ModeBatteries renders each battery's charge separately.
	ModeBatteries
	// ModeWear renders the wear of each battery.
	ModeWear
	// ModeRate renders the combined charge rate.
	ModeRate

	modeCount
)

var ErrUnknownMode = errors.New("unknown draw mode")

var modeNames = [modeCount]string{"total", "batteries", "wear", "rate"}

// Modes returns every mode in cycling order.
func Modes() []Mode {
	modes := make([]Mode, 0, modeCount)
	for m := Mode(0); m < modeCount; m++ {
		modes = append(modes, m)
	}
	return modes
}

// Next returns the following mode, wrapping from the last to the first.
func (m Mode) Next() Mode {
	return (m.normalize() + 1) % modeCount
}

// Prev returns the preceding mode, wrapping from the first to the last.
func (m Mode) Prev() Mode {
	return (m.normalize() + modeCount - 1) % modeCount
}

func (m Mode) normalize() Mode {
	return ((m % modeCount) + modeCount) % modeCount
}

func (m Mode) String() string {
	return modeNames[m.normalize()]
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return ModeTotal, pkgerrors.Wrapf(ErrUnknownMode, "%q (valid modes: %s)", s, strings.Join(modeNames[:], ", "))
}

// Step resolves a mode request relative to cur: "next", "prev" or a mode name.
func Step(cur Mode, req string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(req)) {
	case "next":
		return cur.Next(), nil
	case "prev", "previous":
		return cur.Prev(), nil
	}
	return ParseMode(req)
}
