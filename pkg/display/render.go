package display

import (
	"fmt"
	"strings"

	"github.com/charlie0129/battray/pkg/types"
)

// Color is a 32-bit ARGB color.
type Color uint32

const (
	White Color = 0xFFFFFFFF
	Red   Color = 0xFFFF0000
	Green Color = 0xFF00FF00
	Gray  Color = 0xFF808080
)

// ARGB splits c into its channels.
func (c Color) ARGB() (a, r, g, b uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Segment is a run of text drawn in one color.
type Segment struct {
	Text  string
	Color Color
}

const (
	unknownPercent = " ??.??%"
	unknownRate    = "   ?.???%/s"
)

// Render formats snap for mode.
func Render(snap types.Snapshot, mode Mode) []Segment {
	if snap.Summary.Count == 0 {
		return []Segment{{Text: "no battery", Color: Gray}}
	}

	switch mode.normalize() {
	case ModeBatteries:
		return renderBatteries(snap)
	case ModeWear:
		return renderWear(snap)
	case ModeRate:
		return renderRate(snap)
	default:
		return renderTotal(snap)
	}
}

// Text concatenates the text of every segment.
func Text(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Tooltip is a multi-line plain text description of snap.
func Tooltip(snap types.Snapshot) string {
	if len(snap.Batteries) == 0 {
		return "No battery found"
	}

	lines := make([]string, 0, len(snap.Batteries)+1)
	lines = append(lines, "Total:"+percent(snap.Summary.Percent)+chargingSuffix(snap.Summary.AnyCharging))
	for _, b := range snap.Batteries {
		line := fmt.Sprintf("#%d:%s%s", b.Index, percent(b.Percent), chargingSuffix(b.Charging))
		if b.ShortTerm {
			line += " " + BatteryType(b)
		}
		if b.Health != "healthy" {
			line += " (" + b.Health + ")"
		}
		lines = append(lines, line)
	}
	if d := Delta(snap.Summary); d != "" {
		lines = append(lines, "Delta: "+d)
	}
	return strings.Join(lines, "\n")
}

// BatteryType is "fail-safe" for short-term batteries and "battery" otherwise.
func BatteryType(b types.BatterySnapshot) string {
	if b.ShortTerm {
		return "fail-safe"
	}
	return "battery"
}

// Delta describes the charge change behind the current rate, or "" before a
// second observation exists.
func Delta(s types.SummarySnapshot) string {
	if s.DeltaSeconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%+d mWh in %.2fs", s.DeltaCharge, s.DeltaSeconds)
}

func renderTotal(snap types.Snapshot) []Segment {
	segs := []Segment{percentSegment(snap.Summary.Percent)}
	if snap.Summary.AnyCharging {
		segs = append(segs, Segment{Text: " +", Color: Green})
	}
	return segs
}

func renderBatteries(snap types.Snapshot) []Segment {
	var segs []Segment
	for i, b := range snap.Batteries {
		if i > 0 {
			segs = append(segs, Segment{Text: " |", Color: Gray})
		}
		if b.Health != "healthy" {
			segs = append(segs, Segment{Text: " !", Color: Red})
		}
		segs = append(segs, percentSegment(b.Percent))
		if b.Charging {
			segs = append(segs, Segment{Text: " +", Color: Green})
		}
	}
	return segs
}

func renderWear(snap types.Snapshot) []Segment {
	var segs []Segment
	for i, b := range snap.Batteries {
		if i > 0 {
			segs = append(segs, Segment{Text: " |", Color: Gray})
		}
		seg := percentSegment(b.WearPercent)
		if b.WearPercent != nil && *b.WearPercent > 0 {
			seg.Color = Red
		}
		segs = append(segs, Segment{Text: "wear", Color: Gray}, seg)
	}
	return segs
}

func renderRate(snap types.Snapshot) []Segment {
	r := snap.Summary.RatePercentPerSecond
	if r == nil {
		return []Segment{{Text: unknownRate, Color: Gray}}
	}

	c := White
	switch {
	case *r > 0:
		c = Green
	case *r < 0:
		c = Red
	}
	return []Segment{{Text: fmt.Sprintf("%+8.3f%%/s", *r), Color: c}}
}

func percentSegment(p *float64) Segment {
	if p == nil {
		return Segment{Text: unknownPercent, Color: Gray}
	}
	return Segment{Text: fmt.Sprintf("%6.2f%%", *p), Color: White}
}

func percent(p *float64) string {
	return percentSegment(p).Text
}

func chargingSuffix(charging bool) string {
	if charging {
		return " +"
	}
	return ""
}
