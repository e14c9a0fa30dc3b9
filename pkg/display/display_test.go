package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/battray/pkg/types"
	"github.com/charlie0129/battray/pkg/utils/ptr"
)

func TestModeWraparound(t *testing.T) {
	m := ModeTotal
	for i := 0; i < 4; i++ {
		m = m.Next()
	}
	assert.Equal(t, ModeTotal, m)

	assert.Equal(t, ModeRate, ModeTotal.Prev())
	assert.Equal(t, ModeTotal, ModeRate.Next())
	assert.Equal(t, ModeWear, ModeRate.Prev())
	assert.Len(t, Modes(), 4)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "total", want: ModeTotal},
		{in: "Batteries", want: ModeBatteries},
		{in: " wear ", want: ModeWear},
		{in: "rate", want: ModeRate},
		{in: "pixels", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), modeNames[tt.want])
		})
	}
}

func TestStep(t *testing.T) {
	m, err := Step(ModeTotal, "next")
	require.NoError(t, err)
	assert.Equal(t, ModeBatteries, m)

	m, err = Step(ModeTotal, "prev")
	require.NoError(t, err)
	assert.Equal(t, ModeRate, m)

	m, err = Step(ModeTotal, "wear")
	require.NoError(t, err)
	assert.Equal(t, ModeWear, m)

	_, err = Step(ModeTotal, "sideways")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestModeText(t *testing.T) {
	b, err := ModeWear.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "wear", string(b))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("rate")))
	assert.Equal(t, ModeRate, m)
	assert.Error(t, m.UnmarshalText([]byte("nope")))
}

func TestColorARGB(t *testing.T) {
	a, r, g, b := Gray.ARGB()
	assert.Equal(t, []uint8{0xFF, 0x80, 0x80, 0x80}, []uint8{a, r, g, b})

	a, r, g, b = Green.ARGB()
	assert.Equal(t, []uint8{0xFF, 0x00, 0xFF, 0x00}, []uint8{a, r, g, b})
}

func sampleSnapshot() types.Snapshot {
	return types.Snapshot{
		Batteries: []types.BatterySnapshot{
			{Index: 0, Health: "healthy", Percent: ptr.To(50.0), WearPercent: ptr.To(10.0)},
			{Index: 1, Health: "healthy", Percent: ptr.To(100.0), WearPercent: ptr.To(0.0), Charging: true},
		},
		Summary: types.SummarySnapshot{
			Count:       2,
			AnyCharging: true,
			Percent:     ptr.To(68.75),
		},
	}
}

func TestRenderTotal(t *testing.T) {
	segs := Render(sampleSnapshot(), ModeTotal)
	require.Len(t, segs, 2)
	assert.Equal(t, Segment{Text: " 68.75%", Color: White}, segs[0])
	assert.Equal(t, Segment{Text: " +", Color: Green}, segs[1])
}

func TestRenderBatteries(t *testing.T) {
	assert.Equal(t, " 50.00% |100.00% +", Text(Render(sampleSnapshot(), ModeBatteries)))

	snap := sampleSnapshot()
	snap.Batteries[0].Health = "absent"
	snap.Batteries[0].Percent = nil
	segs := Render(snap, ModeBatteries)
	assert.Equal(t, Segment{Text: " !", Color: Red}, segs[0])
	assert.Equal(t, Segment{Text: " ??.??%", Color: Gray}, segs[1])
}

func TestRenderWear(t *testing.T) {
	segs := Render(sampleSnapshot(), ModeWear)
	assert.Equal(t, "wear 10.00% |wear  0.00%", Text(segs))
	assert.Equal(t, Red, segs[1].Color)
	assert.Equal(t, White, segs[4].Color)
}

func TestRenderRate(t *testing.T) {
	snap := sampleSnapshot()
	assert.Equal(t, []Segment{{Text: unknownRate, Color: Gray}}, Render(snap, ModeRate))

	snap.Summary.RatePercentPerSecond = ptr.To(-0.1)
	assert.Equal(t, []Segment{{Text: "  -0.100%/s", Color: Red}}, Render(snap, ModeRate))
}

func TestRenderUnknownTotal(t *testing.T) {
	snap := types.Snapshot{
		Batteries: []types.BatterySnapshot{{Health: "queryFailed"}},
		Summary:   types.SummarySnapshot{Count: 1},
	}
	assert.Equal(t, " ??.??%", Text(Render(snap, ModeTotal)))
}

func TestRenderNoBattery(t *testing.T) {
	assert.Equal(t, "no battery", Text(Render(types.Snapshot{}, ModeRate)))
}

func TestTooltip(t *testing.T) {
	snap := sampleSnapshot()
	snap.Batteries[0].Health = "queryFailed"
	assert.Equal(t, "Total: 68.75% +\n#0: 50.00% (queryFailed)\n#1:100.00% +", Tooltip(snap))
	assert.Equal(t, "No battery found", Tooltip(types.Snapshot{}))
}

func TestTooltipBatteryTypeAndDelta(t *testing.T) {
	snap := sampleSnapshot()
	snap.Batteries[0].ShortTerm = true
	snap.Summary.DeltaCharge = -80
	snap.Summary.DeltaSeconds = 10

	assert.Equal(t, "Total: 68.75% +\n#0: 50.00% fail-safe\n#1:100.00% +\nDelta: -80 mWh in 10.00s", Tooltip(snap))
}

func TestBatteryType(t *testing.T) {
	assert.Equal(t, "fail-safe", BatteryType(types.BatterySnapshot{ShortTerm: true}))
	assert.Equal(t, "battery", BatteryType(types.BatterySnapshot{}))
}

func TestDelta(t *testing.T) {
	tests := []struct {
		name string
		s    types.SummarySnapshot
		want string
	}{
		{"no observation yet", types.SummarySnapshot{}, ""},
		{"discharging", types.SummarySnapshot{DeltaCharge: -50, DeltaSeconds: 10}, "-50 mWh in 10.00s"},
		{"charging", types.SummarySnapshot{DeltaCharge: 120, DeltaSeconds: 0.05}, "+120 mWh in 0.05s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Delta(tt.s))
		})
	}
}
