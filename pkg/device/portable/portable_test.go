package portable

import (
	"errors"
	"testing"

	"github.com/distatus/battery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	batt "github.com/charlie0129/battray/pkg/battery"
	"github.com/charlie0129/battray/pkg/device"
	"github.com/charlie0129/battray/pkg/ioctl"
)

type fakeSource struct {
	bats []*battery.Battery
	errs battery.Errors
}

func (f *fakeSource) Get(idx int) (*battery.Battery, error) {
	if idx >= len(f.bats) || f.bats[idx] == nil {
		return nil, errors.New("no battery")
	}
	return f.bats[idx], nil
}

func (f *fakeSource) GetAll() ([]*battery.Battery, error) {
	if f.errs != nil {
		return f.bats, f.errs
	}
	return f.bats, nil
}

func TestEnumerate(t *testing.T) {
	src := &fakeSource{
		bats: []*battery.Battery{
			{Current: 2500, Full: 5000, Design: 5500, State: battery.Discharging},
			{},
			{Current: 3000, Full: 3000, Design: 3000, State: battery.Full},
		},
		errs: battery.Errors{nil, battery.ErrFatal{Err: errors.New("broken")}, nil},
	}

	paths, err := NewWithSource(src).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"portable:0", "portable:2"}, paths)
}

func TestEnumerateFatal(t *testing.T) {
	src := &fakeSourceErr{err: errors.New("no power supply class")}

	_, err := NewWithSource(src).Enumerate()
	assert.Error(t, err)
}

type fakeSourceErr struct {
	err error
}

func (f *fakeSourceErr) Get(int) (*battery.Battery, error)  { return nil, f.err }
func (f *fakeSourceErr) GetAll() ([]*battery.Battery, error) { return nil, f.err }

func TestOpenInvalidPath(t *testing.T) {
	b := NewWithSource(&fakeSource{})

	for _, p := range []string{"bat0", "portable:x", "portable:-1", "portable:3"} {
		_, err := b.Open(p)
		assert.ErrorIs(t, err, device.ErrDeviceUnavailable, p)
	}
}

func TestRecordThroughPortableBackend(t *testing.T) {
	src := &fakeSource{
		bats: []*battery.Battery{
			{Current: 2500, Full: 5000, Design: 5500, ChargeRate: 1200, Voltage: 12.5, State: battery.Discharging},
		},
	}
	b := NewWithSource(src)

	paths, err := b.Enumerate()
	require.NoError(t, err)
	require.Len(t, paths, 1)

	rec := batt.NewRecord(b, paths[0])
	defer rec.Release()

	assert.Equal(t, batt.Healthy, rec.Health())
	assert.Equal(t, uint32(5500), rec.DesignedCapacity())
	assert.Equal(t, uint32(5000), rec.FullChargedCapacity())
	assert.Equal(t, int64(500), rec.Wear())
	assert.Equal(t, uint32(2500), rec.Charge())
	assert.False(t, rec.IsCharging())
	assert.Equal(t, int32(-1200), rec.Rate())
	assert.Equal(t, uint32(12500), rec.Voltage())

	src.bats[0].State = battery.Charging
	src.bats[0].Current = 2600
	assert.True(t, rec.Refresh())
	assert.True(t, rec.IsCharging())
	assert.Equal(t, uint32(2600), rec.Charge())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name  string
		bat   battery.Battery
		state uint32
		rate  int32
	}{
		{name: "charging", bat: battery.Battery{State: battery.Charging, ChargeRate: 900}, state: ioctl.PowerOnLine | ioctl.Charging, rate: 900},
		{name: "full", bat: battery.Battery{State: battery.Full}, state: ioctl.PowerOnLine, rate: 0},
		{name: "discharging", bat: battery.Battery{State: battery.Discharging, ChargeRate: 900}, state: ioctl.Discharging, rate: -900},
		{name: "unknown", bat: battery.Battery{State: battery.Unknown, ChargeRate: 900}, state: 0, rate: ioctl.UnknownRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := statusOf(&tt.bat)
			assert.Equal(t, tt.state, s.PowerState)
			assert.Equal(t, tt.rate, s.Rate)
		})
	}
}
