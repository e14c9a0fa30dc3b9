package ioctl

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutSizes(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want int
	}{
		{"QueryInformation", QueryInformation{}, 12},
		{"Information", Information{}, 36},
		{"WaitStatus", WaitStatus{}, 20},
		{"Status", Status{}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Size(tt.v); got != tt.want {
				t.Errorf("Size() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInformationFieldOffsets(t *testing.T) {
	b := Marshal(Information{
		Capabilities:        SystemBattery | IsShortTerm,
		Chemistry:           [4]byte{'L', 'I', 'O', 'N'},
		DesignedCapacity:    57000,
		FullChargedCapacity: 51000,
		CycleCount:          12,
	})
	require.Len(t, b, 36)

	assert.Equal(t, SystemBattery|IsShortTerm, binary.LittleEndian.Uint32(b[0:4]))
	assert.Equal(t, "LION", string(b[8:12]))
	assert.Equal(t, uint32(57000), binary.LittleEndian.Uint32(b[12:16]))
	assert.Equal(t, uint32(51000), binary.LittleEndian.Uint32(b[16:20]))
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(b[32:36]))
}

func TestUnmarshalShortBufferIsZeroFilled(t *testing.T) {
	var s Status
	require.NoError(t, Unmarshal(nil, &s))
	assert.Equal(t, Status{}, s)

	full := Marshal(Status{PowerState: PowerOnLine | Charging, Capacity: 4200, Voltage: 12000, Rate: 1500})
	var partial Status
	require.NoError(t, Unmarshal(full[:8], &partial))
	assert.Equal(t, Status{PowerState: PowerOnLine | Charging, Capacity: 4200}, partial)
}

func TestUnmarshalRejectsVariableSizeTypes(t *testing.T) {
	var s string
	assert.Error(t, Unmarshal([]byte{1, 2, 3, 4}, &s))
}

func TestChemistryString(t *testing.T) {
	i := Information{Chemistry: [4]byte{'L', 'i', 0, 0}}
	assert.Equal(t, "Li", i.ChemistryString())
}
