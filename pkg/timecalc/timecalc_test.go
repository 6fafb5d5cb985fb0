package timecalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "09:30:00", Normalize("09:30"))
	assert.Equal(t, "09:30:00", Normalize("09:30:00"))
	assert.Equal(t, "09:30:00", Normalize("9:30"))
	assert.Equal(t, "noon", Normalize("noon"))
	assert.Equal(t, "", Normalize(""))
}

func TestToMinutesIsTotal(t *testing.T) {
	assert.Equal(t, 570, ToMinutes("09:30"))
	assert.Equal(t, 570, ToMinutes("09:30:45"))
	assert.Equal(t, 540, ToMinutes("09:xx"))
	assert.Equal(t, 30, ToMinutes("aa:30"))
	assert.Equal(t, 0, ToMinutes(""))
}

func TestAddMinutesWrapped(t *testing.T) {
	assert.Equal(t, 30, AddMinutesWrapped(23*60, 90))
	assert.Equal(t, 23*60+30, AddMinutesWrapped(0, -30))
	assert.Equal(t, 0, AddMinutesWrapped(0, MinutesPerDay))
}

func TestRoundTripProperty(t *testing.T) {
	for _, s := range []int{0, 1, 59, 540, 1439} {
		for d := 0; d < MinutesPerDay; d++ {
			got := ToMinutes(FormatMinutes(AddMinutesWrapped(s, d)))
			require.Equal(t, (s+d)%MinutesPerDay, got, "start=%d duration=%d", s, d)
		}
	}
}

func TestEndTime(t *testing.T) {
	ninety := 90
	end, ok := EndTime("09:00:00", &ninety)
	require.True(t, ok)
	assert.Equal(t, "10:30", end)

	_, ok = EndTime("09:00:00", nil)
	assert.False(t, ok)

	_, ok = EndTime("", &ninety)
	assert.False(t, ok)

	overnight := 120
	end, ok = EndTime("23:30", &overnight)
	require.True(t, ok)
	assert.Equal(t, "01:30", end)
}

func TestStartLabel(t *testing.T) {
	assert.Equal(t, "09:05", StartLabel("09:05:00"))
	assert.Equal(t, "", StartLabel(""))
}
