package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:30": 570,
		"23:59": 1439,
	}
	for in, want := range cases {
		got, err := ToMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestToMinutesRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "9:30", "09:3", "24:00", "12:60", "12-30", "ab:cd"} {
		_, err := ToMinutes(in)
		assert.Error(t, err, in)
	}
}

func TestFromMinutesRoundTrip(t *testing.T) {
	for _, in := range []string{"00:00", "08:05", "16:45", "23:59"} {
		offset, err := ToMinutes(in)
		require.NoError(t, err)
		assert.Equal(t, in, FromMinutes(offset))
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	// 10:00-11:00 vs 10:30-11:30 collide.
	assert.True(t, Overlaps(600, 660, 630, 690))
	// Touching intervals do not.
	assert.False(t, Overlaps(600, 660, 660, 720))
	assert.False(t, Overlaps(660, 720, 600, 660))
	// Full containment counts as overlap.
	assert.True(t, Overlaps(600, 720, 630, 660))
}

func TestContainsIsClosed(t *testing.T) {
	// Exact fit is contained.
	assert.True(t, Contains(540, 600, 540, 600))
	assert.True(t, Contains(540, 600, 550, 590))
	// Poking past either boundary is not.
	assert.False(t, Contains(540, 600, 530, 590))
	assert.False(t, Contains(540, 600, 550, 601))
}

func TestContainsAndOverlapsDisagreeOnBoundaries(t *testing.T) {
	// A lesson starting exactly at a slot's end: no containment, and no
	// half-open overlap either.
	assert.False(t, Contains(540, 600, 600, 660))
	assert.False(t, Overlaps(540, 600, 600, 660))
	// A lesson ending exactly at a slot's end: contained, yet it overlaps
	// anything occupying that same window.
	assert.True(t, Contains(540, 600, 570, 600))
	assert.True(t, Overlaps(540, 600, 570, 600))
}
