package runtime

import (
	"pajal/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClock_Advance_And_Jump(t *testing.T) {
	req := require.New(t)
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	req.Equal(start.Add(time.Second), clock.Advance(time.Second))
	req.Equal(start.Add(time.Second), clock.Advance(0))
	req.Equal(start.Add(time.Second), clock.Advance(-time.Hour))

	later := start.Add(time.Hour)
	now, err := clock.JumpTo(later)
	req.NoError(err)
	req.Equal(later, now)

	// Time never moves backwards
	now, err = clock.JumpTo(start)
	req.ErrorIs(err, errors.ErrClockRewind)
	req.Equal(later, now)
	req.Equal(later, clock.Now())
}
