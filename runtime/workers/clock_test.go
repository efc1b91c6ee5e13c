package workers

import (
	"context"
	"log/slog"
	"pajal/mocks"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestClockWorker_Ticks_With_Step(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ticker := mocks.NewMockTicker(ctrl)

	var ticks atomic.Int32
	ticker.EXPECT().
		Tick(gomock.Any(), time.Minute).
		DoAndReturn(func(_ context.Context, _ time.Duration) time.Time {
			ticks.Add(1)
			return time.Now()
		}).
		MinTimes(2)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// When the worker runs with a short interval
	err := NewClockWorker(slog.Default(), ticker, 20*time.Millisecond, time.Minute).Run(ctx)

	// Then it stops with the context after ticking several times
	req.ErrorIs(err, context.DeadlineExceeded)
	req.GreaterOrEqual(ticks.Load(), int32(2))
}
