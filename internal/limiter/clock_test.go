package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockNow(t *testing.T) {
	t.Parallel()

	before := time.Now()
	got := NewClock().Now()

	require.WithinDuration(t, before, got, time.Second)
}

func TestClockSleep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		canceled bool
		wantErr  error
	}{
		{name: "zero duration", duration: 0},
		{name: "negative duration", duration: -time.Millisecond},
		{name: "positive duration", duration: 2 * time.Millisecond},
		{name: "canceled before zero wait", duration: 0, canceled: true, wantErr: context.Canceled},
		{name: "canceled during wait", duration: time.Minute, canceled: true, wantErr: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if tt.canceled {
				cancel()
			}

			err := NewClock().Sleep(ctx, tt.duration)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
