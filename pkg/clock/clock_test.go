package clock_test

import (
	"leadintake/pkg/clock"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystem_NowIsUTC(t *testing.T) {
	now := clock.System{}.Now()
	require.Equal(t, time.UTC, now.Location())
	require.WithinDuration(t, time.Now(), now, time.Second)
}

func TestFixed(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	require.Equal(t, at, clock.Fixed(at).Now())
}
