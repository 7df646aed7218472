package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReal_Now(t *testing.T) {
	before := time.Now()
	now := Real().Now()
	assert.False(t, now.Before(before))
}

func TestReal_TickerDelivers(t *testing.T) {
	ticker := Real().NewTicker(time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(5 * time.Second):
		require.FailNow(t, "ticker never fired")
	}
}

func TestUnixMillis(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 0, 0, 123_000_000, time.UTC)
	assert.Equal(t, ts.Unix()*1000+123, UnixMillis(ts))
}
