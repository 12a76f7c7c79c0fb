package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReaperDeliversEvictions(t *testing.T) {
	c := newTestCoordinator(t)

	past := time.Now().Add(-time.Hour)
	c.now = func() time.Time { return past }
	require.NoError(t, c.CreateRoom("c1", "stale", "Alice", false, "").Err)
	c.now = time.Now

	var mu sync.Mutex
	var got []Update
	notify := func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, u)
	}

	r := NewReaper(c, time.Minute, 20*time.Millisecond, notify, zaptest.NewLogger(t))
	done := make(chan error, 1)
	go func() { done <- r.Start() }()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("reaper never delivered an eviction")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	r.Stop()
	r.Stop() // idempotent
	assert.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, got)
	assert.Equal(t, []string{"c1"}, got[0].Recipients)
	_, err := c.store.Get("stale")
	assert.ErrorIs(t, err, ErrNotFound)
}
