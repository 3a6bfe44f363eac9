package handler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageState_Repeatable(t *testing.T) {
	u := NewUsageState(false)

	assert.False(t, u.OneShot())
	assert.True(t, u.Reserve())
	assert.True(t, u.Reserve(), "repeatable handlers always reserve")
	assert.False(t, u.Consumed())

	u.Commit()
	assert.True(t, u.Used())
	assert.False(t, u.Consumed())
}

func TestUsageState_OneShotLifecycle(t *testing.T) {
	u := NewUsageState(true)

	assert.True(t, u.Reserve())
	assert.True(t, u.Consumed(), "reserved one-shot is ineligible")
	assert.False(t, u.Reserve(), "cannot reserve twice")

	// A fault releases the reservation so the handler can be retried.
	u.Release()
	assert.False(t, u.Consumed())
	assert.False(t, u.Used(), "a fault never marks the handler used")

	// A success keeps it consumed.
	assert.True(t, u.Reserve())
	u.Commit()
	assert.True(t, u.Consumed())
	assert.True(t, u.Used())

	u.Restore()
	assert.False(t, u.Consumed())
	assert.True(t, u.Used(), "restore keeps the historical used flag")
}

func TestUsageState_ConcurrentReserve(t *testing.T) {
	u := NewUsageState(true)

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if u.Reserve() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent resolution may claim a one-shot handler")
}
