package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInFlightAcquireRelease(t *testing.T) {
	g := NewInFlight()
	release, err := g.Acquire("c-1")
	require.NoError(t, err)
	assert.True(t, g.Busy("c-1"))

	_, err = g.Acquire("c-1")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	other, err := g.Acquire("c-2")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, g.Busy("c-1"))

	again, err := g.Acquire("c-1")
	require.NoError(t, err)
	again()
}

func TestInFlightSingleWinner(t *testing.T) {
	g := NewInFlight()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := g.Acquire("same"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, 1, wins)
}
