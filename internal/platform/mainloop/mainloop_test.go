package mainloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsPostedWorkInOrderOnOneGoroutine(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	wg.Add(3)
	for i := 1; i <= 3; i++ {
		loop.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	mu.Lock()
	assert.Equal(t, []int{1, 2, 3}, got)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopSurvivesPanics(t *testing.T) {
	loop := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	ran := make(chan struct{})
	loop.Post(func() { panic("boom") })
	loop.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("work after panic did not run")
	}
}

func TestInlineRunsImmediately(t *testing.T) {
	var exec Executor = Inline{}
	calls := 0
	exec.Post(func() { calls++ })
	exec.Go(func() { calls++ })
	require.Equal(t, 2, calls)
}
