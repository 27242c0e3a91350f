package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"identhub/internal/platform/clock"
	"identhub/internal/platform/mainloop"
)

type SchedulerSuite struct {
	suite.Suite
	clock *clock.Fake
	sched *Scheduler
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.clock = clock.NewFake(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	s.sched = New(s.clock, mainloop.Inline{})
}

func (s *SchedulerSuite) TestAfter() {
	s.Run("fires once after the delay", func() {
		calls := 0
		h := s.sched.After(time.Second, func() { calls++ })
		s.clock.Advance(500 * time.Millisecond)
		s.Equal(0, calls)
		s.clock.Advance(time.Minute)
		s.Equal(1, calls)
		s.False(h.Active())
		s.False(h.Cancel(), "cancel after firing reports false")
	})

	s.Run("cancelled timer never fires", func() {
		calls := 0
		h := s.sched.After(time.Second, func() { calls++ })
		s.True(h.Cancel())
		s.False(h.Cancel())
		s.clock.Advance(time.Minute)
		s.Equal(0, calls)
	})
}

func (s *SchedulerSuite) TestRepeat() {
	s.Run("ticks every interval until cancelled", func() {
		calls := 0
		h := s.sched.Repeat(3*time.Second, func() { calls++ })
		s.clock.Advance(9 * time.Second)
		s.Equal(3, calls)

		h.Cancel()
		s.clock.Advance(time.Minute)
		s.Equal(3, calls)
		s.Equal(0, s.clock.Pending())
	})

	s.Run("cancelling from inside the tick stops rescheduling", func() {
		calls := 0
		var h *Handle
		h = s.sched.Repeat(time.Second, func() {
			calls++
			if calls == 2 {
				h.Cancel()
			}
		})
		s.clock.Advance(10 * time.Second)
		s.Equal(2, calls)
	})
}

func (s *SchedulerSuite) TestCountdown() {
	var ticks []time.Duration
	done := 0
	s.sched.Countdown(3*time.Second, time.Second, func(remaining time.Duration) {
		ticks = append(ticks, remaining)
	}, func() { done++ })

	s.clock.Advance(10 * time.Second)
	s.Equal([]time.Duration{2 * time.Second, time.Second, 0}, ticks)
	s.Equal(1, done)
}

func TestGroupCloseCancelsTrackedHandles(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	sched := New(c, mainloop.Inline{})
	var g Group

	calls := 0
	g.Track(sched.Repeat(time.Second, func() { calls++ }))
	g.Track(sched.After(5*time.Second, func() { calls += 100 }))

	assert.Equal(t, 2, g.Close())
	c.Advance(time.Minute)
	assert.Equal(t, 0, calls)

	late := g.Track(sched.After(time.Second, func() { calls++ }))
	assert.False(t, late.Active(), "tracking into a closed group cancels immediately")
}
