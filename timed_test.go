package hoard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TimedSuite struct {
	suite.Suite
	clk *mockClock
}

func (s *TimedSuite) SetupTest() {
	s.clk = &mockClock{now: time.Now()}
}

func TestTimedSuite(t *testing.T) {
	suite.Run(t, new(TimedSuite))
}

func (s *TimedSuite) newCache(ttl time.Duration, opts ...Option) *Timed[string, int] {
	return NewTimed[string, int](ttl, append(opts, WithClock(s.clk))...)
}

func (s *TimedSuite) TestGetSet() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)

	v, ok := c.Get("a")
	s.True(ok)
	s.Equal(1, v)

	s.clk.Advance(30 * time.Second)
	_, ok = c.Get("a")
	s.True(ok, "half the lifespan has passed")

	s.clk.Advance(30 * time.Second)
	_, ok = c.Get("a")
	s.False(ok, "the lifespan boundary is exclusive")
}

func (s *TimedSuite) TestExpiredGetRemoves() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)
	s.clk.Advance(2 * time.Minute)

	_, ok := c.Get("a")
	s.False(ok)
	s.Equal(0, c.Len(), "the read that finds an expired entry removes it")

	snap := c.Stats()
	s.Equal(uint64(1), snap.Misses)
	s.Equal(uint64(1), snap.Evictions)
}

func (s *TimedSuite) TestRefresh() {
	c := s.newCache(time.Minute, WithRefresh())
	s.True(c.Refresh())

	c.Set("a", 1)

	// Each hit re-stamps, so the entry outlives several lifespans.
	for i := 0; i < 4; i++ {
		s.clk.Advance(45 * time.Second)
		_, ok := c.Get("a")
		s.True(ok)
	}

	s.clk.Advance(2 * time.Minute)
	_, ok := c.Get("a")
	s.False(ok)
}

func (s *TimedSuite) TestSetFiltersExpiredPrevious() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)
	prev, ok := c.Set("a", 2)
	s.True(ok)
	s.Equal(1, prev)

	s.clk.Advance(2 * time.Minute)
	_, ok = c.Set("a", 3)
	s.False(ok, "an expired previous value is not reported")

	v, ok := c.Get("a")
	s.True(ok)
	s.Equal(3, v)
}

func (s *TimedSuite) TestRemoveFiltersExpired() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)
	v, ok := c.Remove("a")
	s.True(ok)
	s.Equal(1, v)

	c.Set("b", 2)
	s.clk.Advance(2 * time.Minute)
	_, ok = c.Remove("b")
	s.False(ok, "the entry is deleted but its value is stale")
	s.Equal(0, c.Len())
}

func (s *TimedSuite) TestUpdate() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)
	s.True(c.Update("a", func(v *int) { *v += 5 }))

	v, _ := c.Get("a")
	s.Equal(6, v)

	s.clk.Advance(2 * time.Minute)
	s.False(c.Update("a", func(v *int) { *v = 99 }))
	s.Equal(0, c.Len())
}

func (s *TimedSuite) TestGetOrSetReplacesExpired() {
	c := s.newCache(time.Minute)

	calls := 0
	v := c.GetOrSet("a", func() int { calls++; return 1 })
	s.Equal(1, v)

	v = c.GetOrSet("a", func() int { calls++; return 2 })
	s.Equal(1, v)
	s.Equal(1, calls)

	s.clk.Advance(2 * time.Minute)
	v = c.GetOrSet("a", func() int { calls++; return 3 })
	s.Equal(3, v, "an expired entry is overwritten with a fresh stamp")
	s.Equal(2, calls)

	snap := c.Stats()
	s.Equal(uint64(1), snap.Hits)
	s.Equal(uint64(2), snap.Misses)
}

func (s *TimedSuite) TestGetOrLoad() {
	c := s.newCache(time.Minute)

	boom := errors.New("boom")
	_, err := c.GetOrLoad("a", func() (int, error) { return 0, boom })
	s.ErrorIs(err, boom)
	s.Equal(0, c.Len())

	v, err := c.GetOrLoad("a", func() (int, error) { return 5, nil })
	s.NoError(err)
	s.Equal(5, v)
}

func (s *TimedSuite) TestFlush() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	s.clk.Advance(30 * time.Second)
	c.Set("c", 3)
	s.clk.Advance(45 * time.Second)

	// a and b are past the minute; c is not.
	s.Equal(2, c.Flush())
	s.Equal(1, c.Len())
	s.Equal(uint64(2), c.Stats().Evictions)

	s.Equal(0, c.Flush())
}

func (s *TimedSuite) TestSetLifespanReinterprets() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)
	s.clk.Advance(45 * time.Second)

	old, had := c.SetLifespan(30 * time.Second)
	s.True(had)
	s.Equal(time.Minute, old)

	_, ok := c.Get("a")
	s.False(ok, "the existing stamp is 45s old against a 30s lifespan")

	c.Set("b", 2)
	old, _ = c.SetLifespan(time.Hour)
	s.Equal(30*time.Second, old)
	s.clk.Advance(time.Minute)

	_, ok = c.Get("b")
	s.True(ok, "the stamp is reinterpreted against the longer lifespan")
}

func (s *TimedSuite) TestLifespan() {
	c := s.newCache(time.Minute)

	ttl, ok := c.Lifespan()
	s.True(ok)
	s.Equal(time.Minute, ttl)

	_, bounded := c.Capacity()
	s.False(bounded)
}

func (s *TimedSuite) TestClearAndReset() {
	c := s.newCache(time.Minute)

	c.Set("a", 1)
	c.Clear()
	s.Equal(0, c.Len())

	c.Set("a", 1)
	c.Reset()
	s.Equal(0, c.Len())
}
