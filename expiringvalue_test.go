package hoard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// session carries its own validity, the way a token with an embedded
// deadline would.
type session struct {
	id    int
	stale bool
}

func (s session) Expired() bool { return s.stale }

type ExpiringValueSuite struct {
	suite.Suite
}

func TestExpiringValueSuite(t *testing.T) {
	suite.Run(t, new(ExpiringValueSuite))
}

func (s *ExpiringValueSuite) TestGetSet() {
	c := NewExpiringValue[string, session](4)

	c.Set("a", session{id: 1})

	v, ok := c.Get("a")
	s.True(ok)
	s.Equal(1, v.id)

	_, ok = c.Get("b")
	s.False(ok)
}

func (s *ExpiringValueSuite) TestZeroCapacityPanics() {
	s.Panics(func() { NewExpiringValue[string, session](0) })
}

func (s *ExpiringValueSuite) TestExpiredGetRemoves() {
	c := NewExpiringValue[string, session](4)

	c.Set("a", session{id: 1, stale: true})

	_, ok := c.Get("a")
	s.False(ok)
	s.Equal(0, c.Len(), "the read that finds an expired value removes it")

	snap := c.Stats()
	s.Equal(uint64(1), snap.Misses)
	s.Equal(uint64(1), snap.Evictions)
}

func (s *ExpiringValueSuite) TestUpdate() {
	c := NewExpiringValue[string, session](4)

	c.Set("a", session{id: 1})
	s.True(c.Update("a", func(v *session) { v.id = 2 }))

	v, _ := c.Get("a")
	s.Equal(2, v.id)

	c.Set("b", session{id: 3, stale: true})
	s.False(c.Update("b", func(v *session) { v.id = 9 }))
	s.Equal(1, c.Len())
}

func (s *ExpiringValueSuite) TestGetOrSetReplacesExpired() {
	c := NewExpiringValue[string, session](4)

	calls := 0
	v := c.GetOrSet("a", func() session { calls++; return session{id: 1} })
	s.Equal(1, v.id)

	v = c.GetOrSet("a", func() session { calls++; return session{id: 2} })
	s.Equal(1, v.id)
	s.Equal(1, calls)

	c.Set("a", session{id: 1, stale: true})
	v = c.GetOrSet("a", func() session { calls++; return session{id: 3} })
	s.Equal(3, v.id)
	s.Equal(2, calls)
}

func (s *ExpiringValueSuite) TestGetOrLoad() {
	c := NewExpiringValue[string, session](4)

	boom := errors.New("boom")
	_, err := c.GetOrLoad("a", func() (session, error) { return session{}, boom })
	s.ErrorIs(err, boom)
	s.Equal(0, c.Len())

	v, err := c.GetOrLoad("a", func() (session, error) { return session{id: 5}, nil })
	s.NoError(err)
	s.Equal(5, v.id)
}

func (s *ExpiringValueSuite) TestSetReturnsExpiredPrevious() {
	c := NewExpiringValue[string, session](4)

	c.Set("a", session{id: 1, stale: true})
	prev, ok := c.Set("a", session{id: 2})
	s.True(ok, "writes report the previous value even when it has expired")
	s.Equal(1, prev.id)
}

func (s *ExpiringValueSuite) TestFlush() {
	c := NewExpiringValue[string, session](8)

	c.Set("a", session{id: 1})
	c.Set("b", session{id: 2, stale: true})
	c.Set("c", session{id: 3, stale: true})

	s.Equal(2, c.Flush())
	s.Equal(1, c.Len())
	s.Equal(uint64(2), c.Stats().Evictions)
	s.Equal(0, c.Flush())
}

func (s *ExpiringValueSuite) TestCapacityEviction() {
	c := NewExpiringValue[string, session](2)

	c.Set("a", session{id: 1})
	c.Set("b", session{id: 2})
	c.Get("a")
	c.Set("c", session{id: 3})

	_, ok := c.Get("b")
	s.False(ok, "b was least recently used")
	s.Equal(2, c.Len())
}

func (s *ExpiringValueSuite) TestBounds() {
	c := NewExpiringValue[string, session](4)

	n, bounded := c.Capacity()
	s.True(bounded)
	s.Equal(4, n)

	_, hasTTL := c.Lifespan()
	s.False(hasTTL, "expiry lives in the values")

	_, hadTTL := c.SetLifespan(0)
	s.False(hadTTL)
}
