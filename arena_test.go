package hoard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(a *arena[int]) []int {
	var out []int
	a.each(func(_ int, v *int) bool {
		out = append(out, *v)
		return true
	})
	return out
}

func TestArenaPushFrontOrder(t *testing.T) {
	a := newArena[int](4)

	a.pushFront(1)
	a.pushFront(2)
	a.pushFront(3)

	require.Equal(t, 3, a.len())
	require.Equal(t, []int{3, 2, 1}, collect(&a))
	require.Equal(t, 3, *a.at(a.front()))
	require.Equal(t, 1, *a.at(a.back()))
}

func TestArenaMoveToFront(t *testing.T) {
	a := newArena[int](4)

	a.pushFront(1)
	i := a.pushFront(2)
	a.pushFront(3)

	a.moveToFront(i)

	require.Equal(t, []int{2, 3, 1}, collect(&a))
	require.Equal(t, 1, *a.at(a.back()))
}

func TestArenaRemoveRecyclesCells(t *testing.T) {
	a := newArena[int](2)

	i := a.pushFront(1)
	a.pushFront(2)

	require.Equal(t, 1, a.remove(i))
	require.Equal(t, 1, a.len())

	// The freed cell is reused before the backing slice grows.
	j := a.pushFront(3)
	require.Equal(t, i, j)
	require.Equal(t, []int{3, 2}, collect(&a))
}

func TestArenaRemoveBack(t *testing.T) {
	a := newArena[int](4)

	a.pushFront(1)
	a.pushFront(2)
	a.pushFront(3)

	require.Equal(t, 1, a.remove(a.back()))
	require.Equal(t, 2, a.remove(a.back()))
	require.Equal(t, 3, a.remove(a.back()))
	require.Equal(t, 0, a.len())
	require.Equal(t, liveHead, a.back())
	require.Equal(t, liveHead, a.front())
}

func TestArenaClear(t *testing.T) {
	a := newArena[int](4)

	a.pushFront(1)
	a.pushFront(2)
	a.clear()

	require.Equal(t, 0, a.len())
	require.Empty(t, collect(&a))

	a.pushFront(9)
	require.Equal(t, []int{9}, collect(&a))
}

func TestArenaEachStopsEarly(t *testing.T) {
	a := newArena[int](4)

	a.pushFront(1)
	a.pushFront(2)
	a.pushFront(3)

	var seen []int
	a.each(func(_ int, v *int) bool {
		seen = append(seen, *v)
		return len(seen) < 2
	})

	require.Equal(t, []int{3, 2}, seen)
}
