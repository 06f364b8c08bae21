package hoard

// arena is a doubly linked list over a growable slice, addressed by index
// instead of pointer. Two reserved cells anchor two disjoint circular
// rings: freeHead for recycled cells and liveHead for occupied cells in
// recency order. Every data cell is in exactly one ring at all times, and
// pushFront, moveToFront, remove and back are all O(1), so recency updates
// on the hot path never allocate.
type arena[T any] struct {
	nodes []node[T]
	count int
}

type node[T any] struct {
	next  int
	prev  int
	value T
}

const (
	freeHead = 0
	liveHead = 1
)

func newArena[T any](capacity int) arena[T] {
	a := arena[T]{nodes: make([]node[T], 2, capacity+2)}
	a.nodes[freeHead] = node[T]{next: freeHead, prev: freeHead}
	a.nodes[liveHead] = node[T]{next: liveHead, prev: liveHead}
	return a
}

// unsplice detaches cell i from its ring. The neighbors are repointed at
// each other before i is reused, so no partial update is ever observable.
func (a *arena[T]) unsplice(i int) {
	n := a.nodes[i]
	a.nodes[n.prev].next = n.next
	a.nodes[n.next].prev = n.prev
}

// spliceAfter inserts cell i immediately after cell at.
func (a *arena[T]) spliceAfter(i, at int) {
	next := a.nodes[at].next
	a.nodes[i].prev = at
	a.nodes[i].next = next
	a.nodes[next].prev = i
	a.nodes[at].next = i
}

// pushFront stores value in a recycled or freshly grown cell and splices
// it to the front of the live ring, returning the cell's stable index.
func (a *arena[T]) pushFront(value T) int {
	i := a.nodes[freeHead].next
	if i == freeHead {
		a.nodes = append(a.nodes, node[T]{})
		i = len(a.nodes) - 1
	} else {
		a.unsplice(i)
	}
	a.nodes[i].value = value
	a.spliceAfter(i, liveHead)
	a.count++
	return i
}

// moveToFront marks cell i as most recently used.
func (a *arena[T]) moveToFront(i int) {
	a.unsplice(i)
	a.spliceAfter(i, liveHead)
}

// remove detaches cell i from the live ring, recycles it onto the free
// ring and returns its value.
func (a *arena[T]) remove(i int) T {
	a.unsplice(i)
	v := a.nodes[i].value
	var zero T
	a.nodes[i].value = zero
	a.spliceAfter(i, freeHead)
	a.count--
	return v
}

// at returns a pointer to cell i's value. The pointer is only valid until
// the next mutating call.
func (a *arena[T]) at(i int) *T {
	return &a.nodes[i].value
}

// back returns the index of the least recently used cell, or liveHead when
// the live ring is empty.
func (a *arena[T]) back() int {
	return a.nodes[liveHead].prev
}

// front returns the index of the most recently used cell, or liveHead when
// the live ring is empty.
func (a *arena[T]) front() int {
	return a.nodes[liveHead].next
}

func (a *arena[T]) len() int {
	return a.count
}

// clear recycles every cell, keeping the backing array's capacity.
func (a *arena[T]) clear() {
	clear(a.nodes[2:])
	a.nodes = a.nodes[:2]
	a.nodes[freeHead] = node[T]{next: freeHead, prev: freeHead}
	a.nodes[liveHead] = node[T]{next: liveHead, prev: liveHead}
	a.count = 0
}

// each walks the live ring front to back, stopping early when fn returns
// false.
func (a *arena[T]) each(fn func(i int, v *T) bool) {
	for i := a.nodes[liveHead].next; i != liveHead; i = a.nodes[i].next {
		if !fn(i, &a.nodes[i].value) {
			return
		}
	}
}
