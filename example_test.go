package hoard_test

import (
	"fmt"

	"github.com/bjaus/hoard"
)

func ExampleLRU() {
	c := hoard.NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3) // evicts b, the least recently used

	_, ok := c.Get("b")
	fmt.Println("b present:", ok)

	v, _ := c.Get("a")
	fmt.Println("a:", v)
	// Output:
	// b present: false
	// a: 1
}

func ExampleUnbounded_GetOrSet() {
	c := hoard.NewUnbounded[string, []string]()

	loads := 0
	load := func() []string {
		loads++
		return []string{"alpha", "beta"}
	}

	fmt.Println(c.GetOrSet("tags", load))
	fmt.Println(c.GetOrSet("tags", load))
	fmt.Println("loads:", loads)
	// Output:
	// [alpha beta]
	// [alpha beta]
	// loads: 1
}

func ExampleLRU_Update() {
	c := hoard.NewLRU[string, int](4)

	c.Set("counter", 41)
	c.Update("counter", func(v *int) { *v++ })

	v, _ := c.Get("counter")
	fmt.Println(v)
	// Output:
	// 42
}

func ExampleSnapshot() {
	c := hoard.NewLRU[string, int](4)

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	snap := c.Stats()
	fmt.Printf("hits=%d misses=%d rate=%.2f\n", snap.Hits, snap.Misses, snap.HitRate())
	// Output:
	// hits=2 misses=1 rate=0.67
}
