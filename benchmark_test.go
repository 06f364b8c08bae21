package hoard

import (
	"strconv"
	"testing"
	"time"
)

func BenchmarkLRU_Get(b *testing.B) {
	c := NewLRU[string, int](1000)
	for i := 0; i < 1000; i++ {
		c.Set(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(strconv.Itoa(i % 1000))
	}
}

func BenchmarkLRU_Set(b *testing.B) {
	c := NewLRU[string, int](1000)
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(keys[i%1000], i)
	}
}

func BenchmarkLRU_SetWithEviction(b *testing.B) {
	c := NewLRU[string, int](100)
	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(keys[i%10000], i)
	}
}

func BenchmarkTimed_Get(b *testing.B) {
	c := NewTimed[string, int](time.Hour)
	for i := 0; i < 1000; i++ {
		c.Set(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(strconv.Itoa(i % 1000))
	}
}

func BenchmarkExpiring_Insert(b *testing.B) {
	c := NewExpiring[string, int](time.Hour, WithSizeLimit(1000))
	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Insert(keys[i%10000], i)
	}
}

func BenchmarkExpiring_Get(b *testing.B) {
	c := NewExpiring[string, int](time.Hour)
	for i := 0; i < 1000; i++ {
		_, _, _ = c.Insert(strconv.Itoa(i), i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.Get(strconv.Itoa(i % 1000))
			i++
		}
	})
}
