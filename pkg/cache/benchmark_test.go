package cache

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkLRUGet(b *testing.B) {
	c := New(Options{MaxEntries: 10000})
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("key%d", i), []byte(strings.Repeat("x", 100)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key999")
	}
}

func BenchmarkLRUSet(b *testing.B) {
	c := New(Options{MaxEntries: 1000})
	value := []byte(strings.Repeat("x", 100))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key%d", i), value)
	}
}

func BenchmarkKey(b *testing.B) {
	src := []byte(strings.Repeat("int x = 0;\n", 500))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Key(src, "m", 0, len(src), "")
	}
}
