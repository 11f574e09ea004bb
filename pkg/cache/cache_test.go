package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-partial-extract/pkg/report"
)

func TestLRU_Basic(t *testing.T) {
	c := New(Options{MaxEntries: 3})

	c.Set("a", []byte("value_a"))
	c.Set("b", []byte("value_b"))
	c.Set("c", []byte("value_c"))

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("value_a"), val)
}

func TestLRU_Eviction(t *testing.T) {
	var evicted []string
	c := New(Options{MaxEntries: 3, OnEvict: func(key string) { evicted = append(evicted, key) }})

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	// Touch 'a' so 'b' becomes least recently used.
	c.Get("a")
	c.Set("d", []byte("4"))

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, found = c.Get(k)
		assert.True(t, found, "%s should still be present", k)
	}
}

func TestLRU_MaxBytes(t *testing.T) {
	c := New(Options{MaxBytes: 25})

	// Each entry accounts 1 key byte plus 10 value bytes.
	c.Set("a", []byte("1234567890"))
	c.Set("b", []byte("1234567890"))
	c.Set("c", []byte("1234567890"))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(22), c.Stats().Bytes)
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestLRU_UpdateAndDelete(t *testing.T) {
	c := New(Options{MaxEntries: 10})

	c.Set("a", []byte("value1"))
	c.Set("a", []byte("value22"))
	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("value22"), val)
	assert.Equal(t, int64(8), c.Stats().Bytes)

	c.Delete("a")
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().Bytes)

	c.Set("b", []byte("x"))
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Stats(t *testing.T) {
	c := New(Options{MaxEntries: 1})
	c.Set("a", []byte("1"))
	c.Get("a")
	c.Get("missing")
	c.Set("b", []byte("2"))

	st := c.Stats()
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, int64(1), st.Evictions)
	assert.Equal(t, 0.5, st.HitRate())
	assert.Equal(t, 0.0, Stats{}.HitRate())
}

func TestLRU_SaveLoad(t *testing.T) {
	c := New(Options{MaxEntries: 10})
	c.Set("key1", []byte("value1"))
	c.Set("key2", []byte("value2"))
	c.Get("key1")

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	c2 := New(Options{MaxEntries: 1})
	require.NoError(t, c2.Load(&buf))

	// Recency survives the round trip: key1 was used last.
	assert.Equal(t, 1, c2.Len())
	val, found := c2.Get("key1")
	require.True(t, found)
	assert.Equal(t, []byte("value1"), val)
}

func TestLRU_LoadOtherVersion(t *testing.T) {
	b, err := msgpack.Marshal(&snapshot{Version: formatVersion + 1, Entries: []Entry{{Key: "k", Value: []byte("v")}}})
	require.NoError(t, err)

	c := New(Options{})
	c.Set("old", []byte("x"))
	require.NoError(t, c.Load(bytes.NewReader(b)))
	assert.Equal(t, 0, c.Len())
}

func TestLRU_LoadFileMissing(t *testing.T) {
	c := New(Options{MaxEntries: 10})
	require.NoError(t, c.LoadFile(filepath.Join(t.TempDir(), "nonexistent.msgpack")))
	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	src := []byte("class A {}")
	k1 := Key(src, "m", 1, 10, "")
	k2 := Key(src, "m", 1, 10, "")

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
	assert.NotEqual(t, k1, Key(src, "m", 1, 11, ""))
	assert.NotEqual(t, k1, Key(src, "n", 1, 10, ""))
	assert.NotEqual(t, k1, Key([]byte("class B {}"), "m", 1, 10, ""))
	assert.NotEqual(t, k1, Key(src, "m", 1, 10, "min=3"))
}

func TestReportStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	s, err := OpenReportStore(dir, 10)
	require.NoError(t, err)

	want := &report.Report{
		File:   "A.java",
		Method: "m",
		Groups: []report.Group{{
			Variable: "zz",
			Slices: []report.Slice{{
				Name:       "zz",
				Statements: []int{3, 5, 7},
				Removable:  []int{3, 5, 7},
				Duplicated: []int{4},
				Parameters: []string{"pp"},
			}},
		}},
	}
	key := Key([]byte("src"), "m", 0, 10, "")

	_, err = s.Get(key)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Put(key, want))
	require.NoError(t, s.Save())

	reopened, err := OpenReportStore(dir, 10)
	require.NoError(t, err)
	got, err := reopened.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NotEqual(t, "0 B", reopened.FileSize())

	require.NoError(t, reopened.Clear())
	assert.Equal(t, 0, reopened.Stats().Entries)
	assert.Equal(t, "0 B", reopened.FileSize())
}

func TestSummary(t *testing.T) {
	got := Summary(Stats{Entries: 1200, Bytes: 2048, Hits: 3, Misses: 1})
	assert.Equal(t, "1,200 entries, 2.0 kB, 75% hit rate", got)
}
