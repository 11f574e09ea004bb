// Package cache provides an LRU byte cache with msgpack disk persistence,
// and a report store built on it that remembers opportunity reports across
// runs.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// formatVersion is bumped whenever the persisted layout changes; files with
// another version are ignored on load.
const formatVersion = 1

// Entry is one cached value with its metadata.
type Entry struct {
	Key        string    `msgpack:"key"`
	Value      []byte    `msgpack:"value"`
	CreatedAt  time.Time `msgpack:"created_at"`
	AccessedAt time.Time `msgpack:"accessed_at"`
}

// Size returns the bytes accounted to e.
func (e Entry) Size() int64 {
	return int64(len(e.Key) + len(e.Value))
}

// LRU is an in-memory least-recently-used cache.
type LRU struct {
	mu        sync.Mutex
	items     map[string]*listItem
	lru       list
	maxSize   int
	maxBytes  int64
	bytes     int64
	hits      int64
	misses    int64
	evictions int64
	onEvict   func(key string)
	now       func() time.Time
}

type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// list is a doubly-linked list, most recently used at head.
type list struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *list) pushFront(item *listItem) {
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list) remove(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	l.remove(item)
	l.pushFront(item)
}

// Options configures an LRU.
type Options struct {
	// MaxEntries bounds the number of entries. 0 means unlimited.
	MaxEntries int

	// MaxBytes bounds the summed key and value sizes. 0 means unlimited.
	MaxBytes int64

	// OnEvict is called with the key of every entry dropped to make room.
	OnEvict func(key string)
}

// New creates an empty LRU.
func New(opts Options) *LRU {
	return &LRU{
		items:    make(map[string]*listItem),
		maxSize:  opts.MaxEntries,
		maxBytes: opts.MaxBytes,
		onEvict:  opts.OnEvict,
		now:      time.Now,
	}
}

// Get returns the value stored under key and marks it most recently used.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	item.AccessedAt = c.now()
	c.lru.moveToFront(item)
	return item.Value, true
}

// Set stores value under key, evicting least recently used entries when a
// limit is exceeded.
func (c *LRU) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if item, ok := c.items[key]; ok {
		c.bytes -= item.Size()
		item.Value = value
		item.AccessedAt = now
		c.bytes += item.Size()
		c.lru.moveToFront(item)
		c.evict()
		return
	}

	item := &listItem{Entry: Entry{Key: key, Value: value, CreatedAt: now, AccessedAt: now}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.bytes += item.Size()
	c.evict()
}

// Delete removes key.
func (c *LRU) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[key]; ok {
		c.drop(item)
	}
}

// Clear removes every entry. Counters are kept.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = list{}
	c.bytes = 0
}

// Len returns the number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU) drop(item *listItem) {
	c.lru.remove(item)
	delete(c.items, item.Key)
	c.bytes -= item.Size()
}

func (c *LRU) evict() {
	for c.lru.tail != nil && c.over() {
		item := c.lru.tail
		c.drop(item)
		c.evictions++
		if c.onEvict != nil {
			c.onEvict(item.Key)
		}
	}
}

func (c *LRU) over() bool {
	if c.maxSize > 0 && c.lru.len > c.maxSize {
		return true
	}
	return c.maxBytes > 0 && c.bytes > c.maxBytes
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int   `json:"entries" yaml:"entries"`
	Bytes     int64 `json:"bytes" yaml:"bytes"`
	Hits      int64 `json:"hits" yaml:"hits"`
	Misses    int64 `json:"misses" yaml:"misses"`
	Evictions int64 `json:"evictions" yaml:"evictions"`
}

// HitRate returns hits over lookups, or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns the current counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.items),
		Bytes:     c.bytes,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

type snapshot struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

// Save writes the entries to w with msgpack, least recently used first.
func (c *LRU) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := snapshot{Version: formatVersion, Entries: make([]Entry, 0, len(c.items))}
	for item := c.lru.tail; item != nil; item = item.prev {
		data.Entries = append(data.Entries, item.Entry)
	}
	if err := msgpack.NewEncoder(w).Encode(&data); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return nil
}

// Load replaces the entries with those read from r. A snapshot written in
// another format version loads as empty.
func (c *LRU) Load(r io.Reader) error {
	var data snapshot
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = list{}
	c.bytes = 0
	if data.Version != formatVersion {
		return nil
	}
	for _, e := range data.Entries {
		item := &listItem{Entry: e}
		c.items[e.Key] = item
		c.lru.pushFront(item)
		c.bytes += item.Size()
	}
	c.evict()
	return nil
}

// SaveFile writes the cache to path, replacing it atomically.
func (c *LRU) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// LoadFile reads the cache from path. A missing file is not an error.
func (c *LRU) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}
