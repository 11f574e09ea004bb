package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-partial-extract/pkg/report"
)

// FileName is the name of the store file inside the cache directory.
const FileName = "reports.msgpack"

// ReportStore caches opportunity reports keyed by the analyzed source and
// selection.
type ReportStore struct {
	lru  *LRU
	path string
}

// OpenReportStore loads the store kept in dir, creating dir if needed.
func OpenReportStore(dir string, maxEntries int) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	s := &ReportStore{
		lru:  New(Options{MaxEntries: maxEntries}),
		path: filepath.Join(dir, FileName),
	}
	if err := s.lru.LoadFile(s.path); err != nil {
		return nil, err
	}
	return s, nil
}

// Key identifies an analysis of method over the byte range [first, last]
// of src. extra distinguishes runs with different analysis options.
func Key(src []byte, method string, first, last int, extra string) string {
	h := sha256.New()
	h.Write(src)
	fmt.Fprintf(h, "\x00%s\x00%d\x00%d\x00%s", method, first, last, extra)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the report stored under key.
func (s *ReportStore) Get(key string) (*report.Report, error) {
	b, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	var r report.Report
	if err := msgpack.Unmarshal(b, &r); err != nil {
		s.lru.Delete(key)
		return nil, fmt.Errorf("decoding cached report: %w", err)
	}
	return &r, nil
}

// Put stores r under key.
func (s *ReportStore) Put(key string, r *report.Report) error {
	b, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	s.lru.Set(key, b)
	return nil
}

// Save persists the store.
func (s *ReportStore) Save() error {
	return s.lru.SaveFile(s.path)
}

// Clear drops every report and removes the store file.
func (s *ReportStore) Clear() error {
	s.lru.Clear()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}

// Path returns the store file path.
func (s *ReportStore) Path() string {
	return s.path
}

// Stats returns the counters of the underlying LRU.
func (s *ReportStore) Stats() Stats {
	return s.lru.Stats()
}

// Summary describes st for people: entry count, size and hit rate.
func Summary(st Stats) string {
	return fmt.Sprintf("%s entries, %s, %.0f%% hit rate",
		humanize.Comma(int64(st.Entries)), humanize.Bytes(uint64(st.Bytes)), st.HitRate()*100)
}

// FileSize returns the size of the store file, or 0 when it does not exist.
func (s *ReportStore) FileSize() string {
	info, err := os.Stat(s.path)
	if err != nil {
		return humanize.Bytes(0)
	}
	return humanize.Bytes(uint64(info.Size()))
}
