// Package scanner walks a source tree and collects the files a front end
// can analyze. It honors .gpxignore files with gitignore-style patterns.
package scanner

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3aro/go-partial-extract/pkg/frontend"
	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// FileInfo describes one analyzable source file.
type FileInfo struct {
	Path     string      // Relative path from root, slash separated
	FullPath string      // Absolute path
	Language ir.Language // Front end that handles the file
	Size     int64       // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	SkipTests       bool     // Skip Go _test.go files and Java *Test.java files
	DefaultExcludes []string // Directory names never descended into
	IgnoreFileName  string   // Name of the ignore file (default: .gpxignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".gpxignore",
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			".idea",
			".gradle",
			"build",
			"out",
			"target",
			"vendor",
			"testdata",
			"node_modules",
		},
	}
}

// Scanner collects source files below a root directory.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".gpxignore"
	}
	return &Scanner{opts: opts}
}

// Scan returns the analyzable files below root sorted by path. A root that
// is a single file is returned on its own when a front end handles it.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		lang, err := frontend.DetectLanguage(absRoot)
		if err != nil {
			return nil, err
		}
		return []FileInfo{{
			Path:     filepath.Base(absRoot),
			FullPath: absRoot,
			Language: lang,
			Size:     info.Size(),
		}}, nil
	}

	var files []FileInfo
	var patterns []IgnorePattern

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." {
				if s.skipDir(d.Name()) || matchesAny(rel, true, patterns) {
					return filepath.SkipDir
				}
			}
			nested, err := loadIgnoreFile(filepath.Join(path, s.opts.IgnoreFileName), rel)
			if err != nil {
				return fmt.Errorf("loading ignore patterns: %w", err)
			}
			patterns = append(patterns, nested...)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if s.opts.SkipHidden && isHidden(d.Name()) {
			return nil
		}
		if s.opts.SkipTests && isTestFile(d.Name()) {
			return nil
		}
		if matchesAny(rel, false, patterns) {
			return nil
		}
		lang, err := frontend.DetectLanguage(path)
		if err != nil {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     rel,
			FullPath: path,
			Language: lang,
			Size:     fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) skipDir(name string) bool {
	if s.opts.SkipHidden && isHidden(name) {
		return true
	}
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func isTestFile(name string) bool {
	return strings.HasSuffix(name, "_test.go") || strings.HasSuffix(name, "Test.java")
}

// loadIgnoreFile reads the patterns of one ignore file. Patterns are made
// relative to the scan root by prefixing dir. A missing file yields none.
func loadIgnoreFile(path, dir string) ([]IgnorePattern, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := ParseIgnorePattern(line)
		if dir != "." {
			p.base = dir
		}
		patterns = append(patterns, p)
	}
	return patterns, sc.Err()
}

// matchesAny applies patterns in order; a later negation re-includes a path
// an earlier pattern excluded.
func matchesAny(rel string, isDir bool, patterns []IgnorePattern) bool {
	ignored := false
	for _, p := range patterns {
		if p.Match(rel, isDir) {
			ignored = !p.Negated
		}
	}
	return ignored
}

// Scan scans root with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
