package scanner

import (
	"path"
	"strings"
)

// IgnorePattern is one gitignore-style line.
type IgnorePattern struct {
	Negated  bool // Line started with !
	DirOnly  bool // Line ended with /
	Anchored bool // Pattern contains a slash before its last segment

	base     string   // Directory of the ignore file, relative to the scan root
	segments []string // Slash separated glob segments
}

// ParseIgnorePattern parses one non-comment line of an ignore file.
func ParseIgnorePattern(line string) IgnorePattern {
	var p IgnorePattern
	if strings.HasPrefix(line, "!") {
		p.Negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.DirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.Anchored = true
		line = line[1:]
	}
	if strings.Contains(line, "/") {
		p.Anchored = true
	}
	p.segments = strings.Split(line, "/")
	return p
}

// Match reports whether the slash separated path rel, relative to the scan
// root, matches the pattern. isDir tells whether rel names a directory.
// Files inside a matched directory are covered by the walk skipping it.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	if p.DirOnly && !isDir {
		return false
	}
	if p.base != "" {
		if !strings.HasPrefix(rel, p.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, p.base+"/")
	}
	parts := strings.Split(rel, "/")
	if p.Anchored {
		return matchSegments(p.segments, parts)
	}
	// An unanchored pattern matches the last path element at any depth.
	return matchSegments(p.segments, parts[len(parts)-1:])
}

// matchSegments matches glob segments against path segments; "**" spans
// any number of segments.
func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}
