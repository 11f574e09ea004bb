package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func paths(files []FileInfo) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScannerScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":                 "package main",
		"util/helper.go":          "package util",
		"src/App.java":            "class App {}",
		"README.md":               "# Test",
		"script.py":               "print('hi')",
		".hidden/Secret.java":     "class Secret {}",
		"target/classes/A.java":   "class A {}",
		"vendor/dep/dep.go":       "package dep",
		"util/helper_test.go":     "package util",
		"src/AppTest.java":        "class AppTest {}",
		"testdata/fixture/f.java": "class F {}",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"main.go", "src/App.java", "src/AppTest.java", "util/helper.go", "util/helper_test.go"}
	if got := paths(results); !equalStrings(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}

	langs := map[string]ir.Language{"main.go": ir.LanguageGo, "src/App.java": ir.LanguageJava}
	for _, f := range results {
		if want, ok := langs[f.Path]; ok && f.Language != want {
			t.Errorf("%s: Language = %s, want %s", f.Path, f.Language, want)
		}
		if !filepath.IsAbs(f.FullPath) {
			t.Errorf("%s: FullPath %s is not absolute", f.Path, f.FullPath)
		}
	}
}

func TestScannerSkipTests(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a.go":         "package a",
		"a_test.go":    "package a",
		"B.java":       "class B {}",
		"BTest.java":   "class BTest {}",
		"Testing.java": "class Testing {}",
	})

	opts := DefaultOptions()
	opts.SkipTests = true
	results, err := New(opts).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"B.java", "Testing.java", "a.go"}
	if got := paths(results); !equalStrings(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScannerWithIgnoreFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".gpxignore":       "# generated code\ngen/\n*_mock.go\n!keep_mock.go\n/Root.java\n",
		"gen/api.go":       "package gen",
		"svc/svc.go":       "package svc",
		"svc/svc_mock.go":  "package svc",
		"svc/keep_mock.go": "package svc",
		"Root.java":        "class Root {}",
		"sub/Root.java":    "class Root {}",
		"sub/.gpxignore":   "Local.java\n",
		"sub/Local.java":   "class Local {}",
		"other/Local.java": "class Local {}",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"other/Local.java", "sub/Root.java", "svc/keep_mock.go", "svc/svc.go"}
	if got := paths(results); !equalStrings(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScanSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{"One.java": "class One {}", "notes.txt": "x"})

	results, err := Scan(filepath.Join(tmpDir, "One.java"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 || results[0].Path != "One.java" || results[0].Language != ir.LanguageJava {
		t.Errorf("Scan() = %+v, want One.java", results)
	}

	if _, err := Scan(filepath.Join(tmpDir, "notes.txt")); err == nil {
		t.Error("Scan() of an unsupported file succeeded")
	}
	if _, err := Scan(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Scan() of a missing path succeeded")
	}
}

func TestIgnorePattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{"*.go", "a.go", false, true},
		{"*.go", "deep/dir/a.go", false, true},
		{"*.go", "a.java", false, false},
		{"gen/", "gen", true, true},
		{"gen/", "gen", false, false},
		{"gen/", "pkg/gen", true, true},
		{"/Root.java", "Root.java", false, true},
		{"/Root.java", "sub/Root.java", false, false},
		{"api/*.java", "api/A.java", false, true},
		{"api/*.java", "x/api/A.java", false, false},
		{"**/mocks", "a/b/mocks", true, true},
		{"src/**/Gen.java", "src/a/b/Gen.java", false, true},
		{"src/**/Gen.java", "src/Gen.java", false, true},
		{"Test?.java", "Test1.java", false, true},
		{"[ab].go", "b.go", false, true},
		{"[ab].go", "c.go", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.path, func(t *testing.T) {
			p := ParseIgnorePattern(tt.pattern)
			if got := p.Match(tt.path, tt.isDir); got != tt.want {
				t.Errorf("Match(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
			}
		})
	}

	if p := ParseIgnorePattern("!keep.go"); !p.Negated || !p.Match("keep.go", false) {
		t.Errorf("negated pattern = %+v", p)
	}
}
