// Package frontend picks the front end for a source file and converts
// line-based selections into the byte ranges the analysis works on.
package frontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-partial-extract/pkg/frontend/golang"
	"github.com/l3aro/go-partial-extract/pkg/frontend/java"
	"github.com/l3aro/go-partial-extract/pkg/ir"
)

var (
	// ErrMethodNotFound is returned when the file has no matching method.
	ErrMethodNotFound = ir.ErrMethodNotFound

	// ErrUnsupportedLanguage is returned for files no front end handles.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrEmptySelection is returned when a line range holds no statement of
	// the method.
	ErrEmptySelection = errors.New("selection contains no statements")
)

// DetectLanguage maps a file extension to a language.
func DetectLanguage(path string) (ir.Language, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java":
		return ir.LanguageJava, nil
	case ".go":
		return ir.LanguageGo, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
}

// Load translates the method named name in the file at path.
func Load(ctx context.Context, path, name string) (*ir.Method, error) {
	lang, err := DetectLanguage(path)
	if err != nil {
		return nil, err
	}

	var m *ir.Method
	switch lang {
	case ir.LanguageJava:
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}
		m, err = java.ParseMethod(src, name)
		if err != nil {
			return nil, err
		}
	case ir.LanguageGo:
		f, err := golang.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		if m, err = golang.ParseMethod(f, name); err != nil {
			return nil, err
		}
	}
	m.Path = path
	return m, nil
}

// LoadAt translates the method enclosing the first non-blank character of
// the 1-based line.
func LoadAt(ctx context.Context, path string, line int) (*ir.Method, error) {
	lang, err := DetectLanguage(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	offset := LineOffset(src, line)
	if offset < 0 {
		return nil, fmt.Errorf("%w: line %d out of range", ErrMethodNotFound, line)
	}

	var m *ir.Method
	switch lang {
	case ir.LanguageJava:
		m, err = java.MethodAt(src, offset)
	case ir.LanguageGo:
		var f *golang.File
		if f, err = golang.LoadFile(ctx, path); err == nil {
			m, err = golang.MethodAt(f, offset)
		}
	}
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Methods lists the method names defined in the file at path.
func Methods(ctx context.Context, path string) ([]string, error) {
	lang, err := DetectLanguage(path)
	if err != nil {
		return nil, err
	}
	if lang == ir.LanguageGo {
		f, err := golang.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		return golang.Methods(f), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return java.Methods(src), nil
}

// LineOffset returns the byte offset of the first non-blank character of
// the 1-based line, or -1 when src has fewer lines.
func LineOffset(src []byte, line int) int {
	if line < 1 {
		return -1
	}
	off := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(src[off:], '\n')
		if i < 0 {
			return -1
		}
		off += i + 1
	}
	for off < len(src) && (src[off] == ' ' || src[off] == '\t') {
		off++
	}
	return off
}
