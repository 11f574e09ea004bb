package frontend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-partial-extract/pkg/frontend/java"
	"github.com/l3aro/go-partial-extract/pkg/ir"
)

const selectionSource = `class A {
    int m(int a) {
        int x = a;
        if (x > 0) {
            x = 1;
        }
        x++;
        return x;
    }
}
`

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path    string
		want    ir.Language
		wantErr bool
	}{
		{"Main.java", ir.LanguageJava, false},
		{"pkg/file.go", ir.LanguageGo, false},
		{"UPPER.GO", ir.LanguageGo, false},
		{"script.py", "", true},
		{"Makefile", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectLanguage(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineOffset(t *testing.T) {
	src := []byte("a\n  b\n")
	tests := []struct {
		line int
		want int
	}{
		{0, -1},
		{1, 0},
		{2, 4},
		{3, 6},
		{4, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LineOffset(src, tt.line), "line %d", tt.line)
	}
}

func TestSelectLines(t *testing.T) {
	m, err := java.ParseMethod([]byte(selectionSource), "m")
	require.NoError(t, err)

	decl := m.Body.Stmts[0]
	guard := m.Body.Stmts[1]
	incr := m.Body.Stmts[2]

	tests := []struct {
		name       string
		start, end int
		first      int
		last       int
	}{
		{"single statement", 3, 3, decl.Span.Start, decl.Span.End},
		{"nested start widens to the if", 5, 7, guard.Span.Start, incr.Span.End},
		{"inside the if only", 5, 5, guard.Span.Start, guard.Span.End},
		{"reversed range", 7, 5, guard.Span.Start, incr.Span.End},
		{"whole body", 1, 20, decl.Span.Start, m.Body.Stmts[3].Span.End},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last, err := SelectLines(m, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}

	_, _, err = SelectLines(m, 20, 30)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "A.java")
	require.NoError(t, os.WriteFile(path, []byte(selectionSource), 0644))
	ctx := context.Background()

	m, err := Load(ctx, path, "m")
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)
	assert.Equal(t, "m", m.Name)

	_, err = Load(ctx, path, "missing")
	assert.ErrorIs(t, err, ErrMethodNotFound)

	m, err = LoadAt(ctx, path, 7)
	require.NoError(t, err)
	assert.Equal(t, "m", m.Name)

	_, err = LoadAt(ctx, path, 1)
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = LoadAt(ctx, path, 99)
	assert.ErrorIs(t, err, ErrMethodNotFound)

	names, err := Methods(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, names)

	_, err = Load(ctx, filepath.Join(dir, "notes.txt"), "m")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}
