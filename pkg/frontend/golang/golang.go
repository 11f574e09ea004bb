// Package golang turns Go functions and methods into ir.Method values.
// Identifiers are resolved with go/types; files inside a module are loaded
// with golang.org/x/tools/go/packages so imported types resolve too.
package golang

import (
	"context"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/packages"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// File is one type-checked Go source file.
type File struct {
	Path string
	Src  []byte
	Fset *token.FileSet
	AST  *ast.File
	Info *types.Info
	Pkg  *types.Package
}

func newInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}
}

// ParseFile parses and type-checks src on its own. Type errors, such as
// unresolved imports, are tolerated: local variables still resolve.
func ParseFile(filename string, src []byte) (*File, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	info := newInfo()
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		Error:    func(error) {},
	}
	pkg, _ := conf.Check(f.Name.Name, fset, []*ast.File{f}, info)

	return &File{Path: filename, Src: src, Fset: fset, AST: f, Info: info, Pkg: pkg}, nil
}

// LoadFile loads path with the rest of its package. It falls back to
// ParseFile when the package cannot be loaded.
func LoadFile(ctx context.Context, path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}

	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir:  filepath.Dir(abs),
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, "file="+abs)
	if err == nil {
		for _, pkg := range pkgs {
			if pkg.TypesInfo == nil {
				continue
			}
			for _, f := range pkg.Syntax {
				if fset.File(f.Pos()).Name() == abs {
					return &File{Path: abs, Src: src, Fset: fset, AST: f, Info: pkg.TypesInfo, Pkg: pkg.Types}, nil
				}
			}
		}
	}
	return ParseFile(abs, src)
}

// ParseMethod translates the function or method named name. A name of the
// form "T.M" matches method M of receiver type T.
func ParseMethod(f *File, name string) (*ir.Method, error) {
	recv := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		recv, name = name[:i], name[i+1:]
	}

	for _, decl := range f.AST.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil || fn.Name.Name != name {
			continue
		}
		if recv != "" && receiverTypeName(fn) != recv {
			continue
		}
		return newResolver(f, fn).method()
	}
	return nil, fmt.Errorf("%w: %s", ir.ErrMethodNotFound, name)
}

// MethodAt translates the function declaration enclosing offset. Function
// literals are not analysis units: the declaration around them is used.
func MethodAt(f *File, offset int) (*ir.Method, error) {
	tf := f.Fset.File(f.AST.Pos())
	if tf == nil || offset < 0 || offset > tf.Size() {
		return nil, fmt.Errorf("%w: offset %d out of range", ir.ErrMethodNotFound, offset)
	}
	pos := tf.Pos(offset)

	path, _ := astutil.PathEnclosingInterval(f.AST, pos, pos)
	for _, n := range path {
		if fn, ok := n.(*ast.FuncDecl); ok && fn.Body != nil {
			return newResolver(f, fn).method()
		}
	}
	return nil, fmt.Errorf("%w: no function at offset %d", ir.ErrMethodNotFound, offset)
}

// Methods lists the functions and methods with a body, methods as "T.M".
func Methods(f *File) []string {
	var names []string
	for _, decl := range f.AST.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		if recv := receiverTypeName(fn); recv != "" {
			names = append(names, recv+"."+fn.Name.Name)
			continue
		}
		names = append(names, fn.Name.Name)
	}
	return names
}

func receiverTypeName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	t := fn.Recv.List[0].Type
	for {
		switch x := t.(type) {
		case *ast.StarExpr:
			t = x.X
		case *ast.IndexExpr:
			t = x.X
		case *ast.IndexListExpr:
			t = x.X
		case *ast.ParenExpr:
			t = x.X
		case *ast.Ident:
			return x.Name
		default:
			return ""
		}
	}
}
