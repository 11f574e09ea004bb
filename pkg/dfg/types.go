// Package dfg provides the data flow analyses the dependence graph is built
// from: reaching definitions and reaching uses over a cfg.Graph.
package dfg

import (
	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// Def is one definition site.
type Def struct {
	Node int               `json:"node"`
	Var  variable.Variable `json:"var"`
	Weak bool              `json:"weak,omitempty"` // Does not overwrite earlier definitions
}

// Use is one use site.
type Use struct {
	Node int               `json:"node"`
	Var  variable.Variable `json:"var"`
}

// Facts lists, per CFG node, the variables it defines, uses and declares.
type Facts struct {
	Defs     [][]Def
	Uses     [][]Use
	Declares [][]variable.Variable
}

// Collect gathers the accesses of every CFG node. The entry node defines
// the receiver and all parameters.
func Collect(g *cfg.Graph) *Facts {
	n := len(g.Nodes)
	f := &Facts{
		Defs:     make([][]Def, n),
		Uses:     make([][]Use, n),
		Declares: make([][]variable.Variable, n),
	}

	for _, b := range g.Method.Declarations() {
		if b.Kind == ir.BindingLocal {
			continue
		}
		f.addDef(0, ir.Access{Binding: b})
	}

	for _, node := range g.Nodes {
		s := node.Stmt
		if s == nil {
			continue
		}
		for _, a := range s.Uses {
			f.addUse(node.ID, a)
		}
		for _, c := range s.Cases {
			for _, a := range c.Uses {
				f.addUse(node.ID, a)
			}
		}
		for _, a := range s.Defs {
			f.addDef(node.ID, a)
		}
		for _, b := range s.Declares {
			f.Declares[node.ID] = append(f.Declares[node.ID], variable.Plain(b))
		}
	}
	return f
}

func (f *Facts) addDef(node int, a ir.Access) {
	v := variable.FromAccess(a)
	for i, d := range f.Defs[node] {
		if d.Var == v {
			// A strong definition wins over a weak one in the same statement.
			f.Defs[node][i].Weak = d.Weak && a.Weak
			return
		}
	}
	f.Defs[node] = append(f.Defs[node], Def{Node: node, Var: v, Weak: a.Weak})
}

func (f *Facts) addUse(node int, a ir.Access) {
	v := variable.FromAccess(a)
	for _, u := range f.Uses[node] {
		if u.Var == v {
			return
		}
	}
	f.Uses[node] = append(f.Uses[node], Use{Node: node, Var: v})
}

// Defines reports whether node defines v.
func (f *Facts) Defines(node int, v variable.Variable) bool {
	for _, d := range f.Defs[node] {
		if d.Var == v {
			return true
		}
	}
	return false
}

// UsesVar reports whether node uses v.
func (f *Facts) UsesVar(node int, v variable.Variable) bool {
	for _, u := range f.Uses[node] {
		if u.Var == v {
			return true
		}
	}
	return false
}
