// Package pdg defines the Program Dependence Graph (PDG) of one method:
// the statement nodes of its CFG connected by control, data, anti and
// output dependences.
package pdg

import (
	"github.com/l3aro/go-partial-extract/pkg/cfg"
	"github.com/l3aro/go-partial-extract/pkg/ir"
	"github.com/l3aro/go-partial-extract/pkg/variable"
)

// DepType represents the type of dependence in a PDG edge.
type DepType string

const (
	DepTypeControl DepType = "control" // Nearest predicate deciding whether Dst runs
	DepTypeData    DepType = "data"    // Dst reads a value Src wrote
	DepTypeAnti    DepType = "anti"    // Dst overwrites a value Src read
	DepTypeOutput  DepType = "output"  // Dst overwrites a value Src wrote
)

// NoLoop marks a dependence that is not loop-carried.
const NoLoop = -1

// Node is a PDG node. Its ID equals the ID of its CFG node, so IDs follow
// source order and the entry node is 0.
type Node struct {
	ID        int                 `json:"id"`
	Type      cfg.NodeType        `json:"type"`
	StartLine int                 `json:"start_line"`
	EndLine   int                 `json:"end_line"`
	Text      string              `json:"text"`
	Defined   []variable.Variable `json:"defined,omitempty"`
	Used      []variable.Variable `json:"used,omitempty"`
	Declared  []variable.Variable `json:"declared,omitempty"`
	CFG       *cfg.Node           `json:"-"`
}

// Stmt returns the statement behind n, or nil for the entry node.
func (n *Node) Stmt() *ir.Stmt {
	return n.CFG.Stmt
}

// IsEntry reports whether n is the method entry node.
func (n *Node) IsEntry() bool {
	return n.Type == cfg.NodeTypeEntry
}

// IsPredicate reports whether n decides which statements run.
func (n *Node) IsPredicate() bool {
	return n.Type == cfg.NodeTypeBranch || n.Type == cfg.NodeTypeLoop
}

// IsThrow reports whether n is a throw statement.
func (n *Node) IsThrow() bool {
	return n.Type == cfg.NodeTypeThrow
}

// Defines reports whether n defines v.
func (n *Node) Defines(v variable.Variable) bool {
	return contains(n.Defined, v)
}

// Uses reports whether n uses v.
func (n *Node) Uses(v variable.Variable) bool {
	return contains(n.Used, v)
}

// Declares reports whether n declares local variable v.
func (n *Node) Declares(v variable.Variable) bool {
	return contains(n.Declared, v)
}

func contains(vs []variable.Variable, v variable.Variable) bool {
	for _, w := range vs {
		if w == v {
			return true
		}
	}
	return false
}

// Dependence is a PDG edge. Var is set for data, anti and output
// dependences. Loop is the loop header a loop-carried dependence crosses.
type Dependence struct {
	Type        DepType           `json:"type"`
	Src         int               `json:"src"`
	Dst         int               `json:"dst"`
	Var         variable.Variable `json:"var"`
	LoopCarried bool              `json:"loop_carried,omitempty"`
	Loop        int               `json:"loop"`
}

// Attribute lists the nodes defining one field reached through a
// reference.
type Attribute struct {
	Var   variable.Variable
	Nodes []int
}

// PDG is the dependence graph of one method. It is immutable once Build
// returns and safe for concurrent readers.
type PDG struct {
	Method *ir.Method   `json:"-"`
	CFG    *cfg.Graph   `json:"-"`
	Nodes  []*Node      `json:"nodes"`
	Edges  []Dependence `json:"edges"`

	incoming   [][]int
	outgoing   [][]int
	attributes map[variable.Variable][]Attribute
}

// Entry returns the method entry node.
func (p *PDG) Entry() *Node {
	return p.Nodes[0]
}

// Node returns the node with the given ID.
func (p *PDG) Node(id int) *Node {
	return p.Nodes[id]
}

// Incoming returns the indexes into Edges of the dependences ending at id.
func (p *PDG) Incoming(id int) []int {
	return p.incoming[id]
}

// Outgoing returns the indexes into Edges of the dependences starting at
// id.
func (p *PDG) Outgoing(id int) []int {
	return p.outgoing[id]
}

// StatementCount returns the number of statement nodes.
func (p *PDG) StatementCount() int {
	return len(p.Nodes) - 1
}

// DefinedAttributesOf returns the fields reached through reference v that
// some statement of the method defines, with their defining nodes.
func (p *PDG) DefinedAttributesOf(v variable.Variable) []Attribute {
	return p.attributes[v.Initial()]
}

// Declarations returns the parameters and local variables of the method.
func (p *PDG) Declarations() []variable.Variable {
	decls := p.Method.Declarations()
	out := make([]variable.Variable, 0, len(decls))
	for _, b := range decls {
		out = append(out, variable.Plain(b))
	}
	return out
}

// NodeOf returns the node of statement s, or nil.
func (p *PDG) NodeOf(s *ir.Stmt) *Node {
	n := p.CFG.NodeOf(s)
	if n == nil {
		return nil
	}
	return p.Nodes[n.ID]
}
