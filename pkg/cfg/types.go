// Package cfg builds statement-level Control Flow Graphs (CFGs) over an
// ir.Method. Every non-block statement becomes one node; branching and
// looping statements become predicate nodes.
package cfg

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-partial-extract/pkg/ir"
)

// NodeType represents the type of a CFG node.
type NodeType string

const (
	NodeTypeEntry     NodeType = "entry"     // Method entry point
	NodeTypeExit      NodeType = "exit"      // Method exit point
	NodeTypeStatement NodeType = "statement" // Simple statement
	NodeTypeBranch    NodeType = "branch"    // if/switch/try/synchronized header
	NodeTypeLoop      NodeType = "loop"      // Loop header or do-while condition
	NodeTypeThrow     NodeType = "throw"     // throw or panic
	NodeTypeCatch     NodeType = "catch"     // Catch clause, defines its parameter
)

// EdgeType represents the type of a CFG edge.
type EdgeType string

const (
	EdgeTypeUnconditional EdgeType = "unconditional" // Fall-through to the next statement
	EdgeTypeTrue          EdgeType = "true"          // Branch or loop condition holds
	EdgeTypeFalse         EdgeType = "false"         // Branch or loop condition fails
	EdgeTypeBackEdge      EdgeType = "back_edge"     // Loop continuation
	EdgeTypeBreak         EdgeType = "break"         // Break from loop, switch or labeled statement
	EdgeTypeContinue      EdgeType = "continue"      // Continue to the next iteration
	EdgeTypeReturn        EdgeType = "return"        // Return to method exit
	EdgeTypeThrow         EdgeType = "throw"         // Explicit throw, or try header to handler
	EdgeTypeCase          EdgeType = "case"          // Switch header to a case body
	EdgeTypeException     EdgeType = "exception"     // Implicit exception inside a try body; dataflow only
	EdgeTypeStructural    EdgeType = "structural"    // Never taken; nests try/synchronized bodies for post-dominance
)

// Node is one CFG vertex. Entry is always ID 0 and Exit is the last ID;
// statement nodes are numbered in source order between them.
type Node struct {
	ID        int      `json:"id"`
	Type      NodeType `json:"type"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Text      string   `json:"text"`
	Stmt      *ir.Stmt `json:"-"` // nil for entry and exit
}

// Edge is a directed control-flow transition.
type Edge struct {
	From int      `json:"from"`
	To   int      `json:"to"`
	Type EdgeType `json:"type"`
}

// ErrUnsupported is the cause of every StructuralError.
var ErrUnsupported = errors.New("unsupported construct")

// StructuralError reports a statement shape the builder cannot link
// safely. Nothing downstream of a failed build may be trusted.
type StructuralError struct {
	Stmt   *ir.Stmt
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Stmt == nil {
		return fmt.Sprintf("cannot analyze method: %s", e.Reason)
	}
	return fmt.Sprintf("cannot analyze method: %s statement at line %d: %s",
		e.Stmt.Kind, e.Stmt.Span.StartLine, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return ErrUnsupported
}
