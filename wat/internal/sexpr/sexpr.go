// Package sexpr groups WAT tokens into a tree of lists and atoms.
package sexpr

import (
	"fmt"

	"github.com/wippyai/strokebridge/wat/internal/token"
)

// Node is either a list (List != nil or IsList) or a single token.
type Node struct {
	Tok    token.Token
	List   []*Node
	IsList bool
	Line   int
}

// Head returns the keyword of a list whose first element is an atom.
func (n *Node) Head() string {
	if !n.IsList || len(n.List) == 0 || n.List[0].IsList || n.List[0].Tok.Type != token.Atom {
		return ""
	}
	return n.List[0].Tok.Value
}

// IsAtom reports whether n is an atom token.
func (n *Node) IsAtom() bool {
	return !n.IsList && n.Tok.Type == token.Atom
}

// IsString reports whether n is a string token.
func (n *Node) IsString() bool {
	return !n.IsList && n.Tok.Type == token.String
}

func (n *Node) String() string {
	if !n.IsList {
		return n.Tok.Value
	}
	if h := n.Head(); h != "" {
		return "(" + h + " ...)"
	}
	return "(...)"
}

// Parse builds the top-level nodes of a token stream.
func Parse(tokens []token.Token) ([]*Node, error) {
	var root []*Node
	var stack []*Node

	for _, t := range tokens {
		switch t.Type {
		case token.LParen:
			stack = append(stack, &Node{IsList: true, Line: t.Line})
		case token.RParen:
			if len(stack) == 0 {
				return nil, fmt.Errorf("line %d: unexpected ')'", t.Line)
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = append(root, n)
			} else {
				parent := stack[len(stack)-1]
				parent.List = append(parent.List, n)
			}
		default:
			n := &Node{Tok: t, Line: t.Line}
			if len(stack) == 0 {
				root = append(root, n)
			} else {
				parent := stack[len(stack)-1]
				parent.List = append(parent.List, n)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("line %d: unexpected end of input, unclosed '('", stack[len(stack)-1].Line)
	}
	return root, nil
}
