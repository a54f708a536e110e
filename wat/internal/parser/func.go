package parser

import (
	"math/bits"
	"strings"

	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/wat/internal/ast"
	"github.com/wippyai/strokebridge/wat/internal/opcode"
	"github.com/wippyai/strokebridge/wat/internal/sexpr"
)

// funcCtx carries the per-function state while compiling instructions.
type funcCtx struct {
	p         *Parser
	localMap  map[string]uint32
	numLocals uint32
	labels    []string
	out       []ast.Instr
}

func newFuncCtx(p *Parser) *funcCtx {
	return &funcCtx{p: p, localMap: make(map[string]uint32)}
}

func (p *Parser) compileFunc(fn *ast.Func, pf pendingFunc) error {
	c := newFuncCtx(p)
	for i, name := range pf.paramNames {
		if name == "" {
			continue
		}
		if _, dup := c.localMap[name]; dup {
			return errors.Syntax(pf.node.Line, "duplicate local %s", name)
		}
		c.localMap[name] = uint32(i)
	}
	c.numLocals = uint32(len(pf.params))

	body := pf.body
	for len(body) > 0 && body[0].Head() == "local" {
		decl := body[0].List[1:]
		if len(decl) == 2 && isID(decl[0]) {
			vt, err := p.valType(decl[1])
			if err != nil {
				return err
			}
			if _, dup := c.localMap[decl[0].Tok.Value]; dup {
				return errors.Syntax(decl[0].Line, "duplicate local %s", decl[0].Tok.Value)
			}
			c.localMap[decl[0].Tok.Value] = c.numLocals
			fn.Locals = append(fn.Locals, vt)
			c.numLocals++
		} else {
			for _, d := range decl {
				vt, err := p.valType(d)
				if err != nil {
					return err
				}
				fn.Locals = append(fn.Locals, vt)
				c.numLocals++
			}
		}
		body = body[1:]
	}

	if err := c.sequence(body); err != nil {
		return err
	}
	if len(c.labels) > 0 {
		return errors.Syntax(pf.node.Line, "missing 'end' for block")
	}
	fn.Body = c.out
	return nil
}

func (c *funcCtx) emit(op byte, imm any) {
	c.out = append(c.out, ast.Instr{Opcode: op, Imm: imm})
}

func (c *funcCtx) pushLabel(name string) { c.labels = append(c.labels, name) }

func (c *funcCtx) popLabel() { c.labels = c.labels[:len(c.labels)-1] }

func (c *funcCtx) resolveLabel(n *sexpr.Node) (uint32, error) {
	v := atom(n)
	if strings.HasPrefix(v, "$") {
		for i := len(c.labels) - 1; i >= 0; i-- {
			if c.labels[i] == v {
				return uint32(len(c.labels) - 1 - i), nil
			}
		}
		return 0, errors.Syntax(n.Line, "unknown label %s", v)
	}
	u, err := parseUint(v, 32)
	if err != nil {
		return 0, errors.Syntax(n.Line, "invalid label %s", n)
	}
	return uint32(u), nil
}

// sequence compiles a mix of plain and folded instructions.
func (c *funcCtx) sequence(nodes []*sexpr.Node) error {
	i := 0
	for i < len(nodes) {
		n := nodes[i]
		i++
		if n.IsList {
			if err := c.folded(n); err != nil {
				return err
			}
			continue
		}
		if !n.IsAtom() {
			return errors.Syntax(n.Line, "unexpected string in instruction sequence")
		}

		var err error
		switch name := n.Tok.Value; name {
		case "block", "loop", "if":
			info, _ := opcode.Lookup(name)
			label := ""
			if i < len(nodes) && isID(nodes[i]) {
				label = nodes[i].Tok.Value
				i++
			}
			var bt ast.BlockType
			bt, i, err = c.blockType(nodes, i)
			if err != nil {
				return err
			}
			c.emit(info.Opcode, bt)
			c.pushLabel(label)

		case "else", "end":
			if len(c.labels) == 0 {
				return errors.Syntax(n.Line, "'%s' without matching block", name)
			}
			if i < len(nodes) && isID(nodes[i]) {
				i++
			}
			if name == "else" {
				c.emit(opcode.OpElse, nil)
			} else {
				c.popLabel()
				c.emit(opcode.OpEnd, nil)
			}

		default:
			info, ok := opcode.Lookup(name)
			if !ok {
				return errors.Syntax(n.Line, "unknown instruction %q", name)
			}
			var op byte
			var imm any
			op, imm, i, err = c.immediate(n, info, nodes, i)
			if err != nil {
				return err
			}
			c.emit(op, imm)
		}
	}
	return nil
}

// folded compiles one parenthesized instruction, operands first.
func (c *funcCtx) folded(n *sexpr.Node) error {
	name := n.Head()
	if name == "" {
		return errors.Syntax(n.Line, "expected instruction")
	}
	items := n.List[1:]

	switch name {
	case "block", "loop":
		info, _ := opcode.Lookup(name)
		label, j := c.optLabel(items, 0)
		bt, j, err := c.blockType(items, j)
		if err != nil {
			return err
		}
		c.emit(info.Opcode, bt)
		c.pushLabel(label)
		if err := c.sequence(items[j:]); err != nil {
			return err
		}
		c.popLabel()
		c.emit(opcode.OpEnd, nil)
		return nil

	case "if":
		label, j := c.optLabel(items, 0)
		bt, j, err := c.blockType(items, j)
		if err != nil {
			return err
		}
		k := j
		for k < len(items) && items[k].Head() != "then" {
			if !items[k].IsList {
				return errors.Syntax(items[k].Line, "expected folded condition, got %s", items[k])
			}
			k++
		}
		if err := c.sequence(items[j:k]); err != nil {
			return err
		}
		c.emit(opcode.OpIf, bt)
		c.pushLabel(label)
		if k < len(items) {
			if err := c.sequence(items[k].List[1:]); err != nil {
				return err
			}
			k++
		}
		if k < len(items) && items[k].Head() == "else" {
			c.emit(opcode.OpElse, nil)
			if err := c.sequence(items[k].List[1:]); err != nil {
				return err
			}
			k++
		}
		if k != len(items) {
			return errors.Syntax(items[k].Line, "unexpected %s in if", items[k])
		}
		c.popLabel()
		c.emit(opcode.OpEnd, nil)
		return nil
	}

	info, ok := opcode.Lookup(name)
	if !ok {
		return errors.Syntax(n.Line, "unknown instruction %q", name)
	}
	op, imm, j, err := c.immediate(n, info, items, 0)
	if err != nil {
		return err
	}
	for _, operand := range items[j:] {
		if !operand.IsList {
			return errors.Syntax(operand.Line, "unexpected %s in folded %s", operand, name)
		}
		if err := c.folded(operand); err != nil {
			return err
		}
	}
	c.emit(op, imm)
	return nil
}

func (c *funcCtx) optLabel(items []*sexpr.Node, i int) (string, int) {
	if i < len(items) && isID(items[i]) {
		return items[i].Tok.Value, i + 1
	}
	return "", i
}

// blockType reads (type x)? (param ...)* (result ...)* at nodes[i:].
func (c *funcCtx) blockType(nodes []*sexpr.Node, i int) (ast.BlockType, int, error) {
	j := i
	for j < len(nodes) {
		h := nodes[j].Head()
		if h != "type" && h != "param" && h != "result" {
			break
		}
		j++
	}
	if j == i {
		return ast.BlockType{TypeIdx: -1, Simple: ast.BlockTypeEmpty}, i, nil
	}

	if j-i == 1 && nodes[i].Head() == "result" {
		res := nodes[i].List[1:]
		switch len(res) {
		case 0:
			return ast.BlockType{TypeIdx: -1, Simple: ast.BlockTypeEmpty}, j, nil
		case 1:
			vt, err := c.p.valType(res[0])
			if err != nil {
				return ast.BlockType{}, j, err
			}
			return ast.BlockType{TypeIdx: -1, Simple: byte(vt)}, j, nil
		}
	}

	idx, _, _, rest, err := c.p.typeUse(nodes[i:j])
	if err != nil {
		return ast.BlockType{}, j, err
	}
	if len(rest) > 0 {
		return ast.BlockType{}, j, errors.Syntax(rest[0].Line, "unexpected %s in block type", rest[0])
	}
	return ast.BlockType{TypeIdx: int32(idx)}, j, nil
}

// immediate consumes the immediates of a plain instruction from nodes[i:]
// and returns the final opcode, its immediate and the next position.
func (c *funcCtx) immediate(n *sexpr.Node, info opcode.Info, nodes []*sexpr.Node, i int) (byte, any, int, error) {
	next := func() (*sexpr.Node, error) {
		if i >= len(nodes) || !nodes[i].IsAtom() {
			return nil, errors.Syntax(n.Line, "%s: missing immediate", n)
		}
		i++
		return nodes[i-1], nil
	}

	switch info.Imm {
	case opcode.ImmNone:
		return info.Opcode, nil, i, nil

	case opcode.ImmLocal, opcode.ImmGlobal, opcode.ImmFunc:
		arg, err := next()
		if err != nil {
			return 0, nil, i, err
		}
		names, what := c.localMap, "local"
		switch info.Imm {
		case opcode.ImmGlobal:
			names, what = c.p.globalMap, "global"
		case opcode.ImmFunc:
			names, what = c.p.funcMap, "function"
		}
		idx, err := c.p.resolve(names, arg, what)
		if err != nil {
			return 0, nil, i, err
		}
		if info.Imm == opcode.ImmLocal && idx >= c.numLocals {
			return 0, nil, i, errors.Syntax(arg.Line, "local index %d out of range", idx)
		}
		return info.Opcode, idx, i, nil

	case opcode.ImmLabel:
		arg, err := next()
		if err != nil {
			return 0, nil, i, err
		}
		depth, err := c.resolveLabel(arg)
		return info.Opcode, depth, i, err

	case opcode.ImmBrTable:
		var labels []uint32
		for i < len(nodes) && nodes[i].IsAtom() && (isID(nodes[i]) || isNumber(nodes[i].Tok.Value)) {
			depth, err := c.resolveLabel(nodes[i])
			if err != nil {
				return 0, nil, i, err
			}
			labels = append(labels, depth)
			i++
		}
		if len(labels) == 0 {
			return 0, nil, i, errors.Syntax(n.Line, "br_table needs at least one label")
		}
		return info.Opcode, ast.BrTable{Labels: labels[:len(labels)-1], Default: labels[len(labels)-1]}, i, nil

	case opcode.ImmI32, opcode.ImmI64, opcode.ImmF32, opcode.ImmF64:
		arg, err := next()
		if err != nil {
			return 0, nil, i, err
		}
		var imm any
		switch info.Imm {
		case opcode.ImmI32:
			imm, err = parseI32(arg.Tok.Value)
		case opcode.ImmI64:
			imm, err = parseI64(arg.Tok.Value)
		case opcode.ImmF32:
			imm, err = parseF32(arg.Tok.Value)
		default:
			imm, err = parseF64(arg.Tok.Value)
		}
		if err != nil {
			return 0, nil, i, errors.Syntax(arg.Line, "%v", err)
		}
		return info.Opcode, imm, i, nil

	case opcode.ImmMemarg:
		ma := ast.Memarg{Align: info.NaturalAlign}
		for i < len(nodes) && nodes[i].IsAtom() {
			v := nodes[i].Tok.Value
			switch {
			case strings.HasPrefix(v, "offset="):
				off, err := parseUint(v[len("offset="):], 32)
				if err != nil {
					return 0, nil, i, errors.Syntax(nodes[i].Line, "invalid offset %q", v)
				}
				ma.Offset = uint32(off)
			case strings.HasPrefix(v, "align="):
				a, err := parseUint(v[len("align="):], 32)
				if err != nil || a == 0 || a&(a-1) != 0 {
					return 0, nil, i, errors.Syntax(nodes[i].Line, "alignment must be a power of two: %q", v)
				}
				ma.Align = uint32(bits.TrailingZeros64(a))
			default:
				return info.Opcode, ma, i, nil
			}
			i++
		}
		return info.Opcode, ma, i, nil

	case opcode.ImmMemIdx:
		if i < len(nodes) && atom(nodes[i]) == "0" {
			i++
		}
		return info.Opcode, ast.Zeros(1), i, nil

	case opcode.ImmSelect:
		if i < len(nodes) && nodes[i].Head() == "result" {
			var types []ast.ValType
			for _, d := range nodes[i].List[1:] {
				vt, err := c.p.valType(d)
				if err != nil {
					return 0, nil, i, err
				}
				types = append(types, vt)
			}
			return opcode.OpSelectTyped, types, i + 1, nil
		}
		return info.Opcode, nil, i, nil

	case opcode.ImmPrefixed:
		return info.Opcode, ast.Prefixed{Sub: info.Sub, Zeros: info.Zeros}, i, nil
	}

	return 0, nil, i, errors.Syntax(n.Line, "unsupported instruction %s", n)
}
