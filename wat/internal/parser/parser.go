package parser

import (
	"strings"

	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/wat/internal/ast"
	"github.com/wippyai/strokebridge/wat/internal/sexpr"
)

type Parser struct {
	mod       *ast.Module
	typeMap   map[string]uint32
	funcMap   map[string]uint32
	globalMap map[string]uint32
	memMap    map[string]uint32

	numFuncs   uint32
	numGlobals uint32
	numMems    uint32

	definedFuncs   []pendingFunc
	definedGlobals []pendingGlobal
}

type pendingFunc struct {
	node       *sexpr.Node
	body       []*sexpr.Node
	paramNames []string
	params     []ast.ValType
}

type pendingGlobal struct {
	node *sexpr.Node
	init []*sexpr.Node
	pos  int
}

func New() *Parser {
	return &Parser{
		mod:       &ast.Module{},
		typeMap:   make(map[string]uint32),
		funcMap:   make(map[string]uint32),
		globalMap: make(map[string]uint32),
		memMap:    make(map[string]uint32),
	}
}

// Parse compiles a single (module ...) form into an AST.
func (p *Parser) Parse(nodes []*sexpr.Node) (*ast.Module, error) {
	if len(nodes) != 1 || nodes[0].Head() != "module" {
		line := 1
		if len(nodes) > 0 {
			line = nodes[0].Line
		}
		return nil, errors.Syntax(line, "expected 'module'")
	}
	fields := nodes[0].List[1:]
	if len(fields) > 0 && isID(fields[0]) {
		fields = fields[1:]
	}

	for _, f := range fields {
		if f.Head() == "type" {
			if err := p.declareType(f); err != nil {
				return nil, err
			}
		}
	}

	for _, f := range fields {
		var err error
		switch f.Head() {
		case "type", "export", "start", "data":
		case "import":
			err = p.parseImport(f)
		case "func":
			err = p.declareFunc(f)
		case "memory":
			err = p.declareMemory(f)
		case "global":
			err = p.declareGlobal(f)
		case "table", "elem", "tag", "rec":
			err = errors.Syntax(f.Line, "unsupported module field %q", f.Head())
		default:
			err = errors.Syntax(f.Line, "unknown module field %s", f)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, g := range p.definedGlobals {
		init, err := p.constExpr(g.node, g.init)
		if err != nil {
			return nil, err
		}
		p.mod.Globals[g.pos].Init = init
	}

	for i, fn := range p.definedFuncs {
		if err := p.compileFunc(&p.mod.Funcs[i], fn); err != nil {
			return nil, err
		}
	}

	for _, f := range fields {
		var err error
		switch f.Head() {
		case "export":
			err = p.parseExport(f)
		case "start":
			err = p.parseStart(f)
		case "data":
			err = p.parseData(f)
		}
		if err != nil {
			return nil, err
		}
	}

	return p.mod, nil
}

func isID(n *sexpr.Node) bool {
	return n.IsAtom() && strings.HasPrefix(n.Tok.Value, "$")
}

func atom(n *sexpr.Node) string {
	if n.IsAtom() {
		return n.Tok.Value
	}
	return ""
}

func (p *Parser) bind(names map[string]uint32, n *sexpr.Node, idx uint32) error {
	if _, dup := names[n.Tok.Value]; dup {
		return errors.Syntax(n.Line, "duplicate identifier %s", n.Tok.Value)
	}
	names[n.Tok.Value] = idx
	return nil
}

func (p *Parser) resolve(names map[string]uint32, n *sexpr.Node, what string) (uint32, error) {
	if !n.IsAtom() {
		return 0, errors.Syntax(n.Line, "expected %s index, got %s", what, n)
	}
	v := n.Tok.Value
	if strings.HasPrefix(v, "$") {
		idx, ok := names[v]
		if !ok {
			return 0, errors.Syntax(n.Line, "unknown %s %s", what, v)
		}
		return idx, nil
	}
	u, err := parseUint(v, 32)
	if err != nil {
		return 0, errors.Syntax(n.Line, "invalid %s index %q", what, v)
	}
	return uint32(u), nil
}

func (p *Parser) valType(n *sexpr.Node) (ast.ValType, error) {
	switch atom(n) {
	case "i32":
		return ast.ValTypeI32, nil
	case "i64":
		return ast.ValTypeI64, nil
	case "f32":
		return ast.ValTypeF32, nil
	case "f64":
		return ast.ValTypeF64, nil
	}
	return 0, errors.Syntax(n.Line, "unknown value type %s", n)
}

func (p *Parser) findOrAddType(ft ast.FuncType) uint32 {
	for i, t := range p.mod.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	idx := uint32(len(p.mod.Types))
	p.mod.Types = append(p.mod.Types, ft)
	return idx
}

func (p *Parser) declareType(n *sexpr.Node) error {
	items := n.List[1:]
	if len(items) > 0 && isID(items[0]) {
		if err := p.bind(p.typeMap, items[0], uint32(len(p.mod.Types))); err != nil {
			return err
		}
		items = items[1:]
	}
	if len(items) != 1 || items[0].Head() != "func" {
		return errors.Syntax(n.Line, "expected (func ...) in type definition")
	}
	ft, _, rest, err := p.signature(items[0].List[1:])
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return errors.Syntax(rest[0].Line, "unexpected %s in type definition", rest[0])
	}
	p.mod.Types = append(p.mod.Types, ft)
	return nil
}

// signature reads (param ...)* (result ...)* and returns the remainder.
func (p *Parser) signature(items []*sexpr.Node) (ast.FuncType, []string, []*sexpr.Node, error) {
	var ft ast.FuncType
	var names []string
	i := 0
	for ; i < len(items) && items[i].Head() == "param"; i++ {
		decl := items[i].List[1:]
		if len(decl) == 2 && isID(decl[0]) {
			vt, err := p.valType(decl[1])
			if err != nil {
				return ft, nil, nil, err
			}
			ft.Params = append(ft.Params, vt)
			names = append(names, decl[0].Tok.Value)
			continue
		}
		for _, d := range decl {
			vt, err := p.valType(d)
			if err != nil {
				return ft, nil, nil, err
			}
			ft.Params = append(ft.Params, vt)
			names = append(names, "")
		}
	}
	for ; i < len(items) && items[i].Head() == "result"; i++ {
		for _, d := range items[i].List[1:] {
			vt, err := p.valType(d)
			if err != nil {
				return ft, nil, nil, err
			}
			ft.Results = append(ft.Results, vt)
		}
	}
	return ft, names, items[i:], nil
}

// typeUse reads an optional (type x) followed by an inline signature.
func (p *Parser) typeUse(items []*sexpr.Node) (uint32, ast.FuncType, []string, []*sexpr.Node, error) {
	explicit := -1
	if len(items) > 0 && items[0].Head() == "type" {
		ref := items[0].List[1:]
		if len(ref) != 1 {
			return 0, ast.FuncType{}, nil, nil, errors.Syntax(items[0].Line, "expected one type index")
		}
		idx, err := p.resolve(p.typeMap, ref[0], "type")
		if err != nil {
			return 0, ast.FuncType{}, nil, nil, err
		}
		if int(idx) >= len(p.mod.Types) {
			return 0, ast.FuncType{}, nil, nil, errors.Syntax(ref[0].Line, "type index %d out of range", idx)
		}
		explicit = int(idx)
		items = items[1:]
	}

	ft, names, rest, err := p.signature(items)
	if err != nil {
		return 0, ft, nil, nil, err
	}
	if explicit >= 0 {
		declared := p.mod.Types[explicit]
		if len(ft.Params)+len(ft.Results) > 0 && !declared.Equal(ft) {
			return 0, ft, nil, nil, errors.Syntax(items[0].Line, "inline signature does not match type %d", explicit)
		}
		if len(names) == 0 {
			names = make([]string, len(declared.Params))
		}
		return uint32(explicit), declared, names, rest, nil
	}
	return p.findOrAddType(ft), ft, names, rest, nil
}

// inlineExports strips leading (export "name") forms.
func (p *Parser) inlineExports(items []*sexpr.Node, kind byte, idx uint32) ([]*sexpr.Node, error) {
	for len(items) > 0 && items[0].Head() == "export" {
		e := items[0].List[1:]
		if len(e) != 1 || !e[0].IsString() {
			return nil, errors.Syntax(items[0].Line, "expected export name")
		}
		p.mod.Exports = append(p.mod.Exports, ast.Export{Name: e[0].Tok.Value, Kind: kind, Idx: idx})
		items = items[1:]
	}
	return items, nil
}

// inlineImport strips a leading (import "mod" "name") form.
func inlineImport(items []*sexpr.Node) (mod, name string, rest []*sexpr.Node, ok bool, err error) {
	if len(items) == 0 || items[0].Head() != "import" {
		return "", "", items, false, nil
	}
	imp := items[0].List[1:]
	if len(imp) != 2 || !imp[0].IsString() || !imp[1].IsString() {
		return "", "", nil, false, errors.Syntax(items[0].Line, "expected (import \"module\" \"name\")")
	}
	return imp[0].Tok.Value, imp[1].Tok.Value, items[1:], true, nil
}

func (p *Parser) parseImport(n *sexpr.Node) error {
	items := n.List[1:]
	if len(items) != 3 || !items[0].IsString() || !items[1].IsString() || !items[2].IsList {
		return errors.Syntax(n.Line, "expected (import \"module\" \"name\" (desc))")
	}
	modName, name := items[0].Tok.Value, items[1].Tok.Value
	desc := items[2]
	body := desc.List[1:]
	var id *sexpr.Node
	if len(body) > 0 && isID(body[0]) {
		id = body[0]
		body = body[1:]
	}

	switch desc.Head() {
	case "func":
		return p.importFunc(desc, id, modName, name, body)
	case "memory":
		return p.importMemory(desc, id, modName, name, body)
	case "global":
		return p.importGlobal(desc, id, modName, name, body)
	}
	return errors.Syntax(desc.Line, "unsupported import kind %q", desc.Head())
}

func (p *Parser) importFunc(n, id *sexpr.Node, modName, name string, body []*sexpr.Node) error {
	if len(p.definedFuncs) > 0 {
		return errors.Syntax(n.Line, "function import after function definition")
	}
	typeIdx, _, _, rest, err := p.typeUse(body)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return errors.Syntax(rest[0].Line, "unexpected %s in function import", rest[0])
	}
	if id != nil {
		if err := p.bind(p.funcMap, id, p.numFuncs); err != nil {
			return err
		}
	}
	p.mod.Imports = append(p.mod.Imports, ast.Import{Module: modName, Name: name, Kind: ast.KindFunc, TypeIdx: typeIdx})
	p.numFuncs++
	return nil
}

func (p *Parser) importMemory(n, id *sexpr.Node, modName, name string, body []*sexpr.Node) error {
	if len(p.mod.Memories) > 0 {
		return errors.Syntax(n.Line, "memory import after memory definition")
	}
	lim, err := p.limits(n, body)
	if err != nil {
		return err
	}
	if id != nil {
		if err := p.bind(p.memMap, id, p.numMems); err != nil {
			return err
		}
	}
	p.mod.Imports = append(p.mod.Imports, ast.Import{Module: modName, Name: name, Kind: ast.KindMemory, Memory: lim})
	p.numMems++
	return nil
}

func (p *Parser) importGlobal(n, id *sexpr.Node, modName, name string, body []*sexpr.Node) error {
	if len(p.definedGlobals) > 0 {
		return errors.Syntax(n.Line, "global import after global definition")
	}
	if len(body) != 1 {
		return errors.Syntax(n.Line, "expected global type")
	}
	gt, err := p.globalType(body[0])
	if err != nil {
		return err
	}
	if id != nil {
		if err := p.bind(p.globalMap, id, p.numGlobals); err != nil {
			return err
		}
	}
	p.mod.Imports = append(p.mod.Imports, ast.Import{Module: modName, Name: name, Kind: ast.KindGlobal, Global: gt})
	p.numGlobals++
	return nil
}

func (p *Parser) limits(n *sexpr.Node, items []*sexpr.Node) (ast.Limits, error) {
	if len(items) < 1 || len(items) > 2 {
		return ast.Limits{}, errors.Syntax(n.Line, "expected memory limits")
	}
	min, err := parseUint(atom(items[0]), 32)
	if err != nil {
		return ast.Limits{}, errors.Syntax(items[0].Line, "invalid memory minimum %s", items[0])
	}
	lim := ast.Limits{Min: uint32(min)}
	if len(items) == 2 {
		max, err := parseUint(atom(items[1]), 32)
		if err != nil {
			return ast.Limits{}, errors.Syntax(items[1].Line, "invalid memory maximum %s", items[1])
		}
		m := uint32(max)
		lim.Max = &m
	}
	return lim, nil
}

func (p *Parser) globalType(n *sexpr.Node) (ast.GlobalType, error) {
	if n.Head() == "mut" {
		if len(n.List) != 2 {
			return ast.GlobalType{}, errors.Syntax(n.Line, "expected (mut type)")
		}
		vt, err := p.valType(n.List[1])
		return ast.GlobalType{ValType: vt, Mutable: true}, err
	}
	vt, err := p.valType(n)
	return ast.GlobalType{ValType: vt}, err
}

func (p *Parser) declareFunc(n *sexpr.Node) error {
	items := n.List[1:]
	var id *sexpr.Node
	if len(items) > 0 && isID(items[0]) {
		id = items[0]
		items = items[1:]
	}

	idx := p.numFuncs
	items, err := p.inlineExports(items, ast.KindFunc, idx)
	if err != nil {
		return err
	}
	modName, name, items, imported, err := inlineImport(items)
	if err != nil {
		return err
	}
	if imported {
		return p.importFunc(n, id, modName, name, items)
	}

	typeIdx, ft, names, rest, err := p.typeUse(items)
	if err != nil {
		return err
	}
	if id != nil {
		if err := p.bind(p.funcMap, id, idx); err != nil {
			return err
		}
	}
	p.mod.Funcs = append(p.mod.Funcs, ast.Func{TypeIdx: typeIdx})
	p.definedFuncs = append(p.definedFuncs, pendingFunc{node: n, body: rest, paramNames: names, params: ft.Params})
	p.numFuncs++
	return nil
}

func (p *Parser) declareMemory(n *sexpr.Node) error {
	items := n.List[1:]
	var id *sexpr.Node
	if len(items) > 0 && isID(items[0]) {
		id = items[0]
		items = items[1:]
	}
	idx := p.numMems
	items, err := p.inlineExports(items, ast.KindMemory, idx)
	if err != nil {
		return err
	}
	modName, name, items, imported, err := inlineImport(items)
	if err != nil {
		return err
	}
	if imported {
		return p.importMemory(n, id, modName, name, items)
	}

	lim, err := p.limits(n, items)
	if err != nil {
		return err
	}
	if id != nil {
		if err := p.bind(p.memMap, id, idx); err != nil {
			return err
		}
	}
	p.mod.Memories = append(p.mod.Memories, lim)
	p.numMems++
	return nil
}

func (p *Parser) declareGlobal(n *sexpr.Node) error {
	items := n.List[1:]
	var id *sexpr.Node
	if len(items) > 0 && isID(items[0]) {
		id = items[0]
		items = items[1:]
	}
	idx := p.numGlobals
	items, err := p.inlineExports(items, ast.KindGlobal, idx)
	if err != nil {
		return err
	}
	modName, name, items, imported, err := inlineImport(items)
	if err != nil {
		return err
	}
	if imported {
		return p.importGlobal(n, id, modName, name, items)
	}

	if len(items) < 1 {
		return errors.Syntax(n.Line, "expected global type")
	}
	gt, err := p.globalType(items[0])
	if err != nil {
		return err
	}
	if id != nil {
		if err := p.bind(p.globalMap, id, idx); err != nil {
			return err
		}
	}
	p.definedGlobals = append(p.definedGlobals, pendingGlobal{node: n, init: items[1:], pos: len(p.mod.Globals)})
	p.mod.Globals = append(p.mod.Globals, ast.Global{Type: gt})
	p.numGlobals++
	return nil
}

func (p *Parser) constExpr(n *sexpr.Node, nodes []*sexpr.Node) ([]ast.Instr, error) {
	c := newFuncCtx(p)
	if err := c.sequence(nodes); err != nil {
		return nil, err
	}
	if len(c.out) == 0 {
		return nil, errors.Syntax(n.Line, "expected initializer expression")
	}
	return c.out, nil
}

func (p *Parser) parseExport(n *sexpr.Node) error {
	items := n.List[1:]
	if len(items) != 2 || !items[0].IsString() || !items[1].IsList || len(items[1].List) != 2 {
		return errors.Syntax(n.Line, "expected (export \"name\" (kind idx))")
	}
	ref := items[1]
	var kind byte
	var names map[string]uint32
	switch ref.Head() {
	case "func":
		kind, names = ast.KindFunc, p.funcMap
	case "memory":
		kind, names = ast.KindMemory, p.memMap
	case "global":
		kind, names = ast.KindGlobal, p.globalMap
	default:
		return errors.Syntax(ref.Line, "unsupported export kind %q", ref.Head())
	}
	idx, err := p.resolve(names, ref.List[1], ref.Head())
	if err != nil {
		return err
	}
	p.mod.Exports = append(p.mod.Exports, ast.Export{Name: items[0].Tok.Value, Kind: kind, Idx: idx})
	return nil
}

func (p *Parser) parseStart(n *sexpr.Node) error {
	if p.mod.Start != nil {
		return errors.Syntax(n.Line, "multiple start functions")
	}
	if len(n.List) != 2 {
		return errors.Syntax(n.Line, "expected (start func)")
	}
	idx, err := p.resolve(p.funcMap, n.List[1], "function")
	if err != nil {
		return err
	}
	p.mod.Start = &idx
	return nil
}

func (p *Parser) parseData(n *sexpr.Node) error {
	items := n.List[1:]
	if len(items) > 0 && isID(items[0]) {
		items = items[1:]
	}
	if len(items) > 0 && items[0].Head() == "memory" {
		if len(items[0].List) != 2 {
			return errors.Syntax(items[0].Line, "expected (memory idx)")
		}
		idx, err := p.resolve(p.memMap, items[0].List[1], "memory")
		if err != nil {
			return err
		}
		if idx != 0 {
			return errors.Syntax(items[0].Line, "only memory 0 is supported")
		}
		items = items[1:]
	}
	if len(items) == 0 || !items[0].IsList {
		return errors.Syntax(n.Line, "passive data segments are not supported")
	}

	offNodes := []*sexpr.Node{items[0]}
	if items[0].Head() == "offset" {
		offNodes = items[0].List[1:]
	}
	offset, err := p.constExpr(items[0], offNodes)
	if err != nil {
		return err
	}

	var init []byte
	for _, s := range items[1:] {
		if !s.IsString() {
			return errors.Syntax(s.Line, "expected data string, got %s", s)
		}
		init = append(init, s.Tok.Value...)
	}
	p.mod.Data = append(p.mod.Data, ast.DataSegment{Offset: offset, Init: init})
	return nil
}
