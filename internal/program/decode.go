package program

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"

	"lend/internal/source"
)

// Description documents are already-parsed programs: structs, functions and
// the entry routine, each span indexing into the embedded original text.
// The decoder maps the document onto arenas and validates shape only;
// whether names resolve and borrows are legal is the checker's business.

type spanDTO []uint32

type typeDTO struct {
	Kind      string `json:"kind" yaml:"kind"`
	Name      string `json:"name" yaml:"name"`
	Lifetime  string `json:"lifetime" yaml:"lifetime"`
	Exclusive bool   `json:"exclusive" yaml:"exclusive"`
}

type fieldDTO struct {
	Name string  `json:"name" yaml:"name"`
	Type typeDTO `json:"type" yaml:"type"`
	Span spanDTO `json:"span" yaml:"span"`
}

type structDTO struct {
	Name      string     `json:"name" yaml:"name"`
	Lifetimes []string   `json:"lifetimes" yaml:"lifetimes"`
	Fields    []fieldDTO `json:"fields" yaml:"fields"`
	Span      spanDTO    `json:"span" yaml:"span"`
}

type receiverDTO struct {
	Struct       string   `json:"struct" yaml:"struct"`
	Lifetimes    []string `json:"lifetimes" yaml:"lifetimes"`
	Self         bool     `json:"self" yaml:"self"`
	SelfLifetime string   `json:"self_lifetime" yaml:"self_lifetime"`
	Exclusive    bool     `json:"exclusive" yaml:"exclusive"`
	Span         spanDTO  `json:"span" yaml:"span"`
}

type paramDTO struct {
	Name string  `json:"name" yaml:"name"`
	Type typeDTO `json:"type" yaml:"type"`
	Span spanDTO `json:"span" yaml:"span"`
}

type funcDTO struct {
	Name      string       `json:"name" yaml:"name"`
	Receiver  *receiverDTO `json:"receiver" yaml:"receiver"`
	Lifetimes []string     `json:"lifetimes" yaml:"lifetimes"`
	Params    []paramDTO   `json:"params" yaml:"params"`
	Returns   *typeDTO     `json:"returns" yaml:"returns"`
	Body      []stmtDTO    `json:"body" yaml:"body"`
	Span      spanDTO      `json:"span" yaml:"span"`
}

type fieldInitDTO struct {
	Name  string   `json:"name" yaml:"name"`
	Value *exprDTO `json:"value" yaml:"value"`
	Span  spanDTO  `json:"span" yaml:"span"`
}

type exprDTO struct {
	Expr      string         `json:"expr" yaml:"expr"`
	Value     string         `json:"value" yaml:"value"`
	Type      string         `json:"type" yaml:"type"`
	Name      string         `json:"name" yaml:"name"`
	Exclusive bool           `json:"exclusive" yaml:"exclusive"`
	Of        *exprDTO       `json:"of" yaml:"of"`
	Base      *exprDTO       `json:"base" yaml:"base"`
	On        string         `json:"on" yaml:"on"`
	Recv      *exprDTO       `json:"recv" yaml:"recv"`
	Lifetimes []string       `json:"lifetimes" yaml:"lifetimes"`
	Args      []exprDTO      `json:"args" yaml:"args"`
	Fields    []fieldInitDTO `json:"fields" yaml:"fields"`
	Cond      *exprDTO       `json:"cond" yaml:"cond"`
	Then      *exprDTO       `json:"then" yaml:"then"`
	Else      *exprDTO       `json:"else" yaml:"else"`
	Op        string         `json:"op" yaml:"op"`
	Lhs       *exprDTO       `json:"lhs" yaml:"lhs"`
	Rhs       *exprDTO       `json:"rhs" yaml:"rhs"`
	Span      spanDTO        `json:"span" yaml:"span"`
}

type stmtDTO struct {
	Stmt    string   `json:"stmt" yaml:"stmt"`
	Name    string   `json:"name" yaml:"name"`
	Mutable bool     `json:"mut" yaml:"mut"`
	Type    *typeDTO `json:"type" yaml:"type"`
	Init    *exprDTO `json:"init" yaml:"init"`
	Target  *exprDTO `json:"target" yaml:"target"`
	Value   *exprDTO `json:"value" yaml:"value"`
	Expr    *exprDTO `json:"expr" yaml:"expr"`
	Span    spanDTO  `json:"span" yaml:"span"`
}

type docDTO struct {
	Name      string      `json:"name" yaml:"name"`
	Source    string      `json:"source" yaml:"source"`
	Structs   []structDTO `json:"structs" yaml:"structs"`
	Functions []funcDTO   `json:"functions" yaml:"functions"`
	Main      []stmtDTO   `json:"main" yaml:"main"`
	MainSpan  spanDTO     `json:"main_span" yaml:"main_span"`
}

// DecodeJSON decodes a JSON description document into a Builder. The
// embedded program text is registered in fset as a virtual file named
// docPath+"#source"; all program spans point into it.
func DecodeJSON(fset *source.FileSet, docPath string, data []byte) (*Builder, error) {
	var doc docDTO
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docPath, err)
	}
	return build(fset, docPath, &doc)
}

// DecodeYAML decodes a YAML description document into a Builder.
func DecodeYAML(fset *source.FileSet, docPath string, data []byte) (*Builder, error) {
	var doc docDTO
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", docPath, err)
	}
	return build(fset, docPath, &doc)
}

// DecodeFile loads a document from disk and decodes it by extension
// (.json, .yaml, .yml).
func DecodeFile(fset *source.FileSet, path string) (*Builder, error) {
	id, err := fset.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	data := fset.Get(id).Content

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(fset, path, data)
	case ".yaml", ".yml":
		return DecodeYAML(fset, path, data)
	}
	return nil, fmt.Errorf("decode %s: unsupported extension %q", path, filepath.Ext(path))
}

type decoder struct {
	b    *Builder
	file source.FileID
}

func build(fset *source.FileSet, docPath string, doc *docDTO) (*Builder, error) {
	b := NewBuilder(Hints{})
	b.Name = doc.Name
	b.File = fset.AddVirtual(docPath+"#source", []byte(doc.Source))

	d := &decoder{b: b, file: b.File}

	for i := range doc.Structs {
		if err := d.structDef(&doc.Structs[i], fmt.Sprintf("structs[%d]", i)); err != nil {
			return nil, err
		}
	}
	for i := range doc.Functions {
		if err := d.funcDef(&doc.Functions[i], fmt.Sprintf("functions[%d]", i)); err != nil {
			return nil, err
		}
	}

	entry, err := d.stmts(doc.Main, "main")
	if err != nil {
		return nil, err
	}
	b.Entry = entry
	b.EntrySpan = d.span(doc.MainSpan)
	if len(doc.MainSpan) == 0 {
		for _, id := range entry {
			b.EntrySpan = b.EntrySpan.Cover(b.Stmts.Get(id).Span)
		}
	}
	return b, nil
}

// name normalizes an identifier to NFC before interning, so that visually
// identical names written in different Unicode compositions bind together.
func (d *decoder) name(s string) source.StringID {
	return d.b.Interner.Intern(norm.NFC.String(s))
}

func (d *decoder) names(ss []string) []source.StringID {
	if len(ss) == 0 {
		return nil
	}
	out := make([]source.StringID, len(ss))
	for i, s := range ss {
		out[i] = d.name(s)
	}
	return out
}

func (d *decoder) span(dto spanDTO) source.Span {
	if len(dto) != 2 || dto[1] < dto[0] {
		return source.Span{File: d.file}
	}
	return source.Span{File: d.file, Start: dto[0], End: dto[1]}
}

func (d *decoder) typ(dto *typeDTO, at string) (TypeID, error) {
	if dto == nil {
		return NoTypeID, nil
	}
	switch dto.Kind {
	case "plain", "":
		if dto.Name == "" {
			return NoTypeID, fmt.Errorf("%s: plain type needs a name", at)
		}
		return d.b.Types.Plain(d.name(dto.Name)), nil
	case "borrowed":
		if dto.Name == "" {
			return NoTypeID, fmt.Errorf("%s: borrowed type needs an inner name", at)
		}
		return d.b.Types.Borrowed(d.name(dto.Lifetime), d.name(dto.Name), dto.Exclusive), nil
	}
	return NoTypeID, fmt.Errorf("%s: unknown type kind %q", at, dto.Kind)
}

func (d *decoder) structDef(dto *structDTO, at string) error {
	if dto.Name == "" {
		return fmt.Errorf("%s: struct needs a name", at)
	}
	def := StructDef{
		Name:      d.name(dto.Name),
		Lifetimes: d.names(dto.Lifetimes),
		Span:      d.span(dto.Span),
	}
	for i := range dto.Fields {
		f := &dto.Fields[i]
		fat := fmt.Sprintf("%s.fields[%d]", at, i)
		if f.Name == "" {
			return fmt.Errorf("%s: field needs a name", fat)
		}
		typ, err := d.typ(&f.Type, fat)
		if err != nil {
			return err
		}
		def.Fields = append(def.Fields, Field{
			Name: d.name(f.Name),
			Type: typ,
			Span: d.span(f.Span),
		})
	}
	d.b.AddStruct(def)
	return nil
}

func (d *decoder) funcDef(dto *funcDTO, at string) error {
	if dto.Name == "" {
		return fmt.Errorf("%s: function needs a name", at)
	}
	def := FuncDef{
		Name:      d.name(dto.Name),
		Lifetimes: d.names(dto.Lifetimes),
		Span:      d.span(dto.Span),
	}
	if dto.Receiver != nil {
		if dto.Receiver.Struct == "" {
			return fmt.Errorf("%s.receiver: needs a struct name", at)
		}
		def.Receiver = &Receiver{
			Target:       d.name(dto.Receiver.Struct),
			LifetimeArgs: d.names(dto.Receiver.Lifetimes),
			HasSelf:      dto.Receiver.Self,
			SelfLifetime: d.name(dto.Receiver.SelfLifetime),
			Exclusive:    dto.Receiver.Exclusive,
			Span:         d.span(dto.Receiver.Span),
		}
	}
	for i := range dto.Params {
		p := &dto.Params[i]
		pat := fmt.Sprintf("%s.params[%d]", at, i)
		if p.Name == "" {
			return fmt.Errorf("%s: parameter needs a name", pat)
		}
		typ, err := d.typ(&p.Type, pat)
		if err != nil {
			return err
		}
		def.Params = append(def.Params, Param{
			Name: d.name(p.Name),
			Type: typ,
			Span: d.span(p.Span),
		})
	}
	ret, err := d.typ(dto.Returns, at+".returns")
	if err != nil {
		return err
	}
	def.Return = ret

	body, err := d.stmts(dto.Body, at+".body")
	if err != nil {
		return err
	}
	def.Body = body
	d.b.AddFunc(def)
	return nil
}

func (d *decoder) stmts(dtos []stmtDTO, at string) ([]StmtID, error) {
	if len(dtos) == 0 {
		return nil, nil
	}
	out := make([]StmtID, 0, len(dtos))
	for i := range dtos {
		id, err := d.stmt(&dtos[i], fmt.Sprintf("%s[%d]", at, i))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (d *decoder) stmt(dto *stmtDTO, at string) (StmtID, error) {
	sp := d.span(dto.Span)
	switch dto.Stmt {
	case "decl":
		if dto.Name == "" {
			return NoStmtID, fmt.Errorf("%s: decl needs a name", at)
		}
		typ, err := d.typ(dto.Type, at+".type")
		if err != nil {
			return NoStmtID, err
		}
		init := NoExprID
		if dto.Init != nil {
			init, err = d.expr(dto.Init, at+".init")
			if err != nil {
				return NoStmtID, err
			}
		}
		return d.b.Stmts.NewDecl(sp, d.name(dto.Name), dto.Mutable, typ, init), nil

	case "assign":
		if dto.Target == nil || dto.Value == nil {
			return NoStmtID, fmt.Errorf("%s: assign needs target and value", at)
		}
		target, err := d.expr(dto.Target, at+".target")
		if err != nil {
			return NoStmtID, err
		}
		value, err := d.expr(dto.Value, at+".value")
		if err != nil {
			return NoStmtID, err
		}
		return d.b.Stmts.NewAssign(sp, target, value), nil

	case "expr":
		if dto.Expr == nil {
			return NoStmtID, fmt.Errorf("%s: expr statement needs an expression", at)
		}
		expr, err := d.expr(dto.Expr, at+".expr")
		if err != nil {
			return NoStmtID, err
		}
		return d.b.Stmts.NewExpr(sp, expr), nil

	case "return":
		expr := NoExprID
		if dto.Expr != nil {
			var err error
			expr, err = d.expr(dto.Expr, at+".expr")
			if err != nil {
				return NoStmtID, err
			}
		}
		return d.b.Stmts.NewReturn(sp, expr), nil

	case "open":
		return d.b.Stmts.NewBlockOpen(sp), nil

	case "close":
		return d.b.Stmts.NewBlockClose(sp), nil
	}
	return NoStmtID, fmt.Errorf("%s: unknown statement kind %q", at, dto.Stmt)
}

func (d *decoder) expr(dto *exprDTO, at string) (ExprID, error) {
	sp := d.span(dto.Span)
	switch dto.Expr {
	case "lit":
		return d.b.Exprs.NewLit(sp, d.name(dto.Value), d.name(dto.Type)), nil

	case "name":
		if dto.Name == "" {
			return NoExprID, fmt.Errorf("%s: name expression needs a name", at)
		}
		return d.b.Exprs.NewIdent(sp, d.name(dto.Name)), nil

	case "borrow":
		if dto.Of == nil {
			return NoExprID, fmt.Errorf("%s: borrow needs an operand", at)
		}
		of, err := d.expr(dto.Of, at+".of")
		if err != nil {
			return NoExprID, err
		}
		return d.b.Exprs.NewBorrow(sp, dto.Exclusive, of), nil

	case "field":
		if dto.Base == nil || dto.Name == "" {
			return NoExprID, fmt.Errorf("%s: field access needs base and name", at)
		}
		base, err := d.expr(dto.Base, at+".base")
		if err != nil {
			return NoExprID, err
		}
		return d.b.Exprs.NewField(sp, base, d.name(dto.Name)), nil

	case "call":
		if dto.Name == "" {
			return NoExprID, fmt.Errorf("%s: call needs a function name", at)
		}
		if dto.On != "" && dto.Recv != nil {
			return NoExprID, fmt.Errorf("%s: call cannot combine 'on' with a receiver", at)
		}
		data := ExprCallData{
			Func:      d.name(dto.Name),
			On:        d.name(dto.On),
			Lifetimes: d.names(dto.Lifetimes),
		}
		if dto.Recv != nil {
			recv, err := d.expr(dto.Recv, at+".recv")
			if err != nil {
				return NoExprID, err
			}
			data.Recv = recv
		}
		for i := range dto.Args {
			arg, err := d.expr(&dto.Args[i], fmt.Sprintf("%s.args[%d]", at, i))
			if err != nil {
				return NoExprID, err
			}
			data.Args = append(data.Args, arg)
		}
		return d.b.Exprs.NewCall(sp, data), nil

	case "struct":
		if dto.Name == "" {
			return NoExprID, fmt.Errorf("%s: struct literal needs a name", at)
		}
		data := ExprStructLitData{
			Name:      d.name(dto.Name),
			Lifetimes: d.names(dto.Lifetimes),
		}
		for i := range dto.Fields {
			f := &dto.Fields[i]
			fat := fmt.Sprintf("%s.fields[%d]", at, i)
			if f.Name == "" || f.Value == nil {
				return NoExprID, fmt.Errorf("%s: field init needs name and value", fat)
			}
			value, err := d.expr(f.Value, fat)
			if err != nil {
				return NoExprID, err
			}
			data.Fields = append(data.Fields, FieldInit{
				Name:  d.name(f.Name),
				Value: value,
				Span:  d.span(f.Span),
			})
		}
		return d.b.Exprs.NewStructLit(sp, data), nil

	case "cond":
		if dto.Cond == nil || dto.Then == nil || dto.Else == nil {
			return NoExprID, fmt.Errorf("%s: cond needs cond, then and else", at)
		}
		cond, err := d.expr(dto.Cond, at+".cond")
		if err != nil {
			return NoExprID, err
		}
		then, err := d.expr(dto.Then, at+".then")
		if err != nil {
			return NoExprID, err
		}
		els, err := d.expr(dto.Else, at+".else")
		if err != nil {
			return NoExprID, err
		}
		return d.b.Exprs.NewCond(sp, cond, then, els), nil

	case "binary":
		if dto.Lhs == nil || dto.Rhs == nil {
			return NoExprID, fmt.Errorf("%s: binary needs lhs and rhs", at)
		}
		lhs, err := d.expr(dto.Lhs, at+".lhs")
		if err != nil {
			return NoExprID, err
		}
		rhs, err := d.expr(dto.Rhs, at+".rhs")
		if err != nil {
			return NoExprID, err
		}
		return d.b.Exprs.NewBinary(sp, d.name(dto.Op), lhs, rhs), nil
	}
	return NoExprID, fmt.Errorf("%s: unknown expression kind %q", at, dto.Expr)
}
