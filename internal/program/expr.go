package program

import (
	"lend/internal/source"
)

type ExprKind uint8

const (
	ExprLit ExprKind = iota
	ExprIdent
	ExprBorrow
	ExprField
	ExprCall
	ExprStructLit
	ExprCond
	ExprBinary
)

// Expr is the head record; kind-specific data lives in per-kind arenas
// addressed by Payload.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type ExprLitData struct {
	Value source.StringID // literal text, e.g. "5" or "Peter Pan"
	Type  source.StringID // literal type name, e.g. i32 or String
}

type ExprIdentData struct {
	Name source.StringID
}

// ExprBorrowData is &of or &mut of.
type ExprBorrowData struct {
	Exclusive bool
	Of        ExprID
}

type ExprFieldData struct {
	Base ExprID
	Name source.StringID
}

// ExprCallData covers free calls, associated calls (On set, no Recv) and
// method calls (Recv set). Lifetimes are the explicit lifetime arguments at
// the call site; empty means fully elided.
type ExprCallData struct {
	Func      source.StringID
	On        source.StringID // struct name for Struct::fn calls
	Recv      ExprID          // receiver expression for method calls
	Lifetimes []source.StringID
	Args      []ExprID
}

type FieldInit struct {
	Name  source.StringID
	Value ExprID
	Span  source.Span
}

// ExprStructLitData is a struct construction site. Lifetimes are the
// explicit lifetime arguments; empty means fully elided.
type ExprStructLitData struct {
	Name      source.StringID
	Lifetimes []source.StringID
	Fields    []FieldInit
}

type ExprCondData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

type ExprBinaryData struct {
	Op    source.StringID
	Left  ExprID
	Right ExprID
}

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena      *Arena[Expr]
	Lits       *Arena[ExprLitData]
	Idents     *Arena[ExprIdentData]
	Borrows    *Arena[ExprBorrowData]
	Fields     *Arena[ExprFieldData]
	Calls      *Arena[ExprCallData]
	StructLits *Arena[ExprStructLitData]
	Conds      *Arena[ExprCondData]
	Binaries   *Arena[ExprBinaryData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:      NewArena[Expr](capHint),
		Lits:       NewArena[ExprLitData](capHint),
		Idents:     NewArena[ExprIdentData](capHint),
		Borrows:    NewArena[ExprBorrowData](capHint),
		Fields:     NewArena[ExprFieldData](capHint),
		Calls:      NewArena[ExprCallData](capHint),
		StructLits: NewArena[ExprStructLitData](capHint),
		Conds:      NewArena[ExprCondData](capHint),
		Binaries:   NewArena[ExprBinaryData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// NewLit creates a literal expression.
func (e *Exprs) NewLit(span source.Span, value, typeName source.StringID) ExprID {
	payload := e.Lits.Allocate(ExprLitData{Value: value, Type: typeName})
	return e.new(ExprLit, span, PayloadID(payload))
}

// Lit returns the literal data for the given expression ID.
func (e *Exprs) Lit(id ExprID) (*ExprLitData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprLit {
		return nil, false
	}
	return e.Lits.Get(uint32(expr.Payload)), true
}

// NewIdent creates an identifier expression.
func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	payload := e.Idents.Allocate(ExprIdentData{Name: name})
	return e.new(ExprIdent, span, PayloadID(payload))
}

// Ident returns the identifier data for the given expression ID.
func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIdent {
		return nil, false
	}
	return e.Idents.Get(uint32(expr.Payload)), true
}

// NewBorrow creates a borrow expression (&of or &mut of).
func (e *Exprs) NewBorrow(span source.Span, exclusive bool, of ExprID) ExprID {
	payload := e.Borrows.Allocate(ExprBorrowData{Exclusive: exclusive, Of: of})
	return e.new(ExprBorrow, span, PayloadID(payload))
}

// Borrow returns the borrow data for the given expression ID.
func (e *Exprs) Borrow(id ExprID) (*ExprBorrowData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBorrow {
		return nil, false
	}
	return e.Borrows.Get(uint32(expr.Payload)), true
}

// NewField creates a field access expression.
func (e *Exprs) NewField(span source.Span, base ExprID, name source.StringID) ExprID {
	payload := e.Fields.Allocate(ExprFieldData{Base: base, Name: name})
	return e.new(ExprField, span, PayloadID(payload))
}

// Field returns the field access data for the given expression ID.
func (e *Exprs) Field(id ExprID) (*ExprFieldData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprField {
		return nil, false
	}
	return e.Fields.Get(uint32(expr.Payload)), true
}

// NewCall creates a call expression.
func (e *Exprs) NewCall(span source.Span, data ExprCallData) ExprID {
	payload := e.Calls.Allocate(data)
	return e.new(ExprCall, span, PayloadID(payload))
}

// Call returns the call data for the given expression ID.
func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(expr.Payload)), true
}

// NewStructLit creates a struct literal expression.
func (e *Exprs) NewStructLit(span source.Span, data ExprStructLitData) ExprID {
	payload := e.StructLits.Allocate(data)
	return e.new(ExprStructLit, span, PayloadID(payload))
}

// StructLit returns the struct literal data for the given expression ID.
func (e *Exprs) StructLit(id ExprID) (*ExprStructLitData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprStructLit {
		return nil, false
	}
	return e.StructLits.Get(uint32(expr.Payload)), true
}

// NewCond creates a conditional expression.
func (e *Exprs) NewCond(span source.Span, cond, then, els ExprID) ExprID {
	payload := e.Conds.Allocate(ExprCondData{Cond: cond, Then: then, Else: els})
	return e.new(ExprCond, span, PayloadID(payload))
}

// Cond returns the conditional data for the given expression ID.
func (e *Exprs) Cond(id ExprID) (*ExprCondData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCond {
		return nil, false
	}
	return e.Conds.Get(uint32(expr.Payload)), true
}

// NewBinary creates a binary expression.
func (e *Exprs) NewBinary(span source.Span, op source.StringID, left, right ExprID) ExprID {
	payload := e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return e.new(ExprBinary, span, PayloadID(payload))
}

// Binary returns the binary data for the given expression ID.
func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinary {
		return nil, false
	}
	return e.Binaries.Get(uint32(expr.Payload)), true
}
