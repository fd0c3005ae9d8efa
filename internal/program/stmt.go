package program

import (
	"lend/internal/source"
)

type StmtKind uint8

const (
	StmtDecl StmtKind = iota
	StmtAssign
	StmtExpr
	StmtReturn
	StmtBlockOpen
	StmtBlockClose
)

// Stmt is the head record; kind-specific data lives in per-kind arenas
// addressed by Payload. Block open/close markers carry no payload: bodies
// are flat statement lists and the scope builder folds markers into nesting.
type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type StmtDeclData struct {
	Name    source.StringID
	Mutable bool
	Type    TypeID // NoTypeID when the declaration has no annotation
	Init    ExprID // NoExprID when declared without initializer
}

type StmtAssignData struct {
	Target ExprID // identifier or field access
	Value  ExprID
}

type StmtExprData struct {
	Expr ExprID
}

type StmtReturnData struct {
	Expr ExprID // NoExprID for a bare return
}

type Stmts struct {
	Arena   *Arena[Stmt]
	Decls   *Arena[StmtDeclData]
	Assigns *Arena[StmtAssignData]
	Exprs   *Arena[StmtExprData]
	Returns *Arena[StmtReturnData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:   NewArena[Stmt](capHint),
		Decls:   NewArena[StmtDeclData](capHint),
		Assigns: NewArena[StmtAssignData](capHint),
		Exprs:   NewArena[StmtExprData](capHint),
		Returns: NewArena[StmtReturnData](capHint),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the statement with the given ID.
func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

// NewDecl creates a binding declaration statement.
func (s *Stmts) NewDecl(span source.Span, name source.StringID, mutable bool, typ TypeID, init ExprID) StmtID {
	payload := s.Decls.Allocate(StmtDeclData{Name: name, Mutable: mutable, Type: typ, Init: init})
	return s.new(StmtDecl, span, PayloadID(payload))
}

// Decl returns the declaration data for the given statement ID.
func (s *Stmts) Decl(id StmtID) (*StmtDeclData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtDecl {
		return nil, false
	}
	return s.Decls.Get(uint32(stmt.Payload)), true
}

// NewAssign creates a reassignment statement.
func (s *Stmts) NewAssign(span source.Span, target, value ExprID) StmtID {
	payload := s.Assigns.Allocate(StmtAssignData{Target: target, Value: value})
	return s.new(StmtAssign, span, PayloadID(payload))
}

// Assign returns the assignment data for the given statement ID.
func (s *Stmts) Assign(id StmtID) (*StmtAssignData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtAssign {
		return nil, false
	}
	return s.Assigns.Get(uint32(stmt.Payload)), true
}

// NewExpr creates an expression statement.
func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	payload := s.Exprs.Allocate(StmtExprData{Expr: expr})
	return s.new(StmtExpr, span, PayloadID(payload))
}

// Expr returns the expression statement data for the given statement ID.
func (s *Stmts) Expr(id StmtID) (*StmtExprData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtExpr {
		return nil, false
	}
	return s.Exprs.Get(uint32(stmt.Payload)), true
}

// NewReturn creates a return statement.
func (s *Stmts) NewReturn(span source.Span, expr ExprID) StmtID {
	payload := s.Returns.Allocate(StmtReturnData{Expr: expr})
	return s.new(StmtReturn, span, PayloadID(payload))
}

// Return returns the return statement data for the given statement ID.
func (s *Stmts) Return(id StmtID) (*StmtReturnData, bool) {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtReturn {
		return nil, false
	}
	return s.Returns.Get(uint32(stmt.Payload)), true
}

// NewBlockOpen creates a block open marker.
func (s *Stmts) NewBlockOpen(span source.Span) StmtID {
	return s.new(StmtBlockOpen, span, NoPayloadID)
}

// NewBlockClose creates a block close marker.
func (s *Stmts) NewBlockClose(span source.Span) StmtID {
	return s.new(StmtBlockClose, span, NoPayloadID)
}
