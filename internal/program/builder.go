package program

import (
	"lend/internal/source"
)

type Hints struct{ Stmts, Exprs, Types uint }

// Builder owns the arenas of one program description. It is the checker's
// input contract: struct and function definitions plus the entry routine's
// flat statement list. Name binding and validation happen later, in the
// scope builder; this layer only stores shape.
type Builder struct {
	Interner *source.Interner
	Types    *Types
	Exprs    *Exprs
	Stmts    *Stmts
	Structs  *Arena[StructDef]
	Funcs    *Arena[FuncDef]

	// Entry is the entry routine's body (flat, with block markers).
	Entry     []StmtID
	EntrySpan source.Span

	// File is the virtual file all program spans point into.
	File source.FileID
	Name string
}

func NewBuilder(hints Hints) *Builder {
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	if hints.Types == 0 {
		hints.Types = 1 << 6
	}
	return &Builder{
		Interner: source.NewInterner(),
		Types:    NewTypes(hints.Types),
		Exprs:    NewExprs(hints.Exprs),
		Stmts:    NewStmts(hints.Stmts),
		Structs:  NewArena[StructDef](1 << 4),
		Funcs:    NewArena[FuncDef](1 << 4),
	}
}

// AddStruct allocates a struct definition.
func (b *Builder) AddStruct(def StructDef) StructID {
	return StructID(b.Structs.Allocate(def))
}

// AddFunc allocates a function definition.
func (b *Builder) AddFunc(def FuncDef) FuncID {
	return FuncID(b.Funcs.Allocate(def))
}

// PushEntry appends a statement to the entry routine body.
func (b *Builder) PushEntry(stmt StmtID) {
	b.Entry = append(b.Entry, stmt)
}

// Struct returns the struct definition for the given ID.
func (b *Builder) Struct(id StructID) *StructDef {
	return b.Structs.Get(uint32(id))
}

// Func returns the function definition for the given ID.
func (b *Builder) Func(id FuncID) *FuncDef {
	return b.Funcs.Get(uint32(id))
}

// Lookup resolves an interned name back to its text, tolerating a nil
// receiver for zero-value spans in diagnostics.
func (b *Builder) Lookup(id source.StringID) string {
	if b == nil || b.Interner == nil {
		return ""
	}
	s, _ := b.Interner.Lookup(id)
	return s
}
