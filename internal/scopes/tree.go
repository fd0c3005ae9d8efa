package scopes

import (
	"lend/internal/program"
	"lend/internal/source"
)

// funcKey identifies a function by its owner struct (NoStringID for free
// functions) and name. Methods and associated functions share the namespace
// of their owner.
type funcKey struct {
	Owner source.StringID
	Name  source.StringID
}

// Tree is the result of the binding pass: the scope hierarchy plus the
// resolution maps the later passes consume. It never changes after Build.
type Tree struct {
	Scopes   *Scopes
	Bindings *Bindings

	// Root covers the whole document; EntryScope is the entry block's
	// function scope nested directly under Root.
	Root       ScopeID
	EntryScope ScopeID

	// FuncScopes maps every declared function to its function scope
	// (parameters and self live there).
	FuncScopes map[program.FuncID]ScopeID

	// Uses maps every resolved name expression to the binding it denotes.
	// Unresolved names are reported and absent here.
	Uses map[program.ExprID]BindingID

	// OpenScopes maps each block-open statement to the block scope it
	// introduces; StmtScopes maps every statement to the scope it executes
	// in.
	OpenScopes map[program.StmtID]ScopeID
	StmtScopes map[program.StmtID]ScopeID

	// DeclBindings maps declaration statements to the binding they create.
	DeclBindings map[program.StmtID]BindingID

	// SelfBindings maps methods to their receiver binding.
	SelfBindings map[program.FuncID]BindingID

	// CallTargets maps call expressions to the function they invoke, when
	// the callee resolved.
	CallTargets map[program.ExprID]program.FuncID

	structIndex map[source.StringID]program.StructID
	funcIndex   map[funcKey]program.FuncID
}

func newTree(hint uint32) *Tree {
	return &Tree{
		Scopes:       NewScopes(hint),
		Bindings:     NewBindings(hint),
		FuncScopes:   make(map[program.FuncID]ScopeID),
		Uses:         make(map[program.ExprID]BindingID),
		OpenScopes:   make(map[program.StmtID]ScopeID),
		StmtScopes:   make(map[program.StmtID]ScopeID),
		DeclBindings: make(map[program.StmtID]BindingID),
		SelfBindings: make(map[program.FuncID]BindingID),
		CallTargets:  make(map[program.ExprID]program.FuncID),
		structIndex:  make(map[source.StringID]program.StructID),
		funcIndex:    make(map[funcKey]program.FuncID),
	}
}

// Contains reports whether outer encloses inner (a scope encloses itself).
// Works off the pre-order intervals, so it is O(1).
func (t *Tree) Contains(outer, inner ScopeID) bool {
	o := t.Scopes.Get(outer)
	i := t.Scopes.Get(inner)
	if o == nil || i == nil {
		return false
	}
	return o.Enter <= i.Enter && i.Exit <= o.Exit
}

// Outlives reports whether a outlives b: a strictly encloses b or equals it.
// Synonym for Contains kept for readability at call sites that reason about
// lifetimes rather than lexical nesting.
func (t *Tree) Outlives(a, b ScopeID) bool { return t.Contains(a, b) }

// Wider returns the wider of two scopes, NoScopeID when they are unrelated
// (distinct functions).
func (t *Tree) Wider(a, b ScopeID) ScopeID {
	switch {
	case t.Contains(a, b):
		return a
	case t.Contains(b, a):
		return b
	default:
		return NoScopeID
	}
}

// Narrower returns the more deeply nested of two scopes, NoScopeID when they
// are unrelated.
func (t *Tree) Narrower(a, b ScopeID) ScopeID {
	switch {
	case t.Contains(a, b):
		return b
	case t.Contains(b, a):
		return a
	default:
		return NoScopeID
	}
}

// LookupStruct resolves a struct name registered during the pass.
func (t *Tree) LookupStruct(name source.StringID) (program.StructID, bool) {
	id, ok := t.structIndex[name]
	return id, ok
}

// LookupFunc resolves a free function by name.
func (t *Tree) LookupFunc(name source.StringID) (program.FuncID, bool) {
	id, ok := t.funcIndex[funcKey{Owner: source.NoStringID, Name: name}]
	return id, ok
}

// LookupMethod resolves a method or associated function on owner.
func (t *Tree) LookupMethod(owner, name source.StringID) (program.FuncID, bool) {
	id, ok := t.funcIndex[funcKey{Owner: owner, Name: name}]
	return id, ok
}

// BindingScope is a convenience accessor: the declaring scope of a binding,
// NoScopeID for invalid IDs.
func (t *Tree) BindingScope(id BindingID) ScopeID {
	b := t.Bindings.Get(id)
	if b == nil {
		return NoScopeID
	}
	return b.Scope
}
