package program

import (
	"lend/internal/source"
)

// TypeKind separates plain owned types from borrowed (reference) types.
// The checker only cares about this split; plain types are opaque names.
type TypeKind uint8

const (
	TypePlain TypeKind = iota
	TypeBorrowed
)

type Type struct {
	Kind TypeKind
	// Name is the plain type name, or the inner (pointed-to) type name for
	// a borrowed type.
	Name source.StringID
	// Lifetime is the tag on a borrowed type ('a in &'a String).
	// NoStringID when elided or for plain types.
	Lifetime source.StringID
	// Exclusive marks &mut references.
	Exclusive bool
}

type Types struct {
	Arena *Arena[Type]
}

func NewTypes(capHint uint) *Types {
	return &Types{
		Arena: NewArena[Type](capHint),
	}
}

// Plain allocates an owned type with the given name.
func (t *Types) Plain(name source.StringID) TypeID {
	return TypeID(t.Arena.Allocate(Type{Kind: TypePlain, Name: name}))
}

// Borrowed allocates a reference type &'lifetime inner (or &mut when
// exclusive is set).
func (t *Types) Borrowed(lifetime, inner source.StringID, exclusive bool) TypeID {
	return TypeID(t.Arena.Allocate(Type{
		Kind:      TypeBorrowed,
		Name:      inner,
		Lifetime:  lifetime,
		Exclusive: exclusive,
	}))
}

func (t *Types) Get(id TypeID) *Type {
	return t.Arena.Get(uint32(id))
}

// IsBorrowed reports whether id refers to a reference type. The zero id is
// not borrowed.
func (t *Types) IsBorrowed(id TypeID) bool {
	typ := t.Get(id)
	return typ != nil && typ.Kind == TypeBorrowed
}
