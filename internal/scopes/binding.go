package scopes

import (
	"fmt"

	"fortio.org/safecast"

	"lend/internal/program"
	"lend/internal/source"
)

// Binding is one declared name: a let declaration, a function parameter, or
// the self receiver. Its extent is exactly its declaring scope; the value is
// destroyed when that scope exits.
type Binding struct {
	Name  source.StringID
	Scope ScopeID
	Span  source.Span
	// Type is the declared or parameter type; NoTypeID when the declaration
	// carries no annotation.
	Type program.TypeID
	// TypeName is the shallowly inferred value type name (struct or plain),
	// used for method dispatch. NoStringID when inference gave up.
	TypeName source.StringID
	Mutable  bool
	Param    bool
}

// Bindings stores declared bindings in a compact arena.
type Bindings struct {
	data []Binding
}

// NewBindings creates a binding arena with optional capacity hint.
func NewBindings(capacity uint32) *Bindings {
	if capacity == 0 {
		capacity = 64
	}
	return &Bindings{
		data: make([]Binding, 1, capacity+1), // index 0 reserved for NoBindingID
	}
}

// New allocates a binding and returns its ID.
func (b *Bindings) New(binding Binding) BindingID {
	value, err := safecast.Conv[uint32](len(b.data))
	if err != nil {
		panic(fmt.Errorf("bindings arena overflow: %w", err))
	}
	id := BindingID(value)
	b.data = append(b.data, binding)
	return id
}

// Get returns the binding pointer or nil if ID is invalid.
func (b *Bindings) Get(id BindingID) *Binding {
	if !id.IsValid() || int(id) >= len(b.data) {
		return nil
	}
	return &b.data[id]
}

// Len reports total number of bindings excluding the sentinel.
func (b *Bindings) Len() int { return len(b.data) - 1 }
