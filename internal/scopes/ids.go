package scopes

// ScopeID identifies a scope in the tree arena.
type ScopeID uint32

const (
	// NoScopeID marks the absence of a scope reference.
	NoScopeID ScopeID = 0
)

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// BindingID identifies a binding inside the tree arena.
type BindingID uint32

const (
	// NoBindingID marks the absence of a binding reference.
	NoBindingID BindingID = 0
)

// IsValid reports whether the binding ID refers to an allocated binding.
func (id BindingID) IsValid() bool { return id != NoBindingID }
