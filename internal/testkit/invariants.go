// Package testkit holds shared validation helpers and canonical example
// documents used by tests across packages.
package testkit

import (
	"fmt"

	"lend/internal/borrow"
	"lend/internal/scopes"
)

// CheckTreeInvariants runs a minimal set of structural invariants on a
// built scope tree:
// 1) every scope's interval is well-formed (Enter < Exit)
// 2) every child's interval nests strictly inside its parent's
// 3) every binding points back at a scope that lists it
func CheckTreeInvariants(tree *scopes.Tree) error {
	if tree == nil {
		return fmt.Errorf("nil tree")
	}
	for i := 1; i <= tree.Scopes.Len(); i++ {
		id := scopes.ScopeID(i)
		scope := tree.Scopes.Get(id)
		if scope == nil {
			return fmt.Errorf("nil scope for id=%d", id)
		}
		if scope.Enter >= scope.Exit {
			return fmt.Errorf("scope %d has empty interval [%d, %d]", id, scope.Enter, scope.Exit)
		}
		if scope.Parent.IsValid() {
			parent := tree.Scopes.Get(scope.Parent)
			if parent == nil {
				return fmt.Errorf("scope %d names missing parent %d", id, scope.Parent)
			}
			if scope.Enter <= parent.Enter || scope.Exit >= parent.Exit {
				return fmt.Errorf("scope %d interval [%d, %d] escapes parent %d [%d, %d]",
					id, scope.Enter, scope.Exit, scope.Parent, parent.Enter, parent.Exit)
			}
		} else if id != tree.Root {
			return fmt.Errorf("scope %d has no parent but is not the root", id)
		}
		for _, child := range scope.Children {
			c := tree.Scopes.Get(child)
			if c == nil {
				return fmt.Errorf("scope %d lists missing child %d", id, child)
			}
			if c.Parent != id {
				return fmt.Errorf("child %d of scope %d points at parent %d", child, id, c.Parent)
			}
		}
	}
	for i := 1; i <= tree.Bindings.Len(); i++ {
		id := scopes.BindingID(i)
		bind := tree.Bindings.Get(id)
		if bind == nil {
			return fmt.Errorf("nil binding for id=%d", id)
		}
		scope := tree.Scopes.Get(bind.Scope)
		if scope == nil {
			return fmt.Errorf("binding %d points at missing scope %d", id, bind.Scope)
		}
		listed := false
		for _, b := range scope.Bindings {
			if b == id {
				listed = true
				break
			}
		}
		if !listed {
			return fmt.Errorf("binding %d is not listed by its scope %d", id, bind.Scope)
		}
	}
	return nil
}

// CheckBorrowInvariants verifies the containment property over a finished
// borrow table: for an accepted program, every scope-extent borrow must
// live inside its referent's scope. Statement temporaries record their
// statement's scope as the extent and are checked the same way.
func CheckBorrowInvariants(tree *scopes.Tree, table *borrow.Table) error {
	if tree == nil || table == nil {
		return fmt.Errorf("nil tree or table")
	}
	for _, info := range table.Infos() {
		bind := tree.Bindings.Get(info.Referent)
		if bind == nil {
			return fmt.Errorf("borrow %d has missing referent %d", info.ID, info.Referent)
		}
		if !info.Extent.IsValid() {
			continue
		}
		if !tree.Contains(bind.Scope, info.Extent) {
			return fmt.Errorf("borrow %d of binding %d extends past its referent: extent %d, referent scope %d",
				info.ID, info.Referent, info.Extent, bind.Scope)
		}
	}
	return nil
}
