package lifetimes

import (
	"lend/internal/program"
	"lend/internal/scopes"
)

// Aliases says which inputs of a call the returned value may reference:
// the self receiver and/or value parameters, by position. The borrow walk
// uses it to carry referent sets through calls in program order.
type Aliases struct {
	Self   bool
	Params []int
}

// Empty reports whether the result aliases no input at all.
func (a Aliases) Empty() bool { return !a.Self && len(a.Params) == 0 }

// AliasesParam reports whether the result may alias parameter i.
func (a Aliases) AliasesParam(i int) bool {
	for _, p := range a.Params {
		if p == i {
			return true
		}
	}
	return false
}

// Resolution is the resolver's output: per-site lifetime outcomes the borrow
// walk consumes. It never changes after Resolve.
type Resolution struct {
	// CallAliases maps every resolved call whose result can hold references
	// to the inputs it may alias. Calls absent here produce unconstrained
	// results: their referents degrade to the widest scope and no
	// containment is enforced, so one arity error does not cascade.
	CallAliases map[program.ExprID]Aliases

	// Unconstrained marks use sites (calls, struct literals) whose lifetime
	// argument list failed the arity check.
	Unconstrained map[program.ExprID]bool
}

func newResolution() *Resolution {
	return &Resolution{
		CallAliases:   make(map[program.ExprID]Aliases),
		Unconstrained: make(map[program.ExprID]bool),
	}
}

// Narrowest picks the most deeply nested scope out of candidates: when one
// lifetime parameter is tied to several referents the stricter bound wins.
// Returns NoScopeID for an empty candidate list or unrelated scopes.
func Narrowest(tree *scopes.Tree, candidates []scopes.ScopeID) scopes.ScopeID {
	if len(candidates) == 0 {
		return scopes.NoScopeID
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		best = tree.Narrower(best, c)
		if !best.IsValid() {
			return scopes.NoScopeID
		}
	}
	return best
}
