package lifetimes

import (
	"fmt"

	"lend/internal/diag"
	"lend/internal/program"
	"lend/internal/scopes"
	"lend/internal/source"
)

// Resolve validates every lifetime-parameter declaration and every use site
// against it, then precomputes which inputs each call result may alias.
// Lifetime arguments bind to parameters by position; a count mismatch emits
// LftArityMismatch and resolves nothing further at that site, leaving its
// parameters unconstrained so later checks do not cascade.
func Resolve(prog *program.Builder, tree *scopes.Tree, reporter diag.Reporter) *Resolution {
	r := &resolver{
		prog:     prog,
		tree:     tree,
		reporter: reporter,
		out:      newResolution(),
	}
	r.checkStructs()
	r.checkFuncs()
	r.checkSites()
	return r.out
}

type resolver struct {
	prog     *program.Builder
	tree     *scopes.Tree
	reporter diag.Reporter
	out      *Resolution
}

func (r *resolver) checkStructs() {
	for i := uint32(1); i <= r.prog.Structs.Len(); i++ {
		def := r.prog.Struct(program.StructID(i))
		if def == nil {
			continue
		}
		used := make(map[source.StringID]bool, len(def.Lifetimes))
		for _, field := range def.Fields {
			typ := r.prog.Types.Get(field.Type)
			if typ == nil || typ.Kind != program.TypeBorrowed || typ.Lifetime == source.NoStringID {
				continue
			}
			if !containsName(def.Lifetimes, typ.Lifetime) {
				diag.ReportError(r.reporter, diag.LftUndeclaredParam, field.Span,
					fmt.Sprintf("lifetime '%s' on field '%s' is not declared on struct '%s'",
						r.prog.Lookup(typ.Lifetime), r.prog.Lookup(field.Name), r.prog.Lookup(def.Name))).
					WithNote(def.Span, "struct defined here").
					Emit()
				continue
			}
			used[typ.Lifetime] = true
		}
		for _, lt := range def.Lifetimes {
			if !used[lt] {
				diag.ReportWarning(r.reporter, diag.LftUnusedParam, def.Span,
					fmt.Sprintf("lifetime '%s' is declared on struct '%s' but no field uses it",
						r.prog.Lookup(lt), r.prog.Lookup(def.Name))).Emit()
			}
		}
	}
}

func (r *resolver) checkFuncs() {
	for i := uint32(1); i <= r.prog.Funcs.Len(); i++ {
		def := r.prog.Func(program.FuncID(i))
		if def == nil {
			continue
		}
		declared := make(map[source.StringID]bool, len(def.Lifetimes))
		for _, lt := range def.Lifetimes {
			declared[lt] = true
		}
		if def.Receiver != nil {
			r.checkReceiver(def)
			for _, lt := range def.Receiver.LifetimeArgs {
				declared[lt] = true
			}
		}

		check := func(tag source.StringID, span source.Span, what string) {
			if tag == source.NoStringID || declared[tag] {
				return
			}
			diag.ReportError(r.reporter, diag.LftUndeclaredParam, span,
				fmt.Sprintf("lifetime '%s' on %s is not declared on '%s'",
					r.prog.Lookup(tag), what, r.qualified(def))).Emit()
		}

		if def.Receiver != nil && def.Receiver.HasSelf {
			check(def.Receiver.SelfLifetime, def.Receiver.Span, "the self receiver")
		}
		for _, param := range def.Params {
			if typ := r.prog.Types.Get(param.Type); typ != nil && typ.Kind == program.TypeBorrowed {
				check(typ.Lifetime, param.Span, fmt.Sprintf("parameter '%s'", r.prog.Lookup(param.Name)))
			}
		}
		if typ := r.prog.Types.Get(def.Return); typ != nil && typ.Kind == program.TypeBorrowed {
			check(typ.Lifetime, def.Span, "the return type")
		}
	}
}

// checkReceiver compares the lifetime arguments an impl site supplies with
// the parameter list the target struct declares. Positional binding means
// the counts must agree exactly; an empty argument list is full elision.
func (r *resolver) checkReceiver(def *program.FuncDef) {
	recv := def.Receiver
	structID, ok := r.tree.LookupStruct(recv.Target)
	if !ok {
		return
	}
	structDef := r.prog.Struct(structID)
	if structDef == nil {
		return
	}
	if len(recv.LifetimeArgs) == 0 || len(recv.LifetimeArgs) == len(structDef.Lifetimes) {
		return
	}
	diag.ReportError(r.reporter, diag.LftArityMismatch, recv.Span,
		fmt.Sprintf("struct '%s' declares %d lifetime parameter(s) but the impl of '%s' supplies %d",
			r.prog.Lookup(recv.Target), len(structDef.Lifetimes), r.qualified(def), len(recv.LifetimeArgs))).
		WithNote(structDef.Span, "struct defined here").
		Emit()
}

// checkSites walks the expression arena in allocation order, so diagnostics
// come out deterministically for the same document.
func (r *resolver) checkSites() {
	for i := uint32(1); i <= r.prog.Exprs.Arena.Len(); i++ {
		id := program.ExprID(i)
		expr := r.prog.Exprs.Get(id)
		if expr == nil {
			continue
		}
		switch expr.Kind {
		case program.ExprStructLit:
			r.checkStructLit(id, expr.Span)
		case program.ExprCall:
			r.checkCall(id, expr.Span)
		}
	}
}

func (r *resolver) checkStructLit(id program.ExprID, span source.Span) {
	data, _ := r.prog.Exprs.StructLit(id)
	if data == nil {
		return
	}
	structID, ok := r.tree.LookupStruct(data.Name)
	if !ok {
		return
	}
	def := r.prog.Struct(structID)
	if def == nil {
		return
	}
	if len(data.Lifetimes) > 0 && len(data.Lifetimes) != len(def.Lifetimes) {
		diag.ReportError(r.reporter, diag.LftArityMismatch, span,
			fmt.Sprintf("struct '%s' declares %d lifetime parameter(s) but this literal supplies %d",
				r.prog.Lookup(data.Name), len(def.Lifetimes), len(data.Lifetimes))).
			WithNote(def.Span, "struct defined here").
			Emit()
		r.out.Unconstrained[id] = true
	}
}

func (r *resolver) checkCall(id program.ExprID, span source.Span) {
	data, _ := r.prog.Exprs.Call(id)
	if data == nil {
		return
	}
	target, ok := r.tree.CallTargets[id]
	if !ok {
		return
	}
	def := r.prog.Func(target)
	if def == nil {
		return
	}
	if len(data.Lifetimes) > 0 && len(data.Lifetimes) != len(def.Lifetimes) {
		diag.ReportError(r.reporter, diag.LftArityMismatch, span,
			fmt.Sprintf("'%s' declares %d lifetime parameter(s) but this call supplies %d",
				r.qualified(def), len(def.Lifetimes), len(data.Lifetimes))).
			WithNote(def.Span, "function defined here").
			Emit()
		r.out.Unconstrained[id] = true
		return
	}
	if aliases, ok := r.aliases(def); ok {
		r.out.CallAliases[id] = aliases
	}
}

// aliases derives which inputs the call result may reference from the
// signature's lifetime tags. A tagged reference return aliases exactly the
// same-tagged inputs; an untagged one falls back to elision (the receiver
// when there is one, otherwise every reference parameter). A by-value
// return of a lifetime-parameterized struct keeps every reference input
// alive through the constructed value.
func (r *resolver) aliases(def *program.FuncDef) (Aliases, bool) {
	ret := r.prog.Types.Get(def.Return)
	if ret == nil {
		return Aliases{}, false
	}

	if ret.Kind == program.TypePlain {
		structID, ok := r.tree.LookupStruct(ret.Name)
		if !ok {
			return Aliases{}, false
		}
		structDef := r.prog.Struct(structID)
		if structDef == nil || len(structDef.Lifetimes) == 0 {
			return Aliases{}, false
		}
		return r.allRefInputs(def), true
	}

	tag := ret.Lifetime
	if tag == source.NoStringID {
		if def.IsMethod() {
			return Aliases{Self: true}, true
		}
		return r.allRefInputs(def), true
	}

	var out Aliases
	if def.IsMethod() {
		recv := def.Receiver
		if recv.SelfLifetime == tag || containsName(recv.LifetimeArgs, tag) {
			out.Self = true
		}
	}
	for i, param := range def.Params {
		if typ := r.prog.Types.Get(param.Type); typ != nil && typ.Kind == program.TypeBorrowed && typ.Lifetime == tag {
			out.Params = append(out.Params, i)
		}
	}
	if out.Empty() {
		// Tag tied to nothing visible; stay conservative.
		return r.allRefInputs(def), true
	}
	return out, true
}

func (r *resolver) allRefInputs(def *program.FuncDef) Aliases {
	out := Aliases{Self: def.IsMethod()}
	for i, param := range def.Params {
		if typ := r.prog.Types.Get(param.Type); typ != nil && typ.Kind == program.TypeBorrowed {
			out.Params = append(out.Params, i)
		}
	}
	return out
}

func (r *resolver) qualified(def *program.FuncDef) string {
	name := r.prog.Lookup(def.Name)
	if owner := def.Owner(); owner != source.NoStringID {
		return r.prog.Lookup(owner) + "::" + name
	}
	return name
}

func containsName(list []source.StringID, name source.StringID) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}
