package borrow

import (
	"fmt"

	"lend/internal/diag"
	"lend/internal/lifetimes"
	"lend/internal/program"
	"lend/internal/scopes"
	"lend/internal/source"
)

// Walk runs the borrow checking pass: one linear pass over statements in
// program order per scope, recursing depth-first into child scopes. It
// tracks active borrows per binding through the Table, propagates referent
// sets through copies, struct construction and calls, and reports every
// aliasing or containment violation. The scope tree is static, so no
// backtracking is needed.
func Walk(prog *program.Builder, tree *scopes.Tree, res *lifetimes.Resolution, reporter diag.Reporter) *Table {
	w := &walker{
		prog:     prog,
		tree:     tree,
		res:      res,
		table:    NewTable(),
		reporter: reporter,
		refs:     make(map[scopes.BindingID]refSet),
	}
	for i := uint32(1); i <= prog.Funcs.Len(); i++ {
		w.walkFunc(program.FuncID(i))
	}
	w.walkEntry()
	return w.table
}

// refSet lists the bindings a reference value may point at. Sets are built
// in program order and treated as immutable once stored.
type refSet []scopes.BindingID

func (s refSet) contains(id scopes.BindingID) bool {
	for _, b := range s {
		if b == id {
			return true
		}
	}
	return false
}

func merge(dst, src refSet) refSet {
	for _, b := range src {
		if !dst.contains(b) {
			dst = append(dst, b)
		}
	}
	return dst
}

type destKind uint8

const (
	// destTemp: the value is consumed within the enclosing statement.
	destTemp destKind = iota
	// destBinding: the value is stored into a binding and lives with it.
	destBinding
	// destReturn: the value leaves the function.
	destReturn
)

// dest describes where the value being evaluated ends up; it decides the
// extent of borrows created underneath and which containment rule applies.
type dest struct {
	kind    destKind
	binding scopes.BindingID
	extent  scopes.ScopeID
	stmt    program.StmtID
}

func temp(stmt program.StmtID) dest {
	return dest{kind: destTemp, stmt: stmt}
}

type walker struct {
	prog     *program.Builder
	tree     *scopes.Tree
	res      *lifetimes.Resolution
	table    *Table
	reporter diag.Reporter

	refs    map[scopes.BindingID]refSet
	curFunc program.FuncID
}

func (w *walker) walkFunc(id program.FuncID) {
	def := w.prog.Func(id)
	if def == nil {
		return
	}
	w.curFunc = id
	scope := w.tree.FuncScopes[id]
	// Parameters stand in for caller-owned data; a parameter is its own
	// referent until the caller's argument is known.
	if self, ok := w.tree.SelfBindings[id]; ok {
		w.refs[self] = refSet{self}
	}
	if fnScope := w.tree.Scopes.Get(scope); fnScope != nil {
		for _, bind := range fnScope.Bindings {
			if b := w.tree.Bindings.Get(bind); b != nil && b.Param {
				w.refs[bind] = refSet{bind}
			}
		}
	}
	w.walkBody(def.Body)
	w.endScope(scope)
	w.curFunc = program.NoFuncID
}

func (w *walker) walkEntry() {
	w.curFunc = program.NoFuncID
	w.walkBody(w.prog.Entry)
	w.endScope(w.tree.EntryScope)
}

func (w *walker) walkBody(stmts []program.StmtID) {
	for _, id := range stmts {
		stmt := w.prog.Stmts.Get(id)
		if stmt == nil {
			continue
		}
		switch stmt.Kind {
		case program.StmtBlockOpen:
			// nothing to do: statements carry their scope in the tree
		case program.StmtBlockClose:
			w.endScope(w.tree.StmtScopes[id])
		case program.StmtDecl:
			w.walkDecl(id)
		case program.StmtAssign:
			w.walkAssign(id, stmt.Span)
		case program.StmtExpr:
			if data, ok := w.prog.Stmts.Expr(id); ok && data != nil {
				w.eval(data.Expr, temp(id))
			}
		case program.StmtReturn:
			w.walkReturn(id, stmt.Span)
		}
		w.table.EndStmt(id)
	}
}

// endScope releases every borrow tied to the exiting scope and forgets the
// referent sets of the bindings dying with it.
func (w *walker) endScope(scope scopes.ScopeID) {
	w.table.EndScope(scope)
	if s := w.tree.Scopes.Get(scope); s != nil {
		for _, bind := range s.Bindings {
			delete(w.refs, bind)
		}
	}
}

func (w *walker) walkDecl(id program.StmtID) {
	decl, ok := w.prog.Stmts.Decl(id)
	if !ok || decl == nil || !decl.Init.IsValid() {
		return
	}
	bind := w.tree.DeclBindings[id]
	d := dest{
		kind:    destBinding,
		binding: bind,
		extent:  w.tree.BindingScope(bind),
		stmt:    id,
	}
	rs := w.eval(decl.Init, d)
	w.store(bind, rs, id, decl.Init)
}

func (w *walker) walkAssign(id program.StmtID, span source.Span) {
	assign, ok := w.prog.Stmts.Assign(id)
	if !ok || assign == nil {
		return
	}
	target := w.placeBinding(assign.Target)
	if !target.IsValid() {
		w.eval(assign.Value, temp(id))
		return
	}
	bind := w.tree.Bindings.Get(target)

	// Reassignment is an exclusive-access request against the current
	// borrow state, checked by the same transition table.
	if issue := w.table.AccessExclusive(target); issue.Kind != IssueNone {
		rb := diag.ReportError(w.reporter, diag.BrwAssignWhileBorrowed, span,
			fmt.Sprintf("cannot assign to '%s' while it is borrowed", w.bindingName(target)))
		if prior := w.table.Info(issue.Borrow); prior != nil {
			rb = rb.WithNote(prior.Span, "borrow taken here")
		}
		rb.Emit()
	} else if bind != nil && !bind.Mutable {
		diag.ReportError(w.reporter, diag.BrwImmutableTarget, span,
			fmt.Sprintf("cannot assign to immutable binding '%s'", w.bindingName(target))).
			WithNote(bind.Span, "declared without 'mut' here").
			Emit()
	}

	d := dest{
		kind:    destBinding,
		binding: target,
		extent:  w.tree.BindingScope(target),
		stmt:    id,
	}
	rs := w.eval(assign.Value, d)
	w.store(target, rs, id, assign.Value)
}

func (w *walker) walkReturn(id program.StmtID, span source.Span) {
	data, ok := w.prog.Stmts.Return(id)
	if !ok || data == nil || !data.Expr.IsValid() {
		return
	}
	if !w.curFunc.IsValid() {
		w.eval(data.Expr, temp(id))
		return
	}
	rs := w.eval(data.Expr, dest{kind: destReturn, stmt: id})
	def := w.prog.Func(w.curFunc)
	for _, r := range rs {
		rb := w.tree.Bindings.Get(r)
		if rb == nil || rb.Param {
			continue
		}
		// The referent is local to the function, so whatever extent the
		// signature promised, the caller would outlive it.
		diag.ReportError(w.reporter, diag.DngReturnOutlives, span,
			fmt.Sprintf("returns a reference to '%s', which does not live past '%s'",
				w.bindingName(r), w.prog.Lookup(def.Name))).
			WithNote(rb.Span, "referent declared here").
			Emit()
	}
}

// store records the referent set of a binding and enforces extent
// containment: every referent's scope must contain the destination's.
func (w *walker) store(bind scopes.BindingID, rs refSet, stmt program.StmtID, init program.ExprID) {
	if !bind.IsValid() {
		return
	}
	if len(rs) == 0 {
		delete(w.refs, bind)
		return
	}
	w.refs[bind] = rs

	bscope := w.tree.BindingScope(bind)
	span := source.Span{}
	if s := w.prog.Stmts.Get(stmt); s != nil {
		span = s.Span
	}
	code := w.danglingCode(init)
	for _, r := range rs {
		rb := w.tree.Bindings.Get(r)
		if rb == nil {
			continue
		}
		if w.tree.Contains(rb.Scope, bscope) {
			continue
		}
		diag.ReportError(w.reporter, code, span,
			fmt.Sprintf("'%s' does not live as long as '%s'",
				w.bindingName(r), w.bindingName(bind))).
			WithNote(rb.Span, "borrowed value declared here").
			Emit()
	}
}

// danglingCode picks the containment-violation code from the shape of the
// stored value.
func (w *walker) danglingCode(init program.ExprID) diag.Code {
	expr := w.prog.Exprs.Get(init)
	if expr == nil {
		return diag.DngAssignOutlives
	}
	switch expr.Kind {
	case program.ExprStructLit:
		return diag.DngFieldOutlives
	case program.ExprCall:
		return diag.DngCallOutlives
	default:
		return diag.DngAssignOutlives
	}
}

// eval walks an expression, creating borrows with extents dictated by the
// destination, and returns the referent set of the produced value. A nil
// set means the value holds no references (or is unconstrained).
func (w *walker) eval(id program.ExprID, d dest) refSet {
	if !id.IsValid() {
		return nil
	}
	expr := w.prog.Exprs.Get(id)
	if expr == nil {
		return nil
	}
	switch expr.Kind {
	case program.ExprLit:
		return nil

	case program.ExprIdent:
		bind, ok := w.tree.Uses[id]
		if !ok {
			return nil
		}
		return w.refs[bind]

	case program.ExprBorrow:
		return w.evalBorrow(id, expr.Span, d)

	case program.ExprField:
		return w.evalField(id)

	case program.ExprCall:
		return w.evalCall(id, d)

	case program.ExprStructLit:
		return w.evalStructLit(id, d)

	case program.ExprCond:
		data, _ := w.prog.Exprs.Cond(id)
		if data == nil {
			return nil
		}
		w.eval(data.Cond, temp(d.stmt))
		out := merge(refSet(nil), w.eval(data.Then, d))
		return merge(out, w.eval(data.Else, d))

	case program.ExprBinary:
		data, _ := w.prog.Exprs.Binary(id)
		if data == nil {
			return nil
		}
		w.eval(data.Left, temp(d.stmt))
		w.eval(data.Right, temp(d.stmt))
		return nil
	}
	return nil
}

func (w *walker) evalBorrow(id program.ExprID, span source.Span, d dest) refSet {
	data, _ := w.prog.Exprs.Borrow(id)
	if data == nil {
		return nil
	}
	base := w.placeBinding(data.Of)
	if !base.IsValid() {
		// Borrow of a non-place (literal, call result): the temporary dies
		// with the statement and cannot conflict with anything named.
		w.eval(data.Of, temp(d.stmt))
		return nil
	}
	kind := Shared
	if data.Exclusive {
		kind = Exclusive
		if bind := w.tree.Bindings.Get(base); bind != nil && !bind.Mutable {
			diag.ReportError(w.reporter, diag.BrwImmutableTarget, span,
				fmt.Sprintf("cannot borrow '%s' exclusively: binding is immutable", w.bindingName(base))).
				WithNote(bind.Span, "declared without 'mut' here").
				Emit()
		}
	}
	if d.kind == destReturn {
		// The function is ending; the caller-side check happens at the
		// return statement.
		return refSet{base}
	}
	extent := d.extent
	stmt := program.NoStmtID
	if d.kind == destTemp {
		extent = w.tree.StmtScopes[d.stmt]
		stmt = d.stmt
	}
	_, issue := w.table.Begin(kind, base, extent, stmt, span)
	if issue.Kind != IssueNone {
		w.reportConflict(issue, base, span)
	}
	return refSet{base}
}

func (w *walker) evalField(id program.ExprID) refSet {
	data, _ := w.prog.Exprs.Field(id)
	if data == nil {
		return nil
	}
	root := w.placeBinding(data.Base)
	if !root.IsValid() {
		return nil
	}
	// A plain-typed field carries no references out of the struct.
	if w.fieldIsPlain(data) {
		return nil
	}
	return w.refs[root]
}

// fieldIsPlain resolves the field's declared type when the base's struct is
// known; unknown shapes stay conservative (treated as reference-carrying).
func (w *walker) fieldIsPlain(data *program.ExprFieldData) bool {
	base, ok := w.tree.Uses[data.Base]
	if !ok {
		return false
	}
	bind := w.tree.Bindings.Get(base)
	if bind == nil {
		return false
	}
	structID, ok := w.tree.LookupStruct(bind.TypeName)
	if !ok {
		return false
	}
	def := w.prog.Struct(structID)
	if def == nil {
		return false
	}
	field, ok := def.FieldByName(data.Name)
	if !ok {
		return false
	}
	typ := w.prog.Types.Get(field.Type)
	return typ != nil && typ.Kind == program.TypePlain
}

func (w *walker) evalCall(id program.ExprID, d dest) refSet {
	data, _ := w.prog.Exprs.Call(id)
	if data == nil {
		return nil
	}
	aliases, constrained := w.res.CallAliases[id]

	var out refSet
	if data.Recv.IsValid() {
		recvRefs := w.evalReceiver(id, data, d)
		if constrained && aliases.Self {
			out = merge(out, recvRefs)
		}
	}
	for i, arg := range data.Args {
		flows := constrained && aliases.AliasesParam(i) && d.kind != destTemp
		ad := temp(d.stmt)
		if flows {
			// The result may alias this argument, so borrows taken here
			// must live as long as the destination, not just the
			// statement. Tying every aliased input to the destination is
			// the positional unification rule: the narrowest referent
			// scope ends up the binding one.
			ad = d
		}
		argRefs := w.eval(arg, ad)
		if constrained && aliases.AliasesParam(i) {
			out = merge(out, argRefs)
		}
	}
	if !constrained {
		return nil
	}
	return out
}

// evalReceiver evaluates the receiver expression and takes the implicit
// borrow a method call performs on it for the duration of the statement.
func (w *walker) evalReceiver(id program.ExprID, data *program.ExprCallData, d dest) refSet {
	recvRefs := w.eval(data.Recv, temp(d.stmt))
	base := w.placeBinding(data.Recv)
	if !base.IsValid() {
		return recvRefs
	}
	kind := Shared
	if target, ok := w.tree.CallTargets[id]; ok {
		if def := w.prog.Func(target); def != nil && def.Receiver != nil && def.Receiver.Exclusive {
			kind = Exclusive
		}
	}
	span := source.Span{}
	if expr := w.prog.Exprs.Get(data.Recv); expr != nil {
		span = expr.Span
	}
	_, issue := w.table.Begin(kind, base, w.tree.StmtScopes[d.stmt], d.stmt, span)
	if issue.Kind != IssueNone {
		w.reportConflict(issue, base, span)
	}
	// The result may point into the receiver itself as well as whatever
	// its fields borrow.
	out := merge(refSet(nil), recvRefs)
	return merge(out, refSet{base})
}

func (w *walker) evalStructLit(id program.ExprID, d dest) refSet {
	data, _ := w.prog.Exprs.StructLit(id)
	if data == nil {
		return nil
	}
	unconstrained := w.res.Unconstrained[id]
	var out refSet
	for _, field := range data.Fields {
		fd := d
		if d.kind == destTemp || unconstrained {
			fd = temp(d.stmt)
		}
		fieldRefs := w.eval(field.Value, fd)
		if !unconstrained {
			out = merge(out, fieldRefs)
		}
	}
	return out
}

func (w *walker) reportConflict(issue Issue, referent scopes.BindingID, span source.Span) {
	var code diag.Code
	var msg string
	name := w.bindingName(referent)
	switch issue.Kind {
	case IssueSharedWhileMut:
		code = diag.BrwSharedWhileMut
		msg = fmt.Sprintf("cannot borrow '%s': it is already exclusively borrowed", name)
	case IssueMutWhileShared:
		code = diag.BrwMutWhileShared
		msg = fmt.Sprintf("cannot borrow '%s' exclusively: shared borrows are live", name)
	case IssueMutWhileMut:
		code = diag.BrwMutWhileMut
		msg = fmt.Sprintf("cannot borrow '%s' exclusively more than once", name)
	default:
		return
	}
	rb := diag.ReportError(w.reporter, code, span, msg)
	if prior := w.table.Info(issue.Borrow); prior != nil {
		rb = rb.WithNote(prior.Span, "previous borrow taken here")
	}
	rb.Emit()
}

// placeBinding resolves the root binding of a place expression: an
// identifier, a field chain, or a borrow of either.
func (w *walker) placeBinding(id program.ExprID) scopes.BindingID {
	expr := w.prog.Exprs.Get(id)
	if expr == nil {
		return scopes.NoBindingID
	}
	switch expr.Kind {
	case program.ExprIdent:
		return w.tree.Uses[id]
	case program.ExprField:
		if data, _ := w.prog.Exprs.Field(id); data != nil {
			return w.placeBinding(data.Base)
		}
	case program.ExprBorrow:
		if data, _ := w.prog.Exprs.Borrow(id); data != nil {
			return w.placeBinding(data.Of)
		}
	}
	return scopes.NoBindingID
}

func (w *walker) bindingName(id scopes.BindingID) string {
	bind := w.tree.Bindings.Get(id)
	if bind == nil {
		return "?"
	}
	return w.prog.Lookup(bind.Name)
}
