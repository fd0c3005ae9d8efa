package scopes

import (
	"errors"
	"fmt"

	"lend/internal/diag"
	"lend/internal/program"
	"lend/internal/source"
)

// ErrMalformedNesting is returned by Build when block markers do not nest:
// a close without a matching open, or a body that ends with blocks still
// open. Scope extents are meaningless after that, so later passes must not
// run; the structural diagnostics are already in the reporter.
var ErrMalformedNesting = errors.New("malformed block nesting")

// Build runs the binding pass: it folds the flat statement lists into a
// scope tree, declares every binding, resolves every name use to its
// binding in program order (shadowing allowed), and resolves call targets.
// Unknown names are reported and skipped; only broken nesting is fatal.
func Build(prog *program.Builder, reporter diag.Reporter) (*Tree, error) {
	if prog == nil {
		return nil, errors.New("scopes: nil program")
	}
	b := &binder{
		prog:     prog,
		tree:     newTree(prog.Stmts.Arena.Len()/4 + 8),
		reporter: reporter,
		visible:  make(map[source.StringID]BindingID),
		selfName: prog.Interner.Intern("self"),
		clock:    1,
	}

	docSpan := source.Span{File: prog.File}
	docSpan = docSpan.Cover(prog.EntrySpan)
	for i := uint32(1); i <= prog.Structs.Len(); i++ {
		if def := prog.Struct(program.StructID(i)); def != nil {
			docSpan = docSpan.Cover(def.Span)
		}
	}
	for i := uint32(1); i <= prog.Funcs.Len(); i++ {
		if def := prog.Func(program.FuncID(i)); def != nil {
			docSpan = docSpan.Cover(def.Span)
		}
	}

	root := b.enterScope(ScopeProgram, docSpan)
	b.tree.Root = root
	b.registerDefs()
	for i := uint32(1); i <= prog.Funcs.Len(); i++ {
		b.walkFunc(program.FuncID(i))
		if b.fatal != nil {
			return nil, b.fatal
		}
	}
	b.walkEntry()
	if b.fatal != nil {
		return nil, b.fatal
	}
	b.exitScope()
	return b.tree, nil
}

// savedBinding remembers what a name pointed at before the current scope
// shadowed it, so exitScope can restore visibility exactly.
type savedBinding struct {
	name    source.StringID
	prev    BindingID
	existed bool
}

type binder struct {
	prog     *program.Builder
	tree     *Tree
	reporter diag.Reporter

	visible  map[source.StringID]BindingID
	saves    [][]savedBinding // параллельно стеку областей
	stack    []ScopeID
	selfName source.StringID
	clock    uint32

	fatal error
}

func (b *binder) current() ScopeID {
	if len(b.stack) == 0 {
		return NoScopeID
	}
	return b.stack[len(b.stack)-1]
}

func (b *binder) enterScope(kind ScopeKind, span source.Span) ScopeID {
	id := b.tree.Scopes.New(kind, b.current(), span)
	b.tree.Scopes.Get(id).Enter = b.clock
	b.clock++
	b.stack = append(b.stack, id)
	b.saves = append(b.saves, nil)
	return id
}

func (b *binder) exitScope() {
	top := len(b.stack) - 1
	saved := b.saves[top]
	// восстанавливаем затенённые имена в обратном порядке
	for i := len(saved) - 1; i >= 0; i-- {
		s := saved[i]
		if s.existed {
			b.visible[s.name] = s.prev
		} else {
			delete(b.visible, s.name)
		}
	}
	b.tree.Scopes.Get(b.stack[top]).Exit = b.clock
	b.clock++
	b.stack = b.stack[:top]
	b.saves = b.saves[:top]
}

// declare allocates a binding in the current scope and makes it visible,
// saving whatever the name meant before.
func (b *binder) declare(bind Binding) BindingID {
	bind.Scope = b.current()
	id := b.tree.Bindings.New(bind)
	if scope := b.tree.Scopes.Get(bind.Scope); scope != nil {
		scope.Bindings = append(scope.Bindings, id)
	}
	top := len(b.saves) - 1
	prev, existed := b.visible[bind.Name]
	b.saves[top] = append(b.saves[top], savedBinding{name: bind.Name, prev: prev, existed: existed})
	b.visible[bind.Name] = id
	return id
}

// registerDefs indexes struct and function definitions before any body is
// walked, so forward references resolve. First definition wins; duplicates
// are reported and ignored.
func (b *binder) registerDefs() {
	for i := uint32(1); i <= b.prog.Structs.Len(); i++ {
		id := program.StructID(i)
		def := b.prog.Struct(id)
		if def == nil {
			continue
		}
		if prevID, ok := b.tree.structIndex[def.Name]; ok {
			rb := diag.ReportError(b.reporter, diag.StrDuplicateStruct, def.Span,
				fmt.Sprintf("struct '%s' is defined more than once", b.prog.Lookup(def.Name)))
			if prev := b.prog.Struct(prevID); prev != nil {
				rb = rb.WithNote(prev.Span, "first definition here")
			}
			rb.Emit()
			continue
		}
		b.tree.structIndex[def.Name] = id
	}
	for i := uint32(1); i <= b.prog.Funcs.Len(); i++ {
		id := program.FuncID(i)
		def := b.prog.Func(id)
		if def == nil {
			continue
		}
		if def.Receiver != nil {
			if _, ok := b.tree.structIndex[def.Receiver.Target]; !ok {
				diag.ReportError(b.reporter, diag.StrUnknownStruct, def.Receiver.Span,
					fmt.Sprintf("impl target '%s' is not a defined struct", b.prog.Lookup(def.Receiver.Target))).
					Emit()
			}
		}
		key := funcKey{Owner: def.Owner(), Name: def.Name}
		if prevID, ok := b.tree.funcIndex[key]; ok {
			rb := diag.ReportError(b.reporter, diag.StrDuplicateFunction, def.Span,
				fmt.Sprintf("function '%s' is defined more than once", b.qualifiedName(def)))
			if prev := b.prog.Func(prevID); prev != nil {
				rb = rb.WithNote(prev.Span, "first definition here")
			}
			rb.Emit()
			continue
		}
		b.tree.funcIndex[key] = id
	}
}

func (b *binder) qualifiedName(def *program.FuncDef) string {
	name := b.prog.Lookup(def.Name)
	if owner := def.Owner(); owner != source.NoStringID {
		return b.prog.Lookup(owner) + "::" + name
	}
	return name
}

func (b *binder) walkFunc(id program.FuncID) {
	def := b.prog.Func(id)
	if def == nil {
		return
	}
	scopeID := b.enterScope(ScopeFunction, def.Span)
	b.tree.FuncScopes[id] = scopeID
	if def.IsMethod() {
		b.declareSelf(id, def.Receiver)
	}
	for _, param := range def.Params {
		b.declare(Binding{
			Name:     param.Name,
			Span:     param.Span,
			Type:     param.Type,
			TypeName: b.typeIDName(param.Type),
			Param:    true,
		})
	}
	b.walkBody(def.Body)
	if b.fatal != nil {
		return
	}
	b.exitScope()
}

// declareSelf binds the receiver. Its type is materialized as a borrowed
// type so later passes can treat self like any reference parameter.
func (b *binder) declareSelf(id program.FuncID, recv *program.Receiver) {
	selfType := b.prog.Types.Borrowed(recv.SelfLifetime, recv.Target, recv.Exclusive)
	bindID := b.declare(Binding{
		Name:     b.selfName,
		Span:     recv.Span,
		Type:     selfType,
		TypeName: recv.Target,
		Mutable:  recv.Exclusive,
		Param:    true,
	})
	b.tree.SelfBindings[id] = bindID
}

func (b *binder) walkEntry() {
	scopeID := b.enterScope(ScopeFunction, b.prog.EntrySpan)
	b.tree.EntryScope = scopeID
	b.walkBody(b.prog.Entry)
	if b.fatal != nil {
		return
	}
	b.exitScope()
}

// walkBody consumes a flat statement list, turning block markers into
// scope nesting. floor is the scope depth at body start; a close marker
// may never take the stack below it.
func (b *binder) walkBody(stmts []program.StmtID) {
	floor := len(b.stack)
	for _, id := range stmts {
		if b.fatal != nil {
			return
		}
		b.walkStmt(id, floor)
	}
	if b.fatal != nil {
		return
	}
	if len(b.stack) > floor {
		span := source.Span{}
		if top := b.tree.Scopes.Get(b.current()); top != nil {
			span = top.Span
		}
		diag.ReportError(b.reporter, diag.StrUnclosedBlock, span,
			"block opened here is never closed").Emit()
		b.fatal = ErrMalformedNesting
	}
}

func (b *binder) walkStmt(id program.StmtID, floor int) {
	stmt := b.prog.Stmts.Get(id)
	if stmt == nil {
		return
	}
	b.tree.StmtScopes[id] = b.current()
	switch stmt.Kind {
	case program.StmtBlockOpen:
		scopeID := b.enterScope(ScopeBlock, stmt.Span)
		b.tree.OpenScopes[id] = scopeID
	case program.StmtBlockClose:
		if len(b.stack) <= floor {
			diag.ReportError(b.reporter, diag.StrUnbalancedClose, stmt.Span,
				"block close without a matching open").Emit()
			b.fatal = ErrMalformedNesting
			return
		}
		b.exitScope()
	case program.StmtDecl:
		decl, ok := b.prog.Stmts.Decl(id)
		if !ok || decl == nil {
			return
		}
		// инициализатор видит старую привязку, если имя затеняется
		if decl.Init.IsValid() {
			b.walkExpr(decl.Init)
		}
		bindID := b.declare(Binding{
			Name:     decl.Name,
			Span:     stmt.Span,
			Type:     decl.Type,
			TypeName: b.declTypeName(decl),
			Mutable:  decl.Mutable,
		})
		b.tree.DeclBindings[id] = bindID
	case program.StmtAssign:
		assign, ok := b.prog.Stmts.Assign(id)
		if !ok || assign == nil {
			return
		}
		b.walkExpr(assign.Target)
		b.walkExpr(assign.Value)
	case program.StmtExpr:
		if data, ok := b.prog.Stmts.Expr(id); ok && data != nil {
			b.walkExpr(data.Expr)
		}
	case program.StmtReturn:
		if data, ok := b.prog.Stmts.Return(id); ok && data != nil && data.Expr.IsValid() {
			b.walkExpr(data.Expr)
		}
	}
}

// declTypeName infers the binding's value type name: the annotation when
// present, otherwise whatever the initializer produces. Borrowed types
// report their referent name so method dispatch looks through references.
func (b *binder) declTypeName(decl *program.StmtDeclData) source.StringID {
	if decl.Type.IsValid() {
		return b.typeIDName(decl.Type)
	}
	if decl.Init.IsValid() {
		return b.typeName(decl.Init)
	}
	return source.NoStringID
}

func (b *binder) walkExpr(id program.ExprID) {
	if !id.IsValid() {
		return
	}
	expr := b.prog.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case program.ExprLit:
	case program.ExprIdent:
		data, _ := b.prog.Exprs.Ident(id)
		if data == nil {
			return
		}
		b.resolveIdent(id, expr.Span, data.Name)
	case program.ExprBorrow:
		data, _ := b.prog.Exprs.Borrow(id)
		if data == nil {
			return
		}
		b.walkExpr(data.Of)
	case program.ExprField:
		data, _ := b.prog.Exprs.Field(id)
		if data == nil {
			return
		}
		b.walkExpr(data.Base)
		b.checkFieldAccess(expr.Span, data)
	case program.ExprCall:
		data, _ := b.prog.Exprs.Call(id)
		if data == nil {
			return
		}
		if data.Recv.IsValid() {
			b.walkExpr(data.Recv)
		}
		b.resolveCall(id, expr.Span, data)
		for _, arg := range data.Args {
			b.walkExpr(arg)
		}
	case program.ExprStructLit:
		data, _ := b.prog.Exprs.StructLit(id)
		if data == nil {
			return
		}
		b.walkStructLit(expr.Span, data)
	case program.ExprCond:
		data, _ := b.prog.Exprs.Cond(id)
		if data == nil {
			return
		}
		b.walkExpr(data.Cond)
		b.walkExpr(data.Then)
		b.walkExpr(data.Else)
	case program.ExprBinary:
		data, _ := b.prog.Exprs.Binary(id)
		if data == nil {
			return
		}
		b.walkExpr(data.Left)
		b.walkExpr(data.Right)
	}
}

func (b *binder) resolveIdent(id program.ExprID, span source.Span, name source.StringID) {
	if name == source.NoStringID {
		return
	}
	if bindID, ok := b.visible[name]; ok {
		b.tree.Uses[id] = bindID
		return
	}
	if name == b.selfName {
		diag.ReportError(b.reporter, diag.StrSelfOutsideMethod, span,
			"cannot use 'self' outside of a method").Emit()
		return
	}
	diag.ReportError(b.reporter, diag.StrUnknownBinding, span,
		fmt.Sprintf("cannot resolve '%s'", b.prog.Lookup(name))).Emit()
}

// checkFieldAccess validates the field name when the base resolves to a
// defined struct. Bases of unknown or builtin type are left alone.
func (b *binder) checkFieldAccess(span source.Span, data *program.ExprFieldData) {
	owner := b.typeName(data.Base)
	if owner == source.NoStringID {
		return
	}
	structID, ok := b.tree.structIndex[owner]
	if !ok {
		return
	}
	def := b.prog.Struct(structID)
	if def == nil {
		return
	}
	if _, ok := def.FieldByName(data.Name); !ok {
		diag.ReportError(b.reporter, diag.StrUnknownField, span,
			fmt.Sprintf("struct '%s' has no field '%s'", b.prog.Lookup(owner), b.prog.Lookup(data.Name))).
			WithNote(def.Span, "struct defined here").
			Emit()
	}
}

func (b *binder) resolveCall(id program.ExprID, span source.Span, data *program.ExprCallData) {
	switch {
	case data.Recv.IsValid():
		// метод: владелец выводится из типа приёмника
		owner := b.typeName(data.Recv)
		if owner == source.NoStringID {
			return
		}
		if funcID, ok := b.tree.funcIndex[funcKey{Owner: owner, Name: data.Func}]; ok {
			b.tree.CallTargets[id] = funcID
			return
		}
		if _, ok := b.tree.structIndex[owner]; ok {
			diag.ReportError(b.reporter, diag.StrUnknownFunction, span,
				fmt.Sprintf("struct '%s' has no function '%s'", b.prog.Lookup(owner), b.prog.Lookup(data.Func))).
				Emit()
		}
	case data.On != source.NoStringID:
		if _, ok := b.tree.structIndex[data.On]; !ok {
			diag.ReportError(b.reporter, diag.StrUnknownStruct, span,
				fmt.Sprintf("cannot resolve struct '%s'", b.prog.Lookup(data.On))).Emit()
			return
		}
		if funcID, ok := b.tree.funcIndex[funcKey{Owner: data.On, Name: data.Func}]; ok {
			b.tree.CallTargets[id] = funcID
			return
		}
		diag.ReportError(b.reporter, diag.StrUnknownFunction, span,
			fmt.Sprintf("struct '%s' has no function '%s'", b.prog.Lookup(data.On), b.prog.Lookup(data.Func))).
			Emit()
	default:
		if funcID, ok := b.tree.funcIndex[funcKey{Owner: source.NoStringID, Name: data.Func}]; ok {
			b.tree.CallTargets[id] = funcID
			return
		}
		diag.ReportError(b.reporter, diag.StrUnknownFunction, span,
			fmt.Sprintf("cannot resolve function '%s'", b.prog.Lookup(data.Func))).Emit()
	}
}

func (b *binder) walkStructLit(span source.Span, data *program.ExprStructLitData) {
	structID, known := b.tree.structIndex[data.Name]
	var def *program.StructDef
	if known {
		def = b.prog.Struct(structID)
	} else {
		diag.ReportError(b.reporter, diag.StrUnknownStruct, span,
			fmt.Sprintf("cannot resolve struct '%s'", b.prog.Lookup(data.Name))).Emit()
	}
	for _, field := range data.Fields {
		if def != nil {
			if _, ok := def.FieldByName(field.Name); !ok {
				fieldSpan := field.Span
				if fieldSpan.Empty() {
					fieldSpan = span
				}
				diag.ReportError(b.reporter, diag.StrUnknownField, fieldSpan,
					fmt.Sprintf("struct '%s' has no field '%s'", b.prog.Lookup(data.Name), b.prog.Lookup(field.Name))).
					WithNote(def.Span, "struct defined here").
					Emit()
			}
		}
		b.walkExpr(field.Value)
	}
}

// typeName is shallow value-type inference: just enough to dispatch
// methods and validate field names. It never fails loudly; unknown is
// NoStringID and the callers skip their checks.
func (b *binder) typeName(id program.ExprID) source.StringID {
	expr := b.prog.Exprs.Get(id)
	if expr == nil {
		return source.NoStringID
	}
	switch expr.Kind {
	case program.ExprLit:
		if data, ok := b.prog.Exprs.Lit(id); ok && data != nil {
			return data.Type
		}
	case program.ExprIdent:
		if bindID, ok := b.tree.Uses[id]; ok {
			if bind := b.tree.Bindings.Get(bindID); bind != nil {
				return bind.TypeName
			}
		}
	case program.ExprBorrow:
		if data, ok := b.prog.Exprs.Borrow(id); ok && data != nil {
			// сквозь заём: метод ищем по типу референта
			return b.typeName(data.Of)
		}
	case program.ExprField:
		if data, ok := b.prog.Exprs.Field(id); ok && data != nil {
			owner := b.typeName(data.Base)
			if structID, ok := b.tree.structIndex[owner]; ok {
				if def := b.prog.Struct(structID); def != nil {
					if field, ok := def.FieldByName(data.Name); ok {
						return b.typeIDName(field.Type)
					}
				}
			}
		}
	case program.ExprCall:
		if funcID, ok := b.tree.CallTargets[id]; ok {
			if def := b.prog.Func(funcID); def != nil {
				return b.typeIDName(def.Return)
			}
		}
	case program.ExprStructLit:
		if data, ok := b.prog.Exprs.StructLit(id); ok && data != nil {
			return data.Name
		}
	case program.ExprCond:
		if data, ok := b.prog.Exprs.Cond(id); ok && data != nil {
			return b.typeName(data.Then)
		}
	case program.ExprBinary:
		if data, ok := b.prog.Exprs.Binary(id); ok && data != nil {
			return b.typeName(data.Left)
		}
	}
	return source.NoStringID
}

// typeIDName returns the type's name, looking through references.
func (b *binder) typeIDName(id program.TypeID) source.StringID {
	typ := b.prog.Types.Get(id)
	if typ == nil {
		return source.NoStringID
	}
	return typ.Name
}
