package scopes

import (
	"errors"
	"testing"

	"lend/internal/diag"
	"lend/internal/program"
	"lend/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func buildTree(t *testing.T, prog *program.Builder) (*Tree, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(32)
	tree, err := Build(prog, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return tree, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestBuildNestingAndShadowing(t *testing.T) {
	prog := program.NewBuilder(program.Hints{})
	file := source.FileID(1)
	prog.File = file
	prog.EntrySpan = span(file, 0, 40)
	x := prog.Interner.Intern("x")
	intName := prog.Interner.Intern("int")

	litOne := prog.Exprs.NewLit(span(file, 8, 9), prog.Interner.Intern("1"), intName)
	declOuter := prog.Stmts.NewDecl(span(file, 0, 10), x, false, program.NoTypeID, litOne)
	open := prog.Stmts.NewBlockOpen(span(file, 11, 12))
	litTwo := prog.Exprs.NewLit(span(file, 25, 26), prog.Interner.Intern("2"), intName)
	declInner := prog.Stmts.NewDecl(span(file, 17, 27), x, false, program.NoTypeID, litTwo)
	useInner := prog.Exprs.NewIdent(span(file, 30, 31), x)
	exprInner := prog.Stmts.NewExpr(span(file, 30, 32), useInner)
	closeStmt := prog.Stmts.NewBlockClose(span(file, 33, 34))
	useOuter := prog.Exprs.NewIdent(span(file, 36, 37), x)
	exprOuter := prog.Stmts.NewExpr(span(file, 36, 38), useOuter)
	for _, id := range []program.StmtID{declOuter, open, declInner, exprInner, closeStmt, exprOuter} {
		prog.PushEntry(id)
	}

	tree, bag := buildTree(t, prog)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}

	inner, ok := tree.Uses[useInner]
	if !ok {
		t.Fatalf("inner use did not resolve")
	}
	outer, ok := tree.Uses[useOuter]
	if !ok {
		t.Fatalf("outer use did not resolve")
	}
	if inner == outer {
		t.Fatalf("shadowed and shadowing uses resolved to the same binding %v", inner)
	}
	if want := tree.DeclBindings[declInner]; inner != want {
		t.Fatalf("inner use resolved to %v, want %v", inner, want)
	}
	if want := tree.DeclBindings[declOuter]; outer != want {
		t.Fatalf("outer use resolved to %v, want %v", outer, want)
	}

	blockScope, ok := tree.OpenScopes[open]
	if !ok {
		t.Fatalf("open marker has no scope")
	}
	if got := tree.Scopes.Get(blockScope).Kind; got != ScopeBlock {
		t.Fatalf("open marker scope kind = %v, want %v", got, ScopeBlock)
	}
	if !tree.Contains(tree.Root, tree.EntryScope) {
		t.Fatalf("root must contain the entry scope")
	}
	if !tree.Contains(tree.EntryScope, blockScope) {
		t.Fatalf("entry scope must contain the block scope")
	}
	if tree.Contains(blockScope, tree.EntryScope) {
		t.Fatalf("block scope must not contain the entry scope")
	}
	if got := tree.BindingScope(inner); got != blockScope {
		t.Fatalf("inner binding scope = %v, want block %v", got, blockScope)
	}
	if got := tree.BindingScope(outer); got != tree.EntryScope {
		t.Fatalf("outer binding scope = %v, want entry %v", got, tree.EntryScope)
	}
	if got := tree.StmtScopes[declInner]; got != blockScope {
		t.Fatalf("inner decl runs in scope %v, want %v", got, blockScope)
	}
}

func TestBuildUnbalancedCloseIsFatal(t *testing.T) {
	prog := program.NewBuilder(program.Hints{})
	file := source.FileID(1)
	prog.File = file
	prog.EntrySpan = span(file, 0, 4)
	prog.PushEntry(prog.Stmts.NewBlockClose(span(file, 0, 1)))

	bag := diag.NewBag(8)
	tree, err := Build(prog, diag.BagReporter{Bag: bag})
	if !errors.Is(err, ErrMalformedNesting) {
		t.Fatalf("err = %v, want ErrMalformedNesting", err)
	}
	if tree != nil {
		t.Fatalf("fatal build must not return a tree")
	}
	if !hasCode(bag, diag.StrUnbalancedClose) {
		t.Fatalf("missing StrUnbalancedClose, got %v", bag.Items())
	}
}

func TestBuildUnclosedBlockIsFatal(t *testing.T) {
	prog := program.NewBuilder(program.Hints{})
	file := source.FileID(1)
	prog.File = file
	prog.EntrySpan = span(file, 0, 8)
	prog.PushEntry(prog.Stmts.NewBlockOpen(span(file, 0, 1)))

	bag := diag.NewBag(8)
	_, err := Build(prog, diag.BagReporter{Bag: bag})
	if !errors.Is(err, ErrMalformedNesting) {
		t.Fatalf("err = %v, want ErrMalformedNesting", err)
	}
	if !hasCode(bag, diag.StrUnclosedBlock) {
		t.Fatalf("missing StrUnclosedBlock, got %v", bag.Items())
	}
}

func TestBuildUnknownNames(t *testing.T) {
	prog := program.NewBuilder(program.Hints{})
	file := source.FileID(1)
	prog.File = file
	prog.EntrySpan = span(file, 0, 64)

	ghostUse := prog.Exprs.NewIdent(span(file, 0, 5), prog.Interner.Intern("ghost"))
	prog.PushEntry(prog.Stmts.NewExpr(span(file, 0, 6), ghostUse))
	selfUse := prog.Exprs.NewIdent(span(file, 8, 12), prog.Interner.Intern("self"))
	prog.PushEntry(prog.Stmts.NewExpr(span(file, 8, 13), selfUse))
	call := prog.Exprs.NewCall(span(file, 15, 22), program.ExprCallData{
		Func: prog.Interner.Intern("vanish"),
	})
	prog.PushEntry(prog.Stmts.NewExpr(span(file, 15, 23), call))
	lit := prog.Exprs.NewStructLit(span(file, 25, 35), program.ExprStructLitData{
		Name: prog.Interner.Intern("Ghost"),
	})
	prog.PushEntry(prog.Stmts.NewExpr(span(file, 25, 36), lit))

	tree, bag := buildTree(t, prog)
	if !hasCode(bag, diag.StrUnknownBinding) {
		t.Fatalf("missing StrUnknownBinding")
	}
	if !hasCode(bag, diag.StrSelfOutsideMethod) {
		t.Fatalf("missing StrSelfOutsideMethod")
	}
	if !hasCode(bag, diag.StrUnknownFunction) {
		t.Fatalf("missing StrUnknownFunction")
	}
	if !hasCode(bag, diag.StrUnknownStruct) {
		t.Fatalf("missing StrUnknownStruct")
	}
	if _, ok := tree.Uses[ghostUse]; ok {
		t.Fatalf("unresolved use must not appear in Uses")
	}
	if _, ok := tree.CallTargets[call]; ok {
		t.Fatalf("unresolved call must not appear in CallTargets")
	}
}

func TestBuildMethodDispatch(t *testing.T) {
	prog := program.NewBuilder(program.Hints{})
	file := source.FileID(1)
	prog.File = file
	bookName := prog.Interner.Intern("Book")
	titleName := prog.Interner.Intern("title")
	stringName := prog.Interner.Intern("String")

	prog.AddStruct(program.StructDef{
		Name:   bookName,
		Fields: []program.Field{{Name: titleName, Type: prog.Types.Plain(stringName), Span: span(file, 14, 27)}},
		Span:   span(file, 0, 30),
	})

	selfIdent := prog.Exprs.NewIdent(span(file, 70, 74), prog.Interner.Intern("self"))
	fieldExpr := prog.Exprs.NewField(span(file, 70, 80), selfIdent, titleName)
	borrowExpr := prog.Exprs.NewBorrow(span(file, 69, 80), false, fieldExpr)
	retStmt := prog.Stmts.NewReturn(span(file, 62, 81), borrowExpr)
	titleFn := prog.AddFunc(program.FuncDef{
		Name:     titleName,
		Receiver: &program.Receiver{Target: bookName, HasSelf: true, Span: span(file, 40, 45)},
		Return:   prog.Types.Borrowed(source.NoStringID, stringName, false),
		Body:     []program.StmtID{retStmt},
		Span:     span(file, 33, 83),
	})

	textLit := prog.Exprs.NewLit(span(file, 110, 121), prog.Interner.Intern("Peter Pan"), stringName)
	structLit := prog.Exprs.NewStructLit(span(file, 100, 122), program.ExprStructLitData{
		Name:   bookName,
		Fields: []program.FieldInit{{Name: titleName, Value: textLit, Span: span(file, 103, 121)}},
	})
	declBook := prog.Stmts.NewDecl(span(file, 90, 123), prog.Interner.Intern("book"), false, program.NoTypeID, structLit)
	bookIdent := prog.Exprs.NewIdent(span(file, 132, 136), prog.Interner.Intern("book"))
	callExpr := prog.Exprs.NewCall(span(file, 132, 145), program.ExprCallData{
		Func: titleName,
		Recv: bookIdent,
	})
	declT := prog.Stmts.NewDecl(span(file, 126, 146), prog.Interner.Intern("t"), false, program.NoTypeID, callExpr)
	prog.PushEntry(declBook)
	prog.PushEntry(declT)
	prog.EntrySpan = span(file, 86, 150)

	tree, bag := buildTree(t, prog)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if got := tree.CallTargets[callExpr]; got != titleFn {
		t.Fatalf("call resolved to %v, want %v", got, titleFn)
	}
	selfBind, ok := tree.SelfBindings[titleFn]
	if !ok {
		t.Fatalf("method has no self binding")
	}
	if got := tree.Uses[selfIdent]; got != selfBind {
		t.Fatalf("self use resolved to %v, want %v", got, selfBind)
	}
	if got := tree.Bindings.Get(selfBind).TypeName; got != bookName {
		t.Fatalf("self type name = %v, want Book", got)
	}
	if _, ok := tree.FuncScopes[titleFn]; !ok {
		t.Fatalf("method has no function scope")
	}
	// the call returns &String, so the binding's value type is String
	if got := tree.Bindings.Get(tree.DeclBindings[declT]).TypeName; got != stringName {
		t.Fatalf("declared binding type name = %v, want String", got)
	}
}

func TestBuildDuplicateDefinitions(t *testing.T) {
	prog := program.NewBuilder(program.Hints{})
	file := source.FileID(1)
	prog.File = file
	prog.EntrySpan = span(file, 90, 91)
	pt := prog.Interner.Intern("Pt")
	fn := prog.Interner.Intern("f")

	first := prog.AddStruct(program.StructDef{Name: pt, Span: span(file, 0, 10)})
	prog.AddStruct(program.StructDef{Name: pt, Span: span(file, 12, 22)})
	firstFn := prog.AddFunc(program.FuncDef{Name: fn, Span: span(file, 30, 40)})
	prog.AddFunc(program.FuncDef{Name: fn, Span: span(file, 42, 52)})

	tree, bag := buildTree(t, prog)
	if !hasCode(bag, diag.StrDuplicateStruct) {
		t.Fatalf("missing StrDuplicateStruct")
	}
	if !hasCode(bag, diag.StrDuplicateFunction) {
		t.Fatalf("missing StrDuplicateFunction")
	}
	if got, _ := tree.LookupStruct(pt); got != first {
		t.Fatalf("duplicate must not replace first struct: got %v, want %v", got, first)
	}
	if got, _ := tree.LookupFunc(fn); got != firstFn {
		t.Fatalf("duplicate must not replace first function: got %v, want %v", got, firstFn)
	}
}

func TestBuildUnknownFieldInLiteralAndAccess(t *testing.T) {
	prog := program.NewBuilder(program.Hints{})
	file := source.FileID(1)
	prog.File = file
	bookName := prog.Interner.Intern("Book")
	prog.AddStruct(program.StructDef{
		Name:   bookName,
		Fields: []program.Field{{Name: prog.Interner.Intern("title"), Type: prog.Types.Plain(prog.Interner.Intern("String")), Span: span(file, 14, 27)}},
		Span:   span(file, 0, 30),
	})

	badLit := prog.Exprs.NewLit(span(file, 50, 53), prog.Interner.Intern("x"), prog.Interner.Intern("String"))
	structLit := prog.Exprs.NewStructLit(span(file, 40, 54), program.ExprStructLitData{
		Name:   bookName,
		Fields: []program.FieldInit{{Name: prog.Interner.Intern("titel"), Value: badLit, Span: span(file, 45, 53)}},
	})
	declBook := prog.Stmts.NewDecl(span(file, 34, 55), prog.Interner.Intern("book"), false, program.NoTypeID, structLit)
	baseIdent := prog.Exprs.NewIdent(span(file, 60, 64), prog.Interner.Intern("book"))
	access := prog.Exprs.NewField(span(file, 60, 70), baseIdent, prog.Interner.Intern("pages"))
	exprStmt := prog.Stmts.NewExpr(span(file, 60, 71), access)
	prog.PushEntry(declBook)
	prog.PushEntry(exprStmt)
	prog.EntrySpan = span(file, 34, 75)

	_, bag := buildTree(t, prog)
	got := 0
	for _, d := range bag.Items() {
		if d.Code == diag.StrUnknownField {
			got++
		}
	}
	if got != 2 {
		t.Fatalf("StrUnknownField count = %d, want 2 (literal and access), diags %v", got, bag.Items())
	}
}
