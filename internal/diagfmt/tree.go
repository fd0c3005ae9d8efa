package diagfmt

import (
	"fmt"
	"io"

	"lend/internal/program"
	"lend/internal/scopes"
	"lend/internal/source"
)

// ScopeTree dumps the built scope tree in an indented form: one line per
// scope with its pre-order interval, bindings listed under it. Used by the
// --dump-scopes flag and a handful of tests that eyeball nesting.
func ScopeTree(w io.Writer, prog *program.Builder, tree *scopes.Tree, fs *source.FileSet) {
	if tree == nil || !tree.Root.IsValid() {
		fmt.Fprintln(w, "<no scope tree>")
		return
	}
	d := treeDumper{w: w, prog: prog, tree: tree, fs: fs}
	d.scope(tree.Root, "")
}

type treeDumper struct {
	w    io.Writer
	prog *program.Builder
	tree *scopes.Tree
	fs   *source.FileSet
}

func (d *treeDumper) scope(id scopes.ScopeID, indent string) {
	scope := d.tree.Scopes.Get(id)
	if scope == nil {
		return
	}
	fmt.Fprintf(d.w, "%s%s [%d..%d]%s\n", indent, scope.Kind, scope.Enter, scope.Exit, d.at(scope.Span))
	for _, bind := range scope.Bindings {
		b := d.tree.Bindings.Get(bind)
		if b == nil {
			continue
		}
		fmt.Fprintf(d.w, "%s  %s%s\n", indent, d.binding(b), d.at(b.Span))
	}
	for _, child := range scope.Children {
		d.scope(child, indent+"  ")
	}
}

func (d *treeDumper) binding(b *scopes.Binding) string {
	out := "let " + d.prog.Lookup(b.Name)
	if b.Mutable {
		out = "let mut " + d.prog.Lookup(b.Name)
	}
	if b.TypeName != source.NoStringID {
		out += ": " + d.prog.Lookup(b.TypeName)
	}
	if b.Param {
		out += " (param)"
	}
	return out
}

func (d *treeDumper) at(span source.Span) string {
	if d.fs == nil || span.Empty() {
		return ""
	}
	start, _ := d.fs.Resolve(span)
	return fmt.Sprintf("  @%d:%d", start.Line, start.Col)
}
