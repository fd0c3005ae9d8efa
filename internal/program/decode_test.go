package program

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lend/internal/source"
)

const bookDoc = `{
  "name": "book",
  "source": "struct Book<'a> { name: &'a String }\nfn main() {\n    let name_str = String::from(\"Peter Pan\");\n    let b = Book { name: &name_str };\n}\n",
  "structs": [
    {
      "name": "Book",
      "lifetimes": ["a"],
      "span": [0, 36],
      "fields": [
        {"name": "name", "type": {"kind": "borrowed", "lifetime": "a", "name": "String"}, "span": [18, 34]}
      ]
    }
  ],
  "main": [
    {"stmt": "decl", "name": "name_str", "span": [54, 97],
     "init": {"expr": "call", "name": "from", "on": "String", "span": [69, 96],
              "args": [{"expr": "lit", "value": "Peter Pan", "type": "String", "span": [82, 93]}]}},
    {"stmt": "decl", "name": "b", "span": [102, 136],
     "init": {"expr": "struct", "name": "Book", "span": [110, 135],
              "fields": [{"name": "name", "value": {"expr": "borrow", "of": {"expr": "name", "name": "name_str", "span": [126, 134]}, "span": [125, 134]}, "span": [117, 134]}]}}
  ]
}`

func TestDecodeJSONBook(t *testing.T) {
	fset := source.NewFileSet()
	b, err := DecodeJSON(fset, "book.json", []byte(bookDoc))
	if err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}

	if b.Name != "book" {
		t.Errorf("Name = %q, want %q", b.Name, "book")
	}
	if b.Structs.Len() != 1 {
		t.Fatalf("expected 1 struct, got %d", b.Structs.Len())
	}
	if len(b.Entry) != 2 {
		t.Fatalf("expected 2 entry statements, got %d", len(b.Entry))
	}

	def := b.Struct(StructID(1))
	if got := b.Lookup(def.Name); got != "Book" {
		t.Errorf("struct name = %q, want Book", got)
	}
	if len(def.Lifetimes) != 1 || b.Lookup(def.Lifetimes[0]) != "a" {
		t.Errorf("expected one lifetime parameter 'a'")
	}
	if len(def.Fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(def.Fields))
	}
	ft := b.Types.Get(def.Fields[0].Type)
	if ft.Kind != TypeBorrowed || b.Lookup(ft.Name) != "String" || b.Lookup(ft.Lifetime) != "a" {
		t.Errorf("field type = %+v, want borrowed &'a String", ft)
	}

	// Second decl: struct literal with a borrow init.
	decl, ok := b.Stmts.Decl(b.Entry[1])
	if !ok {
		t.Fatal("expected second entry statement to be a decl")
	}
	lit, ok := b.Exprs.StructLit(decl.Init)
	if !ok {
		t.Fatal("expected struct literal initializer")
	}
	if len(lit.Fields) != 1 {
		t.Fatalf("expected 1 field init, got %d", len(lit.Fields))
	}
	borrow, ok := b.Exprs.Borrow(lit.Fields[0].Value)
	if !ok {
		t.Fatal("expected borrow field init")
	}
	if borrow.Exclusive {
		t.Error("expected shared borrow")
	}
	ident, ok := b.Exprs.Ident(borrow.Of)
	if !ok || b.Lookup(ident.Name) != "name_str" {
		t.Error("expected borrow of name_str")
	}

	// Program spans land in the embedded source text.
	f := fset.Get(b.File)
	if f.Flags&source.FileVirtual == 0 {
		t.Error("expected embedded source to be a virtual file")
	}
	if got := fset.Snippet(source.Span{File: b.File, Start: 0, End: 6}); got != "struct" {
		t.Errorf("Snippet = %q, want %q", got, "struct")
	}
}

func TestDecodeYAMLEquivalent(t *testing.T) {
	doc := `
name: circle
source: "let r1 = 10;"
main:
  - stmt: decl
    name: r1
    span: [0, 12]
    init:
      expr: lit
      value: "10"
      type: i32
      span: [9, 11]
`
	fset := source.NewFileSet()
	b, err := DecodeYAML(fset, "circle.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("DecodeYAML returned error: %v", err)
	}
	if len(b.Entry) != 1 {
		t.Fatalf("expected 1 entry statement, got %d", len(b.Entry))
	}
	decl, ok := b.Stmts.Decl(b.Entry[0])
	if !ok || b.Lookup(decl.Name) != "r1" {
		t.Fatal("expected decl of r1")
	}
	lit, ok := b.Exprs.Lit(decl.Init)
	if !ok || b.Lookup(lit.Value) != "10" {
		t.Fatal("expected literal initializer 10")
	}
}

func TestDecodeNormalizesNFC(t *testing.T) {
	// "é" as a precomposed rune vs. "e"+combining acute must intern to the
	// same name.
	doc := `{
  "name": "nfc",
  "source": "",
  "main": [
    {"stmt": "decl", "name": "café"},
    {"stmt": "expr", "expr": {"expr": "name", "name": "café"}}
  ]
}`
	fset := source.NewFileSet()
	b, err := DecodeJSON(fset, "nfc.json", []byte(doc))
	if err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	decl, _ := b.Stmts.Decl(b.Entry[0])
	es, _ := b.Stmts.Expr(b.Entry[1])
	ident, _ := b.Exprs.Ident(es.Expr)
	if decl.Name != ident.Name {
		t.Errorf("expected NFC-normalized names to intern equal: %d != %d", decl.Name, ident.Name)
	}
}

func TestDecodeShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown statement kind",
			doc:  `{"name":"x","source":"","main":[{"stmt":"loop"}]}`,
			want: "unknown statement kind",
		},
		{
			name: "unknown expression kind",
			doc:  `{"name":"x","source":"","main":[{"stmt":"expr","expr":{"expr":"lambda"}}]}`,
			want: "unknown expression kind",
		},
		{
			name: "decl without name",
			doc:  `{"name":"x","source":"","main":[{"stmt":"decl"}]}`,
			want: "decl needs a name",
		},
		{
			name: "borrow without operand",
			doc:  `{"name":"x","source":"","main":[{"stmt":"expr","expr":{"expr":"borrow"}}]}`,
			want: "borrow needs an operand",
		},
		{
			name: "call with on and receiver",
			doc:  `{"name":"x","source":"","main":[{"stmt":"expr","expr":{"expr":"call","name":"f","on":"S","recv":{"expr":"name","name":"y"}}}]}`,
			want: "cannot combine",
		},
		{
			name: "bad type kind",
			doc:  `{"name":"x","source":"","structs":[{"name":"S","fields":[{"name":"f","type":{"kind":"ref","name":"T"}}]}]}`,
			want: "unknown type kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fset := source.NewFileSet()
			_, err := DecodeJSON(fset, "bad.json", []byte(tt.doc))
			if err == nil {
				t.Fatal("expected a decode error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDecodeFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.toml")
	if err := os.WriteFile(path, []byte("name = \"x\""), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	fset := source.NewFileSet()
	_, err := DecodeFile(fset, path)
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if !strings.Contains(err.Error(), "unsupported extension") {
		t.Fatalf("error %q does not mention the extension", err)
	}
}

func TestSpanOutOfOrderFallsBackToZero(t *testing.T) {
	doc := `{"name":"x","source":"ab","main":[{"stmt":"open","span":[5,2]},{"stmt":"close"}]}`
	fset := source.NewFileSet()
	b, err := DecodeJSON(fset, "x.json", []byte(doc))
	if err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	sp := b.Stmts.Get(b.Entry[0]).Span
	if !sp.Empty() {
		t.Errorf("expected malformed span to decode as empty, got %+v", sp)
	}
}
