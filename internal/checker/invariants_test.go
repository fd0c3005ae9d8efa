package checker

import (
	"testing"

	"lend/internal/program"
	"lend/internal/source"
	"lend/internal/testkit"
)

// Accepted programs must leave a well-formed scope tree and a borrow table
// where every extent is contained by its referent's scope.
func TestAcceptedProgramsHoldInvariants(t *testing.T) {
	for name, doc := range testkit.Corpus() {
		fset := source.NewFileSet()
		prog, err := program.DecodeJSON(fset, name+".json", []byte(doc))
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		result := Check(prog, Options{})
		if result.Fatal != nil {
			t.Fatalf("%s: fatal: %v", name, result.Fatal)
		}
		if err := testkit.CheckTreeInvariants(result.Tree); err != nil {
			t.Fatalf("%s: tree invariants: %v", name, err)
		}
		if !result.Valid() {
			continue
		}
		if err := testkit.CheckBorrowInvariants(result.Tree, result.Borrows); err != nil {
			t.Fatalf("%s: borrow invariants: %v", name, err)
		}
	}
}
