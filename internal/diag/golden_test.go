package diag

import (
	"testing"

	"lend/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	file := fs.Add("/workspace/testdata/examples/book.json", []byte("a\nb\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevError,
			Code:     BrwAssignWhileBorrowed,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "borrow begins here"},
			},
		},
		{
			Severity: SevWarning,
			Code:     LftUnusedParam,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
	}

	expected := "error BRW3004 testdata/examples/book.json:1:1 first line second\n" +
		"note BRW3004 testdata/examples/book.json:2:1 borrow begins here\n" +
		"warning LFT2003 testdata/examples/book.json:2:1 another"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortDiagnosticsEmpty(t *testing.T) {
	fs := source.NewFileSet()
	if got := FormatShortDiagnostics(nil, fs, false); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
