package source

import (
	"testing"
)

func TestToLineCol(t *testing.T) {
	// "let a = 1;\nlet b = &a;\n{\n}\n"
	content := []byte("let a = 1;\nlet b = &a;\n{\n}\n")
	idx := buildLineIndex(content)

	tests := []struct {
		name     string
		off      uint32
		expected LineCol
	}{
		{"start of file", 0, LineCol{Line: 1, Col: 1}},
		{"mid first line", 4, LineCol{Line: 1, Col: 5}},
		{"newline itself belongs to its line", 10, LineCol{Line: 1, Col: 11}},
		{"start of second line", 11, LineCol{Line: 2, Col: 1}},
		{"borrow site", 19, LineCol{Line: 2, Col: 9}},
		{"block open", 23, LineCol{Line: 3, Col: 1}},
		{"block close", 25, LineCol{Line: 4, Col: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toLineCol(idx, tt.off)
			if got != tt.expected {
				t.Errorf("toLineCol(%d) = %+v, want %+v", tt.off, got, tt.expected)
			}
		})
	}
}

func TestToLineColSingleLine(t *testing.T) {
	got := toLineCol(nil, 7)
	if got.Line != 1 || got.Col != 8 {
		t.Errorf("toLineCol on empty index = %+v, want 1:8", got)
	}
}

func TestNormalizeCRLF(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc\n"))
	if !changed {
		t.Error("expected CRLF normalization to report a change")
	}
	if string(out) != "a\nb\rc\n" {
		t.Errorf("normalizeCRLF = %q, want %q", out, "a\nb\rc\n")
	}

	out, changed = normalizeCRLF([]byte("plain\n"))
	if changed {
		t.Error("expected no change without \\r")
	}
	if string(out) != "plain\n" {
		t.Errorf("normalizeCRLF = %q, want %q", out, "plain\n")
	}
}
