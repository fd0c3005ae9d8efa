package diagfmt

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrettyHeaderAndCaret(t *testing.T) {
	bag, fs := demoBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	out := buf.String()

	if !strings.Contains(out, "book.json#source:3:1: ERROR BRW3004: cannot assign to 'name' while it is borrowed") {
		t.Fatalf("missing header line:\n%s", out)
	}
	if !strings.Contains(out, "name = \"Hook\"") {
		t.Errorf("missing source line:\n%s", out)
	}
	if !strings.Contains(out, "^~~~") {
		t.Errorf("missing caret underline:\n%s", out)
	}
	if !strings.Contains(out, "note: borrow taken here") {
		t.Errorf("missing note:\n%s", out)
	}
}

func TestPrettyWithoutNotes(t *testing.T) {
	bag, fs := demoBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") {
		t.Errorf("notes rendered without ShowNotes:\n%s", buf.String())
	}
}

func TestPrettyPlainHasNoEscapes(t *testing.T) {
	bag, fs := demoBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("color escapes in plain output:\n%q", buf.String())
	}
}

func TestPrettyContextLines(t *testing.T) {
	bag, fs := demoBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 2})
	out := buf.String()
	if !strings.Contains(out, "let r = &name") {
		t.Errorf("context line missing:\n%s", out)
	}
	if !strings.Contains(out, "let mut name") {
		t.Errorf("second context line missing:\n%s", out)
	}
}
