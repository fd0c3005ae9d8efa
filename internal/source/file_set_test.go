package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	// Добавляем файл первый раз
	id1 := fs.Add("book.json", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	latestID, exists := fs.GetLatest("book.json")
	if !exists {
		t.Error("Expected file to exist after Add")
	}
	if latestID != id1 {
		t.Errorf("Expected latest ID to be %d, got %d", id1, latestID)
	}

	// Тот же путь с новым содержимым — новый ID, индекс смотрит на последний
	id2 := fs.Add("book.json", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists = fs.GetLatest("book.json")
	if !exists {
		t.Error("Expected file to exist after second Add")
	}
	if latestID != id2 {
		t.Errorf("Expected latest ID to be %d, got %d", id2, latestID)
	}

	file1 := fs.Get(id1)
	if string(file1.Content) != "hello world" {
		t.Errorf("Expected first file content to be 'hello world', got '%s'", string(file1.Content))
	}

	file2 := fs.Get(id2)
	if string(file2.Content) != "hello universe" {
		t.Errorf("Expected second file content to be 'hello universe', got '%s'", string(file2.Content))
	}
}

func TestAddVirtualResolve(t *testing.T) {
	fs := NewFileSet()
	src := "fn main() {\n    let x = 5;\n}\n"
	id := fs.AddVirtual("book.json:source", []byte(src))

	f := fs.Get(id)
	if f.Flags&FileVirtual == 0 {
		t.Error("Expected virtual flag on embedded source")
	}

	// "let" на второй строке, колонка 5
	off := uint32(16)
	start, _ := fs.Resolve(Span{File: id, Start: off, End: off + 3})
	if start.Line != 2 || start.Col != 5 {
		t.Errorf("Resolve() = %d:%d, want 2:5", start.Line, start.Col)
	}

	if got := fs.Snippet(Span{File: id, Start: off, End: off + 3}); got != "let" {
		t.Errorf("Snippet() = %q, want %q", got, "let")
	}
}

func TestSnippetClampsOutOfRange(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("tiny", []byte("abc"))

	if got := fs.Snippet(Span{File: id, Start: 2, End: 100}); got != "c" {
		t.Errorf("Snippet() = %q, want %q", got, "c")
	}
	if got := fs.Snippet(Span{File: id, Start: 50, End: 60}); got != "" {
		t.Errorf("Snippet() = %q, want empty", got)
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "prog.json")

	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("{\r\n \"name\": \"x\"\r\n}\r\n")...)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	f := fs.Get(id)
	if f.Flags&FileHadBOM == 0 {
		t.Error("Expected FileHadBOM flag")
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("Expected FileNormalizedCRLF flag")
	}
	if string(f.Content) != "{\n \"name\": \"x\"\n}\n" {
		t.Errorf("unexpected normalized content: %q", string(f.Content))
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("src", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	tests := []struct {
		line     uint32
		expected string
	}{
		{0, ""},
		{1, "first"},
		{2, "second"},
		{3, "third"},
		{4, ""},
	}
	for _, tt := range tests {
		if got := f.GetLine(tt.line); got != tt.expected {
			t.Errorf("GetLine(%d) = %q, want %q", tt.line, got, tt.expected)
		}
	}
}
