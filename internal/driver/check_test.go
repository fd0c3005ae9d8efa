package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lend/internal/diag"
	"lend/internal/testkit"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, doc := range testkit.Corpus() {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}

func TestCheckFileValidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.json")
	if err := os.WriteFile(path, []byte(testkit.BookDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	res := CheckFile(path, Options{})
	if !res.Valid() {
		t.Fatalf("book rejected: %v", res.Bag.Items())
	}
	if len(res.Kinds()) != 0 {
		t.Fatalf("valid document has finding kinds: %v", res.Kinds())
	}
}

func TestCheckFileInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circle_broken.json")
	if err := os.WriteFile(path, []byte(testkit.CircleBrokenDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	res := CheckFile(path, Options{})
	if res.Valid() {
		t.Fatal("broken circle accepted")
	}
	kinds := res.Kinds()
	if len(kinds) != 1 || kinds[0] != diag.KindArityMismatch {
		t.Fatalf("kinds = %v, want [arity-mismatch]", kinds)
	}
}

func TestCheckFileMissing(t *testing.T) {
	res := CheckFile(filepath.Join(t.TempDir(), "absent.json"), Options{})
	if res.Valid() {
		t.Fatal("missing file reported valid")
	}
	if res.Bag.Len() != 1 || res.Bag.Items()[0].Code != diag.IOLoadError {
		t.Fatalf("want one IOLoadError, got %v", res.Bag.Items())
	}
}

func TestCheckFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := CheckFile(path, Options{})
	if res.Bag.Len() != 1 || res.Bag.Items()[0].Code != diag.IODecodeError {
		t.Fatalf("want one IODecodeError, got %v", res.Bag.Items())
	}
}

func TestCheckFileTimings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.json")
	if err := os.WriteFile(path, []byte(testkit.BookDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	res := CheckFile(path, Options{Timings: true})
	if res.Timing == nil || len(res.Timing.Phases) != 3 {
		t.Fatalf("timing report incomplete: %+v", res.Timing)
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			found = true
		}
	}
	if !found {
		t.Fatal("missing ObsTimings diagnostic")
	}
	if !res.Valid() {
		t.Fatalf("timings info flipped the verdict: %v", res.Bag.Items())
	}
}

func TestCheckDirOrderAndEvents(t *testing.T) {
	dir := writeCorpus(t)

	events := make(chan Event, 256)
	results, err := CheckDir(context.Background(), dir, Options{
		Jobs: 2,
		Sink: ChannelSink{Ch: events},
	})
	if err != nil {
		t.Fatalf("CheckDir: %v", err)
	}
	close(events)

	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	// ListDocs order is lexicographic regardless of completion order.
	wantOrder := []string{"book.json", "circle.json", "circle_broken.json"}
	for i, res := range results {
		if filepath.Base(res.Path) != wantOrder[i] {
			t.Fatalf("result %d is %s, want %s", i, filepath.Base(res.Path), wantOrder[i])
		}
	}
	if !results[0].Valid() || !results[1].Valid() || results[2].Valid() {
		t.Fatalf("verdicts wrong: book=%v circle=%v broken=%v",
			results[0].Valid(), results[1].Valid(), results[2].Valid())
	}

	done := 0
	for evt := range events {
		if evt.Stage == StageCheck && (evt.Status == StatusDone || evt.Status == StatusInvalid) {
			done++
		}
	}
	if done != 3 {
		t.Fatalf("want 3 terminal check events, got %d", done)
	}
}

func TestCheckDirEmpty(t *testing.T) {
	results, err := CheckDir(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("CheckDir: %v", err)
	}
	if results != nil {
		t.Fatalf("want no results, got %d", len(results))
	}
}

func TestCheckDirCancellation(t *testing.T) {
	dir := writeCorpus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CheckDir(ctx, dir, Options{Jobs: 1})
	if err == nil {
		t.Fatal("cancelled run returned no error")
	}
}
