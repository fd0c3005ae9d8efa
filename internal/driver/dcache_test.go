package driver

import (
	"testing"

	"lend/internal/diag"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := DigestOf([]byte("document body"))
	payload := &DiskPayload{
		Schema: diskCacheSchemaVersion,
		Name:   "circle_broken",
		Valid:  false,
		Kinds:  []string{"arity-mismatch"},
		Short:  "error LFT2001 circle_broken.json:1:1 impl supplies 2 lifetime parameters\n",
	}
	if err := cache.Put(key, payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got DiskPayload
	hit, err := cache.Get(key, &got)
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if got.Name != payload.Name || got.Valid != payload.Valid || got.Short != payload.Short {
		t.Fatalf("payload mismatch: %+v", got)
	}
	verdict := got.Verdict()
	if len(verdict) != 1 || verdict[0] != diag.KindArityMismatch {
		t.Fatalf("verdict = %v", verdict)
	}
}

func TestDiskCacheMiss(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var got DiskPayload
	hit, err := cache.Get(DigestOf([]byte("never stored")), &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Fatal("miss reported as hit")
	}
}

func TestDiskCacheSchemaMismatchIsMiss(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := DigestOf([]byte("old entry"))
	if err := cache.Put(key, &DiskPayload{Schema: diskCacheSchemaVersion + 1, Name: "stale"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got DiskPayload
	hit, err := cache.Get(key, &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Fatal("stale schema reported as hit")
	}
}

func TestDigestStability(t *testing.T) {
	a := DigestOf([]byte("same"))
	b := DigestOf([]byte("same"))
	if a != b {
		t.Fatal("identical content hashed differently")
	}
	if a.IsZero() {
		t.Fatal("digest of content is zero")
	}
	if !(Digest{}).IsZero() {
		t.Fatal("zero digest not recognized")
	}
}
