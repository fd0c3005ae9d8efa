package suite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lend/internal/diag"
	"lend/internal/driver"
)

// RunOptions configures one suite execution.
type RunOptions struct {
	// Jobs caps the fan-out; zero means GOMAXPROCS.
	Jobs int
	// Sink receives per-file progress events, may be nil.
	Sink driver.ProgressSink
	// Cache, when set, skips re-checking documents whose bytes were seen
	// before. Verdicts are keyed by content digest, so edits invalidate
	// naturally.
	Cache *driver.DiskCache
	// MaxDiagnostics bounds each file's bag.
	MaxDiagnostics int
}

// Outcome is one example's verdict against its manifest entry.
type Outcome struct {
	Example Example
	// Valid is the actual verdict.
	Valid bool
	// Kinds are the distinct finding kinds actually reported.
	Kinds []diag.Kind
	// Short is the rendered short-format output, empty for clean runs.
	Short string
	// Cached marks verdicts served from the disk cache.
	Cached bool
	// Mismatch explains a failed assertion, empty when the entry passed.
	Mismatch string
	// Elapsed is the wall time spent on this example.
	Elapsed time.Duration
}

// Passed reports whether the example met its manifest entry.
func (o *Outcome) Passed() bool {
	return o.Mismatch == ""
}

// Result is one finished suite run.
type Result struct {
	// RunID uniquely names the run in reports and logs.
	RunID    string
	Suite    string
	Started  time.Time
	Elapsed  time.Duration
	Outcomes []Outcome
}

// Passed reports whether every example met its entry.
func (r *Result) Passed() bool {
	for i := range r.Outcomes {
		if !r.Outcomes[i].Passed() {
			return false
		}
	}
	return true
}

// Failed counts the examples that missed their entry.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Outcomes {
		if !r.Outcomes[i].Passed() {
			n++
		}
	}
	return n
}

// Run checks every manifest example and compares verdicts. Outcomes keep
// manifest order; examples run in parallel.
func Run(ctx context.Context, m *Manifest, opts RunOptions) (*Result, error) {
	result := &Result{
		RunID:    uuid.NewString(),
		Suite:    m.Name,
		Started:  time.Now(),
		Outcomes: make([]Outcome, len(m.Examples)),
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(m.Examples)))

	for i, ex := range m.Examples {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			result.Outcomes[i] = runExample(m.Dir, ex, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	result.Elapsed = time.Since(result.Started)
	return result, nil
}

func runExample(dir string, ex Example, opts RunOptions) Outcome {
	start := time.Now()
	out := Outcome{Example: ex}
	path := filepath.Join(dir, ex.File)

	var key driver.Digest
	if opts.Cache != nil {
		content, err := os.ReadFile(path)
		if err == nil {
			key = driver.DigestOf(content)
			var payload driver.DiskPayload
			if hit, err := opts.Cache.Get(key, &payload); err == nil && hit {
				out.Valid = payload.Valid
				out.Kinds = payload.Verdict()
				out.Short = payload.Short
				out.Cached = true
				out.Mismatch = compare(ex, out.Valid, out.Kinds)
				out.Elapsed = time.Since(start)
				return out
			}
		}
	}

	res := driver.CheckFile(path, driver.Options{
		MaxDiagnostics: opts.MaxDiagnostics,
		BaseDir:        dir,
		Sink:           opts.Sink,
	})
	out.Valid = res.Valid()
	out.Kinds = res.Kinds()
	if res.Bag != nil && res.Bag.Len() > 0 {
		out.Short = diag.FormatShortDiagnostics(res.Bag.Items(), res.FileSet, false)
	}
	out.Mismatch = compare(ex, out.Valid, out.Kinds)
	out.Elapsed = time.Since(start)

	if opts.Cache != nil && !key.IsZero() {
		kinds := make([]string, len(out.Kinds))
		for i, k := range out.Kinds {
			kinds[i] = k.String()
		}
		// Cache write failures only cost the next run time.
		_ = opts.Cache.Put(key, &driver.DiskPayload{
			Name:   ex.File,
			Valid:  out.Valid,
			Kinds:  kinds,
			Short:  out.Short,
		})
	}
	return out
}

// compare checks the actual verdict against the manifest entry.
func compare(ex Example, valid bool, kinds []diag.Kind) string {
	if ex.Expect == ExpectValid && !valid {
		return fmt.Sprintf("expected valid, got findings %v", kinds)
	}
	if ex.Expect == ExpectInvalid && valid {
		return "expected invalid, got a clean run"
	}
	if len(ex.Kinds) == 0 {
		return ""
	}
	want := append([]diag.Kind(nil), ex.Kinds...)
	got := append([]diag.Kind(nil), kinds...)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(want) != len(got) {
		return fmt.Sprintf("expected kinds %v, got %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Sprintf("expected kinds %v, got %v", want, got)
		}
	}
	return ""
}
