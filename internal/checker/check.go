// Package checker wires the validation passes into one pipeline: scope
// tree construction, lifetime resolution, then the borrow walk. It is the
// single entry point callers use; the pass packages stay independent.
package checker

import (
	"fmt"

	"lend/internal/borrow"
	"lend/internal/diag"
	"lend/internal/lifetimes"
	"lend/internal/observ"
	"lend/internal/program"
	"lend/internal/scopes"
)

// DefaultMaxDiagnostics caps a run's diagnostic bag when the caller does
// not say otherwise.
const DefaultMaxDiagnostics = 256

// Options configures one check run.
type Options struct {
	// MaxDiagnostics bounds the bag; zero means DefaultMaxDiagnostics.
	MaxDiagnostics int
	// Timer, when set, records per-phase durations.
	Timer *observ.Timer
}

// Result carries everything one run produced. Later passes are skipped
// after a fatal structural error, so Tree, Lifetimes and Borrows may be
// nil; Bag is always populated.
type Result struct {
	Program   *program.Builder
	Tree      *scopes.Tree
	Lifetimes *lifetimes.Resolution
	Borrows   *borrow.Table
	Bag       *diag.Bag
	Fatal     error
}

// Valid reports whether the program passed every check.
func (r *Result) Valid() bool {
	return r != nil && r.Fatal == nil && !r.Bag.HasErrors()
}

// Check runs the full pipeline over one program description. Reported
// diagnostics are deduplicated by kind and primary span, then sorted into
// source order, so the output is deterministic for a given input.
func Check(prog *program.Builder, opts Options) *Result {
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiags)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	result := &Result{Program: prog, Bag: bag}

	phase := opts.Timer.Begin("scopes")
	tree, err := scopes.Build(prog, reporter)
	if err != nil {
		opts.Timer.End(phase, "aborted")
		result.Fatal = err
		bag.Sort()
		return result
	}
	result.Tree = tree
	opts.Timer.End(phase, fmt.Sprintf("%d scopes, %d bindings", tree.Scopes.Len(), tree.Bindings.Len()))

	phase = opts.Timer.Begin("lifetimes")
	result.Lifetimes = lifetimes.Resolve(prog, tree, reporter)
	opts.Timer.End(phase, fmt.Sprintf("%d constrained calls", len(result.Lifetimes.CallAliases)))

	phase = opts.Timer.Begin("borrows")
	result.Borrows = borrow.Walk(prog, tree, result.Lifetimes, reporter)
	opts.Timer.End(phase, fmt.Sprintf("%d borrows", len(result.Borrows.Infos())))

	bag.Sort()
	return result
}
