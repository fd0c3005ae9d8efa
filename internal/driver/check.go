package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"lend/internal/checker"
	"lend/internal/diag"
	"lend/internal/observ"
	"lend/internal/program"
	"lend/internal/source"
)

// Options configures file runs. The zero value is usable.
type Options struct {
	// MaxDiagnostics bounds each file's bag; zero means the checker default.
	MaxDiagnostics int
	// BaseDir, when set, makes relative path rendering stable.
	BaseDir string
	// Timings enables the per-phase timer and the ObsTimings diagnostic.
	Timings bool
	// Jobs caps directory fan-out; zero means GOMAXPROCS.
	Jobs int
	// Sink receives progress events, may be nil.
	Sink ProgressSink
}

// FileResult is the outcome of checking one description document. Each run
// owns its FileSet, so results from parallel runs never share state.
type FileResult struct {
	Path    string
	FileSet *source.FileSet
	Bag     *diag.Bag
	Result  *checker.Result // nil when the document never decoded
	Timing  *observ.Report
}

// Valid reports whether the document decoded and passed every check.
func (r *FileResult) Valid() bool {
	return r != nil && r.Result != nil && r.Result.Valid()
}

// Kinds returns the distinct finding kinds in source order, for manifest
// assertions and cache entries.
func (r *FileResult) Kinds() []diag.Kind {
	if r == nil || r.Bag == nil {
		return nil
	}
	seen := make(map[diag.Kind]bool)
	var out []diag.Kind
	for _, d := range r.Bag.Items() {
		if d.Severity != diag.SevError {
			continue
		}
		k := d.Code.Kind()
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// CheckFile decodes path and runs the full pipeline over it. Load and
// decode failures become IO diagnostics in the bag instead of bare errors,
// so directory runs keep going and the caller renders everything the same
// way.
func CheckFile(path string, opts Options) *FileResult {
	start := time.Now()
	emit(opts.Sink, Event{File: path, Stage: StageDecode, Status: StatusWorking})

	fset := source.NewFileSet()
	if opts.BaseDir != "" {
		fset.SetBaseDir(opts.BaseDir)
	}
	out := &FileResult{Path: path, FileSet: fset}

	prog, err := program.DecodeFile(fset, path)
	if err != nil {
		bag := diag.NewBag(checker.DefaultMaxDiagnostics)
		code := diag.IODecodeError
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			code = diag.IOLoadError
		}
		bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     code,
			Message:  err.Error(),
		})
		out.Bag = bag
		emit(opts.Sink, Event{File: path, Stage: StageDecode, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return out
	}
	emit(opts.Sink, Event{File: path, Stage: StageDecode, Status: StatusDone, Elapsed: time.Since(start)})
	emit(opts.Sink, Event{File: path, Stage: StageCheck, Status: StatusWorking})

	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	result := checker.Check(prog, checker.Options{
		MaxDiagnostics: opts.MaxDiagnostics,
		Timer:          timer,
	})
	out.Result = result
	out.Bag = result.Bag

	if opts.Timings {
		report := timer.Report()
		out.Timing = &report
		notes := make([]diag.Note, 0, len(report.Phases))
		for _, phase := range report.Phases {
			msg := fmt.Sprintf("%s: %.2f ms", phase.Name, phase.DurationMS)
			if phase.Note != "" {
				msg += " (" + phase.Note + ")"
			}
			notes = append(notes, diag.Note{Msg: msg})
		}
		result.Bag.Add(diag.Diagnostic{
			Severity: diag.SevInfo,
			Code:     diag.ObsTimings,
			Message:  fmt.Sprintf("checked in %.2f ms", report.TotalMS),
			Notes:    notes,
		})
	}

	status := StatusDone
	if !out.Valid() {
		status = StatusInvalid
	}
	emit(opts.Sink, Event{File: path, Stage: StageCheck, Status: status, Elapsed: time.Since(start)})
	return out
}
