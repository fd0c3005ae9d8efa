package suite

import (
	"encoding/json"
	"io"
	"time"
)

// ExampleReport is one example's row in the JSON report.
type ExampleReport struct {
	File     string   `json:"file"`
	Expect   string   `json:"expect"`
	Valid    bool     `json:"valid"`
	Kinds    []string `json:"kinds,omitempty"`
	Passed   bool     `json:"passed"`
	Cached   bool     `json:"cached,omitempty"`
	Mismatch string   `json:"mismatch,omitempty"`
	Short    string   `json:"short,omitempty"`
	Elapsed  string   `json:"elapsed"`
}

// Report is the machine-readable shape of a finished run.
type Report struct {
	RunID    string          `json:"run_id"`
	Suite    string          `json:"suite"`
	Started  time.Time       `json:"started"`
	Elapsed  string          `json:"elapsed"`
	Passed   bool            `json:"passed"`
	Failed   int             `json:"failed"`
	Total    int             `json:"total"`
	Examples []ExampleReport `json:"examples"`
}

// BuildReport flattens a run result for serialization.
func BuildReport(r *Result) Report {
	rep := Report{
		RunID:    r.RunID,
		Suite:    r.Suite,
		Started:  r.Started,
		Elapsed:  r.Elapsed.String(),
		Passed:   r.Passed(),
		Failed:   r.Failed(),
		Total:    len(r.Outcomes),
		Examples: make([]ExampleReport, len(r.Outcomes)),
	}
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		row := ExampleReport{
			File:     o.Example.File,
			Expect:   o.Example.Expect.String(),
			Valid:    o.Valid,
			Passed:   o.Passed(),
			Cached:   o.Cached,
			Mismatch: o.Mismatch,
			Short:    o.Short,
			Elapsed:  o.Elapsed.String(),
		}
		for _, k := range o.Kinds {
			row.Kinds = append(row.Kinds, k.String())
		}
		rep.Examples[i] = row
	}
	return rep
}

// WriteReport renders the report as indented JSON.
func WriteReport(w io.Writer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(r))
}
