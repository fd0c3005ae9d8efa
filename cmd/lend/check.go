package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lend/internal/diag"
	"lend/internal/diagfmt"
	"lend/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file|directory>",
	Short: "Validate lifetimes and borrows in a description document",
	Long:  `Validate a single description document or every document within a directory. The exit code is non-zero when any document has findings`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("dump-scopes", false, "dump the resolved scope tree after checking")
}

// runCheck executes the "check" command: it runs the validator over the
// provided path, renders findings in the chosen format, and exits non-zero
// when any document is invalid.
func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]

	// Получаем флаги
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	dumpScopes, err := cmd.Flags().GetBool("dump-scopes")
	if err != nil {
		return fmt.Errorf("failed to get dump-scopes flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	switch format {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	prettyOpts := diagfmt.PrettyOpts{
		Color:     useColor,
		Context:   2,
		PathMode:  pathMode,
		ShowNotes: withNotes,
	}
	jsonOpts := diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         pathMode,
		IncludeNotes:     withNotes,
	}
	opts := driver.Options{
		MaxDiagnostics: maxDiagnostics,
		Timings:        showTimings,
	}

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	renderFile := func(res *driver.FileResult) error {
		switch format {
		case "pretty":
			diagfmt.Pretty(os.Stdout, res.Bag, res.FileSet, prettyOpts)
		case "short":
			output := diag.FormatShortDiagnostics(res.Bag.Items(), res.FileSet, withNotes)
			if output != "" {
				fmt.Fprintln(os.Stdout, output)
			}
		case "json":
			if err := diagfmt.JSON(os.Stdout, res.Bag, res.FileSet, jsonOpts); err != nil {
				return fmt.Errorf("failed to format diagnostics: %w", err)
			}
		}
		if dumpScopes && res.Result != nil && res.Result.Tree != nil {
			fmt.Fprintln(os.Stdout, "\n== SCOPES ==")
			diagfmt.ScopeTree(os.Stdout, res.Result.Program, res.Result.Tree, res.FileSet)
		}
		return nil
	}

	invalid := 0
	var renderErr error
	if !st.IsDir() {
		res := driver.CheckFile(path, opts)
		renderErr = renderFile(res)
		if !res.Valid() {
			invalid = 1
		}
	} else {
		jobs, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
		opts.Jobs = jobs

		results, err := driver.CheckDir(cmd.Context(), path, opts)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}

		switch format {
		case "json":
			output := make(map[string]diagfmt.DiagnosticsOutput, len(results))
			for _, r := range results {
				output[r.Path] = diagfmt.BuildDiagnosticsOutput(r.Bag, r.FileSet, jsonOpts)
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(output); err != nil {
				renderErr = fmt.Errorf("failed to encode diagnostics output: %w", err)
			}
		default:
			for idx, r := range results {
				if r.Bag.Len() == 0 && !dumpScopes {
					continue
				}
				if format == "pretty" {
					if idx > 0 {
						fmt.Fprintln(os.Stdout)
					}
					fmt.Fprintf(os.Stdout, "== %s ==\n", r.Path)
				}
				if err := renderFile(r); err != nil {
					renderErr = err
					break
				}
			}
		}

		for _, r := range results {
			if !r.Valid() {
				invalid++
			}
		}
		if !quiet && format != "json" {
			fmt.Fprintf(os.Stdout, "checked %d document(s), %d invalid\n", len(results), invalid)
		}
	}

	if renderErr != nil {
		return renderErr
	}
	if invalid > 0 {
		// Suppress cobra usage output on findings
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - findings already printed
	}
	return nil
}
