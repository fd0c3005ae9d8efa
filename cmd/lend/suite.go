package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lend/internal/driver"
	"lend/internal/suite"
)

var suiteCmd = &cobra.Command{
	Use:   "suite [flags] <directory>",
	Short: "Run a manifest-described example suite",
	Long:  `Run every example listed in the directory's lend.toml and compare actual verdicts against the manifest's expectations`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSuite,
}

func init() {
	suiteCmd.Flags().String("report", "", "write a JSON run report to the given path")
	suiteCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
	suiteCmd.Flags().Bool("watch", false, "re-run the suite when documents change")
	suiteCmd.Flags().Bool("disk-cache", false, "cache verdicts on disk keyed by document digest")
	suiteCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

func runSuite(cmd *cobra.Command, args []string) error {
	dir := args[0]

	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return fmt.Errorf("failed to get report flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
	}
	useDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	opts := suite.RunOptions{
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
	}
	if useDiskCache {
		cache, err := driver.OpenDiskCache("lend")
		if err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
		opts.Cache = cache
	}

	runOnce := func() (*suite.Result, error) {
		m, err := suite.LoadManifest(dir)
		if err != nil {
			return nil, err
		}
		var res *suite.Result
		if shouldUseTUI(mode) {
			res, err = runSuiteWithUI(cmd.Context(), m, opts)
		} else {
			res, err = suite.Run(cmd.Context(), m, opts)
		}
		if err != nil {
			return nil, err
		}
		printSuiteSummary(res, quiet)
		if reportPath != "" {
			if err := writeSuiteReport(reportPath, res); err != nil {
				return res, err
			}
		}
		return res, nil
	}

	if watch {
		// В watch-режиме провалы не завершают процесс
		var mu sync.Mutex
		rerun := func() {
			mu.Lock()
			defer mu.Unlock()
			if _, err := runOnce(); err != nil {
				fmt.Fprintf(os.Stderr, "suite: %v\n", err)
			}
		}
		rerun()
		return watchSuite(cmd.Context(), dir, 300*time.Millisecond, rerun)
	}

	res, err := runOnce()
	if err != nil {
		return err
	}
	if !res.Passed() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - failures already printed
	}
	return nil
}

func printSuiteSummary(res *suite.Result, quiet bool) {
	passStyle := color.New(color.FgGreen, color.Bold)
	failStyle := color.New(color.FgRed, color.Bold)

	for i := range res.Outcomes {
		o := &res.Outcomes[i]
		if o.Passed() {
			if !quiet {
				cached := ""
				if o.Cached {
					cached = " (cached)"
				}
				fmt.Fprintf(os.Stdout, "  %s %s%s\n", passStyle.Sprint("PASS"), o.Example.File, cached)
			}
			continue
		}
		fmt.Fprintf(os.Stdout, "  %s %s: %s\n", failStyle.Sprint("FAIL"), o.Example.File, o.Mismatch)
		if o.Short != "" {
			fmt.Fprint(os.Stdout, o.Short)
		}
	}

	failed := res.Failed()
	verdict := passStyle.Sprint("passed")
	if failed > 0 {
		verdict = failStyle.Sprintf("failed (%d)", failed)
	}
	fmt.Fprintf(os.Stdout, "suite %q: %d example(s), %s in %s\n",
		res.Suite, len(res.Outcomes), verdict, res.Elapsed.Round(time.Millisecond))
}

func writeSuiteReport(path string, res *suite.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := suite.WriteReport(f, res); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
