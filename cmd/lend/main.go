package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lend/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "lend",
	Short: "Static lifetime and borrow validator",
	Long:  `Lend validates program descriptions: it builds scope trees, resolves lifetime parameters, and rejects conflicting borrows and dangling references before anything runs`,
}

// main wires subcommands and persistent flags, then executes the root
// command. Command execution errors exit with status code 1.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	// Добавляем команды
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(suiteCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show per-phase timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 256, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
