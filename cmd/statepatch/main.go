package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"statepatch/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "statepatch",
	Short: "Patch mapping-literal returns into state-merge form",
	Long: `statepatch scans source trees for return statements that build a fresh
mapping literal, infers the state variable in scope, and rewrites them to merge
that state. Every modified file gets a backup first.`,
}

// main registers subcommands and persistent flags, then executes the root
// command. A command error exits with status code 1.
func main() {
	// Версия для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(guardCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("jobs", 0, "number of files processed in parallel (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics collected per file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
