package main

import (
	"github.com/spf13/cobra"

	"statepatch/internal/driver"
)

var guardCmd = &cobra.Command{
	Use:   "guard [flags] <file|directory|glob>...",
	Short: "Wrap state-merging returns in a definedness guard",
	Long: `Find return statements that already spread the guard variable and wrap
each in a conditional: when the variable is set, return the merge as before;
otherwise return a fixed error mapping. When the variable is never assigned in
the enclosing function, an initializer is inserted after the function header so
the guard cannot raise. Already-guarded returns are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGuard,
}

func init() {
	addEngineFlags(guardCmd)
}

func runGuard(cmd *cobra.Command, args []string) error {
	return runEngine(cmd, args, driver.ModeGuard)
}
