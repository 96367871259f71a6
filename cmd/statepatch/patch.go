package main

import (
	"github.com/spf13/cobra"

	"statepatch/internal/driver"
)

var patchCmd = &cobra.Command{
	Use:   "patch [flags] <file|directory|glob>...",
	Short: "Rewrite literal returns to merge the in-scope state variable",
	Long: `Scan the given files for return statements that build a mapping literal,
resolve which state variable is live at each site, and rewrite the return to
spread that variable ahead of the literal's own keys. Returns that already
merge a known state variable are left alone, so repeated runs are no-ops.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPatch,
}

func init() {
	addEngineFlags(patchCmd)
}

func runPatch(cmd *cobra.Command, args []string) error {
	return runEngine(cmd, args, driver.ModePatch)
}
