package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statepatch/internal/config"
	"statepatch/internal/driver"
	"statepatch/internal/source"
)

// addEngineFlags registers the flags shared by the patch and guard commands.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("check", false, "report what would change without writing anything")
	cmd.Flags().String("format", "text", "report format (text|json)")
	cmd.Flags().Int("window", 0, "override the scope window (lines examined before a match)")
	cmd.Flags().BoolP("verbose", "v", false, "show per-match diagnostics and unchanged files")
	cmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
	cmd.Flags().Bool("no-cache", false, "disable the unchanged-result cache")
}

// runEngine is the shared driver for both engine variants: read flags, load
// the manifest, run, render the report, and map the outcomes to an exit
// status.
func runEngine(cmd *cobra.Command, args []string, mode driver.Mode) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	window, err := cmd.Flags().GetInt("window")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}

	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	if err := applyColorMode(colorValue); err != nil {
		return err
	}
	uiChoice, err := parseProgressMode(uiValue)
	if err != nil {
		return err
	}

	// Дальше ошибки относятся к запуску, не к флагам
	cmd.SilenceUsage = true

	manifest, found, err := config.Load(".")
	if err != nil {
		return err
	}
	if found && verbose && !quiet {
		fmt.Fprintf(os.Stderr, "using manifest %s\n", manifest.Path)
	}

	var cache *driver.ResultCache
	if !noCache && !check {
		cache, err = driver.OpenResultCache("statepatch")
		if err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "warning: result cache unavailable: %v\n", err)
			}
			cache = nil
		}
	}

	baseDir := ""
	if found {
		baseDir = manifest.Root
	}

	opts := driver.Options{
		Mode:           mode,
		Check:          check,
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Window:         window,
		BaseDir:        baseDir,
		Config:         manifest.Config,
		Cache:          cache,
	}

	useTUI := uiChoice.wantProgressUI() && format == "text" && !quiet

	var fileSet *source.FileSet
	var results []driver.FileResult
	if useTUI {
		title := mode.String()
		if check {
			title += " (check)"
		}
		fileSet, results, err = runWithUI(cmd.Context(), title, args, opts)
	} else {
		fileSet, results, err = driver.Run(cmd.Context(), args, opts)
	}
	if err != nil {
		return err
	}

	report := summarize(results)
	switch format {
	case "json":
		if err := renderJSON(cmd.OutOrStdout(), fileSet, mode, check, results, report); err != nil {
			return err
		}
	default:
		renderText(cmd.OutOrStdout(), fileSet, check, results, report, renderOptions{
			quiet:   quiet,
			verbose: verbose,
		})
	}

	if report.Errors > 0 {
		return fmt.Errorf("%d file(s) failed", report.Errors)
	}
	if check && report.Patched > 0 {
		return fmt.Errorf("check: %d file(s) would be patched", report.Patched)
	}
	return nil
}
