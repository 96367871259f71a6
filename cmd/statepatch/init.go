package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"statepatch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a statepatch.toml with the default settings",
	Long: `Create a statepatch.toml manifest in the given directory (or the current
directory). The manifest records the merge-variable priority list, the scope
window, candidate extensions, and the backup suffix. Commands discover it by
walking up from the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, config.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(config.DefaultManifest), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(os.Stdout, "Initialized statepatch config in %s\n", rel)
	fmt.Fprintf(os.Stdout, "  - %s\n", config.ManifestName)
	return nil
}
