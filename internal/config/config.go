// Package config loads the statepatch.toml manifest that tunes the patch
// engine: merge-variable priority list, scope window, candidate extensions,
// backup suffix, and guard settings. The manifest is discovered by walking
// up from the start directory; every field has a default, so running without
// a manifest is valid.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the upward search looks for.
const ManifestName = "statepatch.toml"

// Config is the full manifest.
type Config struct {
	Patch PatchConfig `toml:"patch"`
	Guard GuardConfig `toml:"guard"`
}

// PatchConfig tunes matching and scope resolution.
type PatchConfig struct {
	// MergeVariables is the priority-ordered candidate list; the last entry
	// doubles as the fallback when nothing is found in the scope window.
	MergeVariables []string `toml:"merge_variables"`
	Window         int      `toml:"window"`
	Extensions     []string `toml:"extensions"`
	BackupSuffix   string   `toml:"backup_suffix"`
}

// GuardConfig tunes the guard-synthesizing variant.
type GuardConfig struct {
	Variable    string `toml:"variable"`
	Placeholder string `toml:"placeholder"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Patch: PatchConfig{
			MergeVariables: []string{"final_state", "state"},
			Window:         20,
			Extensions:     []string{".py"},
			BackupSuffix:   ".bak",
		},
		Guard: GuardConfig{
			Variable:    "final_state",
			Placeholder: "None",
		},
	}
}

// Fallback returns the lowest-priority merge variable, used when scope
// resolution finds nothing inside the window.
func (p PatchConfig) Fallback() string {
	if len(p.MergeVariables) == 0 {
		return "state"
	}
	return p.MergeVariables[len(p.MergeVariables)-1]
}

// Fingerprint is a stable string over every setting that affects engine
// output; it keys the result cache so a config change invalidates entries.
func (c Config) Fingerprint() string {
	return fmt.Sprintf("vars=%s;window=%d;ext=%s;suffix=%s;guard=%s;placeholder=%s",
		strings.Join(c.Patch.MergeVariables, ","),
		c.Patch.Window,
		strings.Join(c.Patch.Extensions, ","),
		c.Patch.BackupSuffix,
		c.Guard.Variable,
		c.Guard.Placeholder,
	)
}

// Manifest couples a parsed config with where it was found.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load walks up from startDir looking for statepatch.toml. When none exists,
// the defaults are returned with ok=false.
func Load(startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		cfg := Default()
		return &Manifest{Config: cfg}, false, nil
	}
	cfg, err := loadFile(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, key)
	}
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if len(cfg.Patch.MergeVariables) == 0 {
		return errors.New("patch.merge_variables must not be empty")
	}
	if cfg.Patch.Window <= 0 {
		return errors.New("patch.window must be positive")
	}
	if cfg.Patch.BackupSuffix == "" {
		return errors.New("patch.backup_suffix must not be empty")
	}
	if cfg.Guard.Variable == "" {
		return errors.New("guard.variable must not be empty")
	}
	return nil
}

// DefaultManifest is the statepatch.toml written by `statepatch init`.
const DefaultManifest = `[patch]
# Priority-ordered merge candidates; the last entry is the fallback.
merge_variables = ["final_state", "state"]
# Number of preceding lines examined during scope inference.
window = 20
extensions = [".py"]
backup_suffix = ".bak"

[guard]
variable = "final_state"
placeholder = "None"
`
