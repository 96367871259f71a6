package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CollectFiles expands the given paths and glob patterns into a sorted,
// de-duplicated list of candidate files. Directories are walked recursively
// and filtered by extension; glob patterns that match nothing contribute no
// entries and raise no error (an empty run is valid). Explicit file paths
// are taken as-is regardless of extension.
func CollectFiles(ctx context.Context, patterns []string, extensions []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if isGlob(p) {
			matched, err := filepath.Glob(p)
			if err != nil {
				return nil, err
			}
			for _, m := range matched {
				info, err := os.Stat(m)
				if err != nil || info.IsDir() {
					continue
				}
				addFile(m)
			}
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				if hasExtension(path, extensions) {
					addFile(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}

		addFile(p)
	}

	sort.Strings(files)
	return files, nil
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func hasExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, want := range extensions {
		if ext == want {
			return true
		}
	}
	return false
}
