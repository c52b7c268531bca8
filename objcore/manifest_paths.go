package objcore

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const manifestExt = ".yaml"

func validateManifestPaths(paths []string) error {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("objcore: manifest path cannot be empty")
		}
		stat, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("objcore: invalid manifest path %q: %w", path, err)
		}
		if !stat.IsDir() {
			return fmt.Errorf("objcore: manifest path %q is not a directory", path)
		}
	}
	return nil
}

// normalizeManifestName turns a require entry into a clean relative path
// with an extension. Absolute names and names that climb out of the search
// roots are refused.
func normalizeManifestName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("require: manifest name must be non-empty")
	}
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	if filepath.Ext(trimmed) == "" {
		trimmed += manifestExt
	}

	clean := filepath.Clean(filepath.FromSlash(trimmed))
	if clean == "." {
		return "", fmt.Errorf("require: manifest name %q resolves to current directory", name)
	}
	if filepath.IsAbs(clean) || strings.HasPrefix(trimmed, "/") {
		return "", fmt.Errorf("require: manifest name %q must be relative", name)
	}
	if containsPathTraversal(clean) {
		return "", fmt.Errorf("require: manifest name %q escapes search paths", name)
	}
	return clean, nil
}

func containsPathTraversal(cleanPath string) bool {
	normalized := filepath.ToSlash(filepath.Clean(cleanPath))
	return slices.Contains(strings.Split(normalized, "/"), "..")
}

// manifestDisplayName renders a manifest key the way cycles and reports
// show it: base name without the extension.
func manifestDisplayName(key string) string {
	return strings.TrimSuffix(filepath.Base(key), filepath.Ext(key))
}

func manifestCycleFromStack(stack []string, next string) ([]string, bool) {
	for idx, key := range stack {
		if key == next {
			cycle := append(append([]string(nil), stack[idx:]...), next)
			return cycle, true
		}
	}
	return nil, false
}

func formatManifestCycle(cycle []string) string {
	parts := make([]string, len(cycle))
	for idx, key := range cycle {
		parts[idx] = manifestDisplayName(key)
	}
	return strings.Join(parts, " -> ")
}
