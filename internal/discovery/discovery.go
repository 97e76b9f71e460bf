// Package discovery resolves the sweep logs a batch run should process.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RMahshie/tscmscan/pkg/models"
)

// DefaultFolderPattern matches the folders written by the sweep capture script
const DefaultFolderPattern = "tscm_test_*"

// CandidateSuffix marks candidate tables written next to their inputs
const CandidateSuffix = "_candidates.csv"

var inputExtensions = []string{".csv", ".csv.gz", ".csv.zst"}

// LatestFolder returns the lexicographically greatest directory under root
// matching pattern. Capture folders embed a sortable timestamp, so this is
// the most recent sweep.
func LatestFolder(root, pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultFolderPattern
	}
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil {
		return "", fmt.Errorf("invalid folder pattern %q: %w", pattern, err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err == nil && info.IsDir() {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: no folder matching %q in %s", models.ErrNotFound, pattern, root)
}

// ListInputs returns the sweep logs in folder in sorted order, skipping
// candidate tables from earlier runs
func ListInputs(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: folder %s", models.ErrNotFound, folder)
		}
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !IsInput(e.Name()) {
			continue
		}
		inputs = append(inputs, filepath.Join(folder, e.Name()))
	}
	sort.Strings(inputs)

	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no CSV files to analyze in %s", models.ErrNotFound, folder)
	}
	return inputs, nil
}

// IsInput reports whether name looks like a sweep log
func IsInput(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, CandidateSuffix) {
		return false
	}
	for _, ext := range inputExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// BaseName strips the directory and sweep log extension from path
func BaseName(path string) string {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for i := len(inputExtensions) - 1; i >= 0; i-- {
		if strings.HasSuffix(lower, inputExtensions[i]) {
			return base[:len(base)-len(inputExtensions[i])]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
