// Package testlink enriches impact entries with testing status (§4.6
// steps 9-10): for each changed non-test file, find any test file whose
// base name contains the changed file's base name.
package testlink

import (
	"strings"

	"github.com/sindudeva/revguard/internal/model"
)

// Status is the per-file testing-status record.
type Status struct {
	HasTests     bool
	RelatedTests []string
}

// Resolve finds every entry in testFiles whose base name (without
// extension) contains changedBaseName (without extension).
func Resolve(changedBaseName string, testFiles []string) Status {
	stem := stripExt(changedBaseName)
	var related []string
	for _, tf := range testFiles {
		if strings.Contains(stripExt(baseName(tf)), stem) {
			related = append(related, tf)
		}
	}
	return Status{HasTests: len(related) > 0, RelatedTests: related}
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx != -1 {
		return path[idx+1:]
	}
	return path
}

func stripExt(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx != -1 {
		return name[:idx]
	}
	return name
}

// Enrich adds a "No related tests" note to entry when status reports no
// related tests, matching §4.6 step 10.
func Enrich(entry *model.ImpactEntry, status Status) {
	if !status.HasTests {
		entry.AddNote("No related tests")
	}
}
