package rules

import (
	"github.com/sindudeva/revguard/internal/scanner"
)

// InScope reports whether line falls within one line of any entry in
// changedLines, the default ±1 tolerance for off-by-one diff artifacts.
func InScope(line int, changedLines map[int]struct{}) bool {
	for _, l := range [3]int{line - 1, line, line + 1} {
		if _, ok := changedLines[l]; ok {
			return true
		}
	}
	return false
}

// ExpandToMethodScope returns every line of every method span that
// intersects changedLines, the wider scope logging-family rules use so a
// secret logged two lines below the actual diff hunk still gets flagged.
func ExpandToMethodScope(content string, changedLines map[int]struct{}) map[int]struct{} {
	expanded := make(map[int]struct{})
	for _, span := range scanner.MethodSpans(content) {
		start := scanner.LineOf(content, span.Start)
		end := scanner.LineOf(content, span.EndExclusive-1)

		touched := false
		for l := start; l <= end; l++ {
			if _, ok := changedLines[l]; ok {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}
		for l := start; l <= end; l++ {
			expanded[l] = struct{}{}
		}
	}
	return expanded
}
