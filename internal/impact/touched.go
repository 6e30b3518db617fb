// Package impact is the change-scoped and reverse-dependency impact
// analyzer (spec §4.3): for a changed file it extracts touched methods,
// runs the five-tier (plus optional AST) caller-detection cascade
// against dependent files, extracts HTTP endpoints from routing
// annotations, and performs the bounded transitive BFS that discovers
// endpoints reachable through intermediate classes.
package impact

import (
	"github.com/sindudeva/revguard/internal/scanner"
)

// TouchedMethods returns the names of method spans in content whose
// source range intersects changedLines (spec §4.3.1). Control-flow
// keywords are already excluded by scanner.MethodSpans.
func TouchedMethods(content string, changedLines map[int]struct{}) []string {
	spans := scanner.MethodSpans(content)
	var names []string
	for _, span := range spans {
		if spanIntersectsLines(content, span, changedLines) {
			names = append(names, span.Name)
		}
	}
	return names
}

func spanIntersectsLines(content string, span scanner.MethodSpan, changedLines map[int]struct{}) bool {
	startLine := scanner.LineOf(content, span.Start)
	endLine := scanner.LineOf(content, span.EndExclusive-1)
	for line := range changedLines {
		if line >= startLine && line <= endLine {
			return true
		}
	}
	return false
}
