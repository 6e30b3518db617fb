package scanner

import "strings"

// BackscanAnnotationBlock walks upward from lines[methodHeaderIdx] (the
// line carrying the method declaration's header) collecting the
// annotation block that precedes it: lines starting with '@' and their
// continuations (lines ending in ')', ',', '=', or starting with '*', the
// shape a multi-line annotation argument list or its Javadoc takes).
//
// A standalone '}' is a hard stop — it is the previous method's closing
// brace, so nothing above it belongs to this one. Up to 5 lines that are
// neither annotations, continuations, nor empty are tolerated (comments
// sitting between annotations), after which the scan gives up and
// returns the last known annotation boundary. The whole walk is bounded
// to a 100-line window so a pathological file can't make this quadratic.
func BackscanAnnotationBlock(lines []string, methodHeaderIdx int) int {
	if methodHeaderIdx < 0 || methodHeaderIdx >= len(lines) {
		return methodHeaderIdx
	}

	const maxWindow = 100
	const maxInterruptions = 5

	start := methodHeaderIdx
	interruptions := 0
	floor := methodHeaderIdx - maxWindow
	if floor < 0 {
		floor = 0
	}

	for i := methodHeaderIdx - 1; i >= floor; i-- {
		trimmed := strings.TrimSpace(lines[i])

		if trimmed == "}" {
			break
		}

		switch {
		case strings.HasPrefix(trimmed, "@"):
			start = i
			interruptions = 0
		case isAnnotationContinuation(trimmed):
			start = i
			interruptions = 0
		case trimmed == "":
			// Blank lines don't count against the interruption budget and
			// don't extend the block by themselves.
		default:
			interruptions++
			if interruptions > maxInterruptions {
				return start
			}
		}
	}

	return start
}

// isAnnotationContinuation reports whether trimmed looks like the tail of
// a multi-line annotation: a wrapped argument list, a trailing Javadoc
// line, or an assignment inside an annotation's attribute list.
func isAnnotationContinuation(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "*") {
		return true
	}
	last := trimmed[len(trimmed)-1]
	return last == ')' || last == ',' || last == '='
}

// AnnotationNamesInBlock extracts the bare annotation names (without '@'
// or argument lists) found in lines[start:end].
func AnnotationNamesInBlock(lines []string, start, end int) []string {
	var names []string
	for i := start; i < end && i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "@") {
			continue
		}
		name := trimmed[1:]
		if idx := strings.IndexAny(name, "( \t"); idx != -1 {
			name = name[:idx]
		}
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
