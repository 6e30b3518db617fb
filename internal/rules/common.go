package rules

import (
	"regexp"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

// maskedLineMatches returns the 1-based line number of every match of
// pattern against content's masked (string/comment-blind) form, so
// literal text never triggers a structural rule.
func maskedLineMatches(content string, pattern *regexp.Regexp) []int {
	masked := scanner.Mask(content)
	var lines []int
	for _, loc := range pattern.FindAllStringIndex(masked, -1) {
		lines = append(lines, scanner.LineOf(content, loc[0]))
	}
	return lines
}

// rawLineMatches is like maskedLineMatches but searches raw content,
// used by rules that must see inside string/comment text (secrets in
// log literals, TODO/FIXME comments).
func rawLineMatches(content string, pattern *regexp.Regexp) []int {
	var lines []int
	for _, loc := range pattern.FindAllStringIndex(content, -1) {
		lines = append(lines, scanner.LineOf(content, loc[0]))
	}
	return lines
}

func finding(file string, line int, sev model.Severity, cat model.Category, code, message string) model.Finding {
	return model.Finding{
		Severity: sev,
		Category: cat,
		File:     file,
		Line:     line,
		Code:     code,
		Message:  message,
	}
}

func findingWithFix(file string, line int, sev model.Severity, cat model.Category, code, message, explanation, suggestedFix string) model.Finding {
	f := finding(file, line, sev, cat, code, message)
	f.Explanation = explanation
	f.SuggestedFix = suggestedFix
	return f
}

// enclosingSpan returns the method span (if any) whose range contains
// the given 1-based line.
func enclosingSpan(content string, spans []scanner.MethodSpan, line int) (scanner.MethodSpan, bool) {
	for _, s := range spans {
		start := scanner.LineOf(content, s.Start)
		end := scanner.LineOf(content, s.EndExclusive-1)
		if line >= start && line <= end {
			return s, true
		}
	}
	return scanner.MethodSpan{}, false
}
