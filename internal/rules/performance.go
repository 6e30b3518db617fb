package rules

import (
	"regexp"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	orElseCallRe      = regexp.MustCompile(`\.\s*orElse\s*\(\s*[a-zA-Z_]\w*\s*\.\s*[a-zA-Z_]\w*\s*\(`)
	stringPlusAssignRe = regexp.MustCompile(`\b(\w+)\s*\+=\s*`)
	stringConcatRe    = regexp.MustCompile(`\b(\w+)\s*=\s*(\w+)\s*\+\s*`)
	threadSleepRe     = regexp.MustCompile(`Thread\s*\.\s*sleep\s*\(\s*(\d+)\s*\)`)
)

func init() {
	register(Rule{Code: "PF001", Family: model.Performance, Check: checkOrElseExpensiveCall})
	register(Rule{Code: "PF002", Family: model.Performance, Check: checkStringConcatInLoop})
	register(Rule{Code: "PF003", Family: model.Performance, Check: checkThreadSleepLiteral})
}

// checkOrElseExpensiveCall flags .orElse(someCall(...)) where the
// fallback is always evaluated eagerly even when the Optional is
// present, unlike .orElseGet(...).
func checkOrElseExpensiveCall(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, orElseCallRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, findingWithFix(ctx.File, line, model.ShouldFix, model.Performance,
			"PF001", ".orElse(expensiveCall()) always evaluates the fallback eagerly",
			"", "Use .orElseGet(() -> expensiveCall()) to defer evaluation"))
	}
	return findings
}

// checkStringConcatInLoop flags a string-typed variable rebuilt with
// "x = x + ..." or "x += ..." inside a loop, which is O(n^2) without a
// StringBuilder.
func checkStringConcatInLoop(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	seen := make(map[int]bool)
	for _, re := range []*regexp.Regexp{stringPlusAssignRe, stringConcatRe} {
		for _, loc := range re.FindAllStringSubmatchIndex(masked, -1) {
			if len(loc) >= 6 && masked[loc[2]:loc[3]] != masked[loc[4]:loc[5]] {
				continue // "x = y + ..." does not rebuild x
			}
			line := scanner.LineOf(ctx.Content, loc[0])
			if seen[line] || !InScope(line, ctx.ChangedLines) {
				continue
			}
			if !withinLoop(ctx.Lines, line) {
				continue
			}
			seen[line] = true
			findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.Performance,
				"PF002", "String concatenation inside a loop is quadratic; use StringBuilder"))
		}
	}
	return findings
}

// checkThreadSleepLiteral flags Thread.sleep(<literal>), CONSIDER by
// default, escalating the message when the literal has six or more
// digits (100000 ms and up), out of a sane retry/backoff range.
func checkThreadSleepLiteral(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range threadSleepRe.FindAllStringSubmatchIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		millis := masked[loc[2]:loc[3]]
		msg := "Thread.sleep() with a literal duration is brittle; prefer a configurable backoff"
		if len(millis) > 5 { // > ~99999ms as a rough "looks too long" heuristic
			msg = "Thread.sleep() with an unusually large literal duration likely indicates a misplaced unit"
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.Performance,
			"PF003", msg))
	}
	return findings
}
