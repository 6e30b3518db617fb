package rules

import (
	"regexp"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	emptyCatchRe       = regexp.MustCompile(`\bcatch\s*\([^)]*\)\s*\{\s*\}`)
	catchThrowableRe   = regexp.MustCompile(`\bcatch\s*\(\s*(?:final\s+)?Throwable\s+\w+\s*\)`)
	catchExceptionRe   = regexp.MustCompile(`\bcatch\s*\(\s*(?:final\s+)?Exception\s+\w+\s*\)`)
	catchInterruptedRe = regexp.MustCompile(`\bcatch\s*\(\s*(?:final\s+)?InterruptedException\s+(\w+)\s*\)\s*\{`)
	restoreInterruptRe = regexp.MustCompile(`Thread\s*\.\s*currentThread\s*\(\s*\)\s*\.\s*interrupt\s*\(\s*\)`)
)

func init() {
	register(Rule{Code: "EH001", Family: model.ExceptionHandling, Check: checkEmptyCatch})
	register(Rule{Code: "EH002", Family: model.ExceptionHandling, Check: checkCatchThrowable})
	register(Rule{Code: "EH003", Family: model.ExceptionHandling, Check: checkCatchGenericException})
	register(Rule{Code: "EH004", Family: model.ExceptionHandling, Check: checkSwallowedInterrupt})
}

func checkEmptyCatch(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, emptyCatchRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.ExceptionHandling,
			"EH001", "Empty catch block silently swallows the exception"))
	}
	return findings
}

func checkCatchThrowable(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, catchThrowableRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.ExceptionHandling,
			"EH002", "Catching Throwable also catches Error and JVM-fatal conditions"))
	}
	return findings
}

func checkCatchGenericException(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, catchExceptionRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.ExceptionHandling,
			"EH003", "Catching the generic Exception type masks the specific failure mode"))
	}
	return findings
}

// checkSwallowedInterrupt flags a caught InterruptedException whose
// catch body doesn't restore the interrupt flag within five lines,
// which silently breaks downstream cancellation/interruption handling.
func checkSwallowedInterrupt(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range catchInterruptedRe.FindAllStringIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		if restoresInterruptWithin(ctx.Lines, line, 5) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.ExceptionHandling,
			"EH004", "Caught InterruptedException without restoring the thread's interrupt status"))
	}
	return findings
}

func restoresInterruptWithin(lines []string, catchLine, window int) bool {
	start := catchLine - 1
	end := start + window
	if end > len(lines) {
		end = len(lines)
	}
	for i := start; i < end; i++ {
		if restoreInterruptRe.MatchString(lines[i]) {
			return true
		}
	}
	return false
}
