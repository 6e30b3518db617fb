package rules

import (
	"regexp"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	secretSubstrings  = []string{"password", "token", "secret", "apikey", "api_key", "credential", "privatekey", "ssn"}
	consolePrintlnRe  = regexp.MustCompile(`\bSystem\s*\.\s*(?:out|err)\s*\.\s*print(?:ln)?\s*\(`)
	logCallLineRe     = regexp.MustCompile(`\b(?:log|logger)\s*\.\s*(trace|debug|info|warn|error|fatal)\s*\(`)
	catchParamRe      = regexp.MustCompile(`\bcatch\s*\([^)]*\s(\w+)\s*\)`)
)

func init() {
	register(Rule{Code: "LG001", Family: model.Logging, Check: checkLogSecrets})
	register(Rule{Code: "LG002", Family: model.Logging, Check: checkLogInLoop})
	register(Rule{Code: "LG003", Family: model.Logging, Check: checkConsolePrintln})
	register(Rule{Code: "LG004", Family: model.Logging, Check: checkPlaceholderMismatch})
	register(Rule{Code: "LG005", Family: model.Logging, Check: checkDuplicateLog})
}

func inLoggingScope(ctx *Context, line int) bool {
	if InScope(line, ctx.ChangedLines) {
		return true
	}
	_, ok := ctx.MethodScope[line]
	return ok
}

func logCalls(ctx *Context) []LogCall {
	return ParseLogCalls(ctx.Content, func(offset int) int { return scanner.LineOf(ctx.Content, offset) })
}

// checkLogSecrets flags a logged literal containing a secret-shaped
// substring, case-insensitively.
func checkLogSecrets(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, call := range logCalls(ctx) {
		if !call.HasLiteral || !inLoggingScope(ctx, call.Line) {
			continue
		}
		lower := strings.ToLower(call.FirstLiteral)
		for _, s := range secretSubstrings {
			if strings.Contains(lower, s) {
				findings = append(findings, finding(ctx.File, call.Line, model.MustFix, model.Logging,
					"LG001", "Log statement appears to include a secret-shaped value: "+s))
				break
			}
		}
	}
	return findings
}

func checkLogInLoop(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range rawLineMatches(ctx.Content, logCallLineRe) {
		if !inLoggingScope(ctx, line) {
			continue
		}
		if withinLoop(ctx.Lines, line) {
			findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.Logging,
				"LG002", "Log call inside a loop can flood logs under load"))
		}
	}
	return findings
}

func checkConsolePrintln(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, consolePrintlnRe) {
		if !inLoggingScope(ctx, line) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.Logging,
			"LG003", "System.out/err used instead of the configured logger"))
	}
	return findings
}

// checkPlaceholderMismatch flags a log call whose "{}" placeholder count
// doesn't match the number of variable arguments supplied.
func checkPlaceholderMismatch(ctx *Context) []model.Finding {
	var findings []model.Finding
	catchParams := make(map[string]bool)
	for _, m := range catchParamRe.FindAllStringSubmatch(scanner.Mask(ctx.Content), -1) {
		catchParams[m[1]] = true
	}
	for _, call := range logCalls(ctx) {
		if !call.HasLiteral || !inLoggingScope(ctx, call.Line) {
			continue
		}
		placeholders := call.PlaceholderCount()
		argCount := len(call.Args)
		if hasTrailingThrowable(call.Args) || (argCount > 0 && catchParams[call.Args[argCount-1]]) {
			argCount--
		}
		if placeholders != argCount {
			findings = append(findings, finding(ctx.File, call.Line, model.ShouldFix, model.Logging,
				"LG004", "Log placeholder count does not match the number of arguments"))
		}
	}
	return findings
}

func hasTrailingThrowable(args []string) bool {
	if len(args) == 0 {
		return false
	}
	last := strings.ToLower(args[len(args)-1])
	return strings.Contains(last, "exception") || strings.Contains(last, "throwable") || strings.Contains(last, "err")
}

// checkDuplicateLog flags a log call whose level + literal + arguments
// are identical to an earlier one within the same method.
func checkDuplicateLog(ctx *Context) []model.Finding {
	var findings []model.Finding
	spans := scanner.MethodSpans(ctx.Content)
	seen := make(map[string]map[string]bool)

	for _, call := range logCalls(ctx) {
		if !call.HasLiteral || !inLoggingScope(ctx, call.Line) {
			continue
		}
		span, ok := enclosingSpan(ctx.Content, spans, call.Line)
		methodKey := ""
		if ok {
			methodKey = span.Name
		}
		if seen[methodKey] == nil {
			seen[methodKey] = make(map[string]bool)
		}
		key := call.Level + "|" + call.FirstLiteral + "|" + strings.Join(call.Args, ",")
		if seen[methodKey][key] {
			findings = append(findings, finding(ctx.File, call.Line, model.Consider, model.Logging,
				"LG005", "Duplicate log call identical to an earlier one in this method"))
			continue
		}
		seen[methodKey][key] = true
	}
	return findings
}
