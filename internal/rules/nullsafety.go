package rules

import (
	"regexp"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	optionalOfRe    = regexp.MustCompile(`\bOptional\s*\.\s*of\s*\(\s*[a-zA-Z_]\w*(?:\s*\.\s*[a-zA-Z_]\w*\s*\([^)]*\))*\s*\)`)
	chainedCallRe   = regexp.MustCompile(`\b[a-zA-Z_]\w*\s*\.\s*[a-zA-Z_]\w*\s*\([^)]*\)\s*\.\s*[a-zA-Z_]\w*\s*\(`)
	getIntLiteralRe = regexp.MustCompile(`\.\s*get\s*\(\s*\d+\s*\)`)
	bareOptionalGet = regexp.MustCompile(`\bget\s*\(\s*\)`)
)

func init() {
	register(Rule{Code: "NS001", Family: model.NullSafety, Check: checkOptionalOfNonConstant})
	register(Rule{Code: "NS002", Family: model.NullSafety, Check: checkChainedCall})
	register(Rule{Code: "NS003", Family: model.NullSafety, Check: checkGetIntLiteral})
	register(Rule{Code: "NS004", Family: model.NullSafety, Check: checkOptionalGetInLoop})
}

// checkOptionalOfNonConstant flags Optional.of(expr) where expr is not a
// string/numeric literal — a common source of unexpected NPE when the
// argument can itself be null (use Optional.ofNullable instead).
func checkOptionalOfNonConstant(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, optionalOfRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, findingWithFix(ctx.File, line, model.ShouldFix, model.NullSafety,
			"NS001", "Optional.of() with a non-constant argument can NPE if the value is null",
			"", "Use Optional.ofNullable(...) unless nullability is already excluded upstream"))
	}
	return findings
}

func checkChainedCall(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, chainedCallRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.NullSafety,
			"NS002", "Chained calls without a null check risk an NPE at an intermediate link"))
	}
	return findings
}

func checkGetIntLiteral(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, getIntLiteralRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.NullSafety,
			"NS003", ".get(<index literal>) on a collection can throw IndexOutOfBoundsException"))
	}
	return findings
}

// checkOptionalGetInLoop escalates bare Optional.get() calls to MUST_FIX
// when the call site falls inside a for/while loop, since a missing
// element there throws on every iteration rather than once.
func checkOptionalGetInLoop(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range bareOptionalGet.FindAllStringIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		sev := model.ShouldFix
		if withinLoop(ctx.Lines, line) {
			sev = model.MustFix
		}
		findings = append(findings, finding(ctx.File, line, sev, model.NullSafety,
			"NS004", "Optional.get() without isPresent()/ifPresent() guard can throw NoSuchElementException"))
	}
	return findings
}

func withinLoop(lines []string, line int) bool {
	depth := 0
	for i := line - 2; i >= 0 && i >= line-30; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if strings.Contains(trimmed, "}") {
			depth++
		}
		if (strings.HasPrefix(trimmed, "for") || strings.HasPrefix(trimmed, "while")) && depth == 0 {
			return true
		}
		if strings.Contains(trimmed, "{") {
			if depth > 0 {
				depth--
			}
		}
	}
	return false
}
