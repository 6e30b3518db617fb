package rules

import (
	"regexp"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	boxedCompareRe     = regexp.MustCompile(`\b(\w+)\s*==\s*(\w+)\b`)
	hardcodedCredRe    = regexp.MustCompile(`(?i)\b(password|secret|apikey|api_key)\s*=\s*"[^"]+"`)
	todoFixmeRe        = regexp.MustCompile(`(?://|/\*)\s*(TODO|FIXME)\b`)
	whileTrueRe        = regexp.MustCompile(`\bwhile\s*\(\s*true\s*\)\s*\{`)
	legacyDateRe       = regexp.MustCompile(`\bnew\s+(java\.util\.Date|Date)\s*\(`)
	rawCollectionDeclRe = regexp.MustCompile(`\b(ArrayList|HashMap|HashSet|LinkedList|TreeMap|TreeSet)\s+\w+\s*=`)
	immutableStaticRe  = regexp.MustCompile(`\bCollections\s*\.\s*(EMPTY_LIST|EMPTY_MAP|EMPTY_SET)\b`)
	doubleBraceInitRe  = regexp.MustCompile(`\bnew\s+\w+(?:<[^>]*>)?\s*\(\s*\)\s*\{\{`)
	mathRandomRe       = regexp.MustCompile(`\bMath\s*\.\s*random\s*\(\s*\)`)
	instanceofCastRe   = regexp.MustCompile(`\bif\s*\(\s*(\w+)\s+instanceof\s+(\w+)\s*\)`)
	stringEqualityRe   = regexp.MustCompile(`"\s*(?:==|!=)\s*\w+|\w+\s*(?:==|!=)\s*"`)
	magicNumberRe      = regexp.MustCompile(`[^.\w](\d{2,})[^.\w]`)
)

func init() {
	register(Rule{Code: "CQ001", Family: model.CodeQuality, Check: checkBoxedEqualsCompare})
	register(Rule{Code: "CQ002", Family: model.CodeQuality, Check: checkHardcodedCredentials})
	register(Rule{Code: "CQ003", Family: model.CodeQuality, Check: checkTodoFixme})
	register(Rule{Code: "CQ004", Family: model.CodeQuality, Check: checkEqualsHashCodeAsymmetry})
	register(Rule{Code: "CQ005", Family: model.CodeQuality, Check: checkMagicNumbers})
	register(Rule{Code: "CQ006", Family: model.CodeQuality, Check: checkRepeatedDomainLiteral})
	register(Rule{Code: "CQ007", Family: model.CodeQuality, Check: checkLiteralEqualsOnNonLiteralReceiver})
	register(Rule{Code: "CQ008", Family: model.CodeQuality, Check: checkWhileTrueWithoutExit})
	register(Rule{Code: "CQ009", Family: model.CodeQuality, Check: checkDeepNesting})
	register(Rule{Code: "CQ010", Family: model.CodeQuality, Check: checkLegacyDateType})
	register(Rule{Code: "CQ011", Family: model.CodeQuality, Check: checkRawCollectionConstructor})
	register(Rule{Code: "CQ012", Family: model.CodeQuality, Check: checkMutableEmptyCollectionConstant})
	register(Rule{Code: "CQ013", Family: model.CodeQuality, Check: checkDoubleBraceInit})
	register(Rule{Code: "CQ014", Family: model.CodeQuality, Check: checkGlobalMathRandom})
	register(Rule{Code: "CQ015", Family: model.CodeQuality, Check: checkInstanceofCastPair})
	register(Rule{Code: "CQ016", Family: model.CodeQuality, Check: checkStringIdentityEquality})
}

// checkBoxedEqualsCompare flags "==" comparison between two variables
// declared with boxed numeric/Boolean/Character types, which compares
// references rather than values outside the cached [-128,127] range.
func checkBoxedEqualsCompare(ctx *Context) []model.Finding {
	var findings []model.Finding
	boxedVars := collectBoxedVarNames(ctx.Content)
	if len(boxedVars) == 0 {
		return nil
	}
	masked := scanner.Mask(ctx.Content)
	for _, loc := range boxedCompareRe.FindAllStringSubmatchIndex(masked, -1) {
		lhs := masked[loc[2]:loc[3]]
		rhs := masked[loc[4]:loc[5]]
		if !boxedVars[lhs] && !boxedVars[rhs] {
			continue
		}
		if lhs == "null" || rhs == "null" {
			continue
		}
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.CodeQuality,
			"CQ001", "== between boxed types compares references, not values"))
	}
	return findings
}

var boxedDeclRe = regexp.MustCompile(`\b(?:Integer|Long|Short|Byte|Character|Boolean|Double|Float)\s+(\w+)\s*[=;]`)

func collectBoxedVarNames(content string) map[string]bool {
	names := make(map[string]bool)
	masked := scanner.Mask(content)
	for _, m := range boxedDeclRe.FindAllStringSubmatch(masked, -1) {
		names[m[1]] = true
	}
	return names
}

func checkHardcodedCredentials(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range rawLineMatches(ctx.Content, hardcodedCredRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.CodeQuality,
			"CQ002", "Hardcoded credential literal belongs in externalized configuration/secrets"))
	}
	return findings
}

func checkTodoFixme(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range rawLineMatches(ctx.Content, todoFixmeRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.CodeQuality,
			"CQ003", "TODO/FIXME comment left in changed code"))
	}
	return findings
}

// checkEqualsHashCodeAsymmetry flags a class that overrides equals()
// without also overriding hashCode(), or vice versa.
func checkEqualsHashCodeAsymmetry(ctx *Context) []model.Finding {
	hasEquals := regexp.MustCompile(`\bpublic\s+boolean\s+equals\s*\(\s*Object\s+\w+\s*\)`).MatchString(ctx.Content)
	hasHashCode := regexp.MustCompile(`\bpublic\s+int\s+hashCode\s*\(\s*\)`).MatchString(ctx.Content)
	if hasEquals == hasHashCode {
		return nil
	}
	spans := scanner.MethodSpans(ctx.Content)
	var anchorLine int
	for _, s := range spans {
		if s.Name == "equals" || s.Name == "hashCode" {
			anchorLine = scanner.LineOf(ctx.Content, s.Start)
			break
		}
	}
	if anchorLine == 0 || !InScope(anchorLine, ctx.ChangedLines) {
		return nil
	}
	missing := "hashCode()"
	if !hasEquals {
		missing = "equals()"
	}
	return []model.Finding{finding(ctx.File, anchorLine, model.ShouldFix, model.CodeQuality,
		"CQ004", "Class overrides one of equals()/hashCode() without the other ("+missing+" missing)")}
}

func checkMagicNumbers(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range magicNumberRe.FindAllStringSubmatchIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[2])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		if isDeclaredConstantContext(ctx.Lines, line) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ005", "Magic number should be a named constant"))
	}
	return findings
}

func isDeclaredConstantContext(lines []string, line int) bool {
	if line-1 < 0 || line-1 >= len(lines) {
		return false
	}
	trimmed := strings.TrimSpace(lines[line-1])
	return strings.Contains(trimmed, "static final") || strings.Contains(trimmed, "private static")
}

// checkRepeatedDomainLiteral flags a string literal that appears two or
// more times across the file, a sign it should be a named constant.
func checkRepeatedDomainLiteral(ctx *Context) []model.Finding {
	masked := scanner.Mask(ctx.Content)
	literalRe := regexp.MustCompile(`"([A-Za-z][\w .\-/]{2,40})"`)
	counts := make(map[string]int)
	firstLine := make(map[string]int)
	for _, m := range literalRe.FindAllStringSubmatchIndex(masked, -1) {
		lit := masked[m[2]:m[3]]
		counts[lit]++
		line := scanner.LineOf(ctx.Content, m[0])
		if firstLine[lit] == 0 || line < firstLine[lit] {
			firstLine[lit] = line
		}
	}
	var findings []model.Finding
	for lit, count := range counts {
		if count < 2 {
			continue
		}
		line := firstLine[lit]
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ006", "String literal \""+lit+"\" repeated across the file; extract a named constant"))
	}
	return findings
}

var literalDotEqualsRe = regexp.MustCompile(`(\w+)\s*\.\s*equals\s*\(\s*"`)

// checkLiteralEqualsOnNonLiteralReceiver flags `variable.equals("literal")`,
// suggesting the safer `"literal".equals(variable)` form that avoids NPE
// when variable is null.
func checkLiteralEqualsOnNonLiteralReceiver(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, m := range literalDotEqualsRe.FindAllStringSubmatchIndex(masked, -1) {
		receiver := masked[m[2]:m[3]]
		if receiver == "this" {
			continue
		}
		line := scanner.LineOf(ctx.Content, m[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, findingWithFix(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ007", receiver+".equals(\"literal\") NPEs when "+receiver+" is null",
			"", "Reverse to \"literal\".equals("+receiver+") to avoid the NPE"))
	}
	return findings
}

var loopOrBreakReturnThrowRe = regexp.MustCompile(`\b(break|return|throw)\b`)

// checkWhileTrueWithoutExit flags while(true) loops whose body contains
// no break/return/throw anywhere within it, an infinite loop.
func checkWhileTrueWithoutExit(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range whileTrueRe.FindAllStringIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		openBrace := loc[1] - 1
		closeBrace := scanner.FindMatchingBrace(ctx.Content, openBrace)
		if closeBrace == -1 {
			continue
		}
		body := masked[openBrace:closeBrace]
		if loopOrBreakReturnThrowRe.MatchString(body) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.CodeQuality,
			"CQ008", "while(true) loop has no break/return/throw; it never exits"))
	}
	return findings
}

// checkDeepNesting flags a line whose leading-brace nesting depth (from
// the enclosing method's opening brace) exceeds four levels.
func checkDeepNesting(ctx *Context) []model.Finding {
	var findings []model.Finding
	spans := scanner.MethodSpans(ctx.Content)
	for _, span := range spans {
		startLine := scanner.LineOf(ctx.Content, span.Start)
		endLine := scanner.LineOf(ctx.Content, span.EndExclusive-1)
		depth := 0
		reported := false
		for i := startLine; i <= endLine && i <= len(ctx.Lines); i++ {
			trimmed := strings.TrimSpace(ctx.Lines[i-1])
			opens := strings.Count(trimmed, "{")
			closes := strings.Count(trimmed, "}")
			depth += opens - closes
			if depth >= 5 && !reported && InScope(i, ctx.ChangedLines) {
				findings = append(findings, finding(ctx.File, i, model.Consider, model.CodeQuality,
					"CQ009", "Deeply nested block (5+ levels); consider extracting a method"))
				reported = true
			}
		}
	}
	return findings
}

func checkLegacyDateType(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, legacyDateRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, findingWithFix(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ010", "java.util.Date is mutable and timezone-fragile",
			"", "Prefer java.time.Instant/LocalDateTime/ZonedDateTime"))
	}
	return findings
}

func checkRawCollectionConstructor(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range rawCollectionDeclRe.FindAllStringIndex(masked, -1) {
		snippet := masked[loc[0]:min(len(masked), loc[1]+60)]
		if strings.Contains(snippet, "<") {
			continue // generic type argument present
		}
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ011", "Raw collection type without a generic argument loses compile-time type safety"))
	}
	return findings
}

func checkMutableEmptyCollectionConstant(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, immutableStaticRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ012", "Collections.EMPTY_LIST/EMPTY_MAP/EMPTY_SET is raw-typed; prefer Collections.emptyList()/emptyMap()/emptySet()"))
	}
	return findings
}

func checkDoubleBraceInit(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, doubleBraceInitRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ013", "Double-brace initialization creates an anonymous subclass per use; prefer List.of()/Map.of() or a builder"))
	}
	return findings
}

func checkGlobalMathRandom(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, mathRandomRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.CodeQuality,
			"CQ014", "Math.random() contends on a single shared seed; prefer ThreadLocalRandom"))
	}
	return findings
}

// checkInstanceofCastPair flags "if (x instanceof T)" followed by an
// explicit "(T) x" cast nearby, suggested only when the target source
// level is 16+ (pattern-matching instanceof available).
func checkInstanceofCastPair(ctx *Context) []model.Finding {
	if ctx.Config == nil || ctx.Config.SourceVersion < 16 {
		return nil
	}
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, m := range instanceofCastRe.FindAllStringSubmatchIndex(masked, -1) {
		varName := masked[m[2]:m[3]]
		typeName := masked[m[4]:m[5]]
		line := scanner.LineOf(ctx.Content, m[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		window := linesInRange(ctx.Lines, line, line+3)
		castRe := regexp.MustCompile(`\(\s*` + regexp.QuoteMeta(typeName) + `\s*\)\s*` + regexp.QuoteMeta(varName) + `\b`)
		if !castRe.MatchString(window) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.CodeQuality,
			"CQ015", "instanceof followed by an explicit cast could use pattern-matching instanceof"))
	}
	return findings
}

func checkStringIdentityEquality(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, stringEqualityRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.CodeQuality,
			"CQ016", "String compared with ==/!= compares references, not contents; use .equals()"))
	}
	return findings
}
