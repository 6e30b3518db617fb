package rules

import (
	"regexp"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	transactionalRe     = regexp.MustCompile(`@Transactional\b`)
	asyncRe             = regexp.MustCompile(`@Async\b`)
	cacheableRe         = regexp.MustCompile(`@Cacheable\b(\([^)]*\))?`)
	scheduledRe         = regexp.MustCompile(`@Scheduled\s*\(([^)]*)\)`)
	requestBodyRe       = regexp.MustCompile(`@RequestBody\b`)
	valueAnnotationRe   = regexp.MustCompile(`@Value\s*\(\s*"([^"]*)"\s*\)`)
	configPropsRe       = regexp.MustCompile(`@ConfigurationProperties\b`)
	corsOriginStarRe    = regexp.MustCompile(`@CrossOrigin\s*\([^)]*origins\s*=\s*"\*"`)
	bareCorsRe          = regexp.MustCompile(`@CrossOrigin\b(\s*\(\s*\))?`)
	hardcodedURLRe      = regexp.MustCompile(`"https?://[^"]+"`)
	newRestTemplateRe   = regexp.MustCompile(`\bnew\s+RestTemplate\s*\(`)
	repoFindInLoopHint  = regexp.MustCompile(`\brepository\w*\s*\.\s*find\w*\s*\(`)
	fieldInjectionRe    = regexp.MustCompile(`@Autowired\s*\n\s*(?:private|protected)\s+\w[\w<>, ]*\s+\w+\s*;`)
	lifecycleOnStaticRe = regexp.MustCompile(`@(?:PostConstruct|PreDestroy)\s*\n\s*(?:public|private|protected)?\s*static\b`)
	responseEntityAnyRe = regexp.MustCompile(`ResponseEntity\s*<\s*\?\s*>`)
	jsonIgnoreRe        = regexp.MustCompile(`@JsonIgnore\b`)
	sensitiveFieldRe    = regexp.MustCompile(`\b[A-Z][\w<>,]*\s+\w*(?i:password|ssn|secret|creditCard)\w*\s*;`)
)

func init() {
	register(Rule{Code: "FW001", Family: model.FrameworkIdiom, Check: checkTransactionalOnPrivate})
	register(Rule{Code: "FW002", Family: model.FrameworkIdiom, Check: checkRequestBodyWithoutValid})
	register(Rule{Code: "FW003", Family: model.FrameworkIdiom, Check: checkFieldInjection})
	register(Rule{Code: "FW004", Family: model.FrameworkIdiom, Check: checkHardcodedURL})
	register(Rule{Code: "FW005", Family: model.FrameworkIdiom, Check: checkRepositoryFindInLoop})
	register(Rule{Code: "FW006", Family: model.FrameworkIdiom, Check: checkConfigPropertiesWithoutValidated})
	register(Rule{Code: "FW007", Family: model.FrameworkIdiom, Check: checkValueWithoutDefault})
	register(Rule{Code: "FW008", Family: model.FrameworkIdiom, Check: checkValueReferencingSecret})
	register(Rule{Code: "FW009", Family: model.FrameworkIdiom, Check: checkCacheableWithoutKey})
	register(Rule{Code: "FW010", Family: model.FrameworkIdiom, Check: checkInlineRestClientConstruction})
	register(Rule{Code: "FW011", Family: model.FrameworkIdiom, Check: checkScheduledRawMillis})
	register(Rule{Code: "FW012", Family: model.FrameworkIdiom, Check: checkCorsStarOrigin})
	register(Rule{Code: "FW013", Family: model.FrameworkIdiom, Check: checkBareCors})
	register(Rule{Code: "FW014", Family: model.FrameworkIdiom, Check: checkAsyncOrCacheableOnPrivate})
	register(Rule{Code: "FW015", Family: model.FrameworkIdiom, Check: checkLifecycleOnStatic})
	register(Rule{Code: "FW016", Family: model.FrameworkIdiom, Check: checkSelfInvocationTransactional})
	register(Rule{Code: "FW017", Family: model.FrameworkIdiom, Check: checkReadOnlyTransactionalSuggestion})
	register(Rule{Code: "FW018", Family: model.FrameworkIdiom, Check: checkWildcardResponseType})
	register(Rule{Code: "FW019", Family: model.FrameworkIdiom, Check: checkSensitiveFieldWithoutJSONIgnore})
}

// methodIsPrivate reports whether span's declaration header contains the
// "private" modifier.
func methodIsPrivate(content string, span scanner.MethodSpan) bool {
	braceIdx := strings.IndexByte(content[span.Start:], '{')
	if braceIdx == -1 {
		return false
	}
	header := content[span.Start : span.Start+braceIdx]
	return regexp.MustCompile(`\bprivate\b`).MatchString(header)
}

func methodIsStatic(content string, span scanner.MethodSpan) bool {
	braceIdx := strings.IndexByte(content[span.Start:], '{')
	if braceIdx == -1 {
		return false
	}
	header := content[span.Start : span.Start+braceIdx]
	return regexp.MustCompile(`\bstatic\b`).MatchString(header)
}

func checkTransactionalOnPrivate(ctx *Context) []model.Finding {
	var findings []model.Finding
	spans := scanner.MethodSpans(ctx.Content)
	for _, span := range spans {
		if !methodIsPrivate(ctx.Content, span) {
			continue
		}
		start, end := span.Start, methodHeaderEnd(ctx.Content, span)
		if !annotationPresentBefore(ctx.Content, transactionalRe, start, end) {
			continue
		}
		line := scanner.LineOf(ctx.Content, span.Start)
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.FrameworkIdiom,
			"FW001", "@Transactional on a private method is silently ignored by the proxy"))
	}
	return findings
}

// methodHeaderEnd returns the offset of the method's opening brace.
func methodHeaderEnd(content string, span scanner.MethodSpan) int {
	idx := strings.IndexByte(content[span.Start:], '{')
	if idx == -1 {
		return span.Start
	}
	return span.Start + idx
}

// annotationPresentBefore checks whether pattern matches somewhere in the
// backscanned annotation block immediately preceding a method header.
func annotationPresentBefore(content string, pattern *regexp.Regexp, declStart, headerEnd int) bool {
	lines := strings.Split(content, "\n")
	declLine := scanner.LineOf(content, declStart) - 1
	start := scanner.BackscanAnnotationBlock(lines, declLine)
	block := strings.Join(lines[start:declLine+1], "\n")
	return pattern.MatchString(block)
}

func checkRequestBodyWithoutValid(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, requestBodyRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		windowStart := line - 1
		windowEnd := line + 1
		if windowStart < 1 {
			windowStart = 1
		}
		window := linesInRange(ctx.Lines, windowStart, windowEnd)
		if strings.Contains(window, "@Valid") || strings.Contains(window, "@Validated") {
			continue
		}
		sev := model.ShouldFix
		if ctx.AC != nil && ctx.AC.IsController && ctx.Config != nil && ctx.Config.StrictFramework {
			sev = model.MustFix
		}
		findings = append(findings, finding(ctx.File, line, sev, model.FrameworkIdiom,
			"FW002", "@RequestBody parameter without @Valid/@Validated skips bean validation"))
	}
	return findings
}

func linesInRange(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func checkFieldInjection(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, fieldInjectionRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.FrameworkIdiom,
			"FW003", "Field injection is harder to test than constructor injection"))
	}
	return findings
}

func checkHardcodedURL(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range rawLineMatches(ctx.Content, hardcodedURLRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.FrameworkIdiom,
			"FW004", "Hardcoded URL should be externalized to configuration"))
	}
	return findings
}

func checkRepositoryFindInLoop(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, repoFindInLoopHint) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		if !withinLoop(ctx.Lines, line) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.FrameworkIdiom,
			"FW005", "Repository lookup inside a loop is an N+1 query pattern"))
	}
	return findings
}

func checkConfigPropertiesWithoutValidated(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, configPropsRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		window := linesInRange(ctx.Lines, line-2, line+2)
		if strings.Contains(window, "@Validated") {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.FrameworkIdiom,
			"FW006", "@ConfigurationProperties without @Validated skips constraint validation"))
	}
	return findings
}

func checkValueWithoutDefault(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, loc := range valueAnnotationRe.FindAllStringSubmatchIndex(ctx.Content, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		expr := ctx.Content[loc[2]:loc[3]]
		if strings.Contains(expr, ":") {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.FrameworkIdiom,
			"FW007", "@Value without a default risks startup failure when the property is absent"))
	}
	return findings
}

func checkValueReferencingSecret(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, m := range valueAnnotationRe.FindAllStringSubmatchIndex(ctx.Content, -1) {
		line := scanner.LineOf(ctx.Content, m[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		expr := strings.ToLower(ctx.Content[m[2]:m[3]])
		for _, s := range secretSubstrings {
			if strings.Contains(expr, s) {
				findings = append(findings, finding(ctx.File, line, model.MustFix, model.FrameworkIdiom,
					"FW008", "@Value references a secret-shaped property key directly"))
				break
			}
		}
	}
	return findings
}

func checkCacheableWithoutKey(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range cacheableRe.FindAllStringSubmatchIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		args := ""
		if loc[2] != -1 {
			args = masked[loc[2]:loc[3]]
		}
		if strings.Contains(args, "key") {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.ShouldFix, model.FrameworkIdiom,
			"FW009", "@Cacheable without an explicit key risks cache collisions across overloaded signatures"))
	}
	return findings
}

func checkInlineRestClientConstruction(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, newRestTemplateRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.FrameworkIdiom,
			"FW010", "Inline RestTemplate construction bypasses shared timeout/interceptor configuration"))
	}
	return findings
}

func checkScheduledRawMillis(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range scheduledRe.FindAllStringSubmatchIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		args := masked[loc[2]:loc[3]]
		if regexp.MustCompile(`\b(fixedRate|fixedDelay|initialDelay)\s*=\s*\d+\b`).MatchString(args) {
			findings = append(findings, finding(ctx.File, line, model.Consider, model.FrameworkIdiom,
				"FW011", "@Scheduled with a raw millisecond literal should use a named duration/property"))
		}
	}
	return findings
}

func checkCorsStarOrigin(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range rawLineMatches(ctx.Content, corsOriginStarRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.FrameworkIdiom,
			"FW012", "CORS wildcard origin '*' allows any site to call this endpoint"))
	}
	return findings
}

func checkBareCors(ctx *Context) []model.Finding {
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range bareCorsRe.FindAllStringIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		if corsOriginStarRe.MatchString(ctx.Content[loc[0]:min(len(ctx.Content), loc[0]+200)]) {
			continue // covered by FW012
		}
		sev := model.ShouldFix
		if ctx.Config != nil && ctx.Config.StrictFramework {
			sev = model.MustFix
		}
		findings = append(findings, finding(ctx.File, line, sev, model.FrameworkIdiom,
			"FW013", "@CrossOrigin without an explicit origins list defaults to allowing all origins"))
	}
	return findings
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func checkAsyncOrCacheableOnPrivate(ctx *Context) []model.Finding {
	var findings []model.Finding
	spans := scanner.MethodSpans(ctx.Content)
	for _, span := range spans {
		if !methodIsPrivate(ctx.Content, span) {
			continue
		}
		if !annotationPresentBefore(ctx.Content, asyncRe, span.Start, methodHeaderEnd(ctx.Content, span)) &&
			!annotationPresentBefore(ctx.Content, cacheableRe, span.Start, methodHeaderEnd(ctx.Content, span)) {
			continue
		}
		line := scanner.LineOf(ctx.Content, span.Start)
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.FrameworkIdiom,
			"FW014", "@Async/@Cacheable on a private method is silently ignored by the proxy"))
	}
	return findings
}

func checkLifecycleOnStatic(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, lifecycleOnStaticRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.FrameworkIdiom,
			"FW015", "@PostConstruct/@PreDestroy on a static method never runs"))
	}
	return findings
}

// checkSelfInvocationTransactional flags a @Transactional method called
// via "this." or a bare unqualified call from another method in the same
// class, which bypasses the Spring AOP proxy entirely.
func checkSelfInvocationTransactional(ctx *Context) []model.Finding {
	var findings []model.Finding
	spans := scanner.MethodSpans(ctx.Content)
	transactionalMethods := make(map[string]bool)
	for _, span := range spans {
		if annotationPresentBefore(ctx.Content, transactionalRe, span.Start, methodHeaderEnd(ctx.Content, span)) {
			transactionalMethods[span.Name] = true
		}
	}
	if len(transactionalMethods) == 0 {
		return nil
	}

	masked := scanner.Mask(ctx.Content)
	for name := range transactionalMethods {
		selfCallRe := regexp.MustCompile(`\bthis\s*\.\s*` + regexp.QuoteMeta(name) + `\s*\(|(?:^|[^.\w])` + regexp.QuoteMeta(name) + `\s*\(`)
		for _, loc := range selfCallRe.FindAllStringIndex(masked, -1) {
			callLine := scanner.LineOf(ctx.Content, loc[0])
			callerSpan, ok := enclosingSpan(ctx.Content, spans, callLine)
			if !ok || callerSpan.Name == name {
				continue
			}
			if !InScope(callLine, ctx.ChangedLines) {
				continue
			}
			findings = append(findings, finding(ctx.File, callLine, model.MustFix, model.FrameworkIdiom,
				"FW016", "Self-invocation of a @Transactional method bypasses the proxy"))
		}
	}
	return findings
}

var queryNamedMethodRe = regexp.MustCompile(`^(find|get|list|search|query|fetch|count)[A-Z]`)

// checkReadOnlyTransactionalSuggestion suggests readOnly=true for
// @Transactional service methods whose name reads as a query, when the
// annotation doesn't already specify readOnly.
func checkReadOnlyTransactionalSuggestion(ctx *Context) []model.Finding {
	if ctx.AC == nil || !ctx.AC.IsService {
		return nil
	}
	var findings []model.Finding
	spans := scanner.MethodSpans(ctx.Content)
	for _, span := range spans {
		if !queryNamedMethodRe.MatchString(span.Name) {
			continue
		}
		lines := strings.Split(ctx.Content, "\n")
		declLine := scanner.LineOf(ctx.Content, span.Start) - 1
		blockStart := scanner.BackscanAnnotationBlock(lines, declLine)
		block := strings.Join(lines[blockStart:declLine+1], "\n")
		if !transactionalRe.MatchString(block) {
			continue
		}
		if strings.Contains(block, "readOnly") {
			continue
		}
		line := scanner.LineOf(ctx.Content, span.Start)
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.FrameworkIdiom,
			"FW017", "Query-named transactional method could use @Transactional(readOnly = true)"))
	}
	return findings
}

func checkWildcardResponseType(ctx *Context) []model.Finding {
	var findings []model.Finding
	for _, line := range maskedLineMatches(ctx.Content, responseEntityAnyRe) {
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		sev := model.Consider
		if ctx.Config != nil && ctx.Config.StrictFramework {
			sev = model.ShouldFix
		}
		findings = append(findings, finding(ctx.File, line, sev, model.FrameworkIdiom,
			"FW018", "ResponseEntity<?> hides the actual response shape from API consumers"))
	}
	return findings
}

func checkSensitiveFieldWithoutJSONIgnore(ctx *Context) []model.Finding {
	if ctx.AC == nil || !ctx.AC.IsEntity {
		return nil
	}
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range sensitiveFieldRe.FindAllStringIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		window := linesInRange(ctx.Lines, line-2, line)
		if jsonIgnoreRe.MatchString(window) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.MustFix, model.FrameworkIdiom,
			"FW019", "Sensitive entity field is serializable without @JsonIgnore"))
	}
	return findings
}
