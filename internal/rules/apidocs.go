package rules

import (
	"regexp"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	restControllerRe  = regexp.MustCompile(`@(?:Rest)?Controller\b`)
	tagAnnotationRe    = regexp.MustCompile(`@Tag\s*\(`)
	mappingRe          = regexp.MustCompile(`@(?:Get|Post|Put|Delete|Patch|Request)Mapping\s*\(`)
	operationRe        = regexp.MustCompile(`@Operation\s*\(`)
	apiResponseRe      = regexp.MustCompile(`@ApiResponse(?:s)?\s*\(`)
	parameterAnnRe     = regexp.MustCompile(`@Parameter\s*\(`)
	pathVariableRe     = regexp.MustCompile(`@PathVariable\b`)
	requestParamRe     = regexp.MustCompile(`@RequestParam\b`)
)

func init() {
	register(Rule{Code: "AD001", Family: model.APIDocumentation, Check: checkControllerWithoutTag})
	register(Rule{Code: "AD002", Family: model.APIDocumentation, Check: checkMappingWithoutOperation})
	register(Rule{Code: "AD003", Family: model.APIDocumentation, Check: checkOperationWithoutApiResponse})
	register(Rule{Code: "AD004", Family: model.APIDocumentation, Check: checkEndpointParamWithoutParameterAnnotation})
}

// checkControllerWithoutTag flags a class annotated @RestController/
// @Controller whose annotation block doesn't also carry @Tag, which
// leaves the generated OpenAPI document without a grouping label.
func checkControllerWithoutTag(ctx *Context) []model.Finding {
	if ctx.AC == nil || !ctx.AC.IsController {
		return nil
	}
	masked := scanner.Mask(ctx.Content)
	loc := restControllerRe.FindStringIndex(masked)
	if loc == nil {
		return nil
	}
	line := scanner.LineOf(ctx.Content, loc[0])
	if !InScope(line, ctx.ChangedLines) {
		return nil
	}
	window := linesInRange(ctx.Lines, line-4, line+1)
	if tagAnnotationRe.MatchString(window) {
		return nil
	}
	return []model.Finding{finding(ctx.File, line, model.Consider, model.APIDocumentation,
		"AD001", "Controller class without @Tag leaves the endpoint group undocumented in the generated API spec")}
}

// checkMappingWithoutOperation flags a mapping-annotated handler method
// whose preceding annotation block doesn't also carry @Operation.
func checkMappingWithoutOperation(ctx *Context) []model.Finding {
	if ctx.AC == nil || !ctx.AC.IsController {
		return nil
	}
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range mappingRe.FindAllStringIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		lines := splitLines(ctx.Content)
		declIdx := line - 1
		blockStart := scanner.BackscanAnnotationBlock(lines, declIdx)
		block := joinLines(lines, blockStart, declIdx)
		if operationRe.MatchString(block) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.APIDocumentation,
			"AD002", "Mapping without @Operation leaves the endpoint undocumented in the generated API spec"))
	}
	return findings
}

// checkOperationWithoutApiResponse flags an @Operation annotation block
// that doesn't also declare @ApiResponse(s), leaving documented response
// codes absent.
func checkOperationWithoutApiResponse(ctx *Context) []model.Finding {
	if ctx.AC == nil || !ctx.AC.IsController {
		return nil
	}
	var findings []model.Finding
	masked := scanner.Mask(ctx.Content)
	for _, loc := range operationRe.FindAllStringIndex(masked, -1) {
		line := scanner.LineOf(ctx.Content, loc[0])
		if !InScope(line, ctx.ChangedLines) {
			continue
		}
		closeIdx := scanner.FindMatchingParen(masked, loc[1]-1)
		end := line
		if closeIdx != -1 {
			end = scanner.LineOf(ctx.Content, closeIdx)
		}
		window := linesInRange(ctx.Lines, line, end+6)
		if apiResponseRe.MatchString(window) {
			continue
		}
		findings = append(findings, finding(ctx.File, line, model.Consider, model.APIDocumentation,
			"AD003", "@Operation without @ApiResponse(s) leaves response codes undocumented"))
	}
	return findings
}

// checkEndpointParamWithoutParameterAnnotation flags a @PathVariable or
// @RequestParam argument inside a mapped handler whose line doesn't also
// carry a @Parameter annotation describing it for API consumers.
func checkEndpointParamWithoutParameterAnnotation(ctx *Context) []model.Finding {
	if ctx.AC == nil || !ctx.AC.IsController {
		return nil
	}
	var findings []model.Finding
	spans := scanner.MethodSpans(ctx.Content)
	masked := scanner.Mask(ctx.Content)
	for _, span := range spans {
		header := ctx.Content[span.Start:methodHeaderEnd(ctx.Content, span)]
		maskedHeader := masked[span.Start:methodHeaderEnd(ctx.Content, span)]
		hasParam := pathVariableRe.MatchString(maskedHeader) || requestParamRe.MatchString(maskedHeader)
		if !hasParam {
			continue
		}
		declLine := scanner.LineOf(ctx.Content, span.Start)
		if !InScope(declLine, ctx.ChangedLines) {
			continue
		}
		lines := splitLines(ctx.Content)
		blockStart := scanner.BackscanAnnotationBlock(lines, declLine-1)
		block := joinLines(lines, blockStart, declLine-1) + "\n" + header
		if parameterAnnRe.MatchString(block) {
			continue
		}
		findings = append(findings, finding(ctx.File, declLine, model.Consider, model.APIDocumentation,
			"AD004", "Endpoint parameter without @Parameter leaves its purpose undocumented in the generated API spec"))
	}
	return findings
}

func joinLines(lines []string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end {
		return ""
	}
	out := lines[start]
	for i := start + 1; i <= end; i++ {
		out += "\n" + lines[i]
	}
	return out
}
