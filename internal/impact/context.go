package impact

import (
	"regexp"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	controllerAnnotations  = map[string]bool{"RestController": true, "Controller": true}
	serviceAnnotations     = map[string]bool{"Service": true}
	repositoryAnnotations  = map[string]bool{"Repository": true}
	entityAnnotations      = map[string]bool{"Entity": true, "Table": true, "Document": true}
	classDeclarationRe     = regexp.MustCompile(`\b(class|interface|enum|record)\s+\w+`)
)

// ClassAnnotations backscans the annotation block immediately preceding
// the file's first class/interface/enum/record declaration and returns
// the bare annotation names found there.
func ClassAnnotations(content string) map[string]struct{} {
	lines := strings.Split(content, "\n")
	idx := -1
	for i, l := range lines {
		if classDeclarationRe.MatchString(l) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return map[string]struct{}{}
	}
	start := scanner.BackscanAnnotationBlock(lines, idx)
	names := scanner.AnnotationNamesInBlock(lines, start, idx+1)
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func hasAny(anns map[string]struct{}, set map[string]bool) bool {
	for a := range anns {
		if set[a] {
			return true
		}
	}
	return false
}

// IsControllerAnnotations, IsServiceAnnotations, IsRepositoryAnnotations
// and IsEntityAnnotations test a class-annotation set against the
// framework-bean markers AnalysisContext's booleans are derived from.
func IsControllerAnnotations(anns map[string]struct{}) bool { return hasAny(anns, controllerAnnotations) }
func IsServiceAnnotations(anns map[string]struct{}) bool    { return hasAny(anns, serviceAnnotations) }
func IsRepositoryAnnotations(anns map[string]struct{}) bool { return hasAny(anns, repositoryAnnotations) }
func IsEntityAnnotations(anns map[string]struct{}) bool     { return hasAny(anns, entityAnnotations) }

// BuildAnalysisContext constructs the per-file AnalysisContext the Rule
// Engine gates severity on: class-level annotations, the framework-bean
// booleans derived from them, and each method span's backscanned
// annotation block.
func BuildAnalysisContext(className, content string) *model.AnalysisContext {
	ac := model.NewAnalysisContext()
	ac.ClassName = className
	ac.ClassAnnotations = ClassAnnotations(content)
	ac.IsController = IsControllerAnnotations(ac.ClassAnnotations)
	ac.IsService = IsServiceAnnotations(ac.ClassAnnotations)
	ac.IsRepository = IsRepositoryAnnotations(ac.ClassAnnotations)
	ac.IsEntity = IsEntityAnnotations(ac.ClassAnnotations)

	lines := strings.Split(content, "\n")
	for _, span := range scanner.MethodSpans(content) {
		headerLine := scanner.LineOf(content, span.Start) - 1
		start := scanner.BackscanAnnotationBlock(lines, headerLine)
		ac.MethodAnnotations[span.Name] = scanner.AnnotationNamesInBlock(lines, start, headerLine+1)
	}
	return ac
}
