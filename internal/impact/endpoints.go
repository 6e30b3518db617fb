package impact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sindudeva/revguard/internal/scanner"
)

var (
	routingAnnotationRe = regexp.MustCompile(`@(RequestMapping|GetMapping|PostMapping|PutMapping|DeleteMapping|PatchMapping)\s*(\(([^()]*)\))?`)
	pathAttrRe          = regexp.MustCompile(`(?:value|path)\s*=\s*"([^"]*)"`)
	bareStringRe        = regexp.MustCompile(`^\s*"([^"]*)"`)
	methodAttrRe        = regexp.MustCompile(`method\s*=\s*(?:RequestMethod\.|HttpMethod\.)?(\w+)`)
	slashesRe           = regexp.MustCompile(`/+`)
)

// ClassPrefix parses the class-level routing prefix: the value/path
// attribute (or bare string argument) of the last routing annotation
// found before the file's first class/interface header.
func ClassPrefix(content string) string {
	loc := classDeclarationRe.FindStringIndex(content)
	if loc == nil {
		return ""
	}
	window := content[:loc[0]]
	matches := routingAnnotationRe.FindAllStringSubmatchIndex(window, -1)
	if len(matches) == 0 {
		return ""
	}
	last := matches[len(matches)-1]
	args := ""
	if last[6] != -1 {
		args = window[last[6]:last[7]]
	}
	return pathFromArgs(args)
}

func pathFromArgs(args string) string {
	if m := pathAttrRe.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	if m := bareStringRe.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	return ""
}

func verbFor(annotationName, args string) string {
	switch annotationName {
	case "GetMapping":
		return "GET"
	case "PostMapping":
		return "POST"
	case "PutMapping":
		return "PUT"
	case "DeleteMapping":
		return "DELETE"
	case "PatchMapping":
		return "PATCH"
	case "RequestMapping":
		if m := methodAttrRe.FindStringSubmatch(args); m != nil {
			return strings.ToUpper(m[1])
		}
		return "ANY"
	default:
		return "ANY"
	}
}

type routingHit struct {
	Verb string
	Path string
}

func routingHitsInBlock(blockText string) []routingHit {
	var hits []routingHit
	for _, m := range routingAnnotationRe.FindAllStringSubmatch(blockText, -1) {
		name := m[1]
		args := m[3]
		hits = append(hits, routingHit{Verb: verbFor(name, args), Path: pathFromArgs(args)})
	}
	return hits
}

// ExtractEndpoints resolves the HTTP endpoints exposed by requestedMethods
// on a class whose routing prefix is className's enclosing routing
// annotation: for each requested method, backscans its annotation block
// and emits "ClassName.method [VERB /full/path]" for every routing
// annotation found there, prefix-joined with slashes collapsed.
func ExtractEndpoints(content, className string, requestedMethods []string) []string {
	prefix := ClassPrefix(content)
	spans := scanner.MethodSpans(content)
	lines := strings.Split(content, "\n")

	requested := make(map[string]bool, len(requestedMethods))
	for _, m := range requestedMethods {
		requested[m] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, span := range spans {
		if !requested[span.Name] {
			continue
		}
		headerLine := scanner.LineOf(content, span.Start) - 1
		start := scanner.BackscanAnnotationBlock(lines, headerLine)
		blockText := strings.Join(lines[start:headerLine+1], "\n")

		for _, hit := range routingHitsInBlock(blockText) {
			full := collapseSlashes(prefix + hit.Path)
			ep := fmt.Sprintf("%s.%s [%s %s]", className, span.Name, hit.Verb, full)
			if !seen[ep] {
				seen[ep] = true
				out = append(out, ep)
			}
		}
	}
	return out
}

func collapseSlashes(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return slashesRe.ReplaceAllString(path, "/")
}
