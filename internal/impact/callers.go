package impact

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/sindudeva/revguard/internal/astfallback"
	"github.com/sindudeva/revguard/internal/scanner"
)

// CallerTarget names the class a dependent file is being checked against:
// its simple name, fully-qualified name, and the supertype simple names
// recorded for it in the symbol index (used by the interface-typed and
// injection-based tiers, per §9 "Polymorphism").
type CallerTarget struct {
	SimpleName string
	FQN        string
	Supertypes []string
}

// CascadeOptions gates the cascade's fallback tiers. AllowBroadFallback
// enables Tier 3; the BFS disables it for controller-target edges (§9's
// asymmetry: a controller that merely injects the changed service must
// not surface just because it shares a field type). StructuralFallback
// enables the tree-sitter-backed Tier 6 when the regex tiers find
// nothing.
type CascadeOptions struct {
	AllowBroadFallback bool
	StructuralFallback bool
}

// FindCallingMethods runs the five-tier cascade (plus optional Tier 6)
// from §4.3.2 and returns the set of enclosing method names in content
// that call one of touchedMethods on an instance of target (or, when
// touchedMethods is empty, any method at all on such an instance — used
// by Tier 6 when the dependency is already confirmed and only "does it
// call anything on this" is needed).
func FindCallingMethods(content string, target CallerTarget, touchedMethods []string, opts CascadeOptions) map[string]struct{} {
	if len(touchedMethods) > 0 && !anyTouchedTokenPresent(content, touchedMethods) {
		return map[string]struct{}{}
	}

	spans := scanner.MethodSpans(content)
	instances := instanceNames(content, target)

	result := tier2QualifiedCalls(content, spans, instances, touchedMethods)

	if len(result) == 0 && opts.AllowBroadFallback {
		result = tier3BroadFallback(content, spans, touchedMethods)
	}

	if len(result) == 0 && likelyTypeReferenced(content, target) {
		result = tier4TypeAnchoredFallback(content, spans, instances, target, touchedMethods)
	}

	for name := range tier5StaticImports(content, spans, target, touchedMethods) {
		result[name] = struct{}{}
	}

	if len(result) == 0 && opts.StructuralFallback {
		typeNames := append([]string{target.SimpleName}, target.Supertypes...)
		if hits, err := astfallback.FindCallingMethods([]byte(content), typeNames, touchedMethods); err == nil {
			for name := range hits {
				result[name] = struct{}{}
			}
		}
	}

	return result
}

// --- Tier 1: instance discovery ---

var typedDeclRe = regexp.MustCompile(`\b([A-Z][\w.]*)(?:<[^>]*>)?\s+(\w+)\s*[=;,)]`)

// instanceNames enumerates candidate receiver identifiers: locals/fields
// declared with a type matching the target's simple name, FQN, or a
// supertype simple name; the synthesized lowerCamelCase form of the
// target's simple name when it appears as a bare token (covers
// framework-injected fields with no matching declaration in this file);
// and the target's own simple name (covers static calls).
func instanceNames(content string, target CallerTarget) map[string]struct{} {
	names := map[string]struct{}{target.SimpleName: {}}

	typeCandidates := map[string]bool{target.SimpleName: true}
	if target.FQN != "" {
		typeCandidates[target.FQN] = true
	}
	for _, s := range target.Supertypes {
		typeCandidates[s] = true
	}

	masked := scanner.Mask(content)
	for _, m := range typedDeclRe.FindAllStringSubmatch(masked, -1) {
		if typeCandidates[m[1]] {
			names[m[2]] = struct{}{}
		}
	}

	if camel := lowerCamel(target.SimpleName); camel != "" && tokenPresent(content, camel) {
		names[camel] = struct{}{}
	}

	return names
}

func lowerCamel(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// --- Tier 2: qualified calls ---

func tier2QualifiedCalls(content string, spans []scanner.MethodSpan, instances map[string]struct{}, touched []string) map[string]struct{} {
	result := make(map[string]struct{})
	for inst := range instances {
		for _, m := range touched {
			attributeHits(content, spans, qualifiedCallPattern(inst, m), result)
			attributeHits(content, spans, methodRefPattern(inst, m), result)
		}
	}
	return result
}

// --- Tier 3: broad fallback (name-matched, any qualifier) ---

func tier3BroadFallback(content string, spans []scanner.MethodSpan, touched []string) map[string]struct{} {
	result := make(map[string]struct{})
	for _, m := range touched {
		attributeHits(content, spans, qualifiedCallPattern(`\w+`, m), result)
		attributeHits(content, spans, methodRefPattern(`\w+`, m), result)
	}
	return result
}

// --- Tier 4: type-anchored fallback ---

func tier4TypeAnchoredFallback(content string, spans []scanner.MethodSpan, instances map[string]struct{}, target CallerTarget, touched []string) map[string]struct{} {
	result := make(map[string]struct{})
	newAssigned := newAssignedNames(content, target)

	for _, m := range touched {
		pattern := compileCached(`(\w+)\s*\.\s*` + regexp.QuoteMeta(m) + `\b\s*\(`)
		masked := scanner.Mask(content)
		for _, loc := range pattern.FindAllStringSubmatchIndex(masked, -1) {
			qualifier := masked[loc[2]:loc[3]]
			if !plausibleQualifier(qualifier, instances, target, newAssigned) {
				continue
			}
			if name := scanner.EnclosingMethod(spans, loc[0]); name != "" {
				result[name] = struct{}{}
			}
		}

		refPattern := compileCached(`(\w+)\s*::\s*` + regexp.QuoteMeta(m) + `\b`)
		for _, loc := range refPattern.FindAllStringSubmatchIndex(masked, -1) {
			qualifier := masked[loc[2]:loc[3]]
			if !plausibleQualifier(qualifier, instances, target, newAssigned) {
				continue
			}
			if name := scanner.EnclosingMethod(spans, loc[0]); name != "" {
				result[name] = struct{}{}
			}
		}
	}
	return result
}

func plausibleQualifier(qualifier string, instances map[string]struct{}, target CallerTarget, newAssigned map[string]bool) bool {
	if qualifier == target.SimpleName {
		return true
	}
	if _, ok := instances[qualifier]; ok {
		return true
	}
	if newAssigned[qualifier] {
		return true
	}
	return qualifier != "" && unicode.IsLower(rune(qualifier[0]))
}

func newAssignedNames(content string, target CallerTarget) map[string]bool {
	re := compileCached(`(\w+)\s*=\s*new\s+` + regexp.QuoteMeta(target.SimpleName) + `\s*[<(]`)
	result := map[string]bool{}
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		result[m[1]] = true
	}
	return result
}

// likelyTypeReferenced is Tier 4's gate: the target FQN appears verbatim,
// or the simple name appears in a type-ish context (new T, T., T<, or
// T identifier). Import checks live one layer up, where Imports are
// available; this keeps the cascade self-contained on raw content.
func likelyTypeReferenced(content string, target CallerTarget) bool {
	if target.FQN != "" && strings.Contains(content, target.FQN) {
		return true
	}
	name := regexp.QuoteMeta(target.SimpleName)
	typeCtx := compileCached(`\bnew\s+` + name + `\b|\b` + name + `\s*\.|\b` + name + `\s*<|\b` + name + `\s+\w+\b`)
	return typeCtx.MatchString(content)
}

// --- Tier 5: static imports ---

func tier5StaticImports(content string, spans []scanner.MethodSpan, target CallerTarget, touched []string) map[string]struct{} {
	result := make(map[string]struct{})
	if target.FQN == "" {
		return result
	}
	wildcard := compileCached(`import\s+static\s+` + regexp.QuoteMeta(target.FQN) + `\.\*\s*;`).MatchString(content)

	for _, m := range touched {
		specific := compileCached(`import\s+static\s+` + regexp.QuoteMeta(target.FQN) + `\.` + regexp.QuoteMeta(m) + `\s*;`).MatchString(content)
		if !wildcard && !specific {
			continue
		}
		bareCall := compileCached(`(?:^|[^.\w])` + regexp.QuoteMeta(m) + `\s*\(`)
		masked := scanner.Mask(content)
		for _, loc := range bareCall.FindAllStringIndex(masked, -1) {
			if name := scanner.EnclosingMethod(spans, loc[0]); name != "" {
				result[name] = struct{}{}
			}
		}
	}
	return result
}

// --- shared helpers ---

func anyTouchedTokenPresent(content string, touched []string) bool {
	for _, m := range touched {
		re := compileCached(regexp.QuoteMeta(m) + `\s*\(|\.\s*` + regexp.QuoteMeta(m) + `\b|::\s*` + regexp.QuoteMeta(m) + `\b`)
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

func qualifiedCallPattern(inst, method string) *regexp.Regexp {
	return compileCached(`\b` + inst + `\s*\.\s*` + regexp.QuoteMeta(method) + `\b\s*\(`)
}

func methodRefPattern(inst, method string) *regexp.Regexp {
	return compileCached(`\b` + inst + `\s*::\s*` + regexp.QuoteMeta(method) + `\b`)
}

// attributeHits finds every match of pattern in content (masked so
// string/comment text can't trigger a false hit) and records the
// enclosing method name for each.
func attributeHits(content string, spans []scanner.MethodSpan, pattern *regexp.Regexp, result map[string]struct{}) {
	masked := scanner.Mask(content)
	for _, loc := range pattern.FindAllStringIndex(masked, -1) {
		if name := scanner.EnclosingMethod(spans, loc[0]); name != "" {
			result[name] = struct{}{}
		}
	}
}

func tokenPresent(content, name string) bool {
	return compileCached(`\b` + regexp.QuoteMeta(name) + `\b`).MatchString(content)
}

// compileCached memoizes regexes keyed by their source pattern, per §9
// "Pattern compilation": the cascade re-derives the same handful of
// per-(instance,method) patterns across every file in a BFS run.
var (
	patternCache   = make(map[string]*regexp.Regexp)
	patternCacheMu sync.Mutex
)

func compileCached(pattern string) *regexp.Regexp {
	patternCacheMu.Lock()
	defer patternCacheMu.Unlock()
	if re, ok := patternCache[pattern]; ok {
		return re
	}
	re := regexp.MustCompile(pattern)
	patternCache[pattern] = re
	return re
}
