package symbolindex

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
)

// srcRootRe finds the first "/src/main/<lang>/" or "/src/test/<lang>/"
// segment in a normalized path, the conventional module-boundary marker.
var srcRootRe = regexp.MustCompile(`^(.*?/src/(?:main|test)/[^/]+/)`)

// sameModule reports whether a and b share a module: the normalized
// prefix up to the first "/src/main/<lang>/" or "/src/test/<lang>/"
// segment, or their parent directory when neither path has one. This
// suppresses cross-module coincidental same-package matches.
func sameModule(a, b string) bool {
	pa, oka := moduleRoot(a)
	pb, okb := moduleRoot(b)
	if oka && okb {
		return pa == pb
	}
	if oka != okb {
		return false
	}
	return filepath.Dir(normalize(a)) == filepath.Dir(normalize(b))
}

func moduleRoot(path string) (string, bool) {
	norm := normalize(path)
	m := srcRootRe.FindStringSubmatch(norm)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DependsOn implements the six-rule oracle from §4.2: does candidate
// depend on target, given the candidate's parsed content and imports?
func DependsOn(candidateContent string, candidateImports *model.Imports, candidate, target *model.ClassInfo, simpleNameUnique bool, injectionAnnotations []string) bool {
	// Rule 1: explicit import of the target's FQN.
	if candidateImports.HasExplicit(target.FQN) {
		return true
	}

	// Rule 2: wildcard import of the target's package, plus a token hit.
	if candidateImports.HasWildcard(target.PackageName) && TokenPresent(candidateContent, target.SimpleName) {
		return true
	}

	// Rule 3: same package, same module, plus a token hit.
	if candidate.PackageName == target.PackageName && candidate.PackageName != "" &&
		sameModule(candidate.Path, target.Path) && TokenPresent(candidateContent, target.SimpleName) {
		return true
	}

	// Rule 4: target's FQN appears verbatim (fully-qualified inline usage).
	if target.FQN != "" && strings.Contains(candidateContent, target.FQN) {
		return true
	}

	// Rule 5: a supertype simple name appears as a token, backed by an
	// explicit import of that supertype in the target's package, a
	// wildcard import of that package, or same-package+same-module.
	for _, super := range target.SupertypeSimpleNames {
		if !TokenPresent(candidateContent, super) {
			continue
		}
		superFQN := super
		if target.PackageName != "" {
			superFQN = target.PackageName + "." + super
		}
		if candidateImports.HasExplicit(superFQN) ||
			candidateImports.HasWildcard(target.PackageName) ||
			(candidate.PackageName == target.PackageName && candidate.PackageName != "" && sameModule(candidate.Path, target.Path)) {
			return true
		}
	}

	// Rule 6: an injection annotation followed by a field/parameter typed
	// as the target or one of its supertypes.
	if hasInjectedFieldOfType(candidateContent, injectionAnnotations, target) {
		return true
	}

	return false
}

// injectedFieldTypeRe matches a capitalized type name followed by an
// identifier, e.g. "OrderService service;"; hasInjectedFieldOfType runs it
// over the 200 bytes after each injection annotation, so it catches
// "@Autowired\nprivate OrderService service;" or
// "@Inject OrderService service;".
var injectedFieldTypeRe = regexp.MustCompile(`\b([A-Z]\w*)\s+\w+\s*[;)=,]`)

// HasInjectedFieldOfType is the exported form of hasInjectedFieldOfType,
// used by the impact package to label a verified dependency edge as
// INJECTED without re-deriving Rule 6's logic.
func HasInjectedFieldOfType(content string, injectionAnnotations []string, target *model.ClassInfo) bool {
	return hasInjectedFieldOfType(content, injectionAnnotations, target)
}

func hasInjectedFieldOfType(content string, injectionAnnotations []string, target *model.ClassInfo) bool {
	candidates := append([]string{target.SimpleName}, target.SupertypeSimpleNames...)
	for _, ann := range injectionAnnotations {
		idx := 0
		marker := "@" + ann
		for {
			pos := strings.Index(content[idx:], marker)
			if pos == -1 {
				break
			}
			abs := idx + pos + len(marker)
			window := content[abs:min(len(content), abs+200)]
			for _, m := range injectedFieldTypeRe.FindAllStringSubmatch(window, -1) {
				for _, c := range candidates {
					if m[1] == c {
						return true
					}
				}
			}
			idx = abs
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// BuildReverseGraph computes map<targetFQN, set<candidatePath>> for every
// target, testing every candidate file in the index via DependsOn. The
// content cache is read from and written to, so repeated builds across
// targets in one run (and across process-local callers) don't re-read a
// file already seen. No self-edges are ever produced (target.Path is
// excluded from its own candidate set, per the invariant in §3).
func (idx *Index) BuildReverseGraph(targets []*model.ClassInfo, contentCache map[string]string, readFile func(string) (string, error)) map[string]map[string]struct{} {
	graph := make(map[string]map[string]struct{}, len(targets))
	for _, t := range targets {
		graph[t.FQN] = make(map[string]struct{})
	}

	for _, candidate := range idx.Classes {
		content, ok := contentCache[candidate.Path]
		if !ok {
			c, err := readFile(candidate.Path)
			if err != nil {
				continue
			}
			content = c
			contentCache[candidate.Path] = content
		}
		_, imports := ParseFile(candidate.Path, content)
		if imports == nil {
			imports = model.NewImports()
		}

		for _, t := range targets {
			if candidate.Path == t.Path {
				continue // no self-edges
			}
			unique := idx.IsSimpleNameUnique(t.SimpleName)
			if DependsOn(content, imports, candidate, t, unique, idx.InjectionAnnotations) {
				graph[t.FQN][candidate.Path] = struct{}{}
			}
		}
	}

	return graph
}
