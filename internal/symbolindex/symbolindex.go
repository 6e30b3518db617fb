// Package symbolindex builds a whole-repository index of declared types
// (spec §4.2): for every eligible source file it records the package,
// simple name, fully-qualified name and supertype simple names of the
// first top-level declaration, then answers "does file A depend on class
// B?" via the six-rule dependsOn oracle and assembles that into a
// reverse dependency graph.
package symbolindex

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/sindudeva/revguard/internal/model"
)

// DefaultInjectionAnnotations is the framework-agnostic set of
// injection-style annotations the dependsOn oracle's rule 6 looks for.
// The idea generalizes across DI frameworks; callers targeting a
// different one can substitute their own set via Index.InjectionAnnotations.
var DefaultInjectionAnnotations = []string{"Autowired", "Inject"}

// buildDirNames are excluded from eligibility (build/output/VCS metadata).
var buildDirNames = map[string]bool{
	"target": true, "build": true, "out": true, "bin": true, "dist": true,
	".git": true, "node_modules": true, ".revguard-cache": true,
}

// Index is the whole-repository symbol table plus the metadata the
// dependsOn oracle needs (simple-name uniqueness, module boundaries).
type Index struct {
	Classes              []*model.ClassInfo
	ByFQN                map[string]*model.ClassInfo
	ByPath               map[string]*model.ClassInfo
	simpleNameCount       map[string]int
	InjectionAnnotations []string
}

// New returns an empty Index ready for Add.
func New() *Index {
	return &Index{
		ByFQN:                make(map[string]*model.ClassInfo),
		ByPath:               make(map[string]*model.ClassInfo),
		simpleNameCount:      make(map[string]int),
		InjectionAnnotations: DefaultInjectionAnnotations,
	}
}

// Add records one parsed class declaration in the index.
func (idx *Index) Add(ci *model.ClassInfo) {
	idx.Classes = append(idx.Classes, ci)
	idx.ByFQN[ci.FQN] = ci
	idx.ByPath[ci.Path] = ci
	idx.simpleNameCount[ci.SimpleName]++
}

// IsSimpleNameUnique reports whether exactly one declared type across the
// repo carries this simple name, informing the oracle's tie-breaking.
func (idx *Index) IsSimpleNameUnique(name string) bool {
	return idx.simpleNameCount[name] == 1
}

// Build scans files (repo-relative or absolute paths), reading each via
// contentCache when already present and populating it otherwise, and
// returns the populated Index. Files IsEligible rejects (build output,
// VCS metadata, cache directories) are silently skipped.
func Build(files []string, contentCache map[string]string, readFile func(string) (string, error)) (*Index, error) {
	idx := New()
	for _, path := range files {
		if !IsEligible(path) {
			continue
		}
		content, ok := contentCache[path]
		if !ok {
			var err error
			content, err = readFile(path)
			if err != nil {
				// §7: I/O error on a single file is skipped, not fatal.
				continue
			}
			contentCache[path] = content
		}

		ci, _ := ParseFile(path, content)
		if ci == nil {
			continue
		}
		idx.Add(ci)
	}
	return idx, nil
}

// IsEligible reports whether no segment of path is a build output, VCS
// metadata or cache directory named in buildDirNames. It does not check
// for a source root or a file extension.
func IsEligible(path string) bool {
	norm := normalize(path)
	for _, part := range strings.Split(norm, "/") {
		if buildDirNames[part] {
			return false
		}
	}
	return true
}

// IsTestFile reports whether path is a test file: under a "/test/"
// segment (normalized), or its base name (sans extension) ends in "Test".
func IsTestFile(path string) bool {
	norm := normalize(path)
	if strings.Contains(norm, "/test/") || strings.HasPrefix(norm, "test/") {
		return true
	}
	base := filepath.Base(norm)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	return strings.HasSuffix(base, "Test")
}

func normalize(path string) string {
	return filepath.ToSlash(path)
}

var (
	packageRe = regexp.MustCompile(`(?m)^\s*package\s+([\w.]+)\s*;`)
	importRe  = regexp.MustCompile(`(?m)^\s*import\s+(static\s+)?([\w.]+(?:\.\*)?)\s*;`)
	// typeDeclRe finds the first top-level class/interface/enum/record
	// declaration header, capturing its kind, name, and generic params.
	typeDeclRe = regexp.MustCompile(`(?m)^\s*(?:public\s+|final\s+|abstract\s+|sealed\s+|non-sealed\s+)*\b(class|interface|enum|record)\s+(\w+)\s*(<[^{]*>)?`)
)

// ParseFile extracts a ClassInfo and Imports from one file's content.
// Returns (nil, nil) if no top-level type declaration is found.
func ParseFile(path, content string) (*model.ClassInfo, *model.Imports) {
	pkg := ""
	if m := packageRe.FindStringSubmatch(content); m != nil {
		pkg = m[1]
	}

	imports := model.NewImports()
	for _, m := range importRe.FindAllStringSubmatch(content, -1) {
		fqn := m[2]
		if strings.HasSuffix(fqn, ".*") {
			imports.Wildcard[strings.TrimSuffix(fqn, ".*")] = struct{}{}
		} else {
			imports.Explicit[fqn] = struct{}{}
		}
	}

	loc := typeDeclRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return nil, imports
	}
	name := content[loc[4]:loc[5]]

	headerEnd := strings.IndexByte(content[loc[1]:], '{')
	header := ""
	if headerEnd != -1 {
		header = content[loc[1] : loc[1]+headerEnd]
	}
	supertypes := parseSupertypes(header)

	fqn := name
	if pkg != "" {
		fqn = pkg + "." + name
	}

	return &model.ClassInfo{
		Path:                 path,
		PackageName:          pkg,
		SimpleName:           name,
		FQN:                  fqn,
		SupertypeSimpleNames: supertypes,
	}, imports
}

// parseSupertypes parses the "extends X<Y> implements A, B<C>" header
// text into supertype simple names, respecting angle-bracket nesting so
// commas inside generic argument lists don't split a single supertype.
func parseSupertypes(header string) []string {
	var names []string

	extendsIdx := indexWord(header, "extends")
	implementsIdx := indexWord(header, "implements")

	if extendsIdx != -1 {
		end := len(header)
		if implementsIdx != -1 && implementsIdx > extendsIdx {
			end = implementsIdx
		}
		names = append(names, splitTopLevelCommas(header[extendsIdx+len("extends"):end])...)
	}
	if implementsIdx != -1 {
		names = append(names, splitTopLevelCommas(header[implementsIdx+len("implements"):])...)
	}

	var simple []string
	for _, n := range names {
		if s := stripGenericArgs(strings.TrimSpace(n)); s != "" {
			simple = append(simple, s)
		}
	}
	return simple
}

func indexWord(s, word string) int {
	re := regexp.MustCompile(`\b` + word + `\b`)
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// splitTopLevelCommas splits s on commas that are not nested inside
// angle brackets (generic argument lists).
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// stripGenericArgs reduces "Foo<Bar, Baz>" to "Foo" and trims whitespace.
func stripGenericArgs(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '<'); idx != -1 {
		s = s[:idx]
	}
	// qualified supertype reference (pkg.Foo): keep only the simple name.
	if idx := strings.LastIndexByte(s, '.'); idx != -1 {
		s = s[idx+1:]
	}
	return strings.TrimSpace(s)
}

// tokenPatternCache memoizes the \bname\b regex per identifier so repeated
// token-presence checks (the oracle calls this a lot) don't recompile.
var (
	tokenPatternCache   = make(map[string]*regexp.Regexp)
	tokenPatternCacheMu sync.Mutex
)

// TokenPresent reports whether name appears as a whole-word token in content.
func TokenPresent(content, name string) bool {
	if name == "" {
		return false
	}
	tokenPatternCacheMu.Lock()
	re, ok := tokenPatternCache[name]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		tokenPatternCache[name] = re
	}
	tokenPatternCacheMu.Unlock()
	return re.MatchString(content)
}
