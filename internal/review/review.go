// Package review is the orchestrator (spec §4.6): it wires the VCS diff
// protocol, the symbol index and reverse graph, the rule engine, and the
// impact analyzer into a single pre-commit run and produces the
// {branch, stagedCount, findings, impactEntries, testingStatus,
// reverseGraph} payload.
package review

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sindudeva/revguard/internal/cache"
	"github.com/sindudeva/revguard/internal/config"
	"github.com/sindudeva/revguard/internal/impact"
	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/rules"
	"github.com/sindudeva/revguard/internal/symbolindex"
	"github.com/sindudeva/revguard/internal/testlink"
	"github.com/sindudeva/revguard/internal/vcsdiff"
)

// SourceExtension is the target language's file extension; only files
// carrying it participate in the review.
const SourceExtension = ".java"

// Options configures one orchestrator run.
type Options struct {
	// WorkDir is the directory the run starts from; the VCS root is
	// resolved from here, falling back to WorkDir itself.
	WorkDir string
	// Files, when non-empty, switches to explicit-file mode (spec §6's
	// CLI surface): review exactly these paths instead of auto-detecting
	// staged files.
	Files []string
}

// Result is the orchestrator's emitted payload.
type Result struct {
	Branch        string                     `json:"branch" yaml:"branch"`
	StagedCount   int                        `json:"stagedCount" yaml:"stagedCount"`
	Findings      []model.Finding            `json:"findings" yaml:"findings"`
	ImpactEntries []*model.ImpactEntry       `json:"impactEntries" yaml:"impactEntries"`
	TestingStatus map[string]testlink.Status `json:"testingStatus" yaml:"testingStatus"`
	ReverseGraph  map[string][]string        `json:"reverseGraph" yaml:"reverseGraph"`
}

// ExitCode returns 1 when a MUST_FIX finding exists and cfg.BlockOnMustFix
// is set, 0 otherwise (spec §4.6 step 11, §7's catastrophic-error case is
// handled by the caller around Run itself).
func (r *Result) ExitCode(cfg *config.Config) int {
	if !cfg.BlockOnMustFix {
		return 0
	}
	for _, f := range r.Findings {
		if f.Severity == model.MustFix {
			return 1
		}
	}
	return 0
}

// Run executes the full orchestration sequence and never returns a
// top-level error for recoverable conditions (VCS-unavailable, missing
// files, cache corruption): those degrade to an empty or partial result
// per §7. A non-nil error here is reserved for conditions the CLI layer
// should treat as catastrophic (§7's "uncaught error" case).
func Run(opts Options) (*Result, error) {
	cfg, err := config.Load(opts.WorkDir)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	vcs := vcsdiff.NewClient(opts.WorkDir)
	repoRoot, err := vcs.RepoRoot()
	if err != nil || repoRoot == "" {
		repoRoot = opts.WorkDir
	}
	vcs = vcsdiff.NewClient(repoRoot)

	branch, err := vcs.Branch()
	if err != nil {
		branch = ""
	}

	result := &Result{
		Branch:        branch,
		TestingStatus: make(map[string]testlink.Status),
		ReverseGraph:  make(map[string][]string),
	}

	changedFiles, stagedCount := resolveChangedFiles(vcs, opts, repoRoot)
	result.StagedCount = stagedCount
	if len(changedFiles) == 0 {
		return result, nil // nothing to review (§7 VCS-unavailable / empty staged list)
	}

	contentCache := make(map[string]string)
	readFile := func(path string) (string, error) {
		return readRepoFile(repoRoot, path)
	}

	var nonTestPaths, allChangedPaths []string
	for path := range changedFiles {
		allChangedPaths = append(allChangedPaths, path)
		if symbolindex.IsTestFile(path) {
			continue
		}
		nonTestPaths = append(nonTestPaths, path)
	}
	sort.Strings(allChangedPaths)
	sort.Strings(nonTestPaths)

	fileCache, cacheErr := cache.Open(filepath.Join(repoRoot, ".code-reviewer-cache"))

	// Step 6: Rule Engine over every non-test changed file. Content/AC
	// loading stays sequential (both feed the impact analyzer below
	// regardless of cache outcome); the rule evaluation itself, the
	// part actually expensive per file, runs across a bounded worker
	// pool (§5 "MAY parallelize... across a bounded worker pool") and
	// findings are reassembled in changed-file order afterward so the
	// ordering guarantee in §5 still holds.
	analysisContexts := make(map[string]*model.AnalysisContext, len(nonTestPaths))
	type ruleJob struct {
		path    string
		content string
		hash    string
		cached  []model.Finding
		hit     bool
	}
	jobs := make([]ruleJob, 0, len(nonTestPaths))
	for _, path := range nonTestPaths {
		content, ok := loadContent(contentCache, readFile, path)
		if !ok {
			continue // §7 I/O error on a single file: skip, don't abort
		}
		ac := impact.BuildAnalysisContext(classNameFromPath(path), content)
		analysisContexts[path] = ac

		job := ruleJob{path: path, content: content, hash: cache.HashBytes([]byte(content))}
		if cacheErr == nil {
			if cached, hit := fileCache.Get(path, job.hash); hit {
				job.cached, job.hit = cached, true
			}
		}
		jobs = append(jobs, job)
	}

	jobResults := make([][]model.Finding, len(jobs))
	workers := runtime.NumCPU()
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers > 0 {
		g := new(errgroup.Group)
		g.SetLimit(workers)
		for i, job := range jobs {
			i, job := i, job
			g.Go(func() error {
				if job.hit {
					jobResults[i] = job.cached
					return nil
				}
				cl := changedFiles[job.path].ChangedLines
				jobResults[i] = rules.Run(job.path, job.content, cl, cfg, analysisContexts[job.path])
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, job := range jobs {
		findings := jobResults[i]
		result.Findings = append(result.Findings, findings...)
		if cacheErr == nil && !job.hit {
			_ = fileCache.Put(job.path, job.hash, findings)
		}
	}

	// Step 7: Symbol Index + reverse graph. The symbol-index store is an
	// optional warm-start cache (§4.2); a failure to open it just means
	// every file parses fresh this run.
	allRepoFiles := discoverSourceFiles(repoRoot)
	var idxStore *symbolindex.Store
	if s, err := symbolindex.OpenStore(filepath.Join(repoRoot, ".code-reviewer-cache")); err == nil {
		idxStore = s
		defer s.Close()
	}
	mtimeOf := func(path string) int64 {
		if info, err := os.Stat(filepath.Join(repoRoot, path)); err == nil {
			return info.ModTime().Unix()
		}
		return 0
	}
	idx, _ := symbolindex.BuildWarm(allRepoFiles, contentCache, readFile, idxStore, mtimeOf)

	var targets []*model.ClassInfo
	for _, path := range nonTestPaths {
		if ci, ok := idx.ByPath[path]; ok {
			targets = append(targets, ci)
		}
	}

	graph := loadOrBuildReverseGraph(repoRoot, cfg, idx, targets, changedFiles, contentCache, readFile)
	for fqn, paths := range graph {
		sorted := sortedSlice(paths)
		if len(sorted) > 0 {
			result.ReverseGraph[fqn] = sorted
		}
	}

	dependentsOf := func(fqn string) ([]string, error) {
		if paths, ok := graph[fqn]; ok {
			return sortedSlice(paths), nil
		}
		target, ok := idx.ByFQN[fqn]
		if !ok {
			return nil, nil
		}
		computed := make(map[string]struct{})
		for _, candidate := range idx.Classes {
			if candidate.Path == target.Path {
				continue
			}
			content, ok := loadContent(contentCache, readFile, candidate.Path)
			if !ok {
				continue
			}
			_, imports := symbolindex.ParseFile(candidate.Path, content)
			if imports == nil {
				imports = model.NewImports()
			}
			if symbolindex.DependsOn(content, imports, candidate, target, idx.IsSimpleNameUnique(target.SimpleName), idx.InjectionAnnotations) {
				computed[candidate.Path] = struct{}{}
			}
		}
		graph[fqn] = computed
		return sortedSlice(computed), nil
	}
	classOf := func(path string) (*model.ClassInfo, error) {
		if ci, ok := idx.ByPath[path]; ok {
			return ci, nil
		}
		return nil, fmt.Errorf("no class info for %s", path)
	}
	contentOf := func(path string) (string, error) {
		if c, ok := loadContent(contentCache, readFile, path); ok {
			return c, nil
		}
		return "", fmt.Errorf("cannot read %s", path)
	}

	// Step 8: Impact Analyzer per non-test changed file.
	for _, path := range nonTestPaths {
		content, ok := contentCache[path]
		if !ok {
			continue
		}
		ci, ok := idx.ByPath[path]
		if !ok {
			continue // §7 symbol-index failure for this file: no impact signal
		}
		ac := analysisContexts[path]
		touched := impact.TouchedMethods(content, changedFiles[path].ChangedLines)
		if len(touched) == 0 {
			continue
		}

		entry := buildImpactEntry(path, ci, ac, touched, idx, graph, contentCache, readFile, cfg)
		result.ImpactEntries = append(result.ImpactEntries, entry)
	}

	// Steps 8 continued (transitive BFS), 9-10: testing status enrichment.
	for _, entry := range result.ImpactEntries {
		ci := idx.ByFQN[entry.FQN]
		ac := analysisContexts[findPathForFQN(nonTestPaths, idx, entry.FQN)]
		if ac != nil && !ac.IsController && cfg.EnableTransitiveAPIDiscovery {
			path := findPathForFQN(nonTestPaths, idx, entry.FQN)
			content := contentCache[path]
			touched := impact.TouchedMethods(content, changedFiles[path].ChangedLines)
			bfsDeps := impact.BFSDeps{
				Dependents: dependentsOf,
				ClassOf:    classOf,
				Content:    contentOf,
				IsTest:     symbolindex.IsTestFile,
			}
			bfsCfg := impact.BFSConfig{
				MaxDepth:           cfg.TransitiveAPIDiscoveryMaxDepth,
				MaxVisitedFiles:    cfg.TransitiveAPIDiscoveryMaxVisited,
				MaxControllers:     cfg.TransitiveAPIDiscoveryMaxCtrls,
				StructuralFallback: cfg.TransitiveCallerStructuralFallback && cfg.UseASTCallerDetection,
			}
			supertypes := []string{}
			if ci != nil {
				supertypes = ci.SupertypeSimpleNames
			}
			bfsResult := impact.RunBFS(entry.FQN, simpleNameFor(ci, entry), touched, supertypes, bfsDeps, bfsCfg)
			for _, ep := range bfsResult.Endpoints {
				entry.AddEndpoint(ep)
			}
			entry.Notes = append(entry.Notes, bfsResult.Notes...)
		}
	}

	testFiles := filterTestFiles(allChangedPaths)
	for _, path := range allChangedPaths {
		if symbolindex.IsTestFile(path) {
			continue
		}
		status := testlink.Resolve(filepath.Base(path), testFiles)
		result.TestingStatus[path] = status
	}
	for _, entry := range result.ImpactEntries {
		path := findPathForFQN(nonTestPaths, idx, entry.FQN)
		status := result.TestingStatus[path]
		entry.RecommendedTests = status.RelatedTests
		testlink.Enrich(entry, status)
	}

	return result, nil
}

func simpleNameFor(ci *model.ClassInfo, entry *model.ImpactEntry) string {
	if ci != nil {
		return ci.SimpleName
	}
	return entry.FQN
}

// findPathForFQN recovers the source path for an already-built ImpactEntry
// by its FQN; nonTestPaths is scanned since this only ever happens for a
// seed (directly changed) class, never for a purely-transitive one.
func findPathForFQN(nonTestPaths []string, idx *symbolindex.Index, fqn string) string {
	for _, p := range nonTestPaths {
		if ci, ok := idx.ByPath[p]; ok && ci.FQN == fqn {
			return p
		}
	}
	return ""
}

func buildImpactEntry(
	path string,
	ci *model.ClassInfo,
	ac *model.AnalysisContext,
	touched []string,
	idx *symbolindex.Index,
	graph map[string]map[string]struct{},
	contentCache map[string]string,
	readFile func(string) (string, error),
	cfg *config.Config,
) *model.ImpactEntry {
	entry := &model.ImpactEntry{
		FileName:  filepath.Base(path),
		FQN:       ci.FQN,
		Functions: touched,
		Layers:    layersFor(ac),
	}

	if ac.IsController {
		content := contentCache[path]
		for _, ep := range impact.ExtractEndpoints(content, ci.SimpleName, touched) {
			entry.AddEndpoint(ep)
		}
		return entry
	}

	target := impact.CallerTarget{SimpleName: ci.SimpleName, FQN: ci.FQN, Supertypes: ci.SupertypeSimpleNames}
	dependentPaths := sortedSlice(graph[ci.FQN])
	for _, depPath := range dependentPaths {
		depContent, ok := loadContent(contentCache, readFile, depPath)
		if !ok {
			continue
		}
		depCI, hasCI := idx.ByPath[depPath]
		isControllerDep := impact.IsControllerAnnotations(impact.ClassAnnotations(depContent))
		opts := impact.CascadeOptions{
			AllowBroadFallback: !isControllerDep,
			StructuralFallback: cfg.TransitiveCallerStructuralFallback && cfg.UseASTCallerDetection && !isControllerDep,
		}
		callingMethods := impact.FindCallingMethods(depContent, target, touched, opts)
		verified := len(callingMethods) > 0

		if cfg.MethodScopedDependencyGraph && !verified {
			continue
		}

		entry.MethodScopedDependents = append(entry.MethodScopedDependents, depPath)

		classification := "CALLS"
		if hasCI {
			classification = impact.ClassifyDependency(depContent, depCI, ci, idx.InjectionAnnotations)
		}
		if verified {
			for _, m := range sortedStrings(callingMethods) {
				entry.AddNote(fmt.Sprintf("Impacted Method [%s]: %s -> %s()", classification, filepath.Base(depPath), m))
			}
		} else {
			entry.AddNote(fmt.Sprintf("Impacted Class [%s]: %s", classification, filepath.Base(depPath)))
		}
	}

	return entry
}

func sortedStrings(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func layersFor(ac *model.AnalysisContext) []string {
	var layers []string
	if ac.IsController {
		layers = append(layers, "CONTROLLER")
	}
	if ac.IsService {
		layers = append(layers, "SERVICE")
	}
	if ac.IsRepository {
		layers = append(layers, "REPOSITORY")
	}
	if ac.IsEntity {
		layers = append(layers, "ENTITY")
	}
	return layers
}

// resolveChangedFiles implements spec §4.6 steps 2-4: staged-file
// discovery, unified-diff parsing, and the changed-scope-to-method
// expansion. Explicit-file mode (opts.Files non-empty) reviews those
// paths with the whole file in scope rather than a literal empty set,
// so an ad-hoc "review this file" invocation still produces findings.
func resolveChangedFiles(vcs *vcsdiff.Client, opts Options, repoRoot string) (map[string]*model.ChangedFile, int) {
	changed := make(map[string]*model.ChangedFile)

	if len(opts.Files) > 0 {
		for _, f := range opts.Files {
			content, err := readRepoFile(repoRoot, f)
			lineCount := 0
			if err == nil {
				lineCount = countLines(content)
			}
			cf := model.NewChangedFile(f, filepath.Base(f), fullRange(lineCount))
			changed[f] = cf
		}
		return changed, len(changed)
	}

	staged, err := vcs.StagedFiles()
	if err != nil {
		return nil, 0 // §7 VCS unavailable: nothing to review
	}
	var sourceStaged []string
	for _, f := range staged {
		if filepath.Ext(f) == SourceExtension {
			sourceStaged = append(sourceStaged, f)
		}
	}
	stagedCount := len(sourceStaged)
	if stagedCount == 0 {
		return nil, 0
	}

	diff, err := vcs.StagedDiffNoContext()
	if err != nil {
		return nil, stagedCount
	}
	for _, cf := range vcsdiff.ParseChangedLines(diff) {
		changed[cf.Path] = cf
	}

	cfg, err := config.Load(repoRoot)
	if err == nil && cfg.ExpandChangedScopeToMethod {
		for path, cf := range changed {
			content, err := readRepoFile(repoRoot, path)
			if err != nil {
				continue
			}
			expanded := rules.ExpandToMethodScope(content, cf.ChangedLines)
			for line := range expanded {
				cf.AddLine(line)
			}
		}
	}

	return changed, stagedCount
}

func fullRange(n int) []int {
	lines := make([]int, n)
	for i := range lines {
		lines[i] = i + 1
	}
	return lines
}

func countLines(content string) int {
	n := 1
	for _, r := range content {
		if r == '\n' {
			n++
		}
	}
	return n
}

func loadContent(cacheMap map[string]string, readFile func(string) (string, error), path string) (string, bool) {
	if c, ok := cacheMap[path]; ok {
		return c, true
	}
	c, err := readFile(path)
	if err != nil {
		return "", false
	}
	cacheMap[path] = c
	return c, true
}

func readRepoFile(repoRoot, path string) (string, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(repoRoot, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func classNameFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func filterTestFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if symbolindex.IsTestFile(p) {
			out = append(out, p)
		}
	}
	return out
}

func discoverSourceFiles(repoRoot string) []string {
	var files []string
	_ = filepath.Walk(repoRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if filepath.Ext(path) != SourceExtension {
			return nil
		}
		rel, err := filepath.Rel(repoRoot, path)
		if err != nil {
			return nil
		}
		if !symbolindex.IsEligible(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	return files
}

func sortedSlice(m map[string]struct{}) []string {
	return sortedStrings(m)
}

// loadOrBuildReverseGraph implements §4.5's cache lookup: a signature
// over the changed files' mtimes gates a disk hit; any miss rebuilds
// from targets and persists the result.
func loadOrBuildReverseGraph(
	repoRoot string,
	cfg *config.Config,
	idx *symbolindex.Index,
	targets []*model.ClassInfo,
	changedFiles map[string]*model.ChangedFile,
	contentCache map[string]string,
	readFile func(string) (string, error),
) map[string]map[string]struct{} {
	mtimes := make(map[string]time.Time, len(changedFiles))
	for path := range changedFiles {
		if info, err := os.Stat(filepath.Join(repoRoot, path)); err == nil {
			mtimes[path] = info.ModTime()
		}
	}
	signature := cache.Signature(mtimes)
	gc := cache.NewGraphCache(repoRoot, time.Duration(cfg.GraphCacheTTLHours)*time.Hour)

	if !cfg.RebuildGraphCache {
		if flat, ok := gc.Load(signature); ok {
			graph := make(map[string]map[string]struct{}, len(flat))
			for fqn, paths := range flat {
				set := make(map[string]struct{}, len(paths))
				for _, p := range paths {
					set[p] = struct{}{}
				}
				graph[fqn] = set
			}
			return graph
		}
	}

	graph := idx.BuildReverseGraph(targets, contentCache, readFile)

	flat := make(map[string][]string, len(graph))
	for fqn, set := range graph {
		flat[fqn] = sortedSlice(set)
	}
	_ = gc.Save(signature, flat)

	return graph
}
