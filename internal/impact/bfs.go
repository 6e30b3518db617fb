package impact

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sindudeva/revguard/internal/model"
	"github.com/sindudeva/revguard/internal/symbolindex"
)

// DependentsFunc returns the repo file paths that depend on fqn,
// computing the reverse-graph entry on demand for FQNs outside the
// original changed-file set (monotonic cache, owned by the caller —
// spec §4.3.4 "fetch dependents... computing it on demand").
type DependentsFunc func(fqn string) ([]string, error)

// ClassOfFunc resolves a file path to its symbol-index ClassInfo.
type ClassOfFunc func(path string) (*model.ClassInfo, error)

// ReadContentFunc reads a file's content, normally backed by the shared
// content cache.
type ReadContentFunc func(path string) (string, error)

// BFSConfig carries the traversal bounds and fallback toggles from the
// Config (spec §3's transitiveApiDiscovery* keys).
type BFSConfig struct {
	MaxDepth           int
	MaxVisitedFiles    int
	MaxControllers     int
	StructuralFallback bool
}

// BFSDeps supplies the impure operations (graph lookup, file reads,
// class resolution, test detection) the BFS needs but does not own.
type BFSDeps struct {
	Dependents DependentsFunc
	ClassOf    ClassOfFunc
	Content    ReadContentFunc
	IsTest     func(path string) bool
}

// BFSResult is the transitive discovery's output: deduplicated endpoints
// in first-occurrence order, and the call-chain notes for every edge
// confirmed within MaxDepth (spec §4.3.4, §5 Ordering).
type BFSResult struct {
	Endpoints []string
	Notes     []string
}

type bfsQueueItem struct {
	fqn        string
	simpleName string
	methods    []string // sorted
	supertypes []string
	depth      int
}

// RunBFS performs the bounded transitive caller BFS from §4.3.4. seedFQN
// is the changed (non-controller) class; seedMethods are its initially
// touched methods.
func RunBFS(seedFQN, seedSimpleName string, seedMethods, seedSupertypes []string, deps BFSDeps, cfg BFSConfig) BFSResult {
	var result BFSResult
	endpointSeen := make(map[string]bool)

	visitedController := make(map[string]bool)
	visitedIntermediate := make(map[string]bool)

	seedSorted := sortedCopy(seedMethods)
	visitedIntermediate[intermediateKey(seedFQN, seedSorted)] = true

	queue := []bfsQueueItem{{
		fqn:        seedFQN,
		simpleName: seedSimpleName,
		methods:    seedSorted,
		supertypes: seedSupertypes,
		depth:      0,
	}}

	visitedFiles := 0
	controllersFound := 0

	for len(queue) > 0 {
		if visitedFiles >= cfg.MaxVisitedFiles || controllersFound >= cfg.MaxControllers {
			break
		}
		node := queue[0]
		queue = queue[1:]

		dependentPaths, err := deps.Dependents(node.fqn)
		if err != nil {
			continue
		}

		for _, path := range dependentPaths {
			if visitedFiles >= cfg.MaxVisitedFiles || controllersFound >= cfg.MaxControllers {
				break
			}
			if deps.IsTest(path) {
				continue
			}

			content, err := deps.Content(path)
			if err != nil {
				continue
			}
			ci, err := deps.ClassOf(path)
			if err != nil || ci == nil {
				continue
			}

			anns := ClassAnnotations(content)
			isController := IsControllerAnnotations(anns)

			target := CallerTarget{SimpleName: node.simpleName, FQN: node.fqn, Supertypes: node.supertypes}
			opts := CascadeOptions{
				AllowBroadFallback: !isController,
				StructuralFallback: cfg.StructuralFallback && !isController,
			}
			callingMethods := FindCallingMethods(content, target, node.methods, opts)
			if len(callingMethods) == 0 {
				continue
			}
			methodsSorted := sortedKeys(callingMethods)

			nextDepth := node.depth + 1
			if nextDepth > cfg.MaxDepth {
				// Guarded by depth: this edge is never acted on, so it
				// produces neither a note nor further traversal/endpoints.
				continue
			}

			if isController {
				key := path + "::" + strings.Join(methodsSorted, ",")
				if visitedController[key] {
					continue
				}
				visitedController[key] = true
				visitedFiles++
				controllersFound++

				result.Notes = append(result.Notes, formatCallChainNote(ci.SimpleName, methodsSorted, nextDepth))

				for _, ep := range ExtractEndpoints(content, ci.SimpleName, methodsSorted) {
					if !endpointSeen[ep] {
						endpointSeen[ep] = true
						result.Endpoints = append(result.Endpoints, ep)
					}
				}
				continue
			}

			ikey := intermediateKey(ci.FQN, methodsSorted)
			if visitedIntermediate[ikey] {
				continue
			}
			visitedIntermediate[ikey] = true
			visitedFiles++

			result.Notes = append(result.Notes, formatCallChainNote(ci.SimpleName, methodsSorted, nextDepth))

			queue = append(queue, bfsQueueItem{
				fqn:        ci.FQN,
				simpleName: ci.SimpleName,
				methods:    methodsSorted,
				supertypes: ci.SupertypeSimpleNames,
				depth:      nextDepth,
			})
		}
	}

	return result
}

func intermediateKey(fqn string, sortedMethods []string) string {
	return fqn + "::" + strings.Join(sortedMethods, ",")
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func formatCallChainNote(className string, methods []string, depth int) string {
	if len(methods) == 0 {
		return fmt.Sprintf("Transitive caller [depth %d]: %s", depth, className)
	}
	shown := methods
	extra := 0
	if len(methods) > 2 {
		extra = len(methods) - 2
		shown = methods[:2]
	}
	calls := make([]string, len(shown))
	for i, m := range shown {
		calls[i] = m + "()"
	}
	suffix := ""
	if extra > 0 {
		suffix = fmt.Sprintf(", +%d more", extra)
	}
	return fmt.Sprintf("Transitive caller [depth %d]: %s.%s%s", depth, className, strings.Join(calls, ", "), suffix)
}

// ClassifyDependency labels a verified dependency edge for the
// human-readable impact note: INJECTED when the dependent carries an
// injection annotation referencing the target type or a supertype,
// EXTENDS when the dependent's own header names the target or a
// supertype, else CALLS.
func ClassifyDependency(candidateContent string, candidate, target *model.ClassInfo, injectionAnnotations []string) string {
	if symbolindex.HasInjectedFieldOfType(candidateContent, injectionAnnotations, target) {
		return "INJECTED"
	}
	for _, s := range candidate.SupertypeSimpleNames {
		if s == target.SimpleName {
			return "EXTENDS"
		}
		for _, ts := range target.SupertypeSimpleNames {
			if s == ts {
				return "EXTENDS"
			}
		}
	}
	return "CALLS"
}
