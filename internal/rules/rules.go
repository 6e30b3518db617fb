// Package rules evaluates the closed catalog of pattern-based findings
// (§4.4) against one file's content: null safety, exception handling,
// logging, framework idioms, API documentation, performance, and code
// quality/modernization.
package rules

import (
	"sort"

	"github.com/sindudeva/revguard/internal/config"
	"github.com/sindudeva/revguard/internal/model"
)

// Context carries everything a single rule needs to evaluate one file.
type Context struct {
	File         string
	Content      string
	Lines        []string
	ChangedLines map[int]struct{}
	MethodScope  map[int]struct{}
	Config       *config.Config
	AC           *model.AnalysisContext
}

// Rule is one named, family-tagged check.
type Rule struct {
	Code   string
	Family model.Category
	Check  func(ctx *Context) []model.Finding
}

var registry []Rule

func register(r Rule) {
	registry = append(registry, r)
}

// Run evaluates every registered rule against file/content and returns
// the findings in rule-registration order, each already scope-filtered
// by the rule itself.
func Run(file, content string, changedLines map[int]struct{}, cfg *config.Config, ac *model.AnalysisContext) []model.Finding {
	ctx := &Context{
		File:         file,
		Content:      content,
		Lines:        splitLines(content),
		ChangedLines: changedLines,
		MethodScope:  ExpandToMethodScope(content, changedLines),
		Config:       cfg,
		AC:           ac,
	}

	var findings []model.Finding
	for _, r := range registry {
		findings = append(findings, r.Check(ctx)...)
	}
	return findings
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	lines = append(lines, content[start:])
	return lines
}

// sortedInts returns the keys of a map-derived line set in ascending
// order. No rule in this package calls it.
func sortedInts(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
