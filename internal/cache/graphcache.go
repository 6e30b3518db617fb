package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const graphSchemaVersion = 3

// GraphCacheFile is the relative path, under the repo root, of the
// reverse-dependency-graph cache file.
const GraphCacheFile = ".code-reviewer-cache/reverse-graph.json"

// GraphCache reads and writes the line-oriented reverse-graph cache
// format from §4.5: a schema line, a timestamp line, a changed-files
// signature line, and one DEP line per target FQN.
type GraphCache struct {
	repoRoot string
	ttl      time.Duration
}

// NewGraphCache returns a GraphCache rooted at repoRoot with the given TTL.
func NewGraphCache(repoRoot string, ttl time.Duration) *GraphCache {
	return &GraphCache{repoRoot: repoRoot, ttl: ttl}
}

func (g *GraphCache) path() string {
	return filepath.Join(g.repoRoot, GraphCacheFile)
}

// Signature builds the KEY value: changed files sorted by path, each
// joined to its mtime (as seconds since epoch).
func Signature(changedFiles map[string]time.Time) string {
	paths := make([]string, 0, len(changedFiles))
	for p := range changedFiles {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, fmt.Sprintf("%s:%d", p, changedFiles[p].Unix()))
	}
	return strings.Join(parts, "|")
}

// Load returns the cached reverse graph if present, schema-current,
// within TTL, and matching signature; otherwise ok is false (a miss).
// Any parse error is treated as a miss, per §7's cache-corruption policy.
func (g *GraphCache) Load(signature string) (map[string][]string, bool) {
	f, err := os.Open(g.path())
	if err != nil {
		return nil, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var schema int
	var tsMillis int64
	var key string
	deps := make(map[string][]string)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "V="):
			schema, err = strconv.Atoi(strings.TrimPrefix(line, "V="))
			if err != nil {
				return nil, false
			}
		case strings.HasPrefix(line, "TS="):
			tsMillis, err = strconv.ParseInt(strings.TrimPrefix(line, "TS="), 10, 64)
			if err != nil {
				return nil, false
			}
		case strings.HasPrefix(line, "KEY="):
			key = strings.TrimPrefix(line, "KEY=")
		case strings.HasPrefix(line, "DEP="):
			rest := strings.TrimPrefix(line, "DEP=")
			eq := strings.Index(rest, "=")
			if eq == -1 {
				continue
			}
			fqn := rest[:eq]
			depsStr := rest[eq+1:]
			if depsStr == "" {
				deps[fqn] = nil
				continue
			}
			deps[fqn] = strings.Split(depsStr, "|")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false
	}

	if schema != graphSchemaVersion {
		return nil, false
	}
	if key != signature {
		return nil, false
	}
	age := time.Since(time.UnixMilli(tsMillis))
	if age > g.ttl {
		return nil, false
	}

	return deps, true
}

// Save writes graph to the cache file with a fresh timestamp and the
// given signature.
func (g *GraphCache) Save(signature string, graph map[string][]string) error {
	if err := os.MkdirAll(filepath.Dir(g.path()), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "V=%d\n", graphSchemaVersion)
	fmt.Fprintf(&b, "TS=%d\n", time.Now().UnixMilli())
	fmt.Fprintf(&b, "KEY=%s\n", signature)

	fqns := make([]string, 0, len(graph))
	for fqn := range graph {
		fqns = append(fqns, fqn)
	}
	sort.Strings(fqns)
	for _, fqn := range fqns {
		fmt.Fprintf(&b, "DEP=%s=%s\n", fqn, strings.Join(graph[fqn], "|"))
	}

	if err := os.WriteFile(g.path(), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write graph cache: %w", err)
	}
	return nil
}

// Invalidate removes the cache file, forcing the next Load to miss.
func (g *GraphCache) Invalidate() error {
	err := os.Remove(g.path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove graph cache: %w", err)
	}
	return nil
}
