// Package config loads the flat key=value configuration the review engine
// is driven by (§3 Config table of the design), with an optional
// .revguard/config.yaml layer for local developer ergonomics.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the revguard configuration file.
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the revguard configuration directory.
const ConfigDirName = ".revguard"

// Config is the enumerated set of flags the core consumes.
type Config struct {
	BlockOnMustFix bool `yaml:"block_on_must_fix"`

	OnlyChangedLines            bool `yaml:"only_changed_lines"`
	ExpandChangedScopeToMethod  bool `yaml:"expand_changed_scope_to_method"`

	StrictJava      bool `yaml:"strict_java"`
	StrictFramework bool `yaml:"strict_framework"`

	EnableTransitiveAPIDiscovery     bool `yaml:"enable_transitive_api_discovery"`
	TransitiveAPIDiscoveryMaxDepth   int  `yaml:"transitive_api_discovery_max_depth"`
	TransitiveAPIDiscoveryMaxVisited int  `yaml:"transitive_api_discovery_max_visited_files"`
	TransitiveAPIDiscoveryMaxCtrls   int  `yaml:"transitive_api_discovery_max_controllers"`

	TransitiveCallerStructuralFallback bool `yaml:"transitive_caller_structural_fallback"`
	UseASTCallerDetection              bool `yaml:"use_ast_caller_detection"`

	MethodScopedDependencyGraph bool `yaml:"method_scoped_dependency_graph"`

	GraphCacheTTLHours int  `yaml:"graph_cache_ttl_hours"`
	RebuildGraphCache  bool `yaml:"rebuild_graph_cache"`

	EnablePMDAnalysis bool `yaml:"enable_pmd_analysis"`

	// SourceVersion is the target language version, used to gate
	// version-dependent suggestions (e.g. pattern-matching instanceof,
	// available from 16 onward).
	SourceVersion int `yaml:"source_version"`
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() *Config {
	return &Config{
		BlockOnMustFix:                     true,
		OnlyChangedLines:                   true,
		ExpandChangedScopeToMethod:         true,
		StrictJava:                         false,
		StrictFramework:                    false,
		EnableTransitiveAPIDiscovery:       true,
		TransitiveAPIDiscoveryMaxDepth:     4,
		TransitiveAPIDiscoveryMaxVisited:   500,
		TransitiveAPIDiscoveryMaxCtrls:     50,
		TransitiveCallerStructuralFallback: false,
		UseASTCallerDetection:              false,
		MethodScopedDependencyGraph:        true,
		GraphCacheTTLHours:                 12,
		RebuildGraphCache:                  false,
		EnablePMDAnalysis:                  false,
		SourceVersion:                      17,
	}
}

// boolKeys/intKeys enumerate which keys parse as bool vs int; any other key
// in the map is ignored per §3/§7 ("unknown keys ignored").
var boolKeys = map[string]func(*Config, bool){
	"blockOnMustFix":                     func(c *Config, v bool) { c.BlockOnMustFix = v },
	"onlyChangedLines":                   func(c *Config, v bool) { c.OnlyChangedLines = v },
	"expandChangedScopeToMethod":         func(c *Config, v bool) { c.ExpandChangedScopeToMethod = v },
	"strictJava":                         func(c *Config, v bool) { c.StrictJava = v },
	"strictFramework":                    func(c *Config, v bool) { c.StrictFramework = v },
	"enableTransitiveApiDiscovery":       func(c *Config, v bool) { c.EnableTransitiveAPIDiscovery = v },
	"transitiveCallerStructuralFallback": func(c *Config, v bool) { c.TransitiveCallerStructuralFallback = v },
	"useAstCallerDetection":              func(c *Config, v bool) { c.UseASTCallerDetection = v },
	"methodScopedDependencyGraph":        func(c *Config, v bool) { c.MethodScopedDependencyGraph = v },
	"rebuildGraphCache":                  func(c *Config, v bool) { c.RebuildGraphCache = v },
	"enablePmdAnalysis":                  func(c *Config, v bool) { c.EnablePMDAnalysis = v },
}

var intKeys = map[string]func(*Config, int){
	"transitiveApiDiscoveryMaxDepth":        func(c *Config, v int) { c.TransitiveAPIDiscoveryMaxDepth = v },
	"transitiveApiDiscoveryMaxVisitedFiles": func(c *Config, v int) { c.TransitiveAPIDiscoveryMaxVisited = v },
	"transitiveApiDiscoveryMaxControllers":  func(c *Config, v int) { c.TransitiveAPIDiscoveryMaxCtrls = v },
	"graphCacheTtlHours":                    func(c *Config, v int) { c.GraphCacheTTLHours = v },
	"sourceVersion":                         func(c *Config, v int) { c.SourceVersion = v },
}

// FromMap builds a Config from a flat key=value map, starting from
// DefaultConfig() and overlaying any recognized key. Malformed or unknown
// values fall back to the default for that key rather than erroring (§7).
func FromMap(raw map[string]string) *Config {
	cfg := DefaultConfig()
	for key, setter := range boolKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			continue
		}
		setter(cfg, b)
	}
	for key, setter := range intKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		setter(cfg, n)
	}
	return cfg
}

// Load reads config from <workDir>/.revguard/config.yaml, falling back to
// defaults when no file is found, searching upward like the teacher's
// FindConfigDir does.
func Load(workDir string) (*Config, error) {
	dir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFromPath(filepath.Join(dir, ConfigFileName))
}

// LoadFromPath reads config from a specific YAML file, merging onto
// defaults. A missing file yields defaults, not an error.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), nil
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		// Malformed config file: degrade to defaults rather than fail the run.
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// FindConfigDir walks up from startDir looking for a .revguard directory.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	current := absDir
	for {
		candidate := filepath.Join(current, ConfigDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}
