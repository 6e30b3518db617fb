package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

// chdirTemp creates a throwaway directory, os.Chdir's into it, and
// restores the original working directory on cleanup. Several of the
// RunE handlers under test resolve their target via os.Getwd() rather
// than an injected path, mirroring the teacher's own subcommands.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func TestRunConfigShowPrintsDefaultsWhenNoConfigFile(t *testing.T) {
	chdirTemp(t)
	if err := runConfigShow(configShowCmd, nil); err != nil {
		t.Fatalf("runConfigShow: %v", err)
	}
}

func TestRunCacheStatsOnEmptyCache(t *testing.T) {
	chdirTemp(t)
	if err := runCacheStats(cacheStatsCmd, nil); err != nil {
		t.Fatalf("runCacheStats: %v", err)
	}
}

func TestRunCacheClearIsIdempotent(t *testing.T) {
	chdirTemp(t)
	if err := runCacheClear(cacheClearCmd, nil); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := runCacheClear(cacheClearCmd, nil); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestInstallPreCommitHookRequiresGitDir(t *testing.T) {
	chdirTemp(t)
	if err := installPreCommitHook(); err == nil {
		t.Fatal("expected error with no .git/hooks directory")
	}
}

func TestInstallPreCommitHookWritesScript(t *testing.T) {
	dir := chdirTemp(t)
	hooksDir := filepath.Join(dir, ".git", "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		t.Fatalf("mkdir hooks dir: %v", err)
	}
	if err := installPreCommitHook(); err != nil {
		t.Fatalf("installPreCommitHook: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(hooksDir, "pre-commit"))
	if err != nil {
		t.Fatalf("read installed hook: %v", err)
	}
	if string(content) != "#!/bin/sh\nexec revguard\n" {
		t.Fatalf("unexpected hook content: %q", content)
	}
}

func TestRunRootWithNoStagedFilesSucceeds(t *testing.T) {
	chdirTemp(t)
	if err := runRoot(rootCmd, nil); err != nil {
		t.Fatalf("runRoot: %v", err)
	}
}
