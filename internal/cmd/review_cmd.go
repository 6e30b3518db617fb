package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sindudeva/revguard/internal/config"
	"github.com/sindudeva/revguard/internal/review"
)

func runRoot(cmd *cobra.Command, args []string) error {
	if installHook {
		return installPreCommitHook()
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	result, err := review.Run(review.Options{WorkDir: workDir, Files: args})
	if err != nil {
		// §7 catastrophic error: one-line diagnostic, non-zero exit.
		return fmt.Errorf("review failed: %w", err)
	}

	if err := emit(os.Stdout, result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if code := result.ExitCode(cfg); code != 0 {
		os.Exit(code)
	}
	return nil
}

func emit(w *os.File, result *review.Result) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(result)
}

// installPreCommitHook writes a thin shell wrapper at
// <repo>/.git/hooks/pre-commit that invokes the revguard binary found on
// PATH. This is a convenience installer, not a review path itself: the
// hook it writes simply re-invokes hook mode.
func installPreCommitHook() error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	hooksDir := filepath.Join(workDir, ".git", "hooks")
	if _, err := os.Stat(hooksDir); err != nil {
		return fmt.Errorf("not a git repository (no .git/hooks at %s): %w", hooksDir, err)
	}

	hookPath := filepath.Join(hooksDir, "pre-commit")
	script := "#!/bin/sh\nexec revguard\n"
	if err := os.WriteFile(hookPath, []byte(script), 0o755); err != nil {
		return fmt.Errorf("write pre-commit hook: %w", err)
	}
	fmt.Fprintf(os.Stdout, "installed pre-commit hook at %s\n", hookPath)
	return nil
}
