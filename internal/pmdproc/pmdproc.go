// Package pmdproc wraps an external static-analysis subprocess (out of
// scope per §1: this module never ships a real analyzer, only the
// process-management shape one would plug in behind). Its contribution
// is additive and independent of the rule engine's own findings (§7's
// propagation policy): a timeout or non-zero exit here drops the
// subprocess's findings but never aborts the run.
package pmdproc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/sindudeva/revguard/internal/model"
)

// AsyncBudget is the wall-clock budget for the whole-run async wrapper.
const AsyncBudget = 120 * time.Second

// PerFileBudget is the wall-clock budget for a single synchronous
// per-file invocation.
const PerFileBudget = 60 * time.Second

// Runner invokes an external analyzer binary and decodes its JSON
// findings. Command/Args name the binary the way the analyzer expects
// to be invoked; the process is expected to print a JSON array of
// model.Finding on stdout.
type Runner struct {
	Command string
	Args    []string
}

// NewRunner returns a Runner for the given external analyzer command.
func NewRunner(command string, args ...string) *Runner {
	return &Runner{Command: command, Args: args}
}

// RunFile invokes the analyzer against path within PerFileBudget. On
// timeout, non-zero exit, or malformed output, it returns (nil, err):
// callers drop the contribution and continue with rule-engine findings
// alone (§7 subprocess failure/timeout).
func (r *Runner) RunFile(ctx context.Context, path string) ([]model.Finding, error) {
	ctx, cancel := context.WithTimeout(ctx, PerFileBudget)
	defer cancel()
	return r.run(ctx, append(append([]string{}, r.Args...), path))
}

// RunBatch invokes the analyzer against every path in one subprocess
// call within AsyncBudget, for callers that want the bounded-worker-pool
// parallelism §5 allows without spawning one process per file.
func (r *Runner) RunBatch(ctx context.Context, paths []string) ([]model.Finding, error) {
	ctx, cancel := context.WithTimeout(ctx, AsyncBudget)
	defer cancel()
	return r.run(ctx, append(append([]string{}, r.Args...), paths...))
}

func (r *Runner) run(ctx context.Context, args []string) ([]model.Finding, error) {
	cmd := exec.CommandContext(ctx, r.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out after budget: %w", r.Command, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w: %s", r.Command, err, stderr.String())
	}

	var findings []model.Finding
	if err := json.Unmarshal(stdout.Bytes(), &findings); err != nil {
		return nil, fmt.Errorf("decode %s output: %w", r.Command, err)
	}
	return findings, nil
}
