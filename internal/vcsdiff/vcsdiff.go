// Package vcsdiff resolves the repo root, the current branch, and the
// staged file list, and parses a zero-context unified diff into per-file
// changed line sets (§6 VCS protocol).
package vcsdiff

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// Client wraps the four git subprocess invocations the review engine
// needs, in the teacher's exec.Command + captured-stderr style.
type Client struct {
	WorkDir string
}

// NewClient returns a Client rooted at workDir (the process cwd or an
// explicit override).
func NewClient(workDir string) *Client {
	return &Client{WorkDir: workDir}
}

func (c *Client) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if c.WorkDir != "" {
		cmd.Dir = c.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, errMsg)
		}
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// RepoRoot invokes `git rev-parse --show-toplevel`.
func (c *Client) RepoRoot() (string, error) {
	out, err := c.run("rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Branch invokes `git rev-parse --abbrev-ref HEAD`.
func (c *Client) Branch() (string, error) {
	out, err := c.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// StagedFiles invokes `git diff --cached --name-only`.
func (c *Client) StagedFiles() ([]string, error) {
	out, err := c.run("diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// StagedDiffNoContext invokes `git diff --staged -U0`, the single call
// whose hunk headers are parsed into per-file changed-line sets.
func (c *Client) StagedDiffNoContext() (string, error) {
	return c.run("diff", "--staged", "-U0")
}
