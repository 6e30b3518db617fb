// Command revguard is a pre-commit code review engine for Java-like
// codebases: it inspects staged changes, runs a rule engine over the
// touched lines, and traces the blast radius of a change through the
// codebase's dependency graph.
package main

import "github.com/sindudeva/revguard/internal/cmd"

func main() {
	cmd.Execute()
}
