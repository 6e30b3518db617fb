// Package cmd contains the CLI wiring for revguard.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the current version of revguard.
var Version = "0.1.0"

var (
	outputFormat string
	installHook  bool
)

// rootCmd represents the base command. With no subcommand and no
// positional arguments it runs in hook mode (§6 CLI surface): staged
// files are auto-detected via git. Positional arguments switch to
// explicit-file mode, reviewing exactly those paths.
var rootCmd = &cobra.Command{
	Use:   "revguard",
	Short: "Pre-commit code review engine",
	Long: `revguard is a pre-commit code review engine for Java-like codebases.

It inspects staged changes, runs a rule engine over the touched lines, and
traces the blast radius of a change through the codebase's dependency graph
so a reviewer sees both what looks wrong and what else the change might
break.

Usage:
  revguard                  # hook mode: review currently staged files
  revguard --install        # install the git pre-commit hook
  revguard Foo.java Bar.java  # review exactly these files

See 'revguard <command> --help' for subcommand-specific options.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute adds all child commands and runs the root command. Called
// once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "yaml", "Output format (yaml|json)")
	rootCmd.Flags().BoolVar(&installHook, "install", false, "Install the git pre-commit hook")
}
