package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Igneous/elasticsearch-river-jira/internal/app"
)

var (
	// Version is injected at build time.
	Version = "dev"
	// Build is injected at build time.
	Build = "unknown"
	// ProgramName is injected at build time.
	ProgramName = "jira-river"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the CLI entry point, extracted from main for testability.
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Jira River issue indexer",
		Long:    "Mirrors issues from an upstream Jira-like tracker into a local full-text search index.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.Flags())
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func runWithFlags(flags *pflag.FlagSet, version string) error {
	ctx, cancel := app.NewSignalContext()
	defer cancel()
	return app.RunWithDeps(ctx, app.DefaultRunParams(), flags, version)
}
