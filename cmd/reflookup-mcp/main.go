package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sha1n/mcp-reflookup-server/internal/app"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "reflookup-mcp"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		app.NewRenderer(os.Stderr).Error(err)
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := newRootCommand(version, programName, app.DefaultCommandParams())
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func newRootCommand(version, programName string, params app.CommandParams) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Reference lookup MCP server",
		Long:          "Serves error codes, status codes and other reference constants to MCP clients and the terminal",
		Version:       version,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.Flags())
	app.RegisterReferenceFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newSearchCommand(params),
		newCategoriesCommand(params),
		newExportCommand(params),
	)

	return rootCmd
}

func newSearchCommand(params app.CommandParams) *cobra.Command {
	var (
		limit    int
		category string
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Look up references by code, value or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunSearch(cmd.Context(), params, cmd.Flags(), args[0], category, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of results (0 uses the configured max results)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show references in this category")
	return cmd
}

func newCategoriesCommand(params app.CommandParams) *cobra.Command {
	return &cobra.Command{
		Use:   "categories [category]",
		Short: "List categories, or the references in one category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			return app.RunCategories(cmd.Context(), params, cmd.Flags(), category)
		},
	}
}

func newExportCommand(params app.CommandParams) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the loaded references as a JSON or YAML dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunExport(cmd.Context(), params, cmd.Flags(), out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runWithFlags(flags *pflag.FlagSet, version string) error {
	return app.RunWithDeps(context.Background(), app.DefaultRunParams(), flags, version)
}
