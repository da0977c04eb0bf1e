// Package cli implements the image-grid command-line interface.
//
// # Commands
//
//   - generate: pack a directory of images into collage files
//   - pool: summarize the candidate images of a directory
//   - serve: run the MCP server on stdio
//
// Every command accepts --config for a TOML file; flags override it. Logs go
// to stderr at info level, or debug with --verbose (or IMAGE_GRID_LOG_LEVEL).
// Loggers are passed to commands through context.Context.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-grid/internal/config"
)

const appName = "image-grid"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion sets the version information displayed by --version. main
// calls it with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the CLI with ctx.
func Execute(ctx context.Context) error {
	return RootCommand().ExecuteContext(ctx)
}

// RootCommand creates the root command with all subcommands registered.
func RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           appName,
		Short:         "image-grid packs directories of images into collages",
		Long:          `image-grid fills large canvases with images of any size, placing each at its native size where it fits and scaling it where it does not.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := newLogger(cmd.ErrOrStderr(), logLevel(verbose))
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(generateCommand())
	root.AddCommand(poolCommand())
	root.AddCommand(serveCommand())

	return root
}

// loadConfig returns Default overlaid by the file at path, if any.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return config.Load(path)
}
