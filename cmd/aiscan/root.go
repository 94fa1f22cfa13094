package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/startup"

	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	verbose bool
	dbPath  string
	// env supplies flag defaults from the same variables the server reads.
	env *startup.Config
}

func newRootCmd() *cobra.Command {
	env := envDefaults()
	opts := &rootOptions{dbPath: env.DatabasePath, env: env}

	cmd := &cobra.Command{
		Use:   "aiscan",
		Short: "Extract generation metadata from AI images",
		Long: `aiscan walks a directory of PNG, JPEG and WebP images, decodes the
generation parameters embedded by Stable Diffusion front ends, NovelAI and
ComfyUI, and stores prompts, settings and tags in a SQLite library.`,
		Version:      startup.Version,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			} else {
				logging.SetLevel(logging.LevelWarn)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", opts.dbPath, "path to the library database")
	cmd.SetVersionTemplate(fmt.Sprintf(
		"aiscan %s (%s/%s, %s)\n",
		startup.Version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))

	cmd.AddCommand(newScanCmd(opts), newStatusCmd(opts))
	return cmd
}

// envDefaults reads the server configuration, falling back to the built-in
// defaults when the environment cannot be resolved.
func envDefaults() *startup.Config {
	cfg, err := startup.FromEnv()
	if err != nil {
		logging.Warn("Ignoring environment: %v", err)
		return &startup.Config{
			DatabasePath: filepath.Join(startup.DefaultDatabaseDir, startup.DatabaseFileName),
			SkipHidden:   true,
			MaxFileSize:  startup.DefaultMaxFileSize,
		}
	}
	return cfg
}
