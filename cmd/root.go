package cmd

import (
	"github.com/spf13/cobra"

	"go.uber.org/zap/zapcore"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "capprobe",
		Short:         "Capability probe: cached runtime facts about the game client",
		Long:          "capprobe keeps a per-character cache of runtime facts (usable mounts, UI settings, learned skills, essential items) about the game client, refreshed on a TTL and persisted as JSON snapshots.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Force debug logging")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if verbose {
			app.logLevel.SetLevel(zapcore.DebugLevel)
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(app),
		newRefreshCmd(app),
		newPreflightCmd(app),
		newCharacterCmd(app),
		newWatchCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
