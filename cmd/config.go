package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// configTemplate mirrors every supported configuration key with its default
// value, so `config init` produces a file that documents itself.
type configTemplate struct {
	Profiles  profilesSection  `toml:"profiles" comment:"Where per-character capability snapshots live."`
	Bootstrap bootstrapSection `toml:"bootstrap" comment:"The file the game tooling writes the active character into."`
	Probe     probeSection     `toml:"probe" comment:"Refresh cadence and verification policy."`
	Client    clientSection    `toml:"client" comment:"How to reach the game client. Mode: none, sim, or shell."`
	Sim       simSection       `toml:"sim" comment:"Deterministic answers used when client.mode is sim."`
	Logging   loggingSection   `toml:"logging"`
}

type profilesSection struct {
	Dir string `toml:"dir"`
}

type bootstrapSection struct {
	Path string `toml:"path"`
}

type probeSection struct {
	TTL          string `toml:"ttl"`
	ErrorBackoff string `toml:"error_backoff"`
	Verify       bool   `toml:"verify"`
}

type clientSection struct {
	Mode        string   `toml:"mode"`
	DetectCmd   []string `toml:"detect_cmd"`
	BestCmd     []string `toml:"best_cmd"`
	MountCmd    []string `toml:"mount_cmd"`
	DismountCmd []string `toml:"dismount_cmd"`
	Timeout     string   `toml:"timeout"`
	ActionPace  string   `toml:"action_pace"`
}

type simSection struct {
	Mounts    []string `toml:"mounts"`
	BestMount string   `toml:"best_mount"`
	Mountable []string `toml:"mountable"`
}

type loggingSection struct {
	Level string `toml:"level"`
}

func defaultConfigTemplate() configTemplate {
	return configTemplate{
		Profiles:  profilesSection{Dir: "profiles/runtime"},
		Bootstrap: bootstrapSection{Path: "profiles/runtime/your_character.json"},
		Probe:     probeSection{TTL: "300s", ErrorBackoff: "30s", Verify: false},
		Client: clientSection{
			Mode:        clientModeNone,
			DetectCmd:   []string{},
			BestCmd:     []string{},
			MountCmd:    []string{},
			DismountCmd: []string{},
			Timeout:     "10s",
			ActionPace:  "1500ms",
		},
		Sim:     simSection{Mounts: []string{}, BestMount: "", Mountable: []string{}},
		Logging: loggingSection{Level: "info"},
	}
}

func newConfigCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the capprobe configuration file",
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigPathCmd(app),
	)

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default capprobe.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := toml.Marshal(defaultConfigTemplate())
			if err != nil {
				return fmt.Errorf("encode config template: %w", err)
			}

			path := filepath.Join(dir, "capprobe.toml")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write config template: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write capprobe.toml into")

	return cmd
}

func newConfigPathCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			used := app.cfg.ConfigFileUsed()
			if used == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no config file found, using defaults")
				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), used)
			return nil
		},
	}
}
