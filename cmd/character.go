package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/veyrune/capprobe/internal/adapters/render/status"
	"github.com/veyrune/capprobe/internal/domain"
)

func newCharacterCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "character",
		Short: "Show or switch the active character namespace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			character := app.probeService.CurrentCharacter()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "character: %s\n", character)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "snapshot: %s\n", app.repo.Path(character))
			return nil
		},
	}

	cmd.AddCommand(
		newCharacterSetCmd(app),
		newCharacterListCmd(app),
	)

	return cmd
}

func newCharacterSetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Switch the active character and reload its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.probeService.SetCurrentCharacter(cmd.Context(), domain.CharacterName(args[0])); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active character is now %s\n", app.probeService.CurrentCharacter())
			return nil
		},
	}
}

func newCharacterListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every character with a stored snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			overviews, err := app.rosterService.List(cmd.Context())
			if err != nil {
				return err
			}

			rendered, err := app.rosterRenderer(overviews, statusadapter.RenderOptions{
				Now: app.now(),
				TTL: app.probeService.TTL(),
			})
			if err != nil {
				return fmt.Errorf("render roster: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}
}
