package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/veyrune/capprobe/internal/adapters/render/status"
	"github.com/veyrune/capprobe/internal/adapters/repo/jsonfile"
	"github.com/veyrune/capprobe/internal/application"
	"github.com/veyrune/capprobe/internal/domain"
)

func newStatusCmd(app *app) *cobra.Command {
	var characterFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the cached capability snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var view application.CharacterStatus

			if characterFlag == "" {
				view = app.probeService.Status()
			} else {
				loaded, err := application.LoadCharacterStatus(cmd.Context(), app.repo, domain.CharacterName(characterFlag))
				if err != nil {
					if !errors.Is(err, domain.ErrSnapshotCorrupt) {
						return err
					}
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: snapshot for %q is corrupt, showing empty defaults\n", characterFlag)
				}
				view = loaded
			}

			if asJSON {
				data, err := jsonfile.EncodeSnapshot(view.Capabilities)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			rendered, err := app.statusRenderer(view, statusadapter.RenderOptions{
				Now: app.now(),
				TTL: app.probeService.TTL(),
			})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&characterFlag, "character", "", "Show a stored character's snapshot instead of the active one")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw snapshot document")

	return cmd
}
