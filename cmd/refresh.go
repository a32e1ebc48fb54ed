package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/veyrune/capprobe/internal/adapters/render/status"
	"github.com/veyrune/capprobe/internal/domain"
)

func newRefreshCmd(app *app) *cobra.Command {
	var categoryFlag string
	var verify bool
	var background bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Probe the game client and update the snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if background {
				app.probeService.RefreshAllBackground(cmd.Context())
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Background refresh started.")
				return err
			}

			stages, err := buildProbeStages(app, categoryFlag, verify)
			if err != nil {
				return err
			}

			if err := runProbeStages(cmd.Context(), cmd.OutOrStdout(), stages); err != nil {
				return err
			}

			rendered, err := app.statusRenderer(app.probeService.Status(), statusadapter.RenderOptions{
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

	cmd.Flags().StringVar(&categoryFlag, "category", "", "Probe one category only (mounts, ui, skills, inventory)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Physically try each unverified mount before trusting it")
	cmd.Flags().BoolVar(&background, "background", false, "Fire the refresh and return immediately")

	return cmd
}

// buildProbeStages turns the refresh flags into the stage list the progress
// display walks through. A plain refresh stays a single stage so the
// configured verify default keeps applying.
func buildProbeStages(app *app, categoryFlag string, verify bool) ([]probeStage, error) {
	if categoryFlag != "" {
		category, err := domain.ParseCategory(categoryFlag)
		if err != nil {
			return nil, err
		}
		return []probeStage{{label: string(category), run: func(ctx context.Context) error {
			app.probeService.ProbeCategory(ctx, category, verify)
			return nil
		}}}, nil
	}

	if verify {
		stages := make([]probeStage, 0, len(domain.Categories()))
		for _, category := range domain.Categories() {
			stages = append(stages, probeStage{label: string(category), run: func(ctx context.Context) error {
				app.probeService.ProbeCategory(ctx, category, true)
				return nil
			}})
		}
		return stages, nil
	}

	return []probeStage{{label: "all categories", run: func(ctx context.Context) error {
		app.probeService.RefreshAll(ctx)
		return nil
	}}}, nil
}
