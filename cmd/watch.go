package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	filesource "github.com/veyrune/capprobe/internal/adapters/charsource/file"
	"github.com/veyrune/capprobe/internal/adapters/watch"
	"github.com/veyrune/capprobe/internal/domain"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the TTL refresh loop and follow bootstrap character switches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.probeService.StartLoop()
			defer app.probeService.StopLoop()

			onChange := func(name domain.CharacterName) {
				if err := app.probeService.SetCurrentCharacter(context.Background(), name); err != nil {
					app.logger.Warn("character switch failed", zap.Error(err))
				}
			}

			watcher, err := watch.NewCharacterWatcher(app.bootstrapPath, filesource.NewSource(app.bootstrapPath), onChange, app.logger)
			if err != nil {
				return fmt.Errorf("wire bootstrap watcher: %w", err)
			}
			if err := watcher.Start(); err != nil {
				// The bootstrap directory may not exist yet; proceed loop-only.
				app.logger.Warn("bootstrap watcher not started", zap.Error(err))
			}
			defer watcher.Stop()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Probing %s every %s, watching %s. Press Ctrl-C to stop.\n",
				app.probeService.CurrentCharacter(), app.probeService.TTL(), app.bootstrapPath)

			<-ctx.Done()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Stopping.")
			return nil
		},
	}
}
