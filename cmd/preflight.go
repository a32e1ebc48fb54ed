package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veyrune/capprobe/internal/domain"
)

var errPreflightUnsatisfied = errors.New("preflight unsatisfied")

func newPreflightCmd(app *app) *cobra.Command {
	var requireFlag []string
	var verify bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Refresh required capabilities and report whether they are usable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			required := make([]domain.Category, 0, len(requireFlag))
			for _, raw := range requireFlag {
				// Unknown names still go through so the report carries an
				// unsatisfied check for them instead of the command dying.
				required = append(required, domain.Category(strings.ToLower(strings.TrimSpace(raw))))
			}

			report := app.probeService.EnsurePreflight(cmd.Context(), required, verify)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				for _, check := range report.Checks {
					verdict := "miss"
					if check.Satisfied {
						verdict = "pass"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %s\n", verdict, string(check.Category), check.Message)
				}
			}

			if !report.Satisfied() {
				return errPreflightUnsatisfied
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&requireFlag, "require", nil, "Capabilities that must be fresh (default mounts)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Physically try each unverified mount before trusting it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full preflight report as JSON")

	return cmd
}
