package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cicstask/dto"
)

func newRecurCommand(open opener) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Run one pass of the recurring-task engine",
		Long: `Spawn every due child task of every recurring template and schedule
the next occurrences. Running it again for the same day spawns nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			day, err := dayFlag(app, today)
			if err != nil {
				return err
			}

			res, runErr := app.Engine.Run(cmd.Context(), day)
			if len(res.Spawned) > 0 {
				app.Stats.Invalidate(cmd.Context())
			}
			out := dto.RecurrenceRunResponse{Spawned: res.Spawned, Warnings: res.Warnings, Errors: []string{}}
			for _, f := range res.Failures {
				out.Errors = append(out.Errors, f.Error())
			}
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("recurrence pass incomplete: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this day (YYYY-MM-DD)")
	return cmd
}
