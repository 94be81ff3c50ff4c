package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cicstask/connection"
	"cicstask/scheduler"
)

func newServeCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API",
		Long: `Serve the task API until interrupted.

With SCHEDULER_ENABLED=true the recurring-task engine also runs once at
startup and then daily at SCHEDULER_HOUR in TIMEZONE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Config.SchedulerEnabled {
				s := scheduler.New(app.Engine, app.Stats, app.Config.SchedulerHour, app.Config.Location(), app.Log.Named("scheduler"))
				go s.Start(ctx)
			}
			return connection.StartServer(ctx, app)
		},
	}
}
