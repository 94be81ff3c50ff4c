package cli

import (
	"github.com/spf13/cobra"

	"cicstask/dto"
	"cicstask/notification"
	"cicstask/services"
	"cicstask/stats"
)

func newStatsCommand(open opener) *cobra.Command {
	var (
		today      string
		assignee   string
		byAssignee bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print completion statistics",
		Args:  cobra.NoArgs,
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
			tasks, err := app.Store.ListTasks(cmd.Context(), services.TaskFilter{AssignedToID: assignee})
			if err != nil {
				return err
			}

			if byAssignee {
				per, warnings := stats.ByAssignee(tasks, day)
				return writeJSON(cmd.OutOrStdout(), dto.AssigneeStatsResponse{Assignees: per, Warnings: warnings})
			}
			res := app.Stats.Aggregate(cmd.Context(), tasks, day)
			return writeJSON(cmd.OutOrStdout(), dto.StatsResponse{Stats: res.Stats, Warnings: res.Warnings})
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only tasks assigned to this user id")
	cmd.Flags().BoolVar(&byAssignee, "by-assignee", false, "break the counts down per assignee")
	return cmd
}

func newNotifyCommand(open opener) *cobra.Command {
	var (
		today    string
		assignee string
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Print the notifications due as of a day",
		Args:  cobra.NoArgs,
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
			tasks, err := app.Store.ListTasks(cmd.Context(), services.TaskFilter{AssignedToID: assignee})
			if err != nil {
				return err
			}

			list, warnings := notification.Schedule(tasks, day)
			return writeJSON(cmd.OutOrStdout(), dto.NotificationsResponse{Notifications: list, Warnings: warnings})
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only tasks assigned to this user id")
	return cmd
}
