// Package cli wires the cicstask commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cicstask/config"
	"cicstask/connection"
	"cicstask/logger"
	"cicstask/workday"
)

// opener builds the application backends for a command.
type opener func(ctx context.Context) (*connection.App, error)

func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, openFromEnv)
}

func newRootCommand(version string, open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "cicstask",
		Short: "Task assignment backend with deadlines, notifications and recurring tasks",
		Long: `cicstask serves the task API and runs the recurring-task engine.

Configuration comes from the environment, with an optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(open),
		newRecurCommand(open),
		newStatsCommand(open),
		newNotifyCommand(open),
	)
	return root
}

func openFromEnv(ctx context.Context) (*connection.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	app, err := connection.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open backends", zap.Error(err))
		return nil, err
	}
	return app, nil
}

// dayFlag resolves --today, defaulting to the current day in the app's zone.
func dayFlag(app *connection.App, value string) (time.Time, error) {
	if value == "" {
		return workday.Date(time.Now().In(app.Config.Location())), nil
	}
	d, err := workday.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--today: %w", err)
	}
	return d, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
