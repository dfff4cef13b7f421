package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-backend/internal/app"
)

var runTasksCmd = &cobra.Command{
	Use:   "run-tasks",
	Short: "drain the task queue once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.TaskRunner.DrainOnce(context.Background())
		if err != nil {
			return err
		}
		a.Log.Info("task drain complete",
			"dequeued", res.Dequeued,
			"completed", res.Completed,
			"failed", res.Failed,
			"skipped", res.Skipped,
		)
		return nil
	},
}
