package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-backend/internal/app"
	"github.com/yungbote/neurobridge-backend/internal/platform/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP+SSE gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := shutdown.NotifyContext(context.Background())
		defer cancel()

		if err := a.Start(ctx); err != nil {
			return err
		}

		a.Log.Info("gateway starting", "port", a.Cfg.Port)
		return a.Run(ctx)
	},
}
