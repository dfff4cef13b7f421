package cli

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "run database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New()
		if err != nil {
			return err
		}
		defer a.Close()
		a.Log.Info("migrations applied")
		return nil
	},
}
