package cmd

import (
	"github.com/spf13/cobra"

	"FaceGuardConsole/pkg/health"
)

func (c *cli) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Проверить доступность бэкенда и хранилища токена",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			status := app.Health.Check(cmd.Context())
			if err := app.Renderer.Health(status, app.Health.Names()); err != nil {
				return err
			}
			if status.Status != health.StatusHealthy {
				return ErrReported
			}
			return nil
		},
	}
}
