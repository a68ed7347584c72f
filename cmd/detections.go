package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"FaceGuardConsole/internal/collection"
)

func (c *cli) detectionsCommand() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:     "detections",
		Aliases: []string{"log"},
		Short:   "Показать журнал обнаружений",
		Long: `Показывает страницу журнала обнаружений в порядке бэкенда.

Пример:
  faceguard detections --limit 20 --offset 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			if !cmd.Flags().Changed("limit") {
				limit = app.Config.Detections.PageSize
			}

			err := app.Protect(cmd.Context(), func(ctx context.Context) error {
				if err := app.Detections.RefreshPage(ctx, limit, offset); err != nil {
					return err
				}
				page := app.Detections.Page()
				return app.Renderer.Detections(app.Detections.Items(), page.Limit, page.Offset)
			})
			return c.handleError(cmd, err)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", collection.DefaultDetectionLimit, "размер страницы")
	cmd.Flags().IntVar(&offset, "offset", collection.DefaultDetectionOffset, "смещение")

	return cmd
}
