package cmd

import (
	"github.com/spf13/cobra"
)

func (c *cli) plansCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "plans",
		Aliases: []string{"packages"},
		Short:   "Показать тарифы",
		Long:    `Показывает доступные тарифы. Вход не требуется.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := c.app.Gateway.Packages(cmd.Context())
			if err != nil {
				return c.handleError(cmd, err)
			}
			return c.app.Renderer.Plans(plans)
		},
	}
}
