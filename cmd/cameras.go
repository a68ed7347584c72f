package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/pkg/errors"
)

func (c *cli) camerasCommand() *cobra.Command {
	camerasCmd := &cobra.Command{
		Use:     "cameras",
		Aliases: []string{"camera"},
		Short:   "Управление камерами",
		Long:    `Просмотр, добавление, изменение, удаление и проверка связи камер.`,
	}

	camerasCmd.AddCommand(c.camerasListCommand())
	camerasCmd.AddCommand(c.camerasAddCommand())
	camerasCmd.AddCommand(c.camerasUpdateCommand())
	camerasCmd.AddCommand(c.camerasRemoveCommand())
	camerasCmd.AddCommand(c.camerasTestCommand())

	return camerasCmd
}

func (c *cli) camerasListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Показать камеры",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			err := app.Protect(cmd.Context(), func(ctx context.Context) error {
				if err := app.Cameras.Refresh(ctx); err != nil {
					return err
				}
				return app.Renderer.Cameras(app.Cameras.Items())
			})
			return c.handleError(cmd, err)
		},
	}
}

func (c *cli) camerasAddCommand() *cobra.Command {
	var form models.CameraForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Добавить камеру",
		Long: `Добавляет камеру. Для webcam сетевые параметры не отправляются.

Примеры:
  faceguard cameras add --type webcam --name "Desk"
  faceguard cameras add --type ip --name Gate --address 192.168.1.20 --port 554 --username admin --password secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := models.NewCameraInput(form)
			if err != nil {
				return c.handleError(cmd, errors.Wrap(err, errors.ErrValidation, err.Error()))
			}

			app := c.app
			err = app.Protect(cmd.Context(), func(ctx context.Context) error {
				camera, err := app.Cameras.Create(ctx, input)
				if err != nil {
					return err
				}
				return app.Renderer.Camera(camera)
			})
			return c.handleError(cmd, err)
		},
	}

	cmd.Flags().StringVar(&form.Type, "type", string(models.CameraTypeIP), "тип камеры (ip, webcam)")
	cmd.Flags().StringVar(&form.Name, "name", "", "название камеры (обязательно)")
	cmd.Flags().StringVar(&form.Brand, "brand", "", "производитель")
	cmd.Flags().StringVar(&form.Address, "address", "", "IP адрес")
	cmd.Flags().StringVar(&form.Port, "port", "", "порт")
	cmd.Flags().StringVar(&form.Username, "username", "", "имя пользователя")
	cmd.Flags().StringVar(&form.Password, "password", "", "пароль")
	cmd.MarkFlagRequired("name")

	return cmd
}

func (c *cli) camerasUpdateCommand() *cobra.Command {
	var (
		name, brand, cameraType, address string
		username, password, status       string
		port                             int
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Изменить камеру",
		Long:  `Отправляет только указанные поля.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return c.handleError(cmd, err)
			}

			var update models.CameraUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				update.Name = &name
			}
			if flags.Changed("brand") {
				update.Brand = &brand
			}
			if flags.Changed("type") {
				t, err := models.ParseCameraType(cameraType)
				if err != nil {
					return c.handleError(cmd, errors.Wrap(err, errors.ErrValidation, err.Error()))
				}
				update.Type = &t
			}
			if flags.Changed("address") {
				update.IPAddress = &address
			}
			if flags.Changed("port") {
				update.Port = &port
			}
			if flags.Changed("username") {
				update.Username = &username
			}
			if flags.Changed("password") {
				update.Password = &password
			}
			if flags.Changed("status") {
				s := models.CameraStatus(status)
				update.Status = &s
			}

			app := c.app
			err = app.Protect(cmd.Context(), func(ctx context.Context) error {
				camera, err := app.Cameras.Update(ctx, id, update)
				if err != nil {
					return err
				}
				return app.Renderer.Camera(camera)
			})
			return c.handleError(cmd, err)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "название камеры")
	cmd.Flags().StringVar(&brand, "brand", "", "производитель")
	cmd.Flags().StringVar(&cameraType, "type", "", "тип камеры (ip, webcam)")
	cmd.Flags().StringVar(&address, "address", "", "IP адрес")
	cmd.Flags().IntVar(&port, "port", 0, "порт")
	cmd.Flags().StringVar(&username, "username", "", "имя пользователя")
	cmd.Flags().StringVar(&password, "password", "", "пароль")
	cmd.Flags().StringVar(&status, "status", "", "статус (active, inactive, disabled)")

	return cmd
}

func (c *cli) camerasRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Удалить камеру",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return c.handleError(cmd, err)
			}

			app := c.app
			err = app.Protect(cmd.Context(), func(ctx context.Context) error {
				if err := app.Cameras.Remove(ctx, id); err != nil {
					return err
				}
				return app.Renderer.Success(cmd.CommandPath(), fmt.Sprintf("Камера %d удалена", id))
			})
			return c.handleError(cmd, err)
		},
	}
}

func (c *cli) camerasTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <id>",
		Short: "Проверить связь с камерой",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return c.handleError(cmd, err)
			}

			app := c.app
			err = app.Protect(cmd.Context(), func(ctx context.Context) error {
				result, err := app.Cameras.Test(ctx, id)
				if err != nil {
					return err
				}
				return app.Renderer.CameraTest(id, result)
			})
			return c.handleError(cmd, err)
		},
	}
}

// parseID разбирает идентификатор сущности из аргумента
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrValidation, fmt.Sprintf("invalid id: %q", s))
	}
	return id, nil
}
