package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/pkg/errors"
)

func (c *cli) facesCommand() *cobra.Command {
	facesCmd := &cobra.Command{
		Use:     "faces",
		Aliases: []string{"face"},
		Short:   "Управление зарегистрированными лицами",
	}

	facesCmd.AddCommand(c.facesListCommand())
	facesCmd.AddCommand(c.facesAddCommand())
	facesCmd.AddCommand(c.facesRemoveCommand())

	return facesCmd
}

func (c *cli) facesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Показать зарегистрированные лица",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			err := app.Protect(cmd.Context(), func(ctx context.Context) error {
				if err := app.Faces.Refresh(ctx); err != nil {
					return err
				}
				return app.Renderer.Faces(app.Faces.Items())
			})
			return c.handleError(cmd, err)
		},
	}
}

func (c *cli) facesAddCommand() *cobra.Command {
	var name, file string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Зарегистрировать лицо",
		Long: `Загружает изображение лица с именем.

Пример:
  faceguard faces add --name "Alice" --file alice.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			upload := models.FaceUpload{Name: name}
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return c.handleError(cmd, errors.Wrap(err, errors.ErrValidation, fmt.Sprintf("cannot open image: %s", file)))
				}
				defer f.Close()
				upload.FileName = filepath.Base(file)
				upload.Image = f
			}
			if err := upload.Validate(); err != nil {
				return c.handleError(cmd, errors.Wrap(err, errors.ErrValidation, err.Error()))
			}

			app := c.app
			err := app.Protect(cmd.Context(), func(ctx context.Context) error {
				face, err := app.Faces.Create(ctx, upload)
				if err != nil {
					return err
				}
				return app.Renderer.Face(face)
			})
			return c.handleError(cmd, err)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "имя (обязательно)")
	cmd.Flags().StringVar(&file, "file", "", "файл изображения (обязательно)")

	return cmd
}

func (c *cli) facesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Удалить зарегистрированное лицо",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return c.handleError(cmd, err)
			}

			app := c.app
			err = app.Protect(cmd.Context(), func(ctx context.Context) error {
				if err := app.Faces.Remove(ctx, id); err != nil {
					return err
				}
				return app.Renderer.Success(cmd.CommandPath(), fmt.Sprintf("Лицо %d удалено", id))
			})
			return c.handleError(cmd, err)
		},
	}
}
