package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"FaceGuardConsole/internal/config"
	"FaceGuardConsole/pkg/errors"
)

// skipApp помечает команды, которым не нужны сессия и шлюз
const skipApp = "skip-app"

func (c *cli) configCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Управление конфигурацией",
		Long:  `Создание и просмотр файла конфигурации консоли.`,
	}

	configCmd.AddCommand(c.configInitCommand())
	configCmd.AddCommand(c.configViewCommand())

	return configCmd
}

func (c *cli) configInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Инициализировать конфигурацию",
		Long:        "Создать файл конфигурации с настройками по умолчанию",
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				if path = c.viper.GetString("config"); path == "" {
					var err error
					if path, err = config.GetConfigPath(); err != nil {
						return err
					}
				}
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(c.errOut, "✗ Файл конфигурации %s уже существует. Используйте --force для перезаписи\n", path)
					return ErrReported
				}
			}

			cfg := config.DefaultConfig()
			cfg.Path = path
			if err := cfg.Save(); err != nil {
				fmt.Fprintf(c.errOut, "✗ Ошибка сохранения конфигурации: %v\n", err)
				return ErrReported
			}

			fmt.Fprintf(c.out, "✓ Конфигурация создана: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "путь для создания конфигурации")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "перезаписать существующий файл")

	return cmd
}

func (c *cli) configViewCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Просмотреть конфигурацию",
		Long:  "Показать действующую конфигурацию с учетом переменных окружения и флагов",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *c.app.Config
			if !showSecrets && cfg.Credentials.Redis.Password != "" {
				cfg.Credentials.Redis.Password = "********"
			}

			fmt.Fprintf(c.errOut, "# %s\n", cfg.Path)
			if err := c.app.Renderer.Document(cfg); err != nil {
				return c.handleError(cmd, errors.Wrap(err, errors.ErrInternal, "ошибка вывода конфигурации"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showSecrets, "show-secrets", "x", false, "показать секретные данные")
	return cmd
}
