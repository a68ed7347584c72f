package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"FaceGuardConsole/internal/auth"
	"FaceGuardConsole/internal/config"
	"FaceGuardConsole/internal/output"
	"FaceGuardConsole/internal/store"
	"FaceGuardConsole/pkg/errors"
	"FaceGuardConsole/pkg/logger"
)

// ErrReported означает, что ошибка уже показана оператору
var ErrReported = stderrors.New("error already reported")

// Execute выполняет консоль с аргументами процесса
func Execute(ctx context.Context, version string) error {
	return Run(ctx, version, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run выполняет одну команду и освобождает ресурсы приложения
func Run(ctx context.Context, version string, args []string, in io.Reader, out, errOut io.Writer) error {
	c := newCLI(version, out, errOut)
	defer c.teardown()

	rootCmd := c.rootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	return rootCmd.ExecuteContext(ctx)
}

// cli - общее состояние одного запуска команды
type cli struct {
	version string
	out     io.Writer
	errOut  io.Writer
	viper   *viper.Viper
	app     *App
}

func newCLI(version string, out, errOut io.Writer) *cli {
	v := viper.New()
	// FACEGUARD_OUTPUT_FORMAT, FACEGUARD_CONFIG и т.д.
	v.SetEnvPrefix("FACEGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &cli{
		version: version,
		out:     out,
		errOut:  errOut,
		viper:   v,
	}
}

// rootCommand собирает дерево команд
func (c *cli) rootCommand() *cobra.Command {
	version, out, errOut := c.version, c.out, c.errOut
	rootCmd := &cobra.Command{
		Use:   "faceguard",
		Short: "FaceGuard - консоль оператора системы распознавания лиц",
		Long: `FaceGuard - консоль оператора для сервиса обнаружения лиц на камерах.

Позволяет управлять камерами, регистрировать эталонные лица,
просматривать журнал обнаружений и сводку панели.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "файл конфигурации (по умолчанию ~/.faceguard/config.yaml)")
	flags.String("api-url", "", "адрес API бэкенда")
	flags.StringP("output", "o", "", "формат вывода (table, json, yaml)")
	flags.String("log-level", "", "уровень логирования (debug, info, warn, error)")
	flags.String("credentials", "", "хранилище токена (file, redis, memory)")
	flags.Bool("no-color", false, "отключить цвета")

	c.viper.BindPFlag("config", flags.Lookup("config"))
	c.viper.BindPFlag("api.base_url", flags.Lookup("api-url"))
	c.viper.BindPFlag("output.format", flags.Lookup("output"))
	c.viper.BindPFlag("logger.level", flags.Lookup("log-level"))
	c.viper.BindPFlag("credentials.backend", flags.Lookup("credentials"))
	c.viper.BindPFlag("output.no_color", flags.Lookup("no-color"))

	rootCmd.AddCommand(c.configCommand())
	rootCmd.AddCommand(c.authCommand())
	rootCmd.AddCommand(c.camerasCommand())
	rootCmd.AddCommand(c.facesCommand())
	rootCmd.AddCommand(c.detectionsCommand())
	rootCmd.AddCommand(c.dashboardCommand())
	rootCmd.AddCommand(c.plansCommand())
	rootCmd.AddCommand(c.healthCommand())
	rootCmd.AddCommand(c.versionCommand())

	return rootCmd
}

// setup загружает конфигурацию и собирает приложение
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipApp] != "" {
		return nil
	}

	dirs := []string{"."}
	if home, err := store.DefaultHome(); err == nil {
		dirs = append([]string{home}, dirs...)
	}
	if err := config.LoadDotEnv(dirs...); err != nil {
		fmt.Fprintf(c.errOut, "Ошибка конфигурации: %v\n", err)
		return ErrReported
	}

	cfg, err := c.loadConfig()
	if err != nil {
		fmt.Fprintf(c.errOut, "Ошибка конфигурации: %v\n", err)
		return ErrReported
	}

	app, err := NewApp(cmd.Context(), cfg, c.version, c.out, c.errOut)
	if err != nil {
		fmt.Fprintf(c.errOut, "Ошибка инициализации: %v\n", err)
		return ErrReported
	}
	c.app = app
	return nil
}

func (c *cli) teardown() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

// loadConfig читает файл конфигурации и применяет флаги поверх него
func (c *cli) loadConfig() (*config.Config, error) {
	path := c.viper.GetString("config")
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if url := c.viper.GetString("api.base_url"); url != "" {
		cfg.API.BaseURL = url
	}
	if format := c.viper.GetString("output.format"); format != "" {
		cfg.Output.Format = format
	}
	if level := c.viper.GetString("logger.level"); level != "" {
		cfg.Logger.Level = level
	}
	if backend := c.viper.GetString("credentials.backend"); backend != "" {
		cfg.Credentials.Backend = backend
	}
	if c.viper.GetBool("output.no_color") {
		cfg.Output.Colors = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// handleError логирует ошибку и показывает ее оператору
func (c *cli) handleError(cmd *cobra.Command, err error) error {
	if err == nil || stderrors.Is(err, ErrReported) {
		return err
	}
	// подсказка о входе уже выведена охранником
	if stderrors.Is(err, auth.ErrNotAuthenticated) {
		return ErrReported
	}

	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		appErr = errors.Wrap(err, errors.ErrInternal, err.Error())
	}

	app := c.app
	if app == nil {
		fmt.Fprintf(c.errOut, "✗ %s\n", output.UserMessage(appErr))
		return ErrReported
	}
	app.Logger.Debug("команда завершилась ошибкой",
		logger.String("command", cmd.CommandPath()),
		logger.String("error_type", string(appErr.Code)),
		logger.Error(err))

	w := c.errOut
	if app.Renderer.Format() != output.FormatTable {
		w = c.out
	}
	output.NewRenderer(w, app.Renderer.Format(), false).Error(cmd.CommandPath(), appErr)
	return ErrReported
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Показать версию",
		Annotations: map[string]string{skipApp: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.out, "FaceGuard Console v%s\n", c.version)
		},
	}
}
