package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"FaceGuardConsole/internal/models"
	"FaceGuardConsole/internal/output"
	"FaceGuardConsole/pkg/errors"
)

func (c *cli) authCommand() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Управление аутентификацией",
		Long:  `Вход, выход, регистрация и состояние сессии оператора.`,
	}

	authCmd.AddCommand(c.loginCommand())
	authCmd.AddCommand(c.logoutCommand())
	authCmd.AddCommand(c.registerCommand())
	authCmd.AddCommand(c.statusCommand())

	return authCmd
}

func (c *cli) loginCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Войти в систему",
		Long: `Обменивает email и пароль на токен доступа и сохраняет его.

Если email или пароль не указаны, они запрашиваются интерактивно.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			reader := bufio.NewReader(cmd.InOrStdin())

			email := ""
			if len(args) > 0 {
				email = args[0]
			}
			var err error
			if email == "" {
				if email, err = prompt(reader, c.errOut, "Email: "); err != nil {
					return c.handleError(cmd, err)
				}
			}
			if password == "" {
				if password, err = prompt(reader, c.errOut, "Password: "); err != nil {
					return c.handleError(cmd, err)
				}
			}

			if err := app.Session.Login(cmd.Context(), strings.TrimSpace(email), password); err != nil {
				return c.handleError(cmd, err)
			}

			name := email
			if profile, err := app.Session.Profile(); err == nil && profile.FullName != "" {
				name = profile.FullName
			}
			return app.Renderer.Success(cmd.CommandPath(), fmt.Sprintf("Вход выполнен: %s", name))
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "пароль")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Выйти из системы",
		Long:  `Удаляет сохраненный токен. Запрос к бэкенду не выполняется.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Session.Logout()
			return c.app.Renderer.Success(cmd.CommandPath(), "Выход выполнен")
		},
	}
}

func (c *cli) registerCommand() *cobra.Command {
	var input models.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Зарегистрировать учетную запись",
		Long: `Создает учетную запись оператора. Вход после регистрации
не выполняется: используйте 'faceguard auth login'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			var err error
			if input.Password == "" {
				if input.Password, err = prompt(reader, c.errOut, "Password: "); err != nil {
					return c.handleError(cmd, err)
				}
			}
			if input.ConfirmPassword == "" {
				if input.ConfirmPassword, err = prompt(reader, c.errOut, "Confirm password: "); err != nil {
					return c.handleError(cmd, err)
				}
			}

			account, err := c.app.Session.Register(cmd.Context(), input)
			if err != nil {
				return c.handleError(cmd, err)
			}
			return c.app.Renderer.Success(cmd.CommandPath(),
				fmt.Sprintf("Учетная запись %s создана, выполните вход", account.Email))
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "email (обязательно)")
	cmd.Flags().StringVar(&input.FullName, "name", "", "полное имя (обязательно)")
	cmd.Flags().StringVar(&input.PhoneNumber, "phone", "", "телефон")
	cmd.Flags().StringVar(&input.Password, "password", "", "пароль")
	cmd.Flags().StringVar(&input.ConfirmPassword, "confirm", "", "подтверждение пароля")
	cmd.Flags().StringVar(&input.SelectedPackage, "package", models.DefaultPackage, "тариф")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")

	return cmd
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Показать состояние сессии",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			err := app.Session.Init(cmd.Context())
			if err != nil && !errors.IsUnauthorized(err) {
				return c.handleError(cmd, err)
			}

			view := output.StatusView{
				State:   app.Session.State().String(),
				BaseURL: app.Gateway.BaseURL(),
			}
			if profile, err := app.Session.Profile(); err == nil {
				view.Account = profile
			}
			if claims, ok := app.Session.TokenClaims(); ok {
				view.Subject = claims.Subject
				if !claims.ExpiresAt.IsZero() {
					exp := claims.ExpiresAt
					view.ExpiresAt = &exp
				}
			}
			return app.Renderer.Status(view)
		},
	}
}

// prompt читает одну строку ответа оператора
func prompt(reader *bufio.Reader, w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.New(errors.ErrValidation, strings.TrimSuffix(label, ": ")+" is required")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
