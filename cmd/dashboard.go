package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"FaceGuardConsole/internal/dashboard"
	"FaceGuardConsole/pkg/health"
	"FaceGuardConsole/pkg/logger"
)

func (c *cli) dashboardCommand() *cobra.Command {
	var (
		watch       bool
		interval    time.Duration
		recent      int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Показать сводку панели",
		Long: `Загружает камеры, лица, журнал обнаружений и счетчики параллельно.
При любой ошибке счетчики показываются как 00.

С флагом --watch сводка обновляется с интервалом до прерывания.
С флагом --metrics-addr метрики запросов доступны по /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.app
			app.Dashboard.SetRecent(recent)
			if !cmd.Flags().Changed("interval") {
				interval = app.Config.WatchInterval()
			}

			if metricsAddr != "" {
				stop := c.serveMetrics(metricsAddr)
				defer stop()
			}

			err := app.Protect(cmd.Context(), func(ctx context.Context) error {
				if !watch {
					summary, err := app.Dashboard.Load(ctx)
					if rerr := app.Renderer.Dashboard(summary); rerr != nil {
						return rerr
					}
					return err
				}

				err := app.Dashboard.Watch(ctx, interval, func(summary dashboard.Summary, err error) {
					if rerr := app.Renderer.Dashboard(summary); rerr != nil {
						app.Logger.Warn("ошибка вывода сводки", logger.Error(rerr))
					}
					if err != nil {
						app.Renderer.Error(cmd.CommandPath(), err)
					}
				})
				if stderrors.Is(err, context.Canceled) && cmd.Context().Err() != nil {
					return nil
				}
				return err
			})
			return c.handleError(cmd, err)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "обновлять сводку непрерывно")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "интервал обновления")
	cmd.Flags().IntVar(&recent, "recent", dashboard.DefaultRecent, "число последних обнаружений")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "адрес HTTP сервера метрик (например :9090)")

	return cmd
}

// serveMetrics поднимает HTTP сервер метрик и проверок на время команды
func (c *cli) serveMetrics(addr string) func() {
	app := c.app

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.GetHandler())
	mux.Handle("/health", health.Handler(app.Health))
	mux.Handle("/live", health.LiveHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		app.Logger.Info("сервер метрик запущен", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("ошибка сервера метрик", logger.Error(err))
			fmt.Fprintf(c.errOut, "Сервер метрик не запущен: %v\n", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			app.Logger.Warn("ошибка остановки сервера метрик", logger.Error(err))
		}
	}
}
