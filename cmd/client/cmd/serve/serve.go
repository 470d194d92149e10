package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fanline/internal/app/client"
	"fanline/internal/app/client/api"
)

var addr string

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить диагностический HTTP-сервер",
	Long: `Поднимает локальный HTTP-сервер с диагностикой клиента:
состояние хранилища, очередь синхронизации, failed-записи и конфликты.
OpenAPI-документация доступна на /docs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)

		listen := addr
		if listen == "" {
			listen = appDiagAddress(app)
		}

		mux := api.New(app, app.Log())

		server := &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		fmt.Printf("Диагностический сервер запущен на http://%s\n", listen)
		fmt.Println("Остановка: Ctrl+C")

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ошибка сервера: %w", err)
			}
		case <-stop:
			fmt.Println("\nОстановка сервера...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("ошибка остановки сервера: %w", err)
			}
		}

		return nil
	},
}

func appDiagAddress(app *client.App) string {
	if cfg := app.Config(); cfg != nil && cfg.DiagAddress != "" {
		return cfg.DiagAddress
	}
	return "localhost:8090"
}

func init() {
	ServeCmd.Flags().StringVar(&addr, "addr", "", "адрес прослушивания (по умолчанию из конфигурации)")
}
