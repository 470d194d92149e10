package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fanline/internal/app/client"
)

var (
	syncStatus  bool
	showFailed  bool
	retryID     string
	discardID   string
	skipConnect bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Воспроизведение отложенных мутаций на сервере.

Команда позволяет запускать синхронизацию, просматривать очередь
и управлять записями, исчерпавшими лимит попыток.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if syncStatus {
			return showSyncStatus(cmd.Context(), app)
		}

		if showFailed {
			return showFailedRecords(cmd.Context(), app)
		}

		if retryID != "" {
			return retryRecord(cmd.Context(), app, retryID)
		}

		if discardID != "" {
			return discardRecord(cmd.Context(), app, discardID)
		}

		// Выполняем синхронизацию
		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	fmt.Println("=== Синхронизация ===")

	if !skipConnect {
		fmt.Println("Проверка соединения с сервером...")
		if !app.CheckConnection(ctx) {
			return fmt.Errorf("сервер недоступен, синхронизация отложена")
		}
	}

	fmt.Println("Начало воспроизведения очереди...")
	start := time.Now()

	result, err := app.Replay(ctx)
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	duration := time.Since(start)

	fmt.Println()
	fmt.Println("✅ Синхронизация завершена!")
	fmt.Printf("Время выполнения: %v\n", duration.Round(time.Millisecond))
	fmt.Printf("Синхронизировано: %d\n", result.Synced)
	if result.Retried > 0 {
		fmt.Printf("Вернулось в очередь: %d\n", result.Retried)
	}
	if result.Deferred > 0 {
		fmt.Printf("Отложено до синхронизации зависимостей: %d\n", result.Deferred)
	}
	if result.Failed > 0 {
		fmt.Printf("Переведено в failed: %d\n", result.Failed)
		fmt.Println("   Используйте 'fanline sync --failed' для просмотра")
	}

	if len(result.Errors) > 0 {
		fmt.Printf("Ошибок при синхронизации: %d\n", len(result.Errors))
		for i, e := range result.Errors {
			if i < 3 { // Показываем только первые 3 ошибки
				fmt.Printf("  • %s: %s\n", e.RecordID, e.Error)
			}
		}
		if len(result.Errors) > 3 {
			fmt.Printf("  ... и еще %d ошибок\n", len(result.Errors)-3)
		}
	}

	return nil
}

func showSyncStatus(ctx context.Context, app *client.App) error {
	fmt.Println("=== Очередь синхронизации ===")

	records, err := app.PendingRecords(ctx)
	if err != nil {
		return fmt.Errorf("ошибка чтения очереди: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("Очередь пуста, все мутации синхронизированы.")
		return nil
	}

	fmt.Printf("В очереди %d записей:\n", len(records))
	for _, rec := range records {
		fmt.Printf("  %-8s %s  попыток: %d/%d  создано: %s\n",
			rec.Kind, rec.ID, rec.RetryCount, rec.MaxRetries,
			rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func showFailedRecords(ctx context.Context, app *client.App) error {
	fmt.Println("=== Неудачные записи ===")

	records, err := app.FailedRecords(ctx)
	if err != nil {
		return fmt.Errorf("ошибка чтения записей: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("Неудачных записей нет.")
		return nil
	}

	fmt.Printf("Исчерпали лимит попыток %d записей:\n", len(records))
	for _, rec := range records {
		fmt.Printf("  %-8s %s  попыток: %d\n", rec.Kind, rec.ID, rec.RetryCount)
	}
	fmt.Println()
	fmt.Println("Повторить:  fanline sync --retry <id>")
	fmt.Println("Отбросить:  fanline sync --discard <id>")

	return nil
}

func retryRecord(ctx context.Context, app *client.App, id string) error {
	rec, err := app.RetryRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("ошибка возврата записи в очередь: %w", err)
	}

	fmt.Printf("✓ Запись %s возвращена в очередь\n", rec.ID)

	return nil
}

func discardRecord(ctx context.Context, app *client.App, id string) error {
	if err := app.DiscardRecord(ctx, id); err != nil {
		return fmt.Errorf("ошибка отбрасывания записи: %w", err)
	}

	fmt.Printf("✓ Запись %s отброшена\n", id)

	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать очередь синхронизации")
	SyncCmd.Flags().BoolVar(&showFailed, "failed", false, "показать неудачные записи")
	SyncCmd.Flags().StringVar(&retryID, "retry", "", "вернуть failed-запись в очередь")
	SyncCmd.Flags().StringVar(&discardID, "discard", "", "отбросить failed-запись")
	SyncCmd.Flags().BoolVar(&skipConnect, "no-probe", false, "не проверять соединение перед запуском")
}
