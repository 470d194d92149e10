// cmd/client/cmd/init.go
package cmd

import (
	"fmt"
	"os"

	"fanline/cmd/client/cmd/conflicts"
	"fanline/cmd/client/cmd/post"
	"fanline/cmd/client/cmd/serve"
	"fanline/cmd/client/cmd/social"
	"fanline/cmd/client/cmd/stats"
	"fanline/cmd/client/cmd/sync"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Инициализировать клиент Fanline",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создает директорию данных и локальную базу
	2. Проверяет соединение с сервером

Локальная база хранит отложенные мутации, очередь синхронизации
и конфликты. Она переживает перезапуск приложения.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("=== Инициализация Fanline ===")
		fmt.Println()

		if err := os.MkdirAll(cfg.ConfigDir, 0o700); err != nil {
			return fmt.Errorf("ошибка создания директории данных: %w", err)
		}
		fmt.Printf("✓ Директория данных: %s\n", cfg.ConfigDir)
		fmt.Printf("✓ Локальная база: %s\n", cfg.DataPath)

		// Проверяем соединение с сервером
		fmt.Println("Проверка соединения с сервером...")
		if !app.CheckConnection(cmd.Context()) {
			fmt.Println("⚠️  Сервер недоступен. Клиент работает в офлайн-режиме,")
			fmt.Println("   мутации будут синхронизированы при восстановлении сети.")
		} else {
			fmt.Println("✓ Соединение с сервером установлено")
		}

		fmt.Println()
		fmt.Println("✅ Инициализация завершена!")
		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Опубликуйте пост: fanline post create --caption \"...\"")
		fmt.Println("2. Посмотрите очередь: fanline sync --status")
		fmt.Println("3. Запустите синхронизацию: fanline sync")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	// Команды работы с постами
	rootCmd.AddCommand(post.PostCmd)
	post.PostCmd.AddCommand(post.CreateCmd)
	post.PostCmd.AddCommand(post.DraftCmd)
	post.PostCmd.AddCommand(post.PublishCmd)
	post.PostCmd.AddCommand(post.DraftsCmd)

	// Социальные действия
	rootCmd.AddCommand(social.LikeCmd)
	rootCmd.AddCommand(social.CommentCmd)
	rootCmd.AddCommand(social.FollowCmd)
	rootCmd.AddCommand(social.UnfollowCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(conflicts.ConflictsCmd)
	rootCmd.AddCommand(stats.StatsCmd)
	rootCmd.AddCommand(serve.ServeCmd)
}
