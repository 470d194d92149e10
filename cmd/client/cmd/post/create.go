package post

import (
	"fmt"

	"github.com/spf13/cobra"

	"fanline/internal/app/client"
)

var (
	caption  string
	mediaURL string
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать пост",
	Long: `Создание нового поста. Пост сохраняется локально и ставится
в очередь синхронизации; при доступной сети публикуется сразу.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)
		userID := cmd.Context().Value("userId").(string)

		if caption == "" {
			return fmt.Errorf("укажите текст поста через --caption")
		}

		rec, err := app.Manager().CreateOfflinePost(cmd.Context(), userID, caption, mediaURL)
		if err != nil {
			return fmt.Errorf("ошибка создания поста: %w", err)
		}

		fmt.Printf("✓ Пост сохранен локально: %s\n", rec.ID)
		if !app.Connectivity().IsOnline() {
			fmt.Println("  Сеть недоступна, пост будет опубликован при синхронизации.")
		}

		return nil
	},
}

var DraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Сохранить черновик поста",
	Long:  `Черновик хранится локально и не синхронизируется до публикации.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)
		userID := cmd.Context().Value("userId").(string)

		if caption == "" {
			return fmt.Errorf("укажите текст черновика через --caption")
		}

		rec, err := app.Manager().SaveDraft(cmd.Context(), userID, caption, mediaURL)
		if err != nil {
			return fmt.Errorf("ошибка сохранения черновика: %w", err)
		}

		fmt.Printf("✓ Черновик сохранен: %s\n", rec.ID)
		fmt.Printf("  Публикация: fanline post publish %s\n", rec.ID)

		return nil
	},
}

var PublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Опубликовать черновик",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)

		rec, err := app.Manager().PublishDraft(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка публикации черновика: %w", err)
		}

		fmt.Printf("✓ Черновик поставлен в очередь публикации: %s\n", rec.ID)

		return nil
	},
}

var DraftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Показать сохраненные черновики",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)

		drafts, err := app.DraftRecords(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка чтения черновиков: %w", err)
		}

		if len(drafts) == 0 {
			fmt.Println("Черновиков нет.")
			return nil
		}

		fmt.Printf("Черновики (%d):\n", len(drafts))
		for _, rec := range drafts {
			payload, err := rec.DecodePost()
			if err != nil {
				continue
			}
			fmt.Printf("  %s  %s\n", rec.ID, payload.Caption)
		}

		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&caption, "caption", "", "текст поста")
	CreateCmd.Flags().StringVar(&mediaURL, "media", "", "ссылка на медиафайл")
	DraftCmd.Flags().StringVar(&caption, "caption", "", "текст черновика")
	DraftCmd.Flags().StringVar(&mediaURL, "media", "", "ссылка на медиафайл")
}
