package social

import (
	"fmt"

	"github.com/spf13/cobra"

	"fanline/internal/app/client"
)

var username string

var LikeCmd = &cobra.Command{
	Use:   "like <postId>",
	Short: "Поставить или снять лайк",
	Long: `Переключает лайк поста. Действие сохраняется локально
и воспроизводится на сервере при синхронизации.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)
		userID := cmd.Context().Value("userId").(string)

		rec, err := app.Manager().ToggleOfflineLike(cmd.Context(), args[0], userID, username)
		if err != nil {
			return fmt.Errorf("ошибка сохранения лайка: %w", err)
		}

		fmt.Printf("✓ Лайк сохранен: %s\n", rec.ID)

		return nil
	},
}

var CommentCmd = &cobra.Command{
	Use:   "comment <postId> <text>",
	Short: "Оставить комментарий",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)
		userID := cmd.Context().Value("userId").(string)

		rec, err := app.Manager().AddOfflineComment(cmd.Context(), args[0], userID, args[1])
		if err != nil {
			return fmt.Errorf("ошибка сохранения комментария: %w", err)
		}

		fmt.Printf("✓ Комментарий сохранен: %s\n", rec.ID)

		return nil
	},
}

var FollowCmd = &cobra.Command{
	Use:   "follow <userId>",
	Short: "Подписаться на пользователя",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)
		userID := cmd.Context().Value("userId").(string)

		rec, err := app.Manager().SetOfflineFollow(cmd.Context(), userID, args[0], true)
		if err != nil {
			return fmt.Errorf("ошибка сохранения подписки: %w", err)
		}

		fmt.Printf("✓ Подписка сохранена: %s\n", rec.ID)

		return nil
	},
}

var UnfollowCmd = &cobra.Command{
	Use:   "unfollow <userId>",
	Short: "Отписаться от пользователя",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)
		userID := cmd.Context().Value("userId").(string)

		rec, err := app.Manager().SetOfflineFollow(cmd.Context(), userID, args[0], false)
		if err != nil {
			return fmt.Errorf("ошибка сохранения отписки: %w", err)
		}

		fmt.Printf("✓ Отписка сохранена: %s\n", rec.ID)

		return nil
	},
}

func init() {
	LikeCmd.Flags().StringVar(&username, "username", "", "отображаемое имя пользователя")
}
