package conflicts

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fanline/internal/app/client"
)

var (
	resolveID      string
	resolutionFile string
	keepSide       string
	cleanup        bool
)

var ConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Управление конфликтами синхронизации",
	Long: `Просмотр и разрешение конфликтов между локальными и серверными
данными. Большинство конфликтов разрешается автоматически; здесь
отображаются те, что ждут ручного решения.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)

		if cleanup {
			removed, err := app.Resolver().Cleanup(cmd.Context())
			if err != nil {
				return fmt.Errorf("ошибка очистки конфликтов: %w", err)
			}
			fmt.Printf("✓ Удалено устаревших конфликтов: %d\n", removed)
			return nil
		}

		if resolveID != "" {
			return resolveConflict(cmd, app)
		}

		return listConflicts(cmd, app)
	},
}

func listConflicts(cmd *cobra.Command, app *client.App) error {
	conflicts, err := app.UnresolvedConflicts(cmd.Context())
	if err != nil {
		return fmt.Errorf("ошибка чтения конфликтов: %w", err)
	}

	if len(conflicts) == 0 {
		fmt.Println("Неразрешенных конфликтов нет.")
		return nil
	}

	fmt.Printf("Неразрешенные конфликты (%d):\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Printf("  %s\n", c.ID)
		fmt.Printf("    сущность: %s/%s\n", c.EntityType, c.EntityID)
		fmt.Printf("    создан:   %s\n", c.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
	fmt.Println("Разрешить: fanline conflicts --resolve <id> --keep local|server")

	return nil
}

func resolveConflict(cmd *cobra.Command, app *client.App) error {
	data, err := resolutionData(cmd, app)
	if err != nil {
		return err
	}

	rec, err := app.ResolveConflict(cmd.Context(), resolveID, data)
	if err != nil {
		return fmt.Errorf("ошибка разрешения конфликта: %w", err)
	}

	fmt.Printf("✓ Конфликт %s разрешен вручную (%s/%s)\n", rec.ID, rec.EntityType, rec.EntityID)

	return nil
}

// resolutionData выбирает источник данных разрешения: одна из сохраненных
// версий (--keep local|server) либо произвольный JSON из файла (--data)
func resolutionData(cmd *cobra.Command, app *client.App) (json.RawMessage, error) {
	switch keepSide {
	case "local", "server":
		rec, err := app.Resolver().Get(cmd.Context(), resolveID)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения конфликта: %w", err)
		}
		if keepSide == "local" {
			return rec.LocalData, nil
		}
		return rec.ServerData, nil
	case "":
	default:
		return nil, fmt.Errorf("недопустимое значение --keep: %q (ожидается local или server)", keepSide)
	}

	if resolutionFile == "" {
		return nil, fmt.Errorf("укажите версию через --keep local|server или файл через --data")
	}

	data, err := os.ReadFile(resolutionFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла разрешения: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("файл разрешения содержит невалидный JSON")
	}

	return data, nil
}

func init() {
	ConflictsCmd.Flags().StringVar(&resolveID, "resolve", "", "идентификатор конфликта для ручного разрешения")
	ConflictsCmd.Flags().StringVar(&resolutionFile, "data", "", "JSON-файл с данными разрешения")
	ConflictsCmd.Flags().StringVar(&keepSide, "keep", "", "оставить одну из версий целиком: local или server")
	ConflictsCmd.Flags().BoolVar(&cleanup, "cleanup", false, "удалить разрешенные конфликты старше срока хранения")
}
