package stats

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fanline/internal/app/client"
)

var jsonOutput bool

var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Сводка локального хранилища",
	Long:  `Размеры разделов, глубина очереди синхронизации и число конфликтов.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value("app").(*client.App)

		stats, err := app.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка сбора статистики: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		bold := color.New(color.Bold)
		green := color.New(color.FgGreen)
		yellow := color.New(color.FgYellow)
		red := color.New(color.FgRed)

		bold.Println("=== Локальное хранилище ===")
		for _, name := range partitionsOrder {
			fmt.Printf("  %-14s %d\n", name, stats.Partitions[name])
		}

		fmt.Println()
		bold.Println("=== Синхронизация ===")
		if stats.QueueDepth == 0 {
			green.Println("  Очередь пуста")
		} else {
			yellow.Printf("  В очереди: %d\n", stats.QueueDepth)
			for kind, n := range stats.PendingByKind {
				fmt.Printf("    %-8s %d\n", kind, n)
			}
		}

		if len(stats.FailedByKind) > 0 {
			red.Println("  Неудачные записи:")
			for kind, n := range stats.FailedByKind {
				fmt.Printf("    %-8s %d\n", kind, n)
			}
		}

		if stats.UnresolvedConflicts > 0 {
			red.Printf("  Неразрешенных конфликтов: %d\n", stats.UnresolvedConflicts)
		} else {
			green.Println("  Конфликтов нет")
		}

		return nil
	},
}

var partitionsOrder = []string{
	"posts", "likes", "comments", "follows",
	"user_profiles", "media_meta", "sync_queue", "conflicts",
}

func init() {
	StatsCmd.Flags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
}
