package post

import (
	"github.com/spf13/cobra"
)

// PostCmd - родительская команда для операций с постами
var PostCmd = &cobra.Command{
	Use:   "post",
	Short: "Управление постами",
	Long:  `Создание постов, сохранение и публикация черновиков.`,
}
