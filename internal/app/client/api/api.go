// Диагностическая поверхность клиента: состояние локального хранилища,
// очередь синхронизации, failed-записи и конфликты. Поднимается локально
// командой serve, внешним пользователям не предназначена.

// GET    /api/diag/stats                   # Сводка хранилища
// GET    /api/diag/records/pending         # Записи в очереди
// GET    /api/diag/records/failed          # Записи, исчерпавшие ретраи
// POST   /api/diag/records/{id}/retry      # Вернуть запись в очередь
// DELETE /api/diag/records/{id}            # Отбросить запись
// GET    /api/diag/conflicts               # Неразрешенные конфликты
// POST   /api/diag/conflicts/{id}/resolve  # Разрешить конфликт вручную
// POST   /api/diag/sync                    # Запустить воспроизведение

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

// New создает *chi.Mux со всеми операциями через huma.Register
func New(service Service, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Fanline Diagnostics API", "1.0.0")
	API := humachi.New(mux, config)

	h := NewHandler(service, log)
	h.SetupRoutes(API)

	return mux
}
