package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) getStatsOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-get-stats",
		Method:      http.MethodGet,
		Path:        "/api/diag/stats",
		Summary:     "Получить сводку локального хранилища",
		Description: "Возвращает размеры разделов, глубину очереди и число конфликтов",
		Tags:        []string{"diag"},
	}
}

func (h *Handler) getPendingOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-get-pending",
		Method:      http.MethodGet,
		Path:        "/api/diag/records/pending",
		Summary:     "Получить записи в очереди синхронизации",
		Description: "Возвращает записи мутаций в статусе pending",
		Tags:        []string{"diag"},
	}
}

func (h *Handler) getFailedOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-get-failed",
		Method:      http.MethodGet,
		Path:        "/api/diag/records/failed",
		Summary:     "Получить записи, исчерпавшие лимит ретраев",
		Description: "Возвращает записи мутаций в статусе failed",
		Tags:        []string{"diag"},
	}
}

func (h *Handler) retryRecordOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-retry-record",
		Method:      http.MethodPost,
		Path:        "/api/diag/records/{id}/retry",
		Summary:     "Вернуть failed-запись в очередь",
		Description: "Сбрасывает счетчик попыток и ставит запись в очередь заново",
		Tags:        []string{"diag"},
	}
}

func (h *Handler) discardRecordOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-discard-record",
		Method:      http.MethodDelete,
		Path:        "/api/diag/records/{id}",
		Summary:     "Отбросить запись",
		Description: "Удаляет failed-запись или черновик вместе с элементом очереди",
		Tags:        []string{"diag"},
	}
}

func (h *Handler) getConflictsOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-get-conflicts",
		Method:      http.MethodGet,
		Path:        "/api/diag/conflicts",
		Summary:     "Получить неразрешенные конфликты",
		Description: "Возвращает конфликты, ожидающие ручного разрешения",
		Tags:        []string{"diag"},
	}
}

func (h *Handler) resolveConflictOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-resolve-conflict",
		Method:      http.MethodPost,
		Path:        "/api/diag/conflicts/{id}/resolve",
		Summary:     "Разрешить конфликт вручную",
		Description: "Сохраняет переданные данные как разрешение конфликта",
		Tags:        []string{"diag"},
	}
}

func (h *Handler) runSyncOp() huma.Operation {
	return huma.Operation{
		OperationID: "diag-run-sync",
		Method:      http.MethodPost,
		Path:        "/api/diag/sync",
		Summary:     "Запустить воспроизведение очереди",
		Description: "Немедленно воспроизводит отложенные мутации на сервере",
		Tags:        []string{"diag"},
	}
}
