package client

import (
	"context"
	"encoding/json"
	"fmt"

	"fanline/internal/domain/mutation"
	"fanline/internal/storage/local"
)

// StorageStats сводка состояния локального хранилища
type StorageStats struct {
	Partitions          map[string]int `json:"partitions"`
	PendingByKind       map[string]int `json:"pendingByKind"`
	FailedByKind        map[string]int `json:"failedByKind"`
	QueueDepth          int            `json:"queueDepth"`
	UnresolvedConflicts int            `json:"unresolvedConflicts"`
}

// CollectStats собирает сводку по всем разделам хранилища
func CollectStats(ctx context.Context, store local.Store) (*StorageStats, error) {
	stats := &StorageStats{
		Partitions:    make(map[string]int),
		PendingByKind: make(map[string]int),
		FailedByKind:  make(map[string]int),
	}

	for _, name := range local.Partitions() {
		count, err := store.Count(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("ошибка подсчета раздела %s: %w", name, err)
		}
		stats.Partitions[name] = count
	}
	stats.QueueDepth = stats.Partitions[local.StoreSyncQueue]

	for _, kind := range mutation.Kinds {
		storeName, err := local.StoreForKind(kind)
		if err != nil {
			return nil, err
		}

		pending, err := store.GetByIndex(ctx, storeName, "status", string(mutation.StatusPending))
		if err != nil {
			return nil, err
		}
		if len(pending) > 0 {
			stats.PendingByKind[string(kind)] = len(pending)
		}

		failed, err := store.GetByIndex(ctx, storeName, "status", string(mutation.StatusFailed))
		if err != nil {
			return nil, err
		}
		if len(failed) > 0 {
			stats.FailedByKind[string(kind)] = len(failed)
		}
	}

	unresolved, err := store.GetByIndex(ctx, local.StoreConflicts, "resolved", "false")
	if err != nil {
		return nil, err
	}
	stats.UnresolvedConflicts = len(unresolved)

	return stats, nil
}

// RecordsByStatus возвращает записи мутаций всех типов с указанным
// статусом, в порядке приоритета типов
func RecordsByStatus(ctx context.Context, store local.Store, status mutation.Status) ([]mutation.Record, error) {
	var records []mutation.Record

	for _, kind := range mutation.Kinds {
		storeName, err := local.StoreForKind(kind)
		if err != nil {
			return nil, err
		}

		rows, err := store.GetByIndex(ctx, storeName, "status", string(status))
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			var rec mutation.Record
			if err := json.Unmarshal(row, &rec); err != nil {
				return nil, fmt.Errorf("ошибка чтения записи: %w", err)
			}
			records = append(records, rec)
		}
	}

	return records, nil
}
