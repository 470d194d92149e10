package conflict

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"fanline/internal/storage/local"
)

// Cache кэш чтения, в который публикуется результат слияния
type Cache interface {
	Set(key string, value any)
}

// DefaultRetention окно хранения разрешенных конфликтов
const DefaultRetention = 7 * 24 * time.Hour

// Resolver сводит разошедшиеся локальную и серверную версии сущности
// к одной записи. Каждая попытка слияния фиксируется в разделе conflicts
// для аудита и возможного ручного переразрешения. Единственный писатель
// записей конфликтов.
type Resolver struct {
	store     local.Store
	cache     Cache
	log       *slog.Logger
	retention time.Duration
}

// NewResolver создает резолвер конфликтов
func NewResolver(store local.Store, cache Cache, log *slog.Logger, retention time.Duration) *Resolver {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Resolver{
		store:     store,
		cache:     cache,
		log:       log,
		retention: retention,
	}
}

// Resolve вычисляет слияние локальной и серверной версий сущности.
// Перед вычислением сохраняет неразрешенную запись конфликта; после —
// помечает ее разрешенной и публикует результат в кэш чтения.
func (r *Resolver) Resolve(ctx context.Context, entityType EntityType, entityID string, localData, serverData json.RawMessage) (json.RawMessage, error) {
	rec := NewRecord(entityType, entityID, localData, serverData)

	// Фиксируем конфликт до вычисления: при сбое слияния запись
	// останется неразрешенной и доступной для ручного разбора
	if err := r.store.Put(ctx, local.StoreConflicts, rec.ID, rec); err != nil {
		return nil, fmt.Errorf("ошибка сохранения записи конфликта: %w", err)
	}

	r.log.Info("Обнаружен конфликт",
		"conflict_id", rec.ID,
		"entity_type", entityType,
		"entity_id", entityID,
	)

	resolution, err := r.apply(entityType, localData, serverData)
	if err != nil {
		return nil, fmt.Errorf("ошибка слияния %s/%s: %w", entityType, entityID, err)
	}

	now := time.Now().UTC()
	rec.Resolved = true
	rec.Resolution = resolution
	rec.ResolvedAt = &now
	rec.ResolvedBy = ResolvedAutomatic

	if err := r.store.Put(ctx, local.StoreConflicts, rec.ID, rec); err != nil {
		return nil, fmt.Errorf("ошибка сохранения разрешения конфликта: %w", err)
	}

	r.cache.Set(rec.CacheKey(), resolution)

	r.log.Info("Конфликт разрешен автоматически",
		"conflict_id", rec.ID,
		"entity_type", entityType,
		"entity_id", entityID,
	)

	return resolution, nil
}

// apply выбирает стратегию слияния по типу сущности. Неизвестный тип
// разрешается последней записью (last-write-wins), сервер выигрывает
// при равенстве временных меток.
func (r *Resolver) apply(entityType EntityType, localData, serverData json.RawMessage) (json.RawMessage, error) {
	switch entityType {
	case EntityUserProfile:
		return mergeJSON(localData, serverData, mergeProfiles)
	case EntityPostUpdate:
		return mergeJSON(localData, serverData, mergePosts)
	case EntityInteraction:
		return mergeJSON(localData, serverData, mergeInteractions)
	case EntityPreferences:
		return mergeJSON(localData, serverData, mergePreferences)
	default:
		r.log.Warn("Неизвестный тип сущности, применяется last-write-wins",
			"entity_type", entityType)
		return lastWriteWins(localData, serverData)
	}
}

// ResolveManual разрешает сохраненный конфликт явно заданной нагрузкой,
// минуя автоматическую стратегию
func (r *Resolver) ResolveManual(ctx context.Context, conflictID string, resolution json.RawMessage) (*Record, error) {
	if len(resolution) == 0 {
		return nil, ErrEmptyResolution
	}

	rec, err := r.Get(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if rec.Resolved {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyResolved, conflictID)
	}

	now := time.Now().UTC()
	rec.Resolved = true
	rec.Resolution = resolution
	rec.ResolvedAt = &now
	rec.ResolvedBy = ResolvedManual

	if err := r.store.Put(ctx, local.StoreConflicts, rec.ID, rec); err != nil {
		return nil, fmt.Errorf("ошибка сохранения ручного разрешения: %w", err)
	}

	r.cache.Set(rec.CacheKey(), resolution)

	r.log.Info("Конфликт разрешен вручную", "conflict_id", conflictID)

	return rec, nil
}

// Get возвращает запись конфликта по идентификатору
func (r *Resolver) Get(ctx context.Context, conflictID string) (*Record, error) {
	raw, err := r.store.Get(ctx, local.StoreConflicts, conflictID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, conflictID)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("ошибка разбора записи конфликта: %w", err)
	}

	return &rec, nil
}

// Unresolved возвращает все неразрешенные конфликты
func (r *Resolver) Unresolved(ctx context.Context) ([]*Record, error) {
	return r.listByResolved(ctx, "false")
}

// Resolved возвращает все разрешенные конфликты
func (r *Resolver) Resolved(ctx context.Context) ([]*Record, error) {
	return r.listByResolved(ctx, "true")
}

func (r *Resolver) listByResolved(ctx context.Context, resolved string) ([]*Record, error) {
	raws, err := r.store.GetByIndex(ctx, local.StoreConflicts, "resolved", resolved)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки конфликтов: %w", err)
	}

	records := make([]*Record, 0, len(raws))
	for _, raw := range raws {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("ошибка разбора записи конфликта: %w", err)
		}
		records = append(records, &rec)
	}

	return records, nil
}

// Cleanup удаляет разрешенные конфликты старше окна хранения.
// Неразрешенные конфликты никогда не удаляются автоматически.
func (r *Resolver) Cleanup(ctx context.Context) (int, error) {
	resolved, err := r.Resolved(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-r.retention)
	removed := 0

	for _, rec := range resolved {
		resolvedAt := rec.CreatedAt
		if rec.ResolvedAt != nil {
			resolvedAt = *rec.ResolvedAt
		}
		if resolvedAt.After(cutoff) {
			continue
		}

		if err := r.store.Delete(ctx, local.StoreConflicts, rec.ID); err != nil {
			return removed, fmt.Errorf("ошибка удаления конфликта %s: %w", rec.ID, err)
		}
		removed++
	}

	if removed > 0 {
		r.log.Debug("Очищены устаревшие конфликты", "count", removed)
	}

	return removed, nil
}

// mergeJSON разбирает обе стороны в типизированную модель, сливает
// и сериализует результат
func mergeJSON[T any](localData, serverData json.RawMessage, merge func(local, server *T) *T) (json.RawMessage, error) {
	var localVal, serverVal T
	if err := json.Unmarshal(localData, &localVal); err != nil {
		return nil, fmt.Errorf("ошибка разбора локальной версии: %w", err)
	}
	if err := json.Unmarshal(serverData, &serverVal); err != nil {
		return nil, fmt.Errorf("ошибка разбора серверной версии: %w", err)
	}

	merged := merge(&localVal, &serverVal)

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации результата слияния: %w", err)
	}

	return data, nil
}

// lastWriteWins выбирает сторону с более поздней временной меткой
// (updatedAt, затем createdAt); сервер выигрывает при равенстве
func lastWriteWins(localData, serverData json.RawMessage) (json.RawMessage, error) {
	localTime, err := documentTime(localData)
	if err != nil {
		return nil, err
	}
	serverTime, err := documentTime(serverData)
	if err != nil {
		return nil, err
	}

	if localTime.After(serverTime) {
		return localData, nil
	}
	return serverData, nil
}

// documentTime извлекает временную метку документа
func documentTime(data json.RawMessage) (time.Time, error) {
	var doc struct {
		UpdatedAt time.Time `json:"updatedAt"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return time.Time{}, fmt.Errorf("ошибка разбора временных меток: %w", err)
	}

	if !doc.UpdatedAt.IsZero() {
		return doc.UpdatedAt, nil
	}
	return doc.CreatedAt, nil
}
