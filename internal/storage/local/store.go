// Package local реализует локальное офлайн-хранилище поверх SQLite:
// версионированный набор именованных разделов со вторичными индексами,
// в которых компоненты синхронизации держат записи мутаций, очередь
// и конфликты до подтверждения сервером.
package local

import (
	"context"
	"encoding/json"

	"fanline/internal/domain/mutation"
)

// Имена разделов локального хранилища
const (
	StorePosts        = "posts"
	StoreLikes        = "likes"
	StoreComments     = "comments"
	StoreFollows      = "follows"
	StoreUserProfiles = "user_profiles"
	StoreMediaMeta    = "media_meta"
	StoreSyncQueue    = "sync_queue"
	StoreConflicts    = "conflicts"
)

// Store контракт локального хранилища. Каждая операция атомарна сама по
// себе; межоперационная атомарность не гарантируется — вызывающие стороны
// перечитывают запись перед изменением и проектируют идемпотентные ретраи.
type Store interface {
	// Open идемпотентно открывает базу, создавая отсутствующие
	// разделы и индексы. Существующие данные никогда не удаляются.
	Open(ctx context.Context) error

	// Put вставляет или заменяет запись по первичному ключу
	Put(ctx context.Context, store, id string, record any) error

	// Get возвращает запись по ключу либо ErrNotFound
	Get(ctx context.Context, store, id string) (json.RawMessage, error)

	// GetAll возвращает срез всех записей раздела на момент вызова
	GetAll(ctx context.Context, store string) ([]json.RawMessage, error)

	// GetByIndex возвращает записи, у которых индексированное поле
	// равно value, в порядке возрастания createdAt
	GetByIndex(ctx context.Context, store, index, value string) ([]json.RawMessage, error)

	// Delete удаляет запись по ключу (отсутствие ключа не ошибка)
	Delete(ctx context.Context, store, id string) error

	// Clear удаляет все записи раздела
	Clear(ctx context.Context, store string) error

	// Count возвращает число записей раздела
	Count(ctx context.Context, store string) (int, error)

	// Close закрывает открытый дескриптор базы
	Close() error

	// Reset уничтожает и заново создает базу целиком
	// (только для жесткого восстановления)
	Reset(ctx context.Context) error
}

// partition описывает раздел: колонки вторичных индексов и отображение
// имени индекса (поле JSON-документа) на колонку таблицы
type partition struct {
	indexes map[string]string // имя индекса → колонка
}

// partitions реестр разделов. Новые разделы добавляются миграцией схемы
// и регистрацией здесь.
var partitions = map[string]partition{
	StorePosts: {indexes: map[string]string{
		"status": "status",
		"userId": "user_id",
	}},
	StoreLikes: {indexes: map[string]string{
		"status": "status",
		"postId": "post_id",
		"userId": "user_id",
	}},
	StoreComments: {indexes: map[string]string{
		"status": "status",
		"postId": "post_id",
		"userId": "user_id",
	}},
	StoreFollows: {indexes: map[string]string{
		"status":     "status",
		"followerId": "follower_id",
		"userId":     "user_id",
	}},
	StoreUserProfiles: {indexes: map[string]string{
		"username": "username",
	}},
	StoreMediaMeta: {indexes: map[string]string{
		"postId": "post_id",
	}},
	StoreSyncQueue: {indexes: map[string]string{
		"type":   "type",
		"userId": "user_id",
	}},
	StoreConflicts: {indexes: map[string]string{
		"entityType": "entity_type",
		"resolved":   "resolved",
	}},
}

// StoreForKind возвращает раздел, в котором хранятся записи мутаций
// указанного вида
func StoreForKind(kind mutation.Kind) (string, error) {
	switch kind {
	case mutation.KindPost:
		return StorePosts, nil
	case mutation.KindLike:
		return StoreLikes, nil
	case mutation.KindComment:
		return StoreComments, nil
	case mutation.KindFollow:
		return StoreFollows, nil
	default:
		return "", mutation.ErrUnknownKind
	}
}

// Partitions возвращает имена всех известных разделов
func Partitions() []string {
	return []string{
		StorePosts,
		StoreLikes,
		StoreComments,
		StoreFollows,
		StoreUserProfiles,
		StoreMediaMeta,
		StoreSyncQueue,
		StoreConflicts,
	}
}
