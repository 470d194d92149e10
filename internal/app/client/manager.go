package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"fanline/internal/domain/mutation"
	"fanline/internal/storage/local"
	"fanline/internal/utils/logger"
)

// Manager менеджер офлайн-мутаций. Единственная точка записи мутаций:
// сохраняет запись в локальное хранилище, ставит элемент в очередь
// синхронизации, оптимистично обновляет кэш чтения и запрашивает
// воспроизведение у планировщика. Сетевых вызовов не делает.
type Manager struct {
	store      local.Store
	cache      *ReadCache
	scheduler  Scheduler
	log        *slog.Logger
	maxRetries int
}

// NewManager создает менеджер офлайн-мутаций
func NewManager(store local.Store, cache *ReadCache, scheduler Scheduler, log *slog.Logger) *Manager {
	return &Manager{
		store:      store,
		cache:      cache,
		scheduler:  scheduler,
		log:        log,
		maxRetries: mutation.DefaultMaxRetries,
	}
}

// SetMaxRetries задает лимит попыток для новых записей
func (m *Manager) SetMaxRetries(n int) {
	if n > 0 {
		m.maxRetries = n
	}
}

func (m *Manager) newRecord(kind mutation.Kind, userID string, payload json.RawMessage) *mutation.Record {
	rec := mutation.NewRecord(kind, userID, payload)
	rec.MaxRetries = m.maxRetries
	return rec
}

// CreateOfflinePost сохраняет новый пост локально и ставит его в очередь
func (m *Manager) CreateOfflinePost(ctx context.Context, authorID, caption, mediaURL string) (*mutation.Record, error) {
	payload := mutation.PostPayload{
		AuthorID: authorID,
		Caption:  caption,
		MediaURL: mediaURL,
	}

	raw, err := mutation.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования поста: %w", err)
	}

	rec := m.newRecord(mutation.KindPost, authorID, raw)
	if err := m.persist(ctx, rec, mutation.ActionCreate); err != nil {
		return nil, err
	}

	// Оптимистичное обновление: пост виден в ленте до подтверждения
	m.cache.Set("post:"+rec.ID, rec)
	m.cache.Invalidate("feed")

	return rec, nil
}

// ToggleOfflineLike сохраняет переключение лайка локально
func (m *Manager) ToggleOfflineLike(ctx context.Context, postID, actorID, username string) (*mutation.Record, error) {
	payload := mutation.LikePayload{
		PostID:   postID,
		ActorID:  actorID,
		Username: username,
	}

	raw, err := mutation.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования лайка: %w", err)
	}

	rec := m.newRecord(mutation.KindLike, actorID, raw)
	if err := m.persist(ctx, rec, mutation.ActionToggle); err != nil {
		return nil, err
	}

	m.cache.Invalidate("post:" + postID)

	return rec, nil
}

// AddOfflineComment сохраняет комментарий локально
func (m *Manager) AddOfflineComment(ctx context.Context, postID, actorID, text string) (*mutation.Record, error) {
	payload := mutation.CommentPayload{
		PostID:  postID,
		ActorID: actorID,
		Text:    text,
	}

	raw, err := mutation.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования комментария: %w", err)
	}

	rec := m.newRecord(mutation.KindComment, actorID, raw)
	if err := m.persist(ctx, rec, mutation.ActionAdd); err != nil {
		return nil, err
	}

	m.cache.Invalidate("comments:" + postID)
	m.cache.Invalidate("post:" + postID)

	return rec, nil
}

// SetOfflineFollow сохраняет подписку или отписку локально
func (m *Manager) SetOfflineFollow(ctx context.Context, followerID, followeeID string, follow bool) (*mutation.Record, error) {
	payload := mutation.FollowPayload{
		FollowerID: followerID,
		FolloweeID: followeeID,
		Follow:     follow,
	}

	raw, err := mutation.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования подписки: %w", err)
	}

	action := mutation.ActionFollow
	if !follow {
		action = mutation.ActionUnfollow
	}

	rec := m.newRecord(mutation.KindFollow, followerID, raw)
	if err := m.persist(ctx, rec, action); err != nil {
		return nil, err
	}

	m.cache.Invalidate("profile:" + followeeID)
	m.cache.Invalidate("profile:" + followerID)

	return rec, nil
}

// SaveDraft сохраняет черновик поста. Черновик не попадает в очередь
// и не синхронизируется до явной публикации.
func (m *Manager) SaveDraft(ctx context.Context, authorID, caption, mediaURL string) (*mutation.Record, error) {
	payload := mutation.PostPayload{
		AuthorID: authorID,
		Caption:  caption,
		MediaURL: mediaURL,
	}

	raw, err := mutation.EncodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования черновика: %w", err)
	}

	rec := m.newRecord(mutation.KindPost, authorID, raw)
	rec.Status = mutation.StatusDraft
	rec.SyncPending = false

	if err := m.store.Put(ctx, local.StorePosts, rec.ID, rec); err != nil {
		return nil, fmt.Errorf("ошибка сохранения черновика: %w", err)
	}

	m.log.Info("черновик сохранен", slog.String("id", rec.ID))

	return rec, nil
}

// PublishDraft переводит черновик в статус pending и ставит его в очередь
func (m *Manager) PublishDraft(ctx context.Context, recordID string) (*mutation.Record, error) {
	rec, err := m.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if err := rec.PromoteDraft(); err != nil {
		return nil, err
	}

	if err := m.persist(ctx, rec, mutation.ActionCreate); err != nil {
		return nil, err
	}

	m.cache.Set("post:"+rec.ID, rec)
	m.cache.Invalidate("feed")

	return rec, nil
}

// RetryFailed возвращает failed-запись в очередь по команде пользователя
func (m *Manager) RetryFailed(ctx context.Context, recordID string) (*mutation.Record, error) {
	rec, err := m.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if rec.Status != mutation.StatusFailed {
		return nil, ErrNotFailed
	}

	if err := rec.ResetForRetry(); err != nil {
		return nil, err
	}

	action, err := actionFor(rec)
	if err != nil {
		return nil, err
	}

	if err := m.persist(ctx, rec, action); err != nil {
		return nil, err
	}

	m.log.Info("запись возвращена в очередь",
		slog.String("id", rec.ID),
		slog.String("kind", string(rec.Kind)),
	)

	return rec, nil
}

// DiscardFailed удаляет failed-запись вместе с элементом очереди
func (m *Manager) DiscardFailed(ctx context.Context, recordID string) error {
	rec, err := m.loadRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if rec.Status != mutation.StatusFailed && rec.Status != mutation.StatusDraft {
		return ErrNotFailed
	}

	storeName, err := local.StoreForKind(rec.Kind)
	if err != nil {
		return err
	}

	if err := m.store.Delete(ctx, local.StoreSyncQueue, rec.ID); err != nil && !errors.Is(err, local.ErrNotFound) {
		return fmt.Errorf("ошибка удаления из очереди: %w", err)
	}

	if err := m.store.Delete(ctx, storeName, rec.ID); err != nil {
		return fmt.Errorf("ошибка удаления записи: %w", err)
	}

	m.cache.Invalidate("post:" + rec.ID)
	m.log.Info("запись отброшена", slog.String("id", rec.ID))

	return nil
}

// persist сохраняет запись и элемент очереди. Хранилища записываются
// по отдельности, поэтому при сбое очереди запись откатывается.
func (m *Manager) persist(ctx context.Context, rec *mutation.Record, action mutation.Action) error {
	storeName, err := local.StoreForKind(rec.Kind)
	if err != nil {
		return err
	}

	rec.UpdatedAt = time.Now()

	if err := m.store.Put(ctx, storeName, rec.ID, rec); err != nil {
		return fmt.Errorf("ошибка сохранения записи: %w", err)
	}

	entry := mutation.NewQueueEntry(rec, action)
	if err := m.store.Put(ctx, local.StoreSyncQueue, entry.ID, entry); err != nil {
		if delErr := m.store.Delete(ctx, storeName, rec.ID); delErr != nil {
			m.log.Error("не удалось откатить запись после сбоя очереди",
				slog.String("id", rec.ID),
				logger.Err(delErr),
			)
		}
		return fmt.Errorf("ошибка постановки в очередь: %w", err)
	}

	m.log.Debug("мутация сохранена локально",
		slog.String("id", rec.ID),
		slog.String("kind", string(rec.Kind)),
		slog.String("action", string(action)),
	)

	m.scheduler.Schedule(ctx, "sync:"+string(rec.Kind))

	return nil
}

func (m *Manager) loadRecord(ctx context.Context, recordID string) (*mutation.Record, error) {
	kind, err := mutation.KindFromID(recordID)
	if err != nil {
		return nil, err
	}

	storeName, err := local.StoreForKind(kind)
	if err != nil {
		return nil, err
	}

	raw, err := m.store.Get(ctx, storeName, recordID)
	if err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return nil, mutation.ErrNotFound
		}
		return nil, err
	}

	var rec mutation.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("ошибка чтения записи: %w", err)
	}

	return &rec, nil
}

// actionFor восстанавливает действие очереди по виду и полезной
// нагрузке записи
func actionFor(rec *mutation.Record) (mutation.Action, error) {
	switch rec.Kind {
	case mutation.KindPost:
		return mutation.ActionCreate, nil
	case mutation.KindLike:
		return mutation.ActionToggle, nil
	case mutation.KindComment:
		return mutation.ActionAdd, nil
	case mutation.KindFollow:
		payload, err := rec.DecodeFollow()
		if err != nil {
			return "", err
		}
		if payload.Follow {
			return mutation.ActionFollow, nil
		}
		return mutation.ActionUnfollow, nil
	default:
		return "", mutation.ErrUnknownKind
	}
}
