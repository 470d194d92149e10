package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"fanline/internal/app/client/config"
	"fanline/internal/domain/conflict"
	"fanline/internal/domain/mutation"
	"fanline/internal/storage/local"
)

// App клиентское приложение: локальное хранилище, менеджер офлайн-мутаций,
// воспроизводитель очереди и разрешитель конфликтов, собранные вместе.
type App struct {
	config    *config.Config
	log       *slog.Logger
	store     local.Store
	cache     *ReadCache
	remote    RemoteService
	conn      *Connectivity
	scheduler *TagScheduler
	manager   *Manager
	replayer  *Replayer
	resolver  *conflict.Resolver
}

// New собирает приложение и открывает локальное хранилище.
// Сервер при этом не опрашивается: приложение стартует офлайн
// и переходит в online после первого успешного CheckConnection.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	store := local.NewSQLiteStore(cfg.DataPath, log)
	if err := store.Open(ctx); err != nil {
		return nil, fmt.Errorf("ошибка открытия локального хранилища: %w", err)
	}

	cache := NewReadCache()

	remote, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания http-клиента: %w", err)
	}
	if cfg.APIToken != "" {
		remote.SetToken(cfg.APIToken)
	}

	conn := NewConnectivity(log, false)
	replayer := NewReplayer(store, cache, remote, conn, log)

	scheduler := NewTagScheduler(conn, func(ctx context.Context) error {
		_, err := replayer.ReplayAll(ctx)
		return err
	}, log)

	manager := NewManager(store, cache, scheduler, log)
	manager.SetMaxRetries(cfg.MaxRetries)

	retention := time.Duration(cfg.ConflictRetentionDays) * 24 * time.Hour
	resolver := conflict.NewResolver(store, cache, log, retention)

	return &App{
		config:    cfg,
		log:       log,
		store:     store,
		cache:     cache,
		remote:    remote,
		conn:      conn,
		scheduler: scheduler,
		manager:   manager,
		replayer:  replayer,
		resolver:  resolver,
	}, nil
}

// Close закрывает локальное хранилище
func (a *App) Close() error {
	return a.store.Close()
}

// Config возвращает конфигурацию приложения
func (a *App) Config() *config.Config {
	return a.config
}

// Log возвращает логгер приложения
func (a *App) Log() *slog.Logger {
	return a.log
}

// Manager возвращает менеджер офлайн-мутаций
func (a *App) Manager() *Manager {
	return a.manager
}

// Replayer возвращает воспроизводитель очереди
func (a *App) Replayer() *Replayer {
	return a.replayer
}

// Resolver возвращает разрешитель конфликтов
func (a *App) Resolver() *conflict.Resolver {
	return a.resolver
}

// Store возвращает локальное хранилище
func (a *App) Store() local.Store {
	return a.store
}

// Cache возвращает кэш чтения
func (a *App) Cache() *ReadCache {
	return a.cache
}

// Connectivity возвращает трекер сети
func (a *App) Connectivity() *Connectivity {
	return a.conn
}

// CheckConnection опрашивает сервер и обновляет состояние сети.
// Переход в online автоматически запускает отложенную синхронизацию.
func (a *App) CheckConnection(ctx context.Context) bool {
	return a.conn.Probe(ctx, a.remote)
}

// Stats собирает сводку локального хранилища
func (a *App) Stats(ctx context.Context) (*StorageStats, error) {
	return CollectStats(ctx, a.store)
}

// PendingRecords возвращает записи, ожидающие синхронизации
func (a *App) PendingRecords(ctx context.Context) ([]mutation.Record, error) {
	return RecordsByStatus(ctx, a.store, mutation.StatusPending)
}

// FailedRecords возвращает записи, исчерпавшие лимит ретраев
func (a *App) FailedRecords(ctx context.Context) ([]mutation.Record, error) {
	return RecordsByStatus(ctx, a.store, mutation.StatusFailed)
}

// DraftRecords возвращает сохраненные черновики
func (a *App) DraftRecords(ctx context.Context) ([]mutation.Record, error) {
	return RecordsByStatus(ctx, a.store, mutation.StatusDraft)
}

// UnresolvedConflicts возвращает конфликты, ожидающие разрешения
func (a *App) UnresolvedConflicts(ctx context.Context) ([]*conflict.Record, error) {
	return a.resolver.Unresolved(ctx)
}

// ResolveConflict разрешает конфликт вручную
func (a *App) ResolveConflict(ctx context.Context, conflictID string, resolution json.RawMessage) (*conflict.Record, error) {
	return a.resolver.ResolveManual(ctx, conflictID, resolution)
}

// RetryRecord возвращает failed-запись в очередь синхронизации
func (a *App) RetryRecord(ctx context.Context, recordID string) (*mutation.Record, error) {
	return a.manager.RetryFailed(ctx, recordID)
}

// DiscardRecord удаляет failed-запись или черновик
func (a *App) DiscardRecord(ctx context.Context, recordID string) error {
	return a.manager.DiscardFailed(ctx, recordID)
}

// Replay запускает воспроизведение очереди немедленно
func (a *App) Replay(ctx context.Context) (*ReplayResult, error) {
	return a.replayer.ReplayAll(ctx)
}
