package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/exp/slog"

	"fanline/internal/domain/mutation"
	"fanline/internal/storage/local"
	"fanline/internal/utils/logger"
)

// outcome результат воспроизведения одного элемента очереди
type outcome int

const (
	outcomeSynced outcome = iota
	outcomeRetried
	outcomeFailed
	outcomeDeferred
	outcomeSkipped
)

// ReplayError ошибка воспроизведения отдельной записи
type ReplayError struct {
	RecordID  string    `json:"recordId"`
	Kind      string    `json:"kind"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ReplayResult сводка одного прохода воспроизведения
type ReplayResult struct {
	Synced    int           `json:"synced"`
	Retried   int           `json:"retried"`
	Failed    int           `json:"failed"`
	Deferred  int           `json:"deferred"`
	Skipped   int           `json:"skipped"`
	Errors    []ReplayError `json:"errors,omitempty"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
}

// Replayer воспроизводит очередь отложенных мутаций на сервере.
// Элементы обрабатываются по приоритету типов (посты раньше лайков,
// подписки последними), внутри типа — в порядке создания.
// Одновременно выполняется не более одного прохода.
type Replayer struct {
	store   local.Store
	cache   *ReadCache
	remote  RemoteService
	conn    *Connectivity
	log     *slog.Logger
	breaker *gobreaker.CircuitBreaker

	mu          sync.Mutex
	isReplaying bool
}

// NewReplayer создает воспроизводитель очереди. Вызовы сервера идут
// через circuit breaker: после серии отказов проход прерывается сразу,
// не выжигая лимит ретраев у всей очереди.
func NewReplayer(store local.Store, cache *ReadCache, remote RemoteService, conn *Connectivity, log *slog.Logger) *Replayer {
	settings := gobreaker.Settings{
		Name:        "remote-replay",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("смена состояния circuit breaker",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Replayer{
		store:   store,
		cache:   cache,
		remote:  remote,
		conn:    conn,
		log:     log,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ReplayAll воспроизводит всю очередь синхронизации.
// Ошибки отдельных записей не прерывают проход: каждая запись получает
// свой исход, сводка возвращается вызывающей стороне.
func (r *Replayer) ReplayAll(ctx context.Context) (*ReplayResult, error) {
	r.mu.Lock()
	if r.isReplaying {
		r.mu.Unlock()
		return nil, ErrReplayInProgress
	}
	r.isReplaying = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.isReplaying = false
		r.mu.Unlock()
	}()

	if !r.conn.IsOnline() {
		return nil, ErrOffline
	}

	result := &ReplayResult{StartTime: time.Now()}

	r.log.Info("начало воспроизведения очереди")

	for _, kind := range mutation.Kinds {
		rows, err := r.store.GetByIndex(ctx, local.StoreSyncQueue, "type", string(kind))
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения очереди: %w", err)
		}

		for _, row := range rows {
			var entry mutation.QueueEntry
			if err := json.Unmarshal(row, &entry); err != nil {
				r.log.Error("поврежденный элемент очереди", logger.Err(err))
				result.Skipped++
				continue
			}

			out, replayErr := r.replayEntry(ctx, &entry)
			switch out {
			case outcomeSynced:
				result.Synced++
			case outcomeRetried:
				result.Retried++
			case outcomeFailed:
				result.Failed++
			case outcomeDeferred:
				result.Deferred++
			case outcomeSkipped:
				result.Skipped++
			}

			if replayErr != nil {
				result.Errors = append(result.Errors, ReplayError{
					RecordID:  entry.RecordID,
					Kind:      string(entry.Type),
					Error:     replayErr.Error(),
					Timestamp: time.Now(),
				})
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.log.Info("воспроизведение завершено",
		slog.Int("synced", result.Synced),
		slog.Int("retried", result.Retried),
		slog.Int("failed", result.Failed),
		slog.Int("deferred", result.Deferred),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// replayEntry воспроизводит один элемент очереди
func (r *Replayer) replayEntry(ctx context.Context, entry *mutation.QueueEntry) (outcome, error) {
	storeName, err := local.StoreForKind(entry.Type)
	if err != nil {
		return outcomeSkipped, err
	}

	raw, err := r.store.Get(ctx, storeName, entry.RecordID)
	if err != nil {
		if errors.Is(err, local.ErrNotFound) {
			// Запись отброшена, элемент очереди осиротел
			if delErr := r.store.Delete(ctx, local.StoreSyncQueue, entry.ID); delErr != nil {
				r.log.Warn("не удалось удалить осиротевший элемент очереди", logger.Err(delErr))
			}
			return outcomeSkipped, nil
		}
		return outcomeSkipped, err
	}

	var rec mutation.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return outcomeSkipped, fmt.Errorf("ошибка чтения записи %s: %w", entry.RecordID, err)
	}

	// Записи не в pending не трогаем: syncing означает конкурентный
	// проход, draft и failed ждут действия пользователя
	if rec.Status != mutation.StatusPending {
		r.log.Debug("запись пропущена",
			slog.String("id", rec.ID),
			slog.String("status", string(rec.Status)),
		)
		return outcomeSkipped, nil
	}

	// Зависимые мутации откладываются, пока их пост не подтвержден
	deferred, err := r.dependsOnLocalPost(ctx, &rec)
	if err != nil {
		return outcomeSkipped, err
	}
	if deferred {
		r.log.Debug("мутация отложена до синхронизации поста", slog.String("id", rec.ID))
		return outcomeDeferred, nil
	}

	if err := rec.MarkSyncing(); err != nil {
		return outcomeSkipped, err
	}
	if err := r.store.Put(ctx, storeName, rec.ID, &rec); err != nil {
		return outcomeSkipped, fmt.Errorf("ошибка обновления статуса: %w", err)
	}

	if sendErr := r.send(ctx, &rec); sendErr != nil {
		return r.handleFailure(ctx, storeName, entry, &rec, sendErr)
	}

	// Подтверждено сервером: локальная запись и элемент очереди больше не нужны
	if err := r.store.Delete(ctx, storeName, rec.ID); err != nil {
		r.log.Warn("не удалось удалить синхронизированную запись", logger.Err(err))
	}
	if err := r.store.Delete(ctx, local.StoreSyncQueue, entry.ID); err != nil {
		r.log.Warn("не удалось удалить элемент очереди", logger.Err(err))
	}

	r.log.Info("мутация синхронизирована",
		slog.String("id", rec.ID),
		slog.String("kind", string(rec.Kind)),
	)

	return outcomeSynced, nil
}

// dependsOnLocalPost сообщает, ссылается ли мутация на пост, который
// сам еще ждет синхронизации
func (r *Replayer) dependsOnLocalPost(ctx context.Context, rec *mutation.Record) (bool, error) {
	var postID string

	switch rec.Kind {
	case mutation.KindLike:
		payload, err := rec.DecodeLike()
		if err != nil {
			return false, err
		}
		postID = payload.PostID
	case mutation.KindComment:
		payload, err := rec.DecodeComment()
		if err != nil {
			return false, err
		}
		postID = payload.PostID
	default:
		return false, nil
	}

	if !mutation.IsOfflineID(postID) {
		return false, nil
	}

	_, err := r.store.Get(ctx, local.StorePosts, postID)
	if errors.Is(err, local.ErrNotFound) {
		// Пост уже синхронизирован и удален; серверного id у нас нет,
		// поэтому мутация обречена — пусть ретраи доведут ее до failed
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// send выполняет серверный вызов для записи через circuit breaker
func (r *Replayer) send(ctx context.Context, rec *mutation.Record) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.dispatch(ctx, rec)
	})
	return err
}

func (r *Replayer) dispatch(ctx context.Context, rec *mutation.Record) error {
	switch rec.Kind {
	case mutation.KindPost:
		payload, err := rec.DecodePost()
		if err != nil {
			return err
		}
		post, err := r.remote.CreatePost(ctx, rec.ID, *payload)
		if err != nil {
			return err
		}
		r.cache.Invalidate("post:" + rec.ID)
		r.cache.Set("post:"+post.ID, post)
		r.cache.Invalidate("feed")
		return nil

	case mutation.KindLike:
		payload, err := rec.DecodeLike()
		if err != nil {
			return err
		}
		if err := r.remote.ToggleLike(ctx, payload.PostID, payload.ActorID, payload.Username); err != nil {
			return err
		}
		r.cache.Invalidate("post:" + payload.PostID)
		return nil

	case mutation.KindComment:
		payload, err := rec.DecodeComment()
		if err != nil {
			return err
		}
		if _, err := r.remote.AddComment(ctx, rec.ID, *payload); err != nil {
			return err
		}
		r.cache.Invalidate("comments:" + payload.PostID)
		r.cache.Invalidate("post:" + payload.PostID)
		return nil

	case mutation.KindFollow:
		payload, err := rec.DecodeFollow()
		if err != nil {
			return err
		}
		if payload.Follow {
			err = r.remote.FollowUser(ctx, payload.FollowerID, payload.FolloweeID)
		} else {
			err = r.remote.UnfollowUser(ctx, payload.FollowerID, payload.FolloweeID)
		}
		if err != nil {
			return err
		}
		r.cache.Invalidate("profile:" + payload.FolloweeID)
		r.cache.Invalidate("profile:" + payload.FollowerID)
		return nil

	default:
		return mutation.ErrUnknownKind
	}
}

// handleFailure обрабатывает неудачное воспроизведение: запись
// возвращается в pending до исчерпания лимита, затем переходит в failed
// и остается в хранилище до ручного ретрая или отбрасывания
func (r *Replayer) handleFailure(ctx context.Context, storeName string, entry *mutation.QueueEntry, rec *mutation.Record, sendErr error) (outcome, error) {
	status := rec.MarkRetry()

	if err := r.store.Put(ctx, storeName, rec.ID, rec); err != nil {
		return outcomeSkipped, fmt.Errorf("ошибка сохранения после сбоя: %w", err)
	}

	if status == mutation.StatusFailed {
		// Лимит исчерпан, элемент очереди удаляется, запись остается
		if err := r.store.Delete(ctx, local.StoreSyncQueue, entry.ID); err != nil {
			r.log.Warn("не удалось удалить элемент очереди", logger.Err(err))
		}

		r.log.Warn("запись переведена в failed",
			slog.String("id", rec.ID),
			slog.String("kind", string(rec.Kind)),
			slog.Int("retries", rec.RetryCount),
			logger.Err(sendErr),
		)

		return outcomeFailed, sendErr
	}

	entry.RetryCount = rec.RetryCount
	if err := r.store.Put(ctx, local.StoreSyncQueue, entry.ID, entry); err != nil {
		r.log.Warn("не удалось обновить элемент очереди", logger.Err(err))
	}

	r.log.Warn("ошибка воспроизведения, запись вернется в очередь",
		slog.String("id", rec.ID),
		slog.Int("retry", rec.RetryCount),
		slog.Int("maxRetries", rec.MaxRetries),
		logger.Err(sendErr),
	)

	return outcomeRetried, sendErr
}
