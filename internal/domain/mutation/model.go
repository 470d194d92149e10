package mutation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind тип пользовательской мутации
type Kind string

const (
	KindPost    Kind = "post"
	KindLike    Kind = "like"
	KindComment Kind = "comment"
	KindFollow  Kind = "follow"
)

// Kinds все типы мутаций в порядке приоритета воспроизведения
var Kinds = []Kind{KindPost, KindLike, KindComment, KindFollow}

// Valid проверяет, известен ли тип мутации
func (k Kind) Valid() bool {
	switch k {
	case KindPost, KindLike, KindComment, KindFollow:
		return true
	}
	return false
}

// Status статус локальной записи мутации
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
)

// DefaultMaxRetries количество попыток воспроизведения до перехода в failed
const DefaultMaxRetries = 3

// Record локальная запись отложенной мутации.
// Хранится в разделе своего типа до подтверждения сервером
// и удаляется только после успешного воспроизведения.
type Record struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	RetryCount  int             `json:"retryCount"`
	MaxRetries  int             `json:"maxRetries"`
	IsOffline   bool            `json:"isOffline"`
	SyncPending bool            `json:"syncPending"`
	UserID      string          `json:"userId"`
}

// NewRecord создает запись мутации со статусом pending
func NewRecord(kind Kind, userID string, payload json.RawMessage) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:          NewOfflineID(kind, now),
		Kind:        kind,
		Payload:     payload,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		RetryCount:  0,
		MaxRetries:  DefaultMaxRetries,
		IsOffline:   true,
		SyncPending: true,
		UserID:      userID,
	}
}

// NewOfflineID генерирует локально-уникальный идентификатор записи
// в формате {kind}_offline_{timestamp}_{random}
func NewOfflineID(kind Kind, now time.Time) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s_offline_%d_%s", kind, now.UnixMilli(), suffix)
}

// KindFromID извлекает тип мутации из офлайн-идентификатора
func KindFromID(id string) (Kind, error) {
	for _, k := range Kinds {
		if len(id) > len(k) && id[:len(k)] == string(k) && id[len(k)] == '_' {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, id)
}

// CanTransition проверяет допустимость перехода статуса.
// Статус монотонен, за исключением цикла pending → syncing → pending (ретрай).
func (r *Record) CanTransition(to Status) bool {
	switch r.Status {
	case StatusDraft:
		return to == StatusPending
	case StatusPending:
		return to == StatusSyncing
	case StatusSyncing:
		return to == StatusPending || to == StatusSynced || to == StatusFailed
	default:
		// synced и failed — терминальные
		return false
	}
}

// MarkSyncing переводит запись в статус syncing
func (r *Record) MarkSyncing() error {
	if !r.CanTransition(StatusSyncing) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, r.Status, StatusSyncing)
	}
	r.Status = StatusSyncing
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkRetry увеличивает счетчик попыток и возвращает запись в pending,
// либо переводит в терминальный failed при исчерпании лимита.
func (r *Record) MarkRetry() Status {
	r.RetryCount++
	r.UpdatedAt = time.Now().UTC()

	if r.RetryCount >= r.MaxRetries {
		r.Status = StatusFailed
		r.SyncPending = false
		return StatusFailed
	}

	r.Status = StatusPending
	return StatusPending
}

// PromoteDraft переводит черновик в статус pending для публикации
func (r *Record) PromoteDraft() error {
	if !r.CanTransition(StatusPending) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, r.Status, StatusPending)
	}
	r.Status = StatusPending
	r.SyncPending = true
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// ResetForRetry возвращает терминально-неудачную запись в очередь
// (явное действие пользователя)
func (r *Record) ResetForRetry() error {
	if r.Status != StatusFailed {
		return fmt.Errorf("%w: запись в статусе %s", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusPending
	r.RetryCount = 0
	r.SyncPending = true
	r.UpdatedAt = time.Now().UTC()
	return nil
}
