package mutation

import (
	"time"
)

// Action операция, которую нужно воспроизвести на сервере
type Action string

const (
	ActionCreate   Action = "create"
	ActionToggle   Action = "toggle"
	ActionAdd      Action = "add"
	ActionFollow   Action = "follow"
	ActionUnfollow Action = "unfollow"
)

// Приоритеты очереди: чем меньше число, тем раньше воспроизведение
const (
	PriorityPost    = 1
	PriorityLike    = 2
	PriorityComment = 2
	PriorityFollow  = 3
)

// PriorityFor возвращает приоритет очереди для типа мутации
func PriorityFor(kind Kind) int {
	switch kind {
	case KindPost:
		return PriorityPost
	case KindLike:
		return PriorityLike
	case KindComment:
		return PriorityComment
	case KindFollow:
		return PriorityFollow
	default:
		return PriorityFollow
	}
}

// QueueEntry элемент очереди синхронизации.
// Ссылается ровно на одну запись мутации; создается атомарно с ней
// и удаляется после успешного воспроизведения либо при переходе
// записи в терминальный failed.
type QueueEntry struct {
	ID         string    `json:"id"`
	RecordID   string    `json:"recordId"`
	Type       Kind      `json:"type"`
	Action     Action    `json:"action"`
	Priority   int       `json:"priority"`
	CreatedAt  time.Time `json:"createdAt"`
	RetryCount int       `json:"retryCount"`
	UserID     string    `json:"userId"`
}

// NewQueueEntry создает элемент очереди для записи мутации
func NewQueueEntry(rec *Record, action Action) *QueueEntry {
	return &QueueEntry{
		ID:         rec.ID,
		RecordID:   rec.ID,
		Type:       rec.Kind,
		Action:     action,
		Priority:   PriorityFor(rec.Kind),
		CreatedAt:  rec.CreatedAt,
		RetryCount: 0,
		UserID:     rec.UserID,
	}
}
