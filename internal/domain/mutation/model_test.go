package mutation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingRecord(t *testing.T) *Record {
	t.Helper()

	raw, err := EncodePayload(PostPayload{AuthorID: "u1", Caption: "привет"})
	require.NoError(t, err)

	return NewRecord(KindPost, "u1", raw)
}

func TestNewOfflineID(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	id := NewOfflineID(KindLike, now)

	assert.True(t, strings.HasPrefix(id, "like_offline_"))
	assert.Contains(t, id, "1773", "идентификатор содержит unix-время в миллисекундах")
	assert.True(t, IsOfflineID(id))
	assert.False(t, IsOfflineID("srv_12345"))

	// Суффикс делает идентификаторы уникальными в пределах миллисекунды
	other := NewOfflineID(KindLike, now)
	assert.NotEqual(t, id, other)
}

func TestKindFromID(t *testing.T) {
	for _, kind := range Kinds {
		id := NewOfflineID(kind, time.Now())
		got, err := KindFromID(id)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := KindFromID("bogus_offline_1_aaaa")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewRecord(t *testing.T) {
	rec := newPendingRecord(t)

	assert.Equal(t, KindPost, rec.Kind)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
	assert.Equal(t, DefaultMaxRetries, rec.MaxRetries)
	assert.True(t, rec.IsOffline)
	assert.True(t, rec.SyncPending)
	assert.Equal(t, "u1", rec.UserID)

	payload, err := rec.DecodePost()
	require.NoError(t, err)
	assert.Equal(t, "привет", payload.Caption)
}

func TestDecodeKindMismatch(t *testing.T) {
	rec := newPendingRecord(t)

	_, err := rec.DecodeLike()
	assert.ErrorIs(t, err, ErrPayloadKind)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"pending → syncing", StatusPending, StatusSyncing, true},
		{"syncing → synced", StatusSyncing, StatusSynced, true},
		{"syncing → failed", StatusSyncing, StatusFailed, true},
		{"syncing → pending (ретрай)", StatusSyncing, StatusPending, true},
		{"draft → pending", StatusDraft, StatusPending, true},
		{"pending → synced напрямую", StatusPending, StatusSynced, false},
		{"synced терминален", StatusSynced, StatusPending, false},
		{"failed терминален", StatusFailed, StatusSyncing, false},
		{"draft → syncing", StatusDraft, StatusSyncing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newPendingRecord(t)
			rec.Status = tt.from
			assert.Equal(t, tt.ok, rec.CanTransition(tt.to))
		})
	}
}

func TestMarkRetry(t *testing.T) {
	rec := newPendingRecord(t)
	require.NoError(t, rec.MarkSyncing())

	// Первые попытки возвращают запись в pending
	status := rec.MarkRetry()
	assert.Equal(t, StatusPending, status)
	assert.Equal(t, 1, rec.RetryCount)

	require.NoError(t, rec.MarkSyncing())
	status = rec.MarkRetry()
	assert.Equal(t, StatusPending, status)

	// Третья попытка исчерпывает лимит
	require.NoError(t, rec.MarkSyncing())
	status = rec.MarkRetry()
	assert.Equal(t, StatusFailed, status)
	assert.Equal(t, 3, rec.RetryCount)
	assert.False(t, rec.SyncPending)

	// failed терминален для автоматики
	assert.Error(t, rec.MarkSyncing())
}

func TestResetForRetry(t *testing.T) {
	rec := newPendingRecord(t)
	rec.Status = StatusFailed
	rec.RetryCount = 3
	rec.SyncPending = false

	require.NoError(t, rec.ResetForRetry())
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, 0, rec.RetryCount)
	assert.True(t, rec.SyncPending)

	// Сбросить можно только failed-запись
	err := rec.ResetForRetry()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPromoteDraft(t *testing.T) {
	rec := newPendingRecord(t)
	rec.Status = StatusDraft
	rec.SyncPending = false

	require.NoError(t, rec.PromoteDraft())
	assert.Equal(t, StatusPending, rec.Status)
	assert.True(t, rec.SyncPending)

	err := rec.PromoteDraft()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, PriorityPost, PriorityFor(KindPost))
	assert.Equal(t, PriorityLike, PriorityFor(KindLike))
	assert.Equal(t, PriorityComment, PriorityFor(KindComment))
	assert.Equal(t, PriorityFollow, PriorityFor(KindFollow))

	// Посты воспроизводятся раньше взаимодействий, подписки последними
	assert.Less(t, PriorityFor(KindPost), PriorityFor(KindLike))
	assert.Less(t, PriorityFor(KindComment), PriorityFor(KindFollow))
}

func TestNewQueueEntry(t *testing.T) {
	rec := newPendingRecord(t)
	entry := NewQueueEntry(rec, ActionCreate)

	assert.Equal(t, rec.ID, entry.ID)
	assert.Equal(t, rec.ID, entry.RecordID)
	assert.Equal(t, KindPost, entry.Type)
	assert.Equal(t, ActionCreate, entry.Action)
	assert.Equal(t, PriorityPost, entry.Priority)
	assert.Equal(t, rec.UserID, entry.UserID)
}
