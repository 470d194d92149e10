package client

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fanline/internal/domain/mutation"
	"fanline/internal/storage/local"
)

// MockRemote is a mock implementation of the RemoteService interface for testing
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) CreatePost(ctx context.Context, idempotencyKey string, payload mutation.PostPayload) (*ServerPost, error) {
	args := m.Called(ctx, idempotencyKey, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ServerPost), args.Error(1)
}

func (m *MockRemote) ToggleLike(ctx context.Context, postID, actorID, username string) error {
	args := m.Called(ctx, postID, actorID, username)
	return args.Error(0)
}

func (m *MockRemote) AddComment(ctx context.Context, idempotencyKey string, payload mutation.CommentPayload) (*ServerComment, error) {
	args := m.Called(ctx, idempotencyKey, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ServerComment), args.Error(1)
}

func (m *MockRemote) FollowUser(ctx context.Context, followerID, followeeID string) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockRemote) UnfollowUser(ctx context.Context, followerID, followeeID string) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockRemote) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type replayFixture struct {
	store    local.Store
	cache    *ReadCache
	remote   *MockRemote
	conn     *Connectivity
	manager  *Manager
	replayer *Replayer
}

func newReplayFixture(t *testing.T) *replayFixture {
	t.Helper()

	store := local.NewSQLiteStore(filepath.Join(t.TempDir(), "offline.db"), testLogger())
	require.NoError(t, store.Open(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	cache := NewReadCache()
	remote := &MockRemote{}
	conn := NewConnectivity(testLogger(), true)

	return &replayFixture{
		store:    store,
		cache:    cache,
		remote:   remote,
		conn:     conn,
		manager:  NewManager(store, cache, NoopScheduler{}, testLogger()),
		replayer: NewReplayer(store, cache, remote, conn, testLogger()),
	}
}

func TestReplayAll_Offline(t *testing.T) {
	f := newReplayFixture(t)
	f.conn.SetOnline(false)

	_, err := f.replayer.ReplayAll(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestReplayAll_PostSynced(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	rec, err := f.manager.CreateOfflinePost(ctx, "u1", "финал сезона", "")
	require.NoError(t, err)

	serverPost := &ServerPost{ID: "srv1", AuthorID: "u1", Caption: "финал сезона", CreatedAt: time.Now()}
	f.remote.On("CreatePost", mock.Anything, rec.ID, mock.Anything).Return(serverPost, nil)

	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Synced)
	assert.Zero(t, result.Failed)
	f.remote.AssertExpectations(t)

	// Локальная запись и элемент очереди удалены
	_, err = f.store.Get(ctx, local.StorePosts, rec.ID)
	assert.ErrorIs(t, err, local.ErrNotFound)
	count, err := f.store.Count(ctx, local.StoreSyncQueue)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Оптимистичная запись заменена серверной
	_, ok := f.cache.Get("post:" + rec.ID)
	assert.False(t, ok)
	_, ok = f.cache.Get("post:srv1")
	assert.True(t, ok)
}

func TestReplayAll_PriorityOrder(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	// Создаем в обратном приоритету порядке
	_, err := f.manager.SetOfflineFollow(ctx, "u1", "star", true)
	require.NoError(t, err)
	_, err = f.manager.ToggleOfflineLike(ctx, "srvPost", "u1", "fan")
	require.NoError(t, err)
	post, err := f.manager.CreateOfflinePost(ctx, "u1", "пост", "")
	require.NoError(t, err)

	f.remote.On("CreatePost", mock.Anything, post.ID, mock.Anything).
		Return(&ServerPost{ID: "srv1"}, nil)
	f.remote.On("ToggleLike", mock.Anything, "srvPost", "u1", "fan").Return(nil)
	f.remote.On("FollowUser", mock.Anything, "u1", "star").Return(nil)

	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Synced)

	// Посты воспроизводятся раньше лайков, подписки последними
	require.Len(t, f.remote.Calls, 3)
	assert.Equal(t, "CreatePost", f.remote.Calls[0].Method)
	assert.Equal(t, "ToggleLike", f.remote.Calls[1].Method)
	assert.Equal(t, "FollowUser", f.remote.Calls[2].Method)
}

func TestReplayAll_LikeToggleNetEffect(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	// Лайк и снятие лайка офлайн: обе мутации воспроизводятся по порядку,
	// сервер в итоге остается без лайка
	first, err := f.manager.ToggleOfflineLike(ctx, "srvPost", "u1", "fan")
	require.NoError(t, err)
	second, err := f.manager.ToggleOfflineLike(ctx, "srvPost", "u1", "fan")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	f.remote.On("ToggleLike", mock.Anything, "srvPost", "u1", "fan").Return(nil).Twice()

	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	f.remote.AssertExpectations(t)

	count, err := f.store.Count(ctx, local.StoreLikes)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReplayAll_RetriesThenFailed(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	rec, err := f.manager.CreateOfflinePost(ctx, "u1", "пост", "")
	require.NoError(t, err)

	f.remote.On("CreatePost", mock.Anything, rec.ID, mock.Anything).
		Return(nil, errors.New("внутренняя ошибка сервера"))

	// Первые два прохода возвращают запись в очередь
	for i := 1; i <= 2; i++ {
		result, err := f.replayer.ReplayAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Retried, "проход %d", i)

		raw, err := f.store.Get(ctx, local.StorePosts, rec.ID)
		require.NoError(t, err)
		var got mutation.Record
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, mutation.StatusPending, got.Status)
		assert.Equal(t, i, got.RetryCount)
	}

	// Третий проход исчерпывает лимит
	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, rec.ID, result.Errors[0].RecordID)

	// Запись остается в хранилище со статусом failed, очередь пуста
	raw, err := f.store.Get(ctx, local.StorePosts, rec.ID)
	require.NoError(t, err)
	var got mutation.Record
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, mutation.StatusFailed, got.Status)
	assert.Equal(t, 3, got.RetryCount)

	count, err := f.store.Count(ctx, local.StoreSyncQueue)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Четвертый проход ничего не отправляет
	result, err = f.replayer.ReplayAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Synced+result.Retried+result.Failed)
}

func TestReplayAll_SkipsSyncing(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	rec, err := f.manager.CreateOfflinePost(ctx, "u1", "пост", "")
	require.NoError(t, err)

	// Имитируем запись, захваченную другим проходом
	rec.Status = mutation.StatusSyncing
	require.NoError(t, f.store.Put(ctx, local.StorePosts, rec.ID, rec))

	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	f.remote.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
}

func TestReplayAll_DefersDependentMutation(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	// Черновик существует локально, но не синхронизируется
	draft, err := f.manager.SaveDraft(ctx, "u1", "черновик", "")
	require.NoError(t, err)

	// Лайк ссылается на локальный пост
	like, err := f.manager.ToggleOfflineLike(ctx, draft.ID, "u2", "fan")
	require.NoError(t, err)

	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deferred)
	f.remote.AssertNotCalled(t, "ToggleLike", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// Отложенная запись остается pending и не тратит попытки
	raw, err := f.store.Get(ctx, local.StoreLikes, like.ID)
	require.NoError(t, err)
	var got mutation.Record
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, mutation.StatusPending, got.Status)
	assert.Zero(t, got.RetryCount)
}

func TestReplayAll_OrphanedQueueEntry(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	rec, err := f.manager.CreateOfflinePost(ctx, "u1", "пост", "")
	require.NoError(t, err)

	// Запись удалена, элемент очереди остался
	require.NoError(t, f.store.Delete(ctx, local.StorePosts, rec.ID))

	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)

	// Осиротевший элемент очереди удален
	count, err := f.store.Count(ctx, local.StoreSyncQueue)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReplayAll_ConcurrentGuard(t *testing.T) {
	f := newReplayFixture(t)

	f.replayer.mu.Lock()
	f.replayer.isReplaying = true
	f.replayer.mu.Unlock()

	_, err := f.replayer.ReplayAll(context.Background())
	assert.ErrorIs(t, err, ErrReplayInProgress)
}

func TestReplayAll_OfflineToOnlineScenario(t *testing.T) {
	f := newReplayFixture(t)
	ctx := context.Background()

	// Офлайн: мутации копятся локально
	f.conn.SetOnline(false)

	post, err := f.manager.CreateOfflinePost(ctx, "u1", "гол!", "")
	require.NoError(t, err)
	comment, err := f.manager.AddOfflineComment(ctx, "srvPost", "u1", "невероятно")
	require.NoError(t, err)

	_, err = f.replayer.ReplayAll(ctx)
	assert.ErrorIs(t, err, ErrOffline)

	// Сеть вернулась
	f.conn.SetOnline(true)

	f.remote.On("CreatePost", mock.Anything, post.ID, mock.Anything).
		Return(&ServerPost{ID: "srv1"}, nil)
	f.remote.On("AddComment", mock.Anything, comment.ID, mock.Anything).
		Return(&ServerComment{ID: "srvC1", PostID: "srvPost"}, nil)

	result, err := f.replayer.ReplayAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)

	for _, store := range []string{local.StorePosts, local.StoreComments, local.StoreSyncQueue} {
		count, err := f.store.Count(ctx, store)
		require.NoError(t, err)
		assert.Zero(t, count, store)
	}
}
