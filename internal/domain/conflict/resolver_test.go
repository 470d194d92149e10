package conflict

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanline/internal/storage/local"
	"fanline/internal/utils/logger"
)

// fakeCache запоминает публикации результатов слияния
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]any
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]any)}
}

func (c *fakeCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *fakeCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func newTestResolver(t *testing.T) (*Resolver, *fakeCache, local.Store) {
	t.Helper()

	store := local.NewSQLiteStore(filepath.Join(t.TempDir(), "conflicts.db"), logger.Discard())
	require.NoError(t, store.Open(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	cache := newFakeCache()
	resolver := NewResolver(store, cache, logger.Discard(), time.Hour)

	return resolver, cache, store
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestResolve_LikesUnion(t *testing.T) {
	resolver, cache, _ := newTestResolver(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	localPost := Post{
		ID:         "post1",
		AuthorID:   "author",
		Caption:    "локальная версия",
		LikesCount: 1,
		Likes:      []Like{{UserID: "userA", CreatedAt: base.Add(time.Minute)}},
		UpdatedAt:  base.Add(time.Minute),
	}
	serverPost := Post{
		ID:         "post1",
		AuthorID:   "author",
		Caption:    "серверная версия",
		LikesCount: 1,
		Likes:      []Like{{UserID: "userB", CreatedAt: base}},
		UpdatedAt:  base,
	}

	raw, err := resolver.Resolve(context.Background(), EntityPostUpdate, "post1",
		mustJSON(t, localPost), mustJSON(t, serverPost))
	require.NoError(t, err)

	var merged Post
	require.NoError(t, json.Unmarshal(raw, &merged))

	// Лайк не теряет ни одна сторона
	require.Len(t, merged.Likes, 2)
	assert.Equal(t, "userB", merged.Likes[0].UserID)
	assert.Equal(t, "userA", merged.Likes[1].UserID)

	// Контент авторитетен на сервере
	assert.Equal(t, "серверная версия", merged.Caption)

	// Результат опубликован в кэш чтения
	_, ok := cache.get("post_update:post1")
	assert.True(t, ok)
}

func TestResolve_CommentsMerge(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	localPost := Post{
		ID: "post1",
		Comments: []Comment{
			{ID: "c1", UserID: "userA", Text: "офлайн-комментарий", CreatedAt: base.Add(2 * time.Minute)},
		},
	}
	serverPost := Post{
		ID: "post1",
		Comments: []Comment{
			{ID: "c2", UserID: "userB", Text: "серверный комментарий", CreatedAt: base},
		},
	}

	raw, err := resolver.Resolve(context.Background(), EntityPostUpdate, "post1",
		mustJSON(t, localPost), mustJSON(t, serverPost))
	require.NoError(t, err)

	var merged Post
	require.NoError(t, json.Unmarshal(raw, &merged))

	// Оба комментария сохранены, порядок по createdAt
	require.Len(t, merged.Comments, 2)
	assert.Equal(t, "c2", merged.Comments[0].ID)
	assert.Equal(t, "c1", merged.Comments[1].ID)
}

func TestResolve_LikesUnionDedup(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	localPost := Post{
		ID: "post1",
		Likes: []Like{
			{UserID: "userA", CreatedAt: base.Add(time.Minute)},
			{UserID: "userB", CreatedAt: base.Add(3 * time.Minute)},
		},
	}
	serverPost := Post{
		ID: "post1",
		Likes: []Like{
			{UserID: "userB", CreatedAt: base.Add(2 * time.Minute)},
			{UserID: "userC", CreatedAt: base.Add(4 * time.Minute)},
		},
	}

	raw, err := resolver.Resolve(context.Background(), EntityPostUpdate, "post1",
		mustJSON(t, localPost), mustJSON(t, serverPost))
	require.NoError(t, err)

	var merged Post
	require.NoError(t, json.Unmarshal(raw, &merged))

	// Истинное объединение множеств: общий актор не дублируется
	require.Len(t, merged.Likes, 3)
	assert.Equal(t, "userA", merged.Likes[0].UserID)
	assert.Equal(t, "userB", merged.Likes[1].UserID)
	assert.Equal(t, "userC", merged.Likes[2].UserID)

	// При пересечении сохраняется серверная копия лайка
	assert.True(t, merged.Likes[1].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestResolve_CommentCollisionLatestWins(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	localPost := Post{
		ID: "post1",
		Comments: []Comment{
			{ID: "c1", UserID: "userA", Text: "офлайн-правка", CreatedAt: base},
			{ID: "c2", UserID: "userA", Text: "только локальный", CreatedAt: base.Add(2 * time.Minute)},
		},
	}
	serverPost := Post{
		ID: "post1",
		Comments: []Comment{
			{ID: "c1", UserID: "userA", Text: "серверная правка", CreatedAt: base.Add(time.Minute)},
			{ID: "c3", UserID: "userB", Text: "только серверный", CreatedAt: base.Add(3 * time.Minute)},
		},
	}

	raw, err := resolver.Resolve(context.Background(), EntityPostUpdate, "post1",
		mustJSON(t, localPost), mustJSON(t, serverPost))
	require.NoError(t, err)

	var merged Post
	require.NoError(t, json.Unmarshal(raw, &merged))

	// При коллизии id остается копия с более поздним createdAt,
	// уникальные комментарии обеих сторон сохраняются
	require.Len(t, merged.Comments, 3)
	assert.Equal(t, "c1", merged.Comments[0].ID)
	assert.Equal(t, "серверная правка", merged.Comments[0].Text)
	assert.Equal(t, "c2", merged.Comments[1].ID)
	assert.Equal(t, "c3", merged.Comments[2].ID)
}

func TestResolve_ProfileMerge(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	localProfile := UserProfile{
		UserID:         "u1",
		DisplayName:    "Новое имя",
		Bio:            "Обновленная биография",
		FollowersCount: 10,
	}
	serverProfile := UserProfile{
		UserID:         "u1",
		DisplayName:    "Старое имя",
		FollowersCount: 42,
		Verified:       true,
	}

	raw, err := resolver.Resolve(context.Background(), EntityUserProfile, "u1",
		mustJSON(t, localProfile), mustJSON(t, serverProfile))
	require.NoError(t, err)

	var merged UserProfile
	require.NoError(t, json.Unmarshal(raw, &merged))

	// Самоописательные поля клиентские, счетчики и верификация серверные
	assert.Equal(t, "Новое имя", merged.DisplayName)
	assert.Equal(t, "Обновленная биография", merged.Bio)
	assert.Equal(t, 42, merged.FollowersCount)
	assert.True(t, merged.Verified)
}

func TestResolve_PreferencesUnion(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	localPrefs := Preferences{
		UserID:           "u1",
		Theme:            "dark",
		FavoriteAthletes: []string{"athlete1", "athlete3"},
		FollowedSports:   []string{"hockey"},
	}
	serverPrefs := Preferences{
		UserID:           "u1",
		Theme:            "light",
		FavoriteAthletes: []string{"athlete2", "athlete1"},
		FollowedSports:   []string{"football", "hockey"},
	}

	raw, err := resolver.Resolve(context.Background(), EntityPreferences, "u1",
		mustJSON(t, localPrefs), mustJSON(t, serverPrefs))
	require.NoError(t, err)

	var merged Preferences
	require.NoError(t, json.Unmarshal(raw, &merged))

	// Интерфейсные поля клиентские, списки интересов объединяются
	assert.Equal(t, "dark", merged.Theme)
	assert.ElementsMatch(t, []string{"athlete1", "athlete2", "athlete3"}, merged.FavoriteAthletes)
	assert.ElementsMatch(t, []string{"hockey", "football"}, merged.FollowedSports)
}

func TestResolve_InteractionsActivity(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	localInteractions := Interactions{
		EntityID: "u1",
		Activity: map[string]ActorActivity{
			"actorA": {Count: 5, LastInteraction: base.Add(time.Hour)},
		},
	}
	serverInteractions := Interactions{
		EntityID:  "u1",
		Followers: []string{"f1", "f2"},
		Activity: map[string]ActorActivity{
			"actorA": {Count: 3, LastInteraction: base},
			"actorB": {Count: 1, LastInteraction: base},
		},
	}

	raw, err := resolver.Resolve(context.Background(), EntityInteraction, "u1",
		mustJSON(t, localInteractions), mustJSON(t, serverInteractions))
	require.NoError(t, err)

	var merged Interactions
	require.NoError(t, json.Unmarshal(raw, &merged))

	// Подписчики серверные, активность — более поздняя из двух
	assert.Equal(t, []string{"f1", "f2"}, merged.Followers)
	assert.Equal(t, 5, merged.Activity["actorA"].Count)
	assert.Equal(t, 1, merged.Activity["actorB"].Count)
}

func TestResolve_UnknownTypeLastWriteWins(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	localDoc := map[string]any{"value": "local", "updatedAt": base.Add(time.Minute).Format(time.RFC3339)}
	serverDoc := map[string]any{"value": "server", "updatedAt": base.Format(time.RFC3339)}

	raw, err := resolver.Resolve(context.Background(), EntityType("unknown"), "x1",
		mustJSON(t, localDoc), mustJSON(t, serverDoc))
	require.NoError(t, err)

	var merged map[string]any
	require.NoError(t, json.Unmarshal(raw, &merged))
	assert.Equal(t, "local", merged["value"])

	// При равных метках выигрывает сервер
	tie := base.Format(time.RFC3339)
	raw, err = resolver.Resolve(context.Background(), EntityType("unknown"), "x2",
		mustJSON(t, map[string]any{"value": "local", "updatedAt": tie}),
		mustJSON(t, map[string]any{"value": "server", "updatedAt": tie}))
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal(raw, &merged))
	assert.Equal(t, "server", merged["value"])
}

func TestResolve_PersistsRecord(t *testing.T) {
	resolver, _, _ := newTestResolver(t)

	_, err := resolver.Resolve(context.Background(), EntityUserProfile, "u1",
		mustJSON(t, UserProfile{UserID: "u1"}), mustJSON(t, UserProfile{UserID: "u1"}))
	require.NoError(t, err)

	resolved, err := resolver.Resolved(context.Background())
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	rec := resolved[0]
	assert.Equal(t, EntityUserProfile, rec.EntityType)
	assert.Equal(t, "u1", rec.EntityID)
	assert.Equal(t, ResolvedAutomatic, rec.ResolvedBy)
	assert.NotNil(t, rec.ResolvedAt)
	assert.NotEmpty(t, rec.Resolution)
}

func TestResolveManual(t *testing.T) {
	resolver, cache, store := newTestResolver(t)
	ctx := context.Background()

	// Создаем неразрешенный конфликт напрямую
	rec := NewRecord(EntityUserProfile, "u1",
		mustJSON(t, UserProfile{UserID: "u1", Bio: "local"}),
		mustJSON(t, UserProfile{UserID: "u1", Bio: "server"}))
	require.NoError(t, store.Put(ctx, local.StoreConflicts, rec.ID, rec))

	unresolved, err := resolver.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)

	resolution := mustJSON(t, UserProfile{UserID: "u1", Bio: "ручное решение"})
	got, err := resolver.ResolveManual(ctx, rec.ID, resolution)
	require.NoError(t, err)

	assert.True(t, got.Resolved)
	assert.Equal(t, ResolvedManual, got.ResolvedBy)

	_, ok := cache.get("user_profile:u1")
	assert.True(t, ok)

	// Повторное разрешение — ошибка
	_, err = resolver.ResolveManual(ctx, rec.ID, resolution)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// Пустое разрешение — ошибка
	_, err = resolver.ResolveManual(ctx, rec.ID, nil)
	assert.ErrorIs(t, err, ErrEmptyResolution)

	_, err = resolver.ResolveManual(ctx, "missing", resolution)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanup(t *testing.T) {
	resolver, _, store := newTestResolver(t)
	ctx := context.Background()

	// Старый разрешенный конфликт
	old := NewRecord(EntityUserProfile, "u1", mustJSON(t, UserProfile{}), mustJSON(t, UserProfile{}))
	oldTime := time.Now().UTC().Add(-2 * time.Hour)
	old.Resolved = true
	old.ResolvedAt = &oldTime
	old.ResolvedBy = ResolvedAutomatic
	require.NoError(t, store.Put(ctx, local.StoreConflicts, old.ID, old))

	// Свежий разрешенный конфликт
	fresh := NewRecord(EntityUserProfile, "u2", mustJSON(t, UserProfile{}), mustJSON(t, UserProfile{}))
	freshTime := time.Now().UTC()
	fresh.Resolved = true
	fresh.ResolvedAt = &freshTime
	require.NoError(t, store.Put(ctx, local.StoreConflicts, fresh.ID, fresh))

	// Старый неразрешенный конфликт не удаляется никогда
	pending := NewRecord(EntityUserProfile, "u3", mustJSON(t, UserProfile{}), mustJSON(t, UserProfile{}))
	pending.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, store.Put(ctx, local.StoreConflicts, pending.ID, pending))

	removed, err := resolver.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	count, err := store.Count(ctx, local.StoreConflicts)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
