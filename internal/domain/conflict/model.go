package conflict

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType тип сущности, для которой выполняется слияние.
// Определяет стратегию разрешения конфликта.
type EntityType string

const (
	EntityUserProfile EntityType = "user_profile"
	EntityPostUpdate  EntityType = "post_update"
	EntityInteraction EntityType = "social_interaction"
	EntityPreferences EntityType = "preference_update"
)

// Кем разрешен конфликт
const (
	ResolvedAutomatic = "automatic"
	ResolvedManual    = "manual"
)

// Record запись конфликта. Создается до вычисления слияния и хранится
// для аудита и ручного переразрешения; автоматически удаляется только
// очисткой разрешенных конфликтов старше окна хранения.
type Record struct {
	ID         string          `json:"id"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	LocalData  json.RawMessage `json:"localData"`
	ServerData json.RawMessage `json:"serverData"`
	CreatedAt  time.Time       `json:"createdAt"`
	Resolved   bool            `json:"resolved"`
	Resolution json.RawMessage `json:"resolution,omitempty"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
	ResolvedBy string          `json:"resolvedBy,omitempty"`
}

// NewRecord создает неразрешенную запись конфликта
func NewRecord(entityType EntityType, entityID string, localData, serverData json.RawMessage) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:         fmt.Sprintf("conflict_%d_%s", now.UnixMilli(), uuid.NewString()[:8]),
		EntityType: entityType,
		EntityID:   entityID,
		LocalData:  localData,
		ServerData: serverData,
		CreatedAt:  now,
		Resolved:   false,
	}
}

// CacheKey ключ кэша чтения, под которым публикуется результат слияния
func (r *Record) CacheKey() string {
	return fmt.Sprintf("%s:%s", r.EntityType, r.EntityID)
}

// UserProfile профиль пользователя в том виде, в котором он участвует
// в слиянии: счетчики и верификация авторитетны на сервере,
// самоописательные поля принадлежат клиенту.
type UserProfile struct {
	UserID         string         `json:"userId"`
	Username       string         `json:"username"`
	DisplayName    string         `json:"displayName"`
	Bio            string         `json:"bio"`
	Location       string         `json:"location"`
	FollowersCount int            `json:"followersCount"`
	FollowingCount int            `json:"followingCount"`
	Verified       bool           `json:"verified"`
	Preferences    map[string]any `json:"preferences,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Like отметка "нравится" от конкретного актора
type Like struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment комментарий к посту
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post пост со встроенными лайками и комментариями
type Post struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Caption       string    `json:"caption"`
	MediaURL      string    `json:"mediaUrl,omitempty"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	Likes         []Like    `json:"likes,omitempty"`
	Comments      []Comment `json:"comments,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ActorActivity агрегированная активность одного актора
type ActorActivity struct {
	Count           int       `json:"count"`
	LastInteraction time.Time `json:"lastInteraction"`
}

// Interactions социальная активность вокруг сущности
type Interactions struct {
	EntityID  string                   `json:"entityId"`
	Likes     []Like                   `json:"likes,omitempty"`
	Comments  []Comment                `json:"comments,omitempty"`
	Followers []string                 `json:"followers,omitempty"`
	Following []string                 `json:"following,omitempty"`
	Activity  map[string]ActorActivity `json:"activity,omitempty"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// NotificationPrefs настройки уведомлений: булевы флаги принадлежат
// клиенту, карта категорий сливается поэлементно
type NotificationPrefs struct {
	LikesEnabled    bool            `json:"likesEnabled"`
	CommentsEnabled bool            `json:"commentsEnabled"`
	FollowsEnabled  bool            `json:"followsEnabled"`
	Categories      map[string]bool `json:"categories,omitempty"`
}

// Preferences пользовательские настройки
type Preferences struct {
	UserID           string            `json:"userId"`
	Theme            string            `json:"theme"`
	Language         string            `json:"language"`
	Notifications    NotificationPrefs `json:"notifications"`
	Privacy          map[string]any    `json:"privacy,omitempty"`
	FavoriteAthletes []string          `json:"favoriteAthletes,omitempty"`
	FollowedSports   []string          `json:"followedSports,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}
