package client

import (
	"context"
	"time"

	"fanline/internal/domain/mutation"
)

// ServerPost пост в представлении сервера, возвращается после
// успешной публикации
type ServerPost struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Caption       string    `json:"caption"`
	MediaURL      string    `json:"mediaUrl,omitempty"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ServerComment комментарий в представлении сервера
type ServerComment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// RemoteService интерфейс серверного API. Replayer воспроизводит через
// него отложенные мутации; ключ идемпотентности равен локальному
// идентификатору записи, повторная доставка безопасна.
type RemoteService interface {
	CreatePost(ctx context.Context, idempotencyKey string, payload mutation.PostPayload) (*ServerPost, error)
	ToggleLike(ctx context.Context, postID, actorID, username string) error
	AddComment(ctx context.Context, idempotencyKey string, payload mutation.CommentPayload) (*ServerComment, error)
	FollowUser(ctx context.Context, followerID, followeeID string) error
	UnfollowUser(ctx context.Context, followerID, followeeID string) error
	HealthCheck(ctx context.Context) error
}
