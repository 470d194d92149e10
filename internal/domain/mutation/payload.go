package mutation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Типизированные полезные нагрузки мутаций. Record хранит нагрузку
// как сырой JSON, разбор выполняется по полю Kind — Replayer обязан
// исчерпывающе обработать все варианты.

// PostPayload нагрузка мутации создания поста
type PostPayload struct {
	AuthorID string `json:"authorId"`
	Caption  string `json:"caption"`
	MediaURL string `json:"mediaUrl,omitempty"`
}

// LikePayload нагрузка мутации переключения лайка
type LikePayload struct {
	PostID   string `json:"postId"`
	ActorID  string `json:"actorId"`
	Username string `json:"username,omitempty"`
}

// CommentPayload нагрузка мутации добавления комментария
type CommentPayload struct {
	PostID  string `json:"postId"`
	ActorID string `json:"actorId"`
	Text    string `json:"text"`
}

// FollowPayload нагрузка мутации подписки/отписки
type FollowPayload struct {
	FollowerID string `json:"followerId"`
	FolloweeID string `json:"followeeId"`
	Follow     bool   `json:"follow"`
}

// EncodePayload сериализует типизированную нагрузку для хранения в Record
func EncodePayload(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации нагрузки: %w", err)
	}
	return data, nil
}

// DecodePost разбирает нагрузку записи типа post
func (r *Record) DecodePost() (*PostPayload, error) {
	if r.Kind != KindPost {
		return nil, fmt.Errorf("%w: ожидался post, получен %s", ErrPayloadKind, r.Kind)
	}
	var p PostPayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, fmt.Errorf("ошибка разбора нагрузки post: %w", err)
	}
	return &p, nil
}

// DecodeLike разбирает нагрузку записи типа like
func (r *Record) DecodeLike() (*LikePayload, error) {
	if r.Kind != KindLike {
		return nil, fmt.Errorf("%w: ожидался like, получен %s", ErrPayloadKind, r.Kind)
	}
	var p LikePayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, fmt.Errorf("ошибка разбора нагрузки like: %w", err)
	}
	return &p, nil
}

// DecodeComment разбирает нагрузку записи типа comment
func (r *Record) DecodeComment() (*CommentPayload, error) {
	if r.Kind != KindComment {
		return nil, fmt.Errorf("%w: ожидался comment, получен %s", ErrPayloadKind, r.Kind)
	}
	var p CommentPayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, fmt.Errorf("ошибка разбора нагрузки comment: %w", err)
	}
	return &p, nil
}

// DecodeFollow разбирает нагрузку записи типа follow
func (r *Record) DecodeFollow() (*FollowPayload, error) {
	if r.Kind != KindFollow {
		return nil, fmt.Errorf("%w: ожидался follow, получен %s", ErrPayloadKind, r.Kind)
	}
	var p FollowPayload
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return nil, fmt.Errorf("ошибка разбора нагрузки follow: %w", err)
	}
	return &p, nil
}

// IsOfflineID проверяет, является ли идентификатор локальным
// (ссылка на еще не синхронизированную сущность)
func IsOfflineID(id string) bool {
	return strings.Contains(id, "_offline_")
}
