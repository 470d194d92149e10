package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"fanline/internal/app/client/config"
	"fanline/internal/domain/mutation"
)

type httpClient struct {
	client    *http.Client
	config    *config.Config
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  false,
			DisableKeepAlives:   false,
			MaxIdleConnsPerHost: 10,
		},
	}

	// Определяем протокол
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	baseURL := scheme + cfg.ServerAddress

	return &httpClient{
		client:    client,
		config:    cfg,
		log:       log,
		baseURL:   baseURL,
		userAgent: "Fanline-Client/1.0",
	}, nil
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	return nil
}

// CreatePost публикует пост на сервере. Ключ идемпотентности равен
// локальному идентификатору, повторная отправка не создает дубликат.
func (h *httpClient) CreatePost(ctx context.Context, idempotencyKey string, payload mutation.PostPayload) (*ServerPost, error) {
	resp, err := h.doRequest(ctx, "POST", "/api/v1/posts", payload, idempotencyKey)
	if err != nil {
		return nil, err
	}

	var post ServerPost
	if err := h.parseResponse(resp, &post); err != nil {
		return nil, err
	}

	return &post, nil
}

// ToggleLike переключает лайк поста
func (h *httpClient) ToggleLike(ctx context.Context, postID, actorID, username string) error {
	req := struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}{
		UserID:   actorID,
		Username: username,
	}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/posts/"+postID+"/like", req, "")
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// AddComment добавляет комментарий к посту
func (h *httpClient) AddComment(ctx context.Context, idempotencyKey string, payload mutation.CommentPayload) (*ServerComment, error) {
	req := struct {
		UserID string `json:"userId"`
		Text   string `json:"text"`
	}{
		UserID: payload.ActorID,
		Text:   payload.Text,
	}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/posts/"+payload.PostID+"/comments", req, idempotencyKey)
	if err != nil {
		return nil, err
	}

	var comment ServerComment
	if err := h.parseResponse(resp, &comment); err != nil {
		return nil, err
	}

	return &comment, nil
}

// FollowUser подписывает пользователя на другого пользователя
func (h *httpClient) FollowUser(ctx context.Context, followerID, followeeID string) error {
	req := struct {
		FollowerID string `json:"followerId"`
	}{
		FollowerID: followerID,
	}

	resp, err := h.doRequest(ctx, "POST", "/api/v1/users/"+followeeID+"/follow", req, "")
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

// UnfollowUser отменяет подписку
func (h *httpClient) UnfollowUser(ctx context.Context, followerID, followeeID string) error {
	req := struct {
		FollowerID string `json:"followerId"`
	}{
		FollowerID: followerID,
	}

	resp, err := h.doRequest(ctx, "DELETE", "/api/v1/users/"+followeeID+"/follow", req, "")
	if err != nil {
		return err
	}

	return h.parseResponse(resp, nil)
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}, idempotencyKey string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	h.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"body", string(body),
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("ошибка сервера: %s", errResp.Error)
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
