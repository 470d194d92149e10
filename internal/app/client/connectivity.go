package client

import (
	"context"
	"sync"

	"golang.org/x/exp/slog"
)

// Connectivity отслеживает состояние сети. Источником состояния служит
// либо явный вызов SetOnline (CLI-флаги, системные события), либо
// периодическая проверка Probe через RemoteService.HealthCheck.
type Connectivity struct {
	log *slog.Logger

	mu     sync.RWMutex
	online bool
	subs   []func(online bool)
}

// NewConnectivity создает трекер сети с начальным состоянием
func NewConnectivity(log *slog.Logger, online bool) *Connectivity {
	return &Connectivity{
		log:    log,
		online: online,
	}
}

// IsOnline сообщает текущее состояние сети
func (c *Connectivity) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.online
}

// SetOnline меняет состояние сети и уведомляет подписчиков
// при фактическом переходе
func (c *Connectivity) SetOnline(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	subs := make([]func(bool), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	c.log.Debug("состояние сети изменилось", slog.Bool("online", online))

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe регистрирует обработчик переходов online/offline.
// Обработчик вызывается синхронно из SetOnline.
func (c *Connectivity) Subscribe(fn func(online bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs = append(c.subs, fn)
}

// Probe проверяет доступность сервера и обновляет состояние сети
func (c *Connectivity) Probe(ctx context.Context, remote RemoteService) bool {
	err := remote.HealthCheck(ctx)
	c.SetOnline(err == nil)
	return err == nil
}
