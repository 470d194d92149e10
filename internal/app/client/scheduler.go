package client

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/exp/slog"
)

// Scheduler планирует запуск воспроизведения очереди.
// Менеджер мутаций вызывает Schedule после каждой записи в очередь.
type Scheduler interface {
	Schedule(ctx context.Context, tag string)
}

// TagScheduler копит теги запросов синхронизации. Если сеть доступна,
// запуск происходит сразу, иначе теги ждут перехода в online. Если
// воспроизведение уже идет, теги возвращаются в накопитель и ждут
// следующего запуска.
type TagScheduler struct {
	conn *Connectivity
	run  func(ctx context.Context) error
	log  *slog.Logger

	mu   sync.Mutex
	tags map[string]struct{}
}

// NewTagScheduler создает планировщик и подписывается на переходы сети
func NewTagScheduler(conn *Connectivity, run func(ctx context.Context) error, log *slog.Logger) *TagScheduler {
	s := &TagScheduler{
		conn: conn,
		run:  run,
		log:  log,
		tags: make(map[string]struct{}),
	}

	conn.Subscribe(func(online bool) {
		if !online {
			return
		}
		if tags := s.drain(); len(tags) > 0 {
			s.log.Info("сеть восстановлена, запуск отложенной синхронизации")
			go s.fire(tags)
		}
	})

	return s
}

// Schedule регистрирует запрос синхронизации с указанным тегом
func (s *TagScheduler) Schedule(ctx context.Context, tag string) {
	s.mu.Lock()
	s.tags[tag] = struct{}{}
	s.mu.Unlock()

	s.log.Debug("синхронизация запланирована", slog.String("tag", tag))

	if s.conn.IsOnline() {
		go s.fire(s.drain())
	}
}

// Pending возвращает число накопленных тегов
func (s *TagScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tags)
}

// fire выполняет прогон воспроизведения. Если прогон отклонен из-за уже
// идущей синхронизации, теги возвращаются: пробуждение не теряется и
// сработает при следующем Schedule или переходе сети в online.
func (s *TagScheduler) fire(tags []string) {
	err := s.run(context.Background())
	if err == nil {
		return
	}

	if errors.Is(err, ErrReplayInProgress) {
		s.restore(tags)
		s.log.Debug("синхронизация уже идет, теги возвращены в накопитель")
		return
	}

	s.log.Debug("фоновое воспроизведение не выполнено", slog.String("reason", err.Error()))
}

func (s *TagScheduler) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	tags := make([]string, 0, len(s.tags))
	for tag := range s.tags {
		tags = append(tags, tag)
	}
	s.tags = make(map[string]struct{})
	return tags
}

func (s *TagScheduler) restore(tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range tags {
		s.tags[tag] = struct{}{}
	}
}

// ImmediateScheduler запускает воспроизведение сразу, если сеть доступна,
// и молча отбрасывает запрос в офлайне. Используется на платформах без
// механизма отложенного пробуждения: там мутации дождутся следующего
// явного запуска синхронизации.
type ImmediateScheduler struct {
	conn *Connectivity
	run  func(ctx context.Context) error
	log  *slog.Logger
}

func NewImmediateScheduler(conn *Connectivity, run func(ctx context.Context) error, log *slog.Logger) *ImmediateScheduler {
	return &ImmediateScheduler{
		conn: conn,
		run:  run,
		log:  log,
	}
}

// Schedule запускает воспроизведение в фоне при доступной сети
func (s *ImmediateScheduler) Schedule(ctx context.Context, tag string) {
	if !s.conn.IsOnline() {
		s.log.Debug("сеть недоступна, немедленный запуск пропущен", slog.String("tag", tag))
		return
	}

	go func() {
		if err := s.run(context.Background()); err != nil {
			s.log.Debug("фоновое воспроизведение не выполнено", slog.String("reason", err.Error()))
		}
	}()
}

// NoopScheduler ничего не планирует, используется когда запуск
// синхронизации выполняется только вручную
type NoopScheduler struct{}

func (NoopScheduler) Schedule(ctx context.Context, tag string) {}
