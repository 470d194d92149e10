package local

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore реализация Store поверх SQLite с версионированной схемой.
// Миграции встроены в бинарник и применяются идемпотентно при Open —
// отсутствующие разделы и индексы создаются, существующие данные
// никогда не удаляются.
type SQLiteStore struct {
	path string
	log  *slog.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore создает хранилище по указанному пути к файлу базы.
// База открывается отложенно, вызовом Open.
func NewSQLiteStore(path string, log *slog.Logger) *SQLiteStore {
	return &SQLiteStore{
		path: path,
		log:  log,
	}
}

// Open открывает базу и применяет миграции схемы. Повторный вызов
// на открытом хранилище — no-op.
func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite3", s.path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.migrateUp(db); err != nil {
		db.Close()
		return fmt.Errorf("ошибка миграции схемы: %w", err)
	}

	s.db = db
	s.log.Debug("Локальное хранилище открыто", "path", s.path)
	return nil
}

// migrateUp применяет встроенные миграции к открытой базе
func (s *SQLiteStore) migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка чтения миграций: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("ошибка инициализации драйвера миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("ошибка создания мигратора: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return nil
}

// handle возвращает открытый дескриптор базы либо ErrClosed
func (s *SQLiteStore) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Put вставляет или заменяет запись по первичному ключу.
// Значения индексируемых полей извлекаются из JSON-документа.
func (s *SQLiteStore) Put(ctx context.Context, store, id string, record any) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	part, ok := partitions[store]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, store)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	// Разбираем документ обратно, чтобы извлечь индексируемые поля
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("ошибка разбора записи: %w", err)
	}

	columns := []string{"id", "data", "created_at"}
	values := []any{id, string(data), indexValue(doc["createdAt"])}

	for _, field := range sortedIndexFields(part) {
		columns = append(columns, part.indexes[field])
		values = append(values, indexValue(lookupField(doc, field)))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	var updates []string
	for _, col := range columns[1:] {
		updates = append(updates, col+" = excluded."+col)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		store,
		strings.Join(columns, ", "),
		placeholders,
		strings.Join(updates, ", "),
	)

	if _, err := db.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("ошибка сохранения записи в %s: %w", store, err)
	}

	return nil
}

// Get возвращает запись по ключу
func (s *SQLiteStore) Get(ctx context.Context, store, id string) (json.RawMessage, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	if _, ok := partitions[store]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, store)
	}

	var data string
	err = db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = ?", store), id,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, store, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения записи из %s: %w", store, err)
	}

	return json.RawMessage(data), nil
}

// GetAll возвращает все записи раздела (снимок на момент вызова)
func (s *SQLiteStore) GetAll(ctx context.Context, store string) ([]json.RawMessage, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	if _, ok := partitions[store]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, store)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT data FROM %s ORDER BY created_at ASC, id ASC", store))
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки из %s: %w", store, err)
	}
	defer rows.Close()

	return scanRecords(rows, store)
}

// GetByIndex возвращает записи, у которых индексированное поле равно value
func (s *SQLiteStore) GetByIndex(ctx context.Context, store, index, value string) ([]json.RawMessage, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	part, ok := partitions[store]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, store)
	}

	column, ok := part.indexes[index]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrIndexNotFound, store, index)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE %s = ? ORDER BY created_at ASC, id ASC", store, column),
		value)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки по индексу %s.%s: %w", store, index, err)
	}
	defer rows.Close()

	return scanRecords(rows, store)
}

// Delete удаляет запись по ключу
func (s *SQLiteStore) Delete(ctx context.Context, store, id string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	if _, ok := partitions[store]; !ok {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, store)
	}

	if _, err := db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", store), id); err != nil {
		return fmt.Errorf("ошибка удаления записи из %s: %w", store, err)
	}

	return nil
}

// Clear удаляет все записи раздела
func (s *SQLiteStore) Clear(ctx context.Context, store string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	if _, ok := partitions[store]; !ok {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, store)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", store)); err != nil {
		return fmt.Errorf("ошибка очистки раздела %s: %w", store, err)
	}

	return nil
}

// Count возвращает число записей раздела
func (s *SQLiteStore) Count(ctx context.Context, store string) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	if _, ok := partitions[store]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrStoreNotFound, store)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", store)).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей в %s: %w", store, err)
	}

	return count, nil
}

// Close закрывает дескриптор базы
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// Reset уничтожает базу целиком и создает ее заново. Открытый дескриптор
// закрывается первым, иначе удаление файла базы будет заблокировано.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия базы перед сбросом: %w", err)
	}

	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("ошибка удаления файла базы: %w", err)
		}
	}

	s.log.Warn("Локальное хранилище сброшено", "path", s.path)
	return s.Open(ctx)
}

// scanRecords вычитывает JSON-документы из результата запроса
func scanRecords(rows *sql.Rows, store string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи из %s: %w", store, err)
		}
		records = append(records, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода записей %s: %w", store, err)
	}
	return records, nil
}

// sortedIndexFields возвращает имена индексов раздела в стабильном порядке
func sortedIndexFields(part partition) []string {
	fields := make([]string, 0, len(part.indexes))
	for field := range part.indexes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// lookupField ищет индексируемое поле сначала на верхнем уровне документа,
// затем внутри вложенного payload: у конверта мутации поля вроде postId
// лежат в полезной нагрузке, а не на уровне самого конверта
func lookupField(doc map[string]any, field string) any {
	if v, ok := doc[field]; ok && v != nil {
		return v
	}
	if payload, ok := doc["payload"].(map[string]any); ok {
		return payload[field]
	}
	return nil
}

// indexValue приводит значение поля документа к строковому виду колонки
func indexValue(v any) sql.NullString {
	switch val := v.(type) {
	case nil:
		return sql.NullString{}
	case string:
		return sql.NullString{String: val, Valid: true}
	case bool:
		return sql.NullString{String: strconv.FormatBool(val), Valid: true}
	case float64:
		return sql.NullString{String: strconv.FormatFloat(val, 'f', -1, 64), Valid: true}
	default:
		return sql.NullString{String: fmt.Sprintf("%v", val), Valid: true}
	}
}
