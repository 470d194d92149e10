package local

import (
	"errors"
)

var (
	// ErrStorageUnavailable локальное хранилище невозможно открыть —
	// офлайн-режим недоступен, клиент деградирует до онлайн-поведения
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrStoreNotFound операция адресует несуществующий раздел
	ErrStoreNotFound = errors.New("store not found")

	// ErrIndexNotFound запрошен неизвестный вторичный индекс
	ErrIndexNotFound = errors.New("index not found")

	// ErrNotFound запись с указанным ключом отсутствует
	ErrNotFound = errors.New("record not found")

	// ErrClosed операция над закрытым хранилищем
	ErrClosed = errors.New("storage is closed")
)
