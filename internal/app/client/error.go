package client

import "errors"

var (
	ErrOffline          = errors.New("сеть недоступна")
	ErrReplayInProgress = errors.New("синхронизация уже выполняется")
	ErrNotFailed        = errors.New("запись не находится в статусе failed")
)
