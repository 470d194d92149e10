package mutation

import (
	"errors"
)

var (
	ErrNotFound          = errors.New("mutation record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPayloadKind       = errors.New("payload kind mismatch")
	ErrRetriesExhausted  = errors.New("retries exhausted")
	ErrUnknownKind       = errors.New("unknown mutation kind")
)
