package conflict

import "errors"

var (
	ErrNotFound        = errors.New("conflict not found")
	ErrAlreadyResolved = errors.New("conflict already resolved")
	ErrEmptyResolution = errors.New("empty resolution payload")
)
