package errors

import "errors"

var (
	// Provider lifecycle errors
	ErrNotOpen  = errors.New("provider is not open")
	ErrClosed   = errors.New("provider is closed")
	ErrMoreData = errors.New("output buffer is too small")

	// Registry errors
	ErrServiceNotRegistered     = errors.New("service is not registered")
	ErrServiceAlreadyRegistered = errors.New("service is already registered")
	ErrInvalidBase              = errors.New("invalid first counter/help base")

	// Harness errors
	ErrBufferLimit = errors.New("collection exceeds the maximum buffer size")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrQueryExecution     = errors.New("query execution failed")
)
