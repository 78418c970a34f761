package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidLimit is returned by FetchLatest for a non-positive limit.
var ErrInvalidLimit = errors.New("limit must be greater than zero")

// Write operations reported in CacheWriteError.Op.
const (
	OpEncode       = "encode"
	OpSetEnvelope  = "set_envelope"
	OpRebuildIndex = "rebuild_index"
)

// CacheReadError is returned when Redis fails while a layout is being
// probed. The read is aborted; remaining layouts are not tried.
type CacheReadError struct {
	Layout Layout
	Key    string
	Err    error
}

// Error implements the error interface.
func (e *CacheReadError) Error() string {
	return fmt.Sprintf("cache read (%s %s): %v", e.Layout, e.Key, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CacheReadError) Unwrap() error {
	return e.Err
}

// CacheWriteError is returned when storing a batch fails.
type CacheWriteError struct {
	Op  string
	Key string
	Err error
}

// Error implements the error interface.
func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write (%s %s): %v", e.Op, e.Key, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CacheWriteError) Unwrap() error {
	return e.Err
}

// isTransportError reports whether err came from the connection rather
// than from a Redis reply. Such errors invalidate the shared client.
func isTransportError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
		return false
	}
	var replyErr redis.Error
	return !errors.As(err, &replyErr)
}
