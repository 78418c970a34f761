package redisconn

import "fmt"

// ConnectionError is returned when Redis cannot be reached or rejects the
// credentials. It is not retried by the manager.
type ConnectionError struct {
	Addr string
	Err  error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("redis connection to %s failed: %v", e.Addr, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
