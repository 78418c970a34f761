// Package redisconn owns the process-wide Redis connection shared by the
// news cache read and write paths.
package redisconn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for connection management.
var (
	connectAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "news_cache_connect_attempts_total",
		Help: "Total Redis connection attempts by result",
	}, []string{"result"}) // "success", "failure"

	connectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "news_cache_connection_state",
		Help: "Current connection state (0=disconnected, 1=connecting, 2=connected)",
	})
)

// State is the connection manager state.
type State int

const (
	// StateDisconnected means no client is held.
	StateDisconnected State = iota

	// StateConnecting means one connection attempt is in flight.
	StateConnecting

	// StateConnected means a verified client is held.
	StateConnected
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Options holds the Redis connection settings.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int

	// PoolSize is the go-redis pool size (0 uses the go-redis default).
	PoolSize int

	// DialTimeout bounds a whole connection attempt, including the verifying PING.
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultOptions returns settings for a local development Redis.
func DefaultOptions() Options {
	return Options{
		Host:         "localhost",
		Port:         6379,
		Username:     "default",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func (o Options) redisOptions() *redis.Options {
	return &redis.Options{
		Addr:         o.Addr(),
		Username:     o.Username,
		Password:     o.Password,
		DB:           o.DB,
		PoolSize:     o.PoolSize,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
	}
}

// attempt is one in-flight connection attempt that late callers wait on.
type attempt struct {
	done   chan struct{}
	client *redis.Client
	err    error
}

// Manager lazily establishes a single shared Redis client.
//
// At most one connection attempt is in flight at any time: callers that
// arrive while an attempt is running wait for its outcome instead of
// dialing themselves. A failed attempt returns the manager to
// StateDisconnected so a later Acquire can try again; there is no
// automatic retry.
type Manager struct {
	opts    Options
	logger  zerolog.Logger
	connect func(ctx context.Context) (*redis.Client, error)

	mu      sync.Mutex
	state   State
	client  *redis.Client
	pending *attempt
}

// NewManager creates a manager in StateDisconnected. No connection is made
// until the first Acquire.
func NewManager(opts Options, logger zerolog.Logger) *Manager {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultOptions().DialTimeout
	}
	m := &Manager{
		opts:   opts,
		logger: logger.With().Str("component", "redisconn").Str("addr", opts.Addr()).Logger(),
	}
	m.connect = m.dial
	return m
}

// Acquire returns the shared client, connecting first if needed.
// Connection failures are returned as *ConnectionError.
func (m *Manager) Acquire(ctx context.Context) (redis.Cmdable, error) {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		c := m.client
		m.mu.Unlock()
		return c, nil
	case StateConnecting:
		a := m.pending
		m.mu.Unlock()
		return m.wait(ctx, a)
	}

	a := &attempt{done: make(chan struct{})}
	m.pending = a
	m.setState(StateConnecting)
	m.mu.Unlock()

	m.logger.Debug().Msg("Connecting to Redis")

	// The attempt outlives the caller's cancellation so that waiters are not
	// failed by someone else's context; DialTimeout still bounds it.
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.DialTimeout)
	client, err := m.connect(attemptCtx)
	cancel()

	m.mu.Lock()
	m.pending = nil
	if err != nil {
		a.err = &ConnectionError{Addr: m.opts.Addr(), Err: err}
		m.client = nil
		m.setState(StateDisconnected)
		connectAttemptsTotal.WithLabelValues("failure").Inc()
		m.logger.Error().Err(err).Msg("Redis connection failed")
	} else {
		a.client = client
		m.client = client
		m.setState(StateConnected)
		connectAttemptsTotal.WithLabelValues("success").Inc()
		m.logger.Info().Msg("Redis connected")
	}
	close(a.done)
	m.mu.Unlock()

	if a.err != nil {
		return nil, a.err
	}
	return a.client, nil
}

func (m *Manager) wait(ctx context.Context, a *attempt) (redis.Cmdable, error) {
	select {
	case <-a.done:
		if a.err != nil {
			return nil, a.err
		}
		return a.client, nil
	case <-ctx.Done():
		return nil, &ConnectionError{Addr: m.opts.Addr(), Err: ctx.Err()}
	}
}

// dial creates a client and verifies it with PING.
func (m *Manager) dial(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(m.opts.redisOptions())
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return client, nil
}

// Invalidate drops c if it is still the shared client, moving the manager
// back to StateDisconnected. Adapters call it after a transport failure so
// the next Acquire re-establishes (and re-verifies) the connection.
func (m *Manager) Invalidate(c redis.Cmdable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected || m.client == nil {
		return
	}
	if current, ok := c.(*redis.Client); !ok || current != m.client {
		return
	}

	if err := m.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		m.logger.Warn().Err(err).Msg("Closing invalidated client")
	}
	m.client = nil
	m.setState(StateDisconnected)
	m.logger.Warn().Msg("Redis connection invalidated after transport failure")
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Ping acquires the client and round-trips a PING.
func (m *Manager) Ping(ctx context.Context) error {
	c, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the shared client if one is open. It waits for an in-flight
// attempt to finish first and is a no-op when disconnected.
func (m *Manager) Close() error {
	m.mu.Lock()
	for m.pending != nil {
		a := m.pending
		m.mu.Unlock()
		<-a.done
		m.mu.Lock()
	}
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	m.setState(StateDisconnected)
	m.logger.Info().Msg("Redis connection closed")
	if err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

// setState must be called with mu held.
func (m *Manager) setState(s State) {
	m.state = s
	connectionState.Set(float64(s))
}
