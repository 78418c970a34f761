// Package testutil provides testing utilities for the news cache.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/scalewithchintan/news-cache/pkg/news"
)

// MockRedis is an in-memory Redis server with a recording client.
type MockRedis struct {
	Server   *miniredis.Miniredis
	Client   *redis.Client
	Recorder *Recorder

	// Seed is a second client without the recorder, for test setup and
	// assertions that must not show up in call counts.
	Seed *redis.Client
}

// NewMockRedis starts a miniredis server bound to t's lifetime.
func NewMockRedis(t testing.TB) *MockRedis {
	t.Helper()

	server := miniredis.RunT(t)
	rec := NewRecorder()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	client.AddHook(rec)

	seed := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		client.Close()
		seed.Close()
	})

	return &MockRedis{
		Server:   server,
		Client:   client,
		Recorder: rec,
		Seed:     seed,
	}
}

// Conn returns a connector handing out the recording client.
func (m *MockRedis) Conn() *StaticConn {
	return &StaticConn{Client: m.Client}
}

// Recorder is a go-redis hook that records command names and can inject
// failures into single commands or whole pipelines/transactions.
type Recorder struct {
	mu           sync.Mutex
	calls        []string
	failCommands map[string]error
	failPipeline error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{failCommands: make(map[string]error)}
}

// DialHook implements redis.Hook.
func (r *Recorder) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

// ProcessHook implements redis.Hook.
func (r *Recorder) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		r.mu.Lock()
		r.calls = append(r.calls, cmd.Name())
		err := r.failCommands[cmd.Name()]
		r.mu.Unlock()

		if err != nil {
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

// ProcessPipelineHook implements redis.Hook. MULTI/EXEC transactions pass
// through here as well.
func (r *Recorder) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		r.mu.Lock()
		for _, cmd := range cmds {
			r.calls = append(r.calls, cmd.Name())
		}
		err := r.failPipeline
		r.mu.Unlock()

		if err != nil {
			for _, cmd := range cmds {
				cmd.SetErr(err)
			}
			return err
		}
		return next(ctx, cmds)
	}
}

// FailCommand makes every future command with the given (lowercase) name fail with err.
func (r *Recorder) FailCommand(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failCommands[name] = err
}

// FailPipelines makes every future pipeline or transaction fail with err
// before anything is sent to the server. Pass nil to clear.
func (r *Recorder) FailPipelines(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failPipeline = err
}

// Count returns how many times a command name was issued.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Calls returns a copy of all recorded command names in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears recorded calls and injected failures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.failCommands = make(map[string]error)
	r.failPipeline = nil
}

// StaticConn hands out a fixed client and records invalidations.
type StaticConn struct {
	Client     redis.Cmdable
	AcquireErr error

	mu          sync.Mutex
	invalidated int
}

// Acquire returns the fixed client or AcquireErr.
func (s *StaticConn) Acquire(context.Context) (redis.Cmdable, error) {
	if s.AcquireErr != nil {
		return nil, s.AcquireErr
	}
	return s.Client, nil
}

// Invalidate records the call.
func (s *StaticConn) Invalidate(redis.Cmdable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated++
}

// Invalidated returns how many times Invalidate was called.
func (s *StaticConn) Invalidated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// NewRawArticle builds a valid provider record.
func NewRawArticle(id, pubDate string) news.RawArticle {
	return news.RawArticle{
		ArticleID:   id,
		Link:        fmt.Sprintf("https://news.example.com/%s", id),
		Title:       "Title " + id,
		Description: "Description " + id,
		PubDate:     pubDate,
		SourceID:    "example",
		SourceName:  "Example News",
		Category:    news.StringList{"technology"},
	}
}

// MustJSON marshals v or panics.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
