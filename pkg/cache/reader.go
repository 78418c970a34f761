package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scalewithchintan/news-cache/pkg/news"
)

// Connector hands out the shared Redis client.
// *redisconn.Manager is the production implementation.
type Connector interface {
	// Acquire returns a ready client or a *redisconn.ConnectionError.
	Acquire(ctx context.Context) (redis.Cmdable, error)

	// Invalidate drops a client after a transport failure.
	Invalidate(rdb redis.Cmdable)
}

// Reader serves the latest articles by probing cache layouts in a fixed
// priority order and returning the first non-empty result.
type Reader struct {
	conn   Connector
	probes []Probe
	logger zerolog.Logger
}

// NewReader creates a reader probing, in order: the envelope blob, the
// time-sorted index, the list and the fan-out keys.
func NewReader(conn Connector, keys Keys, logger zerolog.Logger) *Reader {
	logger = logger.With().Str("component", "news-reader").Logger()
	return NewReaderWithProbes(conn, logger,
		NewEnvelopeProbe(keys.Envelope, logger),
		NewSortedIndexProbe(keys.SortedIndex, logger),
		NewListProbe(keys.List, logger),
		NewFanoutProbe(keys.FanoutPattern(), logger),
	)
}

// NewReaderWithProbes creates a reader with a custom probe order.
func NewReaderWithProbes(conn Connector, logger zerolog.Logger, probes ...Probe) *Reader {
	if conn == nil {
		panic("connector cannot be nil")
	}
	return &Reader{
		conn:   conn,
		probes: probes,
		logger: logger,
	}
}

// FetchLatest returns at most limit articles from the first layout that
// holds any.
//
// An empty cache yields an empty slice and a nil error. A Redis failure in
// any probe aborts the read with a *CacheReadError; later layouts are not
// tried. Connection failures are returned as *redisconn.ConnectionError.
func (r *Reader) FetchLatest(ctx context.Context, limit int) ([]news.Article, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	start := time.Now()
	defer func() {
		ReadDuration.Observe(time.Since(start).Seconds())
	}()

	rdb, err := r.conn.Acquire(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("acquire").Inc()
		r.logger.Error().Err(err).Msg("Cannot acquire Redis connection")
		return nil, err
	}

	for _, p := range r.probes {
		articles, err := p.Probe(ctx, rdb, limit)
		if err != nil {
			CacheErrors.WithLabelValues("read").Inc()
			if isTransportError(err) {
				r.conn.Invalidate(rdb)
			}

			var readErr *CacheReadError
			if !errors.As(err, &readErr) {
				readErr = &CacheReadError{Layout: p.Layout(), Err: err}
			}
			r.logger.Error().
				Err(err).
				Str("layout", string(p.Layout())).
				Msg("Cache probe failed")
			return nil, readErr
		}

		if len(articles) == 0 {
			ProbeMisses.WithLabelValues(string(p.Layout())).Inc()
			r.logger.Debug().Str("layout", string(p.Layout())).Msg("Cache layout empty")
			continue
		}

		if len(articles) > limit {
			articles = articles[:limit]
		}
		ProbeHits.WithLabelValues(string(p.Layout())).Inc()
		r.logger.Debug().
			Str("layout", string(p.Layout())).
			Int("count", len(articles)).
			Int("limit", limit).
			Msg("Cache hit")
		return articles, nil
	}

	EmptyReads.Inc()
	r.logger.Info().Int("limit", limit).Msg("No news found in any cache layout")
	return []news.Article{}, nil
}
