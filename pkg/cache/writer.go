package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scalewithchintan/news-cache/pkg/news"
)

// pubDateLayouts are the publish time formats accepted by Score, most
// common first. The provider's own format carries no zone and is UTC.
var pubDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// Score converts a publish timestamp into the sorted index score (Unix
// milliseconds, newest highest). It reports false when no known layout
// matches; the score is then 0.
func Score(pubDate string) (float64, bool) {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, pubDate); err == nil {
			return float64(t.UnixMilli()), true
		}
	}
	return 0, false
}

// Writer persists ingested batches.
type Writer struct {
	conn   Connector
	keys   Keys
	logger zerolog.Logger
}

// NewWriter creates a writer.
func NewWriter(conn Connector, keys Keys, logger zerolog.Logger) *Writer {
	if conn == nil {
		panic("connector cannot be nil")
	}
	return &Writer{
		conn:   conn,
		keys:   keys,
		logger: logger.With().Str("component", "news-writer").Logger(),
	}
}

// StoreLatest wraps batch in a success envelope, stores it at primaryKey
// (Keys.Primary when empty) and rebuilds the time-sorted index.
//
// The envelope SET and the index rebuild are separate steps. The rebuild
// (DEL + ZADD) runs in one MULTI/EXEC so readers see either the old or the
// new index. If only the rebuild fails, the envelope is already current and
// the returned *CacheWriteError has Op OpRebuildIndex.
func (w *Writer) StoreLatest(ctx context.Context, batch []news.RawArticle, primaryKey string) error {
	return w.StoreEnvelope(ctx, news.NewEnvelope(batch), primaryKey)
}

// StoreEnvelope stores an already wrapped provider response as-is and
// rebuilds the time-sorted index from its results.
func (w *Writer) StoreEnvelope(ctx context.Context, env news.Envelope, primaryKey string) error {
	if primaryKey == "" {
		primaryKey = w.keys.Primary
	}

	data, err := json.Marshal(env)
	if err != nil {
		CacheErrors.WithLabelValues(OpEncode).Inc()
		return &CacheWriteError{Op: OpEncode, Key: primaryKey, Err: err}
	}

	members, err := w.indexMembers(env.Results)
	if err != nil {
		CacheErrors.WithLabelValues(OpEncode).Inc()
		return &CacheWriteError{Op: OpEncode, Key: w.keys.SortedIndex, Err: err}
	}

	rdb, err := w.conn.Acquire(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("acquire").Inc()
		w.logger.Error().Err(err).Msg("Cannot acquire Redis connection")
		return err
	}

	if err := rdb.Set(ctx, primaryKey, data, 0).Err(); err != nil {
		return w.fail(rdb, OpSetEnvelope, primaryKey, err)
	}

	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, w.keys.SortedIndex)
		if len(members) > 0 {
			pipe.ZAdd(ctx, w.keys.SortedIndex, members...)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn().
			Str("key", primaryKey).
			Msg("Envelope stored but sorted index left unchanged")
		return w.fail(rdb, OpRebuildIndex, w.keys.SortedIndex, err)
	}

	ArticlesStored.Set(float64(len(env.Results)))
	w.logger.Info().
		Str("key", primaryKey).
		Str("index", w.keys.SortedIndex).
		Int("count", len(env.Results)).
		Msg("Stored news batch")
	return nil
}

func (w *Writer) indexMembers(records []news.RawArticle) ([]redis.Z, error) {
	members := make([]redis.Z, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}

		score, ok := Score(rec.PubDate)
		if !ok {
			w.logger.Warn().
				Str("article_id", rec.ArticleID).
				Str("pub_date", rec.PubDate).
				Msg("Unparseable publish date, indexing with score 0")
		}
		members = append(members, redis.Z{Score: score, Member: string(data)})
	}
	return members, nil
}

func (w *Writer) fail(rdb redis.Cmdable, op, key string, err error) error {
	CacheErrors.WithLabelValues(op).Inc()
	if isTransportError(err) {
		w.conn.Invalidate(rdb)
	}
	w.logger.Error().Err(err).Str("op", op).Str("key", key).Msg("Cache write failed")
	return &CacheWriteError{Op: op, Key: key, Err: err}
}
