package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scalewithchintan/news-cache/pkg/news"
)

// scanCount is the COUNT hint for fan-out key enumeration.
const scanCount = 100

var errUnrecognizedEntry = errors.New("entry is neither an envelope nor a record")

// Probe reads articles from one cache layout.
//
// An empty result with a nil error means the layout holds nothing usable
// and the next layout should be tried. A non-nil error means Redis itself
// failed and the whole read must stop.
type Probe interface {
	Layout() Layout
	Probe(ctx context.Context, rdb redis.Cmdable, limit int) ([]news.Article, error)
}

// EnvelopeProbe reads a single envelope blob, or a bare array of records.
type EnvelopeProbe struct {
	Key    string
	logger zerolog.Logger
}

// NewEnvelopeProbe creates an envelope probe for key.
func NewEnvelopeProbe(key string, logger zerolog.Logger) *EnvelopeProbe {
	return &EnvelopeProbe{Key: key, logger: logger}
}

// Layout implements Probe.
func (p *EnvelopeProbe) Layout() Layout { return LayoutEnvelope }

// Probe implements Probe.
func (p *EnvelopeProbe) Probe(ctx context.Context, rdb redis.Cmdable, limit int) ([]news.Article, error) {
	data, err := rdb.Get(ctx, p.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &CacheReadError{Layout: LayoutEnvelope, Key: p.Key, Err: err}
	}

	c := newCollector(LayoutEnvelope, p.logger)
	data = bytes.TrimSpace(data)

	// Legacy shape: the key holds the results array without a wrapper.
	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			c.skip(p.Key, err)
			return nil, nil
		}
		c.addRecords(p.Key, items)
		return c.result(limit), nil
	}

	var env struct {
		Status  string            `json:"status"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		c.skip(p.Key, err)
		return nil, nil
	}
	if env.Status != news.StatusSuccess {
		p.logger.Debug().
			Str("key", p.Key).
			Str("status", env.Status).
			Msg("Ignoring envelope without success status")
		return nil, nil
	}

	c.addRecords(p.Key, env.Results)
	return c.result(limit), nil
}

// SortedIndexProbe reads the newest members of the time-sorted index.
type SortedIndexProbe struct {
	Key    string
	logger zerolog.Logger
}

// NewSortedIndexProbe creates a sorted index probe for key.
func NewSortedIndexProbe(key string, logger zerolog.Logger) *SortedIndexProbe {
	return &SortedIndexProbe{Key: key, logger: logger}
}

// Layout implements Probe.
func (p *SortedIndexProbe) Layout() Layout { return LayoutSortedIndex }

// Probe implements Probe. Members come back highest score (newest) first.
func (p *SortedIndexProbe) Probe(ctx context.Context, rdb redis.Cmdable, limit int) ([]news.Article, error) {
	members, err := rdb.ZRevRange(ctx, p.Key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, &CacheReadError{Layout: LayoutSortedIndex, Key: p.Key, Err: err}
	}

	c := newCollector(LayoutSortedIndex, p.logger)
	for _, m := range members {
		c.addEntry(p.Key, []byte(m))
	}
	return c.result(limit), nil
}

// ListProbe reads the first entries of a list in stored order.
type ListProbe struct {
	Key    string
	logger zerolog.Logger
}

// NewListProbe creates a list probe for key.
func NewListProbe(key string, logger zerolog.Logger) *ListProbe {
	return &ListProbe{Key: key, logger: logger}
}

// Layout implements Probe.
func (p *ListProbe) Layout() Layout { return LayoutList }

// Probe implements Probe.
func (p *ListProbe) Probe(ctx context.Context, rdb redis.Cmdable, limit int) ([]news.Article, error) {
	entries, err := rdb.LRange(ctx, p.Key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, &CacheReadError{Layout: LayoutList, Key: p.Key, Err: err}
	}

	c := newCollector(LayoutList, p.logger)
	for _, e := range entries {
		c.addEntry(p.Key, []byte(e))
	}
	return c.result(limit), nil
}

// FanoutProbe enumerates keys matching a pattern and reads up to limit of
// them with one MGET.
//
// Result order follows SCAN enumeration order, which Redis does not define;
// no sort is applied.
type FanoutProbe struct {
	Pattern string
	logger  zerolog.Logger
}

// NewFanoutProbe creates a fan-out probe for a SCAN MATCH pattern.
func NewFanoutProbe(pattern string, logger zerolog.Logger) *FanoutProbe {
	return &FanoutProbe{Pattern: pattern, logger: logger}
}

// Layout implements Probe.
func (p *FanoutProbe) Layout() Layout { return LayoutFanout }

// Probe implements Probe.
func (p *FanoutProbe) Probe(ctx context.Context, rdb redis.Cmdable, limit int) ([]news.Article, error) {
	keys, err := p.scan(ctx, rdb, limit)
	if err != nil {
		return nil, &CacheReadError{Layout: LayoutFanout, Key: p.Pattern, Err: err}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, &CacheReadError{Layout: LayoutFanout, Key: p.Pattern, Err: err}
	}

	c := newCollector(LayoutFanout, p.logger)
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Deleted between SCAN and MGET.
			continue
		}
		c.addEntry(keys[i], []byte(s))
	}
	return c.result(limit), nil
}

func (p *FanoutProbe) scan(ctx context.Context, rdb redis.Cmdable, limit int) ([]string, error) {
	var (
		keys   []string
		cursor uint64
		seen   = make(map[string]struct{})
	)
	for {
		batch, next, err := rdb.Scan(ctx, cursor, p.Pattern, scanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		cursor = next
		if cursor == 0 || len(keys) >= limit {
			break
		}
	}
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

// collector accumulates raw records from stored entries, skipping
// malformed ones individually.
type collector struct {
	layout  Layout
	logger  zerolog.Logger
	records []news.RawArticle
}

func newCollector(layout Layout, logger zerolog.Logger) *collector {
	return &collector{layout: layout, logger: logger}
}

// addEntry expands one stored value: an envelope contributes its results,
// a single record contributes itself.
func (c *collector) addEntry(key string, payload []byte) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		c.skip(key, err)
		return
	}

	if results, ok := fields["results"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(results, &items); err != nil {
			c.skip(key, err)
			return
		}
		c.addRecords(key, items)
		return
	}

	_, hasID := fields["article_id"]
	_, hasLink := fields["link"]
	if !hasID && !hasLink {
		c.skip(key, errUnrecognizedEntry)
		return
	}
	c.addRecords(key, []json.RawMessage{payload})
}

func (c *collector) addRecords(key string, items []json.RawMessage) {
	for _, item := range items {
		var raw news.RawArticle
		if err := json.Unmarshal(item, &raw); err != nil {
			c.skip(key, err)
			continue
		}
		c.records = append(c.records, raw)
	}
}

func (c *collector) skip(key string, err error) {
	DecodeFailures.WithLabelValues(string(c.layout)).Inc()
	c.logger.Debug().
		Err(err).
		Str("layout", string(c.layout)).
		Str("key", key).
		Msg("Skipping malformed cache entry")
}

// result normalizes, drops records without id or link, dedupes by id and
// caps the result at limit.
func (c *collector) result(limit int) []news.Article {
	articles, invalid := news.NormalizeAll(c.records)
	if invalid > 0 {
		DecodeFailures.WithLabelValues(string(c.layout)).Add(float64(invalid))
		c.logger.Debug().
			Str("layout", string(c.layout)).
			Int("count", invalid).
			Msg("Skipping records without id or link")
	}

	articles = news.Dedupe(articles)
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}
