// Package cache reads and writes the latest news articles in Redis.
//
// The article collection may be stored under any of four layouts, and the
// reader does not know in advance which one is populated:
//
// - Envelope: one string key holding {status, totalResults, results, nextPage}
// - Sorted index: a sorted set of records scored by publish time
// - List: a list of record or envelope JSON values
// - Fan-out: many keys sharing a prefix, one record or envelope each
//
// # Reading
//
//	manager := redisconn.NewManager(redisconn.DefaultOptions(), logger)
//	defer manager.Close()
//
//	reader := cache.NewReader(manager, cache.DefaultKeys(), logger)
//	articles, err := reader.FetchLatest(ctx, 20)
//	var readErr *cache.CacheReadError
//	switch {
//	case errors.As(err, &readErr):
//		// Redis failed mid-read
//	case err != nil:
//		// connection or argument error
//	case len(articles) == 0:
//		// nothing ingested yet
//	}
//
// Layouts are probed in the order above; the first one yielding articles
// wins. Malformed entries are skipped one by one, records without an id or
// link are dropped, and duplicates (by id) are removed before the result is
// capped at the limit.
//
// # Writing
//
//	writer := cache.NewWriter(manager, cache.DefaultKeys(), logger)
//	if err := writer.StoreLatest(ctx, batch, ""); err != nil {
//		return err
//	}
//
// The envelope is written with SET; the sorted index is then cleared and
// refilled inside a single MULTI/EXEC transaction.
//
// # Metrics
//
//   - news_cache_probe_hits_total{layout} - Reads answered by a layout
//   - news_cache_probe_misses_total{layout} - Probes that found nothing
//   - news_cache_empty_reads_total - Reads with every layout empty
//   - news_cache_decode_failures_total{layout} - Skipped malformed entries
//   - news_cache_errors_total{operation} - Cache operation errors
//   - news_cache_read_duration_seconds - FetchLatest latency
//   - news_cache_articles_stored - Size of the last stored batch
//
// No layout carries a TTL; each ingestion overwrites the previous one.
package cache
