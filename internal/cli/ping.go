package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/scalewithchintan/news-cache/pkg/news"
)

var pingKey string

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check Redis connectivity and summarize the stored envelope",
	RunE:  pingAction,
}

func init() {
	pingCmd.Flags().StringVar(&pingKey, "key", "", "envelope key to summarize (default NEWS_PRIMARY_KEY)")
	rootCmd.AddCommand(pingCmd)
}

const scratchTTL = time.Minute

func pingAction(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rdb, err := a.manager.Acquire(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s\n", a.cfg.RedisOptions().Addr())

	scratch := "news-cache:ping:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := rdb.Set(ctx, scratch, "ok", scratchTTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", scratch, err)
	}
	got, err := rdb.Get(ctx, scratch).Result()
	if err != nil {
		return fmt.Errorf("get %s: %w", scratch, err)
	}
	if err := rdb.Del(ctx, scratch).Err(); err != nil {
		return fmt.Errorf("del %s: %w", scratch, err)
	}
	if got != "ok" {
		return fmt.Errorf("scratch key round trip returned %q", got)
	}
	fmt.Fprintln(out, "Read/write round trip: ok")

	key := pingKey
	if key == "" {
		key = a.cfg.Keys.Primary
	}
	return summarizeEnvelope(ctx, out, rdb, key)
}

func summarizeEnvelope(ctx context.Context, out io.Writer, rdb redis.Cmdable, key string) error {
	data, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		fmt.Fprintf(out, "Envelope %s: not found\n", key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}

	var env news.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Fprintf(out, "Envelope %s: not an envelope (%d bytes)\n", key, len(data))
		return nil
	}
	fmt.Fprintf(out, "Envelope %s: status=%s totalResults=%d results=%d\n",
		key, env.Status, env.TotalResults, len(env.Results))
	return nil
}
