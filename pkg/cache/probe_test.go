package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalewithchintan/news-cache/internal/testutil"
	"github.com/scalewithchintan/news-cache/pkg/news"
)

func TestEnvelopeProbe(t *testing.T) {
	a := testutil.NewRawArticle("a", "2024-01-01 10:00:00")
	b := testutil.NewRawArticle("b", "2024-01-02 10:00:00")

	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name:    "success envelope",
			payload: testutil.MustJSON(news.NewEnvelope([]news.RawArticle{a, b})),
			want:    []string{"a", "b"},
		},
		{
			name:    "legacy bare array",
			payload: testutil.MustJSON([]news.RawArticle{b, a}),
			want:    []string{"b", "a"},
		},
		{
			name:    "error status",
			payload: `{"status":"error","results":[` + testutil.MustJSON(a) + `]}`,
			want:    nil,
		},
		{
			name:    "empty results",
			payload: `{"status":"success","totalResults":0,"results":[]}`,
			want:    nil,
		},
		{
			name:    "invalid json",
			payload: `{"status":"success","results":[`,
			want:    nil,
		},
		{
			name:    "bad record skipped individually",
			payload: `{"status":"success","results":[` + testutil.MustJSON(a) + `,{"article_id":42},` + testutil.MustJSON(b) + `]}`,
			want:    []string{"a", "b"},
		},
		{
			name:    "records without link dropped",
			payload: `{"status":"success","results":[{"article_id":"x"},` + testutil.MustJSON(a) + `]}`,
			want:    []string{"a"},
		},
		{
			name:    "duplicates collapsed",
			payload: testutil.MustJSON(news.NewEnvelope([]news.RawArticle{a, a, b})),
			want:    []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockRedis(t)
			require.NoError(t, mock.Seed.Set(context.Background(), "env", tt.payload, 0).Err())

			probe := NewEnvelopeProbe("env", zerolog.Nop())
			got, err := probe.Probe(context.Background(), mock.Client, 10)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestEnvelopeProbe_MissingKey(t *testing.T) {
	mock := testutil.NewMockRedis(t)

	got, err := NewEnvelopeProbe("absent", zerolog.Nop()).Probe(context.Background(), mock.Client, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSortedIndexProbe_ExpandsEnvelopeMembers(t *testing.T) {
	mock := testutil.NewMockRedis(t)
	ctx := context.Background()

	env := news.NewEnvelope([]news.RawArticle{
		testutil.NewRawArticle("e1", "2024-01-05 10:00:00"),
		testutil.NewRawArticle("e2", "2024-01-05 10:00:00"),
	})
	require.NoError(t, mock.Seed.ZAdd(ctx, "idx",
		redis.Z{Score: 300, Member: testutil.MustJSON(env)},
		redis.Z{Score: 200, Member: testutil.MustJSON(testutil.NewRawArticle("single", "2024-01-04 10:00:00"))},
		redis.Z{Score: 100, Member: `{"neither":"envelope nor record"}`},
	).Err())

	got, err := NewSortedIndexProbe("idx", zerolog.Nop()).Probe(ctx, mock.Client, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2", "single"}, ids(got))
}

func TestSortedIndexProbe_ReadsOnlyLimitMembers(t *testing.T) {
	mock := testutil.NewMockRedis(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := testutil.NewRawArticle(fmt.Sprintf("r%d", i), "2024-01-01 10:00:00")
		require.NoError(t, mock.Seed.ZAdd(ctx, "idx", redis.Z{Score: float64(i), Member: testutil.MustJSON(rec)}).Err())
	}

	got, err := NewSortedIndexProbe("idx", zerolog.Nop()).Probe(ctx, mock.Client, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"r4", "r3"}, ids(got))
}

func TestListProbe_StoredOrder(t *testing.T) {
	mock := testutil.NewMockRedis(t)
	ctx := context.Background()

	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, mock.Seed.RPush(ctx, "list", testutil.MustJSON(testutil.NewRawArticle(id, "2024-01-01 10:00:00"))).Err())
	}

	got, err := NewListProbe("list", zerolog.Nop()).Probe(ctx, mock.Client, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(got))
}

func TestFanoutProbe_ManyKeys(t *testing.T) {
	mock := testutil.NewMockRedis(t)
	ctx := context.Background()

	for i := 0; i < scanCount+20; i++ {
		rec := testutil.NewRawArticle(fmt.Sprintf("k%03d", i), "2024-01-01 10:00:00")
		require.NoError(t, mock.Seed.Set(ctx, fmt.Sprintf("news:k%03d", i), testutil.MustJSON(rec), 0).Err())
	}
	// Outside the prefix.
	require.NoError(t, mock.Seed.Set(ctx, "other:key", testutil.MustJSON(testutil.NewRawArticle("other", "2024-01-01 10:00:00")), 0).Err())

	got, err := NewFanoutProbe("news:*", zerolog.Nop()).Probe(ctx, mock.Client, 7)
	require.NoError(t, err)
	require.Len(t, got, 7)
	for _, a := range got {
		assert.NotEqual(t, "other", a.ID)
	}
	assert.Equal(t, 1, mock.Recorder.Count("mget"))
}

func TestFanoutProbe_EnvelopeValue(t *testing.T) {
	mock := testutil.NewMockRedis(t)
	ctx := context.Background()

	env := news.NewEnvelope([]news.RawArticle{
		testutil.NewRawArticle("p", "2024-01-01 10:00:00"),
		testutil.NewRawArticle("q", "2024-01-01 10:00:00"),
	})
	require.NoError(t, mock.Seed.Set(ctx, "news:batch", testutil.MustJSON(env), 0).Err())
	require.NoError(t, mock.Seed.Set(ctx, "news:broken", "{{{", 0).Err())

	got, err := NewFanoutProbe("news:*", zerolog.Nop()).Probe(ctx, mock.Client, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p", "q"}, ids(got))
}

func TestFanoutProbe_NoKeys(t *testing.T) {
	mock := testutil.NewMockRedis(t)

	got, err := NewFanoutProbe("news:*", zerolog.Nop()).Probe(context.Background(), mock.Client, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, mock.Recorder.Count("mget"))
}
