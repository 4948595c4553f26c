package crawler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdigest/pkg/config"
	"xdigest/pkg/crawler"
	"xdigest/pkg/errors"
	"xdigest/pkg/logger"
	"xdigest/pkg/ratelimit"
	"xdigest/pkg/timeline"
	"xdigest/pkg/timeline/timelinetest"
)

var runStart = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// scriptedFetcher replays pages (or errors) in order and records the cursors it was asked for
type scriptedFetcher struct {
	mu      sync.Mutex
	steps   []interface{}
	cursors []timeline.Cursor
}

func (f *scriptedFetcher) FetchPage(ctx context.Context, cursor timeline.Cursor) (*timeline.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cursors = append(f.cursors, cursor)
	if len(f.steps) == 0 {
		return nil, fmt.Errorf("unexpected fetch #%d", len(f.cursors))
	}
	step := f.steps[0]
	f.steps = f.steps[1:]

	switch v := step.(type) {
	case error:
		return nil, v
	case *timeline.Page:
		return v, nil
	default:
		panic(fmt.Sprintf("bad step %T", step))
	}
}

func page(entries ...timeline.Entry) *timeline.Page {
	return &timeline.Page{Entries: entries}
}

func tweetAt(id string, age time.Duration) timeline.Entry {
	return timelinetest.TweetEntry(timelinetest.Tweet{
		ID:        id,
		Name:      "User " + id,
		Handle:    "user" + id,
		Text:      "post " + id,
		CreatedAt: runStart.Add(-age),
	})
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

func newCrawler(f crawler.PageFetcher, pacer ratelimit.Pacer, opts ...crawler.Option) *crawler.Crawler {
	base := []crawler.Option{
		crawler.WithClock(func() time.Time { return runStart }),
		crawler.WithPacer(pacer),
		crawler.WithLogger(logger.NewNopLogger()),
		crawler.WithRunID("run-1"),
	}
	return crawler.New(f, append(base, opts...)...)
}

func recordIDs(res *crawler.Result) []string {
	ids := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestTwoPageCrawlStopsAtTimeLimit(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("1", time.Hour), tweetAt("2", 2*time.Hour), tweetAt("3", 3*time.Hour), timelinetest.BottomCursor("C1")),
		page(tweetAt("4", 5*time.Hour), tweetAt("5", 30*time.Hour)),
	}}
	pacer := &countingPacer{}

	res := newCrawler(f, pacer).Run(context.Background())

	assert.Equal(t, []string{"1", "2", "3", "4"}, recordIDs(res))
	assert.Equal(t, crawler.StopTimeLimit, res.StopReason)
	assert.Equal(t, 2, res.PagesVisited)
	assert.Equal(t, 1, res.Expired)
	assert.NoError(t, res.Err)
	assert.Equal(t, []timeline.Cursor{"", "C1"}, f.cursors)
	assert.Equal(t, 1, pacer.waits)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, runStart.Add(-24*time.Hour), res.Window.Cutoff)
}

func TestFetchFailureOnFirstPage(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		errors.New(errors.ErrorTypeNetwork, "connection reset"),
	}}

	res := newCrawler(f, &countingPacer{}).Run(context.Background())

	assert.True(t, res.Empty())
	assert.NotNil(t, res.Records)
	assert.Equal(t, crawler.StopFetchFailure, res.StopReason)
	assert.Equal(t, 0, res.PagesVisited)
	assert.True(t, errors.IsFetchFailure(res.Err))
}

func TestFetchFailureKeepsEarlierRecords(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("1", time.Hour), timelinetest.BottomCursor("C1")),
		errors.New(errors.ErrorTypeParsing, "not json"),
	}}

	res := newCrawler(f, &countingPacer{}).Run(context.Background())

	assert.Equal(t, []string{"1"}, recordIDs(res))
	assert.Equal(t, crawler.StopFetchFailure, res.StopReason)
	assert.Equal(t, 1, res.PagesVisited)
}

func TestZeroLookbackStopsImmediately(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("1", time.Minute), tweetAt("2", time.Hour), timelinetest.BottomCursor("C1")),
	}}
	pacer := &countingPacer{}

	res := newCrawler(f, pacer, crawler.WithLookback(0)).Run(context.Background())

	assert.True(t, res.Empty())
	assert.Equal(t, crawler.StopTimeLimit, res.StopReason)
	assert.Equal(t, 1, res.PagesVisited)
	assert.Len(t, f.cursors, 1)
	assert.Zero(t, pacer.waits)
}

func TestPageLimit(t *testing.T) {
	var steps []interface{}
	for i := 1; i <= 5; i++ {
		steps = append(steps, page(tweetAt(fmt.Sprint(i), time.Duration(i)*time.Minute), timelinetest.BottomCursor(fmt.Sprintf("C%d", i))))
	}
	f := &scriptedFetcher{steps: steps}
	pacer := &countingPacer{}

	res := newCrawler(f, pacer, crawler.WithMaxPages(3)).Run(context.Background())

	assert.Equal(t, crawler.StopPageLimit, res.StopReason)
	assert.Equal(t, 3, res.PagesVisited)
	assert.Equal(t, []string{"1", "2", "3"}, recordIDs(res))
	assert.Equal(t, []timeline.Cursor{"", "C1", "C2"}, f.cursors)
	assert.Equal(t, 2, pacer.waits)
}

func TestNoCursorEndsCrawl(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("1", time.Hour), timelinetest.CursorEntry("Top", "T")),
		page(tweetAt("never", time.Hour)),
	}}

	res := newCrawler(f, &countingPacer{}).Run(context.Background())

	assert.Equal(t, crawler.StopNoMorePages, res.StopReason)
	assert.Equal(t, []string{"1"}, recordIDs(res))
	assert.Len(t, f.cursors, 1, "no fetch after a page without a bottom cursor")
}

func TestTimeLimitCheckedBeforeMissingCursor(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("old", 48*time.Hour)),
	}}

	res := newCrawler(f, &countingPacer{}).Run(context.Background())
	assert.Equal(t, crawler.StopTimeLimit, res.StopReason)
}

func TestLastBottomCursorWins(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(timelinetest.BottomCursor("A"), tweetAt("1", time.Hour), timelinetest.BottomCursor("B")),
		page(tweetAt("2", time.Hour)),
	}}

	res := newCrawler(f, &countingPacer{}).Run(context.Background())

	assert.Equal(t, []timeline.Cursor{"", "B"}, f.cursors)
	assert.Equal(t, crawler.StopNoMorePages, res.StopReason)
}

func TestScanContinuesAfterExpiredTweet(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("old", 40*time.Hour), tweetAt("fresh", time.Hour), timelinetest.BottomCursor("C1")),
	}}

	var seen []crawler.PageStats
	res := newCrawler(f, &countingPacer{}, crawler.WithPageObserver(func(s crawler.PageStats) {
		seen = append(seen, s)
	})).Run(context.Background())

	assert.Equal(t, []string{"fresh"}, recordIDs(res))
	assert.Equal(t, crawler.StopTimeLimit, res.StopReason)
	require.Len(t, seen, 1)
	assert.Equal(t, timeline.Cursor("C1"), seen[0].Cursor)
	assert.True(t, seen[0].LimitReached)
	assert.Equal(t, 1, seen[0].Kept)
	assert.Equal(t, 1, seen[0].Expired)
}

func TestMalformedAndBadDateEntriesAreCounted(t *testing.T) {
	bad := timelinetest.Tweet{ID: "9", Name: "N", Handle: "n", RawDate: "not a date"}
	f := &scriptedFetcher{steps: []interface{}{
		page(
			timelinetest.Entry("tweet-broken", map[string]interface{}{"itemContent": map[string]interface{}{}}),
			timelinetest.TweetEntry(bad),
			tweetAt("1", time.Hour),
		),
	}}

	res := newCrawler(f, &countingPacer{}).Run(context.Background())

	assert.Equal(t, []string{"1"}, recordIDs(res))
	assert.Equal(t, 1, res.Skipped[timeline.SkipMalformed])
	assert.Equal(t, 1, res.Skipped[timeline.SkipBadDate])
	assert.Equal(t, 2, res.SkippedTotal())
}

func TestBadDateNowPolicyKeepsRecord(t *testing.T) {
	bad := timelinetest.Tweet{ID: "9", Name: "N", Handle: "n", RawDate: "not a date"}
	f := &scriptedFetcher{steps: []interface{}{page(timelinetest.TweetEntry(bad))}}

	res := newCrawler(f, &countingPacer{}, crawler.WithBadDatePolicy(timeline.BadDateNow)).Run(context.Background())

	require.Len(t, res.Records, 1)
	assert.Equal(t, runStart, res.Records[0].CreatedAt)
	assert.Equal(t, 1, res.DateFallbacks)
	assert.Equal(t, crawler.StopNoMorePages, res.StopReason)
}

func TestDuplicatesAreKept(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("1", time.Hour), timelinetest.BottomCursor("C1")),
		page(tweetAt("1", time.Hour)),
	}}

	res := newCrawler(f, &countingPacer{}).Run(context.Background())
	assert.Equal(t, []string{"1", "1"}, recordIDs(res))
}

func TestCancelledDuringPause(t *testing.T) {
	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("1", time.Hour), timelinetest.BottomCursor("C1")),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	pacer := ratelimit.PacerFunc(func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})

	res := newCrawler(f, pacer).Run(ctx)

	assert.Equal(t, crawler.StopFetchFailure, res.StopReason)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, []string{"1"}, recordIDs(res))
}

func TestPagesNeverExceedMax(t *testing.T) {
	for _, limit := range []int{1, 2, 7} {
		fetcher := crawler.PageFetcherFunc(func(ctx context.Context, c timeline.Cursor) (*timeline.Page, error) {
			return page(tweetAt("x", time.Minute), timelinetest.BottomCursor("next")), nil
		})
		res := newCrawler(fetcher, &countingPacer{}, crawler.WithMaxPages(limit)).Run(context.Background())
		assert.Equal(t, limit, res.PagesVisited)
		assert.Equal(t, crawler.StopPageLimit, res.StopReason)
	}
}

func TestRecordsNeverOlderThanCutoff(t *testing.T) {
	for _, lookback := range []time.Duration{0, time.Hour, 6 * time.Hour, 24 * time.Hour} {
		f := &scriptedFetcher{steps: []interface{}{
			page(tweetAt("a", 30*time.Minute), tweetAt("b", 2*time.Hour), timelinetest.BottomCursor("C1")),
			page(tweetAt("c", 5*time.Hour), tweetAt("d", 12*time.Hour), timelinetest.BottomCursor("C2")),
			page(tweetAt("e", 20*time.Hour), tweetAt("f", 36*time.Hour)),
		}}

		res := newCrawler(f, &countingPacer{}, crawler.WithLookback(lookback)).Run(context.Background())
		for _, r := range res.Records {
			assert.False(t, r.CreatedAt.Before(runStart.Add(-lookback)), "lookback %s kept %s", lookback, r.ID)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Crawl
	cfg.MaxPages = 1
	cfg.PageDelay = 0

	f := &scriptedFetcher{steps: []interface{}{
		page(tweetAt("1", time.Hour), timelinetest.BottomCursor("C1")),
	}}
	opts := append(crawler.OptionsFromConfig(cfg),
		crawler.WithClock(func() time.Time { return runStart }),
		crawler.WithLogger(logger.NewNopLogger()))

	res := crawler.New(f, opts...).Run(context.Background())
	assert.Equal(t, crawler.StopPageLimit, res.StopReason)
	assert.Equal(t, 24*time.Hour, res.Window.Lookback())
	assert.NotEmpty(t, res.RunID)
}

func TestEndToEndWithHTTPClient(t *testing.T) {
	var mu sync.Mutex
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()

		if r.Header.Get("apikey") != "k" || r.Header.Get("AuthToken") != "t" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("variables") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		vars := r.URL.Query().Get("variables")
		if !strings.Contains(vars, `"cursor":"C1"`) {
			w.Write(timelinetest.Body(
				tweetAt("1", time.Hour), tweetAt("2", 2*time.Hour), tweetAt("3", 3*time.Hour),
				timelinetest.BottomCursor("C1"),
			))
			return
		}
		w.Write(timelinetest.Body(
			timelinetest.ConversationEntry(timelinetest.Tweet{ID: "4", Name: "Four", Handle: "four", Text: "line\nbreak", CreatedAt: runStart.Add(-5 * time.Hour)}),
			tweetAt("5", 30*time.Hour),
		))
	}))
	defer server.Close()

	client, err := timeline.NewClient(config.APIConfig{
		BaseURL:        server.URL,
		TimelinePath:   config.DefaultTimelinePath,
		APIKey:         "k",
		AuthToken:      "t",
		RequestTimeout: 5 * time.Second,
	}, logger.NewNopLogger())
	require.NoError(t, err)

	res := newCrawler(client, ratelimit.NewDelay(0)).Run(context.Background())

	assert.Equal(t, []string{"1", "2", "3", "4"}, recordIDs(res))
	assert.Equal(t, crawler.StopTimeLimit, res.StopReason)
	assert.Equal(t, "line break", res.Records[3].Text)
	assert.Equal(t, "https://x.com/four/status/4", res.Records[3].Permalink)
	assert.Equal(t, 2, requests)
}
