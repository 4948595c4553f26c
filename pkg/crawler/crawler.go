package crawler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"xdigest/pkg/config"
	"xdigest/pkg/logger"
	"xdigest/pkg/ratelimit"
	"xdigest/pkg/timeline"
)

const (
	DefaultLookback = 24 * time.Hour
	DefaultMaxPages = 30
	DefaultDelay    = 1500 * time.Millisecond
)

// PageStats describes one processed page
type PageStats struct {
	Page         int
	Kept         int
	Skipped      int
	Expired      int
	Cursor       timeline.Cursor
	LimitReached bool
}

// Crawler walks the home timeline backwards until a stop condition fires
type Crawler struct {
	fetcher  PageFetcher
	pacer    ratelimit.Pacer
	clock    func() time.Time
	newRunID func() string
	lookback time.Duration
	maxPages int
	badDate  timeline.BadDatePolicy
	logger   logger.Logger
	onPage   func(PageStats)
}

// Option configures a Crawler
type Option func(*Crawler)

// WithLookback sets how far back from the run start records are kept
func WithLookback(d time.Duration) Option {
	return func(c *Crawler) { c.lookback = d }
}

// WithMaxPages caps the number of fetched pages; n <= 0 is ignored
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithPacer sets the pause taken between two fetches
func WithPacer(p ratelimit.Pacer) Option {
	return func(c *Crawler) {
		if p != nil {
			c.pacer = p
		}
	}
}

// WithClock sets the source of the run start instant
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithRunID fixes the run id instead of generating a UUID
func WithRunID(id string) Option {
	return func(c *Crawler) {
		if id != "" {
			c.newRunID = func() string { return id }
		}
	}
}

// WithBadDatePolicy chooses how unparseable timestamps are handled
func WithBadDatePolicy(p timeline.BadDatePolicy) Option {
	return func(c *Crawler) { c.badDate = p }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPageObserver registers a callback run after every processed page
func WithPageObserver(fn func(PageStats)) Option {
	return func(c *Crawler) { c.onPage = fn }
}

// OptionsFromConfig maps the crawl section of the configuration to options
func OptionsFromConfig(cfg config.CrawlConfig) []Option {
	return []Option{
		WithLookback(cfg.Lookback()),
		WithMaxPages(cfg.MaxPages),
		WithPacer(ratelimit.NewDelay(cfg.PageDelay)),
		WithBadDatePolicy(timeline.BadDatePolicy(cfg.BadDatePolicy)),
	}
}

// New creates a crawler over fetcher
func New(fetcher PageFetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:  fetcher,
		pacer:    ratelimit.NewDelay(DefaultDelay),
		clock:    time.Now,
		newRunID: uuid.NewString,
		lookback: DefaultLookback,
		maxPages: DefaultMaxPages,
		badDate:  timeline.BadDateSkip,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs one crawl. It never returns a nil Result; a failed fetch
// ends the run with StopFetchFailure and keeps the records gathered so far.
func (c *Crawler) Run(ctx context.Context) *Result {
	started := c.clock()
	window := timeline.NewWindow(started, c.lookback)
	extractor := timeline.NewExtractor(c.badDate, window)

	res := &Result{
		RunID:     c.newRunID(),
		Window:    window,
		Records:   []timeline.TweetRecord{},
		Skipped:   make(map[timeline.SkipReason]int),
		StartedAt: started,
	}
	log := c.logger.WithField("run_id", res.RunID)
	logger.LogComponentStart(log, "crawler", map[string]interface{}{
		"cutoff":    window.Cutoff,
		"max_pages": c.maxPages,
	})

	var cursor timeline.Cursor
	for {
		page, err := c.fetcher.FetchPage(ctx, cursor)
		if err != nil {
			log.WithError(err).WithField("page", res.PagesVisited+1).Warn("fetch failed, stopping crawl")
			res.StopReason = StopFetchFailure
			res.Err = err
			break
		}

		stats := c.processPage(page, extractor, window, res)
		res.PagesVisited++
		stats.Page = res.PagesVisited

		logger.LogPage(log, stats.Page, stats.Kept, stats.Skipped, stats.Cursor != "", stats.LimitReached)
		if c.onPage != nil {
			c.onPage(stats)
		}

		if stats.LimitReached {
			res.StopReason = StopTimeLimit
			break
		}
		if stats.Cursor == "" {
			res.StopReason = StopNoMorePages
			break
		}
		if res.PagesVisited >= c.maxPages {
			res.StopReason = StopPageLimit
			break
		}

		cursor = stats.Cursor
		if err := c.pacer.Wait(ctx); err != nil {
			log.WithError(err).Warn("interrupted between pages")
			res.StopReason = StopFetchFailure
			res.Err = err
			break
		}
	}

	res.FinishedAt = c.clock()
	logger.LogComponentStop(log, "crawler", res.StopReason.String())
	return res
}

// processPage scans every entry of the page, appends the kept records to
// res and reports the page's bottom cursor. Scanning continues past expired
// tweets so a cursor placed after them is still seen.
func (c *Crawler) processPage(page *timeline.Page, x *timeline.Extractor, w timeline.Window, res *Result) PageStats {
	var stats PageStats
	var kept []timeline.TweetRecord
	if page == nil {
		return stats
	}

	for _, entry := range page.Entries {
		ex := x.Extract(entry)
		switch ex.Kind {
		case timeline.KindCursor:
			stats.Cursor = ex.Cursor
		case timeline.KindTweet:
			if ex.DateFallback {
				res.DateFallbacks++
			}
			if w.Expired(ex.Tweet.CreatedAt) {
				stats.LimitReached = true
				stats.Expired++
				continue
			}
			kept = append(kept, *ex.Tweet)
		default:
			if ex.Skip != "" {
				res.Skipped[ex.Skip]++
				stats.Skipped++
			}
		}
	}

	res.Records = append(res.Records, kept...)
	res.Expired += stats.Expired
	stats.Kept = len(kept)
	return stats
}
