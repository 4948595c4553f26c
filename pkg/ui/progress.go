package ui

import (
	"fmt"
	"strings"
	"time"

	"xdigest/pkg/crawler"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// CrawlProgress prints one status line per fetched page
type CrawlProgress struct {
	MaxPages  int
	Kept      int
	Skipped   int
	Expired   int
	Pages     int
	StartTime time.Time
}

// NewCrawlProgress creates a tracker for a crawl capped at maxPages
func NewCrawlProgress(maxPages int) *CrawlProgress {
	return &CrawlProgress{MaxPages: maxPages, StartTime: time.Now()}
}

// Observe records a processed page and prints the progress line.
// It matches the crawler page observer signature.
func (p *CrawlProgress) Observe(s crawler.PageStats) {
	p.Pages = s.Page
	p.Kept += s.Kept
	p.Skipped += s.Skipped
	p.Expired += s.Expired

	if quiet {
		return
	}
	status := Green("[PAGE]")
	if s.LimitReached {
		status = Yellow("[LIMIT]")
	}
	fmt.Fprintf(out, "%s %s +%d tweets (total %d)\n", status, p.Bar(), s.Kept, p.Kept)
}

// Bar returns a progress bar of pages fetched against the page cap
func (p *CrawlProgress) Bar() string {
	const width = 20
	filled := 0
	if p.MaxPages > 0 {
		filled = p.Pages * width / p.MaxPages
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, p.Pages, p.MaxPages)
}

// Elapsed returns the time since tracking started
func (p *CrawlProgress) Elapsed() time.Duration {
	return time.Since(p.StartTime)
}

// PrintSummary prints the outcome of a finished crawl and the files written
func PrintSummary(res *crawler.Result, paths []string) {
	if quiet {
		return
	}

	fmt.Fprintln(out)
	PrintHighlight("Crawl finished")
	PrintInfo("Stop reason", res.StopReason.Description())
	PrintInfo("Pages", fmt.Sprintf("%d", res.PagesVisited))
	PrintInfo("Tweets", fmt.Sprintf("%d", len(res.Records)))
	if n := res.SkippedTotal(); n > 0 {
		PrintInfo("Skipped", fmt.Sprintf("%d", n))
	}
	if res.DateFallbacks > 0 {
		PrintInfo("Date fallbacks", fmt.Sprintf("%d", res.DateFallbacks))
	}
	PrintInfo("Window", fmt.Sprintf("%s .. %s",
		res.Window.Cutoff.Format(time.RFC3339), res.Window.Now.Format(time.RFC3339)))
	PrintInfo("Elapsed", res.Duration().Round(time.Millisecond).String())
	for _, path := range paths {
		PrintSuccess("Saved " + path)
	}
}
