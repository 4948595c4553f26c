package crawler

import (
	"time"

	"xdigest/pkg/timeline"
)

// StopReason is the terminal classification of a crawl
type StopReason string

const (
	StopFetchFailure StopReason = "fetch_failure"
	StopTimeLimit    StopReason = "time_limit_reached"
	StopNoMorePages  StopReason = "no_more_pages"
	StopPageLimit    StopReason = "page_limit_reached"
)

func (r StopReason) String() string {
	return string(r)
}

// Description is a short human readable form of the reason
func (r StopReason) Description() string {
	switch r {
	case StopFetchFailure:
		return "page request failed"
	case StopTimeLimit:
		return "reached the time limit"
	case StopNoMorePages:
		return "no more pages"
	case StopPageLimit:
		return "reached the page limit"
	default:
		return string(r)
	}
}

// Result is everything a finished crawl hands to the report step
type Result struct {
	RunID        string
	Window       timeline.Window
	Records      []timeline.TweetRecord
	PagesVisited int
	StopReason   StopReason
	// Err is set only when StopReason is StopFetchFailure
	Err error

	// Skipped counts dropped tweet entries by reason
	Skipped map[timeline.SkipReason]int
	// Expired counts tweets older than the cutoff
	Expired int
	// DateFallbacks counts tweets kept with a substituted timestamp
	DateFallbacks int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Empty reports whether the run collected no records
func (r *Result) Empty() bool {
	return len(r.Records) == 0
}

// SkippedTotal sums Skipped over all reasons
func (r *Result) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Duration is the wall time of the run
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
