package report

import (
	"context"
	"strings"
	"time"

	"xdigest/pkg/crawler"
	"xdigest/pkg/timeline"
)

// Report is the artifact handed to sinks at the end of a crawl
type Report struct {
	RunID        string                 `json:"run_id"`
	GeneratedAt  time.Time              `json:"generated_at"`
	Window       timeline.Window        `json:"window"`
	StopReason   string                 `json:"stop_reason"`
	PagesVisited int                    `json:"pages_visited"`
	Count        int                    `json:"count"`
	Records      []timeline.TweetRecord `json:"records"`
}

// FromResult builds a report from a finished crawl
func FromResult(res *crawler.Result, generatedAt time.Time) *Report {
	records := res.Records
	if records == nil {
		records = []timeline.TweetRecord{}
	}
	return &Report{
		RunID:        res.RunID,
		GeneratedAt:  generatedAt.UTC(),
		Window:       res.Window,
		StopReason:   res.StopReason.String(),
		PagesVisited: res.PagesVisited,
		Count:        len(records),
		Records:      records,
	}
}

// Empty reports whether the report carries no records
func (r *Report) Empty() bool {
	return len(r.Records) == 0
}

// Sink persists a report somewhere
type Sink interface {
	Name() string
	Write(ctx context.Context, r *Report) error
}

// FileName expands the {date} and {run_id} placeholders of pattern and
// appends ext. The date is the run start in loc, formatted YYYYMMDD.
func FileName(pattern string, r *Report, loc *time.Location, ext string) string {
	if loc == nil {
		loc = time.UTC
	}
	name := strings.NewReplacer(
		"{date}", r.Window.Now.In(loc).Format("20060102"),
		"{run_id}", r.RunID,
	).Replace(pattern)
	return name + ext
}
