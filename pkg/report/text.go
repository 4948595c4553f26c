package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xdigest/pkg/errors"
	"xdigest/pkg/storage"
	"xdigest/pkg/timeline"
)

const ruleWidth = 50

// TextSink writes the plain text digest
type TextSink struct {
	store   *storage.Manager
	pattern string
	title   string
	loc     *time.Location

	lastPath string
}

// NewTextSink creates a text sink writing through store
func NewTextSink(store *storage.Manager, pattern, title string, loc *time.Location) *TextSink {
	if loc == nil {
		loc = time.UTC
	}
	return &TextSink{store: store, pattern: pattern, title: title, loc: loc}
}

func (s *TextSink) Name() string { return "text" }

// Path returns the file written by the last successful Write
func (s *TextSink) Path() string { return s.lastPath }

func (s *TextSink) Write(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.store.Save(strings.NewReader(RenderText(r, s.title, s.loc)), FileName(s.pattern, r, s.loc, ".txt"))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeStorage, err, "write text report")
	}
	s.lastPath = path
	return nil
}

// RenderText formats a report as the digest text: a header line, a blank
// line, then one block per record separated by newlines.
func RenderText(r *Report, title string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	blocks := make([]string, 0, len(r.Records))
	for _, rec := range r.Records {
		blocks = append(blocks, renderRecord(rec, loc))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== %s (%d tweets) ===\n\n", title, len(r.Records))
	b.WriteString(strings.Join(blocks, "\n"))
	b.WriteString("\n")
	return b.String()
}

func renderRecord(rec timeline.TweetRecord, loc *time.Location) string {
	return fmt.Sprintf("⏰ %s | 👤 %s (@%s)\n📄 %s\n🔗 %s\n%s",
		rec.CreatedAt.In(loc).Format("01-02 15:04"),
		rec.AuthorName,
		rec.AuthorHandle,
		rec.Text,
		rec.Permalink,
		strings.Repeat("-", ruleWidth),
	)
}
