package report

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"xdigest/pkg/errors"
	"xdigest/pkg/storage"
)

// JSONSink writes the whole report as an indented JSON document
type JSONSink struct {
	store   *storage.Manager
	pattern string
	loc     *time.Location

	lastPath string
}

// NewJSONSink creates a JSON sink writing through store
func NewJSONSink(store *storage.Manager, pattern string, loc *time.Location) *JSONSink {
	if loc == nil {
		loc = time.UTC
	}
	return &JSONSink{store: store, pattern: pattern, loc: loc}
}

func (s *JSONSink) Name() string { return "json" }

// Path returns the file written by the last successful Write
func (s *JSONSink) Path() string { return s.lastPath }

func (s *JSONSink) Write(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(errors.ErrorTypeStorage, err, "encode json report")
	}

	path, err := s.store.Save(&buf, FileName(s.pattern, r, s.loc, ".json"))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeStorage, err, "write json report")
	}
	s.lastPath = path
	return nil
}
