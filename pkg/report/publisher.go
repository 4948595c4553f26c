package report

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"xdigest/pkg/config"
	"xdigest/pkg/errors"
	"xdigest/pkg/logger"
	"xdigest/pkg/storage"
)

// Publisher fans a report out to its sinks in order
type Publisher struct {
	sinks  []Sink
	logger logger.Logger
}

// NewPublisher creates a publisher over sinks
func NewPublisher(log logger.Logger, sinks ...Sink) *Publisher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Publisher{sinks: sinks, logger: log}
}

// Add appends a sink
func (p *Publisher) Add(s Sink) {
	p.sinks = append(p.sinks, s)
}

// Sinks returns the configured sinks
func (p *Publisher) Sinks() []Sink {
	return p.sinks
}

// Publish writes r to every sink. An empty report is not written anywhere
// and yields errors.ErrNoData. A failing sink does not stop the others;
// all failures are returned joined.
func (p *Publisher) Publish(ctx context.Context, r *Report) error {
	if r == nil || r.Empty() {
		p.logger.Warn("no records collected, nothing to publish")
		return errors.ErrNoData
	}

	var errs []error
	for _, sink := range p.sinks {
		start := time.Now()
		if err := sink.Write(ctx, r); err != nil {
			p.logger.WithError(err).WithField("sink", sink.Name()).Error("report sink failed")
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		p.logger.InfoWithFields("report written", map[string]interface{}{
			"sink":     sink.Name(),
			"records":  r.Count,
			"duration": time.Since(start),
		})
	}
	return stderrors.Join(errs...)
}

// Paths returns the files written by file-backed sinks
func (p *Publisher) Paths() []string {
	var paths []string
	for _, sink := range p.sinks {
		if ps, ok := sink.(interface{ Path() string }); ok && ps.Path() != "" {
			paths = append(paths, ps.Path())
		}
	}
	return paths
}

// NewFileSinks creates one file sink per configured format
func NewFileSinks(cfg config.ReportConfig) ([]Sink, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeConfig, err, "load report timezone")
	}

	store, err := storage.NewManager(cfg.Directory)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeStorage, err, "prepare report directory")
	}

	var sinks []Sink
	for _, format := range cfg.Formats {
		switch format {
		case "text":
			sinks = append(sinks, NewTextSink(store, cfg.FileNamePattern, cfg.Title, loc))
		case "json":
			sinks = append(sinks, NewJSONSink(store, cfg.FileNamePattern, loc))
		default:
			return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unknown report format %q", format))
		}
	}
	return sinks, nil
}
