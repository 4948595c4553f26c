// Package archive keeps collected tweets in a database across runs.
//
// Every backend upserts one document per tweet id, so re-running a crawl
// over an overlapping window refreshes rows instead of duplicating them.
// Stores implement report.Sink and are published to like file sinks.
package archive

import (
	"context"
	"fmt"
	"time"

	"xdigest/pkg/config"
	"xdigest/pkg/errors"
	"xdigest/pkg/report"
)

// Store is an archive backend
type Store interface {
	report.Sink
	Close(ctx context.Context) error
}

// Document is the archived form of one tweet
type Document struct {
	ID           string    `json:"id" dynamodbav:"id" bson:"_id"`
	RunID        string    `json:"run_id" dynamodbav:"run_id" bson:"run_id"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at" bson:"created_at"`
	AuthorName   string    `json:"author_name" dynamodbav:"author_name" bson:"author_name"`
	AuthorHandle string    `json:"author_handle" dynamodbav:"author_handle" bson:"author_handle"`
	Text         string    `json:"text" dynamodbav:"text" bson:"text"`
	Permalink    string    `json:"permalink" dynamodbav:"permalink" bson:"permalink"`
	ArchivedAt   time.Time `json:"archived_at" dynamodbav:"archived_at" bson:"archived_at"`
}

// Documents converts the records of r. A tweet id appearing more than once
// in the report is archived once, keeping its first occurrence.
func Documents(r *report.Report, archivedAt time.Time) []Document {
	seen := make(map[string]bool, len(r.Records))
	docs := make([]Document, 0, len(r.Records))
	for _, rec := range r.Records {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		docs = append(docs, Document{
			ID:           rec.ID,
			RunID:        r.RunID,
			CreatedAt:    rec.CreatedAt.UTC(),
			AuthorName:   rec.AuthorName,
			AuthorHandle: rec.AuthorHandle,
			Text:         rec.Text,
			Permalink:    rec.Permalink,
			ArchivedAt:   archivedAt.UTC(),
		})
	}
	return docs
}

// NewStore creates the archive backend selected by cfg.Type
func NewStore(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case "dynamodb":
		store, err = NewDynamoDBStore(ctx, cfg)
	case "mongodb":
		store, err = NewMongoDBStore(ctx, cfg)
	case "postgresql":
		store, err = NewPostgreSQLStore(ctx, cfg)
	case "":
		return nil, errors.New(errors.ErrorTypeConfig, "archive is not configured")
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported archive type: %s", cfg.Type))
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeStorage, err, "open "+cfg.Type+" archive")
	}
	return store, nil
}
