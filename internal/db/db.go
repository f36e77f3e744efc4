package db

import (
	"context"
	"time"
)

// DocumentStore is the facade over stores that keep documents as JSON blobs
// grouped by collection tag (Redis/Valkey, SQLite snapshots).
type DocumentStore interface {
	Pinger
	DocumentReader
	DocumentWriter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RawDocument is a stored JSON document and its storage identifier.
type RawDocument struct {
	ID   string
	Body []byte
}

// DocumentReader lists stored documents.
type DocumentReader interface {
	ListDocuments(ctx context.Context, collection string) ([]RawDocument, error)
}

// DocumentWriter stores and removes documents.
type DocumentWriter interface {
	PutDocuments(ctx context.Context, collection string, docs []RawDocument) error
	DeleteDocuments(ctx context.Context, collection string, ids []string) (int64, error)
}
