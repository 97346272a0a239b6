package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("document store unavailable")
)

// Document is one record in a collection. Data holds the record body;
// the store owns the create/update timestamps.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Collection is the remote boundary for one entity family.
// UpdateDoc merges the partial body into the stored document.
type Collection interface {
	GetAllDocs(ctx context.Context) ([]Document, error)
	GetDoc(ctx context.Context, id string) (*Document, error)
	SetDoc(ctx context.Context, id string, data json.RawMessage) (*Document, error)
	UpdateDoc(ctx context.Context, id string, partial json.RawMessage) (*Document, error)
	DeleteDoc(ctx context.Context, id string) error
}

type Store interface {
	Collection(name string) Collection
}
