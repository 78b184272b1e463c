// Package storage persists flight datasets (record table plus computed
// statistics) under opaque string keys.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cruzdariel/Sendy/flights"
)

// ErrNotFound is returned when no dataset exists under a key. A partially
// written dataset (crash mid-save) is reported as not found too.
var ErrNotFound = errors.New("dataset not found")

// DatasetMeta describes one stored dataset.
type DatasetMeta struct {
	DatasetID    string    `json:"dataset_id"`
	TotalFlights int       `json:"total_flights"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the dataset persistence contract. The snapshot's detail table
// is not stored twice: implementations drop it on save and rehydrate it
// from the stored record table on load.
type Store interface {
	Save(ctx context.Context, key string, records []flights.Record, snapshot *flights.Snapshot) error
	Load(ctx context.Context, key string) ([]flights.Record, *flights.Snapshot, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]DatasetMeta, error)
}
