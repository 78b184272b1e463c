package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cruzdariel/Sendy/flights"
	"github.com/cruzdariel/Sendy/pkg/logger"
)

const (
	flightsFile  = "flights.csv"
	statsFile    = "stats.json"
	metadataFile = "metadata.json"
)

// FSStore keeps each dataset in its own directory under a base path:
// flights.csv (the record table), stats.json (the snapshot minus the
// detail table) and metadata.json. The three files are written in that
// order without a commit step, so Exists treats a directory missing any of
// them as absent.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a filesystem-backed dataset store rooted at baseDir.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset dir: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// keyPath validates a key and returns its directory. Keys are generated
// identifiers, but path traversal is rejected anyway since keys also
// arrive in share URLs.
func (s *FSStore) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid dataset key %q", key)
	}
	return filepath.Join(s.baseDir, key), nil
}

func (s *FSStore) Save(_ context.Context, key string, records []flights.Record, snapshot *flights.Snapshot) error {
	dir, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset %s: %w", key, err)
	}

	var buf bytes.Buffer
	if err := flights.WriteCSV(&buf, records); err != nil {
		return fmt.Errorf("encoding dataset %s: %w", key, err)
	}
	if err := os.WriteFile(filepath.Join(dir, flightsFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing dataset %s records: %w", key, err)
	}

	// Snapshot.Flights carries json:"-" so the detail table is not
	// duplicated here.
	statsJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dataset %s stats: %w", key, err)
	}
	if err := os.WriteFile(filepath.Join(dir, statsFile), statsJSON, 0o644); err != nil {
		return fmt.Errorf("writing dataset %s stats: %w", key, err)
	}

	meta := DatasetMeta{
		DatasetID:    key,
		TotalFlights: len(records),
		CreatedAt:    time.Now().UTC(),
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dataset %s metadata: %w", key, err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), metaJSON, 0o644); err != nil {
		return fmt.Errorf("writing dataset %s metadata: %w", key, err)
	}

	logger.Info("dataset saved", "key", key, "flights", len(records))
	return nil
}

func (s *FSStore) Load(ctx context.Context, key string) ([]flights.Record, *flights.Snapshot, error) {
	dir, err := s.keyPath(key)
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.Exists(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNotFound
	}

	csvFile, err := os.Open(filepath.Join(dir, flightsFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening dataset %s records: %w", key, err)
	}
	defer csvFile.Close()

	records, err := flights.ParseCSV(csvFile)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding dataset %s records: %w", key, err)
	}

	statsJSON, err := os.ReadFile(filepath.Join(dir, statsFile))
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset %s stats: %w", key, err)
	}
	var snapshot flights.Snapshot
	if err := json.Unmarshal(statsJSON, &snapshot); err != nil {
		return nil, nil, fmt.Errorf("decoding dataset %s stats: %w", key, err)
	}

	// Rehydrate the detail table from the stored records.
	snapshot.Flights = records

	return records, &snapshot, nil
}

func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	dir, err := s.keyPath(key)
	if err != nil {
		return false, err
	}
	// All artifacts must be present: a partial write reads as absent.
	for _, name := range []string{flightsFile, statsFile, metadataFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, fmt.Errorf("checking dataset %s: %w", key, err)
		}
	}
	return true, nil
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	dir, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting dataset %s: %w", key, err)
	}
	logger.Info("dataset deleted", "key", key)
	return nil
}

func (s *FSStore) List(_ context.Context) ([]DatasetMeta, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}

	datasets := []DatasetMeta{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaJSON, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), metadataFile))
		if err != nil {
			continue
		}
		var meta DatasetMeta
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			logger.Warn("skipping dataset with bad metadata", "key", entry.Name())
			continue
		}
		datasets = append(datasets, meta)
	}
	return datasets, nil
}
