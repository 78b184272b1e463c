package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cruzdariel/Sendy/config"
	"github.com/cruzdariel/Sendy/flights"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a datasets table, for deployments
// where a shared database is preferable to local disk. The record table is
// stored as CSV text (the same bytes the filesystem store writes) and the
// snapshot as JSONB; a single-row upsert makes Save atomic, so the partial
// write concern of the filesystem layout does not apply here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and pings the server.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// InitSchema creates the datasets table if it does not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS datasets (
			key VARCHAR(64) PRIMARY KEY,
			flights_csv TEXT NOT NULL,
			stats JSONB NOT NULL,
			total_flights INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing datasets schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, records []flights.Record, snapshot *flights.Snapshot) error {
	var buf bytes.Buffer
	if err := flights.WriteCSV(&buf, records); err != nil {
		return fmt.Errorf("encoding dataset %s: %w", key, err)
	}
	statsJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding dataset %s stats: %w", key, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO datasets (key, flights_csv, stats, total_flights)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET flights_csv = EXCLUDED.flights_csv,
		    stats = EXCLUDED.stats,
		    total_flights = EXCLUDED.total_flights
	`, key, buf.String(), statsJSON, len(records))
	if err != nil {
		return fmt.Errorf("saving dataset %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]flights.Record, *flights.Snapshot, error) {
	var csvText string
	var statsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT flights_csv, stats FROM datasets WHERE key = $1`, key,
	).Scan(&csvText, &statsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading dataset %s: %w", key, err)
	}

	records, err := flights.ParseCSV(strings.NewReader(csvText))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding dataset %s records: %w", key, err)
	}

	var snapshot flights.Snapshot
	if err := json.Unmarshal(statsJSON, &snapshot); err != nil {
		return nil, nil, fmt.Errorf("decoding dataset %s stats: %w", key, err)
	}
	snapshot.Flights = records

	return records, &snapshot, nil
}

func (s *PostgresStore) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM datasets WHERE key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking dataset %s: %w", key, err)
	}
	return exists, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM datasets WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("deleting dataset %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]DatasetMeta, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, total_flights, created_at FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	datasets := []DatasetMeta{}
	for rows.Next() {
		var meta DatasetMeta
		if err := rows.Scan(&meta.DatasetID, &meta.TotalFlights, &meta.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dataset row: %w", err)
		}
		datasets = append(datasets, meta)
	}
	return datasets, rows.Err()
}
