// Package share issues and validates the public identifiers that expose a
// stored dataset read-only for a limited time.
package share

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cruzdariel/Sendy/flights"
	"github.com/cruzdariel/Sendy/pkg/logger"
	"github.com/cruzdariel/Sendy/storage"
)

// idAlphabet is the character set for generated share identifiers.
const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxIDAttempts bounds the collision retry loop. With 62^8 possible
// identifiers this is never hit in practice.
const maxIDAttempts = 100

// DateRange echoes the filter that was applied before a shared snapshot
// was taken, for display on the shared dashboard.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Metadata is the persisted record of one share. A share is never
// deleted: deactivation flips IsActive and expiry is derived from
// ExpiresAt at validation time.
type Metadata struct {
	ShareID       string     `json:"share_id"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	TotalFlights  int        `json:"total_flights"`
	IsActive      bool       `json:"is_active"`
	OwnerName     string     `json:"owner_name,omitempty"`
	DateRange     *DateRange `json:"date_range,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// CreateOptions carries the optional parts of a share creation. A
// negative TTLDays means "use the manager default"; zero is a valid
// (instantly expiring) TTL.
type CreateOptions struct {
	TTLDays   int
	OwnerName string
	DateRange *DateRange
}

// Manager owns the share id -> dataset mapping. Every operation is
// best-effort: failures come back as sentinel results (false, empty) and
// are logged, never panicked or surfaced as transport errors.
type Manager struct {
	store          storage.Store
	dir            string
	defaultTTLDays int
	idLength       int

	// now is swappable so expiry boundaries can be pinned in tests.
	now func() time.Time
}

// NewManager creates a share manager persisting metadata under dir and
// datasets in store.
func NewManager(store storage.Store, dir string, defaultTTLDays, idLength int) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating share dir: %w", err)
	}
	return &Manager{
		store:          store,
		dir:            dir,
		defaultTTLDays: defaultTTLDays,
		idLength:       idLength,
		now:            time.Now,
	}, nil
}

// Create persists the dataset and issues a new share identifier. The
// dataset is saved before any metadata is written so a persistence failure
// cannot leave share metadata pointing at nothing.
func (m *Manager) Create(ctx context.Context, records []flights.Record, snapshot *flights.Snapshot, opts CreateOptions) (string, error) {
	shareID, err := m.newShareID(ctx)
	if err != nil {
		return "", err
	}

	if err := m.store.Save(ctx, shareID, records, snapshot); err != nil {
		return "", fmt.Errorf("saving shared dataset: %w", err)
	}

	ttlDays := opts.TTLDays
	if ttlDays < 0 {
		ttlDays = m.defaultTTLDays
	}

	now := m.now()
	meta := Metadata{
		ShareID:      shareID,
		CreatedAt:    now,
		ExpiresAt:    now.AddDate(0, 0, ttlDays),
		TotalFlights: len(records),
		IsActive:     true,
		OwnerName:    opts.OwnerName,
		DateRange:    opts.DateRange,
	}
	if err := m.writeMetadata(meta); err != nil {
		return "", err
	}

	logger.Info("share created", "share_id", shareID, "ttl_days", ttlDays, "flights", len(records))
	return shareID, nil
}

// Validate reports whether a share identifier resolves to a live share:
// known, still active, and not past its expiry. It never fails for
// malformed or unknown identifiers.
func (m *Manager) Validate(ctx context.Context, shareID string) bool {
	meta, ok := m.readMetadata(shareID)
	if !ok {
		return false
	}
	if exists, err := m.store.Exists(ctx, shareID); err != nil || !exists {
		return false
	}
	if !meta.IsActive {
		return false
	}
	// A share expires strictly after ExpiresAt; at the exact boundary it
	// is still valid.
	if m.now().After(meta.ExpiresAt) {
		logger.Debug("share expired", "share_id", shareID, "expires_at", meta.ExpiresAt)
		return false
	}
	return true
}

// LoadShared validates the identifier and loads its dataset. An invalid or
// expired share yields ok=false with no data; a share that validates but
// whose dataset cannot be read yields ok=false with a logged error, which
// callers surface as a distinct "unable to load data" condition via
// Validate.
func (m *Manager) LoadShared(ctx context.Context, shareID string) ([]flights.Record, *flights.Snapshot, bool) {
	if !m.Validate(ctx, shareID) {
		logger.Warn("rejected invalid or expired share", "share_id", shareID)
		return nil, nil, false
	}

	records, snapshot, err := m.store.Load(ctx, shareID)
	if err != nil {
		logger.Error(err, "loading shared dataset", "share_id", shareID)
		return nil, nil, false
	}
	return records, snapshot, true
}

// Deactivate permanently turns a share off while keeping its data. It is
// idempotent in effect: deactivating an already-inactive share still
// reports success, and the original deactivation timestamp is kept.
func (m *Manager) Deactivate(ctx context.Context, shareID string) bool {
	meta, ok := m.readMetadata(shareID)
	if !ok {
		logger.Warn("deactivate: share not found", "share_id", shareID)
		return false
	}

	if meta.IsActive {
		now := m.now()
		meta.IsActive = false
		meta.DeactivatedAt = &now
		if err := m.writeMetadata(meta); err != nil {
			logger.Error(err, "deactivating share", "share_id", shareID)
			return false
		}
	}

	logger.Info("share deactivated", "share_id", shareID)
	return true
}

// Info returns the stored metadata without applying expiry logic, so a
// caller can distinguish "this link expired" from "this link never
// existed" while rendering owner name and date range either way.
func (m *Manager) Info(_ context.Context, shareID string) (Metadata, bool) {
	return m.readMetadata(shareID)
}

// ListActive returns metadata for every share that currently validates.
func (m *Manager) ListActive(ctx context.Context) []Metadata {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*.json"))
	if err != nil {
		logger.Error(err, "listing shares")
		return nil
	}

	active := []Metadata{}
	for _, path := range matches {
		shareID := strings.TrimSuffix(filepath.Base(path), ".json")
		if !m.Validate(ctx, shareID) {
			continue
		}
		if meta, ok := m.readMetadata(shareID); ok {
			active = append(active, meta)
		}
	}
	return active
}

// URL renders the public address for a share identifier.
func URL(baseURL, shareID string) string {
	return fmt.Sprintf("%s/share/%s", strings.TrimRight(baseURL, "/"), shareID)
}

// newShareID generates a random identifier and retries until it collides
// with neither existing share metadata nor a stored dataset.
func (m *Manager) newShareID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := randomID(m.idLength)
		if err != nil {
			return "", err
		}
		if _, taken := m.readMetadata(id); taken {
			continue
		}
		if exists, err := m.store.Exists(ctx, id); err != nil || exists {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("could not generate a unique share id after %d attempts", maxIDAttempts)
}

func randomID(length int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(idAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating share id: %w", err)
		}
		sb.WriteByte(idAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func (m *Manager) metadataPath(shareID string) (string, bool) {
	if shareID == "" || strings.ContainsAny(shareID, `/\`) || strings.Contains(shareID, "..") {
		return "", false
	}
	return filepath.Join(m.dir, shareID+".json"), true
}

func (m *Manager) readMetadata(shareID string) (Metadata, bool) {
	path, ok := m.metadataPath(shareID)
	if !ok {
		return Metadata{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, false
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		logger.Error(err, "decoding share metadata", "share_id", shareID)
		return Metadata{}, false
	}
	return meta, true
}

func (m *Manager) writeMetadata(meta Metadata) error {
	path, ok := m.metadataPath(meta.ShareID)
	if !ok {
		return fmt.Errorf("invalid share id %q", meta.ShareID)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding share metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing share metadata: %w", err)
	}
	return nil
}
