package share

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cruzdariel/Sendy/flights"
	"github.com/cruzdariel/Sendy/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFSStore(filepath.Join(dir, "datasets"))
	require.NoError(t, err)

	manager, err := NewManager(store, filepath.Join(dir, "shares"), 30, 8)
	require.NoError(t, err)
	return manager
}

func sampleDataset() ([]flights.Record, *flights.Snapshot) {
	records := []flights.Record{
		{Date: time.Date(2023, 9, 14, 0, 0, 0, 0, time.UTC), Airline: "Delta", From: "JFK", To: "LAX"},
	}
	snapshot := &flights.Snapshot{TotalFlights: 1, TopAirline: "Delta", Flights: records}
	return records, snapshot
}

func TestManager_CreateThenValidate(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	shareID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: -1})
	require.NoError(t, err)
	assert.Len(t, shareID, 8)

	assert.True(t, manager.Validate(ctx, shareID))

	loadedRecords, loadedSnapshot, ok := manager.LoadShared(ctx, shareID)
	require.True(t, ok)
	assert.Len(t, loadedRecords, 1)
	assert.Equal(t, "Delta", loadedSnapshot.TopAirline)
}

func TestManager_ValidateUnknownID(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	assert.False(t, manager.Validate(ctx, "never-created"))
	assert.False(t, manager.Validate(ctx, ""))
	assert.False(t, manager.Validate(ctx, "../traversal"))

	_, _, ok := manager.LoadShared(ctx, "never-created")
	assert.False(t, ok)
}

func TestManager_InfoAbsentAfterMetadataRemoved(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	shareID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: -1})
	require.NoError(t, err)

	// A share whose metadata file is gone reads as absent, never as a
	// zero-valued record, even while the dataset itself still exists.
	path, ok := manager.metadataPath(shareID)
	require.True(t, ok)
	require.NoError(t, os.Remove(path))

	_, ok = manager.Info(ctx, shareID)
	assert.False(t, ok)
	assert.False(t, manager.Validate(ctx, shareID))
}

func TestManager_DeactivateIsTerminal(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	shareID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: -1})
	require.NoError(t, err)

	assert.True(t, manager.Deactivate(ctx, shareID))
	assert.False(t, manager.Validate(ctx, shareID))

	meta, ok := manager.Info(ctx, shareID)
	require.True(t, ok)
	assert.False(t, meta.IsActive)
	require.NotNil(t, meta.DeactivatedAt)
	firstDeactivation := *meta.DeactivatedAt

	// Deactivating again still reports success and keeps the original
	// deactivation timestamp.
	assert.True(t, manager.Deactivate(ctx, shareID))
	meta, ok = manager.Info(ctx, shareID)
	require.True(t, ok)
	assert.True(t, meta.DeactivatedAt.Equal(firstDeactivation))
}

func TestManager_DeactivateUnknownID(t *testing.T) {
	manager := newTestManager(t)
	assert.False(t, manager.Deactivate(context.Background(), "never-created"))
}

func TestManager_SequentialCreatesGetDistinctIDs(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		shareID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: -1})
		require.NoError(t, err)
		assert.False(t, seen[shareID], "share id %s issued twice", shareID)
		seen[shareID] = true
	}
}

func TestManager_ZeroTTLExpiresImmediately(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	created := time.Date(2023, 9, 14, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return created }

	shareID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: 0})
	require.NoError(t, err)

	// Exactly at expires_at the share is still valid: expiry is strict.
	assert.True(t, manager.Validate(ctx, shareID))

	manager.now = func() time.Time { return created.Add(time.Nanosecond) }
	assert.False(t, manager.Validate(ctx, shareID))
}

func TestManager_ExpiryIsDerivedNotStored(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	created := time.Date(2023, 9, 14, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return created }

	shareID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: 7})
	require.NoError(t, err)

	manager.now = func() time.Time { return created.AddDate(0, 0, 8) }
	assert.False(t, manager.Validate(ctx, shareID))

	// Info still reads the metadata raw, so an expired link can be shown
	// as "expired" rather than "not found".
	meta, ok := manager.Info(ctx, shareID)
	require.True(t, ok)
	assert.True(t, meta.IsActive)
	assert.True(t, meta.ExpiresAt.Equal(created.AddDate(0, 0, 7)))

	// The expired share is excluded from the active listing.
	assert.Empty(t, manager.ListActive(ctx))
}

func TestManager_ListActive(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	liveID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: -1, OwnerName: "Dariel"})
	require.NoError(t, err)
	deadID, err := manager.Create(ctx, records, snapshot, CreateOptions{TTLDays: -1})
	require.NoError(t, err)
	require.True(t, manager.Deactivate(ctx, deadID))

	active := manager.ListActive(ctx)
	require.Len(t, active, 1)
	assert.Equal(t, liveID, active[0].ShareID)
	assert.Equal(t, "Dariel", active[0].OwnerName)
}

func TestManager_CreateRecordsDateRange(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	records, snapshot := sampleDataset()

	shareID, err := manager.Create(ctx, records, snapshot, CreateOptions{
		TTLDays:   -1,
		OwnerName: "Dariel",
		DateRange: &DateRange{Start: "2023-01-01", End: "2023-12-31"},
	})
	require.NoError(t, err)

	meta, ok := manager.Info(ctx, shareID)
	require.True(t, ok)
	assert.Equal(t, "Dariel", meta.OwnerName)
	require.NotNil(t, meta.DateRange)
	assert.Equal(t, "2023-01-01", meta.DateRange.Start)
	assert.Equal(t, "2023-12-31", meta.DateRange.End)
	assert.Equal(t, 1, meta.TotalFlights)
}

// failingStore rejects every save, for exercising the no-orphan-metadata
// guarantee.
type failingStore struct{}

func (failingStore) Save(context.Context, string, []flights.Record, *flights.Snapshot) error {
	return errors.New("disk full")
}

func (failingStore) Load(context.Context, string) ([]flights.Record, *flights.Snapshot, error) {
	return nil, nil, storage.ErrNotFound
}

func (failingStore) Exists(context.Context, string) (bool, error) { return false, nil }
func (failingStore) Delete(context.Context, string) error         { return storage.ErrNotFound }
func (failingStore) List(context.Context) ([]storage.DatasetMeta, error) {
	return nil, nil
}

func TestManager_FailedSaveLeavesNoMetadata(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(failingStore{}, dir, 30, 8)
	require.NoError(t, err)

	_, err = manager.Create(context.Background(), nil, &flights.Snapshot{}, CreateOptions{TTLDays: -1})
	require.Error(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no share metadata may exist without its dataset")
}

func TestURL(t *testing.T) {
	assert.Equal(t, "https://sendy.dariel.us/share/abc123XY", URL("https://sendy.dariel.us", "abc123XY"))
	assert.Equal(t, "https://sendy.dariel.us/share/abc123XY", URL("https://sendy.dariel.us/", "abc123XY"))
}
