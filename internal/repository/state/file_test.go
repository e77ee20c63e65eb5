package state

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/restock-radar/restock-radar/internal/domain/stock"
)

// testSnapshot returns a small snapshot used across the repository tests.
func testSnapshot() stock.Snapshot {
	return stock.Snapshot{
		"amul-whey-1kg": {Name: "Amul Whey Protein 1kg", Alias: "amul-whey-1kg", Available: true, Quantity: 12},
		"amul-lassi":    {Name: "Amul High Protein Lassi", Alias: "amul-lassi", Available: false, Quantity: 0},
	}
}

// TestFileRepository_MissingFileIsEmptyState verifies a missing file is the
// cold-start condition, not an error.
func TestFileRepository_MissingFileIsEmptyState(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))

	snapshot, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load
// returns an equivalent snapshot regardless of map iteration order.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	repo := NewFileRepository(file)

	want := testSnapshot()
	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)

	// No temp file is left behind.
	_, err = os.Stat(file + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestFileRepository_SaveIsHumanReadable checks the file stays pretty-printed.
func TestFileRepository_SaveIsHumanReadable(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	repo := NewFileRepository(file)

	require.NoError(t, repo.Save(context.Background(), testSnapshot()))

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), "\n  ")
	require.Contains(t, string(contents), `"inventory_quantity"`)
}

// TestFileRepository_CorruptFileIsError verifies undecodable content surfaces
// as an error for the caller to degrade on, without burning extra attempts.
func TestFileRepository_CorruptFileIsError(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(file, []byte("{ not json"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.Error(t, err)
}

// TestFileRepository_OversizedFileIsError caps reads at the snapshot size limit.
func TestFileRepository_OversizedFileIsError(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(file, []byte(strings.Repeat("x", maxSnapshotSize+1)), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.ErrorIs(t, err, errSnapshotTooLarge)
}

// TestFileRepository_SkipsAliaslessRecords drops invalid records individually
// instead of failing the whole load.
func TestFileRepository_SkipsAliaslessRecords(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	contents := `[
	  {"name": "Valid", "alias": "valid", "available": true, "inventory_quantity": 2},
	  {"name": "No alias", "available": true, "inventory_quantity": 5}
	]`
	require.NoError(t, os.WriteFile(file, []byte(contents), 0o600))

	snapshot, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Contains(t, snapshot, "valid")
}

// TestFileRepository_EmptyFileIsEmptyState treats a zero-byte file like a cold start.
func TestFileRepository_EmptyFileIsEmptyState(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	snapshot, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot)
}

// TestFileRepository_FailedSaveKeepsPreviousContent simulates an interrupted
// write: when the temp file cannot be created, the destination keeps its
// previous valid content.
func TestFileRepository_FailedSaveKeepsPreviousContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "state.json")
	repo := NewFileRepository(file)

	require.NoError(t, repo.Save(context.Background(), testSnapshot()))

	before, err := os.ReadFile(file)
	require.NoError(t, err)

	// Occupy the temp path with a non-empty directory so the temp write
	// fails on every attempt and cleanup cannot remove it either.
	require.NoError(t, os.Mkdir(file+".tmp", 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(file+".tmp", "occupied"), []byte("x"), 0o600))

	err = repo.Save(context.Background(), stock.Snapshot{
		"other": {Name: "Other", Alias: "other", Available: true, Quantity: 1},
	})
	require.Error(t, err)

	after, readErr := os.ReadFile(file)
	require.NoError(t, readErr)
	require.Equal(t, before, after)
}

// TestFileRepository_SaveCreatesParentDirs stores into a nested path.
func TestFileRepository_SaveCreatesParentDirs(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "nested", "deep", "state.json")
	repo := NewFileRepository(file)

	require.NoError(t, repo.Save(context.Background(), testSnapshot()))

	_, err := os.Stat(file)
	require.NoError(t, err)
}
