package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/restock-radar/restock-radar/internal/domain/stock"
	"github.com/restock-radar/restock-radar/internal/logger"
	"github.com/restock-radar/restock-radar/internal/retry"
)

// Repository defines persistence operations for the stock snapshot.
type Repository interface {
	Load(ctx context.Context) (stock.Snapshot, error)
	Save(ctx context.Context, snapshot stock.Snapshot) error
}

// FileRepository persists the snapshot as a pretty-printed JSON array of
// product records so operators can read and hand-edit it if needed.
// Saves go through a temp file in the same directory followed by an atomic
// rename, so the destination is never observed half-written.
type FileRepository struct {
	// path is the filesystem location of the JSON snapshot file.
	path string
	// policy is the file-system-oriented retry policy wrapping every I/O operation.
	policy retry.Policy
	// mu protects concurrent access to the snapshot file.
	mu sync.Mutex
}

// maxSnapshotSize caps the snapshot file to guard against reading a corrupt
// or runaway file into memory.
const maxSnapshotSize = 10 << 20 // 10 MiB

// filePermissions is the mode for snapshot and temp files.
const filePermissions = 0o600

var (
	// errSnapshotTooLarge is returned for snapshot files over maxSnapshotSize.
	errSnapshotTooLarge = errors.New("snapshot file exceeds size limit")
	// errEmptyTempFile indicates the temp file verification before rename failed.
	errEmptyTempFile = errors.New("temporary snapshot file is empty after write")
)

// terminalError marks a storage failure that more attempts cannot fix,
// such as a corrupt file. The retry executor aborts on these immediately.
type terminalError struct {
	err error
}

// Error implements the error interface.
func (e *terminalError) Error() string { return e.err.Error() }

// Unwrap exposes the underlying failure.
func (e *terminalError) Unwrap() error { return e.err }

// Retryable classifies the failure for the retry executor.
func (e *terminalError) Retryable() bool { return false }

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path:   filepath.Clean(path),
		policy: retry.ForStateOperations(),
	}
}

// Load reads the snapshot from disk.
//
// A missing file is the expected cold-start condition and yields an empty
// snapshot, not an error. Transient I/O failures are retried; a corrupt or
// oversized file is reported as an error so the caller can decide to fall
// back to an empty snapshot.
func (r *FileRepository) Load(ctx context.Context) (stock.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return retry.Do(ctx, r.policy, "load snapshot from "+r.path, func(ctx context.Context) (stock.Snapshot, error) {
		return r.loadOnce(ctx)
	})
}

// loadOnce performs a single load attempt.
func (r *FileRepository) loadOnce(ctx context.Context) (stock.Snapshot, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.InfoKV(ctx, "Snapshot file does not exist, starting with empty state", "path", r.path)
			return stock.Snapshot{}, nil
		}

		return nil, fmt.Errorf("stat snapshot file: %w", err)
	}

	if info.Size() > maxSnapshotSize {
		return nil, &terminalError{fmt.Errorf("%w: %d bytes", errSnapshotTooLarge, info.Size())}
	}

	if info.Size() == 0 {
		logger.WarnKV(ctx, "Snapshot file is empty, starting with empty state", "path", r.path)
		return stock.Snapshot{}, nil
	}

	contents, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var products []stock.Product
	if err := json.Unmarshal(contents, &products); err != nil {
		return nil, &terminalError{fmt.Errorf("decode snapshot file: %w", err)}
	}

	// Records without an alias cannot be tracked; skip them individually
	// instead of invalidating the whole load.
	snapshot := stock.SnapshotOf(products)
	if skipped := len(products) - len(snapshot); skipped > 0 {
		logger.WarnKV(ctx, "Skipped invalid snapshot records", "path", r.path, "skipped", skipped)
	}

	logger.InfoKV(ctx, "Loaded snapshot", "path", r.path, "products", len(snapshot))

	return snapshot, nil
}

// Save writes the snapshot to disk atomically.
//
// The snapshot is serialized to a temp file next to the destination,
// verified non-empty and renamed over the destination. The temp file is
// removed on every exit path if it still exists.
func (r *FileRepository) Save(ctx context.Context, snapshot stock.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return retry.DoVoid(ctx, r.policy, "save snapshot to "+r.path, func(ctx context.Context) error {
		return r.saveOnce(ctx, snapshot)
	})
}

// saveOnce performs a single save attempt.
func (r *FileRepository) saveOnce(ctx context.Context, snapshot stock.Snapshot) (err error) {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	// Serialize as a sorted list for a stable, reviewable file.
	products := make([]stock.Product, 0, len(snapshot))
	for _, alias := range sortedAliases(snapshot) {
		products = append(products, snapshot[alias])
	}

	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return &terminalError{fmt.Errorf("encode snapshot: %w", err)}
	}

	tempPath := r.path + ".tmp"

	defer func() {
		if removeErr := os.Remove(tempPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.WarnKV(ctx, "Failed to remove temporary snapshot file", "path", tempPath, "error", removeErr)
		}
	}()

	if err := os.WriteFile(tempPath, data, filePermissions); err != nil {
		return fmt.Errorf("write temporary snapshot file: %w", err)
	}

	info, err := os.Stat(tempPath)
	if err != nil {
		return fmt.Errorf("verify temporary snapshot file: %w", err)
	}

	if info.Size() == 0 {
		return errEmptyTempFile
	}

	if err := os.Rename(tempPath, r.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	logger.InfoKV(ctx, "Saved snapshot", "path", r.path, "products", len(products), "bytes", info.Size())

	return nil
}

// sortedAliases returns the snapshot keys in ascending order.
func sortedAliases(snapshot stock.Snapshot) []string {
	aliases := make([]string, 0, len(snapshot))
	for alias := range snapshot {
		aliases = append(aliases, alias)
	}

	sort.Strings(aliases)

	return aliases
}
