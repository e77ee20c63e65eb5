package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/restock-radar/restock-radar/internal/logger"
)

// Lock is an acquired run lock backed by a pidfile.
type Lock struct {
	// path is the pidfile location.
	path string
}

// ErrBusy indicates another run against the same state is still alive.
var ErrBusy = errors.New("another run is still in progress")

// filePermissions is the pidfile mode.
const filePermissions = 0o600

// Acquire takes the run lock at the given pidfile path.
//
// The snapshot file's atomic-rename discipline protects single writes, not
// whole runs, so two overlapping runs against the same state could still
// race load-against-save. A pidfile naming a live process therefore aborts
// the run; a pidfile left behind by a dead or unparseable process is stale
// and gets replaced.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	path = filepath.Clean(path)

	contents, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read pidfile: %w", err)
	}

	if err == nil {
		if pid, alive := livePID(contents); alive {
			return nil, fmt.Errorf("%w (pid %d, pidfile %s)", ErrBusy, pid, path)
		}

		logger.WarnKV(ctx, "Replacing stale pidfile", "path", path)
	}

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid+"\n"), filePermissions); err != nil {
		return nil, fmt.Errorf("write pidfile: %w", err)
	}

	return &Lock{path: path}, nil
}

// Release removes the pidfile. Safe to call when the file is already gone.
func (l *Lock) Release(ctx context.Context) {
	if l == nil {
		return
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Failed to remove pidfile", "path", l.path, "error", err)
	}
}

// livePID parses the pidfile contents and reports whether that process is
// still running. Another process with a recycled PID is indistinguishable
// from the original holder; the non-overlapping schedule keeps that window
// negligible.
func livePID(contents []byte) (int, bool) {
	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return pid, false
	}

	return pid, true
}
