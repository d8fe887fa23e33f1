package badger

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// sequenceLease is how many generation numbers badger reserves per lease.
const sequenceLease = 16

// memTableSize keeps in-memory stores small; transcripts are a few thousand records at most.
const memTableSize = 16 << 20

// Backend owns the badger handle shared by the collection store.
type Backend struct {
	db       *badger.DB
	inMemory bool
	logger   *slog.Logger
}

// slogSink forwards badger's printf-style logging into slog.
type slogSink struct {
	logger *slog.Logger
}

var _ badger.Logger = slogSink{}

func (s slogSink) Errorf(msg string, args ...any)   { s.logger.Error(render(msg, args)) }
func (s slogSink) Warningf(msg string, args ...any) { s.logger.Warn(render(msg, args)) }

// Infof goes to debug; badger narrates compaction and replay at info.
func (s slogSink) Infof(msg string, args ...any)  { s.logger.Debug(render(msg, args)) }
func (s slogSink) Debugf(msg string, args ...any) { s.logger.Debug(render(msg, args)) }

func render(msg string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(msg, args...))
}

// ensureDir creates dir if needed and fails when the path is a regular file.
func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("badger: %s is not a directory", dir)
	}
	return nil
}

// OpenBackend opens the badger directory at dir, creating it if needed.
// With inMemory set the directory is ignored and nothing touches disk.
func OpenBackend(dir string, inMemory bool) (*Backend, error) {
	logger := slog.Default().With("component", "badger")

	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithMemTableSize(memTableSize)
	} else if err := ensureDir(dir); err != nil {
		return nil, err
	}
	opts = opts.
		WithLogger(slogSink{logger: logger}).
		WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %q: %w", dir, err)
	}
	logger.Debug("backend opened", "dir", dir, "inMemory", inMemory)
	return &Backend{db: db, inMemory: inMemory, logger: logger}, nil
}

// Close is idempotent.
func (b *Backend) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}

func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// InMemory reports whether the backend was opened without a directory.
func (b *Backend) InMemory() bool {
	return b.inMemory
}

// GetSequence leases a monotonic counter stored under name.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), sequenceLease)
}

// Update runs fn in a read-write transaction, committing when fn succeeds.
func (b *Backend) Update(fn func(tx *badger.Txn) error) error {
	return b.db.Update(fn)
}

// View runs fn in a read-only transaction.
func (b *Backend) View(fn func(tx *badger.Txn) error) error {
	return b.db.View(fn)
}

// NewWriteBatch starts a bulk writer; writes become visible on Flush.
func (b *Backend) NewWriteBatch() *badger.WriteBatch {
	return b.db.NewWriteBatch()
}
