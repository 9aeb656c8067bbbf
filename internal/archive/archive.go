// Package archive keeps a local gzip JSONL log of every order seen, one line
// per order, deduplicated per process run. The archive is an audit trail for
// disputes; nothing in the hot path reads it back.
package archive

import (
	"os"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/easycorest/easyrest-agent/internal/domain/order"
)

// Archive appends order snapshots to a gzip stream. Safe for concurrent use.
type Archive struct {
	lg *zap.Logger

	mu   sync.Mutex
	f    *os.File
	zw   *pgzip.Writer
	seen *bloom.BloomFilter
}

// Open appends to path, creating it if needed. Reopening starts a new gzip
// member, which any multi-member-aware reader handles.
func Open(lg *zap.Logger, path string) (*Archive, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	return &Archive{
		lg:   lg.Named("archive"),
		f:    f,
		zw:   pgzip.NewWriter(f),
		seen: bloom.NewWithEstimates(1_000_000, 0.001),
	}, nil
}

// Record writes one order unless it was already archived this run. The
// filter is probabilistic; a false positive drops a line from the audit
// trail but never corrupts it.
func (a *Archive) Record(o *order.Order, fetchedAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seen.TestOrAddString(o.ID) {
		return nil
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("platform")
	e.Str(string(o.Type))
	e.FieldStart("fetchedAt")
	e.Str(fetchedAt.UTC().Format(time.RFC3339))
	e.FieldStart("rawData")
	if len(o.Raw) > 0 {
		e.Raw(o.Raw)
	} else {
		e.Null()
	}
	e.ObjEnd()

	if _, err := a.zw.Write(append(e.Bytes(), '\n')); err != nil {
		return errors.Wrap(err, "write archive line")
	}
	return nil
}

// Flush pushes buffered lines down to the file.
func (a *Archive) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.zw.Flush(); err != nil {
		return errors.Wrap(err, "flush archive")
	}
	return nil
}

func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.zw.Close(); err != nil {
		_ = a.f.Close()
		return errors.Wrap(err, "close gzip stream")
	}
	if err := a.f.Close(); err != nil {
		return errors.Wrap(err, "close archive file")
	}
	return nil
}
