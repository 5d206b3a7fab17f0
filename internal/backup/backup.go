// Package backup archives the previous state of each ledger before a run
// overwrites it.
package backup

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/fileutils"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"github.com/gocarina/gocsv"
)

// Sink stores one snapshot object.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// Archiver writes ledger snapshots as CSV under <period>/<runID>/<category>.csv.
type Archiver struct {
	sink   Sink
	logger logging.Logger
}

// NewArchiver creates an Archiver writing to sink.
func NewArchiver(sink Sink, logger logging.Logger) *Archiver {
	return &Archiver{sink: sink, logger: logger.WithField(logging.FieldComponent, "backup")}
}

// ObjectName returns where a category snapshot is stored.
func ObjectName(period dateutils.Period, runID string, category models.Category) string {
	return path.Join(period.String(), runID, string(category)+".csv")
}

// Snapshot archives the rows of one category.
func (a *Archiver) Snapshot(ctx context.Context, period dateutils.Period, runID string, category models.Category, rows []models.Transaction) error {
	records := models.ToRecords(rows)
	data, err := gocsv.MarshalBytes(&records)
	if err != nil {
		return fmt.Errorf("error encoding %s snapshot: %w", category, err)
	}

	name := ObjectName(period, runID, category)
	if err := a.sink.Put(ctx, name, data); err != nil {
		return fmt.Errorf("error storing %s snapshot: %w", category, err)
	}

	a.logger.Info("Ledger snapshot stored",
		logging.Field{Key: logging.FieldCategory, Value: string(category)},
		logging.Field{Key: logging.FieldFile, Value: name},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return nil
}

// DirSink stores snapshots below a local directory.
type DirSink struct {
	Dir string
}

// Put writes data to Dir/name, creating parent directories.
func (s DirSink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutils.WriteFile(filepath.Join(s.Dir, filepath.FromSlash(name)), data)
}
