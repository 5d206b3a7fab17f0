package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"github.com/gocarina/gocsv"
)

// CSVStore keeps each category in <dir>/<category>.csv.
type CSVStore struct {
	dir    string
	logger logging.Logger
}

// NewCSVStore creates a file-backed store rooted at dir.
func NewCSVStore(dir string, logger logging.Logger) (*CSVStore, error) {
	if dir == "" {
		return nil, errors.New("ledger directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("error creating ledger directory: %w", err)
	}
	return &CSVStore{dir: dir, logger: logger.WithField(logging.FieldComponent, "csv-store")}, nil
}

// Path returns the file holding the category.
func (s *CSVStore) Path(category models.Category) string {
	return filepath.Join(s.dir, string(category)+".csv")
}

// Fetch reads the category file. A missing file is an empty ledger.
func (s *CSVStore) Fetch(ctx context.Context, category models.Category) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(category)
	file, err := os.Open(path) // #nosec G304 -- path built from a fixed directory and category
	if errors.Is(err, os.ErrNotExist) {
		return []models.Transaction{}, nil
	}
	if err != nil {
		return nil, &etlerror.LedgerUnavailableError{Category: string(category), Operation: "fetch", Err: err}
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	var records []*models.LedgerRecord
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []models.Transaction{}, nil
		}
		return nil, &etlerror.LedgerUnavailableError{Category: string(category), Operation: "fetch", Err: err}
	}

	rows, err := models.FromRecords(records)
	if err != nil {
		return nil, &etlerror.LedgerUnavailableError{Category: string(category), Operation: "fetch", Err: err}
	}

	s.logger.Debug("Ledger fetched",
		logging.Field{Key: logging.FieldCategory, Value: string(category)},
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// Replace writes the rows to a temporary file and renames it over the category file.
func (s *CSVStore) Replace(ctx context.Context, category models.Category, rows []models.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.replace(category, rows); err != nil {
		return &etlerror.LedgerUnavailableError{Category: string(category), Operation: "replace", Err: err}
	}

	s.logger.Info("Ledger replaced",
		logging.Field{Key: logging.FieldCategory, Value: string(category)},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return nil
}

func (s *CSVStore) replace(category models.Category, rows []models.Transaction) error {
	tmp, err := os.CreateTemp(s.dir, "."+string(category)+"-*.csv")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	records := models.ToRecords(rows)
	if err := gocsv.MarshalFile(&records, tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error writing CSV: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}
	return os.Rename(tmp.Name(), s.Path(category))
}
