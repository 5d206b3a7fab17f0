// Package air reads the monthly AIR Bank statement delivered as a password
// protected PDF attachment.
package air

import (
	"context"
	"fmt"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"
)

// Source fetches statement records from the inbox.
type Source struct {
	inbox     *Inbox
	extractor Extractor
	password  string
	logger    logging.Logger
}

// NewSource creates a Source. A nil extractor selects pdftotext.
func NewSource(inbox *Inbox, extractor Extractor, password string, logger logging.Logger) *Source {
	if extractor == nil {
		extractor = NewPdfToTextExtractor()
	}
	return &Source{
		inbox:     inbox,
		extractor: extractor,
		password:  password,
		logger:    logger.WithField(logging.FieldSource, string(models.SourceAir)),
	}
}

// Fetch parses the period's statement and moves it to the processed directory.
func (s *Source) Fetch(ctx context.Context, period dateutils.Period) ([]models.RawRecord, error) {
	path, err := s.inbox.Find(period)
	if err != nil {
		return nil, &etlerror.SourceUnavailableError{Source: string(models.SourceAir), Err: err}
	}
	s.logger.Info("Parsing statement", logging.Field{Key: logging.FieldFile, Value: path})

	text, err := s.extractor.ExtractText(ctx, path, s.password)
	if err != nil {
		return nil, &etlerror.SourceUnavailableError{Source: string(models.SourceAir), Err: err}
	}

	records, err := ParseRows(SplitRows(text))
	if err != nil {
		return nil, &etlerror.SourceUnavailableError{Source: string(models.SourceAir), Err: fmt.Errorf("%s: %w", path, err)}
	}

	if err := s.inbox.MarkProcessed(path); err != nil {
		return nil, &etlerror.SourceUnavailableError{Source: string(models.SourceAir), Err: err}
	}

	s.logger.Info("Statement parsed",
		logging.Field{Key: logging.FieldCount, Value: len(records)},
		logging.Field{Key: logging.FieldPeriod, Value: period.String()})
	return records, nil
}

// Reset puts the period's statement back into the inbox.
func (s *Source) Reset(_ context.Context, period dateutils.Period) error {
	moved, err := s.inbox.Reset(period)
	if err != nil {
		return &etlerror.SourceUnavailableError{Source: string(models.SourceAir), Err: err}
	}
	if moved {
		s.logger.Info("Statement restored to inbox", logging.Field{Key: logging.FieldPeriod, Value: period.String()})
	} else {
		s.logger.Warn("No processed statement to restore", logging.Field{Key: logging.FieldPeriod, Value: period.String()})
	}
	return nil
}
