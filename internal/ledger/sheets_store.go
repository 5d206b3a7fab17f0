package ledger

import (
	"context"
	"fmt"
	"strconv"

	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore keeps each category in the A:F columns of a same-named sheet
// of a Google spreadsheet.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	logger        logging.Logger
}

// NewSheetsStore connects to the spreadsheet. Credentials come from opts,
// typically option.WithCredentialsFile.
func NewSheetsStore(ctx context.Context, spreadsheetID string, logger logging.Logger, opts ...option.ClientOption) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is not configured")
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return &SheetsStore{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithField(logging.FieldComponent, "sheets-store"),
	}, nil
}

func columnsRange(category models.Category) string {
	return string(category) + "!A:F"
}

// Fetch reads the category sheet, skipping blank and single-cell rows and a
// leading header row.
func (s *SheetsStore) Fetch(ctx context.Context, category models.Category) ([]models.Transaction, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, columnsRange(category)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &etlerror.LedgerUnavailableError{Category: string(category), Operation: "fetch", Err: err}
	}

	rows := make([]models.Transaction, 0, len(resp.Values))
	headerSeen := false
	for i, cells := range resp.Values {
		if len(cells) <= 1 {
			continue
		}
		tx, err := models.ParseRow(i, models.PadRow(cellStrings(cells)))
		if err != nil {
			// Only the first data-bearing row may be a header.
			if headerSeen || len(rows) > 0 {
				return nil, &etlerror.LedgerUnavailableError{Category: string(category), Operation: "fetch", Err: err}
			}
			headerSeen = true
			s.logger.WithError(err).Warn("Skipping ledger header row",
				logging.Field{Key: logging.FieldCategory, Value: string(category)},
				logging.Field{Key: "row", Value: i})
			continue
		}
		rows = append(rows, tx)
	}

	s.logger.Debug("Ledger fetched",
		logging.Field{Key: logging.FieldCategory, Value: string(category)},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// Replace clears the category columns and writes rows from A1 as if typed by a user.
func (s *SheetsStore) Replace(ctx context.Context, category models.Category, rows []models.Transaction) error {
	rng := columnsRange(category)
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return &etlerror.LedgerUnavailableError{Category: string(category), Operation: "clear", Err: err}
	}

	if len(rows) > 0 {
		values := make([][]interface{}, 0, len(rows))
		for _, row := range models.ToRows(rows) {
			cells := make([]interface{}, len(row))
			for i, cell := range row {
				cells[i] = cell
			}
			values = append(values, cells)
		}

		if _, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, string(category)+"!A1", &sheets.ValueRange{Values: values}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do(); err != nil {
			return &etlerror.LedgerUnavailableError{Category: string(category), Operation: "update", Err: err}
		}
	}

	s.logger.Info("Ledger replaced",
		logging.Field{Key: logging.FieldCategory, Value: string(category)},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return nil
}

func cellStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		switch v := cell.(type) {
		case nil:
		case string:
			out[i] = v
		case float64:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(v)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
