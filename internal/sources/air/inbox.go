package air

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/fileutils"
)

// ProcessedDir is the inbox subdirectory receiving parsed statements.
const ProcessedDir = "processed"

// ErrStatementNotFound is returned when no statement matches the period.
var ErrStatementNotFound = errors.New("no statement found for period")

// Inbox is the directory where the mail client saves statement attachments.
type Inbox struct {
	dir string
}

// NewInbox creates an Inbox over dir.
func NewInbox(dir string) *Inbox {
	return &Inbox{dir: dir}
}

// Find returns the PDF whose file name contains the period token (MM-YYYY).
// When several match, the last one in name order wins.
func (i *Inbox) Find(period dateutils.Period) (string, error) {
	return findStatement(i.dir, period)
}

// MarkProcessed moves a statement into the processed directory.
func (i *Inbox) MarkProcessed(path string) error {
	_, err := fileutils.MoveFile(path, filepath.Join(i.dir, ProcessedDir))
	return err
}

// Reset moves the period's processed statement back into the inbox so the
// next run picks it up again. It reports whether a statement was moved.
func (i *Inbox) Reset(period dateutils.Period) (bool, error) {
	processed := filepath.Join(i.dir, ProcessedDir)
	path, err := findStatement(processed, period)
	if errors.Is(err, ErrStatementNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := fileutils.MoveFile(path, i.dir); err != nil {
		return false, fmt.Errorf("error restoring statement: %w", err)
	}
	return true, nil
}

func findStatement(dir string, period dateutils.Period) (string, error) {
	files, err := fileutils.ListFilesWithExtension(dir, ".pdf")
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w %s in %s", ErrStatementNotFound, period, dir)
	}
	if err != nil {
		return "", fmt.Errorf("error reading inbox: %w", err)
	}

	token := period.String()
	var match string
	for _, name := range files {
		if strings.Contains(name, token) {
			match = name
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w %s in %s", ErrStatementNotFound, period, dir)
	}
	return filepath.Join(dir, match), nil
}
