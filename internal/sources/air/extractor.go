package air

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Extractor turns a statement PDF into layout-preserving text.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath, password string) (string, error)
}

// PdfToTextExtractor runs the poppler pdftotext command.
type PdfToTextExtractor struct {
	// Binary defaults to "pdftotext".
	Binary string
}

// NewPdfToTextExtractor creates an extractor using pdftotext from PATH.
func NewPdfToTextExtractor() *PdfToTextExtractor {
	return &PdfToTextExtractor{Binary: "pdftotext"}
}

// ExtractText writes the text layer of pdfPath to stdout and returns it.
func (e *PdfToTextExtractor) ExtractText(ctx context.Context, pdfPath, password string) (string, error) {
	binary := e.Binary
	if binary == "" {
		binary = "pdftotext"
	}

	args := []string{"-layout"}
	if password != "" {
		args = append(args, "-upw", password)
	}
	args = append(args, pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...) // #nosec G204 -- fixed binary, arguments are file paths
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running pdftotext: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.String(), nil
}

// MockExtractor returns canned text, for tests and dry runs.
type MockExtractor struct {
	Text string
	Err  error

	// Paths and Passwords record every call.
	Paths     []string
	Passwords []string
}

// ExtractText returns the canned text or error.
func (e *MockExtractor) ExtractText(_ context.Context, pdfPath, password string) (string, error) {
	e.Paths = append(e.Paths, pdfPath)
	e.Passwords = append(e.Passwords, password)
	if e.Err != nil {
		return "", e.Err
	}
	return e.Text, nil
}
