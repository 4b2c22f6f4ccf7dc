// Package pdftext extracts plain text from PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
)

// Extractor converts PDF bytes into text using docconv (poppler's pdftotext).
type Extractor struct{}

// New returns a docconv-backed extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the document text with surrounding whitespace removed.
func (e *Extractor) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("pdf is empty")
	}

	text, _, err := docconv.ConvertPDF(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("convert pdf: %w", err)
	}

	return strings.TrimSpace(text), nil
}
