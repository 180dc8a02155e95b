// Package pdftext renders PDF statements into the plain text the PDF
// extractors consume.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoText is returned when a PDF has no extractable text layer (scanned
	// images, empty documents)
	ErrNoText = errors.New("pdf has no extractable text")
	// ErrInvalidPDF wraps reader failures
	ErrInvalidPDF = errors.New("invalid pdf")
)

// Extractor turns a PDF document into text
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PDFExtractor reads the text layer with github.com/ledongthuc/pdf
type PDFExtractor struct{}

// New creates a PDF text extractor
func New() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns page text joined by blank lines. Rows are rebuilt from
// glyph positions first; pages that yield nothing fall back to plain text.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrNoText
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: reader crashed: %v", ErrInvalidPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		if t := pageText(page); t != "" {
			pages = append(pages, t)
		}
	}

	text = strings.Join(pages, "\n\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pageText(page pdf.Page) string {
	if rows, err := page.GetTextByRow(); err == nil {
		var lines []string
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n")
		}
	}

	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(plain)
}
