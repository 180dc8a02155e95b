package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

// sniffWindow bounds how much of a file is inspected for OFX markers
const sniffWindow = 1024

// DetectFileType maps a file to the payload kind its extractor expects.
// Magic bytes win over the extension; a ".txt" file is PDF text that was
// already extracted elsewhere.
func DetectFileType(fileName string, data []byte) (statement.FileType, error) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return statement.FileTypePDF, nil
	case bytes.HasPrefix(data, zipMagic):
		return statement.FileTypeXLSX, nil
	case looksLikeOFX(data):
		return statement.FileTypeOFX, nil
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".tsv":
		return statement.FileTypeCSV, nil
	case ".ofx", ".qfx":
		return statement.FileTypeOFX, nil
	case ".pdf", ".txt":
		return statement.FileTypePDF, nil
	case ".xlsx":
		return statement.FileTypeXLSX, nil
	}
	return "", fmt.Errorf("%q: %w", fileName, ErrUnsupportedFileType)
}

func looksLikeOFX(data []byte) bool {
	head := data
	if len(head) > sniffWindow {
		head = head[:sniffWindow]
	}
	upper := bytes.ToUpper(head)
	return bytes.Contains(upper, []byte("OFXHEADER")) || bytes.Contains(upper, []byte("<OFX>"))
}

// BuildInput detects the file type and fills the matching payload. PDF
// documents are rendered to text by the configured extractor.
func (s *ImportService) BuildInput(ctx context.Context, file File) (statement.ParserInput, error) {
	fileType, err := DetectFileType(file.Name, file.Data)
	if err != nil {
		return statement.ParserInput{}, err
	}

	input := statement.ParserInput{FileName: file.Name, FileType: fileType}
	switch fileType {
	case statement.FileTypeCSV:
		input.CSVRaw = string(normalizeTextBytes(file.Data))
	case statement.FileTypeOFX:
		input.OFXRaw = string(normalizeTextBytes(file.Data))
	case statement.FileTypeXLSX:
		input.XLSXRaw = file.Data
	case statement.FileTypePDF:
		if !bytes.HasPrefix(file.Data, pdfMagic) && strings.EqualFold(filepath.Ext(file.Name), ".txt") {
			input.Text = string(normalizeTextBytes(file.Data))
			break
		}
		text, err := s.extractor.Extract(ctx, file.Data)
		if err != nil {
			return statement.ParserInput{}, fmt.Errorf("extract %q: %w", file.Name, err)
		}
		input.Text = text
	}
	return input, nil
}

// normalizeTextBytes strips a UTF-8 BOM and decodes legacy Windows-1252
// exports, which Brazilian banks still produce.
func normalizeTextBytes(data []byte) []byte {
	data = stripUTF8BOM(data)
	if utf8.Valid(data) {
		return data
	}
	return decodeLatin1(data)
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func decodeLatin1(data []byte) []byte {
	if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return out
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}

// detectCurrency looks for an explicit currency in a delimited file: a
// currency column first, then currency symbols in the sampled rows.
func detectCurrency(raw string) (string, bool) {
	cfg, err := sniffer.DetectConfig(raw)
	if err != nil {
		return "", false
	}

	if idx := currencyColumnIndex(cfg.Headers); idx >= 0 {
		for _, row := range cfg.SampleRows {
			if idx >= len(row) {
				continue
			}
			if code, ok := normalizeCurrencyCode(row[idx]); ok {
				return code, true
			}
		}
	}

	for _, row := range cfg.SampleRows {
		for _, cell := range row {
			if code, ok := detectCurrencyFromSymbols(cell); ok {
				return code, true
			}
		}
	}
	return "", false
}

func currencyColumnIndex(headers []string) int {
	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}
		if containsCurrencyKeyword(h) {
			return i
		}
	}
	return -1
}

func containsCurrencyKeyword(lower string) bool {
	return strings.Contains(lower, "currency") ||
		strings.Contains(lower, "moeda") ||
		strings.Contains(lower, "moneda") ||
		strings.Contains(lower, "divisa") ||
		strings.Contains(lower, "devise") ||
		strings.Contains(lower, "valuta")
}

// normalizeCurrencyCode accepts a cell holding exactly one ISO-4217 code
func normalizeCurrencyCode(value string) (string, bool) {
	cleaned := strings.ToUpper(strings.Trim(strings.TrimSpace(value), "\"'"))
	if cleaned == "" {
		return "", false
	}
	if isCurrencyCode(cleaned) {
		return cleaned, true
	}

	tokens := strings.FieldsFunc(cleaned, func(r rune) bool {
		switch r {
		case ';', ',', '|', '-', ':', '/', '(', ')':
			return true
		}
		return unicode.IsSpace(r)
	})
	var found []string
	for _, token := range tokens {
		if isCurrencyCode(token) {
			found = append(found, token)
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return found[0], true
}

func isCurrencyCode(value string) bool {
	if len(value) != 3 {
		return false
	}
	for _, r := range value {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return money.IsKnownCurrency(value)
}

// detectCurrencyFromSymbols checks "R$" before the bare dollar sign
func detectCurrencyFromSymbols(value string) (string, bool) {
	switch {
	case strings.Contains(value, "R$"):
		return money.BRL, true
	case strings.Contains(value, "€"):
		return "EUR", true
	case strings.Contains(value, "£"):
		return "GBP", true
	case strings.Contains(value, "¥") || strings.Contains(value, "￥"):
		return "JPY", true
	case strings.Contains(value, "$"):
		return "USD", true
	}
	return "", false
}
