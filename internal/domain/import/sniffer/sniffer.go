// Package sniffer tokenizes delimited statement exports.
// It detects the field delimiter, splits quote-aware lines and fingerprints
// header rows so a bank layout can be recognized across uploads.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// Candidate delimiters in tie-break order
var delimiters = []rune{',', ';', '\t', '|'}

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrNoHeadersFound = errors.New("could not find data headers")
)

// FileConfig holds the detected layout of a delimited file
type FileConfig struct {
	Delimiter   rune       // The field delimiter (',', ';', '\t', '|')
	Headers     []string   // First non-blank row, trimmed
	Fingerprint string     // SHA256 of the normalized headers
	SampleRows  [][]string // Up to five data rows for preview
	RowCount    int        // Data rows after the header
}

// DetectConfig tokenizes raw and describes its layout
func DetectConfig(raw string) (*FileConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyFile
	}

	lines := Lines(raw)
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	delimiter := DetectDelimiter(lines[0])
	headers := SplitLine(lines[0], delimiter)
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) < 2 {
		return nil, ErrNoHeadersFound
	}

	cfg := &FileConfig{
		Delimiter:   delimiter,
		Headers:     headers,
		Fingerprint: HeaderFingerprint(headers),
		RowCount:    len(lines) - 1,
	}
	for _, line := range lines[1:] {
		if len(cfg.SampleRows) == 5 {
			break
		}
		cfg.SampleRows = append(cfg.SampleRows, SplitLine(line, delimiter))
	}
	return cfg, nil
}

// Tokenize splits raw into rows of fields. The delimiter is detected on the
// first non-blank line and applied to every line. Blank lines are dropped.
func Tokenize(raw string) [][]string {
	lines := Lines(raw)
	if len(lines) == 0 {
		return nil
	}

	delimiter := DetectDelimiter(lines[0])
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, SplitLine(line, delimiter))
	}
	return rows
}

// Lines returns the non-blank lines of raw with CR and a leading BOM removed
func Lines(raw string) []string {
	raw = strings.TrimPrefix(raw, "\uFEFF")
	parts := strings.Split(raw, "\n")

	lines := make([]string, 0, len(parts))
	for _, line := range parts {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// DetectDelimiter picks the candidate that splits line into the most fields.
// Ties go to the earlier candidate, so a line without any delimiter reads as
// comma-separated.
func DetectDelimiter(line string) rune {
	best := delimiters[0]
	bestFields := 0
	for _, d := range delimiters {
		fields := strings.Count(line, string(d)) + 1
		if fields > bestFields {
			best = d
			bestFields = fields
		}
	}
	return best
}

// SplitLine splits one line on delim. A double quote toggles a quoted span in
// which delim is literal; inside a quoted span a doubled quote is one literal
// quote. Quotes never reach the output and fields are not trimmed.
func SplitLine(line string, delim rune) []string {
	var (
		fields  []string
		field   strings.Builder
		inQuote bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuote && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuote = !inQuote
		case r == delim && !inQuote:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	return append(fields, field.String())
}

// HeaderFingerprint hashes header names after dropping everything but letters
// and digits, so cosmetic differences map to the same layout.
func HeaderFingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
