// Package statement defines the shared contract between the import service and
// every statement extractor: the input describing one uploaded file, the
// normalized transaction every extractor emits, and the Parser capability.
package statement

import (
	"regexp"
)

// FileType identifies the payload carried by a ParserInput
type FileType string

const (
	FileTypeCSV  FileType = "CSV"
	FileTypeOFX  FileType = "OFX"
	FileTypePDF  FileType = "PDF"
	FileTypeXLSX FileType = "XLSX"
)

// SourceType distinguishes bank-account statements from card-issuer statements
type SourceType string

const (
	SourceBank SourceType = "BANK"
	SourceCard SourceType = "CARD"
)

// Direction is set by extractors whose source format already encodes it
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// Issuer identifies a known card issuer
type Issuer string

const (
	IssuerItau Issuer = "ITAU"
)

// DefaultDescription is used when the source row carries no description
const DefaultDescription = "Movement"

// DefaultCurrency is the currency stamped on every transaction unless the
// caller overrides it.
const DefaultCurrency = "BRL"

// ParserInput describes one uploaded file. Only the payload matching FileType
// is populated; extractors must not look at the others.
type ParserInput struct {
	FileName string
	FileType FileType

	CSVRaw  string // FileTypeCSV
	OFXRaw  string // FileTypeOFX
	Text    string // FileTypePDF, text already extracted by a renderer
	XLSXRaw []byte // FileTypeXLSX
}

// Installment is a "current/total" purchase plan annotation (e.g. 3/10)
type Installment struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// ParsedTransaction is the canonical output unit of every extractor
type ParsedTransaction struct {
	Date        string     `json:"date"`        // YYYY-MM-DD
	Description string     `json:"description"` // never empty
	Amount      int64      `json:"amount"`      // cents, negative = outflow
	Currency    string     `json:"currency"`
	SourceType  SourceType `json:"source_type"`

	Direction   Direction    `json:"direction,omitempty"`
	Issuer      Issuer       `json:"issuer,omitempty"`
	Installment *Installment `json:"installment,omitempty"`

	Category string   `json:"category,omitempty"`
	City     string   `json:"city,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	RawLine string `json:"raw_line,omitempty"`

	// Hash is filled by the fingerprint helper, never by an extractor.
	Hash string `json:"hash,omitempty"`

	DuplicateInBatch bool `json:"duplicate_in_batch,omitempty"`
}

// Parser is the capability every extractor implements. Supports and Parse are
// pure and must never panic; Parse skips rows it cannot read.
type Parser interface {
	// ID returns a stable identifier (e.g. "csv-generic", "itau-card-pdf")
	ID() string

	// Supports reports whether this parser can handle the input
	Supports(input ParserInput) bool

	// Parse extracts transactions in source order
	Parse(input ParserInput) []ParsedTransaction
}

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISODate reports whether s has the YYYY-MM-DD shape
func IsISODate(s string) bool {
	return isoDatePattern.MatchString(s)
}

// Valid reports whether the transaction survives the output filter: a
// normalized date and a non-zero amount.
func (t ParsedTransaction) Valid() bool {
	return IsISODate(t.Date) && t.Amount != 0
}

// HasInstallment reports whether an installment plan was parsed
func (t ParsedTransaction) HasInstallment() bool {
	return t.Installment != nil
}

// Filter drops every transaction that fails Valid, preserving order.
func Filter(txs []ParsedTransaction) []ParsedTransaction {
	out := make([]ParsedTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Valid() {
			out = append(out, tx)
		}
	}
	return out
}

// Payload returns the text payload that matches the input's file type.
// XLSX inputs carry binary content and return an empty string.
func (in ParserInput) Payload() string {
	switch in.FileType {
	case FileTypeCSV:
		return in.CSVRaw
	case FileTypeOFX:
		return in.OFXRaw
	case FileTypePDF:
		return in.Text
	default:
		return ""
	}
}

// Size returns the payload size in bytes
func (in ParserInput) Size() int {
	if in.FileType == FileTypeXLSX {
		return len(in.XLSXRaw)
	}
	return len(in.Payload())
}
