// Package output renders parse results as JSON documents or flat CSV files.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/service"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// Format selects the writer
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv" in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or csv)", s)
}

// FileReport is the JSON shape of one batch item
type FileReport struct {
	FileName string          `json:"file_name"`
	Error    string          `json:"error,omitempty"`
	Result   *service.Result `json:"result,omitempty"`
}

// Row is one transaction in the flat CSV export
type Row struct {
	File        string `csv:"file"`
	Parser      string `csv:"parser"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	AmountCents int64  `csv:"amount_cents"`
	Currency    string `csv:"currency"`
	SourceType  string `csv:"source_type"`
	Direction   string `csv:"direction"`
	Issuer      string `csv:"issuer"`
	Installment string `csv:"installment"`
	Category    string `csv:"category"`
	City        string `csv:"city"`
	Duplicate   bool   `csv:"duplicate_in_batch"`
	Hash        string `csv:"hash"`
}

// Write renders items in the given format
func Write(w io.Writer, format Format, items []service.BatchItem) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, items)
	case FormatCSV:
		return WriteCSV(w, items)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// WriteJSON serializes one report per file with 2-space indentation
func WriteJSON(w io.Writer, items []service.BatchItem) error {
	reports := make([]FileReport, 0, len(items))
	for _, item := range items {
		r := FileReport{FileName: item.FileName, Result: item.Result}
		if item.Err != nil {
			r.Error = item.Err.Error()
		}
		reports = append(reports, r)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		return fmt.Errorf("failed to encode reports as JSON: %w", err)
	}
	return nil
}

// WriteCSV flattens every successful result into transaction rows. Files
// that failed are skipped; the header row is always written.
func WriteCSV(w io.Writer, items []service.BatchItem) error {
	rows := make([]*Row, 0)
	for _, item := range items {
		if item.Result == nil {
			continue
		}
		for _, tx := range item.Result.Transactions {
			rows = append(rows, toRow(item.FileName, item.Result.Parser, tx))
		}
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func toRow(file, parserID string, tx statement.ParsedTransaction) *Row {
	row := &Row{
		File:        file,
		Parser:      parserID,
		Date:        tx.Date,
		Description: tx.Description,
		Amount:      money.New(tx.Amount, tx.Currency).String(),
		AmountCents: tx.Amount,
		Currency:    tx.Currency,
		SourceType:  string(tx.SourceType),
		Direction:   string(tx.Direction),
		Issuer:      string(tx.Issuer),
		Category:    tx.Category,
		City:        tx.City,
		Duplicate:   tx.DuplicateInBatch,
		Hash:        tx.Hash,
	}
	if tx.Installment != nil {
		row.Installment = fmt.Sprintf("%d/%d", tx.Installment.Current, tx.Installment.Total)
	}
	return row
}
