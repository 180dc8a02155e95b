package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// ItauInvoiceHeader is the statement-level metadata of an Itau card invoice.
// Dates are YYYY-MM-DD; Total is in cents.
type ItauInvoiceHeader struct {
	HolderName  string `json:"holder_name,omitempty"`
	CardNumber  string `json:"card_number,omitempty"`
	IssueDate   string `json:"issue_date"`
	DueDate     string `json:"due_date"`
	PostingDate string `json:"posting_date,omitempty"`
	Total       int64  `json:"total"`
	ContentHash string `json:"content_hash"`
}

// ParseItauInvoiceHeader extracts invoice metadata from PDF text. It returns
// nil when the issue date, due date or total cannot be found; callers treat
// that as "not an Itau invoice" even if line items were extracted.
func ParseItauInvoiceHeader(text string) *ItauInvoiceHeader {
	normalized := normalizer.NormalizeText(text)

	issue := findIssueDate(normalized)
	due := findDueDate(normalized)
	total, ok := findStatementTotal(normalized)
	if issue == "" || due == "" || !ok {
		return nil
	}

	sum := sha256.Sum256([]byte(text))
	return &ItauInvoiceHeader{
		HolderName:  findHolderName(normalized),
		CardNumber:  findCardNumber(normalized),
		IssueDate:   issue,
		DueDate:     due,
		PostingDate: findPostingDate(normalized),
		Total:       total,
		ContentHash: hex.EncodeToString(sum[:]),
	}
}

// TotalMoney returns the invoice total as Money
func (h *ItauInvoiceHeader) TotalMoney(currency string) *money.Money {
	return money.New(h.Total, currency)
}

// Reconcile compares the invoice total with the line items that are not
// in-batch duplicates. Line items are outflows (negative), so a complete
// extraction returns 0; a positive result means charges are missing.
func (h *ItauInvoiceHeader) Reconcile(txs []statement.ParsedTransaction) int64 {
	currency := statement.DefaultCurrency
	items := make([]int64, 0, len(txs))
	for _, tx := range txs {
		if tx.DuplicateInBatch {
			continue
		}
		if tx.Currency != "" {
			currency = tx.Currency
		}
		items = append(items, tx.Amount)
	}

	diff, err := h.TotalMoney(currency).Add(money.Sum(currency, items...))
	if err != nil {
		return h.Total
	}
	return diff.Amount()
}

// referenceDate picks the statement's reference year and month from the due,
// issue or posting date, in that order. The clock is the last resort.
func referenceDate(normalized string, clock normalizer.Clock) (year int, month time.Month) {
	for _, find := range []func(string) string{findDueDate, findIssueDate, findPostingDate} {
		if d, ok := normalizer.ParseISO(find(normalized)); ok {
			return d.Year(), d.Month()
		}
	}
	now := clock()
	return now.Year(), now.Month()
}

// resolveYear assigns a year to a DD/MM line item. Items from December on a
// January statement belong to the previous year.
func resolveYear(itemMonth int, refYear int, refMonth time.Month) int {
	if itemMonth == 12 && refMonth == time.January {
		return refYear - 1
	}
	return refYear
}
