package service

import (
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
)

// Issue types reported in Stats
const (
	IssueNoTransactions         = "no_transactions"
	IssueReconciliationMismatch = "reconciliation_mismatch"
	IssuePossibleDuplicates     = "possible_duplicates"
	IssueUncategorized          = "uncategorized"
)

// Stats summarizes one parsed file. Income and Expenses are cents; Expenses
// is reported as a positive magnitude.
type Stats struct {
	Transactions       int     `json:"transactions"`
	Income             int64   `json:"income"`
	Expenses           int64   `json:"expenses"`
	Net                int64   `json:"net"`
	EarliestDate       string  `json:"earliest_date,omitempty"`
	LatestDate         string  `json:"latest_date,omitempty"`
	Installments       int     `json:"installments"`
	DuplicatesInBatch  int     `json:"duplicates_in_batch"`
	PossibleDuplicates int     `json:"possible_duplicates"`
	CategorizationRate float64 `json:"categorization_rate"`
	Issues             []Issue `json:"issues,omitempty"`
}

// Issue is a data quality finding worth showing to the user
type Issue struct {
	Type         string `json:"type"`
	AffectedRows int    `json:"affected_rows"`
	SampleValue  string `json:"sample_value,omitempty"`
	Suggestion   string `json:"suggestion"`
}

// computeStats aggregates amounts and dates. Duplicate counters and issues
// that need more context are filled in by the caller.
func computeStats(txs []statement.ParsedTransaction) Stats {
	st := Stats{Transactions: len(txs)}

	categorized := 0
	for _, tx := range txs {
		if tx.Amount > 0 {
			st.Income += tx.Amount
		} else {
			st.Expenses -= tx.Amount
		}
		if tx.HasInstallment() {
			st.Installments++
		}
		if tx.DuplicateInBatch {
			st.DuplicatesInBatch++
		}
		if tx.Category != "" {
			categorized++
		}

		// ISO dates compare lexically
		if st.EarliestDate == "" || tx.Date < st.EarliestDate {
			st.EarliestDate = tx.Date
		}
		if tx.Date > st.LatestDate {
			st.LatestDate = tx.Date
		}
	}
	st.Net = st.Income - st.Expenses

	if len(txs) == 0 {
		st.Issues = append(st.Issues, Issue{
			Type:       IssueNoTransactions,
			Suggestion: "Check that the file is a statement export and not a scanned image",
		})
		return st
	}
	st.CategorizationRate = float64(categorized) / float64(len(txs))
	return st
}
