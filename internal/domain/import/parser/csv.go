package parser

import (
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
)

// Canonical column roles
const (
	roleDate        = "date"
	roleDescription = "description"
	roleAmount      = "amount"
	roleDebit       = "debit"
	roleCredit      = "credit"
)

// headerSynonyms maps folded header spellings to column roles
var headerSynonyms = map[string]string{
	"data": roleDate,
	"date": roleDate,
	"dt":   roleDate,

	"historico": roleDescription,
	"descricao": roleDescription,
	"desc":      roleDescription,
	"memo":      roleDescription,
	"documento": roleDescription,

	"valor":  roleAmount,
	"amount": roleAmount,

	"debito": roleDebit,
	"debit":  roleDebit,

	"credito": roleCredit,
	"credit":  roleCredit,
}

// columnMap holds the index of every role, -1 when the header is absent
type columnMap struct {
	date, description, amount, debit, credit int
}

// mapColumns resolves header cells to roles; the first header for a role wins
func mapColumns(headers []string) columnMap {
	cm := columnMap{date: -1, description: -1, amount: -1, debit: -1, credit: -1}

	for i, h := range headers {
		role, ok := headerSynonyms[normalizer.FoldKey(h)]
		if !ok {
			continue
		}
		switch role {
		case roleDate:
			if cm.date < 0 {
				cm.date = i
			}
		case roleDescription:
			if cm.description < 0 {
				cm.description = i
			}
		case roleAmount:
			if cm.amount < 0 {
				cm.amount = i
			}
		case roleDebit:
			if cm.debit < 0 {
				cm.debit = i
			}
		case roleCredit:
			if cm.credit < 0 {
				cm.credit = i
			}
		}
	}

	if cm.date < 0 {
		cm.date = 0
	}
	if cm.description < 0 {
		cm.description = 1
	}
	return cm
}

// rowTransaction builds a bank transaction from one tokenized row. The caller
// filters the result.
func (cm columnMap) rowTransaction(row []string, dates *normalizer.DateNormalizer, currency string) statement.ParsedTransaction {
	var amount int64
	if cm.amount >= 0 {
		amount = cellCents(field(row, cm.amount))
	} else {
		amount = cellCents(field(row, cm.credit)) - cellCents(field(row, cm.debit))
	}

	return statement.ParsedTransaction{
		Date:        dates.Normalize(field(row, cm.date)),
		Description: describe(field(row, cm.description)),
		Amount:      amount,
		Currency:    currency,
		SourceType:  statement.SourceBank,
	}
}

// CSVParser is the generic delimited-text extractor
type CSVParser struct {
	opts  Options
	dates *normalizer.DateNormalizer
}

// NewCSVParser creates a CSV extractor
func NewCSVParser(opts ...Option) *CSVParser {
	o := newOptions(opts)
	return &CSVParser{opts: o, dates: normalizer.NewDateNormalizer(o.Clock)}
}

func (p *CSVParser) ID() string { return IDCSV }

func (p *CSVParser) Supports(input statement.ParserInput) bool {
	return input.FileType == statement.FileTypeCSV
}

// Parse treats the first non-blank line as the header row
func (p *CSVParser) Parse(input statement.ParserInput) []statement.ParsedTransaction {
	lines := sniffer.Lines(input.CSVRaw)
	if len(lines) < 2 {
		return []statement.ParsedTransaction{}
	}

	delimiter := sniffer.DetectDelimiter(lines[0])
	cm := mapColumns(sniffer.SplitLine(lines[0], delimiter))

	txs := make([]statement.ParsedTransaction, 0, len(lines)-1)
	for _, line := range lines[1:] {
		tx := cm.rowTransaction(sniffer.SplitLine(line, delimiter), p.dates, p.opts.Currency)
		tx.RawLine = strings.TrimSpace(line)
		txs = append(txs, tx)
	}
	return statement.Filter(txs)
}
