package parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// preferredSheets are tried in order before falling back to the first sheet
var preferredSheets = []string{
	"extrato", "lancamentos", "lançamentos", "movimentacoes", "transactions", "statement", "planilha1", "sheet1",
}

// XLSXParser reads spreadsheet exports with the same header vocabulary as
// the CSV extractor. Cells are read raw, so numeric amounts are currency
// units and numeric dates are Excel serial days.
type XLSXParser struct {
	opts  Options
	dates *normalizer.DateNormalizer
}

// NewXLSXParser creates the spreadsheet extractor
func NewXLSXParser(opts ...Option) *XLSXParser {
	o := newOptions(opts)
	return &XLSXParser{opts: o, dates: normalizer.NewDateNormalizer(o.Clock)}
}

func (p *XLSXParser) ID() string { return IDXLSX }

func (p *XLSXParser) Supports(input statement.ParserInput) bool {
	return input.FileType == statement.FileTypeXLSX && len(input.XLSXRaw) > 0
}

func (p *XLSXParser) Parse(input statement.ParserInput) []statement.ParsedTransaction {
	rows := readSheet(input.XLSXRaw)

	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	if len(rows)-start < 2 {
		return []statement.ParsedTransaction{}
	}

	cm := mapColumns(rows[start])
	txs := make([]statement.ParsedTransaction, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if blankRow(row) {
			continue
		}

		tx := cm.rowTransaction(row, p.dates, p.opts.Currency)
		if serial := field(row, cm.date); isNumericCell(serial) {
			tx.Date = excelDate(serial)
		}
		if cm.amount >= 0 {
			tx.Amount = excelCents(field(row, cm.amount))
		} else {
			tx.Amount = excelCents(field(row, cm.credit)) - excelCents(field(row, cm.debit))
		}
		tx.RawLine = strings.Join(row, ";")
		txs = append(txs, tx)
	}
	return statement.Filter(txs)
}

// readSheet returns the rows of the best sheet, or nil when the workbook
// cannot be opened.
func readSheet(raw []byte) [][]string {
	f, err := excelize.OpenReader(bytes.NewReader(raw), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil
	}
	defer f.Close()

	sheet := findTransactionSheet(f.GetSheetList())
	if sheet == "" {
		return nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil
	}
	return rows
}

// findTransactionSheet finds the best sheet for transaction data
func findTransactionSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheets {
		for _, sheet := range sheets {
			if strings.EqualFold(strings.TrimSpace(sheet), preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isNumericCell(s string) bool {
	if s == "" || strings.Contains(s, ",") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// excelDate converts an Excel serial day into YYYY-MM-DD
func excelDate(serial string) string {
	v, err := strconv.ParseFloat(serial, 64)
	if err != nil {
		return ""
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// excelCents reads numeric cells as currency units and text cells like CSV
func excelCents(s string) int64 {
	if isNumericCell(s) {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0
		}
		return money.NewFromDecimal(d, money.BRL).Amount()
	}
	return cellCents(s)
}
