package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

var (
	fullDatePattern = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	brAmountPattern = regexp.MustCompile(`-?\d{1,3}(?:\.\d{3})*,\d{2}`)
)

// PDFTextParser is the permissive fallback for text extracted from PDF
// statements: any segment holding a DD/MM/YYYY date and a currency-shaped
// number is a candidate transaction.
type PDFTextParser struct {
	opts  Options
	dates *normalizer.DateNormalizer
}

// NewPDFTextParser creates the generic PDF text extractor
func NewPDFTextParser(opts ...Option) *PDFTextParser {
	o := newOptions(opts)
	return &PDFTextParser{opts: o, dates: normalizer.NewDateNormalizer(o.Clock)}
}

func (p *PDFTextParser) ID() string { return IDPDFText }

func (p *PDFTextParser) Supports(input statement.ParserInput) bool {
	return input.FileType == statement.FileTypePDF
}

func (p *PDFTextParser) Parse(input statement.ParserInput) []statement.ParsedTransaction {
	segments := dateSegments(normalizer.CollapseSpaces(input.Text))

	txs := make([]statement.ParsedTransaction, 0, len(segments))
	for _, seg := range segments {
		tx, ok := p.segmentTransaction(seg)
		if ok {
			txs = append(txs, tx)
		}
	}
	return statement.Filter(txs)
}

func (p *PDFTextParser) segmentTransaction(seg string) (statement.ParsedTransaction, bool) {
	date := fullDatePattern.FindString(seg)
	if date == "" {
		return statement.ParsedTransaction{}, false
	}
	rest := strings.Replace(seg, date, " ", 1)

	amount := brAmountPattern.FindString(rest)
	if amount == "" {
		return statement.ParsedTransaction{}, false
	}
	rest = strings.Replace(rest, amount, " ", 1)

	return statement.ParsedTransaction{
		Date:        p.dates.Normalize(date),
		Description: describe(rest),
		Amount:      money.ParseCents(amount),
		Currency:    p.opts.Currency,
		SourceType:  statement.SourceBank,
		RawLine:     seg,
	}, true
}

// dateSegments cuts text so every segment starts at a DD/MM/YYYY occurrence.
// Text before the first date is dropped.
func dateSegments(text string) []string {
	idx := fullDatePattern.FindAllStringIndex(text, -1)
	segments := make([]string, 0, len(idx))
	for i, loc := range idx {
		end := len(text)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		segments = append(segments, strings.TrimSpace(text[loc[0]:end]))
	}
	return segments
}
