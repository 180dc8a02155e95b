package parser

import (
	"fmt"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// itauSignals lists the phrases an Itau card invoice must carry, all of them
// in NormalizeText form. A signal is satisfied when any of its variants occurs.
var itauSignals = [][]string{
	{"LANCAMENTOS: COMPRAS E SAQUES", "LANCAMENTOS COMPRAS E SAQUES"},
	{"ITAU"},
	{"CARTAO"},
	{"XXXX", "FINAL "},
}

// ItauParser extracts line items from Itau credit-card invoice text
type ItauParser struct {
	opts Options

	mu      sync.Mutex // the matcher keeps per-call state
	matcher *ahocorasick.Matcher
	signal  []int // dictionary index -> itauSignals index
}

// NewItauParser creates the Itau invoice extractor
func NewItauParser(opts ...Option) *ItauParser {
	var (
		dict   []string
		signal []int
	)
	for i, variants := range itauSignals {
		for _, v := range variants {
			dict = append(dict, v)
			signal = append(signal, i)
		}
	}

	return &ItauParser{
		opts:    newOptions(opts),
		matcher: ahocorasick.NewStringMatcher(dict),
		signal:  signal,
	}
}

func (p *ItauParser) ID() string { return IDItauCard }

// Supports requires every signature phrase to be present in the text
func (p *ItauParser) Supports(input statement.ParserInput) bool {
	if input.FileType != statement.FileTypePDF || input.Text == "" {
		return false
	}
	normalized := normalizer.NormalizeText(input.Text)

	p.mu.Lock()
	hits := p.matcher.Match([]byte(normalized))
	p.mu.Unlock()

	seen := make([]bool, len(itauSignals))
	for _, h := range hits {
		if h >= 0 && h < len(p.signal) {
			seen[p.signal[h]] = true
		}
	}
	for _, ok := range seen {
		if !ok {
			return false
		}
	}
	return true
}

func (p *ItauParser) Parse(input statement.ParserInput) []statement.ParsedTransaction {
	refYear, refMonth := referenceDate(normalizer.NormalizeText(input.Text), p.opts.Clock)

	lines := matchItauLines(input.Text)
	txs := make([]statement.ParsedTransaction, 0, len(lines))
	for _, line := range lines {
		installment, desc := extractInstallment(line.description)
		city, desc := extractCity(desc)

		tx := statement.ParsedTransaction{
			Date:        fmt.Sprintf("%04d-%02d-%02d", resolveYear(line.month, refYear, refMonth), line.month, line.day),
			Description: describe(desc),
			Amount:      -money.ParseCents(line.amount),
			Currency:    p.opts.Currency,
			SourceType:  statement.SourceCard,
			Direction:   statement.DirectionDebit,
			Issuer:      statement.IssuerItau,
			Installment: installment,
			City:        city,
			RawLine:     line.raw,
		}
		tx.Category = p.opts.Merchants.Category(tx.Description)
		txs = append(txs, tx)
	}

	return collapseInstallmentDuplicates(statement.Filter(txs))
}

// dedupKey groups echoes of one logical purchase
type dedupKey struct {
	date        string
	description string
	amount      int64
}

// collapseInstallmentDuplicates groups transactions by date, normalized
// description and absolute amount. In every group with more than one member
// the one with the highest installment number is authoritative: siblings
// without installment data inherit its plan and every other member is
// flagged DuplicateInBatch. Output keeps source order.
func collapseInstallmentDuplicates(txs []statement.ParsedTransaction) []statement.ParsedTransaction {
	groups := make(map[dedupKey][]int)
	for i, tx := range txs {
		k := dedupKey{
			date:        tx.Date,
			description: normalizer.NormalizeText(tx.Description),
			amount:      abs(tx.Amount),
		}
		groups[k] = append(groups[k], i)
	}

	out := make([]statement.ParsedTransaction, len(txs))
	copy(out, txs)

	for _, members := range groups {
		if len(members) < 2 {
			continue
		}

		latest := members[0]
		for _, i := range members[1:] {
			if installmentNumber(txs[i]) > installmentNumber(txs[latest]) {
				latest = i
			}
		}

		plan := txs[latest].Installment
		for _, i := range members {
			if i == latest {
				continue
			}
			if out[i].Installment == nil && plan != nil {
				inherited := *plan
				out[i].Installment = &inherited
			}
			out[i].DuplicateInBatch = true
		}
	}
	return out
}

func installmentNumber(tx statement.ParsedTransaction) int {
	if tx.Installment == nil {
		return 0
	}
	return tx.Installment.Current
}
