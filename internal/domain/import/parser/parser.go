// Package parser holds the statement extractors and the registry that picks
// one for a given input. Every extractor implements statement.Parser: it never
// returns an error and silently skips rows it cannot read.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// Parser identifiers
const (
	IDItauCard = "itau-card-pdf"
	IDPDFText  = "pdf-text-generic"
	IDCSV      = "csv-generic"
	IDOFX      = "ofx-generic"
	IDXLSX     = "xlsx-generic"
)

// Options configures the extractors built by this package
type Options struct {
	Currency  string
	Clock     normalizer.Clock
	Merchants *normalizer.MerchantSanitizer
}

// Option mutates Options
type Option func(*Options)

// WithCurrency sets the currency stamped on every transaction
func WithCurrency(code string) Option {
	return func(o *Options) {
		if code != "" {
			o.Currency = strings.ToUpper(code)
		}
	}
}

// WithClock sets the reference clock for dates that carry no year
func WithClock(clock normalizer.Clock) Option {
	return func(o *Options) {
		if clock != nil {
			o.Clock = clock
		}
	}
}

// WithMerchants sets the sanitizer used for category enrichment
func WithMerchants(m *normalizer.MerchantSanitizer) Option {
	return func(o *Options) {
		if m != nil {
			o.Merchants = m
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Currency: statement.DefaultCurrency,
		Clock:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Merchants == nil {
		o.Merchants = normalizer.NewMerchantSanitizer()
	}
	return o
}

var bareIntegerPattern = regexp.MustCompile(`^-?\d+$`)

// cellCents reads a tabular amount cell. Bare integers ("-150000") are
// already minor units; anything else is a Brazilian-locale decimal.
func cellCents(raw string) int64 {
	s := strings.TrimSpace(raw)
	if bareIntegerPattern.MatchString(s) {
		cents, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0
		}
		return cents
	}
	return money.ParseCents(s)
}

// describe collapses whitespace and falls back to the default description
func describe(raw string) string {
	if d := normalizer.CollapseSpaces(raw); d != "" {
		return d
	}
	return statement.DefaultDescription
}

// field returns the trimmed cell at idx or "" when out of range
func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
