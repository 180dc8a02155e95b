package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator generates realistic statement test data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// TestEntry is a generated statement line with its expected normalized values.
type TestEntry struct {
	Date        time.Time
	Description string
	Cents       int64
}

// ISODate returns the entry date as YYYY-MM-DD
func (e TestEntry) ISODate() string {
	return e.Date.Format("2006-01-02")
}

// Entry generates one statement entry. Expenses are negative.
func (g *TestDataGenerator) Entry(minCents, maxCents int64) TestEntry {
	cents := g.RandomCents(minCents, maxCents)
	if g.faker.Bool() {
		cents = -cents
	}
	return TestEntry{
		Date:        g.faker.DateRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)),
		Description: g.Merchant(),
		Cents:       cents,
	}
}

// Entries generates count entries
func (g *TestDataGenerator) Entries(count int) []TestEntry {
	entries := make([]TestEntry, count)
	for i := 0; i < count; i++ {
		entries[i] = g.Entry(1, 500000)
	}
	return entries
}

// RandomCents returns a positive amount in [minCents, maxCents]
func (g *TestDataGenerator) RandomCents(minCents, maxCents int64) int64 {
	if maxCents <= minCents {
		return minCents
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return minCents + cents
}

// Merchant returns a random Brazilian merchant name
func (g *TestDataGenerator) Merchant() string {
	return merchants[g.faker.Number(0, len(merchants)-1)]
}

// FormatBR renders cents the way Brazilian statements print them (1.234,56)
func FormatBR(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := fmt.Sprintf("%d", cents/100)
	var groups []string
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)

	return fmt.Sprintf("%s%s,%02d", sign, strings.Join(groups, "."), cents%100)
}

// CSVStatement renders entries as a semicolon-delimited bank export
func (g *TestDataGenerator) CSVStatement(entries []TestEntry) string {
	var b strings.Builder
	b.WriteString("Data;Histórico;Valor\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s;%s;%s\n", e.Date.Format("02/01/2006"), e.Description, FormatBR(e.Cents))
	}
	return b.String()
}

// PDFText renders entries as flattened PDF statement text
func (g *TestDataGenerator) PDFText(entries []TestEntry) string {
	var b strings.Builder
	b.WriteString("EXTRATO DE CONTA CORRENTE ")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s %s ", e.Date.Format("02/01/2006"), e.Description, FormatBR(e.Cents))
	}
	return b.String()
}

var merchants = []string{
	"PADARIA PAO DOURADO", "SUPERMERCADO EXTRA", "POSTO IPIRANGA", "DROGARIA SAO PAULO",
	"RESTAURANTE SABOR MINEIRO", "UBER TRIP", "IFOOD PEDIDO", "NETFLIX", "SPOTIFY",
	"MAGAZINE LUIZA", "AMAZON MARKETPLACE", "LOJAS RENNER", "CINEMARK", "PAGUE MENOS",
	"CARREFOUR", "PAO DE ACUCAR", "RAIA DROGASIL", "LIVRARIA CULTURA", "SMART FIT",
	"CLARO CELULAR",
}
