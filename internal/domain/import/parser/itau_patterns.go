package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

// Itau invoice layout. Line-item patterns run on the raw text; header
// patterns run on normalizer.NormalizeText output (upper case, no accents).
var (
	itauLineItem     = regexp.MustCompile(`\b(\d{2})/(\d{2})\s+(.+?)\s+(-?\d{1,3}(?:\.\d{3})*,\d{2})\b`)
	itauInstallment  = regexp.MustCompile(`\b(\d{2})/(\d{2})\b`)
	itauCitySuffix   = regexp.MustCompile(`\s\.\s?([\p{L}][\p{L} ]+)$`)
	itauEntriesStart = regexp.MustCompile(`(?i)lan[cç]amentos:?\s*compras\s+e\s+saques`)

	itauHolder  = regexp.MustCompile(`TITULAR:?\s+([A-Z][A-Z ]*?)\s+(?:CARTAO|CPF|FINAL|EMISSAO|VENCIMENTO|\d)`)
	itauCard    = regexp.MustCompile(`\b(\d{4}[. ]?X{4}[. ]?X{4}[. ]?\d{4}|FINAL \d{4})\b`)
	itauIssue   = regexp.MustCompile(`EMISSAO:?\s+(\d{2}/\d{2}/\d{4})`)
	itauDue     = regexp.MustCompile(`VENCIMENTO:?\s+(?:EM\s+)?(\d{2}/\d{2}/\d{4})`)
	itauPosting = regexp.MustCompile(`POSTAGEM:?\s+(\d{2}/\d{2}/\d{4})`)
	itauTotal   = regexp.MustCompile(`TOTAL (?:DESTA|DA SUA|DA) FATURA(?: E)?:?\s+(?:R\$\s*)?(-?\d{1,3}(?:\.\d{3})*,\d{2})`)
)

// itauLine is one raw line-item match before year resolution
type itauLine struct {
	day, month  int
	description string
	amount      string
	raw         string
}

// matchItauLines returns every "DD/MM description amount" match in source
// order. Matching starts after the purchases-and-withdrawals marker when the
// text carries one.
func matchItauLines(text string) []itauLine {
	if loc := itauEntriesStart.FindStringIndex(text); loc != nil {
		text = text[loc[1]:]
	}

	matches := itauLineItem.FindAllStringSubmatch(text, -1)
	lines := make([]itauLine, 0, len(matches))
	for _, m := range matches {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day < 1 || day > 31 || month < 1 || month > 12 {
			continue
		}
		lines = append(lines, itauLine{
			day:         day,
			month:       month,
			description: m[3],
			amount:      m[4],
			raw:         m[0],
		})
	}
	return lines
}

// extractInstallment pulls the last "NN/NN" token out of a description.
// Tokens where current is zero or exceeds total are not installments.
func extractInstallment(desc string) (*statement.Installment, string) {
	all := itauInstallment.FindAllStringSubmatchIndex(desc, -1)
	for i := len(all) - 1; i >= 0; i-- {
		loc := all[i]
		current, _ := strconv.Atoi(desc[loc[2]:loc[3]])
		total, _ := strconv.Atoi(desc[loc[4]:loc[5]])
		if current < 1 || total < current {
			continue
		}
		rest := desc[:loc[0]] + " " + desc[loc[1]:]
		return &statement.Installment{Current: current, Total: total}, normalizer.CollapseSpaces(rest)
	}
	return nil, normalizer.CollapseSpaces(desc)
}

// extractCity splits a trailing " .CITY" annotation off a description
func extractCity(desc string) (city, rest string) {
	m := itauCitySuffix.FindStringSubmatchIndex(desc)
	if m == nil {
		return "", desc
	}
	return strings.TrimSpace(desc[m[2]:m[3]]), normalizer.CollapseSpaces(desc[:m[0]])
}

func findHolderName(normalized string) string {
	return firstGroup(itauHolder, normalized)
}

func findCardNumber(normalized string) string {
	return firstGroup(itauCard, normalized)
}

func findIssueDate(normalized string) string {
	return isoOrEmpty(firstGroup(itauIssue, normalized))
}

func findDueDate(normalized string) string {
	return isoOrEmpty(firstGroup(itauDue, normalized))
}

func findPostingDate(normalized string) string {
	return isoOrEmpty(firstGroup(itauPosting, normalized))
}

// findStatementTotal returns the invoice total in cents
func findStatementTotal(normalized string) (int64, bool) {
	raw := firstGroup(itauTotal, normalized)
	if raw == "" {
		return 0, false
	}
	return money.ParseCents(raw), true
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func isoOrEmpty(ddmmyyyy string) string {
	if ddmmyyyy == "" {
		return ""
	}
	iso := normalizer.NormalizeDate(ddmmyyyy)
	if !statement.IsISODate(iso) {
		return ""
	}
	return iso
}
