package parser

import (
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

var (
	stmtTrnSplit   = regexp.MustCompile(`(?i)<STMTTRN>`)
	ccStatementTag = regexp.MustCompile(`(?i)<CCSTMTRS>`)
	ofxDigits      = regexp.MustCompile(`^\d{8}`)
	ofxTags        = map[string]*regexp.Regexp{
		"DTPOSTED": ofxTagPattern("DTPOSTED"),
		"TRNAMT":   ofxTagPattern("TRNAMT"),
		"MEMO":     ofxTagPattern("MEMO"),
		"NAME":     ofxTagPattern("NAME"),
	}
)

// ofxTagPattern matches "<TAG>value" up to the next tag or line break
func ofxTagPattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<` + tag + `>([^<\r\n]*)`)
}

// OFXParser extracts STMTTRN blocks from OFX/QFX exports. Well-formed
// documents go through ofxgo; anything ofxgo rejects is read block by block.
type OFXParser struct {
	opts Options
}

// NewOFXParser creates an OFX extractor
func NewOFXParser(opts ...Option) *OFXParser {
	return &OFXParser{opts: newOptions(opts)}
}

func (p *OFXParser) ID() string { return IDOFX }

func (p *OFXParser) Supports(input statement.ParserInput) bool {
	return input.FileType == statement.FileTypeOFX
}

func (p *OFXParser) Parse(input statement.ParserInput) []statement.ParsedTransaction {
	if txs, ok := p.parseStrict(input.OFXRaw); ok {
		return statement.Filter(txs)
	}
	return statement.Filter(p.parseBlocks(input.OFXRaw))
}

// parseStrict decodes a complete OFX response. ok is false when ofxgo fails
// or the response holds no bank or card transactions.
func (p *OFXParser) parseStrict(raw string) (txs []statement.ParsedTransaction, ok bool) {
	defer func() {
		if recover() != nil {
			txs, ok = nil, false
		}
	}()

	resp, err := ofxgo.ParseResponse(strings.NewReader(raw))
	if err != nil {
		return nil, false
	}

	for _, msg := range resp.Bank {
		if stmt, isStmt := msg.(*ofxgo.StatementResponse); isStmt && stmt.BankTranList != nil {
			txs = append(txs, p.convert(stmt.BankTranList.Transactions, statement.SourceBank)...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, isStmt := msg.(*ofxgo.CCStatementResponse); isStmt && stmt.BankTranList != nil {
			txs = append(txs, p.convert(stmt.BankTranList.Transactions, statement.SourceCard)...)
		}
	}
	return txs, len(txs) > 0
}

func (p *OFXParser) convert(list []ofxgo.Transaction, source statement.SourceType) []statement.ParsedTransaction {
	txs := make([]statement.ParsedTransaction, 0, len(list))
	for _, t := range list {
		date := ""
		if !t.DtPosted.IsZero() {
			date = t.DtPosted.Format("2006-01-02")
		}

		desc := t.Memo.String()
		if strings.TrimSpace(desc) == "" {
			desc = t.Name.String()
		}

		txs = append(txs, statement.ParsedTransaction{
			Date:        date,
			Description: describe(desc),
			Amount:      money.ParseCentsLocale(t.TrnAmt.FloatString(2), money.LocaleUS),
			Currency:    p.opts.Currency,
			SourceType:  source,
			RawLine:     t.FiTID.String(),
		})
	}
	return txs
}

// parseBlocks is the tolerant path: every segment after a <STMTTRN> marker is
// one transaction block.
func (p *OFXParser) parseBlocks(raw string) []statement.ParsedTransaction {
	segments := stmtTrnSplit.Split(raw, -1)
	if len(segments) < 2 {
		return []statement.ParsedTransaction{}
	}

	source := statement.SourceBank
	if ccStatementTag.MatchString(raw) {
		source = statement.SourceCard
	}

	txs := make([]statement.ParsedTransaction, 0, len(segments)-1)
	for _, block := range segments[1:] {
		desc := ofxTag(block, "MEMO")
		if desc == "" {
			desc = ofxTag(block, "NAME")
		}

		txs = append(txs, statement.ParsedTransaction{
			Date:        ofxDate(ofxTag(block, "DTPOSTED")),
			Description: describe(desc),
			Amount:      ofxAmount(ofxTag(block, "TRNAMT")),
			Currency:    p.opts.Currency,
			SourceType:  source,
			RawLine:     strings.TrimSpace(block),
		})
	}
	return txs
}

func ofxTag(block, tag string) string {
	m := ofxTags[tag].FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ofxDate turns YYYYMMDD[hhmmss[.xxx][tz]] into YYYY-MM-DD
func ofxDate(raw string) string {
	d := ofxDigits.FindString(raw)
	if d == "" {
		return ""
	}
	return d[0:4] + "-" + d[4:6] + "-" + d[6:8]
}

// ofxAmount accepts a decimal comma or a decimal dot
func ofxAmount(raw string) int64 {
	if strings.Contains(raw, ",") {
		return money.ParseCents(raw)
	}
	return money.ParseCentsLocale(raw, money.LocaleUS)
}
