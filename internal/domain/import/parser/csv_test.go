package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

func csvInput(raw string) statement.ParserInput {
	return statement.ParserInput{FileName: "extrato.csv", FileType: statement.FileTypeCSV, CSVRaw: raw}
}

func TestCSVParser_EndToEnd(t *testing.T) {
	raw := "data,historico,valor\n" +
		`"2024-03-01","Aluguel","-150000"` + "\n" +
		`"2024-03-02","Venda","20000"` + "\n"

	txs := NewCSVParser().Parse(csvInput(raw))
	require.Len(t, txs, 2)

	assert.Equal(t, "2024-03-01", txs[0].Date)
	assert.Equal(t, "Aluguel", txs[0].Description)
	assert.Equal(t, int64(-150000), txs[0].Amount)
	assert.Equal(t, "2024-03-02", txs[1].Date)
	assert.Equal(t, "Venda", txs[1].Description)
	assert.Equal(t, int64(20000), txs[1].Amount)

	for _, tx := range txs {
		assert.Equal(t, statement.SourceBank, tx.SourceType)
		assert.Equal(t, "BRL", tx.Currency)
		assert.Empty(t, tx.Category)
		assert.Nil(t, tx.Installment)
	}
}

func TestCSVParser_Parse(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	p := NewCSVParser(WithClock(clock))

	tests := []struct {
		name     string
		raw      string
		wantDate []string
		wantDesc []string
		wantAmt  []int64
	}{
		{
			name:     "semicolon brazilian export",
			raw:      "Data;Histórico;Valor\n01/03/2024;Aluguel;-1.500,00\n02/03/2024;Venda;200,00\n",
			wantDate: []string{"2024-03-01", "2024-03-02"},
			wantDesc: []string{"Aluguel", "Venda"},
			wantAmt:  []int64{-150000, 20000},
		},
		{
			name:     "debit and credit columns",
			raw:      "Data;Descrição;Débito;Crédito\n01/03/2024;Tarifa;12,50;\n02/03/2024;Pix;;300,00\n03/03/2024;Nada;;\n",
			wantDate: []string{"2024-03-01", "2024-03-02"},
			wantDesc: []string{"Tarifa", "Pix"},
			wantAmt:  []int64{-1250, 30000},
		},
		{
			name:     "signed debit and credit cells subtract as written",
			raw:      "data;historico;debito;credito\n01/03/2024;Estorno;-50,00;\n02/03/2024;Ajuste;;-20,00\n03/03/2024;Ambos;10,00;25,00\n",
			wantDate: []string{"2024-03-01", "2024-03-02", "2024-03-03"},
			wantDesc: []string{"Estorno", "Ajuste", "Ambos"},
			wantAmt:  []int64{5000, -2000, 1500},
		},
		{
			name:     "tab delimited english headers",
			raw:      "Date\tMemo\tAmount\n2024-01-15\tCoffee\t-4,50\n",
			wantDate: []string{"2024-01-15"},
			wantDesc: []string{"Coffee"},
			wantAmt:  []int64{-450},
		},
		{
			name:     "pipe delimited with short dates",
			raw:      "dt|desc|valor\n05/03|Mercado|-80,10\n",
			wantDate: []string{"2025-03-05"},
			wantDesc: []string{"Mercado"},
			wantAmt:  []int64{-8010},
		},
		{
			name:     "unknown date and description headers fall back to first columns",
			raw:      "quando,oque,valor\n01/03/2024,Loja,\"10,00\"\n",
			wantDate: []string{"2024-03-01"},
			wantDesc: []string{"Loja"},
			wantAmt:  []int64{1000},
		},
		{
			name:     "blank description becomes placeholder",
			raw:      "data;historico;valor\n01/03/2024;   ;5,00\n",
			wantDate: []string{"2024-03-01"},
			wantDesc: []string{statement.DefaultDescription},
			wantAmt:  []int64{500},
		},
		{
			name:     "quoted description keeps delimiter",
			raw:      "data,historico,valor\n2024-03-01,\"Pix, \"\"Maria\"\"\",\"1.000,00\"\n",
			wantDate: []string{"2024-03-01"},
			wantDesc: []string{`Pix, "Maria"`},
			wantAmt:  []int64{100000},
		},
		{
			name:     "bad rows are skipped",
			raw:      "data;historico;valor\nontem;A;1,00\n01/03/2024;B;abc\n02/03/2024;C;0,00\n03/03/2024;D;3,00\n",
			wantDate: []string{"2024-03-03"},
			wantDesc: []string{"D"},
			wantAmt:  []int64{300},
		},
		{
			name:     "bom crlf and blank lines",
			raw:      "\ufeffdata;historico;valor\r\n\r\n01/03/2024;A;1,00\r\n",
			wantDate: []string{"2024-03-01"},
			wantDesc: []string{"A"},
			wantAmt:  []int64{100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := p.Parse(csvInput(tt.raw))
			require.Len(t, txs, len(tt.wantAmt))
			for i, tx := range txs {
				assert.Equal(t, tt.wantDate[i], tx.Date)
				assert.Equal(t, tt.wantDesc[i], tx.Description)
				assert.Equal(t, tt.wantAmt[i], tx.Amount)
			}
		})
	}
}

func TestCSVParser_NoAmountColumns(t *testing.T) {
	txs := NewCSVParser().Parse(csvInput("a,b,c\n01/03/2024,Loja,10\n"))
	assert.Empty(t, txs)
}

func TestCSVParser_EmptyInputs(t *testing.T) {
	p := NewCSVParser()
	for _, raw := range []string{"", "data,historico,valor", "\n\n"} {
		txs := p.Parse(csvInput(raw))
		assert.NotNil(t, txs)
		assert.Empty(t, txs)
	}
}

func TestCSVParser_Currency(t *testing.T) {
	txs := NewCSVParser(WithCurrency("usd")).Parse(csvInput("date;memo;amount\n2024-01-01;x;1,00\n"))
	require.Len(t, txs, 1)
	assert.Equal(t, "USD", txs[0].Currency)
}

func TestCSVParser_RawLine(t *testing.T) {
	txs := NewCSVParser().Parse(csvInput("data;historico;valor\n01/03/2024;Aluguel;-1.500,00  \n"))
	require.Len(t, txs, 1)
	assert.Equal(t, "01/03/2024;Aluguel;-1.500,00", txs[0].RawLine)
}

func TestCSVParser_Supports(t *testing.T) {
	p := NewCSVParser()
	assert.Equal(t, IDCSV, p.ID())
	assert.True(t, p.Supports(csvInput("")))
	assert.False(t, p.Supports(statement.ParserInput{FileType: statement.FileTypeOFX, OFXRaw: "<OFX>"}))
	assert.False(t, p.Supports(statement.ParserInput{FileType: statement.FileTypePDF, Text: "data,valor"}))
}

func TestCSVParser_GeneratedStatement(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(42)
	entries := gen.Entries(50)

	txs := NewCSVParser().Parse(csvInput(gen.CSVStatement(entries)))
	require.Len(t, txs, len(entries))

	for i, e := range entries {
		assert.Equal(t, e.ISODate(), txs[i].Date)
		assert.Equal(t, e.Description, txs[i].Description)
		assert.Equal(t, e.Cents, txs[i].Amount)
	}
}

func TestMapColumns(t *testing.T) {
	cm := mapColumns([]string{" Histórico ", "VALOR", "Data", "Débito", "credit", "Descrição"})
	assert.Equal(t, columnMap{date: 2, description: 0, amount: 1, debit: 3, credit: 4}, cm)

	fallback := mapColumns([]string{"x", "y"})
	assert.Equal(t, columnMap{date: 0, description: 1, amount: -1, debit: -1, credit: -1}, fallback)
}
