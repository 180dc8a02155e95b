package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/service"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
)

func sampleItems() []service.BatchItem {
	return []service.BatchItem{
		{
			FileName: "fatura.txt",
			Result: &service.Result{
				BatchID:  "b1",
				FileName: "fatura.txt",
				FileType: statement.FileTypePDF,
				Parser:   "itau-card-pdf",
				Transactions: []statement.ParsedTransaction{
					{
						Date:        "2024-12-30",
						Description: "LOJA ELETRO",
						Amount:      -30000,
						Currency:    "BRL",
						SourceType:  statement.SourceCard,
						Direction:   statement.DirectionDebit,
						Issuer:      statement.IssuerItau,
						Installment: &statement.Installment{Current: 3, Total: 10},
						Hash:        "abc",
					},
					{
						Date:        "2025-01-02",
						Description: "UBER TRIP",
						Amount:      -2590,
						Currency:    "BRL",
						SourceType:  statement.SourceCard,
						City:        "SAO PAULO",
						Category:    "Transport",
					},
				},
			},
		},
		{FileName: "notes.doc", Err: errors.New("unsupported file type")},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" CSV ", FormatCSV, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleItems()))

	var reports []FileReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &reports))
	require.Len(t, reports, 2)

	assert.Equal(t, "fatura.txt", reports[0].FileName)
	assert.Empty(t, reports[0].Error)
	require.NotNil(t, reports[0].Result)
	assert.Len(t, reports[0].Result.Transactions, 2)

	assert.Equal(t, "notes.doc", reports[1].FileName)
	assert.Equal(t, "unsupported file type", reports[1].Error)
	assert.Nil(t, reports[1].Result)

	assert.Contains(t, buf.String(), "\n  {", "output is indented")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleItems()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"file,parser,date,description,amount,amount_cents,currency,source_type,direction,issuer,installment,category,city,duplicate_in_batch,hash",
		lines[0])
	assert.Equal(t,
		"fatura.txt,itau-card-pdf,2024-12-30,LOJA ELETRO,-300.00,-30000,BRL,CARD,DEBIT,ITAU,3/10,,,false,abc",
		lines[1])
	assert.Equal(t,
		"fatura.txt,itau-card-pdf,2025-01-02,UBER TRIP,-25.90,-2590,BRL,CARD,,,,Transport,SAO PAULO,false,",
		lines[2])
}

func TestWriteCSV_NoResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []service.BatchItem{{FileName: "x", Err: errors.New("boom")}}))
	assert.True(t, strings.HasPrefix(buf.String(), "file,parser,date"))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 1)
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), nil))
}
