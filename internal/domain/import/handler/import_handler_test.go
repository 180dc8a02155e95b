package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/pdftext"
	importservice "github.com/FACorreiaa/echo-statements/internal/domain/import/service"
	"github.com/FACorreiaa/echo-statements/pkg/logger"
)

const bankCSV = "data;descricao;valor\n2024-01-15;Coffee;-150000\n2024-01-16;Salary;20000\n"

type parseResponse struct {
	BatchID      string `json:"batch_id"`
	Parser       string `json:"parser"`
	Header       any    `json:"header"`
	Transactions []struct {
		Date   string `json:"date"`
		Amount int64  `json:"amount"`
		Hash   string `json:"hash"`
	} `json:"transactions"`
	Stats struct {
		Transactions int   `json:"transactions"`
		Income       int64 `json:"income"`
	} `json:"stats"`
}

func newTestMux(maxBytes int64) *http.ServeMux {
	svc := importservice.NewImportService(parser.NewDefaultRegistry(nil), logger.Discard())
	mux := http.NewServeMux()
	NewImportHandler(svc, maxBytes, logger.Discard()).Register(mux)
	return mux
}

func TestParseStatement(t *testing.T) {
	mux := newTestMux(1 << 20)

	req := httptest.NewRequest(http.MethodPost, "/v1/statements/parse?name=extrato.csv", strings.NewReader(bankCSV))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body parseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.BatchID)
	assert.Equal(t, body.BatchID, rec.Header().Get("X-Batch-Id"))
	assert.Equal(t, parser.IDCSV, body.Parser)
	assert.Nil(t, body.Header)
	require.Len(t, body.Transactions, 2)
	assert.Equal(t, "2024-01-15", body.Transactions[0].Date)
	assert.Equal(t, int64(-150000), body.Transactions[0].Amount)
	assert.Len(t, body.Transactions[0].Hash, 64)
	assert.Equal(t, 2, body.Stats.Transactions)
	assert.Equal(t, int64(20000), body.Stats.Income)
}

func TestParseStatement_FileNameHeader(t *testing.T) {
	mux := newTestMux(1 << 20)

	req := httptest.NewRequest(http.MethodPost, "/v1/statements/parse", strings.NewReader(bankCSV))
	req.Header.Set("X-File-Name", "extrato.csv")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseStatement_Errors(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		target   string
		body     string
		want     int
	}{
		{"missing name", 1 << 20, "/v1/statements/parse", bankCSV, http.StatusBadRequest},
		{"empty body", 1 << 20, "/v1/statements/parse?name=a.csv", "", http.StatusBadRequest},
		{"too large", 16, "/v1/statements/parse?name=a.csv", bankCSV, http.StatusRequestEntityTooLarge},
		{"unsupported type", 1 << 20, "/v1/statements/parse?name=notes.doc", "hello", http.StatusUnsupportedMediaType},
		{"broken pdf", 1 << 20, "/v1/statements/parse?name=scan.pdf", "%PDF-garbage", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(tt.maxBytes)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body)))

			assert.Equal(t, tt.want, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestParseStatement_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(1 << 20)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/statements/parse", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	mux := newTestMux(1 << 20)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{importservice.ErrEmptyInput, http.StatusBadRequest},
		{fmt.Errorf("x: %w", importservice.ErrInputTooLarge), http.StatusRequestEntityTooLarge},
		{importservice.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{fmt.Errorf("a.ofx: %w", importservice.ErrNoParser), http.StatusUnprocessableEntity},
		{pdftext.ErrNoText, http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
