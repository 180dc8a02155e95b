// Package service provides the import orchestration logic: it types uploaded
// files, picks an extractor from the registry, fingerprints the result and
// summarizes it.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/fingerprint"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/pdftext"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/statement"
	"github.com/FACorreiaa/echo-statements/pkg/metrics"
	"github.com/FACorreiaa/echo-statements/pkg/storage"
)

var (
	ErrEmptyInput          = errors.New("input is empty")
	ErrInputTooLarge       = errors.New("input exceeds the size limit")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoParser            = parser.ErrNoParser
)

const (
	defaultMaxInputBytes = 10 << 20
	defaultWorkers       = 4
	tracerName           = "github.com/FACorreiaa/echo-statements/internal/domain/import/service"
)

// File is one uploaded statement
type File struct {
	Name string
	Data []byte
}

// Result is the outcome of parsing one file
type Result struct {
	BatchID  string             `json:"batch_id"`
	FileName string             `json:"file_name"`
	FileType statement.FileType `json:"file_type"`
	Parser   string             `json:"parser"`

	// ArchiveID names the stored upload when an archive is configured
	ArchiveID string `json:"archive_id,omitempty"`

	// Header and ReconciliationDiff are set for Itau card invoices only
	Header             *parser.ItauInvoiceHeader `json:"header,omitempty"`
	ReconciliationDiff *int64                    `json:"reconciliation_diff,omitempty"`

	Transactions []statement.ParsedTransaction `json:"transactions"`
	Stats        Stats                         `json:"stats"`
}

// BatchItem pairs a file with its result or error
type BatchItem struct {
	FileName string  `json:"file_name"`
	Result   *Result `json:"result,omitempty"`
	Err      error   `json:"-"`
}

// ImportService orchestrates file typing and extraction
type ImportService struct {
	registry      *parser.Registry
	extractor     pdftext.Extractor
	metrics       *metrics.Metrics
	index         *fingerprint.Index
	archive       storage.Storage
	maxInputBytes int64
	workers       int
	tracer        trace.Tracer
	logger        *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(registry *parser.Registry, logger *slog.Logger) *ImportService {
	return &ImportService{
		registry:      registry,
		extractor:     pdftext.New(),
		maxInputBytes: defaultMaxInputBytes,
		workers:       defaultWorkers,
		tracer:        otel.Tracer(tracerName),
		logger:        logger,
	}
}

// WithExtractor replaces the PDF renderer
func (s *ImportService) WithExtractor(e pdftext.Extractor) *ImportService {
	s.extractor = e
	return s
}

// WithMetrics records parse outcomes on m
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithIndex shares a fingerprint index across calls so re-imported
// transactions are reported as possible duplicates. Without it each file is
// checked against itself only.
func (s *ImportService) WithIndex(ix *fingerprint.Index) *ImportService {
	s.index = ix
	return s
}

// WithArchive keeps a copy of every accepted upload under its batch id.
// Archive failures are logged and never fail the parse.
func (s *ImportService) WithArchive(st storage.Storage) *ImportService {
	s.archive = st
	return s
}

// WithLimits sets the per-file size limit and the ParseBatch concurrency.
// Non-positive values keep the defaults.
func (s *ImportService) WithLimits(maxInputBytes int64, workers int) *ImportService {
	if maxInputBytes > 0 {
		s.maxInputBytes = maxInputBytes
	}
	if workers > 0 {
		s.workers = workers
	}
	return s
}

// Parse extracts, fingerprints and summarizes a single file
func (s *ImportService) Parse(ctx context.Context, file File) (*Result, error) {
	return s.parse(ctx, uuid.New().String(), file)
}

// ParseBatch parses files concurrently. Items keep the input order; a file
// that fails carries its error in the item and does not stop the others.
// The returned error is non-nil only when ctx is cancelled.
func (s *ImportService) ParseBatch(ctx context.Context, files []File) ([]BatchItem, error) {
	batchID := uuid.New().String()
	items := make([]BatchItem, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := s.parse(gctx, batchID, f)
			items[i] = BatchItem{FileName: f.Name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("batch parsed",
		slog.String("batch_id", batchID),
		slog.Int("files", len(files)),
	)
	return items, nil
}

func (s *ImportService) parse(ctx context.Context, batchID string, file File) (res *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "ImportService.Parse", trace.WithAttributes(
		attribute.String("statement.file_name", file.Name),
		attribute.Int("statement.size", len(file.Data)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	logger := s.logger.With(slog.String("batch_id", batchID), slog.String("file", file.Name))

	if len(file.Data) == 0 {
		s.metrics.ObserveParse("", metrics.OutcomeRejected, 0, 0, time.Since(start))
		return nil, fmt.Errorf("%q: %w", file.Name, ErrEmptyInput)
	}
	if int64(len(file.Data)) > s.maxInputBytes {
		s.metrics.ObserveParse("", metrics.OutcomeRejected, 0, 0, time.Since(start))
		return nil, fmt.Errorf("%q is %d bytes, limit %d: %w", file.Name, len(file.Data), s.maxInputBytes, ErrInputTooLarge)
	}

	archiveID := s.store(ctx, batchID, file, logger)

	input, err := s.BuildInput(ctx, file)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, ErrUnsupportedFileType) {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.ObserveParse("", outcome, 0, 0, time.Since(start))
		logger.Warn("could not build parser input", slog.Any("error", err))
		return nil, err
	}

	p, err := s.resolve(input, logger)
	if err != nil {
		s.metrics.ObserveParse("", metrics.OutcomeNoParser, 0, 0, time.Since(start))
		return nil, fmt.Errorf("%q: %w", file.Name, err)
	}
	span.SetAttributes(attribute.String("statement.parser", p.ID()))

	txs := p.Parse(input)

	if input.FileType == statement.FileTypeCSV {
		if code, ok := detectCurrency(input.CSVRaw); ok {
			for i := range txs {
				txs[i].Currency = code
			}
		}
	}
	txs = fingerprint.Stamp(txs)

	res = &Result{
		BatchID:      batchID,
		FileName:     file.Name,
		FileType:     input.FileType,
		Parser:       p.ID(),
		ArchiveID:    archiveID,
		Transactions: txs,
		Stats:        computeStats(txs),
	}
	s.checkDuplicates(res)
	if p.ID() == parser.IDItauCard {
		s.reconcile(res, input.Text, logger)
	}

	outcome := metrics.OutcomeOK
	if len(txs) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveParse(p.ID(), outcome, len(txs), res.Stats.DuplicatesInBatch, time.Since(start))
	span.SetAttributes(attribute.Int("statement.transactions", len(txs)))

	logger.Info("statement parsed",
		slog.String("parser", p.ID()),
		slog.String("file_type", string(input.FileType)),
		slog.Int("transactions", len(txs)),
		slog.Int("duplicates_in_batch", res.Stats.DuplicatesInBatch),
		slog.Duration("duration", time.Since(start)),
	)
	return res, nil
}

// store archives the raw upload and returns its id, or "" when archiving is
// off or failed
func (s *ImportService) store(ctx context.Context, batchID string, file File, logger *slog.Logger) string {
	if s.archive == nil {
		return ""
	}
	info, err := s.archive.Upload(ctx, batchID, file.Name, http.DetectContentType(file.Data), bytes.NewReader(file.Data))
	if err != nil {
		logger.Warn("failed to archive upload", slog.Any("error", err))
		return ""
	}
	return info.ID.String()
}

// resolve picks the extractor, honoring the registry's legacy fallback
func (s *ImportService) resolve(input statement.ParserInput, logger *slog.Logger) (statement.Parser, error) {
	p, err := s.registry.Resolve(input)
	if err == nil {
		return p, nil
	}
	if fallback := s.registry.GetBestParser(input); fallback != nil {
		logger.Warn("no parser matched, using legacy fallback", slog.String("parser", fallback.ID()))
		return fallback, nil
	}
	logger.Warn("no parser matched", slog.String("file_type", string(input.FileType)))
	return nil, err
}

// checkDuplicates looks every transaction up in the fingerprint index. It
// only reports; DuplicateInBatch stays owned by the extractors.
func (s *ImportService) checkDuplicates(res *Result) {
	ix := s.index
	if ix == nil {
		ix = fingerprint.NewIndex(fingerprint.DefaultThreshold)
	}

	var sample string
	for _, tx := range res.Transactions {
		if tx.DuplicateInBatch {
			continue
		}
		if m := ix.Observe(tx); m.Kind != fingerprint.MatchNone {
			res.Stats.PossibleDuplicates++
			if sample == "" {
				sample = tx.Description
			}
		}
	}

	if res.Stats.PossibleDuplicates > 0 {
		res.Stats.Issues = append(res.Stats.Issues, Issue{
			Type:         IssuePossibleDuplicates,
			AffectedRows: res.Stats.PossibleDuplicates,
			SampleValue:  sample,
			Suggestion:   "Review transactions with the same date and amount before saving",
		})
	}
}

// reconcile attaches the invoice header and compares its total with the
// extracted line items
func (s *ImportService) reconcile(res *Result, text string, logger *slog.Logger) {
	uncategorized := 0
	for _, tx := range res.Transactions {
		if tx.Category == "" {
			uncategorized++
		}
	}
	if uncategorized > 0 {
		res.Stats.Issues = append(res.Stats.Issues, Issue{
			Type:         IssueUncategorized,
			AffectedRows: uncategorized,
			Suggestion:   "Add merchant rules to IMPORT_CATEGORY_RULES_FILE",
		})
	}

	header := parser.ParseItauInvoiceHeader(text)
	if header == nil {
		logger.Warn("itau invoice header not found")
		return
	}
	res.Header = header

	diff := header.Reconcile(res.Transactions)
	res.ReconciliationDiff = &diff
	if diff == 0 {
		return
	}

	currency := statement.DefaultCurrency
	if len(res.Transactions) > 0 {
		currency = res.Transactions[0].Currency
	}
	res.Stats.Issues = append(res.Stats.Issues, Issue{
		Type:         IssueReconciliationMismatch,
		AffectedRows: len(res.Transactions),
		SampleValue:  header.TotalMoney(currency).String(),
		Suggestion:   "Some charges may be missing from the extracted text",
	})
	logger.Warn("invoice total does not match line items",
		slog.Int64("total", header.Total),
		slog.Int64("diff", diff),
	)
}
