// Command importer parses statement files from disk and prints the
// normalized transactions as JSON or CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/FACorreiaa/echo-statements/internal/domain/import/fingerprint"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/output"
	"github.com/FACorreiaa/echo-statements/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/echo-statements/internal/domain/import/service"
	"github.com/FACorreiaa/echo-statements/pkg/config"
	"github.com/FACorreiaa/echo-statements/pkg/logger"
	"github.com/FACorreiaa/echo-statements/pkg/money"
)

const version = "0.1.0"

var errFilesFailed = errors.New("some files could not be parsed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return
	}
	ui{w: os.Stderr}.Error(err.Error())
	os.Exit(1)
}

type options struct {
	format         output.Format
	out            string
	currency       string
	rules          string
	workers        int
	legacyFallback bool
	verbose        bool
	files          []string
}

func parseFlags(args []string, stderr io.Writer, cfg *config.Config) (*options, error) {
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		format      = fs.String("format", string(output.FormatJSON), "Output format: json or csv")
		out         = fs.String("out", "", "Output file (default: stdout)")
		currency    = fs.String("currency", cfg.Import.DefaultCurrency, "ISO-4217 currency stamped on transactions")
		rules       = fs.String("rules", cfg.Import.CategoryRulesFile, "YAML merchant rules file")
		workers     = fs.Int("workers", cfg.Import.Workers, "Files parsed concurrently")
		legacy      = fs.Bool("legacy-fallback", cfg.Import.LegacyFallback, "Use the first parser when none matches")
		verbose     = fs.Bool("verbose", false, "Log parser decisions to stderr")
		showVersion = fs.Bool("version", false, "Show version")
	)
	fs.Usage = func() {
		fmt.Fprint(stderr, `importer - statement parser

Usage:
  importer [flags] files...

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprint(stderr, `
Examples:
  importer extrato.csv fatura.pdf
  importer -format csv -out all.csv statements/*.ofx
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *showVersion {
		fmt.Fprintf(stderr, "importer version %s\n", version)
		return nil, flag.ErrHelp
	}

	f, err := output.ParseFormat(*format)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(*currency))
	if !money.IsKnownCurrency(code) {
		return nil, fmt.Errorf("unknown currency %q", *currency)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, errors.New("at least one file is required")
	}

	return &options{
		format:         f,
		out:            *out,
		currency:       code,
		rules:          *rules,
		workers:        *workers,
		legacyFallback: *legacy,
		verbose:        *verbose,
		files:          fs.Args(),
	}, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts, err := parseFlags(args, stderr, cfg)
	if err != nil {
		return err
	}
	u := ui{w: stderr}

	log := logger.Discard()
	if opts.verbose {
		log = logger.New(cfg.Log.Level, cfg.Log.Format, stderr)
	}

	overrides, err := normalizer.NewOverrideStore(opts.rules).Load()
	if err != nil {
		return err
	}
	registry := parser.NewDefaultRegistry(
		[]parser.Option{
			parser.WithCurrency(opts.currency),
			parser.WithMerchants(normalizer.NewMerchantSanitizer(overrides...)),
		},
		parser.WithLegacyFallback(opts.legacyFallback),
	)
	svc := importservice.NewImportService(registry, log).
		WithLimits(cfg.Import.MaxInputBytes, opts.workers).
		WithIndex(fingerprint.NewIndex(fingerprint.DefaultThreshold))

	files := make([]importservice.File, 0, len(opts.files))
	for _, path := range opts.files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, importservice.File{Name: path, Data: data})
	}

	u.Header("Parsing Statements")
	items, err := svc.ParseBatch(ctx, files)
	if err != nil {
		return err
	}
	failed := summarize(u, items)

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("failed to create output file %s: %w", opts.out, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close output file %s: %w", opts.out, closeErr)
			}
		}()
		w = f
	}
	if err := output.Write(w, opts.format, items); err != nil {
		return err
	}
	if opts.out != "" {
		u.Success(fmt.Sprintf("Wrote %s", opts.out))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(items), errFilesFailed)
	}
	return nil
}

// summarize prints one line per file and returns how many failed
func summarize(u ui, items []importservice.BatchItem) int {
	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			u.Error(item.Err.Error())
			continue
		}

		res := item.Result
		u.Success(fmt.Sprintf("%s: %d transactions (%s)", item.FileName, res.Stats.Transactions, res.Parser))
		if res.Stats.DuplicatesInBatch > 0 {
			u.Info(fmt.Sprintf("%d installment echoes flagged", res.Stats.DuplicatesInBatch))
		}
		for _, issue := range res.Stats.Issues {
			u.Warning(fmt.Sprintf("%s (%d rows): %s", issue.Type, issue.AffectedRows, issue.Suggestion))
		}
	}
	return failed
}
