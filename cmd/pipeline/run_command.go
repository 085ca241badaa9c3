package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sentiment-lab/internal/aggregation"
	"sentiment-lab/internal/causality"
	"sentiment-lab/internal/config"
	"sentiment-lab/internal/domain"
	"sentiment-lab/internal/ingestion"
	"sentiment-lab/internal/logger"
	"sentiment-lab/internal/observability"
	"sentiment-lab/internal/orchestrator"
	"sentiment-lab/internal/pipeline"
	"sentiment-lab/internal/reporting"
	"sentiment-lab/internal/sentiment"
)

// runFlags mirror config keys; only flags set on the command line override.
type runFlags struct {
	records       string
	from          string
	to            string
	ticker        string
	marketSource  string
	sampleFrac    float64
	maxLag        int
	alpha         float64
	predictor     string
	target        string
	outputDir     string
	metricsFile   string
	useFixtures   bool
	postgresDSN   string
	clickhouseDSN string
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and write reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logger.New(logger.Config{
				Level:  cfg.Logging.Level,
				Pretty: cfg.Logging.Pretty,
				Output: cmd.ErrOrStderr(),
			})
			return runPipeline(runCtx, cmd, cfg, log)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.records, "records", "", "Path to the text records CSV")
	f.StringVar(&flags.from, "from", "", "First record day to include (YYYY-MM-DD)")
	f.StringVar(&flags.to, "to", "", "Last record day to include (YYYY-MM-DD)")
	f.StringVar(&flags.ticker, "ticker", "", "Market ticker")
	f.StringVar(&flags.marketSource, "market-source", "", "Market data source: yahoo or clickhouse")
	f.Float64Var(&flags.sampleFrac, "sample-frac", 0, "Fraction of records to sample, in (0, 1]")
	f.IntVar(&flags.maxLag, "max-lag", 0, "Largest lag to test")
	f.Float64Var(&flags.alpha, "alpha", 0, "Significance level")
	f.StringVar(&flags.predictor, "predictor", "", "Predictor column")
	f.StringVar(&flags.target, "target", "", "Target column")
	f.StringVar(&flags.outputDir, "output-dir", "", "Output directory for generated files")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.BoolVar(&flags.useFixtures, "use-fixtures", false, "Use built-in deterministic fixtures instead of real sources")
	f.StringVar(&flags.postgresDSN, "postgres-dsn", "", "Read text records from PostgreSQL")
	f.StringVar(&flags.clickhouseDSN, "clickhouse-dsn", "", "Read daily bars from ClickHouse (implies --market-source clickhouse)")

	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) {
	changed := cmd.Flags().Changed
	if changed("records") {
		cfg.Records.Path = flags.records
	}
	if changed("from") {
		cfg.Records.Start = flags.from
	}
	if changed("to") {
		cfg.Records.End = flags.to
	}
	if changed("ticker") {
		cfg.Market.Ticker = flags.ticker
	}
	if changed("market-source") {
		cfg.Market.Source = flags.marketSource
	}
	if changed("sample-frac") {
		cfg.Records.SampleFraction = flags.sampleFrac
	}
	if changed("max-lag") {
		cfg.Causality.MaxLag = flags.maxLag
	}
	if changed("alpha") {
		cfg.Causality.Alpha = flags.alpha
	}
	if changed("predictor") {
		cfg.Causality.Predictor = flags.predictor
	}
	if changed("target") {
		cfg.Causality.Target = flags.target
	}
	if changed("output-dir") {
		cfg.Output.Dir = flags.outputDir
	}
	if changed("metrics-file") {
		cfg.Output.MetricsFile = flags.metricsFile
	}
	if changed("use-fixtures") {
		cfg.UseFixtures = flags.useFixtures
	}
	if changed("postgres-dsn") {
		cfg.Storage.PostgresDSN = flags.postgresDSN
	}
	if changed("clickhouse-dsn") {
		cfg.Storage.ClickhouseDSN = flags.clickhouseDSN
		if !changed("market-source") {
			cfg.Market.Source = config.MarketSourceClickhouse
		}
	}
}

func runPipeline(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log zerolog.Logger) (err error) {
	metrics := observability.NewMetrics(observability.DefaultNamespace)
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		metrics.RecordPipelineRun(status, time.Now().Unix())
		if cfg.Output.MetricsFile != "" {
			if werr := metrics.WriteToTextfile(cfg.Output.MetricsFile); werr != nil {
				log.Error().Err(werr).Msg("failed to write metrics")
			}
		}
	}()

	src, err := openSources(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer src.close()

	// Config was validated, so the fields parse.
	predictor, _ := domain.ParseField(cfg.Causality.Predictor)
	target, _ := domain.ParseField(cfg.Causality.Target)

	scorer := sentiment.NewScorer(sentiment.NewVaderAnalyzer(), sentiment.WithCleaning(cfg.Records.CleanText))
	orch := orchestrator.New(orchestrator.Options{
		RecordSource:     src.records,
		PriceSource:      src.prices,
		Aggregator:       aggregation.NewAggregator(scorer, aggregation.WithWorkers(cfg.Records.Workers), aggregation.WithLogger(log)),
		Tester:           causality.NewTester(causality.WithLogger(log)),
		Ticker:           cfg.Market.Ticker,
		VolatilityWindow: cfg.Market.VolatilityWindow,
		MaxLag:           cfg.Causality.MaxLag,
		Alpha:            cfg.Causality.Alpha,
		Predictor:        predictor,
		Target:           target,
		Logger:           &log,
		Metrics:          metrics,
	})

	result, runErr := orch.Run(ctx)
	if result == nil {
		return runErr
	}
	if runErr != nil && !isDataShortage(runErr) {
		return runErr
	}

	logLoadStats(log, src.records)

	rp := pipeline.NewReportPipeline(cfg.Output.Dir).
		WithDataSource(src.dataSource).
		WithLogger(log)
	outcome, err := rp.Run(ctx, result)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, reporting.RenderConsole(result.Predictor, result.Target, outcome.Report.Causality))
	fmt.Fprintf(out, "\nDecision: %s\n", outcome.Decision.Decision)
	fmt.Fprintf(out, "Run ID:   %s\n\n", outcome.Report.RunID)
	for _, f := range outcome.Files {
		fmt.Fprintf(out, "  - %s\n", f)
	}

	// Reports for a short run are written, but the run still fails.
	return runErr
}

func isDataShortage(err error) bool {
	return errors.Is(err, orchestrator.ErrNoRecords) ||
		errors.Is(err, orchestrator.ErrNoMarketData) ||
		errors.Is(err, orchestrator.ErrNoOverlap)
}

// logLoadStats warns about CSV rows that were read but could not be used.
func logLoadStats(log zerolog.Logger, src ingestion.RecordSource) {
	csvSrc, ok := src.(*ingestion.CSVRecordSource)
	if !ok {
		return
	}
	stats := csvSrc.Stats()
	if stats.Malformed > 0 || stats.BadDates > 0 {
		log.Warn().
			Int("rows", stats.Rows).
			Int("malformed", stats.Malformed).
			Int("bad_dates", stats.BadDates).
			Msg("skipped unusable csv rows")
	}
}
