package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sentiment-lab/internal/config"
	"sentiment-lab/internal/ingestion"
	"sentiment-lab/internal/marketdata"
	"sentiment-lab/internal/pipeline"
	chstore "sentiment-lab/internal/storage/clickhouse"
	"sentiment-lab/internal/storage/memory"
	"sentiment-lab/internal/storage/postgres"
)

// sources holds the record and price sources for one run and releases
// their connections on close.
type sources struct {
	records    ingestion.RecordSource
	prices     ingestion.PriceSource
	dataSource string
	closers    []func()
}

func (s *sources) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openSources picks the sources from configuration: fixtures replace both;
// otherwise records come from Postgres when a DSN is set, else the CSV file,
// and prices come from ClickHouse or the Yahoo chart API.
func openSources(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sources, error) {
	start, end, err := cfg.Records.Window()
	if err != nil {
		return nil, err
	}
	if !start.IsZero() || !end.IsZero() {
		log.Info().Str("start", cfg.Records.Start).Str("end", cfg.Records.End).Msg("restricting text records to window")
	}

	if cfg.UseFixtures {
		return openFixtures(ctx, cfg, start, end)
	}

	s := &sources{dataSource: pipeline.DataSourceCSV}

	if cfg.Storage.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		s.records = ingestion.NewStoreRecordSource(postgres.NewTextRecordStore(pool)).WithWindow(start, end)
		s.dataSource = pipeline.DataSourceDB
		log.Info().Msg("reading text records from postgres")
	} else {
		s.records = ingestion.NewCSVRecordSource(cfg.Records.Path,
			ingestion.WithColumns(cfg.Records.DateColumn, cfg.Records.TextColumn),
			ingestion.WithSample(cfg.Records.SampleFraction, cfg.Records.Seed),
			ingestion.WithCSVWindow(start, end),
			ingestion.WithCSVLogger(log),
		)
		log.Info().Str("path", cfg.Records.Path).Msg("reading text records from csv")
	}

	switch cfg.Market.Source {
	case config.MarketSourceClickhouse:
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })
		s.prices = ingestion.NewStorePriceSource(chstore.NewPriceBarStore(conn))
		s.dataSource = pipeline.DataSourceDB
		log.Info().Msg("reading daily bars from clickhouse")
	default:
		s.prices = marketdata.NewYahooClient(
			marketdata.WithBaseURL(cfg.Market.YahooBaseURL),
			marketdata.WithTimeout(time.Duration(cfg.Market.TimeoutSeconds)*time.Second),
			marketdata.WithMaxRetries(cfg.Market.MaxRetries),
			marketdata.WithLogger(log),
		)
		log.Info().Str("base_url", cfg.Market.YahooBaseURL).Msg("reading daily bars from yahoo")
	}

	return s, nil
}

func openFixtures(ctx context.Context, cfg *config.Config, start, end time.Time) (*sources, error) {
	records := memory.NewTextRecordStore()
	bars := memory.NewPriceBarStore()
	if err := pipeline.LoadFixtures(ctx, records, bars, cfg.Market.Ticker); err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	return &sources{
		records:    ingestion.NewStoreRecordSource(records).WithWindow(start, end),
		prices:     ingestion.NewStorePriceSource(bars),
		dataSource: pipeline.DataSourceFixtures,
	}, nil
}
