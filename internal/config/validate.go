package config

import (
	"errors"
	"fmt"

	"sentiment-lab/internal/domain"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRecords(); err != nil {
		return err
	}
	if err := c.validateMarket(); err != nil {
		return err
	}
	if err := c.validateCausality(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir must be set")
	}
	return nil
}

func (c *Config) validateRecords() error {
	if !c.UseFixtures && c.Records.Path == "" && c.Storage.PostgresDSN == "" {
		return errors.New("records.path or storage.postgres_dsn must be set")
	}
	if !(c.Records.SampleFraction > 0 && c.Records.SampleFraction <= 1) {
		return errors.New("records.sample_fraction must be in (0, 1]")
	}
	if c.Records.DateColumn == "" || c.Records.TextColumn == "" {
		return errors.New("records.date_column and records.text_column must be set")
	}
	if c.Records.Workers < 0 {
		return errors.New("records.workers must be >= 0")
	}
	start, end, err := c.Records.Window()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("records.end %s is before records.start %s", c.Records.End, c.Records.Start)
	}
	return nil
}

func (c *Config) validateMarket() error {
	if c.Market.Ticker == "" {
		return errors.New("market.ticker must be set")
	}
	switch c.Market.Source {
	case MarketSourceYahoo:
		if c.Market.YahooBaseURL == "" {
			return errors.New("market.yahoo_base_url must be set for the yahoo source")
		}
	case MarketSourceClickhouse:
		if !c.UseFixtures && c.Storage.ClickhouseDSN == "" {
			return errors.New("storage.clickhouse_dsn must be set for the clickhouse source")
		}
	default:
		return fmt.Errorf("market.source must be %q or %q, got %q", MarketSourceYahoo, MarketSourceClickhouse, c.Market.Source)
	}
	if c.Market.VolatilityWindow < 2 {
		return errors.New("market.volatility_window must be >= 2")
	}
	if c.Market.TimeoutSeconds <= 0 {
		return errors.New("market.timeout_seconds must be positive")
	}
	if c.Market.MaxRetries < 0 {
		return errors.New("market.max_retries must be >= 0")
	}
	return nil
}

func (c *Config) validateCausality() error {
	predictor, err := domain.ParseField(c.Causality.Predictor)
	if err != nil {
		return fmt.Errorf("causality.predictor: %w", err)
	}
	target, err := domain.ParseField(c.Causality.Target)
	if err != nil {
		return fmt.Errorf("causality.target: %w", err)
	}
	if predictor == target {
		return errors.New("causality.predictor and causality.target must differ")
	}
	if c.Causality.MaxLag < 1 {
		return errors.New("causality.max_lag must be >= 1")
	}
	if !(c.Causality.Alpha > 0 && c.Causality.Alpha < 1) {
		return errors.New("causality.alpha must be in (0, 1)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}
