package config

const (
	defaultRecordsPath      = "data/tweets.csv"
	defaultDateColumn       = "date"
	defaultTextColumn       = "text"
	defaultSampleFraction   = 0.05
	defaultSeed             = 42
	defaultTicker           = "BTC-USD"
	defaultMarketSource     = MarketSourceYahoo
	defaultVolatilityWindow = 7
	defaultYahooBaseURL     = "https://query1.finance.yahoo.com"
	defaultTimeoutSeconds   = 30
	defaultMaxRetries       = 3
	defaultPredictor        = "sentiment_score"
	defaultTarget           = "volatility"
	defaultMaxLag           = 5
	defaultAlpha            = 0.05
	defaultOutputDir        = "output"
	defaultLogLevel         = "info"
)

// Market sources.
const (
	MarketSourceYahoo      = "yahoo"
	MarketSourceClickhouse = "clickhouse"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Records: Records{
			Path:           defaultRecordsPath,
			DateColumn:     defaultDateColumn,
			TextColumn:     defaultTextColumn,
			SampleFraction: defaultSampleFraction,
			Seed:           defaultSeed,
			CleanText:      true,
		},
		Market: Market{
			Ticker:           defaultTicker,
			Source:           defaultMarketSource,
			VolatilityWindow: defaultVolatilityWindow,
			YahooBaseURL:     defaultYahooBaseURL,
			TimeoutSeconds:   defaultTimeoutSeconds,
			MaxRetries:       defaultMaxRetries,
		},
		Causality: Causality{
			Predictor: defaultPredictor,
			Target:    defaultTarget,
			MaxLag:    defaultMaxLag,
			Alpha:     defaultAlpha,
		},
		Output: Output{
			Dir: defaultOutputDir,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
