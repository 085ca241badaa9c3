package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sentiment-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultBackoffMult  = 2.0
)

// ErrChart is returned when the chart API reports an error payload.
var ErrChart = errors.New("yahoo chart error")

// YahooClient fetches daily bars from the Yahoo Finance v8 chart API.
type YahooClient struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	log         zerolog.Logger
}

// ClientOption configures YahooClient.
type ClientOption func(*YahooClient)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) ClientOption {
	return func(c *YahooClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *YahooClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *YahooClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *YahooClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *YahooClient) {
		c.client = client
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *YahooClient) {
		c.log = log.With().Str("client", "yahoo").Logger()
	}
}

// NewYahooClient creates a chart API client.
func NewYahooClient(opts ...ClientOption) *YahooClient {
	c := &YahooClient{
		baseURL:     DefaultYahooBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chartResponse mirrors the subset of the chart payload we read.
// Price arrays hold nulls for missing sessions, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol       string `json:"symbol"`
				ExchangeTZ   string `json:"exchangeTimezoneName"`
				GMTOffsetSec int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyBars fetches daily bars for ticker with open time in [start, end].
// Bar dates carry the exchange zone reported by the API when it is known.
func (c *YahooClient) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]*domain.PriceBar, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("events", "history")
	params.Set("includeAdjustedClose", "true")

	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker) + "?" + params.Encode()

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal chart response: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrChart, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		c.log.Warn().Str("ticker", ticker).Msg("no chart result returned")
		return []*domain.PriceBar{}, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		c.log.Warn().Str("ticker", ticker).Msg("no quote data in response")
		return []*domain.PriceBar{}, nil
	}
	quote := result.Indicators.Quote[0]

	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	loc := time.UTC
	if result.Meta.ExchangeTZ != "" {
		if l, err := time.LoadLocation(result.Meta.ExchangeTZ); err == nil {
			loc = l
		}
	}

	bars := make([]*domain.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := &domain.PriceBar{
			Ticker:   ticker,
			Date:     time.Unix(ts, 0).In(loc),
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    at(quote.Close, i),
			AdjClose: at(adj, i),
			Volume:   at(quote.Volume, i),
		}
		if bar.EffectiveClose() <= 0 {
			continue
		}
		bars = append(bars, bar)
	}

	c.log.Info().Str("ticker", ticker).Int("bars", len(bars)).Msg("fetched daily bars")
	return bars, nil
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

// get performs a GET with retries and exponential backoff.
// 4xx responses other than 429 are not retried.
func (c *YahooClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
			c.log.Debug().Int("attempt", attempt).Err(lastErr).Msg("retrying chart request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; sentiment-lab)")
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		default:
			// Chart errors arrive as 4xx with a JSON body.
			var chartErr chartResponse
			if json.Unmarshal(body, &chartErr) == nil && chartErr.Chart.Error != nil {
				return nil, fmt.Errorf("%w: %s: %s", ErrChart, chartErr.Chart.Error.Code, chartErr.Chart.Error.Description)
			}
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
