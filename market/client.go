// Package market polls a public 24h ticker API and turns the result into
// price chips.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Binance REST endpoint.
const DefaultBaseURL = "https://api.binance.com"

const tickerPath = "/api/v3/ticker/24hr"

// DefaultSymbols are the USDT pairs shown on the site.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT", "BNBUSDT"}

// Ticker is the 24h statistics for one trading pair.
type Ticker struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"last_price"`
	ChangePercent float64 `json:"change_percent"`
	LowPrice      float64 `json:"low_price"`
	HighPrice     float64 `json:"high_price"`
}

// PriceFetchError reports an unreachable API, a non-200 status or a body of
// the wrong shape.
type PriceFetchError struct {
	StatusCode int
	Err        error
}

func (e *PriceFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("price fetch failed with HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("price fetch failed: %v", e.Err)
}

func (e *PriceFetchError) Unwrap() error {
	return e.Err
}

// Client reads ticker statistics.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient gets a default
// with a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// wireTicker mirrors the API payload, where numbers arrive as strings.
type wireTicker struct {
	Symbol             string     `json:"symbol"`
	LastPrice          flexNumber `json:"lastPrice"`
	PriceChangePercent flexNumber `json:"priceChangePercent"`
	LowPrice           flexNumber `json:"lowPrice"`
	HighPrice          flexNumber `json:"highPrice"`
}

// flexNumber accepts a JSON number or a numeric string.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	*n = flexNumber(f)
	return nil
}

// Fetch returns the tickers for symbols keyed by symbol. Every failure is a
// *PriceFetchError.
func (c *Client) Fetch(ctx context.Context, symbols []string) (map[string]Ticker, error) {
	symbolsJSON, err := json.Marshal(symbols)
	if err != nil {
		return nil, &PriceFetchError{Err: err}
	}
	target := c.baseURL + tickerPath + "?" + url.Values{"symbols": {string(symbolsJSON)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &PriceFetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PriceFetchError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &PriceFetchError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &PriceFetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &PriceFetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response")}
	}

	var wire []wireTicker
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &PriceFetchError{StatusCode: resp.StatusCode, Err: err}
	}

	tickers := make(map[string]Ticker, len(wire))
	for _, w := range wire {
		if w.Symbol == "" {
			continue
		}
		tickers[w.Symbol] = Ticker{
			Symbol:        w.Symbol,
			LastPrice:     float64(w.LastPrice),
			ChangePercent: float64(w.PriceChangePercent),
			LowPrice:      float64(w.LowPrice),
			HighPrice:     float64(w.HighPrice),
		}
	}
	return tickers, nil
}
