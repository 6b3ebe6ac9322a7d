package market

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Chip is the display model of one ticker.
type Chip struct {
	Pair       string  `json:"pair"`
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change_percent"`
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	RangePct   float64 `json:"range_pct"`
	Up         bool    `json:"up"`
	PriceText  string  `json:"price_text"`
	ChangeText string  `json:"change_text"`
	LowText    string  `json:"low_text"`
	HighText   string  `json:"high_text"`
}

// Board is the full market strip. Error is set when the last poll failed;
// the chips still carry the last good or fallback values.
type Board struct {
	Chips     []Chip `json:"chips"`
	Live      bool   `json:"live"`
	UpdatedAt string `json:"updated_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

var fallback = map[string]Ticker{
	"BTCUSDT":  {Symbol: "BTCUSDT", LastPrice: 67342.15, ChangePercent: 1.8, LowPrice: 66210, HighPrice: 67550},
	"ETHUSDT":  {Symbol: "ETHUSDT", LastPrice: 3589.6, ChangePercent: -0.7, LowPrice: 3548, HighPrice: 3666},
	"SOLUSDT":  {Symbol: "SOLUSDT", LastPrice: 176.24, ChangePercent: 3.8, LowPrice: 169.2, HighPrice: 178.3},
	"TONUSDT":  {Symbol: "TONUSDT", LastPrice: 7.46, ChangePercent: 0.9, LowPrice: 7.12, HighPrice: 7.68},
	"AVAXUSDT": {Symbol: "AVAXUSDT", LastPrice: 39.12, ChangePercent: -1.2, LowPrice: 38.5, HighPrice: 40.1},
}

// Fallback returns the placeholder tickers shown before the first
// successful poll.
func Fallback() map[string]Ticker {
	out := make(map[string]Ticker, len(fallback))
	for k, v := range fallback {
		out[k] = v
	}
	return out
}

// Chips builds one chip per symbol, in order. A symbol missing from tickers
// uses its fallback values, or zeros when it has none.
func Chips(symbols []string, tickers map[string]Ticker) []Chip {
	chips := make([]Chip, 0, len(symbols))
	for _, symbol := range symbols {
		t, ok := tickers[symbol]
		if !ok {
			t = fallback[symbol]
		}
		chips = append(chips, NewChip(symbol, t))
	}
	return chips
}

// NewChip builds the chip for pair from t.
func NewChip(pair string, t Ticker) Chip {
	return Chip{
		Pair:       pair,
		Symbol:     ShortSymbol(pair),
		Price:      t.LastPrice,
		Change:     t.ChangePercent,
		Low:        t.LowPrice,
		High:       t.HighPrice,
		RangePct:   RangePercent(t.LastPrice, t.LowPrice, t.HighPrice),
		Up:         t.ChangePercent >= 0,
		PriceText:  FormatUSD(t.LastPrice),
		ChangeText: FormatChange(t.ChangePercent),
		LowText:    FormatUSD(t.LowPrice),
		HighText:   FormatUSD(t.HighPrice),
	}
}

// ShortSymbol drops the USDT quote from a pair.
func ShortSymbol(pair string) string {
	return strings.TrimSuffix(pair, "USDT")
}

// RangePercent places price within [low, high] as 0 to 100.
func RangePercent(price, low, high float64) float64 {
	pct := (price - low) / math.Max(1e-9, high-low) * 100
	return math.Min(100, math.Max(0, pct))
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders v as dollars with grouping and two decimals.
func FormatUSD(v float64) string {
	if v < 0 {
		return "-$" + usd.Sprintf("%.2f", -v)
	}
	return "$" + usd.Sprintf("%.2f", v)
}

// FormatChange renders a percentage change with an explicit sign when
// non-negative.
func FormatChange(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}
