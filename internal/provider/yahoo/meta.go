package yahoo

import "marketquotes/internal/provider"

// Meta is the per-symbol metadata block shared by the chart and spark payloads.
//
//	"meta": {
//	  "currency": "USD",
//	  "symbol": "NVDA",
//	  "regularMarketPrice": 140.2,
//	  "chartPreviousClose": 142.5,
//	  "previousClose": 142.5,
//	  "regularMarketTime": 1735851600
//	}
type Meta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreviousClose      *float64 `json:"previousClose"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	RegularMarketTime  int64    `json:"regularMarketTime"`
}

// FastInfo converts meta into a snapshot. previousClose is preferred; the
// chart-range previous close is used when Yahoo omits it.
func (m Meta) FastInfo() provider.FastInfo {
	fi := provider.FastInfo{Currency: m.Currency}
	if m.RegularMarketPrice != nil {
		fi.LastPrice = *m.RegularMarketPrice
	}
	switch {
	case m.PreviousClose != nil && *m.PreviousClose != 0:
		fi.PreviousClose = *m.PreviousClose
	case m.ChartPreviousClose != nil:
		fi.PreviousClose = *m.ChartPreviousClose
	}
	return fi
}
