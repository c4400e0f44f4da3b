package quote

import "time"

// Instrument is one row of the configured symbol table.
type Instrument struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Name   string `json:"name" yaml:"name"`
}

// DefaultInstruments is the built-in symbol table. Output order follows it.
var DefaultInstruments = []Instrument{
	{Symbol: "GC=F", Name: "Gold"},
	{Symbol: "HG=F", Name: "Copper"},
	{Symbol: "LIT", Name: "Lithium(ETF)"},
	{Symbol: "NVDA", Name: "NVIDIA"},
	{Symbol: "AAPL", Name: "Apple"},
	{Symbol: "005930.KS", Name: "Samsung Elec"},
	{Symbol: "035420.KS", Name: "Naver"},
	{Symbol: "^KS11", Name: "KOSPI"},
	{Symbol: "^GSPC", Name: "S&P 500"},
	{Symbol: "KRW=X", Name: "USD/KRW"},
}

// Symbols returns the ticker codes of instruments in order.
func Symbols(instruments []Instrument) []string {
	out := make([]string, 0, len(instruments))
	for _, in := range instruments {
		out = append(out, in.Symbol)
	}
	return out
}

// Quote is a single row of the response data.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Currency      string  `json:"currency"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TimestampLayout is ISO-8601 with microseconds and a UTC offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Envelope is the success response body.
type Envelope struct {
	Timestamp string  `json:"timestamp"`
	Data      []Quote `json:"data"`
	Status    string  `json:"status"`
}

// NewEnvelope builds a success envelope stamped with now. Data is never nil so
// it encodes as [] rather than null.
func NewEnvelope(now time.Time, data []Quote) Envelope {
	if data == nil {
		data = []Quote{}
	}
	return Envelope{
		Timestamp: now.Format(TimestampLayout),
		Data:      data,
		Status:    StatusSuccess,
	}
}

// ErrorBody is the failure response body.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
