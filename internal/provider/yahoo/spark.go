package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// SparkResult is the outcome for one symbol of a spark call.
type SparkResult struct {
	Symbol string
	Meta   Meta
	Err    error
}

type sparkResponse struct {
	Spark struct {
		Result []sparkEntry `json:"result"`
		Error  *apiError    `json:"error"`
	} `json:"spark"`
}

type sparkEntry struct {
	Symbol   string `json:"symbol"`
	Response []struct {
		Meta *Meta `json:"meta"`
	} `json:"response"`
}

// GetSpark fetches metadata for many symbols in a single request.
// Symbols missing from the payload are simply absent from the result; entries
// the payload carries without metadata come back with Err set.
func (c *Client) GetSpark(ctx context.Context, symbols []string, opts ...ClientOption) ([]SparkResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols is empty")
	}
	override := c.with(opts)

	query := cloneValues(override.query)
	query.Set("symbols", strings.Join(symbols, ","))
	query.Set("range", "1d")
	query.Set("interval", "1d")

	url := fmt.Sprintf("%s/v7/finance/spark?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	var body sparkResponse
	if err := override.getJSON(req, &body); err != nil {
		return nil, fmt.Errorf("spark: %w", err)
	}
	if body.Spark.Error != nil {
		return nil, fmt.Errorf("spark: %w", body.Spark.Error)
	}

	out := make([]SparkResult, 0, len(body.Spark.Result))
	for _, e := range body.Spark.Result {
		r := SparkResult{Symbol: e.Symbol}
		if len(e.Response) == 0 || e.Response[0].Meta == nil {
			r.Err = fmt.Errorf("no metadata for %s: %w", e.Symbol, ErrNotFound)
		} else {
			r.Meta = *e.Response[0].Meta
		}
		out = append(out, r)
	}
	return out, nil
}
