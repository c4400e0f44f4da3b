package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta Meta `json:"meta"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// GetChart fetches the chart metadata for one symbol over the last five
// trading days.
func (c *Client) GetChart(ctx context.Context, symbol string, opts ...ClientOption) (*Meta, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is empty")
	}
	override := c.with(opts)

	query := cloneValues(override.query)
	query.Set("range", "5d")
	query.Set("interval", "1d")

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", override.baseURL, url.PathEscape(symbol), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	var body chartResponse
	if err := override.getJSON(req, &body); err != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("chart %s: %w", symbol, body.Chart.Error)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart %s: empty result: %w", symbol, ErrNotFound)
	}
	meta := body.Chart.Result[0].Meta
	return &meta, nil
}
