package yahoo_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// jsonResponse encodes v as a response body with the given status.
func jsonResponse(t *testing.T, status int, v any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(v))
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(buffer),
	}
}

// sparkPayload builds a spark body; each entry maps symbol -> [price, previousClose, currency].
func sparkPayload(entries map[string][3]any) map[string]any {
	result := make([]any, 0, len(entries))
	for sym, e := range entries {
		result = append(result, map[string]any{
			"symbol": sym,
			"response": []any{
				map[string]any{
					"meta": map[string]any{
						"symbol":             sym,
						"regularMarketPrice": e[0],
						"previousClose":      e[1],
						"chartPreviousClose": e[1],
						"currency":           e[2],
					},
				},
			},
		})
	}
	return map[string]any{"spark": map[string]any{"result": result, "error": nil}}
}

// chartPayload builds a chart body for one symbol.
func chartPayload(sym string, price, prev any, currency string) map[string]any {
	return map[string]any{
		"chart": map[string]any{
			"result": []any{
				map[string]any{
					"meta": map[string]any{
						"symbol":             sym,
						"regularMarketPrice": price,
						"chartPreviousClose": prev,
						"currency":           currency,
					},
				},
			},
			"error": nil,
		},
	}
}
