package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPBasket fetches one basket's metrics from a JSON-over-HTTP basket
// service (one service per basket category).
type HTTPBasket struct {
	name     string
	endpoint string
	client   *http.Client
}

// NewHTTPBasket creates a basket adapter for the service at endpoint.
func NewHTTPBasket(name, endpoint string) *HTTPBasket {
	return &HTTPBasket{
		name:     name,
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

func (b *HTTPBasket) Name() string { return b.name }

// Fetch retrieves the basket payload for company. The body is passed
// through as raw JSON; basket payload shapes differ per category and
// are interpreted downstream.
func (b *HTTPBasket) Fetch(ctx context.Context, company Company) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("company", company.Name)
	if company.Ticker != "" {
		q.Set("ticker", company.Ticker)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s basket: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s basket returned %d", b.name, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s basket response: %w", b.name, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s basket returned invalid JSON", b.name)
	}
	return json.RawMessage(data), nil
}
