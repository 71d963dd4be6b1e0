package quickbooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Entity is a queryable QuickBooks record type.
type Entity string

const (
	EntityBill     Entity = "Bill"
	EntityCustomer Entity = "Customer"
)

// Valid reports whether e is one of the supported entities.
func (e Entity) Valid() bool {
	return e == EntityBill || e == EntityCustomer
}

// BuildPageQuery renders the provider's pagination query for one page.
func BuildPageQuery(entity Entity, startPosition, maxResults int) (string, error) {
	if !entity.Valid() {
		return "", fmt.Errorf("unsupported entity %q", entity)
	}
	if startPosition < 1 {
		return "", fmt.Errorf("start position must be >= 1, got %d", startPosition)
	}
	if maxResults < 1 {
		return "", fmt.Errorf("max results must be >= 1, got %d", maxResults)
	}
	return fmt.Sprintf("SELECT * FROM %s STARTPOSITION %d MAXRESULTS %d", entity, startPosition, maxResults), nil
}

// QueryClient posts page queries to the company's query endpoint.
type QueryClient struct {
	APIBaseURL string
	RealmID    string
	HTTPClient *http.Client
}

// NewQueryClient creates a query client for cfg.
func NewQueryClient(cfg Config) *QueryClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &QueryClient{
		APIBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		RealmID:    cfg.RealmID,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type queryEnvelope struct {
	QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
}

// FetchPage returns the raw records of one page, which is empty once the
// stream is past its last record. It never retries.
func (c *QueryClient) FetchPage(ctx context.Context, entity Entity, startPosition, maxResults int, accessToken string) ([]json.RawMessage, error) {
	query, err := BuildPageQuery(entity, startPosition, maxResults)
	if err != nil {
		return nil, &RemoteFetchError{Entity: entity, StartPosition: startPosition, Err: err}
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrNotAuthenticated
	}

	fail := func(status int, err error) error {
		return &RemoteFetchError{Entity: entity, StartPosition: startPosition, StatusCode: status, Err: err}
	}

	endpoint := fmt.Sprintf("%s/%s/query", c.APIBaseURL, c.RealmID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/text")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fail(resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fail(resp.StatusCode, fmt.Errorf("body=%s", strings.TrimSpace(string(body))))
	}

	var env queryEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	raw, ok := env.QueryResponse[string(entity)]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return []json.RawMessage{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode %s list: %w", entity, err))
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// IsTimeout reports whether err was caused by a deadline or client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
