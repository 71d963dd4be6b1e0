package quickbooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPageQuery(t *testing.T) {
	q, err := BuildPageQuery(EntityBill, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM Bill STARTPOSITION 4 MAXRESULTS 3", q)

	_, err = BuildPageQuery(Entity("Bill; DROP"), 1, 1)
	assert.Error(t, err)
	_, err = BuildPageQuery(EntityCustomer, 0, 1)
	assert.Error(t, err)
	_, err = BuildPageQuery(EntityCustomer, 1, 0)
	assert.Error(t, err)
}

func newQueryClient(url string) *QueryClient {
	return &QueryClient{APIBaseURL: url, RealmID: "realm-1", HTTPClient: &http.Client{Timeout: time.Second}}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/realm-1/query", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/text", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "SELECT * FROM Bill STARTPOSITION 1 MAXRESULTS 2", string(body))

		_, _ = w.Write([]byte(`{"QueryResponse":{"Bill":[{"Id":"1"},{"Id":"2"}],"startPosition":1,"maxResults":2}}`))
	}))
	defer srv.Close()

	records, err := newQueryClient(srv.URL).FetchPage(context.Background(), EntityBill, 1, 2, "tok")
	require.NoError(t, err)
	require.Len(t, records, 2)

	var rec BillRecord
	require.NoError(t, json.Unmarshal(records[1], &rec))
	assert.Equal(t, Text("2"), rec.ID)
}

func TestFetchPageEmptyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"QueryResponse":{},"time":"2024-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	records, err := newQueryClient(srv.URL).FetchPage(context.Background(), EntityCustomer, 9, 5, "tok")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFetchPageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"Fault":{}}`))
	}))
	defer srv.Close()

	_, err := newQueryClient(srv.URL).FetchPage(context.Background(), EntityBill, 7, 3, "tok")
	var fetchErr *RemoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, EntityBill, fetchErr.Entity)
	assert.Equal(t, 7, fetchErr.StartPosition)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
}

func TestFetchPageTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newQueryClient(srv.URL)
	c.HTTPClient.Timeout = 20 * time.Millisecond

	_, err := c.FetchPage(context.Background(), EntityBill, 1, 3, "tok")
	var fetchErr *RemoteFetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.True(t, IsTimeout(err))
}

func TestFetchPageRequiresToken(t *testing.T) {
	_, err := newQueryClient("http://127.0.0.1:0").FetchPage(context.Background(), EntityBill, 1, 3, "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestNumberDecoding(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.5,"b":"7.25","c":"abc","d":null,"e":true}`), &v))
	assert.Equal(t, 12.5, v.A.Float64())
	assert.Equal(t, 7.25, v.B.Float64())
	assert.Zero(t, v.C.Float64())
	assert.Zero(t, v.D.Float64())
	assert.Zero(t, v.E.Float64())
}
