package cnbc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ratesflow/config"
	"ratesflow/models"
)

func minimalConfig(endpoint string) *config.Config {
	return &config.Config{
		Reader: config.ReaderConfig{
			Timeout: time.Second,
			Retry: config.RetryConfig{
				MaxAttempts:       3,
				BaseDelay:         time.Millisecond,
				BackoffMultiplier: 1,
			},
		},
		Browser: config.BrowserConfig{UserAgent: "test-agent"},
		Source: config.SourceConfig{
			CNBC: config.CNBCSourceConfig{
				URL:                endpoint,
				OperationName:      "getQuoteChartData",
				PersistedQueryHash: "abc123",
				Referer:            "https://www.cnbc.com/",
				Origin:             "https://www.cnbc.com",
			},
		},
	}
}

func TestFetchSuccess(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"operationName": r.URL.Query().Get("operationName"),
			"variables":     r.URL.Query().Get("variables"),
			"extensions":    r.URL.Query().Get("extensions"),
			"user-agent":    r.Header.Get("User-Agent"),
			"origin":        r.Header.Get("Origin"),
		}
		w.Write([]byte(`{"data":{"chartData":{"priceBars":[
			{"tradeTimeinMills":1700000000000,"close":"4.31"},
			{"tradeTimeinMills":1700000060000,"close":4.32}
		]}}}`))
	}))
	defer srv.Close()

	r := NewChartReader(minimalConfig(srv.URL))
	bars, raw, err := r.Fetch(context.Background(), "US10YTIP", "1D")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw payload bytes")
	}
	if gotQuery["operationName"] != "getQuoteChartData" {
		t.Fatalf("operationName not sent: %v", gotQuery)
	}
	if gotQuery["variables"] != `{"symbol":"US10YTIP","timeRange":"1D"}` {
		t.Fatalf("unexpected variables: %q", gotQuery["variables"])
	}
	if gotQuery["extensions"] != `{"persistedQuery":{"version":1,"sha256Hash":"abc123"}}` {
		t.Fatalf("unexpected extensions: %q", gotQuery["extensions"])
	}
	if gotQuery["user-agent"] != "test-agent" || gotQuery["origin"] != "https://www.cnbc.com" {
		t.Fatalf("impersonating headers not sent: %v", gotQuery)
	}
}

func TestFetchRetryExhaustion(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewChartReader(minimalConfig(srv.URL))
	bars, _, err := r.Fetch(context.Background(), "US10YTIP", "1D")
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if !errors.Is(err, models.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if bars != nil {
		t.Fatalf("expected empty result, got %v", bars)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestFetchRetriesDecodeFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Write([]byte("not json"))
			return
		}
		w.Write([]byte(`{"data":{"chartData":{"priceBars":[]}}}`))
	}))
	defer srv.Close()

	r := NewChartReader(minimalConfig(srv.URL))
	bars, _, err := r.Fetch(context.Background(), "US10YTIP", "1D")
	if err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if len(bars) != 0 {
		t.Fatalf("expected empty bar list, got %d", len(bars))
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestFetchStructuralMismatchNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data":{"quote":{}}}`))
	}))
	defer srv.Close()

	r := NewChartReader(minimalConfig(srv.URL))
	_, _, err := r.Fetch(context.Background(), "US10YTIP", "1D")
	if !errors.Is(err, models.ErrStructuralMismatch) {
		t.Fatalf("expected structural mismatch, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("structural mismatch must not be retried, got %d calls", calls)
	}
}
