package cme

import (
	"context"
	"errors"
	"testing"
	"time"

	"ratesflow/config"
	"ratesflow/models"
)

func stripReaderConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Source.CME.URL = "https://www.cmegroup.com/services/sofr-strip-rates"
	cfg.Browser.WaitTimeout = 20 * time.Second
	return cfg
}

func TestRequestURLCacheBusting(t *testing.T) {
	r := NewStripReader(stripReaderConfig())

	now := time.UnixMilli(1700000000000)
	got := r.requestURL(now)
	want := "https://www.cmegroup.com/services/sofr-strip-rates?isProtected&_t=1700000000000"
	if got != want {
		t.Fatalf("request url %q, expected %q", got, want)
	}
}

func TestRequestURLVariesPerRun(t *testing.T) {
	r := NewStripReader(stripReaderConfig())

	first := r.requestURL(time.UnixMilli(1700000000000))
	second := r.requestURL(time.UnixMilli(1700000000001))
	if first == second {
		t.Fatalf("cache-busting query did not change between runs: %q", first)
	}
}

func TestClassifyRunError(t *testing.T) {
	err := classifyRunError(context.DeadlineExceeded, 20*time.Second)
	if !errors.Is(err, models.ErrRenderTimeout) {
		t.Fatalf("deadline should map to render timeout, got %v", err)
	}

	err = classifyRunError(errors.New("net::ERR_CONNECTION_RESET"), 20*time.Second)
	if !errors.Is(err, models.ErrTransport) {
		t.Fatalf("navigation failure should map to transport, got %v", err)
	}
	if errors.Is(err, models.ErrSessionSetup) {
		t.Fatalf("navigation failure must not be reported as session setup: %v", err)
	}
}

func TestParsePayload(t *testing.T) {
	r := NewStripReader(stripReaderConfig())

	resp, err := r.parsePayload(`{"resultsStrip": [{"date": "2024-01-02", "overnight": "5.38"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ResultsStrip) != 1 {
		t.Fatalf("expected 1 day record, got %d", len(resp.ResultsStrip))
	}
}

func TestParsePayloadNotJSON(t *testing.T) {
	r := NewStripReader(stripReaderConfig())

	if _, err := r.parsePayload("<html><body>Access Denied</body></html>"); !errors.Is(err, models.ErrMalformedPayload) {
		t.Fatalf("expected malformed payload, got %v", err)
	}
}

func TestParsePayloadMissingResultsStrip(t *testing.T) {
	r := NewStripReader(stripReaderConfig())

	if _, err := r.parsePayload(`{"unexpected": []}`); !errors.Is(err, models.ErrStructuralMismatch) {
		t.Fatalf("expected structural mismatch, got %v", err)
	}
}

func TestParsePayloadEmptyStrip(t *testing.T) {
	r := NewStripReader(stripReaderConfig())

	resp, err := r.parsePayload(`{"resultsStrip": []}`)
	if err != nil {
		t.Fatalf("an empty strip is valid, got %v", err)
	}
	if len(resp.ResultsStrip) != 0 {
		t.Fatalf("expected no day records, got %d", len(resp.ResultsStrip))
	}
}
