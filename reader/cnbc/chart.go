package cnbc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ratesflow/config"
	"ratesflow/logger"
	"ratesflow/models"
	"ratesflow/reader"
)

// ChartReader fetches chart price bars from the GraphQL persisted-query
// endpoint. Transport errors, non-2xx statuses and JSON decode failures are
// retried up to the configured attempt bound; a structural mismatch is not,
// because the shape will not change between attempts.
type ChartReader struct {
	config  *config.Config
	client  *http.Client
	backoff reader.BackoffPolicy
	log     *logger.Log
}

func NewChartReader(cfg *config.Config) *ChartReader {
	client := &http.Client{
		Timeout: cfg.Reader.Timeout,
		Transport: impersonatingTransport{
			userAgent: cfg.Browser.UserAgent,
			referer:   cfg.Source.CNBC.Referer,
			origin:    cfg.Source.CNBC.Origin,
			base:      http.DefaultTransport,
		},
	}

	return &ChartReader{
		config:  cfg,
		client:  client,
		backoff: reader.PolicyFromConfig(cfg.Reader.Retry),
		log:     logger.GetLogger(),
	}
}

type persistedQuery struct {
	Version    int    `json:"version"`
	Sha256Hash string `json:"sha256Hash"`
}

type queryExtensions struct {
	PersistedQuery persistedQuery `json:"persistedQuery"`
}

type queryVariables struct {
	Symbol    string `json:"symbol"`
	TimeRange string `json:"timeRange"`
}

// requestURL builds the GET url with operationName, JSON-encoded variables
// and the fixed persisted-query descriptor.
func (r *ChartReader) requestURL(symbol, timeRange string) (string, error) {
	variables, err := json.Marshal(queryVariables{Symbol: symbol, TimeRange: timeRange})
	if err != nil {
		return "", fmt.Errorf("marshal variables: %w", err)
	}
	extensions, err := json.Marshal(queryExtensions{
		PersistedQuery: persistedQuery{
			Version:    1,
			Sha256Hash: r.config.Source.CNBC.PersistedQueryHash,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal extensions: %w", err)
	}

	params := url.Values{}
	params.Set("operationName", r.config.Source.CNBC.OperationName)
	params.Set("variables", string(variables))
	params.Set("extensions", string(extensions))

	return r.config.Source.CNBC.URL + "?" + params.Encode(), nil
}

// Fetch retrieves the price bars for the given symbol and time range. After
// exhausting all attempts it returns the last failure; callers treat any
// error as an empty fetch and carry on.
func (r *ChartReader) Fetch(ctx context.Context, symbol, timeRange string) ([]models.RawBar, []byte, error) {
	log := r.log.WithComponent("cnbc_reader").WithFields(logger.Fields{
		"symbol":     symbol,
		"time_range": timeRange,
	})

	reqURL, err := r.requestURL(symbol, timeRange)
	if err != nil {
		return nil, nil, err
	}

	maxAttempts := r.config.Reader.Retry.MaxAttempts
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		bars, raw, err := r.fetchOnce(ctx, reqURL)
		if err == nil {
			log.WithFields(logger.Fields{"bars": len(bars), "attempt": attempt}).Info("chart data fetched")
			return bars, raw, nil
		}

		if errors.Is(err, models.ErrStructuralMismatch) {
			log.WithError(err).Warn("unexpected payload structure; not retrying")
			return nil, raw, err
		}

		lastErr = err
		log.WithError(err).WithFields(logger.Fields{
			"attempt":      attempt,
			"max_attempts": maxAttempts,
		}).Warn("chart fetch attempt failed")

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(r.backoff.Delay(attempt)):
		}
	}

	return nil, nil, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

func (r *ChartReader) fetchOnce(ctx context.Context, reqURL string) ([]models.RawBar, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading body: %v", models.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, raw, fmt.Errorf("%w: unexpected status %d", models.ErrTransport, resp.StatusCode)
	}

	var chart models.ChartResponse
	if err := json.Unmarshal(raw, &chart); err != nil {
		return nil, raw, fmt.Errorf("%w: %v", models.ErrMalformedPayload, err)
	}

	bars, ok := chart.PriceBars()
	if !ok {
		return nil, raw, fmt.Errorf("%w: data.chartData.priceBars not found", models.ErrStructuralMismatch)
	}

	return bars, raw, nil
}
