package cme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"ratesflow/config"
	"ratesflow/logger"
	"ratesflow/models"
)

// extractText pulls the JSON body out of the rendered page. The endpoint
// answers with a bare JSON document, which the browser wraps in a <pre>
// element; some error pages come back without one.
const extractText = `(document.querySelector('pre') || document.body).innerText`

const debugSnippetLen = 1000

// StripReader retrieves the SOFR strip-rate payload through a headless
// browser session. The endpoint sits behind bot protection that rejects
// plain HTTP clients, so the page is rendered and its text re-parsed as JSON.
type StripReader struct {
	config *config.Config
	log    *logger.Log
}

func NewStripReader(cfg *config.Config) *StripReader {
	return &StripReader{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// requestURL appends the cache-busting query so every run bypasses the
// CDN and hits the origin for a fresh payload.
func (r *StripReader) requestURL(now time.Time) string {
	return fmt.Sprintf("%s?isProtected&_t=%d", r.config.Source.CME.URL, now.UnixMilli())
}

// classifyRunError maps a navigation failure onto the shared taxonomy. A
// deadline on the bounded wait means the page never rendered in time;
// anything else once the session is up is a transport failure.
func classifyRunError(err error, waited time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", models.ErrRenderTimeout, waited)
	}
	return fmt.Errorf("%w: %v", models.ErrTransport, err)
}

// parsePayload decodes the extracted page text. Invalid JSON is reported
// with a bounded snippet for diagnosis; a document without the
// resultsStrip key is structurally wrong even when it parses.
func (r *StripReader) parsePayload(text string) (*models.StripResponse, error) {
	log := r.log.WithComponent("cme_reader")

	var resp models.StripResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		snippet := text
		if len(snippet) > debugSnippetLen {
			snippet = snippet[:debugSnippetLen]
		}
		log.WithFields(logger.Fields{"snippet": snippet}).Warn("extracted text is not valid JSON")
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedPayload, err)
	}

	if resp.ResultsStrip == nil {
		log.Warn("resultsStrip key missing from payload")
		return nil, fmt.Errorf("%w: resultsStrip not found", models.ErrStructuralMismatch)
	}

	return &resp, nil
}

// Fetch navigates to the strip-rate URL, waits for the document body within
// the configured bound and parses the extracted text as JSON. The browser
// session is torn down on every exit path. The raw payload text is returned
// alongside the parsed response for archival.
func (r *StripReader) Fetch(ctx context.Context) (*models.StripResponse, []byte, error) {
	log := r.log.WithComponent("cme_reader")

	url := r.requestURL(time.Now())

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.config.Browser.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(r.config.Browser.WindowWidth, r.config.Browser.WindowHeight),
		chromedp.UserAgent(r.config.Browser.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, r.config.Browser.WaitTimeout)
	defer cancelRun()

	// An empty run boots the browser, so startup failures surface here
	// instead of being folded into navigation ones.
	if err := chromedp.Run(runCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w after %s", models.ErrRenderTimeout, r.config.Browser.WaitTimeout)
		}
		return nil, nil, fmt.Errorf("%w: %v", models.ErrSessionSetup, err)
	}

	log.WithFields(logger.Fields{"url": url}).Info("navigating to strip-rate endpoint")

	var text string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(extractText, &text),
	)
	if err != nil {
		return nil, nil, classifyRunError(err, r.config.Browser.WaitTimeout)
	}

	log.WithFields(logger.Fields{"length": len(text)}).Info("extracted page text")

	raw := []byte(text)
	resp, err := r.parsePayload(text)
	if err != nil {
		return nil, raw, err
	}

	log.WithFields(logger.Fields{"days": len(resp.ResultsStrip)}).Info("strip-rate payload parsed")
	return resp, raw, nil
}
