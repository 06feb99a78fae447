package cnbc

import "net/http"

// impersonatingTransport attaches the browser-identifying headers the chart
// endpoint expects on every request.
type impersonatingTransport struct {
	userAgent string
	referer   string
	origin    string
	base      http.RoundTripper
}

func (t impersonatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", t.referer)
	req.Header.Set("Origin", t.origin)
	return t.base.RoundTrip(req)
}
