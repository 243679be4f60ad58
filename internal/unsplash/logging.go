package unsplash

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// loggingTransport logs every request at debug level with the access key redacted.
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)
	latency := time.Since(start)

	if err != nil {
		slog.Debug("photo api request failed",
			"method", req.Method,
			"url", redactURL(req.URL),
			"latency_ms", latency.Milliseconds(),
			"error", err)
		return nil, err
	}

	slog.Debug("photo api request",
		"method", req.Method,
		"url", redactURL(req.URL),
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
		"latency_ms", latency.Milliseconds())
	return resp, nil
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	values := u.Query()
	if values.Get("client_id") == "" {
		return u.String()
	}
	redacted := *u
	values.Set("client_id", "REDACTED")
	redacted.RawQuery = values.Encode()
	return redacted.String()
}
