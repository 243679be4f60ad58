package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	httputils "github.com/twitsprout/tools/http"
)

const (
	DefaultBaseURL = "https://api.unsplash.com/"
	// DefaultCount is the fixed batch size of one fetch.
	DefaultCount = 30
	// MaxCount is the upper bound the API accepts for count.
	MaxCount = 30

	defaultTimeout          = 30 * time.Second
	defaultMaxDownloadBytes = 64 << 20
	apiVersion              = "v1"
)

// Config configures the photo API client.
type Config struct {
	BaseURL          string        `yaml:"baseUrl"`
	AccessKey        string        `yaml:"accessKey"`
	Count            int           `yaml:"count"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxDownloadBytes int64         `yaml:"maxDownloadBytes"`
}

// Client talks to the random photo endpoint and downloads image files.
type Client struct {
	baseURL          *url.URL
	accessKey        string
	count            int
	maxDownloadBytes int64
	api              *http.Client
	download         *http.Client
}

// Option modifies a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces both the API and the download http client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.api = c
		client.download = c
	}
}

// NewClient creates a client for the given configuration. API calls share a
// transport capped at one open connection.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.AccessKey == "" {
		return nil, errors.New("photo api access key must not be empty")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid photo api base url %q: %w", cfg.BaseURL, err)
	}

	count := cfg.Count
	if count == 0 {
		count = DefaultCount
	}
	if count < 1 || count > MaxCount {
		return nil, fmt.Errorf("photo count must be between 1 and %d, got %d", MaxCount, count)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxDownload := cfg.MaxDownloadBytes
	if maxDownload <= 0 {
		maxDownload = defaultMaxDownloadBytes
	}

	api := httputils.NewClient(
		httputils.WithTimeout(timeout),
		httputils.WithMaxOpenConns(1),
	)
	api.Transport = &loggingTransport{next: api.Transport}

	// full size files are large; only the dial/TLS timeouts apply to downloads
	download := httputils.NewClient(httputils.WithTimeout(0))
	download.Transport = &loggingTransport{next: download.Transport}

	client := &Client{
		baseURL:          baseURL,
		accessKey:        cfg.AccessKey,
		count:            count,
		maxDownloadBytes: maxDownload,
		api:              api,
		download:         download,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// RandomPhotos fetches one batch of random photos, filtered by query when it is
// not blank. A query without any match yields an empty slice.
func (c *Client) RandomPhotos(ctx context.Context, query string) ([]Photo, error) {
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: "photos/random"})
	values := url.Values{}
	values.Set("client_id", c.accessKey)
	values.Set("count", strconv.Itoa(c.count))
	query = strings.TrimSpace(query)
	if query != "" {
		values.Set("query", query)
	}
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build photo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", apiVersion)

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request random photos: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound && query != "" {
		slog.Info("no photos match query", "query", query)
		return []Photo{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	var photos []Photo
	if err := json.NewDecoder(resp.Body).Decode(&photos); err != nil {
		return nil, fmt.Errorf("failed to decode random photos: %w", err)
	}
	if photos == nil {
		photos = []Photo{}
	}
	return photos, nil
}

// Download fetches the image file behind rawURL.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, errors.New("image url must not be empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > c.maxDownloadBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", c.maxDownloadBytes)
	}
	return data, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		apiErr.Messages = parsed.Errors
		return apiErr
	}
	apiErr.Messages = []string{strings.TrimSpace(string(body))}
	return apiErr
}
