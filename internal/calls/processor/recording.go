package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadcall_backend/internal/adapters/storage"
)

const maxRecordingRedirects = 5

var (
	ErrRecordingTooLarge    = errors.New("recording exceeds size limit")
	ErrRecordingContentType = errors.New("recording is not audio")
	ErrRecordingURL         = errors.New("recording url not allowed")
)

// HTTPRecordingFetcher downloads recordings from the voice platform's signed URLs.
// Only https URLs are fetched, and only from allowedHosts when that list is set.
type HTTPRecordingFetcher struct {
	client       *http.Client
	maxBytes     int64
	allowedHosts []string
}

type FetcherOption func(*HTTPRecordingFetcher)

// WithAllowedHosts limits fetches to these hosts and their subdomains.
func WithAllowedHosts(hosts ...string) FetcherOption {
	return func(f *HTTPRecordingFetcher) {
		for _, h := range hosts {
			if h = strings.ToLower(strings.Trim(strings.TrimSpace(h), ".")); h != "" {
				f.allowedHosts = append(f.allowedHosts, h)
			}
		}
	}
}

// WithHTTPClient replaces the transport; the fetch timeout still applies.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPRecordingFetcher) {
		if client != nil {
			c := *client
			f.client = &c
		}
	}
}

func NewHTTPRecordingFetcher(timeout time.Duration, maxBytes int64, opts ...FetcherOption) *HTTPRecordingFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &HTTPRecordingFetcher{
		client:   &http.Client{},
		maxBytes: maxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client.Timeout = timeout
	f.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRecordingRedirects {
			return fmt.Errorf("fetch recording: stopped after %d redirects", len(via))
		}
		return f.checkURL(req.URL)
	}
	return f
}

func (f *HTTPRecordingFetcher) checkURL(u *url.URL) error {
	if u == nil || !strings.EqualFold(u.Scheme, "https") || u.Hostname() == "" {
		return ErrRecordingURL
	}
	if len(f.allowedHosts) == 0 {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range f.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: host %q", ErrRecordingURL, host)
}

func (f *HTTPRecordingFetcher) Fetch(ctx context.Context, rawURL string) (Recording, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Recording{}, fmt.Errorf("%w: %v", ErrRecordingURL, err)
	}
	if err := f.checkURL(u); err != nil {
		return Recording{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Recording{}, fmt.Errorf("build recording request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Recording{}, fmt.Errorf("fetch recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Recording{}, fmt.Errorf("fetch recording: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !storage.IsAudioContentType(contentType) {
		return Recording{}, fmt.Errorf("%w: %q", ErrRecordingContentType, contentType)
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		if resp.ContentLength > f.maxBytes {
			return Recording{}, ErrRecordingTooLarge
		}
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return Recording{}, fmt.Errorf("read recording: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return Recording{}, ErrRecordingTooLarge
	}

	return Recording{ContentType: contentType, Data: data}, nil
}

var _ RecordingFetcher = (*HTTPRecordingFetcher)(nil)
