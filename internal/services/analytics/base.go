package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	svcmetrics "MarketWhisperer/internal/service/metrics"
	xhttp "MarketWhisperer/pkg/http"
)

// HTTPServiceBase is the shared GET client for upstream data providers.
type HTTPServiceBase struct {
	name     string
	baseURL  string
	client   *xhttp.Client
	attempts int
	backoff  time.Duration
}

// NewHTTPServiceBase builds a client for one upstream. name labels its metrics.
func NewHTTPServiceBase(name, baseURL string, timeout time.Duration, attempts int, opts ...xhttp.ClientOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if attempts <= 0 {
		attempts = 1
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &HTTPServiceBase{
		name:     name,
		baseURL:  baseURL,
		client:   xhttp.NewClient(opts...),
		attempts: attempts,
		backoff:  100 * time.Millisecond,
	}
}

// GetBytes fetches path under baseURL and returns the raw body.
func (b *HTTPServiceBase) GetBytes(ctx context.Context, path string, query map[string][]string) ([]byte, error) {
	if b.client == nil || b.baseURL == "" {
		return nil, fmt.Errorf("%s http client not initialized", b.name)
	}
	var body []byte
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return body, nil
}

// GetBytesWithRetry repeats GetBytes on transport errors, 429 and 5xx.
func (b *HTTPServiceBase) GetBytesWithRetry(ctx context.Context, path string, query map[string][]string) ([]byte, error) {
	start := time.Now()
	defer func() {
		svcmetrics.UpstreamLatency.WithLabelValues(b.name).Observe(time.Since(start).Seconds())
	}()

	var err error
	for i := 1; i <= b.attempts; i++ {
		var body []byte
		body, err = b.GetBytes(ctx, path, query)
		if err == nil {
			return body, nil
		}
		if !retryable(err) || i == b.attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * b.backoff):
		case <-ctx.Done():
			svcmetrics.UpstreamErrors.WithLabelValues(b.name).Inc()
			return nil, ctx.Err()
		}
	}
	svcmetrics.UpstreamErrors.WithLabelValues(b.name).Inc()
	return nil, err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
