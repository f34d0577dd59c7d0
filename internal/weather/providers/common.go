package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultUserAgent = "weather-compare"

// HTTPClientConfig bundles the HTTP client and request settings shared by providers.
type HTTPClientConfig struct {
	Client    *http.Client
	UserAgent string
}

var (
	errNoHTTPClient  = errors.New("http client not configured")
	errCircuitOpen   = errors.New("circuit breaker open")
	errCallerAborted = errors.New("request aborted by caller")
)

// statusError reports a non-2xx upstream response.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.status)
}

// newCircuitBreaker returns the breaker guarding one upstream. Client errors
// (4xx) and requests abandoned by the caller do not count against the
// upstream's health.
func newCircuitBreaker(name string, logger *zap.SugaredLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, errCallerAborted) || errors.Is(err, context.Canceled) {
				return true
			}
			var se *statusError
			return errors.As(err, &se) && se.status < 500 && se.status != http.StatusTooManyRequests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// fetch issues a single GET through the circuit breaker and returns the body
// together with the upstream status. The status is 0 when no response was
// received and 503 when the circuit is open. No retries are attempted.
func fetch(ctx context.Context, cfg HTTPClientConfig, cb *gobreaker.CircuitBreaker, rawURL string) ([]byte, int, error) {
	if cfg.Client == nil {
		return nil, 0, errNoHTTPClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	var status int
	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errCallerAborted, ctx.Err())
			}
			return nil, execErr
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &statusError{status: resp.StatusCode}
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, http.StatusServiceUnavailable, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, status, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, status, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, status, nil
}

// upstreamStatus picks the status reported to callers for a failed fetch.
func upstreamStatus(status int) int {
	if status == 0 || (status >= 200 && status < 300) {
		return http.StatusServiceUnavailable
	}
	return status
}
