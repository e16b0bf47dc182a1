package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// TransportError is a network or HTTP failure that survived the retry policy
type TransportError struct {
	URL        string
	StatusCode int // 0 for network-level failures
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError checks if an error is a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// RetryPolicy bounds retries of idempotent GET requests. The wait before the
// n-th retry is Delay * 2^(n-1) plus a small jitter.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
}

// DefaultRetryPolicy makes 3 attempts starting with a 300ms backoff
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 300 * time.Millisecond}

// retryable reports whether a failed attempt may be repeated: server errors and
// network failures are, client errors and cancellation are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode == 0 || te.StatusCode >= http.StatusInternalServerError
}

func (p RetryPolicy) do(ctx context.Context, url string, fn func() error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	jitter := max(p.Delay/4, time.Millisecond)
	return retry.Do(
		fn,
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.MaxDelay(p.Delay<<attempts),
		retry.MaxJitter(jitter),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logrus.WithFields(logrus.Fields{"url": url, "attempt": n + 1}).Infof("Retrying request after error: %v", err)
		}),
		retry.RetryIf(retryable),
	)
}

// getJSON issues a GET under the retry policy and decodes the body into out
func getJSON(ctx context.Context, client *resty.Client, policy RetryPolicy, url string, out interface{}) error {
	var body []byte

	err := policy.do(ctx, url, func() error {
		resp, err := client.R().
			SetContext(ctx).
			Get(url)

		if err != nil {
			return &TransportError{URL: url, Err: err}
		}

		if resp.StatusCode() != http.StatusOK {
			return &TransportError{URL: url, StatusCode: resp.StatusCode()}
		}

		body = resp.Body()
		return nil
	})

	if err != nil {
		// Surface the last attempt's failure rather than the retry log
		var te *TransportError
		if errors.As(err, &te) {
			return te
		}
		return &TransportError{URL: url, Err: err}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}

	return nil
}
