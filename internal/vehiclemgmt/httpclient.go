package vehiclemgmt

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// NewHTTPClient builds the retryable HTTP client used for every call to the
// Vehicle Management API. It retries transient network errors and 5xx
// responses a bounded number of times so a single flaky call does not stall
// the frame loop any longer than necessary before falling back to the
// failed-event store.
func NewHTTPClient(insecureSkipVerify bool) *retryablehttp.Client {
	tr := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 3 * time.Second,
		}).Dial,
		MaxIdleConns:          32,
		MaxConnsPerHost:       8,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecureSkipVerify,
		},
		TLSHandshakeTimeout: 10 * time.Second,
	}

	retryClient := retryablehttp.NewClient()
	retryClient.CheckRetry = retryablehttp.ErrorPropagatedRetryPolicy
	retryClient.HTTPClient.Transport = tr
	retryClient.HTTPClient.Timeout = 15 * time.Second
	retryClient.Logger = nil
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.RetryMax = 2
	// Once retries are exhausted, hand the last response back to the caller
	// so a final 5xx is classified into an APIError like any other status.
	retryClient.ErrorHandler = func(resp *http.Response, err error, _ int) (*http.Response, error) {
		if resp != nil {
			return resp, nil
		}
		return nil, err
	}
	retryClient.RequestLogHook = func(l retryablehttp.Logger, r *http.Request, i int) {
		if i > 0 {
			zap.L().Warn("retrying vehicle management api call",
				zap.String("url", r.URL.String()),
				zap.Int("attempt", i+1),
			)
		}
	}

	return retryClient
}
