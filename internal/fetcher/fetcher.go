package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"sitecount/internal/limiter"
)

const (
	baseRetryDelay      = 100 * time.Millisecond
	maxRetryDelay       = 2 * time.Second
	defaultMaxBodyBytes = 10 << 20
)

// DefaultUserAgent is a browser-like User-Agent; some sites refuse obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var errInvalidRequest = errors.New("invalid request")

// StatusError reports an HTTP response with an error status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return statusText(e.Code)
}

// Result contains the HTTP response data.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
}

// ContentType returns the response Content-Type header.
func (r Result) ContentType() string {
	return r.Header.Get("Content-Type")
}

// IsHTML reports whether the response declares an HTML body.
func (r Result) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType()), "text/html")
}

// UTF8Body returns the body transcoded to UTF-8 using the declared or sniffed charset.
func (r Result) UTF8Body() ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(r.Body), r.ContentType())
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}

	return io.ReadAll(reader)
}

// Config holds per-request settings.
// Retries is the number of retries after the first attempt.
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	Retries      int
	RetryDelay   time.Duration
	MaxBodyBytes int64
}

// Fetcher performs HTTP GET requests with per-request timeouts and retries.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	retries      int
	retryDelay   time.Duration
	maxBodyBytes int64
	clock        limiter.Timer
}

// NewHTTPClient returns a client that follows redirects and, when insecure is
// set, skips TLS certificate verification.
func NewHTTPClient(timeout time.Duration, insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// New creates a Fetcher. A nil clock falls back to the wall clock.
func New(client *http.Client, cfg Config, clock limiter.Timer) *Fetcher {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = baseRetryDelay
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if clock == nil {
		clock = limiter.NewClock()
	}

	return &Fetcher{
		client:       client,
		timeout:      cfg.Timeout,
		userAgent:    cfg.UserAgent,
		retries:      cfg.Retries,
		retryDelay:   cfg.RetryDelay,
		maxBodyBytes: cfg.MaxBodyBytes,
		clock:        clock,
	}
}

// Fetch performs a GET request with retries for temporary failures (network errors, 429, 5xx).
// Responses with status >= 400 yield a *StatusError alongside the result of the last attempt.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	attempts := f.retries + 1
	var lastResult Result
	var lastErr error

	for attempt := range attempts {
		result, err := f.doRequest(ctx, rawURL)
		lastResult = result
		lastErr = err

		if err == nil && result.StatusCode < http.StatusBadRequest {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}

			return result, nil
		}

		retry, retryErr := f.shouldRetry(ctx, attempt, attempts, result, err)
		if !retry {
			return result, retryErr
		}
	}

	return lastResult, lastErr
}

func (f *Fetcher) shouldRetry(
	ctx context.Context,
	attempt int,
	attempts int,
	result Result,
	err error,
) (bool, error) {
	if ctx.Err() != nil {
		return false, coalesceError(err, ctx.Err())
	}

	if !isRetryable(result.StatusCode, err) || attempt == attempts-1 {
		return false, errorForStatus(err, result.StatusCode)
	}

	err = f.clock.Sleep(ctx, f.retryDelayFor(attempt+1))
	if err != nil {
		return false, err
	}

	return true, nil
}

func (f *Fetcher) doRequest(ctx context.Context, rawURL string) (Result, error) {
	requestCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	if parsedURL.Path == "" {
		parsedURL.Path = "/"
	}

	request, err := http.NewRequestWithContext(requestCtx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	if f.userAgent != "" {
		request.Header.Set("User-Agent", f.userAgent)
	}

	response, err := f.client.Do(request)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	result := Result{
		StatusCode: response.StatusCode,
		Header:     response.Header,
		FinalURL:   parsedURL.String(),
	}
	if response.Request != nil && response.Request.URL != nil {
		result.FinalURL = response.Request.URL.String()
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, f.maxBodyBytes))
	if err != nil {
		return result, fmt.Errorf("read body: %w", err)
	}

	result.Body = body

	return result, nil
}

func isRetryable(statusCode int, err error) bool {
	if err != nil {
		return isRetryableError(err)
	}

	if statusCode == http.StatusTooManyRequests {
		return true
	}

	return statusCode >= http.StatusInternalServerError
}

func isRetryableError(err error) bool {
	if isContextCanceled(err) || errors.Is(err, errInvalidRequest) {
		return false
	}

	if isEOFLike(err) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return isRetryableURLError(urlErr)
	}

	return isNetError(err)
}

func isRetryableURLError(urlErr *url.Error) bool {
	err := urlErr.Err
	for err != nil {
		if isContextCanceled(err) || errors.Is(err, errInvalidRequest) {
			return false
		}

		if isEOFLike(err) {
			return true
		}

		var inner *url.Error
		if errors.As(err, &inner) {
			err = inner.Err

			continue
		}

		return isNetError(err)
	}

	return false
}

func isContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func isNetError(err error) bool {
	var netErr net.Error

	return errors.As(err, &netErr)
}

func isEOFLike(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func errorForStatus(err error, statusCode int) error {
	if err != nil {
		return err
	}

	if statusCode >= http.StatusBadRequest {
		return &StatusError{Code: statusCode}
	}

	return nil
}

func statusText(statusCode int) string {
	text := http.StatusText(statusCode)
	if text == "" {
		return fmt.Sprintf("http status %d", statusCode)
	}

	return fmt.Sprintf("%d %s", statusCode, text)
}

func coalesceError(primary, fallback error) error {
	if primary != nil {
		return primary
	}

	return fallback
}

func (f *Fetcher) retryDelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := f.retryDelay
	for i := 1; i < attempt; i++ {
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}

		delay *= 2
	}

	if delay > maxRetryDelay {
		return maxRetryDelay
	}

	return delay
}
