// Package clients provides the HTTP client used to talk to catalog service
// APIs such as the Neptune bulk loader.
//
// Every request goes through a token bucket rate limiter and a circuit
// breaker, and is retried with exponential backoff on transport errors, 429
// and 5xx responses when its body can be replayed.
package clients

import (
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/ajitpratap0/databuilder/pkg/metrics"
)

// ErrCircuitOpen is returned while the circuit breaker rejects requests.
var ErrCircuitOpen = fmt.Errorf("circuit breaker open")

// HTTPConfig configures the HTTP client
type HTTPConfig struct {
	// Connection settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	EnableHTTP2         bool          `mapstructure:"enable_http2"`

	// Timeouts
	DialTimeout           time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`

	// Rate limiting; a zero rate disables it
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	// Retries
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`

	// Circuit breaker
	CircuitBreakerEnabled bool          `mapstructure:"circuit_breaker_enabled"`
	FailureThreshold      int           `mapstructure:"failure_threshold"`
	SuccessThreshold      int           `mapstructure:"success_threshold"`
	OpenTimeout           time.Duration `mapstructure:"open_timeout"`
}

// DefaultHTTPConfig returns the defaults used by publishers.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		EnableHTTP2:           true,
		DialTimeout:           30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		RequestTimeout:        60 * time.Second,
		RateLimit:             20,
		RateBurst:             5,
		MaxRetries:            3,
		RetryBackoff:          500 * time.Millisecond,
		CircuitBreakerEnabled: true,
		FailureThreshold:      5,
		SuccessThreshold:      1,
		OpenTimeout:           30 * time.Second,
	}
}

// HTTPClient wraps http.Client with rate limiting, retries and a circuit
// breaker.
type HTTPClient struct {
	config     *HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport

	limiter *TokenBucketRateLimiter
	breaker *CircuitBreaker

	totalRequests  int64
	failedRequests int64
}

// NewHTTPClient creates a client; a nil config means DefaultHTTPConfig.
func NewHTTPClient(config *HTTPConfig, logger *zap.Logger) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	client := &HTTPClient{
		config: config,
		logger: logger.With(zap.String("component", "http_client")),
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	client.httpClient = &http.Client{
		Transport: client.transport,
		Timeout:   config.RequestTimeout,
	}
	if config.RateLimit > 0 {
		client.limiter = NewTokenBucketRateLimiter(config.RateLimit, config.RateBurst)
	}
	if config.CircuitBreakerEnabled {
		client.breaker = NewCircuitBreaker(config.FailureThreshold, config.SuccessThreshold, config.OpenTimeout, logger)
	}
	return client
}

// Do sends req, retrying retryable failures. The final response is returned
// even when its status is an error; the caller owns its body.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}
		if c.breaker != nil && !c.breaker.Allow() {
			atomic.AddInt64(&c.failedRequests, 1)
			return nil, ErrCircuitOpen
		}
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		resp, err := c.send(req)
		if !retryable(resp, err) {
			if c.breaker != nil {
				c.breaker.RecordSuccess()
			}
			return resp, nil
		}

		atomic.AddInt64(&c.failedRequests, 1)
		if c.breaker != nil {
			c.breaker.RecordFailure()
		}
		replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
		if attempt >= c.config.MaxRetries || !replayable {
			return resp, err
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		wait := c.backoff(attempt)
		c.logger.Warn("retrying request",
			zap.String("method", req.Method),
			zap.String("host", req.URL.Host),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *HTTPClient) send(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&c.totalRequests, 1)
	start := time.Now()
	resp, err := c.httpClient.Do(req)

	code := "error"
	if err == nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	metrics.HTTPRequests.WithLabelValues(req.URL.Host, req.Method, code).Inc()
	metrics.HTTPDuration.WithLabelValues(req.URL.Host, req.Method).Observe(time.Since(start).Seconds())
	return resp, err
}

func (c *HTTPClient) backoff(attempt int) time.Duration {
	return time.Duration(float64(c.config.RetryBackoff) * math.Pow(2, float64(attempt)))
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// HTTPStats represents HTTP client statistics
type HTTPStats struct {
	TotalRequests  int64
	FailedRequests int64
	CircuitState   CircuitState
}

// Stats returns request counters, retries included.
func (c *HTTPClient) Stats() HTTPStats {
	stats := HTTPStats{
		TotalRequests:  atomic.LoadInt64(&c.totalRequests),
		FailedRequests: atomic.LoadInt64(&c.failedRequests),
	}
	if c.breaker != nil {
		stats.CircuitState = c.breaker.State()
	}
	return stats
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
