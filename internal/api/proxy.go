package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"league-tracker/internal/config"
	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("league-tracker/internal/api")

// ProxyClient sends scrape requests through the browser-automation proxy.
type ProxyClient struct {
	endpoint    string
	apiKey      string
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	client      *fasthttp.Client
	limiter     *RateLimiter
	logger      zerolog.Logger
}

type proxyRequest struct {
	URL string `json:"url"`
}

func NewProxyClient(cfg *config.Config, limiter *RateLimiter, logger zerolog.Logger) *ProxyClient {
	attempts := cfg.ProxyMaxRetries
	if attempts < 1 {
		attempts = 1
	}
	return &ProxyClient{
		endpoint:    cfg.ProxyURL,
		apiKey:      cfg.ProxyAPIKey,
		timeout:     cfg.ProxyTimeout,
		maxAttempts: attempts,
		retryDelay:  cfg.ProxyRetryDelay,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         cfg.ProxyTimeout,
			WriteTimeout:        cfg.ProxyTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: limiter,
		logger:  logger.With().Str("component", "proxy_client").Logger(),
	}
}

func NewSharedRateLimiter(cfg *config.Config) *RateLimiter {
	return NewRateLimiter(cfg.ProxyRateLimitPerMinute, constants.RateLimitWindow)
}

// Fetch scrapes targetURL through the proxy and returns the raw, still wrapped,
// response body. Transient failures are retried with a constant delay; once the
// attempts run out the last classified error is returned.
func (c *ProxyClient) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "ProxyClient.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("scrape.target_url", targetURL))

	payload, err := json.Marshal(proxyRequest{URL: targetURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode proxy request: %w", err)
	}

	delay := c.retryDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewConstant(delay))

	var body []byte
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, retryable, err := c.do(ctx, targetURL, payload)
		if err == nil {
			body = b
			return nil
		}
		if retryable && attempt < c.maxAttempts {
			c.logger.Warn().
				Err(err).
				Str("target_url", targetURL).
				Int("attempt", attempt).
				Int("max_attempts", c.maxAttempts).
				Dur("retry_in", delay).
				Msg("proxy request failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	span.SetAttributes(attribute.Int("scrape.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "proxy fetch failed")
		c.logger.Error().
			Err(err).
			Str("target_url", targetURL).
			Int("attempts", attempt).
			Msg("proxy request failed")
		return nil, err
	}

	c.logger.Debug().
		Str("target_url", targetURL).
		Int("attempts", attempt).
		Int("bytes", len(body)).
		Msg("proxy request succeeded")
	return body, nil
}

func (c *ProxyClient) do(ctx context.Context, targetURL string, payload []byte) ([]byte, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limiter wait: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(payload)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		retryable, classified := classifyTransportError(err, c.logger, targetURL)
		return nil, retryable, classified
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusTooManyRequests:
		return nil, true, &domain.ScrapeError{
			Kind:       domain.KindRateLimited,
			Message:    "proxy rate limit exceeded",
			StatusCode: status,
		}
	case status >= fasthttp.StatusInternalServerError:
		return nil, true, &domain.ScrapeError{
			Kind:       domain.KindUpstreamUnavailable,
			Message:    "proxy returned server error",
			StatusCode: status,
		}
	case status < 200 || status > 299:
		return nil, false, fmt.Errorf("proxy returned unexpected status %d", status)
	}

	// the body is owned by resp, which goes back to the pool on return
	body := append([]byte(nil), resp.Body()...)

	if appErr := detectApplicationFailure(body); appErr != nil {
		appErr.StatusCode = status
		return nil, true, appErr
	}

	return body, false, nil
}

// classifyTransportError maps timeouts and connection failures to
// UpstreamUnavailable. Anything else is returned unchanged and not retried.
func classifyTransportError(err error, logger zerolog.Logger, targetURL string) (bool, error) {
	var netErr net.Error
	switch {
	case errors.Is(err, fasthttp.ErrTimeout),
		errors.Is(err, fasthttp.ErrDialTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return true, &domain.ScrapeError{
			Kind:    domain.KindUpstreamUnavailable,
			Message: "proxy request timed out",
			Timeout: true,
			Err:     err,
		}
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, fasthttp.ErrConnectionClosed):
		return true, &domain.ScrapeError{
			Kind:    domain.KindUpstreamUnavailable,
			Message: "proxy connection failed",
			Err:     err,
		}
	}
	logger.Error().Err(err).Str("target_url", targetURL).Msg("proxy transport error")
	return false, err
}

// detectApplicationFailure looks for a failure the proxy reports inside a 200
// body, e.g. {"status":"error","message":"...","jobId":"..."}.
func detectApplicationFailure(body []byte) *domain.ScrapeError {
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	failed := false
	if status, ok := envelope["status"].(string); ok {
		switch strings.ToLower(status) {
		case "failed", "error", "failure":
			failed = true
		}
	}
	if success, ok := envelope["success"].(bool); ok && !success {
		failed = true
	}
	if !failed {
		return nil
	}

	message := firstString(envelope, "message", "error", "errorMessage")
	if message == "" {
		message = "proxy reported failure"
	}
	return &domain.ScrapeError{
		Kind:    domain.KindUpstreamUnavailable,
		Message: message,
		JobID:   firstString(envelope, "jobId", "taskId", "job_id", "task_id"),
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
