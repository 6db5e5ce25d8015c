package outbox

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

// WebhookConfig is the single operator-configured webhook destination
// events are delivered to (spec.md §5), grounded on the teacher's own
// WebhookConfig: a target URL, an HMAC secret, and per-request timeout.
type WebhookConfig struct {
	URL        string
	Secret     []byte
	Timeout    time.Duration
	MaxRetries int
}

// WebhookSender signs and POSTs webhook payloads, short-circuiting
// further attempts once the destination is tripping a circuit breaker
// rather than piling up timeouts against a dead endpoint.
type WebhookSender struct {
	cfg        WebhookConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[any]
}

// NewWebhookSender validates the secret up front and fails closed rather
// than constructing a sender that would silently never sign correctly
// (spec.md SEC-008: no deprecated fail-open constructor is carried
// forward here, unlike the teacher's `new()`/`try_new()` split).
func NewWebhookSender(cfg WebhookConfig) (*WebhookSender, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("outbox: webhook secret must be at least 32 bytes")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "webhook-delivery",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &WebhookSender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
	}, nil
}

// signPayload HMAC-SHA256s "{timestamp}.{body}", matching the teacher's
// sign_payload construction so a receiving webhook verifier's signature
// scheme needs no change.
func (s *WebhookSender) signPayload(timestamp, body string) string {
	mac := hmac.New(sha256.New, s.cfg.Secret)
	mac.Write([]byte(timestamp + "." + body))
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver POSTs a single signed webhook request. Retries and backoff are
// the caller's concern (the outbox worker already retries across polls
// via MarkRetry); Deliver itself makes exactly one attempt, gated by the
// circuit breaker and an SSRF destination check.
func (s *WebhookSender) Deliver(ctx context.Context, payload map[string]interface{}) error {
	if err := validateDestination(ctx, s.cfg.URL); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("outbox: marshal webhook payload: %w", err)
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := s.signPayload(timestamp, string(body))

	_, err = s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Cedros-Signature", signature)
		req.Header.Set("X-Cedros-Timestamp", timestamp)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("outbox: webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
