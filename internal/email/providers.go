package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// Sender delivers a single rendered Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs every message instead of delivering it, for local
// development. It retains a bounded buffer of recently sent messages so
// tests can assert on what would have gone out.
type LogSender struct {
	mu   sync.Mutex
	sent []Message
}

const logSenderBufferMax = 1000

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	logx.Infof("email: sent (logged) to=%s subject=%q type=%s", msg.To, msg.Subject, msg.Type)
	logx.Debugf("email: body=%s", redactBody(msg.TextBody))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if len(s.sent) > logSenderBufferMax {
		s.sent = s.sent[len(s.sent)-logSenderBufferMax:]
	}
	return nil
}

func (s *LogSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}

// NoopSender discards every message; used in tests that don't care about
// email delivery at all.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Message) error { return nil }

// PostmarkConfig configures delivery through the Postmark HTTP API.
type PostmarkConfig struct {
	APIToken  string
	FromEmail string
	Timeout   time.Duration
}

// PostmarkSender delivers through https://api.postmarkapp.com/email.
type PostmarkSender struct {
	cfg    PostmarkConfig
	client *http.Client
}

func NewPostmarkSender(cfg PostmarkConfig) *PostmarkSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &PostmarkSender{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type postmarkRequest struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HTMLBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(postmarkRequest{
		From: s.cfg.FromEmail, To: msg.To, Subject: msg.Subject,
		HTMLBody: msg.HTMLBody, TextBody: msg.TextBody, MessageStream: "outbound",
	})
	if err != nil {
		return fmt.Errorf("marshal postmark request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.postmarkapp.com/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build postmark request: %w", err)
	}
	req.Header.Set("X-Postmark-Server-Token", s.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email via postmark: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logx.Infof("email: sent via postmark to=%s type=%s", msg.To, msg.Type)
		return nil
	}

	var perr postmarkResponse
	_ = json.NewDecoder(resp.Body).Decode(&perr)
	return fmt.Errorf("postmark error %d: %s", perr.ErrorCode, perr.Message)
}

var sensitivePatterns = []string{
	"token=", "api_key=", "apikey=", "password=", "secret=",
	"code=", "key=", "auth=", "credential=", "access_token=", "refresh_token=",
}

const redactedMaxLen = 200

// redactBody strips token/secret-bearing query parameters from a body
// before it reaches log output.
func redactBody(body string) string {
	result := body
	for _, pattern := range sensitivePatterns {
		result = redactPattern(result, pattern)
	}
	if len(result) > redactedMaxLen {
		result = result[:redactedMaxLen] + "...(truncated)"
	}
	return result
}

func redactPattern(body, pattern string) string {
	lower := strings.ToLower(body)
	var out strings.Builder
	idx := 0
	for {
		pos := strings.Index(lower[idx:], pattern)
		if pos < 0 {
			out.WriteString(body[idx:])
			break
		}
		start := idx + pos
		out.WriteString(body[idx:start])
		out.WriteString(body[start : start+len(pattern)])
		out.WriteString("[REDACTED]")

		end := start + len(pattern)
		for end < len(body) {
			ch := body[end]
			if ch == ' ' || ch == '\t' || ch == '\n' || ch == '&' || ch == '"' || ch == '\'' || ch == '<' || ch == '>' {
				break
			}
			end++
		}
		idx = end
	}
	return out.String()
}
