// Package outbox drains store.Outbox: it delivers queued webhook,
// email, and notification items with retry/backoff/jitter, SSRF-checked
// webhook destinations, and HMAC-signed webhook bodies (spec.md §5).
// Every auth-pipeline operation enqueues fire-and-forget; this package
// is the consumer side that actually performs delivery.
package outbox

import (
	"context"
	"math/rand"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/time/rate"

	"github.com/cedros/core/internal/store"
)

const (
	maxAttempts     = 6
	baseBackoff     = 500 * time.Millisecond
	maxBackoff      = 30 * time.Second
	pollInterval    = 2 * time.Second
	itemsPerPoll    = 20
)

// EmailSender delivers templated email payloads; internal/email provides
// the concrete implementation. Kept as a narrow interface here so this
// package never imports a transactional-email SDK directly.
type EmailSender interface {
	Send(ctx context.Context, payload map[string]interface{}) error
}

// Notifier delivers in-app/push notification payloads.
type Notifier interface {
	Notify(ctx context.Context, payload map[string]interface{}) error
}

// Worker polls store.Outbox and dispatches each item by kind.
type Worker struct {
	Store    *store.Store
	Webhook  *WebhookSender
	Email    EmailSender
	Notifier Notifier
	Limiter  *rate.Limiter
}

// NewWorker builds a Worker rate-limited to maxPerSecond deliveries, so a
// burst of enqueued events cannot hammer a slow or misbehaving webhook
// destination.
func NewWorker(s *store.Store, webhook *WebhookSender, email EmailSender, notifier Notifier, maxPerSecond float64) *Worker {
	if maxPerSecond <= 0 {
		maxPerSecond = 10
	}
	return &Worker{
		Store: s, Webhook: webhook, Email: email, Notifier: notifier,
		Limiter: rate.NewLimiter(rate.Limit(maxPerSecond), int(maxPerSecond)+1),
	}
}

// Run polls until ctx is cancelled, delivering every ready item on each
// tick. The caller drains this on shutdown by cancelling ctx and waiting
// for Run to return (spec.md §5 bounded graceful shutdown).
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) {
	items, err := w.Store.Outbox.Dequeue(ctx, time.Now(), itemsPerPoll)
	if err != nil {
		logx.Errorf("outbox: dequeue failed: %v", err)
		return
	}
	for _, item := range items {
		if err := w.Limiter.Wait(ctx); err != nil {
			return
		}
		w.deliver(ctx, item)
	}
}

func (w *Worker) deliver(ctx context.Context, item *store.OutboxItem) {
	var err error
	switch item.Kind {
	case store.OutboxWebhook:
		if w.Webhook != nil {
			err = w.Webhook.Deliver(ctx, item.Payload)
		}
	case store.OutboxEmail:
		if w.Email != nil {
			err = w.Email.Send(ctx, item.Payload)
		}
	case store.OutboxNotification:
		if w.Notifier != nil {
			err = w.Notifier.Notify(ctx, item.Payload)
		}
	}

	if err == nil {
		if markErr := w.Store.Outbox.MarkDelivered(ctx, item.ID); markErr != nil {
			logx.Errorf("outbox: mark delivered failed for %s: %v", item.ID, markErr)
		}
		return
	}

	if item.Attempts+1 >= maxAttempts {
		logx.Errorf("outbox: item %s (%s) exhausted retries: %v", item.ID, item.Kind, err)
		// Left undelivered rather than marked delivered: the item stays
		// visible for operator inspection instead of silently vanishing.
		return
	}
	next := backoffWithJitter(item.Attempts)
	if markErr := w.Store.Outbox.MarkRetry(ctx, item.ID, time.Now().Add(next)); markErr != nil {
		logx.Errorf("outbox: mark retry failed for %s: %v", item.ID, markErr)
	}
	logx.Infof("outbox: item %s (%s) failed, retrying in %s: %v", item.ID, item.Kind, next, err)
}

// backoffWithJitter is exponential backoff capped at maxBackoff with
// +/-25% jitter, the same shape as the teacher's webhook retry delay.
func backoffWithJitter(attempt int) time.Duration {
	delay := baseBackoff * time.Duration(1<<uint(attempt))
	if delay > maxBackoff {
		delay = maxBackoff
	}
	jitterRange := int64(delay) / 4
	jitter := time.Duration(rand.Int63n(2*jitterRange+1) - jitterRange)
	result := delay + jitter
	if result < 0 {
		result = baseBackoff
	}
	return result
}
