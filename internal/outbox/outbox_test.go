package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/store/memory"
)

type fakeEmailSender struct {
	sent []map[string]interface{}
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, payload map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, payload)
	return nil
}

func TestWorkerDeliversEmailAndMarksDelivered(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	email := &fakeEmailSender{}
	w := NewWorker(st, nil, email, nil, 100)

	item := &store.OutboxItem{
		ID: uuid.New(), Kind: store.OutboxEmail, Payload: map[string]interface{}{"template": "welcome"},
		NextAttempt: time.Now(), CreatedAt: time.Now(),
	}
	if err := st.Outbox.Enqueue(ctx, item); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.drainOnce(ctx)

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 delivered email, got %d", len(email.sent))
	}
	pending, err := st.Outbox.Dequeue(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(pending) != 0 {
		t.Fatal("expected the delivered item to no longer be dequeueable")
	}
}

func TestWorkerRetriesFailedDelivery(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	email := &fakeEmailSender{err: errors.New("smtp down")}
	w := NewWorker(st, nil, email, nil, 100)

	item := &store.OutboxItem{
		ID: uuid.New(), Kind: store.OutboxEmail, Payload: map[string]interface{}{"template": "welcome"},
		NextAttempt: time.Now(), CreatedAt: time.Now(),
	}
	if err := st.Outbox.Enqueue(ctx, item); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.drainOnce(ctx)

	if len(email.sent) != 0 {
		t.Fatal("expected no successful deliveries")
	}
	// NextAttempt should have moved into the future, so it is not
	// immediately redeliverable.
	pending, err := st.Outbox.Dequeue(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(pending) != 0 {
		t.Fatal("expected the failed item to be scheduled for later retry, not immediately ready")
	}
	future, err := st.Outbox.Dequeue(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if len(future) != 1 {
		t.Fatal("expected the failed item to still be pending for a later attempt")
	}
}

func TestBackoffWithJitterIsBoundedAndIncreasing(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		d := backoffWithJitter(attempt)
		if d <= 0 {
			t.Fatalf("attempt %d: expected a positive backoff, got %v", attempt, d)
		}
		if d > maxBackoff+maxBackoff/4 {
			t.Fatalf("attempt %d: backoff %v exceeds the cap plus jitter", attempt, d)
		}
		if d <= prev {
			t.Fatalf("attempt %d: backoff %v is not greater than the previous %v", attempt, d, prev)
		}
		prev = d
	}
	_ = prev
}
