package apikey_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apikey"
	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/store/memory"
)

func newTestEngine(t *testing.T) (*apikey.Engine, *store.User) {
	t.Helper()
	st := memory.New()
	now := time.Now()
	user := &store.User{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	if err := st.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return apikey.New(st, []byte("test-api-key-secret")), user
}

func TestRegenerateThenValidate(t *testing.T) {
	ctx := context.Background()
	eng, user := newTestEngine(t)

	rawKey, info, err := eng.Regenerate(ctx, user.ID, "primary")
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if rawKey == "" || info.KeyPrefix == "" {
		t.Fatal("expected a raw key and a prefix")
	}

	validated, err := eng.Validate(ctx, rawKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.ID != user.ID {
		t.Fatal("validate must resolve to the same user")
	}

	got, err := eng.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.KeyPrefix != info.KeyPrefix {
		t.Fatal("expected Get to return the same key's metadata")
	}
}

func TestRegenerateRevokesPreviousKey(t *testing.T) {
	ctx := context.Background()
	eng, user := newTestEngine(t)

	firstKey, _, err := eng.Regenerate(ctx, user.ID, "primary")
	if err != nil {
		t.Fatalf("first regenerate: %v", err)
	}
	if _, _, err := eng.Regenerate(ctx, user.ID, "primary"); err != nil {
		t.Fatalf("second regenerate: %v", err)
	}

	if _, err := eng.Validate(ctx, firstKey); err == nil {
		t.Fatal("expected the first key to be revoked once regenerated")
	}
}

func TestValidateRejectsUnknownKey(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	if _, err := eng.Validate(ctx, "not-a-real-key"); err == nil {
		t.Fatal("expected an unknown key to be rejected")
	}
}
