// Package apikey implements long-lived API key minting and verification
// (spec.md §4 supplemented feature, grounded on
// original_source/server-rust/src/handlers/api_keys.rs). A key is a
// second, non-interactive credential bound to the same user a session
// would otherwise authenticate; it is issued once in full and
// afterward only ever compared by hash.
package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

const (
	keyByteLength = 32
	keyPrefixLen  = 8
)

// Engine mints and validates API keys for a single store, HMACing raw
// keys under Secret the same way internal/tokens HMACs refresh tokens.
type Engine struct {
	Store  *store.Store
	Secret []byte
}

func New(s *store.Store, secret []byte) *Engine {
	return &Engine{Store: s, Secret: secret}
}

// Info is the metadata callers may show a user about their own key; the
// raw key itself is never part of it.
type Info struct {
	ID         uuid.UUID
	KeyPrefix  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// Get returns the current active key's metadata, if the user has one.
func (e *Engine) Get(ctx context.Context, userID uuid.UUID) (*Info, error) {
	keys, err := e.Store.APIKeys.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list api keys", err)
	}
	for _, k := range keys {
		if k.RevokedAt == nil {
			return &Info{ID: k.ID, KeyPrefix: k.KeyPrefix, CreatedAt: k.CreatedAt, LastUsedAt: k.LastUsedAt}, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "no api key found for user")
}

// Regenerate revokes every existing active key for the user and mints a
// new one, returning the raw key exactly once. Revoking before creating
// means a failure between the two steps leaves the user with no key
// rather than two live ones; the caller can simply retry.
func (e *Engine) Regenerate(ctx context.Context, userID uuid.UUID, label string) (rawKey string, info *Info, err error) {
	existing, err := e.Store.APIKeys.ListByUser(ctx, userID)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "list api keys", err)
	}
	for _, k := range existing {
		if k.RevokedAt == nil {
			if err := e.Store.APIKeys.Revoke(ctx, k.ID); err != nil {
				return "", nil, apperr.Wrap(apperr.Internal, "revoke existing api key", err)
			}
		}
	}

	rawKey, err = crypto.GenerateOpaqueToken(keyByteLength)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "generate api key", err)
	}
	now := time.Now()
	entity := &store.APIKey{
		ID: uuid.New(), UserID: userID, KeyHash: crypto.RefreshTokenHash(e.Secret, rawKey),
		KeyPrefix: rawKey[:keyPrefixLen], Label: label, CreatedAt: now,
	}
	if err := e.Store.APIKeys.Create(ctx, entity); err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "create api key", err)
	}

	return rawKey, &Info{ID: entity.ID, KeyPrefix: entity.KeyPrefix, CreatedAt: entity.CreatedAt}, nil
}

// Validate resolves a raw API key to its owning user, bumping
// last_used_at on success. An invalid or revoked key always returns the
// same Unauthorized "invalid api key" error regardless of which is the case, so a caller
// cannot distinguish "wrong key" from "revoked key" by response.
func (e *Engine) Validate(ctx context.Context, rawKey string) (*store.User, error) {
	hash := crypto.RefreshTokenHash(e.Secret, rawKey)
	key, err := e.Store.APIKeys.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.Unauthorized, "invalid api key")
		}
		return nil, apperr.Wrap(apperr.Internal, "load api key", err)
	}

	_ = e.Store.APIKeys.UpdateLastUsed(ctx, key.ID, time.Now())

	user, err := e.Store.Users.GetByID(ctx, key.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load user for api key", err)
	}
	return user, nil
}
