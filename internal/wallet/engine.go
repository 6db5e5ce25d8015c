// Package wallet implements the custodial-wallet state machine of spec
// §4.1/§4.6: EMPTY -> ENROLLED_LOCKED -> (unlock) -> ENROLLED_UNLOCKED,
// with rotate/recover/derive transitions layered on top.
package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
)

const (
	pinMinLen = 6
	pinMaxLen = 20
)

// Engine wires wallet material storage and the unlock cache. One Engine
// is shared process-wide; state mutated per-call is scoped by userID or
// sessionID.
type Engine struct {
	Store *store.Store
	cache *unlockCache
}

func New(s *store.Store) *Engine {
	return &Engine{Store: s, cache: newUnlockCache()}
}

func validatePIN(pin string) error {
	if len(pin) < pinMinLen || len(pin) > pinMaxLen {
		return apperr.New(apperr.Validation, "pin must be 6-20 digits")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return apperr.New(apperr.Validation, "pin must contain only ASCII digits")
		}
	}
	return nil
}

func mapStoreErr(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.New(apperr.NotFound, notFoundMsg)
	case errors.Is(err, store.ErrAlreadyExists):
		return apperr.New(apperr.WalletExists, "wallet already enrolled")
	default:
		return apperr.Wrap(apperr.Internal, "wallet store operation", err)
	}
}

// Lock evicts the session's cached unlock key (spec §4.6 "lock").
func (e *Engine) Lock(sessionID uuid.UUID) {
	e.cache.Lock(sessionID)
}
