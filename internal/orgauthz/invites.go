package orgauthz

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
)

const inviteTokenBytes = 24
const inviteTTL = 7 * 24 * time.Hour

// CreateInvite issues an invite token for exactly one of email/wallet
// (spec §3/§4.5), rejecting a second pending invite to the same recipient.
func (e *Engine) CreateInvite(ctx context.Context, orgID uuid.UUID, email, wallet *string, role store.Role) (*store.Invite, string, error) {
	if (email == nil) == (wallet == nil) {
		return nil, "", apperr.New(apperr.Validation, "invite requires exactly one of email or wallet_address")
	}
	if existing, err := e.Store.Invites.GetPendingForRecipient(ctx, orgID, email, wallet); err == nil && existing != nil {
		return nil, "", apperr.New(apperr.EmailExists, "a pending invite already exists for this recipient")
	}

	token, err := crypto.GenerateOpaqueToken(inviteTokenBytes)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Internal, "generate invite token", err)
	}

	invite := &store.Invite{
		ID:            uuid.New(),
		OrgID:         orgID,
		Email:         email,
		WalletAddress: wallet,
		Role:          role,
		TokenHash:     crypto.SHA256Hex(token),
		ExpiresAt:     time.Now().Add(inviteTTL),
		CreatedAt:     time.Now(),
	}
	if err := e.Store.Invites.Create(ctx, invite); err != nil {
		return nil, "", apperr.Wrap(apperr.Internal, "create invite", err)
	}
	return invite, token, nil
}

// AcceptInvite validates the recipient identity against the invite (spec
// §4.5) and accepts atomically, idempotent on replay.
func (e *Engine) AcceptInvite(ctx context.Context, token string, userID uuid.UUID, userEmail, userWallet *string) (*store.Membership, error) {
	hash := crypto.SHA256Hex(token)
	invite, err := e.Store.Invites.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "invite not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "load invite", err)
	}
	if time.Now().After(invite.ExpiresAt) {
		return nil, apperr.New(apperr.TokenExpired, "invite has expired")
	}

	if invite.Email != nil {
		if userEmail == nil || *userEmail != *invite.Email {
			return nil, apperr.New(apperr.Forbidden, "invite recipient mismatch")
		}
	} else if invite.WalletAddress != nil {
		if userWallet == nil || *userWallet != *invite.WalletAddress {
			return nil, apperr.New(apperr.Forbidden, "invite recipient mismatch")
		}
	}

	m, err := e.Store.Tx.AcceptInviteAtomic(ctx, invite, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "accept invite", err)
	}
	return m, nil
}
