package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTokenNotFound = errors.New("refresh token not found")
	ErrTokenExpired  = errors.New("refresh token expired")
	// ErrTokenReplayed signals reuse of an already rotated or revoked token.
	// The ledger treats this as a compromise of the session and revokes the
	// whole rotation chain plus any other active tokens of the owner.
	ErrTokenReplayed = errors.New("refresh token replayed")
)

type TokenStatus string

const (
	TokenStatusActive  TokenStatus = "active"
	TokenStatusRotated TokenStatus = "rotated"
	TokenStatusRevoked TokenStatus = "revoked"
)

// RefreshToken is a persisted ledger entry for one issued refresh secret.
// Only the SHA-256 hash of the secret is stored; the plaintext exists solely
// in the response that delivered it to the client.
//
// Status transitions are monotonic: active -> rotated (successor recorded in
// RotatedInto) or active -> revoked. Nothing leaves rotated or revoked.
type RefreshToken struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	TokenHash   string      `json:"-"`
	Status      TokenStatus `json:"status"`
	RotatedInto *uuid.UUID  `json:"rotated_into,omitempty"`
	IssuedAt    time.Time   `json:"issued_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// CheckRotatable reports whether the token may be rotated (or revoked via
// logout) at the given instant. Reuse of a terminal token wins over expiry:
// a rotated-then-expired token is still a replay signal.
func (t *RefreshToken) CheckRotatable(now time.Time) error {
	if t.Status == TokenStatusRotated || t.Status == TokenStatusRevoked {
		return ErrTokenReplayed
	}
	if t.Expired(now) {
		return ErrTokenExpired
	}
	return nil
}

type RefreshTokenRepository interface {
	Create(token *RefreshToken) error
	GetByTokenHash(tokenHash string) (*RefreshToken, error)
	// Rotate atomically transitions the record identified by tokenHash from
	// active to rotated and inserts successor (same owner) as the new active
	// record. Exactly one of two concurrent rotations of the same record
	// succeeds. On ErrTokenReplayed the forward chain and all other active
	// records of the owner have been revoked as part of the same operation.
	Rotate(tokenHash string, successor *RefreshToken) (*RefreshToken, error)
	// Revoke marks the active record for tokenHash revoked. Revoking a
	// missing or already terminal record is not an error.
	Revoke(tokenHash string) error
	// RevokeAllByUser revokes every active record of the user and returns
	// how many were affected.
	RevokeAllByUser(userID uuid.UUID) (int64, error)
	// DeleteExpired is a retention sweep; terminal records are otherwise
	// kept for audit and replay detection.
	DeleteExpired() error
}
