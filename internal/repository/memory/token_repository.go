package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netgraph/backend/internal/domain"
)

type RefreshTokenRepository struct {
	mu     sync.Mutex
	byHash map[string]*domain.RefreshToken
	byID   map[uuid.UUID]*domain.RefreshToken
}

func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{
		byHash: map[string]*domain.RefreshToken{},
		byID:   map[uuid.UUID]*domain.RefreshToken{},
	}
}

func (r *RefreshTokenRepository) Create(token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	clone := *token
	r.byHash[token.TokenHash] = &clone
	r.byID[token.ID] = &clone
	return nil
}

func (r *RefreshTokenRepository) GetByTokenHash(tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byHash[tokenHash]
	if !ok {
		return nil, nil
	}
	clone := *token
	return &clone, nil
}

// Rotate mirrors the postgres transaction: validation, transition and
// successor insert happen under one lock, so concurrent rotations of the same
// record serialize and the loser takes the replay path.
func (r *RefreshTokenRepository) Rotate(tokenHash string, successor *domain.RefreshToken) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byHash[tokenHash]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}

	now := time.Now()
	if err := record.CheckRotatable(now); err != nil {
		if err == domain.ErrTokenReplayed {
			r.revokeOnReplayLocked(record)
		}
		return nil, err
	}

	if successor.ID == uuid.Nil {
		successor.ID = uuid.New()
	}
	successor.UserID = record.UserID
	successor.Status = domain.TokenStatusActive

	record.Status = domain.TokenStatusRotated
	successorID := successor.ID
	record.RotatedInto = &successorID

	clone := *successor
	r.byHash[successor.TokenHash] = &clone
	r.byID[successor.ID] = &clone

	result := *successor
	return &result, nil
}

func (r *RefreshTokenRepository) revokeOnReplayLocked(record *domain.RefreshToken) {
	// Walk the forward chain and revoke whatever is still active.
	for cur := record; cur != nil; {
		if cur.Status == domain.TokenStatusActive {
			cur.Status = domain.TokenStatusRevoked
		}
		if cur.RotatedInto == nil {
			break
		}
		cur = r.byID[*cur.RotatedInto]
	}
	// Every other live session of the owner goes too.
	for _, token := range r.byID {
		if token.UserID == record.UserID && token.Status == domain.TokenStatusActive {
			token.Status = domain.TokenStatusRevoked
		}
	}
}

func (r *RefreshTokenRepository) Revoke(tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byHash[tokenHash]
	if !ok || token.Status != domain.TokenStatusActive {
		return nil
	}
	token.Status = domain.TokenStatusRevoked
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, token := range r.byID {
		if token.UserID == userID && token.Status == domain.TokenStatusActive {
			token.Status = domain.TokenStatusRevoked
			count++
		}
	}
	return count, nil
}

func (r *RefreshTokenRepository) DeleteExpired() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for hash, token := range r.byHash {
		if token.Expired(now) {
			delete(r.byHash, hash)
			delete(r.byID, token.ID)
		}
	}
	return nil
}
