package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/netgraph/backend/internal/domain"
)

type RefreshTokenRepository struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepository(db *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

const tokenColumns = `id, user_id, token_hash, status, rotated_into, issued_at, expires_at`

func scanToken(row pgx.Row) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Status,
		&token.RotatedInto,
		&token.IssuedAt,
		&token.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *RefreshTokenRepository) Create(token *domain.RefreshToken) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, status, rotated_into, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.Status,
		token.RotatedInto,
		token.IssuedAt,
		token.ExpiresAt,
	)
	return err
}

func (r *RefreshTokenRepository) GetByTokenHash(tokenHash string) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`
	return scanToken(r.db.QueryRow(ctx, query, tokenHash))
}

// Rotate runs the whole read-validate-write cycle inside one transaction with
// the old row locked, so two concurrent rotations of the same record cannot
// both succeed: the loser finds the row already rotated and takes the replay
// path.
func (r *RefreshTokenRepository) Rotate(tokenHash string, successor *domain.RefreshToken) (*domain.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`
	record, err := scanToken(tx.QueryRow(ctx, query, tokenHash))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrTokenNotFound
	}

	now := time.Now()
	if err := record.CheckRotatable(now); err != nil {
		if errors.Is(err, domain.ErrTokenReplayed) {
			// A rotated or revoked secret came back: assume capture and
			// burn the chain plus every other live session of the owner.
			if revokeErr := revokeOnReplayTx(ctx, tx, record); revokeErr != nil {
				return nil, revokeErr
			}
			if commitErr := tx.Commit(ctx); commitErr != nil {
				return nil, commitErr
			}
		}
		return nil, err
	}

	successor.UserID = record.UserID
	successor.Status = domain.TokenStatusActive

	_, err = tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET status = $2, rotated_into = $3
		WHERE id = $1
	`, record.ID, domain.TokenStatusRotated, successor.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, status, rotated_into, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $6)
	`, successor.ID, successor.UserID, successor.TokenHash, successor.Status, successor.IssuedAt, successor.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return successor, nil
}

// revokeOnReplayTx revokes the still-active tail of the rotation chain
// starting at record, then every other active token of the owner. Terminal
// records keep their status; transitions stay monotonic.
func revokeOnReplayTx(ctx context.Context, tx pgx.Tx, record *domain.RefreshToken) error {
	_, err := tx.Exec(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, rotated_into FROM refresh_tokens WHERE id = $1
			UNION ALL
			SELECT t.id, t.rotated_into
			FROM refresh_tokens t
			JOIN chain c ON t.id = c.rotated_into
		)
		UPDATE refresh_tokens
		SET status = $2
		WHERE id IN (SELECT id FROM chain) AND status = $3
	`, record.ID, domain.TokenStatusRevoked, domain.TokenStatusActive)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET status = $2
		WHERE user_id = $1 AND status = $3
	`, record.UserID, domain.TokenStatusRevoked, domain.TokenStatusActive)
	return err
}

func (r *RefreshTokenRepository) Revoke(tokenHash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET status = $2
		WHERE token_hash = $1 AND status = $3
	`, tokenHash, domain.TokenStatusRevoked, domain.TokenStatusActive)
	return err
}

func (r *RefreshTokenRepository) RevokeAllByUser(userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET status = $2
		WHERE user_id = $1 AND status = $3
	`, userID, domain.TokenStatusRevoked, domain.TokenStatusActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepository) DeleteExpired() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	return err
}
