package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/netgraph/backend/internal/config"
	"github.com/netgraph/backend/internal/domain"
)

const tokenKindAccess = "access"

// Claims is the fixed access-token claim set. A typed struct instead of an
// open map keeps unexpected claims out of signed tokens.
type Claims struct {
	UserID    uuid.UUID   `json:"user_id"`
	Role      domain.Role `json:"role"`
	TokenKind string      `json:"token_kind"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies stateless HS256 access tokens. The signing
// key is fixed for the process lifetime; rotating it invalidates every
// outstanding access token, which is acceptable at a 15 minute TTL.
type TokenSigner struct {
	secret       []byte
	accessExpiry time.Duration
}

func NewTokenSigner(cfg *config.JWTConfig) *TokenSigner {
	return &TokenSigner{
		secret:       []byte(cfg.Secret),
		accessExpiry: cfg.AccessExpiry,
	}
}

func (s *TokenSigner) Issue(user *domain.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.accessExpiry)
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenKind: tokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, expiry and kind of an access token. Malformed,
// tampered and expired tokens all surface as ErrInvalidToken; the parser
// detail stays wrapped inside for logging.
func (s *TokenSigner) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenKind != tokenKindAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
