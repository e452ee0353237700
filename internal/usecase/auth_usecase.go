package usecase

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/netgraph/backend/internal/config"
	"github.com/netgraph/backend/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrStoreUnavailable marks persistence faults so handlers can answer
	// with service-unavailable instead of an authentication failure.
	ErrStoreUnavailable = errors.New("auth store unavailable")
)

type AuthUsecase struct {
	userRepo  domain.UserRepository
	tokenRepo domain.RefreshTokenRepository
	signer    *TokenSigner
	cfg       *config.JWTConfig
	log       *zap.Logger
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
}

func NewAuthUsecase(userRepo domain.UserRepository, tokenRepo domain.RefreshTokenRepository, signer *TokenSigner, cfg *config.JWTConfig, log *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		signer:    signer,
		cfg:       cfg,
		log:       log,
	}
}

func (u *AuthUsecase) Login(username, password string) (*domain.User, *TokenPair, error) {
	user, err := u.userRepo.GetByUsername(username)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	tokens, err := u.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh rotates the presented refresh secret and issues a fresh access
// token. Every ledger-level distinction (missing, expired, replayed, inactive
// owner) collapses to ErrInvalidCredentials here so the response cannot be
// used as an oracle; the detail is logged instead.
func (u *AuthUsecase) Refresh(refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	record, err := u.tokenRepo.GetByTokenHash(tokenHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if record == nil {
		return nil, ErrInvalidCredentials
	}

	user, err := u.userRepo.GetByID(record.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user == nil || !user.IsActive {
		u.log.Debug("refresh rejected for missing or inactive user",
			zap.String("user_id", record.UserID.String()))
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	newSecret, newHash, err := newRefreshSecret()
	if err != nil {
		return nil, err
	}
	successor := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    record.UserID,
		TokenHash: newHash,
		Status:    domain.TokenStatusActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(u.cfg.RefreshExpiry),
	}

	if _, err := u.tokenRepo.Rotate(tokenHash, successor); err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenReplayed):
			u.log.Warn("refresh token reuse detected, revoked all sessions for user",
				zap.String("user_id", record.UserID.String()))
			return nil, ErrInvalidCredentials
		case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenNotFound):
			u.log.Debug("refresh rejected", zap.Error(err))
			return nil, ErrInvalidCredentials
		default:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	accessToken, accessExp, err := u.signer.Issue(user, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newSecret,
		TokenType:    "bearer",
		ExpiresAt:    accessExp.Unix(),
	}, nil
}

// Logout revokes the presented refresh secret. Revoking an unknown or already
// terminal secret is treated as already logged out.
func (u *AuthUsecase) Logout(refreshToken string) error {
	if err := u.tokenRepo.Revoke(hashToken(refreshToken)); err != nil {
		u.log.Error("logout revoke failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// LogoutAll revokes every active session of the user and returns how many
// were ended.
func (u *AuthUsecase) LogoutAll(userID uuid.UUID) (int64, error) {
	count, err := u.tokenRepo.RevokeAllByUser(userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

// CurrentUser resolves a bearer access token to its owner. The user row is
// re-read on every call so deactivation takes effect before the token
// expires; the role embedded in the token is only a fallback for callers
// that cannot reach the store.
func (u *AuthUsecase) CurrentUser(accessToken string) (*domain.User, error) {
	claims, err := u.signer.Verify(accessToken)
	if err != nil {
		u.log.Debug("access token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}

	user, err := u.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (u *AuthUsecase) GetUserByID(id uuid.UUID) (*domain.User, error) {
	return u.userRepo.GetByID(id)
}

// BootstrapAdmin seeds the first admin account when the user table is empty.
// A failure here is a configuration error and should abort startup.
func (u *AuthUsecase) BootstrapAdmin(username, password string) error {
	count, err := u.userRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		u.log.Info("users already exist, skipping admin bootstrap")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := u.userRepo.Create(admin); err != nil {
		return err
	}

	u.log.Info("created initial admin user", zap.String("username", username))
	return nil
}

// SweepExpired deletes refresh token records past their expiry. Housekeeping
// only; terminal records inside their lifetime stay for replay detection.
func (u *AuthUsecase) SweepExpired() {
	if err := u.tokenRepo.DeleteExpired(); err != nil {
		u.log.Error("refresh token sweep failed", zap.Error(err))
	}
}

func (u *AuthUsecase) issueTokens(user *domain.User) (*TokenPair, error) {
	now := time.Now()

	accessToken, accessExp, err := u.signer.Issue(user, now)
	if err != nil {
		return nil, err
	}

	secret, secretHash, err := newRefreshSecret()
	if err != nil {
		return nil, err
	}

	record := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: secretHash,
		Status:    domain.TokenStatusActive,
		IssuedAt:  now,
		ExpiresAt: now.Add(u.cfg.RefreshExpiry),
	}
	if err := u.tokenRepo.Create(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: secret,
		TokenType:    "bearer",
		ExpiresAt:    accessExp.Unix(),
	}, nil
}

// newRefreshSecret returns a fresh opaque refresh secret and its storage
// hash. 32 random bytes; only the hash is ever persisted.
func newRefreshSecret() (secret, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	return secret, hashToken(secret), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
