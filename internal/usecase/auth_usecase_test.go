package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/netgraph/backend/internal/config"
	"github.com/netgraph/backend/internal/domain"
	"github.com/netgraph/backend/internal/repository/memory"
)

func newTestAuth(t *testing.T, cfg *config.JWTConfig) (*AuthUsecase, *memory.UserRepository) {
	t.Helper()
	if cfg == nil {
		cfg = testJWTConfig()
	}
	userRepo := memory.NewUserRepository()
	tokenRepo := memory.NewRefreshTokenRepository()
	signer := NewTokenSigner(cfg)
	u := NewAuthUsecase(userRepo, tokenRepo, signer, cfg, zap.NewNop())
	require.NoError(t, u.BootstrapAdmin("admin", "correct-pw"))
	return u, userRepo
}

func TestLoginIssuesTokenPair(t *testing.T) {
	u, userRepo := newTestAuth(t, nil)

	user, pair, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEmpty(t, pair.RefreshToken)

	// The embedded subject must be the user's id and the expiry the
	// configured access TTL.
	claims, err := u.signer.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.WithinDuration(t,
		claims.IssuedAt.Time.Add(15*time.Minute),
		claims.ExpiresAt.Time,
		time.Second)

	stored, err := userRepo.GetByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, _, err := u.Login("admin", "wrong-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = u.Login("nobody", "correct-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	u, userRepo := newTestAuth(t, nil)

	user, err := userRepo.GetByUsername("admin")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, userRepo.Update(user))

	_, _, err = u.Login("admin", "correct-pw")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, pair0, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	pair1, err := u.Refresh(pair0.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair0.RefreshToken, pair1.RefreshToken)

	// Second use of the same secret is a replay and must fail.
	_, err = u.Refresh(pair0.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The replay burned the whole chain: the successor is gone too.
	_, err = u.Refresh(pair1.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshChainStaysUsableWithoutReplay(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, pair, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	// A well-behaved client can rotate indefinitely.
	for i := 0; i < 5; i++ {
		next, err := u.Refresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
		pair = next
	}
}

func TestRefreshRejectsExpiredSecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshExpiry = -time.Minute
	u, _ := newTestAuth(t, cfg)

	_, pair, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	_, err = u.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsUnknownSecret(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, err := u.Refresh("never-issued")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutThenRefreshFails(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, pair, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	require.NoError(t, u.Logout(pair.RefreshToken))

	_, err = u.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutIsIdempotent(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, pair, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	assert.NoError(t, u.Logout(pair.RefreshToken))
	assert.NoError(t, u.Logout(pair.RefreshToken))
	assert.NoError(t, u.Logout("garbage"))
}

func TestIndependentSessions(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, pairA, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)
	_, pairB, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	// Logging out one session leaves the other chain intact.
	require.NoError(t, u.Logout(pairA.RefreshToken))

	_, err = u.Refresh(pairA.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	pairB2, err := u.Refresh(pairB.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pairB.RefreshToken, pairB2.RefreshToken)
}

func TestReplayRevokesOtherSessions(t *testing.T) {
	u, _ := newTestAuth(t, nil)

	_, pairA, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)
	_, pairB, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	pairA2, err := u.Refresh(pairA.RefreshToken)
	require.NoError(t, err)

	// Replaying the rotated secret signals compromise; every session of
	// the user is revoked, not just the replayed chain.
	_, err = u.Refresh(pairA.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = u.Refresh(pairA2.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = u.Refresh(pairB.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutAllCountsActiveSessions(t *testing.T) {
	u, userRepo := newTestAuth(t, nil)

	user, err := userRepo.GetByUsername("admin")
	require.NoError(t, err)

	_, pairA, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)
	_, pairB, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	count, err := u.LogoutAll(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = u.Refresh(pairA.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = u.Refresh(pairB.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Nothing left to revoke.
	count, err = u.LogoutAll(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCurrentUser(t *testing.T) {
	u, userRepo := newTestAuth(t, nil)

	_, pair, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	user, err := u.CurrentUser(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = u.CurrentUser("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "zz"
	_, err = u.CurrentUser(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Deactivation takes effect immediately thanks to the store re-check.
	user.IsActive = false
	require.NoError(t, userRepo.Update(user))
	_, err = u.CurrentUser(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCurrentUserRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessExpiry = -time.Minute
	u, _ := newTestAuth(t, cfg)

	_, pair, err := u.Login("admin", "correct-pw")
	require.NoError(t, err)

	_, err = u.CurrentUser(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBootstrapAdminIsOneShot(t *testing.T) {
	u, userRepo := newTestAuth(t, nil)

	// A second bootstrap must not create another user.
	require.NoError(t, u.BootstrapAdmin("other", "pw"))

	count, err := userRepo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
