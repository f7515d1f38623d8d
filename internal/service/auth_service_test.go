package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/induction-api/internal/dto"
	"github.com/noah-isme/induction-api/internal/middleware"
	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/repository"
)

const testJWTSecret = "unit-test-secret"

func newTestAuthService(t *testing.T) (AuthService, *TokenDenylist, models.User) {
	t.Helper()
	db := setupServiceDB(t)
	user := seedUser(t, db, "Jane Doe", "jane@example.com", models.RoleEmployee)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	denylist := NewTokenDenylist(client)
	svc := NewAuthService(repository.NewUserRepository(db), NewTokenIssuer(testJWTSecret, 2*time.Hour), denylist, testValidator(), testLogger())
	return svc, denylist, user
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc, _, user := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "  JANE@example.com ", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, user.ID, resp.User.ID)
	require.WithinDuration(t, time.Now().Add(2*time.Hour), resp.ExpiresAt, time.Minute)

	session, err := middleware.ParseSession(resp.Token, testJWTSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, session.UserID)
	require.Equal(t, "employee", session.Role)
	require.Equal(t, "jane@example.com", session.Email)
	require.NotEmpty(t, session.TokenID)
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "jane@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Empty(t, resp.Token)
}

func TestAuthServiceLoginRejectsUnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	svc, denylist, _ := newTestAuthService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)
	session, err := middleware.ParseSession(resp.Token, testJWTSecret)
	require.NoError(t, err)

	revoked, err := denylist.IsRevoked(ctx, session.TokenID)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, svc.Logout(ctx, session.TokenID, session.ExpiresAt))

	revoked, err = denylist.IsRevoked(ctx, session.TokenID)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestAuthServiceMe(t *testing.T) {
	svc, _, user := newTestAuthService(t)

	me, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", me.Name)

	_, err = svc.Me(context.Background(), user.ID+100)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenDenylistWithoutRedisIsNoop(t *testing.T) {
	denylist := NewTokenDenylist(nil)
	require.NoError(t, denylist.Revoke(context.Background(), "abc", time.Now().Add(time.Hour)))
	revoked, err := denylist.IsRevoked(context.Background(), "abc")
	require.NoError(t, err)
	require.False(t, revoked)
}
