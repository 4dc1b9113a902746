package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

var testSecret = []byte("test-secret")

func newTestAuth(t *testing.T, revoker Revoker) *Auth {
	t.Helper()
	a, err := New(Options{
		Secret:   testSecret,
		Audience: "dayplan",
		Issuer:   "https://issuer/",
		Revoker:  revoker,
	})
	require.NoError(t, err)
	return a
}

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func newMiniredisRevoker(t *testing.T) (*RedisRevoker, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return NewRedisRevoker(client), m
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer header.payload.signature", want: "header.payload.signature"},
		{name: "surrounding spaces", header: "  Bearer a.b.c  ", want: "a.b.c"},
		{name: "missing", header: "", wantErr: errMissingAuthorization},
		{name: "blank", header: "   ", wantErr: errMissingAuthorization},
		{name: "wrong scheme", header: "Basic a.b.c", wantErr: errBadAuthorization},
		{name: "prefix only", header: "Bearer ", wantErr: errBadAuthorization},
		{name: "not a jwt", header: "Bearer opaque-token", wantErr: errBadAuthorization},
		{name: "many periods", header: "Bearer " + strings.Repeat(".", 1000), wantErr: errBadAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRequiresKeyMaterial(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestIssueAndAuthenticate(t *testing.T) {
	a := newTestAuth(t, nil)

	token, err := a.Issue("user-123", 5*time.Minute)
	require.NoError(t, err)

	id, err := a.Authenticate(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)
	assert.NotEmpty(t, id.TokenID)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), id.ExpiresAt, 2*time.Second)
}

func TestIssueValidation(t *testing.T) {
	a := newTestAuth(t, nil)

	_, err := a.Issue("", time.Minute)
	assert.ErrorIs(t, err, types.ErrInvalidOwner)

	_, err = a.Issue("user", 0)
	assert.Error(t, err)
}

func TestAuthenticateRejects(t *testing.T) {
	a := newTestAuth(t, nil)
	now := time.Now()
	valid := jwt.MapClaims{
		"sub": "user-123",
		"aud": "dayplan",
		"iss": "https://issuer/",
		"exp": now.Add(5 * time.Minute).Unix(),
		"iat": now.Add(-time.Minute).Unix(),
	}
	with := func(key string, value any) jwt.MapClaims {
		c := jwt.MapClaims{}
		for k, v := range valid {
			c[k] = v
		}
		if value == nil {
			delete(c, key)
		} else {
			c[key] = value
		}
		return c
	}

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, valid).SignedString([]byte("other"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "expired", header: "Bearer " + signHS256(t, with("exp", now.Add(-time.Minute).Unix()))},
		{name: "no expiry", header: "Bearer " + signHS256(t, with("exp", nil))},
		{name: "wrong audience", header: "Bearer " + signHS256(t, with("aud", "someone-else"))},
		{name: "wrong issuer", header: "Bearer " + signHS256(t, with("iss", "https://evil/"))},
		{name: "missing subject", header: "Bearer " + signHS256(t, with("sub", nil))},
		{name: "wrong secret", header: "Bearer " + otherSecret},
		{name: "garbage", header: "Bearer a.b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), tt.header)
			assert.ErrorIs(t, err, types.ErrUnauthenticated)
		})
	}

	t.Run("valid claims pass", func(t *testing.T) {
		id, err := a.Authenticate(context.Background(), "Bearer "+signHS256(t, valid))
		require.NoError(t, err)
		assert.Equal(t, "user-123", id.UserID)
	})
}

func TestRejectsUnexpectedAlgorithm(t *testing.T) {
	a := newTestAuth(t, nil)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "Bearer "+signed)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)
}

func TestLogoutRevokesToken(t *testing.T) {
	revoker, m := newMiniredisRevoker(t)
	a := newTestAuth(t, revoker)
	ctx := context.Background()

	token, err := a.Issue("user-123", 10*time.Minute)
	require.NoError(t, err)
	header := "Bearer " + token

	id, err := a.Authenticate(ctx, header)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, id))

	_, err = a.Authenticate(ctx, header)
	assert.ErrorIs(t, err, types.ErrUnauthenticated)

	ttl := m.TTL(revokedKeyPrefix + id.TokenID)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)

	other, err := a.Issue("user-123", 10*time.Minute)
	require.NoError(t, err)
	_, err = a.Authenticate(ctx, "Bearer "+other)
	assert.NoError(t, err, "other sessions stay valid")
}

func TestLogoutErrors(t *testing.T) {
	a := newTestAuth(t, nil)
	err := a.Logout(context.Background(), Identity{UserID: "u", TokenID: "jti", ExpiresAt: time.Now().Add(time.Minute)})
	assert.ErrorIs(t, err, ErrRevocationDisabled)

	revoker, _ := newMiniredisRevoker(t)
	a = newTestAuth(t, revoker)
	err = a.Logout(context.Background(), Identity{UserID: "u"})
	assert.ErrorIs(t, err, ErrNotRevocable)
}

func TestRevokerFailureIsNotUnauthenticated(t *testing.T) {
	revoker, m := newMiniredisRevoker(t)
	a := newTestAuth(t, revoker)

	token, err := a.Issue("user-123", time.Minute)
	require.NoError(t, err)

	m.Close()

	_, err = a.Authenticate(context.Background(), "Bearer "+token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrUnauthenticated)
}

func TestRedisRevokerSkipsExpiredTokens(t *testing.T) {
	revoker, m := newMiniredisRevoker(t)
	ctx := context.Background()

	require.NoError(t, revoker.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, m.Exists(revokedKeyPrefix+"old"))

	revoked, err := revoker.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}
