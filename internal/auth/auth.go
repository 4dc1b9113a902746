// Package auth resolves bearer tokens to user identities. It verifies JWTs
// signed with a shared HS256 secret or, when a JWKS URL is configured, with
// the issuer's RS256 keys, and it honors logout through an optional Revoker.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const defaultJWKSRefresh = 15 * time.Minute

var (
	// ErrRevocationDisabled is returned by Logout when no Revoker is configured.
	ErrRevocationDisabled = errors.New("token revocation is not configured")
	// ErrNotRevocable is returned by Logout for tokens without a jti claim.
	ErrNotRevocable = errors.New("token has no id and cannot be revoked")
	// ErrSigningDisabled is returned by Issue when no shared secret is set.
	ErrSigningDisabled = errors.New("token signing requires a shared secret")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// Options configures an Auth.
type Options struct {
	// Secret enables HS256 tokens.
	Secret []byte
	// JWKSURL enables RS256 tokens verified against the issuer's key set.
	JWKSURL  string
	Audience string
	Issuer   string
	Revoker  Revoker
}

// Auth validates incoming JWT tokens.
type Auth struct {
	secret   []byte
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	revoker  Revoker
	parser   *jwt.Parser
	now      func() time.Time
}

// New builds an Auth from opts. At least one of Secret or JWKSURL is required.
func New(opts Options) (*Auth, error) {
	a := &Auth{
		secret:   opts.Secret,
		audience: opts.Audience,
		issuer:   opts.Issuer,
		revoker:  opts.Revoker,
		now:      time.Now,
	}

	var methods []string
	if len(opts.Secret) > 0 {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if opts.JWKSURL != "" {
		jwks, err := keyfunc.Get(opts.JWKSURL, keyfunc.Options{
			RefreshInterval:   defaultJWKSRefresh,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("loading jwks: %w", err)
		}
		a.jwks = jwks
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if len(methods) == 0 {
		return nil, errors.New("auth needs a shared secret or a JWKS URL")
	}

	a.parser = jwt.NewParser(jwt.WithValidMethods(methods))
	return a, nil
}

// Close stops the JWKS background refresh, if any.
func (a *Auth) Close() {
	if a.jwks != nil {
		a.jwks.EndBackground()
	}
}

// Authenticate resolves an Authorization header to an Identity. Every
// credential problem wraps types.ErrUnauthenticated; a failing Revoker is
// returned as is.
func (a *Auth) Authenticate(ctx context.Context, header string) (Identity, error) {
	raw, err := bearerToken(header)
	if err != nil {
		return Identity{}, unauthenticated(err)
	}

	var claims jwt.RegisteredClaims
	if _, err := a.parser.ParseWithClaims(raw, &claims, a.keyForToken); err != nil {
		return Identity{}, unauthenticated(err)
	}

	if claims.ExpiresAt == nil {
		return Identity{}, unauthenticated(errors.New("token has no expiry"))
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, true) {
		return Identity{}, unauthenticated(errors.New("invalid audience"))
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return Identity{}, unauthenticated(errors.New("invalid issuer"))
	}
	if claims.Subject == "" {
		return Identity{}, unauthenticated(errors.New("missing sub"))
	}

	id := Identity{
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if a.revoker != nil && id.TokenID != "" {
		revoked, err := a.revoker.IsRevoked(ctx, id.TokenID)
		if err != nil {
			return Identity{}, fmt.Errorf("checking revocation: %w", err)
		}
		if revoked {
			return Identity{}, unauthenticated(errors.New("token revoked"))
		}
	}
	return id, nil
}

// Logout revokes the identity's token until it expires.
func (a *Auth) Logout(ctx context.Context, id Identity) error {
	if a.revoker == nil {
		return ErrRevocationDisabled
	}
	if id.TokenID == "" {
		return ErrNotRevocable
	}
	return a.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt)
}

// Issue signs an HS256 token for userID valid for ttl.
func (a *Auth) Issue(userID string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrSigningDisabled
	}
	if userID == "" {
		return "", types.Invalid("user", types.ErrInvalidOwner)
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) keyForToken(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(a.secret) == 0 {
			return nil, errors.New("hmac tokens are not accepted")
		}
		return a.secret, nil
	case *jwt.SigningMethodRSA:
		if a.jwks == nil {
			return nil, errors.New("jwks not configured")
		}
		return a.jwks.Keyfunc(t)
	default:
		return nil, errors.New("invalid signing method")
	}
}

func unauthenticated(err error) error {
	return fmt.Errorf("%w: %v", types.ErrUnauthenticated, err)
}
