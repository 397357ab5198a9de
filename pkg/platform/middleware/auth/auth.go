package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/httputil"
	"sowell/pkg/requestcontext"
)

// Claims is the subset of the access token the service relies on.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// KeySource resolves the RSA key that signed a token.
type KeySource interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Validator checks RS256 access tokens issued by the identity provider in
// front of the service.
type Validator struct {
	keys     KeySource
	audience string
}

// NewValidator creates a validator that accepts tokens for audience.
func NewValidator(keys KeySource, audience string) *Validator {
	return &Validator{keys: keys, audience: audience}
}

// Validate parses and verifies the token and returns its claims.
func (v *Validator) Validate(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RequireIdentity rejects requests without a valid token in header and stores
// the caller email in the request context.
func RequireIdentity(validator *Validator, header string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(header)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing access token"))
				return
			}

			claims, err := validator.Validate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithCaller(ctx, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ErrUnknownKey is returned when no published key matches the token's kid.
var ErrUnknownKey = errors.New("unknown signing key")

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// RemoteKeys fetches the identity provider's published certs and caches them
// for ttl. An unknown kid forces one refresh so key rotation is picked up.
type RemoteKeys struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewRemoteKeys creates a key source backed by certsURL.
func NewRemoteKeys(certsURL string, ttl time.Duration) *RemoteKeys {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RemoteKeys{
		url:    certsURL,
		ttl:    ttl,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (k *RemoteKeys) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.keys == nil || time.Since(k.fetchedAt) > k.ttl {
		if err := k.refresh(ctx); err != nil {
			return nil, err
		}
	}
	if key, ok := k.lookup(kid); ok {
		return key, nil
	}
	if err := k.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := k.lookup(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
}

// lookup falls back to the only key when the token carries no kid.
func (k *RemoteKeys) lookup(kid string) (*rsa.PublicKey, bool) {
	if kid == "" && len(k.keys) == 1 {
		for _, key := range k.keys {
			return key, true
		}
	}
	key, ok := k.keys[kid]
	return key, ok
}

func (k *RemoteKeys) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("build certs request: %w", err)
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch certs: unexpected status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode certs: %w", err)
	}
	keys, err := parseJWKS(set.Keys)
	if err != nil {
		return err
	}
	k.keys = keys
	k.fetchedAt = time.Now()
	return nil
}

// parseJWKS converts RSA JWKs into public keys indexed by kid. Non-RSA keys are skipped.
func parseJWKS(keys []jwk) (map[string]*rsa.PublicKey, error) {
	out := make(map[string]*rsa.PublicKey, len(keys))
	for _, key := range keys {
		if key.Kty != "RSA" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			return nil, fmt.Errorf("decode modulus for %q: %w", key.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			return nil, fmt.Errorf("decode exponent for %q: %w", key.Kid, err)
		}
		out[key.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
	}
	return out, nil
}
