package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthorized covers every reason a bearer token is not accepted.
	ErrUnauthorized = errors.New("unauthorized")
	ErrAPIDisabled  = errors.New("user does not have API access enabled")
	ErrNoProxyUser  = errors.New("client application has no proxy user")
)

// Token is a verified access token. Subject is the resource owner (a user
// id) and is empty for client-credentials tokens.
type Token struct {
	Subject  string
	ClientID string
	Scopes   []Scope
}

// TokenVerifier validates a raw bearer token without touching the store.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Token, error)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

type Claims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey enables HS256 tokens, used by the bundled token issuer
	// and in tests.
	SigningKey []byte
}

type jwtVerifier struct {
	cfg     JWTConfig
	keyFunc jwt.Keyfunc
	methods []string
}

func NewJWTVerifier(cfg JWTConfig) TokenVerifier {
	v := &jwtVerifier{cfg: cfg}
	switch {
	case len(cfg.SigningKey) > 0:
		v.methods = []string{"HS256"}
		v.keyFunc = func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
	default:
		v.methods = []string{"RS256"}
		v.keyFunc = jwksKeyFunc(NewJWKSCache(cfg.JWKSURL, defaultJWKSCacheTTL))
	}
	return v
}

func (v *jwtVerifier) Verify(_ context.Context, raw string) (*Token, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods), jwt.WithExpirationRequired()}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, v.keyFunc, opts...)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.ClientID == "" {
		return nil, fmt.Errorf("%w: token has no client_id", ErrUnauthorized)
	}
	return &Token{
		Subject:  claims.Subject,
		ClientID: claims.ClientID,
		Scopes:   ParseScopes(claims.Scope),
	}, nil
}

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSCache holds the RSA keys published by the token issuer and refetches
// them on a miss or after ttl.
type JWKSCache struct {
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	url       string
	ttl       time.Duration
	fetchedAt time.Time
	client    *http.Client
}

const defaultJWKSCacheTTL = 5 * time.Minute

func NewJWKSCache(url string, ttl time.Duration) *JWKSCache {
	return &JWKSCache{
		keys:   make(map[string]*rsa.PublicKey),
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *JWKSCache) Key(kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	fresh := time.Since(c.fetchedAt) <= c.ttl
	c.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := c.fetch(); err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if key, ok = c.keys[kid]; !ok {
		return nil, fmt.Errorf("key %q not found in JWKS", kid)
	}
	return key, nil
}

func (c *JWKSCache) fetch() error {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []jwksKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		n, errN := base64.RawURLEncoding.DecodeString(k.N)
		e, errE := base64.RawURLEncoding.DecodeString(k.E)
		if errN != nil || errE != nil {
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(new(big.Int).SetBytes(e).Int64())}
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func jwksKeyFunc(cache *JWKSCache) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return cache.Key(kid)
	}
}
