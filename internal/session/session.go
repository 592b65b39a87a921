package session

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User is the authenticated principal of a request.
type User struct {
	ID    uuid.UUID
	Email string
}

// Resolver returns the authenticated user for a request, or false when the
// request carries no valid session.
type Resolver interface {
	Resolve(r *http.Request) (User, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (User, bool)

func (f ResolverFunc) Resolve(r *http.Request) (User, bool) { return f(r) }

type Config struct {
	Secret string
	Cookie string
	Issuer string
}

// ConfigFromEnv reads SESSION_JWT_SECRET, SESSION_COOKIE and SESSION_ISSUER.
func ConfigFromEnv() Config {
	cookie := os.Getenv("SESSION_COOKIE")
	if cookie == "" {
		cookie = "sb-access-token"
	}
	return Config{
		Secret: os.Getenv("SESSION_JWT_SECRET"),
		Cookie: cookie,
		Issuer: os.Getenv("SESSION_ISSUER"),
	}
}

var ErrMissingSecret = errors.New("session: SESSION_JWT_SECRET is required")

// Claims are the access token claims issued by the auth service.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 access tokens taken from the Authorization
// header or the session cookie. The token subject is the user id.
type JWTResolver struct {
	secret []byte
	cookie string
	parser *jwt.Parser
	logger *zap.SugaredLogger
}

func NewJWTResolver(cfg Config, logger *zap.SugaredLogger) (*JWTResolver, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &JWTResolver{
		secret: []byte(cfg.Secret),
		cookie: cfg.Cookie,
		parser: jwt.NewParser(opts...),
		logger: logger,
	}, nil
}

// Resolve never fails loudly: a missing, expired or forged token is simply
// an anonymous request.
func (j *JWTResolver) Resolve(r *http.Request) (User, bool) {
	raw := j.token(r)
	if raw == "" {
		return User{}, false
	}
	var claims Claims
	_, err := j.parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		j.logger.Debugw("invalid session token", "err", err)
		return User{}, false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		j.logger.Debugw("invalid session subject", "sub", claims.Subject, "err", err)
		return User{}, false
	}
	return User{ID: id, Email: claims.Email}, true
}

func (j *JWTResolver) token(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
			return strings.TrimSpace(auth[len("bearer "):])
		}
	}
	if c, err := r.Cookie(j.cookie); err == nil {
		return c.Value
	}
	return ""
}

// Sign issues a token for user valid per claims. It is used by tooling and
// tests that need a session without the external auth service.
func Sign(secret string, claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return s, nil
}
