// Package auth verifies session tokens issued by the external identity
// provider and carries the resolved owner through the request context.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
)

// SessionCookie is the cookie name the identity provider sets for
// browser clients. API clients use the Authorization header instead.
const SessionCookie = "__session"

type contextKey string

const ownerKey contextKey = "owner"

// Verifier validates HS256 session tokens against a shared secret.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier. issuer is optional; when set, tokens
// from any other issuer are rejected.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// VerifyToken parses and validates a session token and returns its
// subject, the external identity identifier of the caller.
func (v *Verifier) VerifyToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", core.ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", core.ErrUnauthenticated
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return "", fmt.Errorf("%w: unexpected issuer %q", core.ErrUnauthenticated, claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", core.ErrUnauthenticated
	}

	return claims.Subject, nil
}

// VerifyRequest resolves the caller from the Authorization header or,
// failing that, the session cookie.
func (v *Verifier) VerifyRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, found := strings.CutPrefix(h, "Bearer ")
		if !found {
			return "", core.ErrUnauthenticated
		}
		return v.VerifyToken(strings.TrimSpace(token))
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return v.VerifyToken(c.Value)
	}
	return "", core.ErrUnauthenticated
}

// Middleware rejects unauthenticated requests and stores the owner in
// the request context for downstream handlers.
func (v *Verifier) Middleware(onUnauthenticated func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := v.VerifyRequest(r)
			if err != nil {
				onUnauthenticated(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// WithOwner returns a context carrying the authenticated owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// OwnerFromContext extracts the authenticated owner from the context.
func OwnerFromContext(ctx context.Context) (string, error) {
	owner, ok := ctx.Value(ownerKey).(string)
	if !ok || owner == "" {
		return "", core.ErrUnauthenticated
	}
	return owner, nil
}

// SignToken issues a session token. The server never issues tokens in
// production, the identity provider does; this exists for tooling and
// tests that need a valid token against the shared secret.
func (v *Verifier) SignToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    v.issuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// WebhookVerifier authenticates identity lifecycle webhooks with an
// HMAC-SHA256 signature over the raw request body.
type WebhookVerifier struct {
	secret []byte
}

// SignatureHeader carries the hex-encoded HMAC of the webhook body.
const SignatureHeader = "X-Webhook-Signature"

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify checks the signature against the body. Comparison is constant
// time.
func (wv *WebhookVerifier) Verify(body []byte, signature string) error {
	mac := hmac.New(sha256.New, wv.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return core.ErrUnauthenticated
	}
	return nil
}

// Sign computes the signature for a body. Used by tests and tooling.
func (wv *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, wv.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
