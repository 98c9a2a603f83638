package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"server/internal/domain"
)

const guestHeader = "X-Guest-ID"

type accountContextKey struct{}

// AccountKey stores the resolved caller account on the request context.
var AccountKey = accountContextKey{}

// AccessClaims is the token payload for authenticated accounts. Plan
// carries the subscription tier at signing time; the profiles row remains
// the authority when available.
type AccessClaims struct {
	Plan string `json:"plan,omitempty"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SignAccessToken mints an HS256 token for the given account. Used by the
// auth callback and by tests.
func SignAccessToken(secret, subject, plan, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Plan: plan,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// PremiumResolver reports whether an authenticated account holds a
// premium subscription. It receives the token's name claim so the
// backing store can create the profile row on first sight of a valid
// token. nil falls back to the token's plan claim.
type PremiumResolver func(ctx context.Context, accountID, displayName string) (bool, error)

// Identity resolves every request to an account: a Bearer token yields an
// authenticated account, a client-generated guest UUID header yields a
// guest one. Requests with neither, or with a bad token, are rejected.
func Identity(secret string, premium PremiumResolver) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header := r.Header.Get("Authorization"); header != "" {
				parts := strings.SplitN(header, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					http.Error(w, "invalid authorization", http.StatusUnauthorized)
					return
				}
				acct, err := resolveToken(r.Context(), parser, secret, parts[1], premium)
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
				return
			}

			if guestID := strings.TrimSpace(r.Header.Get(guestHeader)); guestID != "" {
				if _, err := uuid.Parse(guestID); err != nil {
					http.Error(w, "invalid guest id", http.StatusUnauthorized)
					return
				}
				acct := domain.Account{ID: guestID, Mode: domain.AccountModeGuest}
				next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acct)))
				return
			}

			http.Error(w, "missing credentials", http.StatusUnauthorized)
		})
	}
}

func resolveToken(ctx context.Context, parser *jwt.Parser, secret, token string, premium PremiumResolver) (domain.Account, error) {
	var claims AccessClaims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}); err != nil {
		return domain.Account{}, err
	}
	acct := domain.Account{
		ID:      claims.Subject,
		Mode:    domain.AccountModeAuthenticated,
		Premium: claims.Plan == "premium",
	}
	if premium != nil {
		if isPremium, err := premium(ctx, acct.ID, claims.Name); err == nil {
			acct.Premium = isPremium
		}
	}
	return acct, nil
}

// WithAccount stores the account on the context.
func WithAccount(ctx context.Context, acct domain.Account) context.Context {
	return context.WithValue(ctx, AccountKey, acct)
}

// AccountFromContext returns the resolved account for the request.
func AccountFromContext(ctx context.Context) (domain.Account, bool) {
	acct, ok := ctx.Value(AccountKey).(domain.Account)
	return acct, ok
}
