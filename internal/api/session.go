/**
 * @description
 * Registration session tokens. The OTP flow is anonymous, so requests are tied
 * together by a signed session token instead of a durable login: issuing an
 * OTP mints (or reuses) an HS256 JWT carrying a random session id, and
 * verification requires that token back. The session id keys the pending
 * registration store.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: JWT signing and parsing.
 */

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const sessionIDContextKey contextKey = "sessionID"

// sessionTokenTTL comfortably exceeds the OTP validity budget so a token never
// dies while its code is still usable.
const sessionTokenTTL = 30 * time.Minute

var errInvalidSessionToken = errors.New("invalid session token")

// SessionTokens mints and validates registration session tokens.
type SessionTokens struct {
	secret []byte
}

// NewSessionTokens creates a token signer from the shared HS256 secret.
func NewSessionTokens(secret string) *SessionTokens {
	return &SessionTokens{secret: []byte(secret)}
}

// Issue mints a token for a fresh random session id.
func (s *SessionTokens) Issue() (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(sessionTokenTTL).Unix(),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return token, sessionID, err
}

// Parse validates a token and returns its session id.
func (s *SessionTokens) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidSessionToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", errInvalidSessionToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidSessionToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errInvalidSessionToken
	}
	return sid, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return strings.TrimSpace(r.Header.Get("X-Session-Token"))
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}

// RequireSession rejects requests without a valid session token and injects
// the session id into the request context.
func RequireSession(tokens *SessionTokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid, err := tokens.Parse(bearerToken(r))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"A valid session token is required"}`))
				return
			}
			ctx := context.WithValue(r.Context(), sessionIDContextKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID retrieves the session id placed in the context by RequireSession.
func GetSessionID(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sessionIDContextKey).(string)
	return sid, ok && sid != ""
}
