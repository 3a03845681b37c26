package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// SessionCookie is the cookie that identifies a browser session
const SessionCookie = "tracker_session"

type sessionKey struct{}

// SessionMiddleware makes sure every request carries a session ID
//
// The ID is a random UUID stored in a signed cookie. A missing, tampered or
// expired cookie gets a fresh ID. An empty secret signs with a random key,
// so sessions do not survive a restart.
func SessionMiddleware(ttl time.Duration, secret []byte) func(http.Handler) http.Handler {
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	codec := newSessionCodec(secret, ttl)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				var decoded string
				if err := codec.Decode(SessionCookie, c.Value, &decoded); err == nil {
					if parsed, err := uuid.Parse(decoded); err == nil {
						id = parsed.String()
					}
				}
			}

			if id == "" {
				id = uuid.NewString()
			}

			// refresh on every request so active sessions do not expire
			if encoded, err := codec.Encode(SessionCookie, id); err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    encoded,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newSessionCodec(secret []byte, ttl time.Duration) *securecookie.SecureCookie {
	codec := securecookie.New(secret, nil)
	if ttl > 0 {
		codec.MaxAge(int(ttl.Seconds()))
	}
	return codec
}

// SessionID returns the session ID stored by SessionMiddleware ("" if none)
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSessionID stores a session ID in ctx (used by tests and tools)
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}
