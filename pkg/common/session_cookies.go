package common

import (
	"net/http"

	"github.com/google/uuid"
)

const SessionCookieName = "sid"

func setSessionCookie(w http.ResponseWriter, sessionId string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionId,
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 30,
		Path:     "/",
	})
}

// SessionTracker is notified the first time a visitor gets a session id.
type SessionTracker interface {
	TrackSession(sessionId string, r *http.Request)
}

// HandleSessionCookie returns the visitor's session id, issuing a new one
// when the cookie is missing or not a valid uuid.
func HandleSessionCookie(tracker SessionTracker, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	sessionId := uuid.NewString()
	if tracker != nil {
		tracker.TrackSession(sessionId, r)
	}
	setSessionCookie(w, sessionId)
	return sessionId
}
