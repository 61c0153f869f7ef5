package common

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type JsonHandlerFunc func(w http.ResponseWriter, r *http.Request, sessionId string, enc *json.Encoder) error

// JsonHandler answers preflight requests, resolves the session cookie and
// logs handler errors. Handlers write their own status codes.
func JsonHandler(logger *zap.Logger, tracker SessionTracker, fn JsonHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		sessionId := HandleSessionCookie(tracker, w, r)
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")

		err := fn(w, r, sessionId, json.NewEncoder(w))
		if err != nil {
			logger.Warn("error handling request", zap.String("path", r.URL.Path), zap.Error(err))
		}
	}
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusAccepted)
}
