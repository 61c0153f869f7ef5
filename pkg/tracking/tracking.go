package tracking

import (
	"net/http"

	"github.com/matst80/slask-storefront/pkg/types"
)

type Tracking interface {
	TrackSession(sessionId string, r *http.Request)
	TrackFilter(sessionId string, state types.FilterState, hits int)
	Close() error
}
