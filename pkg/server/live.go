package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/reconcile"
	"github.com/matst80/slask-storefront/pkg/types"
	"go.uber.org/zap"
)

// upgrader leaves CheckOrigin unset: gorilla then accepts requests without
// an Origin header and rejects any whose origin host is not the request host.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	MessageState    = "state"
	MessageNavigate = "navigate"
	MessageResults  = "results"

	// OpFlush settles a pending change right away, sent when the page is
	// about to unload.
	OpFlush types.FilterOp = "flush"

	writeWait = 5 * time.Second
)

// LiveMessage is sent from the server to the page. A navigate message asks
// the page to replace its current history entry without scrolling.
type LiveMessage struct {
	Type    string             `json:"type"`
	Url     string             `json:"url,omitempty"`
	Replace bool               `json:"replace,omitempty"`
	Scroll  bool               `json:"scroll"`
	State   *types.FilterState `json:"state,omitempty"`
	Active  int                `json:"active"`
	Result  *catalog.Result    `json:"result,omitempty"`
}

type liveSession struct {
	id   string
	out  chan LiveMessage
	done chan struct{}
}

func (s *liveSession) send(ctx context.Context, msg LiveMessage) error {
	select {
	case s.out <- msg:
		return nil
	case <-s.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *liveSession) writeLoop(conn *websocket.Conn, logger *zap.Logger) {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("live session write failed", zap.String("session", s.id), zap.Error(err))
				return
			}
		}
	}
}

func (ws *WebServer) resultsNotifier(session *liveSession, visitorId string) reconcile.Notifier {
	return func(ctx context.Context, state types.FilterState) {
		result, err := ws.Results.Query(ctx, state, catalog.Page{}.Sanitize())
		if err != nil {
			ws.Logger.Warn("live results failed", zap.String("session", session.id), zap.Error(err))
			return
		}
		ws.trackFilter(visitorId, state, result.TotalHits)
		_ = session.send(ctx, LiveMessage{
			Type:   MessageResults,
			State:  &state,
			Active: state.ActiveFilterCount(),
			Result: result,
		})
	}
}

// LiveFilter keeps one filter state per connection. The page sends filter
// actions, the server answers with debounced navigate and results messages.
func (ws *WebServer) LiveFilter(w http.ResponseWriter, r *http.Request) {
	visitorId := ""
	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		visitorId = c.Value
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	noFilterRequests.WithLabelValues("live").Inc()

	session := &liveSession{
		id:   uuid.NewString(),
		out:  make(chan LiveMessage, 8),
		done: make(chan struct{}),
	}
	rec := reconcile.New(r.URL.Query(), ws.Catalog,
		reconcile.WithPath(ws.path()),
		reconcile.WithDebounce(ws.debounce()),
		reconcile.WithLogger(ws.Logger.With(zap.String("session", session.id))),
		reconcile.WithNavigator(reconcile.NavigatorFunc(func(ctx context.Context, url string) error {
			return session.send(ctx, LiveMessage{Type: MessageNavigate, Url: url, Replace: true, Scroll: false})
		})),
		reconcile.WithNotifier(ws.resultsNotifier(session, visitorId)),
	)
	ws.Sessions.Add(session.id, rec)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		session.writeLoop(conn, ws.Logger)
	}()

	state := rec.State()
	_ = session.send(r.Context(), LiveMessage{
		Type:   MessageState,
		Url:    rec.URL(),
		State:  &state,
		Active: state.ActiveFilterCount(),
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var action types.FilterAction
		if err := json.Unmarshal(payload, &action); err != nil {
			ws.Logger.Debug("ignoring live message", zap.String("session", session.id), zap.Error(err))
			continue
		}
		if action.Op == OpFlush {
			rec.Flush()
			continue
		}
		rec.Dispatch(action)
	}

	ws.Sessions.Remove(session.id)
	close(session.done)
	<-writerDone
}
