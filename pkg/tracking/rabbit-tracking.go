package tracking

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/messaging"
	"github.com/matst80/slask-storefront/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type RabbitTracking struct {
	country    string
	connection *amqp.Connection
	publisher  *messaging.Publisher
	queue      *common.QueueHandler[any]
	logger     *zap.Logger
}

const publishTimeout = 5 * time.Second

func NewRabbitTracking(url, country string, logger *zap.Logger) (*RabbitTracking, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect tracking: %w", err)
	}
	publisher, err := messaging.NewPublisher(conn, messaging.GlobalPrefix, messaging.FilterSettled)
	if err != nil {
		conn.Close()
		return nil, err
	}
	ret := &RabbitTracking{
		country:    country,
		connection: conn,
		publisher:  publisher,
		logger:     logger,
	}
	ret.queue = common.NewQueueHandler(ret.sendBatch, 50, time.Second)
	return ret, nil
}

// Close flushes queued events before closing the connection.
func (t *RabbitTracking) Close() error {
	t.queue.Stop()
	if err := t.publisher.Close(); err != nil {
		t.logger.Warn("closing tracking channel", zap.Error(err))
	}
	return t.connection.Close()
}

func (t *RabbitTracking) sendBatch(events []any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := t.publisher.Publish(ctx, messaging.FilterSettled, events); err != nil {
		t.logger.Warn("error sending tracking events", zap.Int("events", len(events)), zap.Error(err))
	}
}

type BaseEvent struct {
	SessionId string `json:"session_id"`
	Country   string `json:"country,omitempty"`
	Context   string `json:"context,omitempty"`
	Event     uint16 `json:"event"`
	Timestamp int64  `json:"ts"`
}

const (
	sessionEvent uint16 = 0
	filterEvent  uint16 = 1
)

func (t *RabbitTracking) baseEvent(event uint16, sessionId string) *BaseEvent {
	return &BaseEvent{
		SessionId: sessionId,
		Country:   t.country,
		Context:   "storefront",
		Event:     event,
		Timestamp: time.Now().Unix(),
	}
}

type Session struct {
	*BaseEvent
	UserAgent string `json:"user_agent,omitempty"`
	Ip        string `json:"ip,omitempty"`
	Language  string `json:"language,omitempty"`
}

func clientIp(r *http.Request) string {
	ip := r.Header.Get("X-Real-Ip")
	if ip == "" {
		ip = r.Header.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return ip
}

func (t *RabbitTracking) TrackSession(sessionId string, r *http.Request) {
	t.queue.Add(NewSessionEvent(t.baseEvent(sessionEvent, sessionId), r))
}

func NewSessionEvent(base *BaseEvent, r *http.Request) Session {
	return Session{
		BaseEvent: base,
		Language:  r.Header.Get("Accept-Language"),
		UserAgent: r.UserAgent(),
		Ip:        clientIp(r),
	}
}

// FilterEventData describes one settled filter state.
type FilterEventData struct {
	*BaseEvent
	Filters         types.FilterState `json:"filters"`
	Query           string            `json:"query"`
	ActiveFilters   int               `json:"active"`
	NumberOfResults int               `json:"noi"`
}

func NewFilterEvent(base *BaseEvent, state types.FilterState, hits int) FilterEventData {
	return FilterEventData{
		BaseEvent:       base,
		Filters:         state,
		Query:           types.QueryString(state),
		ActiveFilters:   state.ActiveFilterCount(),
		NumberOfResults: hits,
	}
}

func (t *RabbitTracking) TrackFilter(sessionId string, state types.FilterState, hits int) {
	t.queue.Add(NewFilterEvent(t.baseEvent(filterEvent, sessionId), state, hits))
}
