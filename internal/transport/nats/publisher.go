package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	domtrace "github.com/kailas-cloud/vecrec/internal/domain/trace"
)

// DefaultSubject is where finished traces are published.
const DefaultSubject = "vecrec.traces"

// msgPublisher is the subset of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// headerCarrier adapts nats.Msg headers for OTel propagation.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

type eventMessage struct {
	Stage      string    `json:"stage"`
	Start      time.Time `json:"start"`
	DurationMS float64   `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

type traceMessage struct {
	RequestID string         `json:"request_id"`
	Outcome   string         `json:"outcome"`
	Started   time.Time      `json:"started"`
	Finished  time.Time      `json:"finished"`
	Events    []eventMessage `json:"events"`
}

func toMessage(rec domtrace.Record) traceMessage {
	m := traceMessage{
		RequestID: rec.RequestID,
		Outcome:   string(rec.Outcome),
		Started:   rec.Started,
		Finished:  rec.Finished,
		Events:    make([]eventMessage, 0, len(rec.Events)),
	}
	for _, ev := range rec.Events {
		m.Events = append(m.Events, eventMessage{
			Stage:      string(ev.Name),
			Start:      ev.Start,
			DurationMS: ev.DurationMS(),
			Status:     string(ev.Status),
			Error:      ev.Error,
			Detail:     ev.Detail,
		})
	}
	return m
}

// TracePublisher sends finished trace records to NATS as JSON.
type TracePublisher struct {
	conn    msgPublisher
	subject string
}

// NewTracePublisher creates a publisher. An empty subject uses DefaultSubject.
func NewTracePublisher(conn msgPublisher, subject string) *TracePublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &TracePublisher{conn: conn, subject: subject}
}

// Publish sends one record on the subject. The request id is set as a header and
// the span context of ctx is propagated.
func (p *TracePublisher) Publish(ctx context.Context, rec domtrace.Record) error {
	data, err := json.Marshal(toMessage(rec))
	if err != nil {
		return fmt.Errorf("marshal trace %s: %w", rec.RequestID, err)
	}
	msg := &nats.Msg{Subject: p.subject, Data: data, Header: nats.Header{}}
	msg.Header.Set("Vecrec-Request-Id", rec.RequestID)
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish trace %s: %w", rec.RequestID, err)
	}
	return nil
}

// Connect dials NATS with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}
