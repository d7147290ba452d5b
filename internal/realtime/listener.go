package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jarboard/backend/internal/logger"
)

// ListenerState tracks where the capture connection is in its lifecycle.
type ListenerState string

const (
	StateDisconnected ListenerState = "DISCONNECTED"
	StateConnecting   ListenerState = "CONNECTING"
	StateListening    ListenerState = "LISTENING"
)

// reconnectDelay is fixed: no exponential back-off, no retry cutoff. The
// listener runs for the lifetime of the server.
const reconnectDelay = 5 * time.Second

// NotifyConn is the slice of a LISTENing database connection the listener
// needs. pgx satisfies it in production; tests substitute their own.
type NotifyConn interface {
	WaitForNotification(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// ConnectFunc dials the database and issues LISTEN on the change channel.
type ConnectFunc func(ctx context.Context) (NotifyConn, error)

// PgxConnector returns the production ConnectFunc: one dedicated pgx
// connection per listener, outside the GORM pool, LISTENing on channel.
func PgxConnector(dsn, channel string) ConnectFunc {
	return func(ctx context.Context) (NotifyConn, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect for listen: %w", err)
		}
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("listen on %s: %w", channel, err)
		}
		return pgxNotifyConn{conn: conn}, nil
	}
}

type pgxNotifyConn struct {
	conn *pgx.Conn
}

func (c pgxNotifyConn) WaitForNotification(ctx context.Context) (string, error) {
	n, err := c.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return n.Payload, nil
}

func (c pgxNotifyConn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// Listener is the change capture adapter: it holds one notification
// connection, parses raw payloads into ChangeEvents, and hands them to the
// publisher. An owned component with an explicit Run lifecycle, constructed
// and wired by main rather than reached through a package global.
type Listener struct {
	log     *logger.Logger
	connect ConnectFunc
	pub     Publisher
	backoff time.Duration

	mu    sync.RWMutex
	state ListenerState
}

func NewListener(log *logger.Logger, connect ConnectFunc, pub Publisher) *Listener {
	return &Listener{
		log:     log.With("component", "ChangeListener"),
		connect: connect,
		pub:     pub,
		backoff: reconnectDelay,
		state:   StateDisconnected,
	}
}

func (l *Listener) State() ListenerState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Listener) setState(s ListenerState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Run drives the DISCONNECTED → CONNECTING → LISTENING loop until ctx is
// canceled. Connection errors drop back to DISCONNECTED and retry after the
// fixed delay; while down, clients simply receive no live updates.
func (l *Listener) Run(ctx context.Context) {
	defer l.setState(StateDisconnected)
	for {
		l.setState(StateConnecting)
		conn, err := l.connect(ctx)
		if err != nil {
			l.setState(StateDisconnected)
			if ctx.Err() != nil {
				return
			}
			l.log.Warn("change listener connect failed, retrying", "error", err, "retry_in", l.backoff)
			if !sleepCtx(ctx, l.backoff) {
				return
			}
			continue
		}

		l.setState(StateListening)
		l.log.Info("change listener connected")
		l.consume(ctx, conn)

		if ctx.Err() != nil {
			return
		}
		l.setState(StateDisconnected)
		l.log.Warn("change listener disconnected, retrying", "retry_in", l.backoff)
		if !sleepCtx(ctx, l.backoff) {
			return
		}
	}
}

// consume reads notifications until the connection errors or ctx ends.
func (l *Listener) consume(ctx context.Context, conn NotifyConn) {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	for {
		payload, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				l.log.Warn("wait for notification failed", "error", err)
			}
			return
		}
		ev, err := ParseChangePayload(payload)
		if err != nil {
			// Malformed payloads are dropped; the stream keeps going.
			l.log.Warn("dropping malformed change payload", "error", err)
			continue
		}
		if err := l.pub.PublishChange(ctx, ev); err != nil {
			l.log.Warn("publish change event failed", "error", err, "table", ev.Table, "entity_id", ev.EntityID)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type wirePayload struct {
	Table     string    `json:"table"`
	Operation string    `json:"operation"`
	UserID    uuid.UUID `json:"user_id"`
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// ParseChangePayload decodes the trigger's JSON payload into a ChangeEvent.
func ParseChangePayload(payload string) (ChangeEvent, error) {
	var raw wirePayload
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return ChangeEvent{}, fmt.Errorf("decode change payload: %w", err)
	}
	table, ok := ParseTable(raw.Table)
	if !ok {
		return ChangeEvent{}, fmt.Errorf("unknown table %q in change payload", raw.Table)
	}
	op, ok := ParseOperation(raw.Operation)
	if !ok {
		return ChangeEvent{}, fmt.Errorf("unknown operation %q in change payload", raw.Operation)
	}
	if raw.ID == uuid.Nil {
		return ChangeEvent{}, fmt.Errorf("change payload missing entity id")
	}
	ts := raw.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return ChangeEvent{
		Table:     table,
		Operation: op,
		UserID:    raw.UserID,
		EntityID:  raw.ID,
		Timestamp: ts,
	}, nil
}
