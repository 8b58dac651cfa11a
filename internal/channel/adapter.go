// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package channel is the realtime connection to the chat backend.
//
// Frames are JSON envelopes of the form {"event": "...", "data": ...}.
// An Adapter owns one websocket connection, retries a failed or dropped
// dial a fixed number of times with a fixed delay, and re-emits the last
// join after a successful dial so the server puts the client back in its
// room.
//
// Handlers are bound once at construction and never rebound, so a
// reconnect can never double-deliver through stale listeners.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taskdesk/taskchat-tui/internal/model"
)

// =============================================================================
// EVENTS AND PAYLOADS
// =============================================================================

// Event names are fixed by the backend contract.
const (
	EventJoin            = "join"
	EventJoinTaskRoom    = "joinTaskRoom"
	EventMessage         = "message"
	EventTaskMessage     = "taskMessage"
	EventChatHistory     = "chatHistory"
	EventTaskChatHistory = "taskChatHistory"
)

// envelope is the wire frame wrapping every event.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// joinPayload is the data of a general room join.
type joinPayload struct {
	Username string `json:"username"`
}

// joinTaskPayload is the data of a task room join.
type joinTaskPayload struct {
	TaskName string `json:"taskName"`
	Username string `json:"username"`
}

// TaskMessage is a message scoped to a task room. The room key travels
// inline with the message fields.
type TaskMessage struct {
	TaskName string `json:"taskName"`
	model.Message
}

// Handlers receive inbound events. Nil funcs are skipped. The whole set is
// fixed at construction.
type Handlers struct {
	// OnMessage fires for each general room message.
	OnMessage func(model.Message)
	// OnTaskMessage fires for each task room message.
	OnTaskMessage func(TaskMessage)
	// OnHistory fires with the general room backlog, sorted oldest first.
	OnHistory func([]model.Message)
	// OnTaskHistory fires with the task room backlog, sorted oldest first.
	OnTaskHistory func([]model.Message)

	// OnConnected fires after every successful dial, including redials.
	OnConnected func()
	// OnDisconnected fires when the connection drops.
	OnDisconnected func(err error)
	// OnReconnecting fires before each redial attempt, 1-based.
	OnReconnecting func(attempt int)
	// OnReconnectFailed fires when every redial attempt has been spent.
	OnReconnectFailed func()
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConnected means a send was attempted without a live connection.
	// Sends are dropped, never queued.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrClosed means the adapter was shut down and cannot be reused.
	ErrClosed = errors.New("channel: closed")
)

// =============================================================================
// ADAPTER
// =============================================================================

// Options tune the adapter. The zero value is unusable; use DefaultOptions.
type Options struct {
	// ReconnectAttempts is how many redials a drop gets before giving up.
	ReconnectAttempts int
	// ReconnectDelay is the fixed pause before each redial.
	ReconnectDelay time.Duration
	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration
	// PingInterval is the keepalive cadence. 0 disables pings.
	PingInterval time.Duration
}

// DefaultOptions mirror the tuning the backend expects from clients.
func DefaultOptions() Options {
	return Options{
		ReconnectAttempts: 5,
		ReconnectDelay:    time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
	}
}

// rejoin remembers the last join so a redial can restore room membership.
type rejoin struct {
	event string
	data  any
}

// Adapter is one realtime connection. Safe for concurrent use.
type Adapter struct {
	id       string
	url      string
	opts     Options
	handlers Handlers
	dialer   *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	lastJoin  *rejoin

	closeOnce sync.Once
	done      chan struct{}
}

// New creates an adapter for the given ws(s) URL. Handlers are bound here,
// once, for the adapter's whole life.
func New(socketURL string, handlers Handlers, opts Options) *Adapter {
	return &Adapter{
		id:       uuid.NewString(),
		url:      socketURL,
		opts:     opts,
		handlers: handlers,
		dialer:   websocket.DefaultDialer,
		done:     make(chan struct{}),
	}
}

// ID returns the adapter's connection id used in log lines.
func (a *Adapter) ID() string {
	return a.id
}

// Connected reports whether a live connection exists right now.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// Connect dials the backend and starts the read loop. A failed first dial
// retries on the same attempt budget as a dropped connection. Call once;
// redials after drops happen internally.
func (a *Adapter) Connect(ctx context.Context) error {
	select {
	case <-a.done:
		return ErrClosed
	default:
	}

	conn, _, err := a.dialer.DialContext(ctx, a.url, nil)
	if err == nil {
		log.Printf("channel %s: connected to %s", a.id, a.url)
		a.establish(conn)
		return nil
	}
	log.Printf("channel %s: dial %s failed: %v", a.id, a.url, err)

	for attempt := 1; attempt <= a.opts.ReconnectAttempts; attempt++ {
		if a.handlers.OnReconnecting != nil {
			a.handlers.OnReconnecting(attempt)
		}
		select {
		case <-a.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.opts.ReconnectDelay):
		}

		conn, _, err = a.dialer.DialContext(ctx, a.url, nil)
		if err != nil {
			log.Printf("channel %s: dial %d/%d failed: %v",
				a.id, attempt, a.opts.ReconnectAttempts, err)
			continue
		}
		log.Printf("channel %s: connected to %s on attempt %d", a.id, a.url, attempt)
		a.establish(conn)
		return nil
	}

	log.Printf("channel %s: giving up after %d attempts", a.id, a.opts.ReconnectAttempts)
	if a.handlers.OnReconnectFailed != nil {
		a.handlers.OnReconnectFailed()
	}
	return fmt.Errorf("channel: dial %s: %w", a.url, err)
}

// establish installs a freshly dialed connection, starts its loops, and
// replays the last join so the server puts the client back in its room.
func (a *Adapter) establish(conn *websocket.Conn) {
	a.mu.Lock()
	a.conn = conn
	a.connected = true
	join := a.lastJoin
	a.mu.Unlock()

	go a.readLoop(conn)
	if a.opts.PingInterval > 0 {
		go a.pingLoop(conn)
	}
	if a.handlers.OnConnected != nil {
		a.handlers.OnConnected()
	}
	// Restore room membership before anything else goes out.
	if join != nil {
		if err := a.emit(join.event, join.data); err != nil {
			log.Printf("channel %s: rejoin failed: %v", a.id, err)
		}
	}
}

// Close tears the connection down. Idempotent; the adapter cannot be
// reconnected afterwards.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		close(a.done)
		a.mu.Lock()
		conn := a.conn
		a.conn = nil
		a.connected = false
		a.mu.Unlock()
		if conn != nil {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		}
		log.Printf("channel %s: closed", a.id)
	})
	return nil
}

// =============================================================================
// OUTBOUND
// =============================================================================

// JoinGeneral announces the worker to the shared room. Remembered for
// rejoin after redials.
func (a *Adapter) JoinGeneral(username string) error {
	payload := joinPayload{Username: username}
	a.setRejoin(EventJoin, payload)
	return a.emit(EventJoin, payload)
}

// JoinTaskRoom announces the worker to a task room. Remembered for rejoin
// after redials.
func (a *Adapter) JoinTaskRoom(taskName, username string) error {
	payload := joinTaskPayload{TaskName: taskName, Username: username}
	a.setRejoin(EventJoinTaskRoom, payload)
	return a.emit(EventJoinTaskRoom, payload)
}

// SendMessage sends a general room message.
func (a *Adapter) SendMessage(msg model.Message) error {
	return a.emit(EventMessage, msg)
}

// SendTaskMessage sends a task room message.
func (a *Adapter) SendTaskMessage(msg TaskMessage) error {
	return a.emit(EventTaskMessage, msg)
}

func (a *Adapter) setRejoin(event string, data any) {
	a.mu.Lock()
	a.lastJoin = &rejoin{event: event, data: data}
	a.mu.Unlock()
}

// emit writes one envelope. Without a live connection the frame is dropped
// and ErrNotConnected returned; the caller decides how to surface that.
func (a *Adapter) emit(event string, data any) error {
	select {
	case <-a.done:
		return ErrClosed
	default:
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("channel: encode %s: %w", event, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected || a.conn == nil {
		return ErrNotConnected
	}
	if a.opts.WriteTimeout > 0 {
		a.conn.SetWriteDeadline(time.Now().Add(a.opts.WriteTimeout))
	}
	if err := a.conn.WriteJSON(envelope{Event: event, Data: raw}); err != nil {
		return fmt.Errorf("channel: write %s: %w", event, err)
	}
	return nil
}

// =============================================================================
// INBOUND
// =============================================================================

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			a.handleDrop(conn, err)
			return
		}
		a.dispatch(data)
	}
}

func (a *Adapter) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(a.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			a.mu.Lock()
			live := a.conn == conn && a.connected
			a.mu.Unlock()
			if !live {
				return
			}
			conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
		}
	}
}

// dispatch decodes one envelope and routes it. Malformed frames are logged
// and skipped rather than killing the connection.
func (a *Adapter) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("channel %s: bad frame: %v", a.id, err)
		return
	}

	switch env.Event {
	case EventMessage:
		var msg model.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Printf("channel %s: bad message payload: %v", a.id, err)
			return
		}
		msg.Normalize(time.Now())
		if a.handlers.OnMessage != nil {
			a.handlers.OnMessage(msg)
		}

	case EventTaskMessage:
		var msg TaskMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Printf("channel %s: bad task message payload: %v", a.id, err)
			return
		}
		msg.Normalize(time.Now())
		if a.handlers.OnTaskMessage != nil {
			a.handlers.OnTaskMessage(msg)
		}

	case EventChatHistory:
		if history, ok := a.decodeHistory(env.Data); ok && a.handlers.OnHistory != nil {
			a.handlers.OnHistory(history)
		}

	case EventTaskChatHistory:
		if history, ok := a.decodeHistory(env.Data); ok && a.handlers.OnTaskHistory != nil {
			a.handlers.OnTaskHistory(history)
		}

	default:
		log.Printf("channel %s: unknown event %q", a.id, env.Event)
	}
}

// decodeHistory parses a backlog and always sorts it oldest first. Server
// ordering is not trusted.
func (a *Adapter) decodeHistory(data json.RawMessage) ([]model.Message, bool) {
	var history []model.Message
	if err := json.Unmarshal(data, &history); err != nil {
		log.Printf("channel %s: bad history payload: %v", a.id, err)
		return nil, false
	}
	now := time.Now()
	for i := range history {
		history[i].Normalize(now)
	}
	model.SortByTimestamp(history)
	return history, true
}

// =============================================================================
// RECONNECT
// =============================================================================

// handleDrop runs the fixed-attempt redial loop after a read failure.
func (a *Adapter) handleDrop(conn *websocket.Conn, cause error) {
	conn.Close()

	a.mu.Lock()
	// A drop of a superseded connection is stale; ignore it.
	if a.conn != conn {
		a.mu.Unlock()
		return
	}
	a.conn = nil
	a.connected = false
	a.mu.Unlock()

	select {
	case <-a.done:
		return
	default:
	}

	log.Printf("channel %s: connection lost: %v", a.id, cause)
	if a.handlers.OnDisconnected != nil {
		a.handlers.OnDisconnected(cause)
	}

	for attempt := 1; attempt <= a.opts.ReconnectAttempts; attempt++ {
		if a.handlers.OnReconnecting != nil {
			a.handlers.OnReconnecting(attempt)
		}
		select {
		case <-a.done:
			return
		case <-time.After(a.opts.ReconnectDelay):
		}

		newConn, _, err := a.dialer.Dial(a.url, nil)
		if err != nil {
			log.Printf("channel %s: redial %d/%d failed: %v",
				a.id, attempt, a.opts.ReconnectAttempts, err)
			continue
		}

		log.Printf("channel %s: reconnected on attempt %d", a.id, attempt)
		a.establish(newConn)
		return
	}

	log.Printf("channel %s: giving up after %d attempts", a.id, a.opts.ReconnectAttempts)
	if a.handlers.OnReconnectFailed != nil {
		a.handlers.OnReconnectFailed()
	}
}
