package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cardroom/poker-client/internal/protocol"
	"github.com/cardroom/poker-client/internal/reconnect"
	"github.com/cardroom/poker-client/internal/session"
)

// ManagerConfig configures the connection manager.
type ManagerConfig struct {
	URL               string           // WebSocket endpoint
	ConnectTimeout    time.Duration    // deadline for one connection attempt
	HeartbeatInterval time.Duration    // outbound heartbeat period
	StaleTimeout      time.Duration    // no-traffic window before the socket is declared dead
	WriteTimeout      time.Duration    // write deadline for sends
	BufferSize        int              // inbound frame buffer size
	EventBufferSize   int              // observer event buffer size
	AutoReconnect     bool             // retry on abnormal closure
	Reconnect         reconnect.Config // retry policy
	PlayerName        string           // optional display name for session_init
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ConnectTimeout:    10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		StaleTimeout:      90 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        256,
		EventBufferSize:   256,
		AutoReconnect:     true,
		Reconnect:         reconnect.DefaultConfig(),
	}
}

// Manager is the single owner of the live socket. It wires the session
// store, wire parser, reconnection policy, and heartbeat timer together
// and publishes typed events for the UI layer. Construct one per process
// and pass it to consumers explicitly.
type Manager struct {
	cfg       ManagerConfig
	sessions  *session.Manager
	bootstrap SessionBootstrapper
	logger    *slog.Logger

	reconnector *reconnect.Handler
	events      chan Event

	mu       sync.Mutex
	client   Client
	gen      int // connection generation; stale pumps and timers bail out
	status   Status
	latency  time.Duration
	lastSeen time.Time
	hbStop   chan struct{}
}

// NewManager creates a connection manager. bootstrap may be nil, in which
// case sessions are derived from the snapshot roster.
func NewManager(cfg ManagerConfig, sessions *session.Manager, bootstrap SessionBootstrapper, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultManagerConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = def.StaleTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = def.EventBufferSize
	}
	if bootstrap == nil {
		bootstrap = SnapshotRoster{}
	}

	m := &Manager{
		cfg:       cfg,
		sessions:  sessions,
		bootstrap: bootstrap,
		logger:    logger,
		events:    make(chan Event, cfg.EventBufferSize),
		status:    StatusDisconnected,
	}
	m.reconnector = reconnect.NewHandler(
		cfg.Reconnect,
		func() bool { return m.Connect(context.Background()) },
		m.onReconnectEvent,
		logger.With("component", "reconnect"),
	)
	return m
}

// Events returns the observer channel. Events are published non-blocking;
// a full buffer drops the oldest-pending delivery with a warning rather
// than stalling the socket.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Connect opens a new connection, tearing down any existing one first.
// It blocks until the socket is open or the attempt deadline passes and
// reports success. A failed attempt starts the reconnection policy when
// auto-reconnect is enabled.
func (m *Manager) Connect(ctx context.Context) bool {
	// Idempotent restart: the previous socket is fully detached before the
	// new one is created. The generation captured here identifies this
	// attempt; a concurrent Connect or Disconnect bumps it and the dial
	// result below is discarded instead of installed.
	m.closeSocket()
	m.mu.Lock()
	attempt := m.gen
	m.mu.Unlock()

	if m.reconnector.Active() {
		m.setStatus(StatusReconnecting)
	} else {
		m.setStatus(StatusConnecting)
	}

	cl := NewClient(ClientConfig{
		URL:            m.cfg.URL,
		ConnectTimeout: m.cfg.ConnectTimeout,
		WriteTimeout:   m.cfg.WriteTimeout,
		BufferSize:     m.cfg.BufferSize,
	}, m.logger.With("component", "socket"))

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	if err := cl.Connect(dialCtx); err != nil {
		m.mu.Lock()
		superseded := m.gen != attempt
		m.mu.Unlock()
		if superseded {
			// A concurrent Connect or Disconnect owns the lifecycle now;
			// this attempt's failure must not drive status or recovery.
			return false
		}
		m.logger.Warn("connection attempt failed", "url", m.cfg.URL, "error", err)
		if !m.reconnector.Active() {
			m.setStatus(StatusDisconnected)
		}
		m.publish(Event{Kind: EventError, Err: &protocol.ErrorData{
			Code:    "connect_failed",
			Message: "could not reach game server",
		}})
		if m.cfg.AutoReconnect {
			// No-op while a retry episode is already driving this attempt.
			m.reconnector.Start()
		}
		return false
	}

	hbStop := make(chan struct{})
	m.mu.Lock()
	if m.gen != attempt {
		m.mu.Unlock()
		m.logger.Debug("discarding superseded connection attempt", "url", m.cfg.URL)
		cl.Close()
		return false
	}
	m.gen++
	gen := m.gen
	m.client = cl
	m.hbStop = hbStop
	m.lastSeen = time.Now()
	m.mu.Unlock()

	m.setStatus(StatusConnected)

	go m.pump(gen, cl)
	go m.heartbeatLoop(gen, cl, hbStop)

	m.sendSessionInit()
	m.reconnector.Reset()

	return true
}

// Disconnect closes the connection intentionally: it stops any active
// reconnection episode, clears the heartbeat, and detaches the socket
// before closing it so the close never triggers recovery. Safe to call
// when no socket exists.
func (m *Manager) Disconnect() {
	m.reconnector.Stop()
	m.closeSocket()
	m.setStatus(StatusDisconnected)
}

// SendBetAction wraps a betting decision in a session-authenticated frame
// and sends it. It reports false, without panicking, when no session token
// exists or the socket is not open. amount is optional and only meaningful
// for raises.
func (m *Manager) SendBetAction(action protocol.BetAction, amount ...int) bool {
	sess := m.sessions.Get()
	if sess == nil {
		m.logger.Error("cannot send bet action", "error", ErrNoSession)
		m.publish(Event{Kind: EventError, Err: &protocol.ErrorData{
			Code:    "no_session",
			Message: "cannot act without a session",
		}})
		return false
	}

	var amt *int
	if len(amount) > 0 {
		amt = &amount[0]
	}

	msg, err := protocol.NewBetAction(sess.Token, action, amt)
	if err != nil {
		m.logger.Error("invalid bet action", "action", action, "error", err)
		return false
	}

	if !m.send(msg) {
		m.publish(Event{Kind: EventError, Err: &protocol.ErrorData{
			Code:    "not_connected",
			Message: "cannot act while disconnected",
		}})
		return false
	}

	// Acting on the session extends its life.
	m.sessions.Touch()
	return true
}

// Status returns a point-in-time view of the connection.
func (m *Manager) Status() StatusInfo {
	m.mu.Lock()
	info := StatusInfo{
		Connected: m.status == StatusConnected,
		Status:    m.status,
		Latency:   m.latency,
	}
	m.mu.Unlock()

	if sess := m.sessions.Get(); sess != nil {
		info.SessionToken = sess.Token
		info.PlayerID = sess.PlayerID
	}
	return info
}

// send serializes and writes one outbound frame.
func (m *Manager) send(msg *protocol.Message) bool {
	data, err := protocol.Serialize(msg)
	if err != nil {
		m.logger.Error("failed to encode outbound frame", "type", msg.Type, "error", err)
		return false
	}

	m.mu.Lock()
	cl := m.client
	m.mu.Unlock()

	if cl == nil || !cl.IsConnected() {
		m.logger.Warn("cannot send: socket not open", "type", msg.Type)
		return false
	}

	if err := cl.Send(data); err != nil {
		m.logger.Warn("send failed", "type", msg.Type, "error", err)
		return false
	}
	return true
}

// sendSessionInit announces this client to the server: with the existing
// token when a valid session exists, otherwise requesting a fresh session.
func (m *Manager) sendSessionInit() {
	token := ""
	if sess := m.sessions.Get(); sess != nil {
		token = sess.Token
	}
	if !m.send(protocol.NewSessionInit(token, m.cfg.PlayerName)) {
		m.logger.Warn("session init not sent")
	}
}

// closeSocket detaches and closes the current socket, if any. The
// generation bump makes the old pump and heartbeat exit without acting on
// the close, preventing cross-talk between a dying socket and a new one.
func (m *Manager) closeSocket() {
	m.mu.Lock()
	cl := m.client
	m.client = nil
	m.gen++
	if m.hbStop != nil {
		close(m.hbStop)
		m.hbStop = nil
	}
	m.mu.Unlock()

	if cl != nil {
		cl.Close()
	}
}

// pump routes one connection's frames and errors until the connection dies
// or is superseded.
func (m *Manager) pump(gen int, cl Client) {
	for {
		select {
		case err, ok := <-cl.Errors():
			if !ok {
				return
			}
			m.handleSocketError(gen, err)
			return

		case data, ok := <-cl.Messages():
			if !ok {
				return
			}
			m.handleFrame(gen, data)
		}
	}
}

// handleSocketError reacts to a dead connection: mark disconnected, stop
// the heartbeat, and start recovery for abnormal closures.
func (m *Manager) handleSocketError(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen {
		// A newer connection already superseded this one.
		m.mu.Unlock()
		return
	}
	cl := m.client
	m.client = nil
	m.gen++
	if m.hbStop != nil {
		close(m.hbStop)
		m.hbStop = nil
	}
	m.mu.Unlock()

	if cl != nil {
		cl.Close()
	}

	code := websocket.CloseAbnormalClosure
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		code = ce.Code
	}

	m.logger.Warn("connection lost", "code", code, "error", err)
	m.setStatus(StatusDisconnected)

	if m.cfg.AutoReconnect && reconnect.ShouldReconnect(code) {
		m.reconnector.Start()
	}
}

// handleFrame validates and dispatches one inbound frame. Malformed frames
// are dropped and logged; they never affect connection state.
func (m *Manager) handleFrame(gen int, data []byte) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	// Any inbound traffic counts as liveness.
	m.lastSeen = time.Now()
	m.mu.Unlock()

	msg, err := protocol.Parse(data)
	if err != nil {
		m.logger.Warn("dropping invalid frame", "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeHeartbeat:
		m.handleHeartbeatEcho(msg.Heartbeat)
	case protocol.TypeGameStateUpdate:
		m.handleSnapshot(msg.GameState)
	case protocol.TypeError:
		m.handleServerError(msg.Error)
	case protocol.TypeConnectionStatus:
		m.handleConnectionStatus(msg.ConnectionStatus)
	}
}

func (m *Manager) handleHeartbeatEcho(hb *protocol.HeartbeatData) {
	rtt := time.Duration(time.Now().UnixMilli()-hb.Timestamp) * time.Millisecond
	if rtt < 0 {
		// Clock skew between peers; report zero rather than nonsense.
		rtt = 0
	}

	m.mu.Lock()
	m.latency = rtt
	m.mu.Unlock()

	m.publish(Event{Kind: EventLatency, Latency: rtt})
}

func (m *Manager) handleSnapshot(gs *protocol.GameState) {
	m.publish(Event{Kind: EventSnapshot, Snapshot: gs})

	// Fallback for servers that issue no explicit credential: derive a
	// session from the first roster seen.
	if m.sessions.Get() != nil {
		return
	}
	token, playerID, ok := m.bootstrap.Bootstrap(gs)
	if !ok {
		return
	}
	m.sessions.Create(token, playerID)
	m.logger.Info("derived session from snapshot roster", "player_id", playerID)
}

func (m *Manager) handleServerError(e *protocol.ErrorData) {
	m.logger.Warn("server error", "code", e.Code, "message", e.Message)
	m.publish(Event{Kind: EventError, Err: e})

	// A rejected token invalidates local session state, but the socket
	// stays up; the next session_init requests a fresh session.
	if e.Code == protocol.ErrCodeInvalidToken {
		m.sessions.Clear()
	}
}

func (m *Manager) handleConnectionStatus(cs *protocol.ConnectionStatusData) {
	switch cs.Status {
	case "connected":
		m.setStatus(StatusConnected)
	case "disconnected":
		m.setStatus(StatusDisconnected)
	case "reconnecting":
		m.setStatus(StatusReconnecting)
	}

	if cs.PlayerID != "" {
		m.sessions.Associate(cs.PlayerID)
	}
}

// heartbeatLoop sends a heartbeat immediately, then on a fixed interval,
// until the connection is torn down. Each tick also checks liveness: a
// socket that has delivered no traffic within StaleTimeout is declared
// dead and torn down like any other connection loss.
func (m *Manager) heartbeatLoop(gen int, cl Client, stop <-chan struct{}) {
	m.sendHeartbeat(cl)

	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !cl.IsConnected() {
				return
			}
			m.mu.Lock()
			stale := time.Since(m.lastSeen) > m.cfg.StaleTimeout
			m.mu.Unlock()
			if stale {
				m.logger.Warn("no traffic within stale timeout, closing connection",
					"timeout", m.cfg.StaleTimeout,
				)
				m.handleSocketError(gen, ErrStaleConnection)
				return
			}
			m.sendHeartbeat(cl)
		}
	}
}

func (m *Manager) sendHeartbeat(cl Client) {
	data, err := protocol.Serialize(protocol.NewHeartbeat(time.Now()))
	if err != nil {
		return
	}
	if err := cl.Send(data); err != nil {
		m.logger.Debug("heartbeat send failed", "error", err)
	}
}

// onReconnectEvent forwards retry-policy transitions and mirrors the
// terminal ones into connection status.
func (m *Manager) onReconnectEvent(e reconnect.Event) {
	switch e.Kind {
	case reconnect.KindStarted:
		m.setStatus(StatusReconnecting)
	case reconnect.KindFailed:
		m.logger.Error("reconnection exhausted", "attempts", e.Attempt)
		m.setStatus(StatusFailed)
	}

	m.publish(Event{Kind: EventReconnect, Reconnect: &e})
}

// setStatus records a state transition and publishes it. Repeats of the
// current state are not republished.
func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if m.status == s {
		m.mu.Unlock()
		return
	}
	m.status = s
	m.mu.Unlock()

	m.publish(Event{Kind: EventStatus, Status: s, Connected: s == StatusConnected})
}

// publish delivers an event without ever blocking the socket path.
func (m *Manager) publish(e Event) {
	select {
	case m.events <- e:
	default:
		m.logger.Warn("event buffer full, dropping event", "kind", e.Kind)
	}
}
