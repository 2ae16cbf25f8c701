package reconnect

import (
	"log/slog"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config controls the backoff schedule.
type Config struct {
	MaxAttempts   int           // 0 = retry forever
	InitialDelay  time.Duration // delay before the first attempt
	MaxDelay      time.Duration // upper bound for the stored delay
	BackoffFactor float64       // multiplier applied after each failure
	Jitter        bool          // perturb scheduled waits by [0.8, 1.2]
}

// DefaultConfig returns the standard retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   10,
		InitialDelay:  2 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 1.5,
		Jitter:        true,
	}
}

// EventKind identifies a handler state transition.
type EventKind int

const (
	// KindStarted is reported once when an episode begins.
	KindStarted EventKind = iota
	// KindAttempt is reported just before each connect call.
	KindAttempt
	// KindWaiting is reported when the next attempt has been scheduled.
	KindWaiting
	// KindConnected is reported when an attempt succeeds or Reset is called.
	KindConnected
	// KindStopped is reported when Stop cancels the episode.
	KindStopped
	// KindFailed is the terminal outcome after MaxAttempts failures.
	KindFailed
)

func (k EventKind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindAttempt:
		return "attempt"
	case KindWaiting:
		return "waiting"
	case KindConnected:
		return "connected"
	case KindStopped:
		return "stopped"
	case KindFailed:
		return "failed"
	}
	return "unknown"
}

// Event is a single state transition, published to the observer so the UI
// can render progress without polling.
type Event struct {
	Kind    EventKind
	Attempt int
	Wait    time.Duration
}

// Status is a point-in-time view of the handler.
type Status struct {
	Attempts     int
	CurrentDelay time.Duration
	Active       bool
	MaxAttempts  int
}

// Handler schedules reconnection attempts. All methods are safe for
// concurrent use.
type Handler struct {
	cfg     Config
	connect func() bool
	notify  func(Event)
	logger  *slog.Logger

	mu       sync.Mutex
	attempts int
	delay    time.Duration // pre-jitter basis for the next scheduled wait
	active   bool
	timer    *time.Timer
	epoch    int // invalidates timers canceled by Stop/Reset

	jitterFn func() float64
}

// NewHandler creates a reconnection handler. connect is invoked for each
// attempt and reports success; notify (optional) observes every state
// transition.
func NewHandler(cfg Config, connect func() bool, notify func(Event), logger *slog.Logger) *Handler {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultConfig().InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultConfig().MaxDelay
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = DefaultConfig().BackoffFactor
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:      cfg,
		connect:  connect,
		notify:   notify,
		logger:   logger,
		delay:    cfg.InitialDelay,
		jitterFn: mrand.Float64,
	}
}

// Start begins a reconnection episode. It is a no-op while one is already
// active. The first attempt runs after InitialDelay.
func (h *Handler) Start() {
	h.mu.Lock()
	if h.active {
		h.mu.Unlock()
		return
	}
	h.active = true
	h.attempts = 0
	h.delay = h.cfg.InitialDelay
	wait := h.schedule(h.delay)
	h.mu.Unlock()

	h.publish(Event{Kind: KindStarted})
	h.publish(Event{Kind: KindWaiting, Wait: wait})
}

// Stop cancels any pending attempt. It reports a stopped state and does not
// count as a failure.
func (h *Handler) Stop() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.cancel()
	h.delay = h.cfg.InitialDelay
	h.mu.Unlock()

	h.publish(Event{Kind: KindStopped})
}

// Reset returns the handler to its initial delay and clears the attempt
// count. Call it once per successful connection.
func (h *Handler) Reset() {
	h.mu.Lock()
	changed := h.active || h.attempts != 0 || h.delay != h.cfg.InitialDelay
	h.cancel()
	h.attempts = 0
	h.delay = h.cfg.InitialDelay
	h.mu.Unlock()

	if changed {
		h.publish(Event{Kind: KindConnected})
	}
}

// ReconnectNow skips the pending wait and runs the next attempt
// immediately. It is a no-op while no episode is active.
func (h *Handler) ReconnectNow() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.epoch++
	epoch := h.epoch
	h.mu.Unlock()

	go h.attempt(epoch)
}

// Active reports whether an episode is in progress.
func (h *Handler) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Status returns the current retry state.
func (h *Handler) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Status{
		Attempts:     h.attempts,
		CurrentDelay: h.delay,
		Active:       h.active,
		MaxAttempts:  h.cfg.MaxAttempts,
	}
}

// cancel stops the pending timer and marks the episode inactive. Caller
// holds h.mu.
func (h *Handler) cancel() {
	h.active = false
	h.epoch++
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// schedule arms the timer for the next attempt and returns the actual wait.
// Caller holds h.mu. Jitter perturbs only the scheduled wait; the stored
// delay stays on the pre-jitter schedule so jitter never compounds.
func (h *Handler) schedule(base time.Duration) time.Duration {
	wait := base
	if h.cfg.Jitter {
		wait = time.Duration(float64(base) * (0.8 + 0.4*h.jitterFn()))
	}
	epoch := h.epoch
	h.timer = time.AfterFunc(wait, func() { h.attempt(epoch) })
	return wait
}

// attempt runs one connection attempt from the timer goroutine.
func (h *Handler) attempt(epoch int) {
	h.mu.Lock()
	if !h.active || epoch != h.epoch {
		h.mu.Unlock()
		return
	}
	h.attempts++
	n := h.attempts
	h.mu.Unlock()

	h.publish(Event{Kind: KindAttempt, Attempt: n})

	if h.connect() {
		h.Reset()
		return
	}

	h.mu.Lock()
	if !h.active || epoch != h.epoch {
		// Stopped or reset while the attempt was in flight.
		h.mu.Unlock()
		return
	}
	if h.cfg.MaxAttempts > 0 && h.attempts >= h.cfg.MaxAttempts {
		h.cancel()
		h.mu.Unlock()
		h.logger.Warn("reconnection attempts exhausted", "attempts", n)
		h.publish(Event{Kind: KindFailed, Attempt: n})
		return
	}

	next := time.Duration(float64(h.delay) * h.cfg.BackoffFactor)
	if next > h.cfg.MaxDelay {
		next = h.cfg.MaxDelay
	}
	h.delay = next
	wait := h.schedule(next)
	h.mu.Unlock()

	h.logger.Debug("reconnection attempt failed, backing off",
		"attempt", n,
		"wait", wait,
	)
	h.publish(Event{Kind: KindWaiting, Attempt: n, Wait: wait})
}

func (h *Handler) publish(e Event) {
	if h.notify != nil {
		h.notify(e)
	}
}

// NextDelay returns the pre-jitter wait before the given attempt (1-based)
// under cfg. Useful for rendering the schedule without running it.
func NextDelay(attempt int, cfg Config) time.Duration {
	delay := cfg.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return delay
}

// ShouldReconnect reports whether a closure with the given WebSocket close
// code warrants reconnection. Clean, client-expected closures (normal
// closure and going away) do not.
func ShouldReconnect(closeCode int) bool {
	switch closeCode {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway:
		return false
	}
	return true
}
