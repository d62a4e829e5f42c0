package venue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

// ConnConfig configures a single venue connection.
type ConnConfig struct {
	Name  string // venue identifier
	URL   string // websocket endpoint
	Topic string // subscription topic sent on every (re)connect

	HeartbeatInterval time.Duration // interval between liveness probes
	PongTimeout       time.Duration // how long to wait for a probe response
	MaxMissedProbes   int           // consecutive timeouts before force close

	ReconnectBase time.Duration // initial reconnect delay
	ReconnectCap  time.Duration // maximum reconnect delay

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// DefaultConnConfig returns the default connection parameters for a venue.
func DefaultConnConfig(name, url, topic string) ConnConfig {
	return ConnConfig{
		Name:              name,
		URL:               url,
		Topic:             topic,
		HeartbeatInterval: 30 * time.Second,
		PongTimeout:       10 * time.Second,
		MaxMissedProbes:   3,
		ReconnectBase:     5 * time.Second,
		ReconnectCap:      60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// subscribeRequest is the payload sent after every successful connect.
type subscribeRequest struct {
	Op    string `json:"op"`
	Topic string `json:"topic"`
}

// Connection owns one persistent duplex connection to an upstream venue.
// It subscribes on connect, probes liveness with ping/pong heartbeats and
// recovers from any termination with capped exponential backoff. Raw frames
// are delivered in arrival order to the channel supplied at construction.
//
// Each venue's connection is independent; a failure here never propagates
// to other venues or to the caller as fatal.
type Connection struct {
	cfg    ConnConfig
	logger ports.Logger
	alerts ports.AlertPort
	frames chan<- ports.RawFrame

	mu    sync.Mutex
	conn  *websocket.Conn
	state domain.VenueState

	closed atomic.Bool
	done   chan struct{}
}

// NewConnection creates a venue connection that will deliver frames into the
// given channel once started.
func NewConnection(cfg ConnConfig, frames chan<- ports.RawFrame, logger ports.Logger, alerts ports.AlertPort) (*Connection, error) {
	if cfg.Name == "" || cfg.URL == "" {
		return nil, fmt.Errorf("venue connection requires a name and URL")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for venue connection")
	}
	if frames == nil {
		return nil, fmt.Errorf("frame channel is required for venue connection")
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 10 * time.Second
	}
	if cfg.MaxMissedProbes <= 0 {
		cfg.MaxMissedProbes = 3
	}
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = 5 * time.Second
	}
	if cfg.ReconnectCap <= 0 {
		cfg.ReconnectCap = 60 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	return &Connection{
		cfg:    cfg,
		logger: logger,
		alerts: alerts,
		frames: frames,
		state:  domain.VenueDisconnected,
		done:   make(chan struct{}),
	}, nil
}

// Name returns the venue identifier.
func (c *Connection) Name() string { return c.cfg.Name }

// State returns the current connection state.
func (c *Connection) State() domain.VenueState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start runs the connect/read/heartbeat/reconnect cycle until the context is
// cancelled or Close is called. It always returns nil on orderly shutdown;
// connection faults are recovered internally.
func (c *Connection) Start(ctx context.Context) error {
	op := "venue.Start"

	// Reconnect delay: min(base * 2^attempt, cap). Reset after a
	// successful reconnect. No jitter so consecutive delays are
	// monotonically non-decreasing.
	b := &backoff.Backoff{
		Min:    c.cfg.ReconnectBase,
		Max:    c.cfg.ReconnectCap,
		Factor: 2,
		Jitter: false,
	}

	for {
		if c.stopping(ctx) {
			c.setState(ctx, domain.VenueDisconnected)
			return nil
		}

		c.setState(ctx, domain.VenueConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			c.setState(ctx, domain.VenueDegraded)
			delay := b.Duration()
			c.logger.Warn(ctx, op+": connect failed, reconnect scheduled", map[string]interface{}{
				"venue": c.cfg.Name, "delay": delay.String(), "error": err.Error(),
			})
			if !c.sleep(ctx, delay) {
				c.setState(ctx, domain.VenueDisconnected)
				return nil
			}
			continue
		}

		b.Reset()
		c.setConn(conn)
		c.setState(ctx, domain.VenueLive)
		c.logger.Info(ctx, op+": connected and subscribed", map[string]interface{}{
			"venue": c.cfg.Name, "topic": c.cfg.Topic,
		})

		sessionErr := c.runSession(ctx, conn)
		c.setConn(nil)
		conn.Close()

		if c.stopping(ctx) {
			c.setState(ctx, domain.VenueDisconnected)
			return nil
		}

		c.setState(ctx, domain.VenueDegraded)
		delay := b.Duration()
		c.logger.Warn(ctx, op+": connection lost, reconnect scheduled", map[string]interface{}{
			"venue": c.cfg.Name, "delay": delay.String(), "error": fmt.Sprint(sessionErr),
		})
		if !c.sleep(ctx, delay) {
			c.setState(ctx, domain.VenueDisconnected)
			return nil
		}
	}
}

// Close tears the connection down cleanly and stops the reconnect cycle.
func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	close(c.done)

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteTimeout))
		conn.Close()
	}
	return nil
}

// dial establishes the websocket connection and issues the subscribe request.
func (c *Connection) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrConnectionFailed, err)
	}

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Topic: c.cfg.Topic}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe request: %w", err)
	}
	return conn, nil
}

// runSession reads frames and runs the heartbeat loop until the connection
// breaks or the context is cancelled. Returns the error that ended the
// session.
func (c *Connection) runSession(ctx context.Context, conn *websocket.Conn) error {
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pong responses are observed through the handler; buffer of one is
	// enough since the heartbeat loop drains before each probe.
	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.heartbeat(sessCtx, conn, pong)
	}()

	var readErr error
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}

		frame := ports.RawFrame{
			Venue:      c.cfg.Name,
			Payload:    payload,
			ReceivedAt: time.Now().UTC(),
		}
		// Blocking send: the bounded channel gives natural backpressure
		// if discovery volume spikes.
		select {
		case c.frames <- frame:
		case <-sessCtx.Done():
			readErr = sessCtx.Err()
		}
		if readErr != nil {
			break
		}
	}

	cancel()
	conn.Close()
	wg.Wait()
	return readErr
}

// heartbeat sends a liveness probe every HeartbeatInterval and arms a
// PongTimeout for the response. Three consecutive timeouts force-terminate
// the connection, which unblocks the read loop and triggers a reconnect.
func (c *Connection) heartbeat(ctx context.Context, conn *websocket.Conn, pong <-chan struct{}) {
	op := "venue.heartbeat"
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	missed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain a stale pong from the previous interval.
			select {
			case <-pong:
			default:
			}

			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn(ctx, op+": probe write failed, terminating connection", map[string]interface{}{
					"venue": c.cfg.Name, "error": err.Error(),
				})
				conn.Close()
				return
			}

			timer := time.NewTimer(c.cfg.PongTimeout)
			select {
			case <-pong:
				timer.Stop()
				missed = 0
			case <-timer.C:
				missed++
				c.logger.Warn(ctx, op+": probe response timed out", map[string]interface{}{
					"venue": c.cfg.Name, "missed": missed, "limit": c.cfg.MaxMissedProbes,
				})
				if missed >= c.cfg.MaxMissedProbes {
					c.logger.Error(ctx, ports.ErrConnectionClosed, op+": liveness lost, force-closing connection", map[string]interface{}{
						"venue": c.cfg.Name,
					})
					conn.Close()
					return
				}
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}
}

func (c *Connection) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// setState records the new state and emits a connection-health alert on
// every change.
func (c *Connection) setState(ctx context.Context, state domain.VenueState) {
	c.mu.Lock()
	prev := c.state
	c.state = state
	c.mu.Unlock()

	if prev == state {
		return
	}
	c.logger.Debug(ctx, "venue state changed", map[string]interface{}{
		"venue": c.cfg.Name, "from": string(prev), "to": string(state),
	})
	if c.alerts != nil {
		c.alerts.Notify(ports.AlertEvent{
			Kind:       ports.AlertConnectionState,
			Venue:      c.cfg.Name,
			VenueState: state,
			At:         time.Now().UTC(),
		})
	}
}

// stopping reports whether shutdown has been requested.
func (c *Connection) stopping(ctx context.Context) bool {
	if c.closed.Load() {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

// sleep waits for the given delay, returning false if shutdown was requested
// during the wait.
func (c *Connection) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}
