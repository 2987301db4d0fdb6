// Package feed is the websocket transport for the push event stream. It
// maintains one connection per feed channel, forwards every text frame to
// the configured handler, and serializes outbound writes through a single
// writer goroutine on the primary channel.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opstrack/opstrack/pkg/logger"
	"github.com/opstrack/opstrack/pkg/metrics"
)

const (
	// ChannelEvents carries combat and experience events.
	ChannelEvents = "events"
	// ChannelLogins carries login and logout events.
	ChannelLogins = "logins"
	// ChannelFacility carries facility capture and defend events.
	ChannelFacility = "facility"
	// ChannelDebug mirrors the primary stream for diagnostics.
	ChannelDebug = "debug"

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// DefaultChannels are the channels opened when none are configured. The
// debug mirror is opt-in.
var DefaultChannels = []string{ChannelEvents, ChannelLogins, ChannelFacility}

// MessageHandler receives every inbound text frame with the channel it
// arrived on. Handlers must not block; the reader loop delivers frames
// one at a time per channel.
type MessageHandler func(channel string, payload []byte)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithURL sets the feed endpoint.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithServiceID sets the service credential appended to the endpoint.
func WithServiceID(id string) Option {
	return func(c *Client) { c.serviceID = id }
}

// WithChannels sets the channels to open on Connect.
func WithChannels(channels ...string) Option {
	return func(c *Client) {
		if len(channels) > 0 {
			c.channels = channels
		}
	}
}

// WithHandler sets the inbound frame handler.
func WithHandler(h MessageHandler) Option {
	return func(c *Client) { c.handler = h }
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client is the multi-channel websocket feed transport.
type Client struct {
	url       string
	serviceID string
	channels  []string
	handler   MessageHandler
	dialer    *websocket.Dialer

	mu        sync.RWMutex
	conns     map[string]*websocket.Conn
	connected bool

	outbound chan []byte
	stop     chan struct{}
	wg       sync.WaitGroup
	log      logger.Logger
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url:      "wss://push.planetside2.com/streaming",
		channels: DefaultChannels,
		dialer:   websocket.DefaultDialer,
		conns:    make(map[string]*websocket.Conn),
		outbound: make(chan []byte, 64),
		log:      logger.Named("feed"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect dials every configured channel and starts the reader and writer
// loops. A failure on any channel closes the ones already opened.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return ErrAlreadyConnected
	}

	endpoint := c.url
	if c.serviceID != "" {
		endpoint = fmt.Sprintf("%s?environment=ps2&service-id=s:%s", c.url, c.serviceID)
	}

	c.stop = make(chan struct{})
	for _, channel := range c.channels {
		conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			c.closeAllLocked()
			return fmt.Errorf("%w: channel %s: %v", ErrConnectFailed, channel, err)
		}
		c.conns[channel] = conn

		c.wg.Add(1)
		go c.readLoop(ctx, channel, conn)
	}

	c.wg.Add(1)
	go c.writeLoop(c.conns[c.channels[0]])

	c.connected = true
	c.log.Info(ctx, "feed connected",
		logger.String("url", c.url),
		logger.Int("channels", len(c.channels)))
	return nil
}

// Connected reports whether the transport currently holds open channels.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Send marshals v and queues it for the primary channel's writer. It does
// not wait for delivery.
func (c *Client) Send(v any) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	select {
	case c.outbound <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close shuts every channel down and waits for the loops to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	close(c.stop)
	c.closeAllLocked()
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Client) closeAllLocked() {
	for channel, conn := range c.conns {
		_ = conn.Close()
		delete(c.conns, channel)
	}
	c.connected = false
}

func (c *Client) readLoop(ctx context.Context, channel string, conn *websocket.Conn) {
	defer c.wg.Done()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stop:
			default:
				c.log.Error(ctx, "feed read failed",
					logger.String("channel", channel),
					logger.Error(err))
				metrics.RecordErrorByComponent("feed", "read")
				c.markDisconnected(channel)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage {
			metrics.RecordMessageMalformed()
			continue
		}
		if c.handler != nil {
			c.handler(channel, payload)
		}
	}
}

func (c *Client) writeLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case data := <-c.outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Error(context.Background(), "feed write failed", logger.Error(err))
				metrics.RecordErrorByComponent("feed", "write")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// markDisconnected drops one channel and flips the connected flag once no
// channels remain.
func (c *Client) markDisconnected(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[channel]; ok {
		_ = conn.Close()
		delete(c.conns, channel)
	}
	if len(c.conns) == 0 {
		c.connected = false
	}
}
