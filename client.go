// Copyright (c) 2009 Thomas Jager. All rights reserved.
// Copyright (c) 2024 Jerzy Dąbrowski. All rights reserved.
//
// This project is a fork of the original go-ircevent library created by Thomas Jager.
// Redistribution and use in source and binary forms, with or without modification, are permitted provided
// that the following conditions are met:
//
//    - Redistributions of source code must retain the above copyright notice, this list of conditions,
//      and the following disclaimer.
//    - Redistributions in binary form must reproduce the above copyright notice, this list of conditions,
//      and the following disclaimer in the documentation and/or other materials provided with the distribution.
//    - Neither the name of the original authors nor the names of its contributors may be used to endorse
//      or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED "AS IS" WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT
// LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE, AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE COPYRIGHT HOLDERS OR CONTRIBUTORS BE LIABLE FOR ANY CLAIM, DAMAGES, OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT, OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/text/encoding"
)

// Config collects everything needed to dial and register a connection.
type Config struct {
	Nickname string
	Username string // defaults to Nickname if empty
	RealName string
	Host     string
	Port     int
	Password string

	UseTLS    bool
	TLSConfig *tls.Config
	Proxy     *ProxyConfig
	Encoding  encoding.Encoding

	SendInterval   time.Duration // default 100ms
	ConnectTimeout time.Duration // default 30s

	// Keepalive and PingFrequency tune the keepalive ticker (supplemented
	// from the teacher's pingLoop). Setting either one to a positive value
	// starts the ticker, which queues a PING every PingFrequency (3 minutes
	// when PingFrequency is unset) whether or not the connection has seen
	// traffic. Keepalive's value is not consulted beyond that.
	Keepalive     time.Duration
	PingFrequency time.Duration

	// ReconnectBackoff is how long Loop waits between a failed reconnect
	// attempt and the next one. Defaults to 60s, matching the teacher's
	// hardcoded retry sleep.
	ReconnectBackoff time.Duration
}

func (c Config) dialTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return 30 * time.Second
	}
	return c.ConnectTimeout
}

func (c Config) username() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Nickname
}

func (c Config) sendInterval() time.Duration {
	if c.SendInterval <= 0 {
		return 100 * time.Millisecond
	}
	return c.SendInterval
}

func (c Config) reconnectBackoff() time.Duration {
	if c.ReconnectBackoff <= 0 {
		return 60 * time.Second
	}
	return c.ReconnectBackoff
}

// Client is the protocol engine: it owns channels, nickname, MOTD
// accumulator, the ISUPPORT map, WHOIS builders and ban lists, consumes
// parsed Messages from a Transport, and emits semantic events on its Bus.
//
// All dispatch, state mutation and subscriber invocation happen on a
// single goroutine (the run loop started by Connect), which is what gives
// callers the total-ordering guarantee across inbound lines; Send and the
// accessors may be called from any goroutine and only ever touch state
// guarded by mu.
type Client struct {
	Bus *Bus
	Log *log.Logger

	transport Transport
	scheduler *Scheduler

	mu        sync.RWMutex
	cfg       Config
	nick      string
	connected bool
	ready     bool
	errored   bool
	motd      strBuilder
	supported map[string]string
	channels  map[string]*Channel
	whois     map[string]*WhoisResult
	chanModes ChanModes
	prefixMap map[byte]byte
	metadata  map[string]interface{}

	done    chan struct{}
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	keepAliveStop chan struct{}

	bridgeMu  sync.Mutex
	bridgeSeq int
	bridges   map[int]func(error)
}

// strBuilder is a tiny accumulator so the MOTD field doesn't need a mutex
// of its own beyond the Client's.
type strBuilder struct {
	text string
	seen bool
}

func (b *strBuilder) appendLine(s string) {
	if b.seen {
		b.text += "\n"
	}
	b.text += s
	b.seen = true
}

// NewClient constructs a Client using transport as its Connection Facade.
// If transport is nil, a default TCPTransport is used.
func NewClient(cfg Config, transport Transport) *Client {
	if transport == nil {
		transport = NewTCPTransport()
	}
	logger := log.New(os.Stderr, "irc: ", log.LstdFlags)
	c := &Client{
		Log:       logger,
		Bus:       NewBus(logger),
		transport: transport,
		cfg:       cfg,
		nick:      cfg.Nickname,
		supported: make(map[string]string),
		channels:  make(map[string]*Channel),
		whois:     make(map[string]*WhoisResult),
		metadata:  make(map[string]interface{}),
		chanModes: defaultChanModes,
		prefixMap: defaultPrefixMap,
		bridges:   make(map[int]func(error)),
	}
	c.scheduler = NewScheduler(cfg.sendInterval(), c.writeLine, c.onLineSent)
	c.registerInternalHandlers()
	return c
}

var defaultChanModes = ChanModes{A: "beI", B: "k", C: "l", D: "imnpst"}
var defaultPrefixMap = map[byte]byte{'o': '@', 'v': '+'}

func (c *Client) writeLine(line string) error {
	if err := c.transport.Send(line); err != nil {
		wrapped := &TransportError{Err: err}
		c.Bus.Publish(ErrorEvent{Category: "transport", Err: wrapped})
		c.mu.Lock()
		c.errored = true
		c.mu.Unlock()
		return wrapped
	}
	return nil
}

func (c *Client) onLineSent(line string) {
	c.Bus.Publish(LineSentEvent{Line: line})
}

// Connect dials the transport, starts the scheduler and the inbound dispatch
// loop, and sends the handshake (PASS/NICK/USER) with send-now priority.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.Nickname == "" {
		return fmt.Errorf("irc: empty nickname")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	if err := c.transport.Connect(ctx, c.cfg); err != nil {
		cancel()
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.ready = false
	c.errored = false
	c.nick = c.cfg.Nickname
	c.motd = strBuilder{}
	c.supported = make(map[string]string)
	c.channels = make(map[string]*Channel)
	c.whois = make(map[string]*WhoisResult)
	c.chanModes = defaultChanModes
	c.prefixMap = defaultPrefixMap
	c.cancel = cancel
	c.mu.Unlock()

	c.scheduler.Start()

	c.wg.Add(1)
	go c.runLoop(runCtx)

	c.Bus.Publish(ConnectEvent{})
	c.sendHandshake()

	if c.cfg.Keepalive > 0 || c.cfg.PingFrequency > 0 {
		c.startKeepalive()
	}

	return nil
}

func (c *Client) sendHandshake() {
	if c.cfg.Password != "" {
		c.scheduler.Send("PASS "+c.cfg.Password, true)
	}
	c.scheduler.Send("NICK "+c.cfg.Nickname, true)
	realname := c.cfg.RealName
	if realname == "" {
		realname = c.cfg.username()
	}
	c.scheduler.Send(fmt.Sprintf("USER %s %s %s :%s", c.cfg.username(), c.cfg.username(), c.cfg.Host, realname), true)
}

// runLoop is the engine's single dispatch goroutine: it reads decoded
// lines from the transport, parses them, and dispatches to the internal
// handlers and the Bus in order, so ordering across inbound lines is
// total.
func (c *Client) runLoop(ctx context.Context) {
	defer c.wg.Done()
	lines := c.transport.Lines()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				go c.handleUnexpectedDisconnect()
				return
			}
			c.Bus.Publish(LineReceiveEvent{Line: line})
			msg, err := ParseMessage(line)
			if err != nil {
				c.Bus.Publish(ErrorEvent{Category: "parse", Err: err})
				continue
			}
			c.dispatch(msg)
		}
	}
}

func (c *Client) startKeepalive() {
	c.keepAliveStop = make(chan struct{})
	freq := c.cfg.PingFrequency
	if freq <= 0 {
		freq = 3 * time.Minute
	}
	stop := c.keepAliveStop
	go func() {
		ticker := time.NewTicker(freq)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.scheduler.Send(fmt.Sprintf("PING :%d", time.Now().UnixNano()), false)
			}
		}
	}()
}

// Disconnect sends QUIT synchronously (bypassing the queue), tears down the
// transport, cancels the scheduler and run loop, and emits Disconnect.
// Outstanding request-bridge futures are completed with ErrDisconnected. It
// is a no-op if the client is already disconnected.
func (c *Client) Disconnect(reason string) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	c.mu.Unlock()

	quit := "QUIT"
	if reason != "" {
		quit = "QUIT :" + reason
	}
	c.scheduler.Send(quit, true)

	err := c.transport.Disconnect()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.keepAliveStop != nil {
		close(c.keepAliveStop)
		c.keepAliveStop = nil
	}
	c.mu.Unlock()

	c.scheduler.Stop()
	c.wg.Wait()

	c.failPendingBridges(ErrDisconnected)

	c.Bus.Publish(DisconnectEvent{Reason: reason})
	return err
}

// handleUnexpectedDisconnect runs the same teardown as Disconnect when the
// transport's line stream ends on its own (read error, EOF) rather than by
// a caller-initiated Disconnect. It is a no-op if Disconnect already beat
// it to the teardown.
func (c *Client) handleUnexpectedDisconnect() {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	if c.cancel != nil {
		c.cancel()
	}
	if c.keepAliveStop != nil {
		close(c.keepAliveStop)
		c.keepAliveStop = nil
	}
	c.mu.Unlock()

	c.transport.Disconnect()
	c.scheduler.Stop()
	c.failPendingBridges(ErrDisconnected)
	c.Bus.Publish(DisconnectEvent{Reason: "connection lost", Unexpected: true})
}

// Send enqueues line for paced delivery (now=false) or writes it
// immediately (now=true), per the Send Scheduler contract.
func (c *Client) Send(line string, now bool) error {
	return c.scheduler.Send(line, now)
}

// Connected reports whether the client believes it is currently connected.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Ready reports whether Ready has fired for the current connection.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Errored reports whether a transport or protocol error has been observed.
func (c *Client) Errored() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errored
}

// Nick returns the client's current nickname.
func (c *Client) Nick() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nick
}

// MOTD returns the accumulated message-of-the-day text.
func (c *Client) MOTD() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.motd.text
}

// Supported returns a snapshot copy of the ISUPPORT map.
func (c *Client) Supported() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.supported))
	for k, v := range c.supported {
		out[k] = v
	}
	return out
}

// Channel returns the Channel by name, and whether it is currently joined.
func (c *Client) Channel(name string) (*Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.channels[name]
	return ch, ok
}

// Channels returns the names of every currently joined channel.
func (c *Client) Channels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.channels))
	for name := range c.channels {
		out = append(out, name)
	}
	return out
}

// Metadata returns the caller-opaque metadata value stored under key.
func (c *Client) Metadata(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.metadata[key]
	return v, ok
}

// SetMetadata stores an opaque caller value under key. Metadata persists
// across reconnects; every other piece of Client state is transient.
func (c *Client) SetMetadata(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata[key] = value
}
