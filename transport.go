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
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding"
	"h12.io/socks"
)

// Transport is the Connection Facade the engine consumes: connect, send one
// line, receive a stream of decoded lines, disconnect. It is the only
// contract the Protocol Engine depends on; any byte transport (TCP/TLS
// socket, a log file, a test harness) can satisfy it.
type Transport interface {
	Connect(ctx context.Context, cfg Config) error
	Send(line string) error
	Lines() <-chan string
	Disconnect() error
}

// ProxyConfig configures the default Transport's outbound proxying.
type ProxyConfig struct {
	Type     string // "socks4", "socks5", or "http"
	Address  string
	Username string
	Password string
}

type socks4Dialer struct {
	dialFunc func(string, string) (net.Conn, error)
}

func (d *socks4Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.dialFunc(network, addr)
}

// TCPTransport is the default Transport: a TCP or TLS socket, optionally
// dialed through a SOCKS4/SOCKS5/HTTP proxy, with pluggable character-set
// transcoding. It is adapted from the teacher library's Connect/readLoop/
// writeLoop, split out behind the Transport interface so the engine never
// depends on net.Conn directly.
type TCPTransport struct {
	Proxy    *ProxyConfig
	Encoding encoding.Encoding

	mu     sync.Mutex
	conn   net.Conn
	lines  chan string
	errs   chan error
	done   chan struct{}
}

// NewTCPTransport constructs a TCPTransport ready for Connect.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

func (t *TCPTransport) dialer(cfg Config) (proxy.Dialer, error) {
	if t.Proxy == nil {
		return &net.Dialer{Timeout: cfg.dialTimeout()}, nil
	}
	switch t.Proxy.Type {
	case "socks4":
		d := socks.Dial(fmt.Sprintf("socks4://%s:%s@%s", t.Proxy.Username, t.Proxy.Password, t.Proxy.Address))
		return &socks4Dialer{dialFunc: d}, nil
	case "socks5":
		auth := &proxy.Auth{User: t.Proxy.Username, Password: t.Proxy.Password}
		return proxy.SOCKS5("tcp", t.Proxy.Address, auth, proxy.Direct)
	case "http":
		u, err := url.Parse(fmt.Sprintf("http://%s:%s@%s", t.Proxy.Username, t.Proxy.Password, t.Proxy.Address))
		if err != nil {
			return nil, err
		}
		return proxy.FromURL(u, proxy.Direct)
	default:
		return nil, fmt.Errorf("irc: unsupported proxy type %q", t.Proxy.Type)
	}
}

// Connect dials cfg.Host:cfg.Port, optionally through a proxy and/or TLS,
// and starts the read loop that feeds Lines().
func (t *TCPTransport) Connect(ctx context.Context, cfg Config) error {
	if t.Proxy == nil {
		t.Proxy = cfg.Proxy
	}
	if t.Encoding == nil {
		t.Encoding = cfg.Encoding
	}
	dialer, err := t.dialer(cfg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	if cfg.UseTLS {
		conn = tls.Client(conn, cfg.TLSConfig)
	}

	t.mu.Lock()
	t.conn = conn
	t.lines = make(chan string, 32)
	t.errs = make(chan error, 1)
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.readLoop()
	return nil
}

func (t *TCPTransport) readLoop() {
	defer close(t.lines)

	enc := t.Encoding
	if enc == nil {
		enc = encoding.Nop
	}
	r := enc.NewDecoder().Reader(t.conn)
	br := bufio.NewReaderSize(r, 1024)

	for {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			select {
			case t.lines <- line:
			case <-t.done:
				return
			}
		}
		if err != nil {
			select {
			case t.errs <- err:
			default:
			}
			return
		}
		select {
		case <-t.done:
			return
		default:
		}
	}
}

// Send writes one line (without CRLF; the transport appends it).
func (t *TCPTransport) Send(line string) error {
	t.mu.Lock()
	conn := t.conn
	enc := t.Encoding
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if enc == nil {
		enc = encoding.Nop
	}
	w := enc.NewEncoder().Writer(conn)
	_, err := w.Write([]byte(line + "\r\n"))
	return err
}

// Lines returns the channel of decoded, terminator-stripped inbound lines.
// It is closed when the connection ends, whether by error or Disconnect.
func (t *TCPTransport) Lines() <-chan string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lines
}

// Disconnect closes the socket and stops the read loop.
func (t *TCPTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		select {
		case <-t.done:
		default:
			close(t.done)
		}
	}
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
