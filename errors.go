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

import "errors"

// MaxLineLength is the wire limit on an outbound line, excluding the CRLF
// terminator, per RFC 1459 section 2.3.
const MaxLineLength = 510

var (
	// ErrLineTooLong is returned by Send when a line exceeds MaxLineLength.
	ErrLineTooLong = errors.New("irc: line exceeds 510 bytes")
	// ErrTopicTooLong is returned by SetChannelTopic when the new topic
	// exceeds the server-advertised TOPICLEN.
	ErrTopicTooLong = errors.New("irc: topic exceeds server TOPICLEN")
	// ErrDisconnected is delivered to outstanding request-bridge futures
	// when Disconnect runs while they are still pending.
	ErrDisconnected = errors.New("irc: disconnected")
	// ErrNotConnected is returned by TCPTransport.Send when no connection
	// is open.
	ErrNotConnected = errors.New("irc: not connected")
)

// TransportError wraps a failure surfaced by the Connection Facade.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "irc: transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError wraps a server-issued ERROR line.
type ProtocolError struct {
	Text string
}

func (e *ProtocolError) Error() string { return "irc: server ERROR: " + e.Text }
