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
	"strings"
)

// bridge ties one outstanding request/response operation (Whois, IsUserOn,
// ServerVersion, ChannelTopic) to the Bus subscription waiting on its
// reply, so Disconnect can fail every open one in a single sweep instead of
// leaving callers blocked on a connection that is gone.
func (c *Client) registerBridge(cancel func(error)) int {
	c.bridgeMu.Lock()
	defer c.bridgeMu.Unlock()
	c.bridgeSeq++
	id := c.bridgeSeq
	c.bridges[id] = cancel
	return id
}

func (c *Client) resolveBridge(id int) {
	c.bridgeMu.Lock()
	delete(c.bridges, id)
	c.bridgeMu.Unlock()
}

// failPendingBridges completes every outstanding bridge with err. Called
// from Disconnect so no caller is left waiting on a connection that has
// gone away.
func (c *Client) failPendingBridges(err error) {
	c.bridgeMu.Lock()
	cancels := make([]func(error), 0, len(c.bridges))
	for _, cancel := range c.bridges {
		cancels = append(cancels, cancel)
	}
	c.bridges = make(map[int]func(error))
	c.bridgeMu.Unlock()

	for _, cancel := range cancels {
		cancel(err)
	}
}

// await runs one request/response bridge: it subscribes filtered to kind,
// sends the triggering line, and blocks until either a matching event
// arrives, ctx is done, or the bridge is failed by Disconnect.
func await[T any](c *Client, ctx context.Context, kind Kind, filter func(Event) bool, line string, extract func(Event) T) (T, error) {
	result := make(chan T, 1)
	failed := make(chan error, 1)

	var sub Subscription
	sub = c.Bus.OnceFiltered(kind, filter, func(e Event) {
		result <- extract(e)
	})

	id := c.registerBridge(func(err error) {
		sub.Unsubscribe()
		select {
		case failed <- err:
		default:
		}
	})
	defer c.resolveBridge(id)

	if err := c.scheduler.Send(line, false); err != nil {
		sub.Unsubscribe()
		var zero T
		return zero, err
	}

	select {
	case v := <-result:
		return v, nil
	case err := <-failed:
		var zero T
		return zero, err
	case <-ctx.Done():
		sub.Unsubscribe()
		var zero T
		return zero, ctx.Err()
	}
}

// Whois performs a WHOIS request/response round trip, resolving once the
// server's 318 (RPL_ENDOFWHOIS) for nick arrives.
func (c *Client) Whois(ctx context.Context, nick string) (*WhoisResult, error) {
	filter := func(e Event) bool {
		w, ok := e.(WhoisEvent)
		return ok && w.Result != nil && strings.EqualFold(w.Result.Nick, nick)
	}
	return await(c, ctx, KindWhois, filter, "WHOIS "+nick, func(e Event) *WhoisResult {
		return e.(WhoisEvent).Result
	})
}

// IsUserOn resolves true iff name is contained in the next IsOn event.
func (c *Client) IsUserOn(ctx context.Context, name string) (bool, error) {
	always := func(Event) bool { return true }
	return await(c, ctx, KindIsOn, always, "ISON "+name, func(e Event) bool {
		for _, online := range e.(IsOnEvent).Online {
			if strings.EqualFold(online, name) {
				return true
			}
		}
		return false
	})
}

// IsUsersOn is a batching supplement to IsUserOn: it resolves with the
// subset of names currently online from a single ISON round trip, for
// callers that would otherwise issue one IsUserOn per name.
func (c *Client) IsUsersOn(ctx context.Context, names []string) ([]string, error) {
	always := func(Event) bool { return true }
	return await(c, ctx, KindIsOn, always, "ISON "+strings.Join(names, " "), func(e Event) []string {
		return e.(IsOnEvent).Online
	})
}

// ServerVersion requests RPL_VERSION, optionally targeted at a specific
// server name (pass "" to ask the server the client is connected to).
func (c *Client) ServerVersion(ctx context.Context, target string) (ServerVersionEvent, error) {
	line := "VERSION"
	if target != "" {
		line += " " + target
	}
	always := func(Event) bool { return true }
	return await(c, ctx, KindServerVersion, always, line, func(e Event) ServerVersionEvent {
		return e.(ServerVersionEvent)
	})
}

// ChannelTopic queries a channel's topic, resolving on the first Topic
// event for that channel name (either the 332/331 reply to this query or a
// topic change that happens to race it).
func (c *Client) ChannelTopic(ctx context.Context, channel string) (string, error) {
	filter := func(e Event) bool {
		t, ok := e.(TopicEvent)
		return ok && strings.EqualFold(t.Channel, channel)
	}
	return await(c, ctx, KindTopic, filter, "TOPIC "+channel, func(e Event) string {
		return e.(TopicEvent).Topic
	})
}
