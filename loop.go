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
	"time"
)

// Loop is an opt-in reconnect helper modelled on the teacher's Loop: call
// it after an initial successful Connect and it will redial with a backoff
// sleep whenever the connection drops unexpectedly, until ctx is done. A
// caller-initiated Disconnect does not trigger a reconnect; only
// Disconnect's absence (an Unexpected DisconnectEvent) does. The engine
// itself never calls Loop or reconnects on its own.
func (c *Client) Loop(ctx context.Context) error {
	disconnects := make(chan DisconnectEvent, 1)
	sub := c.Bus.SubscribeFiltered(KindDisconnect, func(e Event) bool {
		return e.(DisconnectEvent).Unexpected
	}, func(e Event) {
		select {
		case disconnects <- e.(DisconnectEvent):
		default:
		}
	})
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-disconnects:
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if err := c.Connect(ctx); err != nil {
				c.Log.Printf("irc: reconnect failed: %s\n", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(c.cfg.reconnectBackoff()):
				}
				continue
			}
			break
		}
	}
}
