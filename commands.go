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

import "strings"

// Join sends JOIN for one or more channels, optionally with matching keys
// (pass "" for a channel with no key). It does not wait for BotJoin; watch
// the Bus for that.
func (c *Client) Join(channel, key string) error {
	if key != "" {
		return c.scheduler.Send("JOIN "+channel+" "+key, false)
	}
	return c.scheduler.Send("JOIN "+channel, false)
}

// Part leaves channel, with an optional reason.
func (c *Client) Part(channel, reason string) error {
	if reason != "" {
		return c.scheduler.Send("PART "+channel+" :"+reason, false)
	}
	return c.scheduler.Send("PART "+channel, false)
}

// Privmsg sends a PRIVMSG to target (a nick or channel).
func (c *Client) Privmsg(target, text string) error {
	return c.scheduler.Send("PRIVMSG "+target+" :"+text, false)
}

// Notice sends a NOTICE to target.
func (c *Client) Notice(target, text string) error {
	return c.scheduler.Send("NOTICE "+target+" :"+text, false)
}

// Action sends a CTCP ACTION ("/me ...") to target.
func (c *Client) Action(target, text string) error {
	return c.scheduler.Send("PRIVMSG "+target+" :\x01ACTION "+text+"\x01", false)
}

// Kick removes nick from channel, with an optional reason.
func (c *Client) Kick(channel, nick, reason string) error {
	if reason != "" {
		return c.scheduler.Send("KICK "+channel+" "+nick+" :"+reason, false)
	}
	return c.scheduler.Send("KICK "+channel+" "+nick, false)
}

// MultiKick removes every nick in nicks from channel in a single line,
// as most servers accept a comma-joined target list.
func (c *Client) MultiKick(channel string, nicks []string, reason string) error {
	return c.Kick(channel, strings.Join(nicks, ","), reason)
}

// Mode sends a raw MODE change, e.g. Mode("#chan", "+o", "alice").
func (c *Client) Mode(target, modeToken string, args ...string) error {
	line := "MODE " + target + " " + modeToken
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	return c.scheduler.Send(line, false)
}

// Who requests a WHO listing for target (a channel or nick mask).
func (c *Client) Who(target string) error {
	return c.scheduler.Send("WHO "+target, false)
}

// RefreshUserList re-requests the NAMES list for channel, which the engine
// will use to refresh the channel's role sets as 353 replies arrive.
func (c *Client) RefreshUserList(channel string) error {
	return c.scheduler.Send("NAMES "+channel, false)
}

// SetChannelTopic changes channel's topic. It is rejected locally with
// ErrTopicTooLong if the server has advertised a TOPICLEN shorter than
// len(topic), sparing a round trip the server would reject anyway.
func (c *Client) SetChannelTopic(channel, topic string) error {
	c.mu.RLock()
	limit := c.supported["TOPICLEN"]
	c.mu.RUnlock()
	if limit != "" {
		if n, err := parsePositiveInt(limit); err == nil && n > 0 && len(topic) > n {
			return ErrTopicTooLong
		}
	}
	return c.scheduler.Send("TOPIC "+channel+" :"+topic, false)
}

// Wallops sends an operator WALLOPS broadcast.
func (c *Client) Wallops(text string) error {
	return c.scheduler.Send("WALLOPS :"+text, false)
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidMode
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, nil
}
