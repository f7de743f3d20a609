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
	"strings"
	"time"
)

// dispatch applies the command/numeric dispatch table in §4.4: it updates
// engine state and emits the corresponding semantic event(s). It always
// runs on the Client's single run-loop goroutine.
func (c *Client) dispatch(msg *Message) {
	switch msg.Command {
	case "PING":
		c.scheduler.Send("PONG :"+msg.Last(), false)
	case "PRIVMSG":
		c.handlePrivmsg(msg)
	case "NOTICE":
		c.handleNotice(msg)
	case "JOIN":
		c.handleJoin(msg)
	case "PART":
		c.handlePart(msg)
	case "QUIT":
		c.handleQuit(msg)
	case "KICK":
		c.handleKick(msg)
	case "NICK":
		c.handleNick(msg)
	case "MODE":
		c.handleMode(msg)
	case "TOPIC":
		c.handleTopicChange(msg)
	case "INVITE":
		c.Bus.Publish(InviteEvent{From: msg.Hostmask().Nick, Channel: msg.Last()})
	case "PONG":
		c.Bus.Publish(PongEvent{Token: msg.Last()})
	case "ERROR":
		c.mu.Lock()
		c.errored = true
		c.mu.Unlock()
		c.Bus.Publish(ErrorEvent{Category: "server", Err: &ProtocolError{Text: msg.Last()}})

	case RPL_TOPIC:
		c.handleTopicReply(msg)
	case RPL_NOTOPIC:
		c.handleNoTopic(msg)
	case RPL_ISUPPORT:
		c.handleISupport(msg)
	case RPL_WHOISUSER:
		c.handleWhoisUser(msg)
	case RPL_WHOISSERVER:
		c.handleWhoisServer(msg)
	case RPL_WHOISOPERATOR:
		c.withWhois(msg, func(w *WhoisResult) { w.Operator = true })
	case RPL_WHOISIDLE:
		c.handleWhoisIdle(msg)
	case RPL_WHOISCHANNELS:
		c.withWhois(msg, func(w *WhoisResult) { w.addChannels(msg.Last()) })
	case RPL_WHOISACCOUNT:
		c.withWhois(msg, func(w *WhoisResult) { w.Account = msg.Arg(2) })
	case RPL_ENDOFWHOIS:
		c.handleEndOfWhois(msg)
	case RPL_ISON:
		c.Bus.Publish(IsOnEvent{Online: splitSpace(msg.Last())})
	case RPL_VERSION:
		c.Bus.Publish(ServerVersionEvent{Version: msg.Arg(1), Server: msg.Arg(2), Comments: msg.Last()})
	case RPL_NAMREPLY:
		c.handleNames(msg)
	case RPL_BANLIST:
		c.handleBanListEntry(msg)
	case RPL_MOTD:
		c.mu.Lock()
		c.motd.appendLine(msg.Last())
		c.mu.Unlock()
	case RPL_ENDOFMOTD, ERR_NOMOTD:
		c.finishMOTD()
	case ERR_NICKNAMEINUSE, ERR_NICKCOLLISION, ERR_UNAVAILRESOURCE, ERR_NONICKNAMEGIVEN:
		c.handleNickCollision(msg)
	case ERR_ERRONEUSNICKNAME:
		c.handleErroneousNick(msg)
	case ERR_RESTRICTED:
		// Recognised (restricted connection); no corrective action is
		// taken for it.
	case RPL_YOUREOPER:
		c.Bus.Publish(ServerOperatorEvent{})
	}
}

func (c *Client) handlePrivmsg(msg *Message) {
	c.fireReadyOnce()

	hm := msg.Hostmask()
	target := msg.Arg(0)
	text := msg.Last()

	if strings.HasPrefix(text, "\x01") {
		inner := strings.Trim(text, "\x01")
		if strings.HasPrefix(inner, "ACTION ") {
			c.Bus.Publish(ActionEvent{Nick: hm.Nick, User: hm.User, Host: hm.Host, Target: target, Text: inner[len("ACTION "):]})
			return
		}
		cmd := inner
		rest := ""
		if i := strings.IndexByte(inner, ' '); i >= 0 {
			cmd = inner[:i]
			rest = inner[i+1:]
		}
		c.replyCTCP(hm.Nick, cmd, rest)
		c.Bus.Publish(CTCPEvent{Nick: hm.Nick, User: hm.User, Host: hm.Host, Target: target, Command: cmd, Text: rest})
		if strings.HasPrefix(inner, "ACTION ") {
			c.Bus.Publish(ActionEvent{Nick: hm.Nick, User: hm.User, Host: hm.Host, Target: target, Text: inner[len("ACTION "):]})
		}
		return
	}

	c.Bus.Publish(MessageEvent{Nick: hm.Nick, User: hm.User, Host: hm.Host, Target: target, Text: text})
}

// replyCTCP auto-answers the standard CTCP queries, mirroring the
// teacher's setupCallbacks handlers. Payload decoding beyond ACTION is a
// stated non-goal, but replying to these five fixed-format queries needs
// no further decoding than splitting off the command word.
func (c *Client) replyCTCP(nick, cmd, rest string) {
	switch cmd {
	case "VERSION":
		c.scheduler.Send("NOTICE "+nick+" :\x01VERSION "+VERSION+"\x01", false)
	case "USERINFO":
		c.scheduler.Send("NOTICE "+nick+" :\x01USERINFO "+c.cfg.username()+"\x01", false)
	case "CLIENTINFO":
		c.scheduler.Send("NOTICE "+nick+" :\x01CLIENTINFO PING VERSION TIME USERINFO CLIENTINFO\x01", false)
	case "TIME":
		c.scheduler.Send("NOTICE "+nick+" :\x01TIME "+timeNowString()+"\x01", false)
	case "PING":
		c.scheduler.Send("NOTICE "+nick+" :\x01PING "+rest+"\x01", false)
	}
}

func (c *Client) handleNotice(msg *Message) {
	target := msg.Arg(0)
	var from string
	if target == "*" {
		from = msg.Prefix()
	} else {
		from = msg.Hostmask().Nick
	}
	c.Bus.Publish(NoticeEvent{From: from, Target: target, Text: msg.Last()})
}

func joinPartChannel(msg *Message) string {
	if msg.Arg(0) != "" {
		return msg.Arg(0)
	}
	return msg.Last()
}

func (c *Client) handleJoin(msg *Message) {
	hm := msg.Hostmask()
	chanName := joinPartChannel(msg)

	c.mu.Lock()
	isSelf := hm.Nick == c.nick
	_, known := c.channels[chanName]
	if isSelf && !known {
		c.channels[chanName] = newChannel(chanName)
	} else if !isSelf {
		if ch, ok := c.channels[chanName]; ok {
			ch.setRole(hm.Nick, RoleMember)
		}
	}
	c.mu.Unlock()

	if isSelf && !known {
		c.scheduler.Send("MODE "+chanName+" +b", false)
		c.Bus.Publish(BotJoinEvent{Channel: chanName})
		return
	}
	if !isSelf {
		c.Bus.Publish(JoinEvent{Nick: hm.Nick, User: hm.User, Host: hm.Host, Channel: chanName})
	}
}

func (c *Client) handlePart(msg *Message) {
	hm := msg.Hostmask()
	chanName := joinPartChannel(msg)
	reason := msg.Trailing

	c.mu.Lock()
	isSelf := hm.Nick == c.nick
	if ch, ok := c.channels[chanName]; ok {
		ch.removeFromAllRoles(hm.Nick)
	}
	if isSelf {
		delete(c.channels, chanName)
	}
	c.mu.Unlock()

	if isSelf {
		c.Bus.Publish(BotPartEvent{Channel: chanName})
		return
	}
	c.Bus.Publish(PartEvent{Nick: hm.Nick, User: hm.User, Host: hm.Host, Channel: chanName, Reason: reason})
}

func (c *Client) handleQuit(msg *Message) {
	hm := msg.Hostmask()
	reason := msg.Last()

	c.mu.Lock()
	isSelf := hm.Nick == c.nick
	var channels []string
	if !isSelf {
		for name, ch := range c.channels {
			if ch.removeFromAllRoles(hm.Nick) {
				channels = append(channels, name)
			}
		}
	}
	c.mu.Unlock()

	if isSelf {
		// A self-QUIT we received back from the server is a no-op beyond
		// tearing down the transport: the caller already drove this via
		// Disconnect, which owns transport teardown and event emission.
		return
	}

	for _, name := range channels {
		c.Bus.Publish(QuitPartEvent{Nick: hm.Nick, Channel: name})
	}
	c.Bus.Publish(QuitEvent{Nick: hm.Nick, User: hm.User, Host: hm.Host, Reason: reason})
}

func (c *Client) handleKick(msg *Message) {
	chanName := msg.Arg(0)
	kicked := msg.Arg(1)
	reason := msg.Last()

	c.mu.Lock()
	isSelf := kicked == c.nick
	if ch, ok := c.channels[chanName]; ok {
		ch.removeFromAllRoles(kicked)
	}
	if isSelf {
		delete(c.channels, chanName)
	}
	c.mu.Unlock()

	c.Bus.Publish(KickEvent{Channel: chanName, Nick: kicked, By: msg.Hostmask().Nick, Reason: reason})
}

func (c *Client) handleNick(msg *Message) {
	old := msg.Hostmask().Nick
	newNick := msg.Last()

	c.mu.Lock()
	if old == c.nick {
		c.nick = newNick
	}
	for _, ch := range c.channels {
		ch.renameNick(old, newNick)
	}
	c.mu.Unlock()

	c.Bus.Publish(NickChangeEvent{Old: old, New: newNick})
}

var modeLetterToRole = map[byte]Role{
	'q': RoleOwner,
	'o': RoleOp,
	'h': RoleHalfOp,
	'v': RoleVoice,
}

func (c *Client) handleMode(msg *Message) {
	target := msg.Arg(0)
	if len(msg.Params) < 2 {
		return
	}
	modeToken := msg.Arg(1)
	args := append([]string{}, msg.Params[2:]...)
	if msg.HasTrailing {
		args = append(args, msg.Trailing)
	}

	c.mu.Lock()
	cm := c.chanModes
	prefixMap := c.prefixMap
	ch, isChannel := c.channels[target]
	c.mu.Unlock()

	if isChannel {
		runs := ExpandModeRuns(modeToken, args, cm, prefixMap)
		for _, run := range runs {
			if run.Letter == 'b' {
				c.applyBanMode(ch, run)
				continue
			}
			role, tracked := modeLetterToRole[run.Letter]
			if !tracked || run.Arg == "" {
				continue
			}
			c.mu.Lock()
			if run.Add {
				ch.setRole(run.Arg, role)
			} else {
				if cur, ok := ch.RoleOf(run.Arg); ok && cur == role {
					ch.setRole(run.Arg, RoleMember)
				}
			}
			c.mu.Unlock()
		}
	}

	c.Bus.Publish(ModeEvent{Target: target, Mode: modeToken, Args: args, By: msg.Hostmask().Nick})
}

func (c *Client) applyBanMode(ch *Channel, run ModeRun) {
	if run.Arg == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if run.Add {
		for _, b := range ch.Bans {
			if b == run.Arg {
				return
			}
		}
		ch.Bans = append(ch.Bans, run.Arg)
		return
	}
	for i, b := range ch.Bans {
		if b == run.Arg {
			ch.Bans = append(ch.Bans[:i], ch.Bans[i+1:]...)
			return
		}
	}
}

func (c *Client) handleTopicChange(msg *Message) {
	chanName := msg.Arg(0)
	topic := msg.Last()

	c.mu.Lock()
	if ch, ok := c.channels[chanName]; ok {
		ch.Topic = topic
	}
	c.mu.Unlock()

	c.Bus.Publish(TopicEvent{Channel: chanName, Topic: topic, By: msg.Hostmask().Nick})
}

// handleTopicReply handles the 332 numeric (reply to a TOPIC query), which
// carries the channel in Arg(1) rather than Arg(0) since Arg(0) is our own
// nick.
func (c *Client) handleTopicReply(msg *Message) {
	chanName := msg.Arg(1)
	topic := msg.Last()

	c.mu.Lock()
	if ch, ok := c.channels[chanName]; ok {
		ch.Topic = topic
	}
	c.mu.Unlock()

	c.Bus.Publish(TopicEvent{Channel: chanName, Topic: topic})
}

func (c *Client) handleNoTopic(msg *Message) {
	chanName := msg.Arg(1)
	c.mu.Lock()
	if ch, ok := c.channels[chanName]; ok {
		ch.Topic = ""
	}
	c.mu.Unlock()
	c.Bus.Publish(TopicEvent{Channel: chanName, Topic: ""})
}

func (c *Client) handleISupport(msg *Message) {
	params := msg.Params
	if len(params) > 0 {
		params = params[1:] // drop leading <nick>
	}

	c.mu.Lock()
	ParseISupport(c.supported, params)
	if v, ok := c.supported["PREFIX"]; ok {
		if pm := ParsePrefix(v); len(pm) > 0 {
			c.prefixMap = pm
		}
	}
	if v, ok := c.supported["CHANMODES"]; ok {
		c.chanModes = ParseChanModes(v)
	}
	snapshot := make(map[string]string, len(c.supported))
	for k, v := range c.supported {
		snapshot[k] = v
	}
	c.mu.Unlock()

	c.Bus.Publish(ServerSupportsEvent{Supported: snapshot})
}

func (c *Client) withWhois(msg *Message, fn func(*WhoisResult)) {
	nick := msg.Arg(1)
	c.mu.Lock()
	w, ok := c.whois[nick]
	if !ok {
		w = newWhoisResult(nick)
		c.whois[nick] = w
	}
	fn(w)
	c.mu.Unlock()
}

func (c *Client) handleWhoisUser(msg *Message) {
	c.withWhois(msg, func(w *WhoisResult) {
		w.User = msg.Arg(2)
		w.Host = msg.Arg(3)
		w.RealName = msg.Last()
	})
}

func (c *Client) handleWhoisServer(msg *Message) {
	c.withWhois(msg, func(w *WhoisResult) {
		w.Server = msg.Arg(2)
		w.ServerInfo = msg.Last()
	})
}

func (c *Client) handleWhoisIdle(msg *Message) {
	c.withWhois(msg, func(w *WhoisResult) {
		w.Idle = true
		w.IdleSecs = parseIdleSeconds(msg.Arg(2))
	})
}

func (c *Client) handleEndOfWhois(msg *Message) {
	nick := msg.Arg(1)
	c.mu.Lock()
	w, ok := c.whois[nick]
	if ok {
		delete(c.whois, nick)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	c.Bus.Publish(WhoisEvent{Result: w})
}

func (c *Client) handleNames(msg *Message) {
	chanName := msg.Arg(2)
	c.mu.Lock()
	ch, ok := c.channels[chanName]
	c.mu.Unlock()
	if !ok {
		return
	}
	for _, entry := range splitSpace(msg.Last()) {
		nick, role := splitNamePrefix(entry)
		if nick == "" {
			continue
		}
		c.mu.Lock()
		ch.setRole(nick, role)
		c.mu.Unlock()
	}
}

func (c *Client) handleBanListEntry(msg *Message) {
	chanName := msg.Arg(1)
	mask := msg.Arg(2)
	c.mu.Lock()
	if ch, ok := c.channels[chanName]; ok {
		ch.Bans = append(ch.Bans, mask)
	}
	c.mu.Unlock()
}

func (c *Client) finishMOTD() {
	c.mu.Lock()
	text := c.motd.text
	if !c.motd.seen {
		text = "No MOTD"
	}
	c.mu.Unlock()
	c.Bus.Publish(MOTDEvent{Text: text})
	c.fireReadyOnce()
}

func (c *Client) fireReadyOnce() {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return
	}
	c.ready = true
	c.mu.Unlock()
	c.Bus.Publish(ReadyEvent{})
}

// handleNickCollision mutates the desired nickname and resends NICK, the
// way the teacher's modifyNick does, then still emits NickInUse so callers
// can override the fallback. Once Ready has fired the nickname is left
// alone and only NickInUse is emitted.
func (c *Client) handleNickCollision(msg *Message) {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		c.Bus.Publish(NickInUseEvent{Nick: msg.Arg(0)})
		return
	}
	next := mutateNick(c.nick)
	c.nick = next
	c.mu.Unlock()

	c.scheduler.Send("NICK "+next, true)
	c.Bus.Publish(NickInUseEvent{Nick: msg.Arg(0)})
}

// handleErroneousNick responds to 432 by prefixing "Err", distinct from
// the trailing-underscore strategy used for in-use/collision numerics,
// matching the teacher's differentiated handling of this specific error.
func (c *Client) handleErroneousNick(msg *Message) {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return
	}
	next := "Err" + c.nick
	c.nick = next
	c.mu.Unlock()

	c.scheduler.Send("NICK "+next, true)
	c.Bus.Publish(NickInUseEvent{Nick: msg.Arg(0)})
}

func mutateNick(nick string) string {
	if len(nick) > 8 {
		return "_" + nick
	}
	return nick + "_"
}

// registerInternalHandlers is a hook point for wiring state-maintaining
// logic through the Bus rather than the dispatch switch; all current state
// maintenance happens directly in dispatch, so this has nothing to do yet.
func (c *Client) registerInternalHandlers() {}

func timeNowString() string {
	return time.Now().Format("Mon Jan 2 15:04:05 2006")
}
