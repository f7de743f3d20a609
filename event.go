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
	"fmt"
	"log"
)

// Kind identifies one of the closed set of event variants the bus carries.
type Kind int

const (
	KindConnect Kind = iota
	KindDisconnect
	KindLineReceive
	KindLineSent
	KindReady
	KindMOTD
	KindMessage
	KindNotice
	KindCTCP
	KindAction
	KindJoin
	KindBotJoin
	KindPart
	KindBotPart
	KindQuit
	KindQuitPart
	KindKick
	KindNickChange
	KindNickInUse
	KindTopic
	KindMode
	KindWhois
	KindPong
	KindInvite
	KindIsOn
	KindServerVersion
	KindServerSupports
	KindServerOperator
	KindError
)

var kindNames = map[Kind]string{
	KindConnect:         "Connect",
	KindDisconnect:      "Disconnect",
	KindLineReceive:     "LineReceive",
	KindLineSent:        "LineSent",
	KindReady:           "Ready",
	KindMOTD:            "MOTD",
	KindMessage:         "Message",
	KindNotice:          "Notice",
	KindCTCP:            "CTCP",
	KindAction:          "Action",
	KindJoin:            "Join",
	KindBotJoin:         "BotJoin",
	KindPart:            "Part",
	KindBotPart:         "BotPart",
	KindQuit:            "Quit",
	KindQuitPart:        "QuitPart",
	KindKick:            "Kick",
	KindNickChange:      "NickChange",
	KindNickInUse:       "NickInUse",
	KindTopic:           "Topic",
	KindMode:            "Mode",
	KindWhois:           "Whois",
	KindPong:            "Pong",
	KindInvite:          "Invite",
	KindIsOn:            "IsOn",
	KindServerVersion:   "ServerVersion",
	KindServerSupports:  "ServerSupports",
	KindServerOperator:  "ServerOperator",
	KindError:           "Error",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is implemented by every concrete event variant the bus carries.
type Event interface {
	Kind() Kind
}

type ConnectEvent struct{}

func (ConnectEvent) Kind() Kind { return KindConnect }

// DisconnectEvent reports that the connection ended. Unexpected is false
// for a caller-initiated Disconnect and true when the transport dropped
// on its own (read error, EOF); Loop watches for the latter.
type DisconnectEvent struct {
	Reason     string
	Unexpected bool
}

func (DisconnectEvent) Kind() Kind { return KindDisconnect }

type LineReceiveEvent struct{ Line string }

func (LineReceiveEvent) Kind() Kind { return KindLineReceive }

type LineSentEvent struct{ Line string }

func (LineSentEvent) Kind() Kind { return KindLineSent }

type ReadyEvent struct{}

func (ReadyEvent) Kind() Kind { return KindReady }

type MOTDEvent struct{ Text string }

func (MOTDEvent) Kind() Kind { return KindMOTD }

type MessageEvent struct {
	Nick, User, Host string
	Target           string
	Text             string
}

func (MessageEvent) Kind() Kind { return KindMessage }

type NoticeEvent struct {
	From   string
	Target string
	Text   string
}

func (NoticeEvent) Kind() Kind { return KindNotice }

type CTCPEvent struct {
	Nick, User, Host string
	Target           string
	Command          string
	Text             string
}

func (CTCPEvent) Kind() Kind { return KindCTCP }

type ActionEvent struct {
	Nick, User, Host string
	Target           string
	Text             string
}

func (ActionEvent) Kind() Kind { return KindAction }

type JoinEvent struct {
	Nick, User, Host string
	Channel          string
}

func (JoinEvent) Kind() Kind { return KindJoin }

type BotJoinEvent struct{ Channel string }

func (BotJoinEvent) Kind() Kind { return KindBotJoin }

type PartEvent struct {
	Nick, User, Host string
	Channel          string
	Reason           string
}

func (PartEvent) Kind() Kind { return KindPart }

type BotPartEvent struct{ Channel string }

func (BotPartEvent) Kind() Kind { return KindBotPart }

type QuitEvent struct {
	Nick, User, Host string
	Reason           string
}

func (QuitEvent) Kind() Kind { return KindQuit }

// QuitPartEvent is the synthetic per-channel echo of a Quit: one fires for
// every channel the quitting user was present in.
type QuitPartEvent struct {
	Nick    string
	Channel string
}

func (QuitPartEvent) Kind() Kind { return KindQuitPart }

type KickEvent struct {
	Channel string
	Nick    string
	By      string
	Reason  string
}

func (KickEvent) Kind() Kind { return KindKick }

type NickChangeEvent struct {
	Old, New string
}

func (NickChangeEvent) Kind() Kind { return KindNickChange }

type NickInUseEvent struct{ Nick string }

func (NickInUseEvent) Kind() Kind { return KindNickInUse }

type TopicEvent struct {
	Channel string
	Topic   string
	By      string
}

func (TopicEvent) Kind() Kind { return KindTopic }

type ModeEvent struct {
	Target string
	Mode   string
	Args   []string
	By     string
}

func (ModeEvent) Kind() Kind { return KindMode }

type WhoisEvent struct {
	Result *WhoisResult
}

func (WhoisEvent) Kind() Kind { return KindWhois }

type PongEvent struct{ Token string }

func (PongEvent) Kind() Kind { return KindPong }

type InviteEvent struct {
	From    string
	Channel string
}

func (InviteEvent) Kind() Kind { return KindInvite }

type IsOnEvent struct{ Online []string }

func (IsOnEvent) Kind() Kind { return KindIsOn }

type ServerVersionEvent struct {
	Version  string
	Server   string
	Comments string
}

func (ServerVersionEvent) Kind() Kind { return KindServerVersion }

type ServerSupportsEvent struct{ Supported map[string]string }

func (ServerSupportsEvent) Kind() Kind { return KindServerSupports }

type ServerOperatorEvent struct{}

func (ServerOperatorEvent) Kind() Kind { return KindServerOperator }

// ErrorEvent's Category distinguishes parser diagnostics from transport and
// protocol-level failures, per the error-handling design.
type ErrorEvent struct {
	Category string // "parse", "transport", or "server"
	Err      error
}

func (ErrorEvent) Kind() Kind { return KindError }

// subscription is one registered handler. filter, when non-nil, guards
// whether a dispatched event counts as a match for this subscription; a
// non-matching event never consumes a "once" subscription.
type subscription struct {
	id     int
	kind   Kind
	once   bool
	filter func(Event) bool
	handle func(Event)
}

// Subscription is a handle returned by the Bus's Subscribe* methods, used
// to cancel the registration.
type Subscription struct {
	bus  *Bus
	kind Kind
	id   int
}

// Unsubscribe removes the subscription. It is a no-op if already removed
// (including by its own "once" firing).
func (s Subscription) Unsubscribe() {
	if s.bus == nil {
		return
	}
	s.bus.remove(s.kind, s.id)
}

// Bus is the engine's typed publish/subscribe mechanism. All dispatch runs
// synchronously on the calling goroutine; the engine itself guarantees
// Publish is only ever called from its single run-loop goroutine (see
// Client's dispatch loop), which is what gives the spec's total ordering
// guarantee across inbound lines.
type Bus struct {
	Log         *log.Logger
	subs        map[Kind][]*subscription
	nextID      int
	dispatching bool
	pending     []func()
}

// NewBus constructs an empty event bus.
func NewBus(logger *log.Logger) *Bus {
	return &Bus{Log: logger, subs: make(map[Kind][]*subscription)}
}

// Subscribe registers a persistent handler for kind.
func (b *Bus) Subscribe(kind Kind, handle func(Event)) Subscription {
	return b.add(kind, false, nil, handle)
}

// SubscribeFiltered registers a persistent handler that only fires for
// events matching filter; non-matching events are simply not delivered.
func (b *Bus) SubscribeFiltered(kind Kind, filter func(Event) bool, handle func(Event)) Subscription {
	return b.add(kind, false, filter, handle)
}

// Once registers a handler removed after its first (matching) firing.
func (b *Bus) Once(kind Kind, handle func(Event)) Subscription {
	return b.add(kind, true, nil, handle)
}

// OnceFiltered registers a one-shot handler guarded by filter. A mismatched
// event does not consume the subscription: it remains live until an event
// satisfying filter arrives, at which point it fires once and is removed.
func (b *Bus) OnceFiltered(kind Kind, filter func(Event) bool, handle func(Event)) Subscription {
	return b.add(kind, true, filter, handle)
}

func (b *Bus) add(kind Kind, once bool, filter func(Event) bool, handle func(Event)) Subscription {
	b.nextID++
	id := b.nextID
	sub := &subscription{id: id, kind: kind, once: once, filter: filter, handle: handle}
	// Copy-on-write: a dispatch in progress holds the previous slice header
	// and is unaffected by this append reallocating.
	old := b.subs[kind]
	next := make([]*subscription, len(old), len(old)+1)
	copy(next, old)
	b.subs[kind] = append(next, sub)
	return Subscription{bus: b, kind: kind, id: id}
}

func (b *Bus) remove(kind Kind, id int) {
	old := b.subs[kind]
	next := make([]*subscription, 0, len(old))
	for _, s := range old {
		if s.id != id {
			next = append(next, s)
		}
	}
	b.subs[kind] = next
}

// Publish dispatches event to every subscriber of its kind, in registration
// order, against a snapshot of the subscriber list taken at dispatch start.
// A subscriber that itself calls Publish re-enters sequentially: the
// nested event is queued and drained only once the outer dispatch to its
// snapshot has finished.
func (b *Bus) Publish(event Event) {
	if b.dispatching {
		b.pending = append(b.pending, func() { b.dispatch(event) })
		return
	}
	b.dispatching = true
	b.dispatch(event)
	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		next()
	}
	b.dispatching = false
}

func (b *Bus) dispatch(event Event) {
	kind := event.Kind()
	snapshot := b.subs[kind]
	var toRemove []int
	for _, sub := range snapshot {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		b.invoke(sub, event)
		if sub.once {
			toRemove = append(toRemove, sub.id)
		}
	}
	for _, id := range toRemove {
		b.remove(kind, id)
	}
}

func (b *Bus) invoke(sub *subscription, event Event) {
	defer func() {
		if r := recover(); r != nil && b.Log != nil {
			b.Log.Printf("irc: subscriber panic on %s: %v", event.Kind(), r)
		}
	}()
	sub.handle(event)
}
