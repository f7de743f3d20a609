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

// Role identifies one of a channel's five disjoint membership buckets.
type Role int

const (
	RoleMember Role = iota
	RoleVoice
	RoleHalfOp
	RoleOp
	RoleOwner
)

// Channel holds everything the engine has reconstructed about one joined
// channel: topic, the five role sets, and the ban list. A nickname is
// guaranteed to appear in at most one role set at a time; transitions
// always remove from every other set before adding to the target one.
//
// Channel does not hold a back-pointer to the owning Client: operations
// that need one (topic queries, ban refresh) go through the Client that
// looked the Channel up, so a Channel can be dropped (on BotPart or
// self-KICK) without anything needing to be unwound.
type Channel struct {
	Name  string
	Topic string

	owners  map[string]bool
	ops     map[string]bool
	halfops map[string]bool
	voices  map[string]bool
	members map[string]bool

	Bans []string
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:    name,
		owners:  make(map[string]bool),
		ops:     make(map[string]bool),
		halfops: make(map[string]bool),
		voices:  make(map[string]bool),
		members: make(map[string]bool),
	}
}

func (c *Channel) roleSet(r Role) map[string]bool {
	switch r {
	case RoleOwner:
		return c.owners
	case RoleOp:
		return c.ops
	case RoleHalfOp:
		return c.halfops
	case RoleVoice:
		return c.voices
	default:
		return c.members
	}
}

// removeFromAllRoles deletes nick from every role set, returning true if it
// was present in any of them.
func (c *Channel) removeFromAllRoles(nick string) bool {
	present := false
	for _, set := range []map[string]bool{c.owners, c.ops, c.halfops, c.voices, c.members} {
		if set[nick] {
			delete(set, nick)
			present = true
		}
	}
	return present
}

// setRole moves nick into exactly role, removing it from every other set
// first. This is what keeps the "at most one role set" invariant.
func (c *Channel) setRole(nick string, role Role) {
	c.removeFromAllRoles(nick)
	c.roleSet(role)[nick] = true
}

// renameNick moves a nickname from old to new while preserving its current
// role, if it has one. It is a no-op if old is not present in any role.
func (c *Channel) renameNick(old, newNick string) {
	for _, role := range []Role{RoleOwner, RoleOp, RoleHalfOp, RoleVoice, RoleMember} {
		set := c.roleSet(role)
		if set[old] {
			delete(set, old)
			set[newNick] = true
			return
		}
	}
}

// RoleOf reports the role nick currently holds. It returns (RoleMember,
// false) if the nick is not present in the channel at all.
func (c *Channel) RoleOf(nick string) (Role, bool) {
	for _, role := range []Role{RoleOwner, RoleOp, RoleHalfOp, RoleVoice, RoleMember} {
		if c.roleSet(role)[nick] {
			return role, true
		}
	}
	return RoleMember, false
}

// Owners, Ops, Halfops, Voices and Members return a snapshot slice of the
// nicknames currently in that role set.
func (c *Channel) Owners() []string  { return keys(c.owners) }
func (c *Channel) Ops() []string     { return keys(c.ops) }
func (c *Channel) Halfops() []string { return keys(c.halfops) }
func (c *Channel) Voices() []string  { return keys(c.voices) }
func (c *Channel) Members() []string { return keys(c.members) }

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// namePrefixToRole maps a NAMES (353) / WHOX sigil to its role. Per the
// engine's normalisation of the teacher's inconsistent source ("~" meant
// owners-exclusive in 319 but owner-and-member in 353), "~" always means
// owners-exclusive here.
func namePrefixToRole(sigil byte) (Role, bool) {
	switch sigil {
	case '~':
		return RoleOwner, true
	case '@':
		return RoleOp, true
	case '%':
		return RoleHalfOp, true
	case '+':
		return RoleVoice, true
	default:
		return RoleMember, false
	}
}

// splitNamePrefix strips a single leading role sigil (if any) from a NAMES
// entry, returning the bare nickname and the role it denotes.
func splitNamePrefix(entry string) (nick string, role Role) {
	if entry == "" {
		return entry, RoleMember
	}
	if r, ok := namePrefixToRole(entry[0]); ok {
		return entry[1:], r
	}
	return entry, RoleMember
}
