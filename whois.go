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

import "strconv"

// WhoisResult is the accumulated reply to a WHOIS query, built up across
// numerics 311-319 and 330, and finalised on 318 (RPL_ENDOFWHOIS).
type WhoisResult struct {
	Nick     string
	User     string
	Host     string
	RealName string
	Server   string
	ServerInfo string
	Operator bool
	Idle     bool
	IdleSecs int64
	Account  string

	Channels []string
	OpIn     map[string]bool
	VoiceIn  map[string]bool
	HalfOpIn map[string]bool
	OwnerIn  map[string]bool
}

func newWhoisResult(nick string) *WhoisResult {
	return &WhoisResult{
		Nick:     nick,
		OpIn:     make(map[string]bool),
		VoiceIn:  make(map[string]bool),
		HalfOpIn: make(map[string]bool),
		OwnerIn:  make(map[string]bool),
	}
}

// addChannels parses a 319 RPL_WHOISCHANNELS trailing list ("@#a +#b #c")
// into the builder's channel list and per-channel role subsets. Per the
// normalised NAMES/WHOIS semantics, "~" always denotes owners-exclusive.
func (w *WhoisResult) addChannels(field string) {
	for _, tok := range splitSpace(field) {
		if tok == "" {
			continue
		}
		name, role := splitNamePrefix(tok)
		w.Channels = append(w.Channels, name)
		switch role {
		case RoleOwner:
			w.OwnerIn[name] = true
		case RoleOp:
			w.OpIn[name] = true
		case RoleHalfOp:
			w.HalfOpIn[name] = true
		case RoleVoice:
			w.VoiceIn[name] = true
		}
	}
}

func splitSpace(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}

func parseIdleSeconds(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
