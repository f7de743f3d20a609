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
// WHETHER IN AN ACTION OF CONTRACT, TORT, OR OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import (
	"errors"
	"strings"
)

// ErrInvalidMode is returned by ParseModeChange when the input lacks a
// leading sign or carries no mode letters.
var ErrInvalidMode = errors.New("irc: invalid mode change")

// ParsePrefix parses an ISUPPORT PREFIX token of the shape "(modes)symbols",
// e.g. "(qaohv)~&@%+", pairing each mode letter with its sigil by index.
// An empty or malformed input yields an empty, non-nil map.
func ParsePrefix(input string) map[byte]byte {
	out := make(map[byte]byte)
	if len(input) < 2 || input[0] != '(' {
		return out
	}
	end := strings.IndexByte(input, ')')
	if end < 0 {
		return out
	}
	modes := input[1:end]
	symbols := input[end+1:]
	n := len(modes)
	if len(symbols) < n {
		n = len(symbols)
	}
	for i := 0; i < n; i++ {
		out[modes[i]] = symbols[i]
	}
	return out
}

// ModeChange is a disjoint pair of mode letters: those gaining a sign ('+')
// and those losing one ('-'). Only one side is populated per call to
// ParseModeChange, since a single modestring token carries one sign run,
// but a full MODE line may alternate signs across multiple tokens.
type ModeChange struct {
	Added   []byte
	Removed []byte
}

// ParseModeChange parses one sign-prefixed run of mode letters, e.g. "+ov"
// or "-b". The first character must be '+' or '-'.
func ParseModeChange(input string) (ModeChange, error) {
	if len(input) < 2 {
		return ModeChange{}, ErrInvalidMode
	}
	sign := input[0]
	if sign != '+' && sign != '-' {
		return ModeChange{}, ErrInvalidMode
	}
	letters := []byte(input[1:])
	switch sign {
	case '+':
		return ModeChange{Added: letters}, nil
	default:
		return ModeChange{Removed: letters}, nil
	}
}

// ModeRun is a single +/- letter with its consumed argument, if any. MODE
// lines interleave signs and letters in one token (e.g. "+ov-b") while
// arguments trail as separate parameters, consumed left to right according
// to CHANMODES classes and the PREFIX mode set.
type ModeRun struct {
	Add    bool
	Letter byte
	Arg    string
}

// ChanModes is the parsed CHANMODES=A,B,C,D ISUPPORT token. Class A modes
// (list, e.g. ban) always take an argument; class B always takes one; class
// C takes one only when being set; class D never takes one. PREFIX modes
// (o/v/h/q/a in most deployments) are not part of CHANMODES and are handled
// separately by the caller, since they always take an argument.
type ChanModes struct {
	A, B, C, D string
}

// ParseChanModes splits a CHANMODES ISUPPORT value into its four classes.
// Missing classes are left empty.
func ParseChanModes(value string) ChanModes {
	parts := strings.SplitN(value, ",", 4)
	var cm ChanModes
	if len(parts) > 0 {
		cm.A = parts[0]
	}
	if len(parts) > 1 {
		cm.B = parts[1]
	}
	if len(parts) > 2 {
		cm.C = parts[2]
	}
	if len(parts) > 3 {
		cm.D = parts[3]
	}
	return cm
}

// TakesArg reports whether letter consumes a parameter when applied with
// the given sign, given the channel's CHANMODES classes and PREFIX modes.
func (cm ChanModes) TakesArg(letter byte, adding bool, prefixModes map[byte]byte) bool {
	if _, ok := prefixModes[letter]; ok {
		return true
	}
	s := string(letter)
	switch {
	case strings.Contains(cm.A, s):
		return true
	case strings.Contains(cm.B, s):
		return true
	case strings.Contains(cm.C, s):
		return adding
	default:
		return false
	}
}

// ExpandModeRuns walks a MODE line's mode token ("+ov-b") together with the
// trailing argument parameters, producing one ModeRun per letter in order.
func ExpandModeRuns(modeToken string, args []string, cm ChanModes, prefixModes map[byte]byte) []ModeRun {
	var runs []ModeRun
	add := true
	argi := 0
	for i := 0; i < len(modeToken); i++ {
		c := modeToken[i]
		switch c {
		case '+':
			add = true
			continue
		case '-':
			add = false
			continue
		}
		run := ModeRun{Add: add, Letter: c}
		if cm.TakesArg(c, add, prefixModes) && argi < len(args) {
			run.Arg = args[argi]
			argi++
		}
		runs = append(runs, run)
	}
	return runs
}

// ParseISupport merges a 005 line's KEY / KEY=VALUE tokens into dst. The
// caller passes params with the leading "<nick>" already stripped.
func ParseISupport(dst map[string]string, params []string) {
	for _, tok := range params {
		if strings.HasPrefix(tok, ":") {
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		if len(kv) == 1 {
			dst[kv[0]] = ""
		} else {
			dst[kv[0]] = kv[1]
		}
	}
}
