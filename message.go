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

// ErrMalformedLine is returned by ParseMessage when a line carries no command.
var ErrMalformedLine = errors.New("irc: malformed line")

// Message is a single parsed IRC line. It is immutable once constructed;
// the Hostmask is the only field computed lazily, on first access.
type Message struct {
	Raw         string
	Tags        map[string]string
	prefix      string
	hostmask    *Hostmask
	Command     string
	Params      []string
	Trailing    string
	HasTrailing bool
}

// Hostmask is the parsed form of a message prefix: nick!user@host.
// Any component absent from the raw prefix is left empty.
type Hostmask struct {
	Raw  string
	Nick string
	User string
	Host string
}

// parseHostmask splits a raw prefix on the first '!' and then the first '@'.
// A prefix with neither delimiter is taken to be a bare nickname (or server
// name, which the caller distinguishes by context).
func parseHostmask(raw string) *Hostmask {
	hm := &Hostmask{Raw: raw}
	rest := raw
	if i := strings.IndexByte(rest, '!'); i >= 0 {
		hm.Nick = rest[:i]
		rest = rest[i+1:]
	} else {
		hm.Nick = rest
		return hm
	}
	if j := strings.IndexByte(rest, '@'); j >= 0 {
		hm.User = rest[:j]
		hm.Host = rest[j+1:]
	} else {
		hm.User = rest
	}
	return hm
}

// Hostmask lazily parses and caches the message's source prefix.
func (m *Message) Hostmask() *Hostmask {
	if m.hostmask == nil {
		m.hostmask = parseHostmask(m.prefix)
	}
	return m.hostmask
}

// Prefix returns the raw, unparsed source prefix (empty if the line carried none).
func (m *Message) Prefix() string {
	return m.prefix
}

// unescapeTagValue reverses the IRCv3.2 message-tag escaping rules.
// http://ircv3.net/specs/core/message-tags-3.2.html
func unescapeTagValue(value string) string {
	return strings.NewReplacer("\\:", ";", "\\s", " ", "\\\\", "\\", "\\r", "\r", "\\n", "\n").Replace(value)
}

func escapeTagValue(value string) string {
	value = strings.Replace(value, "\\", "\\\\", -1)
	value = strings.Replace(value, ";", "\\:", -1)
	value = strings.Replace(value, " ", "\\s", -1)
	value = strings.Replace(value, "\r", "\\r", -1)
	value = strings.Replace(value, "\n", "\\n", -1)
	return value
}

// TagValue reports a tag's value and whether the tag is present. A bare
// (valueless) key is present with value "".
func (m *Message) TagValue(key string) (value string, ok bool) {
	value, ok = m.Tags[key]
	return
}

// ParseMessage parses a single IRC line, excluding the trailing CRLF.
func ParseMessage(line string) (*Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, ErrMalformedLine
	}

	msg := &Message{Raw: line}
	rest := line

	if rest[0] == '@' {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return nil, ErrMalformedLine
		}
		msg.Tags = make(map[string]string)
		for _, item := range strings.Split(rest[1:i], ";") {
			if item == "" {
				continue
			}
			parts := strings.SplitN(item, "=", 2)
			if len(parts) == 1 {
				msg.Tags[parts[0]] = ""
			} else {
				msg.Tags[parts[0]] = unescapeTagValue(parts[1])
			}
		}
		rest = rest[i+1:]
	}

	if len(rest) > 0 && rest[0] == ':' {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return nil, ErrMalformedLine
		}
		msg.prefix = rest[1:i]
		rest = rest[i+1:]
	}

	rest = strings.TrimLeft(rest, " ")
	if rest == "" {
		return nil, ErrMalformedLine
	}

	split := strings.SplitN(rest, " :", 2)
	fields := strings.Fields(split[0])
	if len(fields) == 0 {
		return nil, ErrMalformedLine
	}

	command := fields[0]
	if isAlphaCommand(command) {
		command = strings.ToUpper(command)
	}
	msg.Command = command
	msg.Params = fields[1:]

	if len(split) > 1 {
		msg.Trailing = split[1]
		msg.HasTrailing = true
	}

	return msg, nil
}

func isAlphaCommand(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 'a' || c > 'z' {
			if c < 'A' || c > 'Z' {
				return false
			}
		}
	}
	return len(s) > 0
}

// Arg returns the i'th parameter, or "" if there are fewer than i+1.
func (m *Message) Arg(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Last returns the trailing message if present, else the final parameter,
// else "". It mirrors the common "last argument is the payload" pattern
// used throughout the dispatch table.
func (m *Message) Last() string {
	if m.HasTrailing {
		return m.Trailing
	}
	if len(m.Params) > 0 {
		return m.Params[len(m.Params)-1]
	}
	return ""
}

// String serialises the Message back into a wire line (without CRLF). It is
// the inverse of ParseMessage: parsing the result yields an equivalent
// Message (same tags, prefix, command, params and trailing).
func (m *Message) String() string {
	var b strings.Builder
	if len(m.Tags) > 0 {
		b.WriteByte('@')
		first := true
		for _, k := range sortedKeys(m.Tags) {
			if !first {
				b.WriteByte(';')
			}
			first = false
			b.WriteString(k)
			if v := m.Tags[k]; v != "" {
				b.WriteByte('=')
				b.WriteString(escapeTagValue(v))
			}
		}
		b.WriteByte(' ')
	}
	if m.prefix != "" {
		b.WriteByte(':')
		b.WriteString(m.prefix)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for _, p := range m.Params {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	if m.HasTrailing {
		b.WriteString(" :")
		b.WriteString(m.Trailing)
	}
	return b.String()
}

// sortedKeys returns the keys of a string map in lexical order, used only
// so Message.String() output is deterministic for tests.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
