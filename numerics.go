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

// Numeric replies the dispatch table keys off. Named per RFC 2812.
const (
	RPL_WELCOME       = "001"
	RPL_ISUPPORT      = "005"
	RPL_AWAY          = "301"
	RPL_ISON          = "303"
	RPL_WHOISUSER     = "311"
	RPL_WHOISSERVER   = "312"
	RPL_WHOISOPERATOR = "313"
	RPL_WHOISIDLE     = "317"
	RPL_ENDOFWHOIS    = "318"
	RPL_WHOISCHANNELS = "319"
	RPL_WHOISACCOUNT  = "330"
	RPL_NOTOPIC       = "331"
	RPL_TOPIC         = "332"
	RPL_VERSION       = "351"
	RPL_NAMREPLY      = "353"
	RPL_ENDOFNAMES    = "366"
	RPL_BANLIST       = "367"
	RPL_ENDOFBANLIST  = "368"
	RPL_MOTD          = "372"
	RPL_MOTDSTART     = "375"
	RPL_ENDOFMOTD     = "376"
	RPL_YOUREOPER     = "381"
	ERR_NOSUCHNICK    = "401"
	ERR_NOMOTD        = "422"
	ERR_NONICKNAMEGIVEN = "431"
	ERR_ERRONEUSNICKNAME = "432"
	ERR_NICKNAMEINUSE = "433"
	ERR_NICKCOLLISION = "436"
	ERR_UNAVAILRESOURCE = "437"
	ERR_RESTRICTED    = "484"
)
