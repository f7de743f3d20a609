package irc

import (
	"reflect"
	"testing"
)

func TestParseMessageWithTagsAndHostmask(t *testing.T) {
	line := "@time=2023-01-01T00:00:00.000Z;account=alice :nick!u@h PRIVMSG #chan :hello"
	msg, err := ParseMessage(line)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}

	wantTags := map[string]string{
		"time":    "2023-01-01T00:00:00.000Z",
		"account": "alice",
	}
	if !reflect.DeepEqual(msg.Tags, wantTags) {
		t.Errorf("Tags = %#v, want %#v", msg.Tags, wantTags)
	}

	hm := msg.Hostmask()
	if hm.Nick != "nick" || hm.User != "u" || hm.Host != "h" {
		t.Errorf("Hostmask = %+v, want nick/u/h", hm)
	}

	if msg.Command != "PRIVMSG" {
		t.Errorf("Command = %q, want PRIVMSG", msg.Command)
	}
	if !reflect.DeepEqual(msg.Params, []string{"#chan"}) {
		t.Errorf("Params = %#v, want [#chan]", msg.Params)
	}
	if msg.Trailing != "hello" {
		t.Errorf("Trailing = %q, want hello", msg.Trailing)
	}
}

func TestParseMessageNoPrefixNoTags(t *testing.T) {
	msg, err := ParseMessage("PING :xyz")
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.Command != "PING" || msg.Trailing != "xyz" {
		t.Errorf("got command=%q trailing=%q", msg.Command, msg.Trailing)
	}
	if msg.Prefix() != "" {
		t.Errorf("Prefix() = %q, want empty", msg.Prefix())
	}
}

func TestParseMessageNumericNotUppercased(t *testing.T) {
	msg, err := ParseMessage(":server.example 001 bot :Welcome")
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.Command != "001" {
		t.Errorf("Command = %q, want 001", msg.Command)
	}
}

func TestParseMessageBareHostmask(t *testing.T) {
	msg, err := ParseMessage(":irc.example.net NOTICE * :*** Looking up your hostname")
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	hm := msg.Hostmask()
	if hm.Nick != "irc.example.net" || hm.User != "" || hm.Host != "" {
		t.Errorf("Hostmask = %+v, want bare nick=irc.example.net", hm)
	}
}

func TestParseMessageMalformed(t *testing.T) {
	cases := []string{"", "@tag-without-space", ":prefix-without-space"}
	for _, c := range cases {
		if _, err := ParseMessage(c); err != ErrMalformedLine {
			t.Errorf("ParseMessage(%q) error = %v, want ErrMalformedLine", c, err)
		}
	}
}

func TestMessageRoundTrip(t *testing.T) {
	lines := []string{
		"@time=2023-01-01T00:00:00.000Z;account=alice :nick!u@h PRIVMSG #chan :hello there",
		"PING :xyz",
		":bot!u@h JOIN #c",
		":server.example 353 bot = #c :@alice +bob ~carol dave",
		"MODE #c +v alice",
	}
	for _, line := range lines {
		msg, err := ParseMessage(line)
		if err != nil {
			t.Fatalf("ParseMessage(%q): %v", line, err)
		}
		again, err := ParseMessage(msg.String())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", msg.String(), err)
		}
		if again.Command != msg.Command ||
			!reflect.DeepEqual(again.Params, msg.Params) ||
			again.Trailing != msg.Trailing ||
			again.HasTrailing != msg.HasTrailing ||
			again.Prefix() != msg.Prefix() ||
			!reflect.DeepEqual(again.Tags, msg.Tags) {
			t.Errorf("round trip mismatch for %q:\n got  %#v\n want %#v", line, again, msg)
		}
	}
}

func TestMessageArgAndLast(t *testing.T) {
	msg, err := ParseMessage("MODE #c +o alice")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Arg(0) != "#c" || msg.Arg(1) != "+o" || msg.Arg(2) != "alice" {
		t.Errorf("Arg mismatch: %#v", msg.Params)
	}
	if msg.Arg(3) != "" {
		t.Errorf("Arg(3) = %q, want empty", msg.Arg(3))
	}
	if msg.Last() != "alice" {
		t.Errorf("Last() = %q, want alice", msg.Last())
	}
}
