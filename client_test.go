package irc

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeTransport is an in-memory Transport double: Send records every line
// written, and feed() pushes a line as if the server had sent it.
type fakeTransport struct {
	mu     sync.Mutex
	sent   []string
	lines  chan string
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{lines: make(chan string, 64)}
}

func (f *fakeTransport) Connect(ctx context.Context, cfg Config) error { return nil }

func (f *fakeTransport) Send(line string) error {
	f.mu.Lock()
	f.sent = append(f.sent, line)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Lines() <-chan string { return f.lines }

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		close(f.lines)
		f.closed = true
	}
	return nil
}

func (f *fakeTransport) feed(line string) {
	f.lines <- line
}

func (f *fakeTransport) sentLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestClient(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	c := NewClient(Config{Nickname: "bot", Host: "irc.example.org", Port: 6667}, ft)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Disconnect("") })
	return c, ft
}

func waitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func TestDispatchPingPong(t *testing.T) {
	c, ft := newTestClient(t)
	ft.feed("PING :abc123")

	waitFor(t, time.Second, func() bool {
		for _, l := range ft.sentLines() {
			if l == "PONG :abc123" {
				return true
			}
		}
		return false
	})
	_ = c
}

func TestDispatchJoinAssignsRoles(t *testing.T) {
	c, ft := newTestClient(t)

	ft.feed(":bot!u@h JOIN #chan")
	waitFor(t, time.Second, func() bool {
		_, ok := c.Channel("#chan")
		return ok
	})

	ft.feed(":server 353 bot = #chan :~carol @alice +bob dave")
	ft.feed(":server 366 bot #chan :End of /NAMES list.")

	waitFor(t, time.Second, func() bool {
		ch, ok := c.Channel("#chan")
		if !ok {
			return false
		}
		role, ok := ch.RoleOf("alice")
		return ok && role == RoleOp
	})

	ch, _ := c.Channel("#chan")
	if role, ok := ch.RoleOf("carol"); !ok || role != RoleOwner {
		t.Fatalf("carol role = %v, %v, want RoleOwner", role, ok)
	}
	if role, ok := ch.RoleOf("bob"); !ok || role != RoleVoice {
		t.Fatalf("bob role = %v, %v, want RoleVoice", role, ok)
	}
	if role, ok := ch.RoleOf("dave"); !ok || role != RoleMember {
		t.Fatalf("dave role = %v, %v, want RoleMember", role, ok)
	}
}

func TestDispatchModePreservesRoleExclusivity(t *testing.T) {
	c, ft := newTestClient(t)

	ft.feed(":bot!u@h JOIN #chan")
	waitFor(t, time.Second, func() bool {
		_, ok := c.Channel("#chan")
		return ok
	})
	ft.feed(":server 353 bot = #chan :dave")
	ft.feed(":server 366 bot #chan :End of /NAMES list.")
	waitFor(t, time.Second, func() bool {
		ch, _ := c.Channel("#chan")
		_, ok := ch.RoleOf("dave")
		return ok
	})

	ft.feed(":alice!u@h MODE #chan +v dave")
	waitFor(t, time.Second, func() bool {
		ch, _ := c.Channel("#chan")
		role, _ := ch.RoleOf("dave")
		return role == RoleVoice
	})

	ft.feed(":alice!u@h MODE #chan +o-v dave dave")
	waitFor(t, time.Second, func() bool {
		ch, _ := c.Channel("#chan")
		role, _ := ch.RoleOf("dave")
		return role == RoleOp
	})

	ch, _ := c.Channel("#chan")
	if ch.voices["dave"] {
		t.Fatal("dave still present in voices after being promoted to op")
	}
}

func TestDispatchNickChangePropagatesAcrossChannels(t *testing.T) {
	c, ft := newTestClient(t)

	ft.feed(":bot!u@h JOIN #chan")
	waitFor(t, time.Second, func() bool {
		_, ok := c.Channel("#chan")
		return ok
	})
	ft.feed(":alice!u@h JOIN #chan")
	waitFor(t, time.Second, func() bool {
		ch, _ := c.Channel("#chan")
		_, ok := ch.RoleOf("alice")
		return ok
	})

	ft.feed(":alice!u@h NICK alice2")
	waitFor(t, time.Second, func() bool {
		ch, _ := c.Channel("#chan")
		_, ok := ch.RoleOf("alice2")
		return ok
	})

	ch, _ := c.Channel("#chan")
	if _, ok := ch.RoleOf("alice"); ok {
		t.Fatal("old nick still present after NICK change")
	}
}

func TestWhoisAccumulatesAcrossNumerics(t *testing.T) {
	c, ft := newTestClient(t)

	var got *WhoisResult
	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		r, err := c.Whois(ctx, "alice")
		if err == nil {
			got = r
		}
		close(done)
	}()

	waitFor(t, time.Second, func() bool {
		for _, l := range ft.sentLines() {
			if l == "WHOIS alice" {
				return true
			}
		}
		return false
	})

	ft.feed(":server 311 bot alice aliceuser host * :Alice Realname")
	ft.feed(":server 312 bot alice irc.example.org :Example server")
	ft.feed(":server 319 bot alice :@#chan +#other")
	ft.feed(":server 318 bot alice :End of /WHOIS list.")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Whois did not resolve")
	}

	if got == nil {
		t.Fatal("Whois returned nil result")
	}
	if got.User != "aliceuser" || got.Host != "host" || got.RealName != "Alice Realname" {
		t.Fatalf("got = %+v", got)
	}
	if !got.OpIn["#chan"] {
		t.Fatalf("expected OpIn[#chan], got %+v", got.OpIn)
	}
	if !got.VoiceIn["#other"] {
		t.Fatalf("expected VoiceIn[#other], got %+v", got.VoiceIn)
	}
}

func TestReadyFiresOnce(t *testing.T) {
	c, ft := newTestClient(t)

	var mu sync.Mutex
	count := 0
	c.Bus.Subscribe(KindReady, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	ft.feed(":server 375 bot :- message of the day -")
	ft.feed(":server 376 bot :End of /MOTD command.")
	ft.feed(":alice!u@h PRIVMSG bot :hello")

	waitFor(t, time.Second, func() bool { return c.Ready() })
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("Ready fired %d times, want 1", count)
	}
}

func TestDisconnectFailsPendingWhois(t *testing.T) {
	c, ft := newTestClient(t)
	_ = ft

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Whois(context.Background(), "nobody")
		errCh <- err
	}()

	waitFor(t, time.Second, func() bool {
		c.bridgeMu.Lock()
		n := len(c.bridges)
		c.bridgeMu.Unlock()
		return n > 0
	})

	if err := c.Disconnect(""); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	select {
	case err := <-errCh:
		if err != ErrDisconnected {
			t.Fatalf("err = %v, want ErrDisconnected", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Whois did not fail after Disconnect")
	}
}
