package irc

import "testing"

func TestBusPersistentSubscription(t *testing.T) {
	bus := NewBus(nil)
	count := 0
	bus.Subscribe(KindPong, func(Event) { count++ })
	bus.Publish(PongEvent{Token: "1"})
	bus.Publish(PongEvent{Token: "2"})
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestBusOnceSubscription(t *testing.T) {
	bus := NewBus(nil)
	count := 0
	bus.Once(KindPong, func(Event) { count++ })
	bus.Publish(PongEvent{Token: "1"})
	bus.Publish(PongEvent{Token: "2"})
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestBusOnceFilteredDoesNotConsumeOnMismatch(t *testing.T) {
	bus := NewBus(nil)
	var got string
	bus.OnceFiltered(KindWhois, func(e Event) bool {
		return e.(WhoisEvent).Result.Nick == "alice"
	}, func(e Event) {
		got = e.(WhoisEvent).Result.Nick
	})

	bus.Publish(WhoisEvent{Result: &WhoisResult{Nick: "bob"}})
	if got != "" {
		t.Fatalf("fired on mismatched event: got %q", got)
	}
	bus.Publish(WhoisEvent{Result: &WhoisResult{Nick: "alice"}})
	if got != "alice" {
		t.Fatalf("got %q, want alice", got)
	}

	// The subscription must be gone now.
	bus.Publish(WhoisEvent{Result: &WhoisResult{Nick: "alice"}})
	got = ""
	bus.Publish(WhoisEvent{Result: &WhoisResult{Nick: "alice"}})
	if got != "" {
		t.Fatalf("once-filtered subscription fired again after match")
	}
}

func TestBusDispatchOrderIsRegistrationOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []int
	bus.Subscribe(KindReady, func(Event) { order = append(order, 1) })
	bus.Subscribe(KindReady, func(Event) { order = append(order, 2) })
	bus.Subscribe(KindReady, func(Event) { order = append(order, 3) })
	bus.Publish(ReadyEvent{})
	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	count := 0
	sub := bus.Subscribe(KindPong, func(Event) { count++ })
	bus.Publish(PongEvent{})
	sub.Unsubscribe()
	bus.Publish(PongEvent{})
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestBusReentrantPublishIsSequential(t *testing.T) {
	bus := NewBus(nil)
	var order []string
	bus.Subscribe(KindReady, func(Event) {
		order = append(order, "ready-1")
		bus.Publish(MOTDEvent{Text: "nested"})
		order = append(order, "ready-2")
	})
	bus.Subscribe(KindMOTD, func(Event) {
		order = append(order, "motd")
	})
	bus.Publish(ReadyEvent{})
	want := []string{"ready-1", "ready-2", "motd"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestBusSubscriberPanicIsolated(t *testing.T) {
	bus := NewBus(nil)
	ran := false
	bus.Subscribe(KindPong, func(Event) { panic("boom") })
	bus.Subscribe(KindPong, func(Event) { ran = true })
	bus.Publish(PongEvent{})
	if !ran {
		t.Error("second subscriber did not run after first panicked")
	}
}
