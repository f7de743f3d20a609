package irc

import "testing"

func TestParsePrefix(t *testing.T) {
	got := ParsePrefix("(ov)@+")
	want := map[byte]byte{'o': '@', 'v': '+'}
	if len(got) != len(want) || got['o'] != '@' || got['v'] != '+' {
		t.Errorf("ParsePrefix = %v, want %v", got, want)
	}
}

func TestParsePrefixEmpty(t *testing.T) {
	got := ParsePrefix("")
	if len(got) != 0 {
		t.Errorf("ParsePrefix(\"\") = %v, want empty map", got)
	}
}

func TestParseModeChange(t *testing.T) {
	mc, err := ParseModeChange("+ov")
	if err != nil {
		t.Fatalf("ParseModeChange: %v", err)
	}
	if string(mc.Added) != "ov" || len(mc.Removed) != 0 {
		t.Errorf("got %+v", mc)
	}

	mc, err = ParseModeChange("-b")
	if err != nil {
		t.Fatalf("ParseModeChange: %v", err)
	}
	if string(mc.Removed) != "b" || len(mc.Added) != 0 {
		t.Errorf("got %+v", mc)
	}
}

func TestParseModeChangeInvalid(t *testing.T) {
	for _, in := range []string{"", "+", "ov", "*ov"} {
		if _, err := ParseModeChange(in); err != ErrInvalidMode {
			t.Errorf("ParseModeChange(%q) error = %v, want ErrInvalidMode", in, err)
		}
	}
}

func TestParseISupport(t *testing.T) {
	dst := make(map[string]string)
	ParseISupport(dst, []string{"CHANTYPES=#&", "PREFIX=(ov)@+", "NAMESX"})
	if dst["CHANTYPES"] != "#&" || dst["PREFIX"] != "(ov)@+" {
		t.Errorf("dst = %v", dst)
	}
	if v, ok := dst["NAMESX"]; !ok || v != "" {
		t.Errorf("NAMESX = %q, ok=%v, want empty/true", v, ok)
	}
}

func TestExpandModeRuns(t *testing.T) {
	cm := ParseChanModes("b,k,l,imnpst")
	prefix := ParsePrefix("(ov)@+")
	runs := ExpandModeRuns("+ov-b", []string{"alice", "bob", "*!*@host"}, cm, prefix)
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3: %#v", len(runs), runs)
	}
	if runs[0] != (ModeRun{Add: true, Letter: 'o', Arg: "alice"}) {
		t.Errorf("runs[0] = %+v", runs[0])
	}
	if runs[1] != (ModeRun{Add: true, Letter: 'v', Arg: "bob"}) {
		t.Errorf("runs[1] = %+v", runs[1])
	}
	if runs[2] != (ModeRun{Add: false, Letter: 'b', Arg: "*!*@host"}) {
		t.Errorf("runs[2] = %+v", runs[2])
	}
}
