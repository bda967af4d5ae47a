package frame

import "testing"

func TestFrameGetReturnsFirstOccurrence(t *testing.T) {
	f := New(CmdSend).Add("destination", "/queue/a").Add("destination", "/queue/b")
	v, ok := f.Get("destination")
	if !ok || v != "/queue/a" {
		t.Fatalf("Get() = %q, %v; want /queue/a, true", v, ok)
	}
}

func TestFrameGetDefaultFallsBack(t *testing.T) {
	f := New(CmdConnect)
	if got := f.GetDefault("accept-version", "1.0"); got != "1.0" {
		t.Fatalf("GetDefault() = %q; want 1.0", got)
	}
}

func TestContentLengthUsesBodyLength(t *testing.T) {
	f := New(CmdSend)
	f.Body = []byte("hello")
	if got := f.ContentLength(); got != 5 {
		t.Fatalf("ContentLength() = %d; want 5", got)
	}
}

func TestIsStompPrefixRecognizesConnectAndStomp(t *testing.T) {
	cases := map[string]bool{
		"CONNECT\naccept-version:1.1\n\n\x00": true,
		"STOMP\nhost:/\n\n\x00":               true,
		"\nCONNECT\n\n\x00":                   true,
		"SEND\ndestination:/q\n\n\x00":        false,
		"":                                    false,
	}
	for in, want := range cases {
		if got := IsStompPrefix([]byte(in)); got != want {
			t.Errorf("IsStompPrefix(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestIsHeartBeatOnlyBareNewline(t *testing.T) {
	if !IsHeartBeat([]byte("\n")) {
		t.Fatal("expected bare newline to be a heart-beat")
	}
	if IsHeartBeat([]byte("\n\n")) {
		t.Fatal("two newlines should not count as a heart-beat")
	}
	if IsHeartBeat([]byte("CONNECT\n")) {
		t.Fatal("a command line should not count as a heart-beat")
	}
}
