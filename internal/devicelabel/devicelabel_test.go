package devicelabel

import "testing"

func TestParseKnownCombinations(t *testing.T) {
	cases := map[string]string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36":                                     "Chrome on Windows",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1":          "Safari on iPhone",
		"Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0":                                                                           "Firefox on Linux",
		"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Mobile Safari/537.36":                                        "Chrome on Android",
	}
	for ua, want := range cases {
		if got := Parse(ua); got != want {
			t.Errorf("Parse(%q) = %q, want %q", ua, got, want)
		}
	}
}

func TestParseEmptyUserAgent(t *testing.T) {
	if got := Parse(""); got != "Unknown device" {
		t.Errorf("expected Unknown device, got %q", got)
	}
}

func TestParseUnrecognizedUserAgent(t *testing.T) {
	if got := Parse("curl/8.0.1"); got != "Unknown browser on Unknown OS" {
		t.Errorf("unexpected label: %q", got)
	}
}
