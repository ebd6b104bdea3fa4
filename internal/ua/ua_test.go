package ua

import (
	"testing"

	surfer "github.com/avct/uasurfer"
)

func TestParse_ChromeAndroid(t *testing.T) {
	raw := "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0.0.0 Mobile Safari/537.36"
	got := Parse(raw)
	if got.Browser != "Chrome" || got.OS != "Android" || got.Device != "Mobile" {
		t.Fatalf("Parse = %+v", got)
	}
	if got.IsBot {
		t.Fatal("Chrome flagged as bot")
	}
}

func TestParse_Bot(t *testing.T) {
	got := Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	if !got.IsBot || got.Device != "Bot" {
		t.Fatalf("Parse = %+v, want bot", got)
	}
}

func TestVersionToString(t *testing.T) {
	cases := []struct {
		in   surfer.Version
		want string
	}{
		{surfer.Version{}, ""},
		{surfer.Version{Major: 17}, "17"},
		{surfer.Version{Major: 17, Minor: 3}, "17.3"},
		{surfer.Version{Major: 17, Minor: 3, Patch: 1}, "17.3.1"},
	}
	for _, tc := range cases {
		if got := versionToString(tc.in); got != tc.want {
			t.Errorf("versionToString(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSummary(t *testing.T) {
	i := Info{Browser: "Firefox", Version: "126", OS: "Windows", Device: "Desktop"}
	if got := i.Summary(); got != "Firefox 126 / Windows / Desktop" {
		t.Fatalf("Summary = %q", got)
	}
}
