package signal

import (
	"net/http/httptest"
	"testing"
)

func TestNormalizeOrigin(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"http://localhost:3000", "http://localhost:3000", true},
		{"HTTPS://Msgly.Example", "https://msgly.example", true},
		{"localhost", "", false},
		{"://bad", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeOrigin(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("normalizeOrigin(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeOriginsAllowAll(t *testing.T) {
	allowed, allowAll := normalizeOrigins([]string{"*", "http://a.test"})
	if !allowAll {
		t.Error("wildcard entry did not enable allow-all")
	}
	if _, ok := allowed["http://a.test"]; !ok {
		t.Error("explicit origin missing from allow-list")
	}
}

func TestCheckOrigin(t *testing.T) {
	allowed, allowAll := normalizeOrigins([]string{"http://localhost:3000"})
	check := checkOrigin(allowed, allowAll)

	r := httptest.NewRequest("GET", "/api/ws/relay", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	if !check(r) {
		t.Error("allowed origin was rejected")
	}

	r.Header.Set("Origin", "http://evil.test")
	if check(r) {
		t.Error("unlisted origin was accepted")
	}

	// Non-browser clients send no Origin header.
	r.Header.Del("Origin")
	if !check(r) {
		t.Error("request without Origin header was rejected")
	}
}
