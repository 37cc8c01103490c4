package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func requestFrom(remoteAddr, xff, realIP string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/books", nil)
	r.RemoteAddr = remoteAddr
	if xff != "" {
		r.Header.Set("X-Forwarded-For", xff)
	}
	if realIP != "" {
		r.Header.Set("X-Real-IP", realIP)
	}
	return r
}

func TestClientIPWithoutTrustedProxies(t *testing.T) {
	r := requestFrom("198.51.100.10:4711", "203.0.113.5", "203.0.113.6")
	if got := ClientIP(r, nil); got != "198.51.100.10" {
		t.Fatalf("forwarded headers must be ignored without trust, got %q", got)
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10"})
	if err != nil {
		t.Fatalf("new trusted proxies: %v", err)
	}

	cases := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"single forwarded hop", requestFrom("10.0.0.20:4711", "203.0.113.5", ""), "203.0.113.5"},
		{"first untrusted from the right wins", requestFrom("10.0.0.20:4711", "203.0.113.5, 10.0.0.10", ""), "203.0.113.5"},
		{"fully trusted chain keeps leftmost", requestFrom("10.0.0.20:4711", "10.0.0.5, 10.0.0.10", ""), "10.0.0.5"},
		{"garbage chain falls back to x-real-ip", requestFrom("10.0.0.20:4711", "not-an-address", "203.0.113.7"), "203.0.113.7"},
		{"no headers yields the peer", requestFrom("10.0.0.20:4711", "", ""), "10.0.0.20"},
		{"untrusted peer ignores headers", requestFrom("203.0.113.9:4711", "10.0.0.5", ""), "203.0.113.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientIP(tc.req, trusted); got != tc.want {
				t.Fatalf("client ip = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewTrustedProxies(t *testing.T) {
	trusted, err := NewTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.1 ", ""})
	if err != nil || trusted == nil {
		t.Fatalf("valid entries rejected: %v", err)
	}
	if _, err := NewTrustedProxies([]string{"not-a-range"}); err == nil {
		t.Fatalf("expected parse error for invalid entry")
	}
	empty, err := NewTrustedProxies(nil)
	if err != nil || empty != nil {
		t.Fatalf("empty input should trust no proxy, got %v err %v", empty, err)
	}
}
