package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "socket peer", remote: "203.0.113.7:5555", want: "203.0.113.7"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "ipv4 mapped peer", remote: "[::ffff:203.0.113.7]:80", want: "203.0.113.7"},
		{
			name:    "first forwarded hop",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": " 198.51.100.2 , 10.0.0.9"},
			want:    "198.51.100.2",
		},
		{
			name:    "forwarded hop with port",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.2:1234"},
			want:    "198.51.100.2",
		},
		{
			name:    "garbage forwarded falls back to real ip",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "quote:everyone", "X-Real-IP": "198.51.100.3"},
			want:    "198.51.100.3",
		},
		{
			name:    "garbage headers fall back to peer",
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": ",,", "X-Real-IP": "unknown"},
			want:    "10.0.0.1",
		},
		{name: "unparseable peer kept verbatim", remote: "pipe", want: "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/quote", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, ClientIP(req))
		})
	}
	require.Empty(t, ClientIP(nil))
}
