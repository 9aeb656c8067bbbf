package backend

import (
	"net/http"

	"github.com/google/uuid"
)

// authTransport attaches the session bearer token and a fresh request id to
// every outgoing call.
type authTransport struct {
	next  http.RoundTripper
	token TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if tok := t.token(); tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	r.Header.Set("X-Request-ID", uuid.NewString())
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "application/json")
	}
	return t.next.RoundTrip(r)
}
