// Package backend is the REST client for the aggregation backend. It only
// consumes the backend's fixed contract; paths are part of that contract and
// must not drift.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/easycorest/easyrest-agent/internal/domain/order"
)

// fetchTimeout bounds a single aggregated-orders request.
const fetchTimeout = 15 * time.Second

const maxResponseBody = 8 << 20

// TokenSource supplies the current bearer token. An empty string sends the
// request unauthenticated.
type TokenSource func() string

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return "backend: unexpected status " + strconv.Itoa(e.Status)
}

// Client talks to the aggregation backend.
type Client struct {
	baseURL string
	hc      *http.Client
	lg      *zap.Logger
	facade  *order.Facade
	now     func() time.Time
}

type Options struct {
	BaseURL string
	Token   TokenSource
	Logger  *zap.Logger
	Facade  *order.Facade
	// Transport overrides the base round tripper, mainly for tests.
	Transport http.RoundTripper
}

func New(opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: opts.BaseURL,
		hc: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &authTransport{
				next:  otelhttp.NewTransport(base),
				token: token,
			},
		},
		lg:     opts.Logger.Named("backend"),
		facade: opts.Facade,
		now:    time.Now,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode body")
		}
		rd = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer func() {
		_ = res.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Status: res.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}
