// Package printer talks to the local thermal-printer bridge. The bridge
// accepts raw receipt HTML, no JSON envelope.
package printer

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DefaultPort is the port the bridge listens on unless configured otherwise.
const DefaultPort = 41411

// Client posts receipts to the bridge on localhost.
type Client struct {
	url string
	hc  *http.Client
	lg  *zap.Logger
}

func New(lg *zap.Logger, port int) *Client {
	if port == 0 {
		port = DefaultPort
	}
	return &Client{
		url: "http://localhost:" + strconv.Itoa(port) + "/api/receipt/print",
		hc:  &http.Client{Timeout: 10 * time.Second},
		lg:  lg.Named("printer"),
	}
}

// Print sends receipt HTML to the bridge.
func (c *Client) Print(ctx context.Context, html string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(html))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "text/html; charset=UTF-8")

	res, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrap(err, "printer bridge unreachable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if res.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("printer bridge: unexpected status %d", res.StatusCode)
	}
	c.lg.Debug("Receipt sent to printer bridge", zap.Int("bytes", len(html)))
	return nil
}
