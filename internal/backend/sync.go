package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// ReceiptHTML fetches the rendered thermal-receipt HTML for a resolved
// internal order id.
func (c *Client) ReceiptHTML(ctx context.Context, localOrderID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/print-order/order/"+url.PathEscape(localOrderID), nil)
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "text/html")

	res, err := c.hc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer func() {
		_ = res.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{Status: res.StatusCode, Body: string(data)}
	}
	return string(data), nil
}

// TriggerTrendyolSync asks the backend to pull freshly created Trendyol
// packages for the store. Best effort; the response body carries nothing the
// client needs.
func (c *Client) TriggerTrendyolSync(ctx context.Context, storeID string) error {
	q := url.Values{"packageStatuses": {"Created"}}
	err := c.do(ctx, http.MethodGet, "/api/trendyol-orders/sync/"+url.PathEscape(storeID), q, nil, nil)
	if err != nil {
		return errors.Wrap(err, "trendyol sync")
	}
	return nil
}

// TrendyolRefundReport pulls the last 24 hours of Trendyol cancellations and
// refunds for the store. Timestamps go over the wire in epoch milliseconds.
func (c *Client) TrendyolRefundReport(ctx context.Context, storeID string) error {
	end := c.now()
	start := end.Add(-24 * time.Hour)
	q := url.Values{
		"size":             {"100"},
		"storeId":          {storeID},
		"createdStartDate": {strconv.FormatInt(start.UnixMilli(), 10)},
		"createdEndDate":   {strconv.FormatInt(end.UnixMilli(), 10)},
	}
	err := c.do(ctx, http.MethodGet, "/api/trendyol-orders-diger/"+url.PathEscape(storeID)+"/iades", q, nil, nil)
	if err != nil {
		return errors.Wrap(err, "trendyol refund report")
	}
	c.lg.Debug("Trendyol refund report requested", zap.String("store_id", storeID))
	return nil
}

// YemekSepetiRefundReport pulls the cancelled-order report for the last 24
// hours.
func (c *Client) YemekSepetiRefundReport(ctx context.Context) error {
	q := url.Values{
		"status":            {"cancelled"},
		"pastNumberOfHours": {"24"},
	}
	err := c.do(ctx, http.MethodGet, "/api/yemeksepetideliveryhero/siparisRaporu", q, nil, nil)
	if err != nil {
		return errors.Wrap(err, "yemeksepeti refund report")
	}
	return nil
}
