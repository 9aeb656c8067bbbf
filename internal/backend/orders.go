package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/tidwall/gjson"

	"github.com/easycorest/easyrest-agent/internal/domain/localorder"
	"github.com/easycorest/easyrest-agent/internal/domain/order"
)

// OrdersResult is a normalized aggregated-orders response. It is non-nil
// even on failure so callers can always render an empty-shaped default.
type OrdersResult struct {
	Success bool
	Orders  []order.Order
	Summary order.Summary
}

// AggregatedOrders fetches the active order list for a store. Orders come
// back normalized; a missing summary block is synthesized locally. On error
// the result is an empty default, never nil.
func (c *Client) AggregatedOrders(ctx context.Context, storeID string) (*OrdersResult, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Orders  []order.Order  `json:"orders"`
			Summary *order.Summary `json:"summary"`
		} `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/aggregated-orders/"+url.PathEscape(storeID), nil, nil, &resp)
	if err != nil {
		return &OrdersResult{}, errors.Wrap(err, "aggregated orders")
	}

	c.facade.Normalize(resp.Data.Orders)
	result := &OrdersResult{
		Success: resp.Success,
		Orders:  resp.Data.Orders,
	}
	if resp.Data.Summary != nil {
		result.Summary = *resp.Data.Summary
	} else {
		result.Summary = c.facade.Summarize(resp.Data.Orders)
	}
	return result, nil
}

// Approve submits a built approval request.
func (c *Client) Approve(ctx context.Context, req *localorder.Request) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/api/order-approval/approve", nil, req, &resp)
	if err != nil {
		return errors.Wrap(err, "approve")
	}
	if !resp.Success {
		return errors.Errorf("approve rejected: %s", resp.Message)
	}
	return nil
}

// ResolveOrderID maps a platform-native order id to the internal order id
// used by the receipt endpoint. The backend answers with one of several
// historical field names.
func (c *Client) ResolveOrderID(ctx context.Context, orderID, platformName string) (string, error) {
	body := map[string]string{
		"orderId": orderID,
		"type":    platformName,
	}
	var raw []byte
	{
		var resp jsonBody
		if err := c.do(ctx, http.MethodPut, "/api/banko/getOrderById", nil, body, &resp); err != nil {
			return "", errors.Wrap(err, "resolve order id")
		}
		raw = resp
	}
	doc := gjson.ParseBytes(raw)
	for _, field := range []string{"id", "newOrderId", "orderId", "data.id"} {
		if v := doc.Get(field); v.Exists() && v.String() != "" {
			return v.String(), nil
		}
	}
	return "", errors.New("resolve order id: empty response")
}

type jsonBody []byte

func (b *jsonBody) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}
