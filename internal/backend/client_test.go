package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/easycorest/easyrest-agent/internal/domain/localorder"
	"github.com/easycorest/easyrest-agent/internal/domain/order"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	lg := zaptest.NewLogger(t)
	return New(Options{
		BaseURL: srv.URL,
		Token:   func() string { return "tok-123" },
		Logger:  lg,
		Facade:  order.NewFacade(lg),
	})
}

func TestAggregatedOrders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/aggregated-orders/store-1", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"success": true, "data": {"orders": [
			{"_id": "a", "platform": "trendyol", "rawData": {"packageStatus": "Created"}},
			{"_id": "b", "type": "GETIR", "status": 400, "rawData": {"status": 400}}
		]}}`))
	}))

	res, err := c.AggregatedOrders(context.Background(), "store-1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Orders, 2)
	assert.Equal(t, "TRENDYOL", string(res.Orders[0].Type), "legacy platform field is normalized")
	assert.Equal(t, "400", res.Orders[1].Status.String())

	// Summary was absent and must be synthesized.
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.ByType["trendyol"])
	assert.Equal(t, 1, res.Summary.ByType["getir"])
}

func TestAggregatedOrdersFailureShape(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	res, err := c.AggregatedOrders(context.Background(), "store-1")
	require.Error(t, err)
	require.NotNil(t, res, "failures still return an empty-shaped result")
	assert.False(t, res.Success)
	assert.Empty(t, res.Orders)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Status)
}

func TestApprove(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/order-approval/approve", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	require.NoError(t, c.Approve(context.Background(), &localorder.Request{
		Platform: "trendyol", OrderID: "1044", Action: "verify",
	}))
}

func TestApproveRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "store closed"}`))
	}))
	err := c.Approve(context.Background(), &localorder.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store closed")
}

func TestResolveOrderID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/banko/getOrderById", r.URL.Path)
		_, _ = w.Write([]byte(`{"newOrderId": "local-77"}`))
	}))
	id, err := c.ResolveOrderID(context.Background(), "1044", "trendyol")
	require.NoError(t, err)
	assert.Equal(t, "local-77", id)
}

func TestReceiptHTML(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/print-order/order/local-77", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>fis</body></html>"))
	}))
	html, err := c.ReceiptHTML(context.Background(), "local-77")
	require.NoError(t, err)
	assert.Contains(t, html, "fis")
}

func TestSyncEndpoints(t *testing.T) {
	var gotSync, gotRefund, gotYS bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/trendyol-orders/sync/store-1":
			gotSync = true
			assert.Equal(t, "Created", r.URL.Query().Get("packageStatuses"))
		case "/api/trendyol-orders-diger/store-1/iades":
			gotRefund = true
			q := r.URL.Query()
			assert.Equal(t, "100", q.Get("size"))
			start, err := strconv.ParseInt(q.Get("createdStartDate"), 10, 64)
			require.NoError(t, err)
			end, err := strconv.ParseInt(q.Get("createdEndDate"), 10, 64)
			require.NoError(t, err)
			assert.Equal(t, 24*time.Hour, time.Duration(end-start)*time.Millisecond)
		case "/api/yemeksepetideliveryhero/siparisRaporu":
			gotYS = true
			assert.Equal(t, "cancelled", r.URL.Query().Get("status"))
			assert.Equal(t, "24", r.URL.Query().Get("pastNumberOfHours"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{}`))
	}))

	ctx := context.Background()
	require.NoError(t, c.TriggerTrendyolSync(ctx, "store-1"))
	require.NoError(t, c.TrendyolRefundReport(ctx, "store-1"))
	require.NoError(t, c.YemekSepetiRefundReport(ctx))
	assert.True(t, gotSync)
	assert.True(t, gotRefund)
	assert.True(t, gotYS)
}
