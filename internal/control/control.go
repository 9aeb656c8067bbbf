// Package control exposes the agent over a local HTTP surface: the desktop
// shell drives refresh, approval, printing, and store selection through it.
package control

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/easycorest/easyrest-agent/internal/agent"
	"github.com/easycorest/easyrest-agent/internal/domain/order"
	"github.com/easycorest/easyrest-agent/internal/poller"
)

// Agent is the slice of the agent service the handlers need.
type Agent interface {
	Refresh(ctx context.Context) error
	Orders() []order.Order
	Summary() order.Summary
	ApproveOrder(ctx context.Context, id string) error
	PrintReceipt(ctx context.Context, id string) error
	SwitchStore(ctx context.Context, storeID string) error
	Status() map[string]bool
	ActiveStore() string
}

type Handler struct {
	lg     *zap.Logger
	svc    Agent
	facade *order.Facade
}

func New(lg *zap.Logger, svc Agent, facade *order.Facade) *Handler {
	return &Handler{lg: lg.Named("control"), svc: svc, facade: facade}
}

// Routes registers the control endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/orders", h.orders)
	mux.HandleFunc("POST /api/refresh", h.refresh)
	mux.HandleFunc("POST /api/orders/{id}/approve", h.approve)
	mux.HandleFunc("POST /api/orders/{id}/print", h.print)
	mux.HandleFunc("PUT /api/store", h.switchStore)
}

type orderView struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"orderId"`
	Platform    string    `json:"platform"`
	Status      string    `json:"status"`
	StatusText  string    `json:"statusText"`
	Customer    string    `json:"customer"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Amount      float64   `json:"amount"`
	IsNew       bool      `json:"isNew"`
	OrderType   string    `json:"orderType"`
	PaymentType string    `json:"paymentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) view(o *order.Order) orderView {
	return orderView{
		ID:          o.ID,
		OrderID:     h.facade.OrderID(o),
		Platform:    strings.ToLower(string(o.Type)),
		Status:      o.Status.String(),
		StatusText:  h.facade.StatusText(o),
		Customer:    h.facade.CustomerName(o),
		Phone:       h.facade.CustomerPhone(o),
		Address:     h.facade.DeliveryAddress(o).FullAddress,
		Amount:      h.facade.Amount(o).InexactFloat64(),
		IsNew:       h.facade.IsNew(o),
		OrderType:   h.facade.OrderTypeLabel(o),
		PaymentType: h.facade.PaymentTypeLabel(o),
		CreatedAt:   o.CreatedAt,
	}
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"activeStore": h.svc.ActiveStore(),
		"pollers":     h.svc.Status(),
		"summary":     h.svc.Summary(),
	})
}

func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	list := h.svc.Orders()
	views := make([]orderView, len(list))
	for i := range list {
		views[i] = h.view(&list[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Refresh(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, poller.ErrFetchInProgress), errors.Is(err, poller.ErrFetchTooSoon):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, agent.ErrNoStoreSelected):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.lg.Warn("Refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "refresh failed")
	}
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.mutateOrder(w, r, h.svc.ApproveOrder)
}

func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	h.mutateOrder(w, r, h.svc.PrintReceipt)
}

func (h *Handler) mutateOrder(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	id := r.PathValue("id")
	err := op(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, agent.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	default:
		h.lg.Warn("Order operation failed", zap.String("order_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (h *Handler) switchStore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StoreID string `json:"storeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.StoreID == "" {
		writeError(w, http.StatusBadRequest, "storeId is required")
		return
	}
	if err := h.svc.SwitchStore(r.Context(), body.StoreID); err != nil {
		h.lg.Warn("Store switch failed", zap.String("store_id", body.StoreID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "storeId": body.StoreID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
