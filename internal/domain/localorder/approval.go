package localorder

import (
	"strings"

	"github.com/easycorest/easyrest-agent/internal/domain/order"
	"github.com/easycorest/easyrest-agent/internal/domain/platform"
)

// Request is the body POSTed to the order-approval endpoint. The extra
// fields past Odeme are platform-specific and echo values from the raw
// payload the backend needs to route the acknowledgement.
type Request struct {
	Platform string     `json:"platform"`
	OrderID  string     `json:"orderId"`
	Action   string     `json:"action"`
	Urunler  []LineItem `json:"urunler"`
	Odeme    *Payment   `json:"odeme,omitempty"`

	PackageStatus    string `json:"packageStatus,omitempty"`
	IsScheduled      *bool  `json:"isScheduled,omitempty"`
	ScheduledDate    string `json:"scheduledDate,omitempty"`
	ExpeditionType   string `json:"expeditionType,omitempty"`
	DeliveryProvider string `json:"deliveryProvider,omitempty"`
}

// BuildApproval assembles the approval request for one order.
func (b *Builder) BuildApproval(o *order.Order, storeID string) *Request {
	payload := b.Build(o, storeID)
	req := &Request{
		Platform: strings.ToLower(string(o.Type)),
		OrderID:  b.facade.OrderID(o),
		Action:   "verify",
		Urunler:  payload.Urunler,
		Odeme:    payload.Odeme,
	}

	raw := o.RawResult()
	switch o.Type {
	case platform.Trendyol:
		req.PackageStatus = raw.Get("packageStatus").String()
	case platform.Getir:
		scheduled := raw.Get("isScheduled").Bool()
		req.IsScheduled = &scheduled
		if scheduled {
			req.ScheduledDate = raw.Get("scheduledDate").String()
		}
	case platform.YemekSepeti:
		req.ExpeditionType = raw.Get("expeditionType").String()
	case platform.Migros:
		req.DeliveryProvider = raw.Get("deliveryProvider").String()
	}
	return req
}
