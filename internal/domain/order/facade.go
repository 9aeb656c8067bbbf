package order

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/easycorest/easyrest-agent/internal/domain/platform"
)

// Facade answers every per-platform question about an order through the
// adapter registry. Accessors never fail: an unrecognized platform logs a
// warning and degrades to zero values rather than breaking the caller's
// rendering or polling loop.
type Facade struct {
	lg *zap.Logger
}

func NewFacade(lg *zap.Logger) *Facade {
	return &Facade{lg: lg.Named("orders")}
}

// Normalize backfills the Type discriminator on orders that only carry the
// legacy lowercase platform name. Orders that already have a Type are left
// untouched, so the pass is idempotent. Unrecognized names default to
// YemekSepeti, the platform the aggregation predates discriminators on.
func (f *Facade) Normalize(orders []Order) {
	for i := range orders {
		o := &orders[i]
		if o.Type != "" {
			continue
		}
		t, ok := platform.ParseType(o.Platform)
		if !ok {
			f.lg.Warn("Order without recognizable platform",
				zap.String("order_id", o.ID),
				zap.String("platform", o.Platform),
			)
			t = platform.YemekSepeti
		}
		o.Type = t
	}
}

func (f *Facade) adapter(o *Order) (platform.Adapter, bool) {
	a, ok := platform.ForType(o.Type)
	if !ok {
		f.lg.Warn("No adapter for order platform",
			zap.String("order_id", o.ID),
			zap.String("type", string(o.Type)),
		)
	}
	return a, ok
}

// OrderID is the composite identifier shown to the operator and sent with
// approvals.
func (f *Facade) OrderID(o *Order) string {
	a, ok := f.adapter(o)
	if !ok {
		return o.ID
	}
	return a.OrderID(o.RawResult())
}

// ReceiptOrderID is the platform-native identifier the backend resolves when
// fetching a printable receipt.
func (f *Facade) ReceiptOrderID(o *Order) string {
	a, ok := f.adapter(o)
	if !ok {
		return o.ID
	}
	return a.ReceiptOrderID(o.RawResult())
}

func (f *Facade) CustomerName(o *Order) string {
	a, ok := f.adapter(o)
	if !ok {
		return ""
	}
	return a.CustomerName(o.RawResult())
}

func (f *Facade) CustomerPhone(o *Order) string {
	a, ok := f.adapter(o)
	if !ok {
		return ""
	}
	return a.CustomerPhone(o.RawResult())
}

func (f *Facade) DeliveryAddress(o *Order) platform.Address {
	a, ok := f.adapter(o)
	if !ok {
		return platform.Address{}
	}
	return a.DeliveryAddress(o.RawResult())
}

func (f *Facade) Products(o *Order) []platform.Node {
	a, ok := f.adapter(o)
	if !ok {
		return nil
	}
	return a.Products(o.RawResult())
}

func (f *Facade) Amount(o *Order) decimal.Decimal {
	a, ok := f.adapter(o)
	if !ok {
		return decimal.Zero
	}
	return a.Amount(o.RawResult())
}

func (f *Facade) PaymentAmount(o *Order) decimal.Decimal {
	a, ok := f.adapter(o)
	if !ok {
		return decimal.Zero
	}
	return a.PaymentAmount(o.RawResult())
}

// IsNew reports whether the order still awaits acknowledgement, using the
// platform's own status vocabulary.
func (f *Facade) IsNew(o *Order) bool {
	a, ok := f.adapter(o)
	if !ok {
		return false
	}
	return a.IsNew(strings.ToLower(o.Status.String()), o.RawResult())
}

func (f *Facade) OrderTypeLabel(o *Order) string {
	a, ok := f.adapter(o)
	if !ok {
		return "Paket Siparişi"
	}
	return a.OrderTypeLabel(o.RawResult())
}

// PaymentTypeLabel prefers the tenant's own payment mapping when the backend
// attached one; the platform adapter only supplies the fallback label.
func (f *Facade) PaymentTypeLabel(o *Order) string {
	raw := o.RawResult()
	if v := raw.Get("payment.mapping.localPaymentType.odemeAdi").String(); v != "" {
		return v
	}
	a, ok := f.adapter(o)
	if !ok {
		return "Kredi Kartı"
	}
	return a.PaymentTypeLabel(raw)
}

// Sort pins new orders first, newest first within each group.
func (f *Facade) Sort(orders []Order) {
	Sort(orders, f.IsNew)
}

// Summary is the per-platform order count block of an aggregated-orders
// response. The backend sends it when it can; Summarize rebuilds it locally
// when it is absent.
type Summary struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// Summarize counts orders per platform, case-insensitive on the
// discriminator so that legacy mixed-case documents land in the same bucket.
func (f *Facade) Summarize(orders []Order) Summary {
	s := Summary{
		Total: len(orders),
		ByType: map[string]int{
			"trendyol":    0,
			"yemeksepeti": 0,
			"migros":      0,
			"getir":       0,
		},
	}
	for i := range orders {
		s.ByType[strings.ToLower(string(orders[i].Type))]++
	}
	return s
}

// CountNew reports how many orders still await acknowledgement.
func (f *Facade) CountNew(orders []Order) int {
	n := 0
	for i := range orders {
		if f.IsNew(&orders[i]) {
			n++
		}
	}
	return n
}
