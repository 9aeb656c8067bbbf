package order

import (
	"strings"

	"github.com/easycorest/easyrest-agent/internal/domain/platform"
)

// StatusText renders the operator-facing Turkish label for an order status.
// The table merges every platform's vocabulary; numeric Getir codes arrive
// here already stringified by Status.
func (f *Facade) StatusText(o *Order) string {
	s := strings.ToLower(o.Status.String())
	if o.Type == platform.Trendyol && s == "" {
		s = strings.ToLower(o.RawResult().Get("packageStatus").String())
	}
	if s == "" {
		return "Durum Belirsiz"
	}

	switch s {
	case "received", "processed", "created", "new_pending", "400":
		return "Yeni Sipariş"
	case "325", "1600":
		// Scheduled-order codes only mean a future order when the payload
		// says so; Getir reuses them on regular orders too.
		if o.RawResult().Get("isScheduled").Bool() {
			return "İleri Tarihli Sipariş"
		}
		return "Yeni Sipariş"
	case "accepted", "approved", "200":
		return "Onaylandı"
	case "preparing", "picking", "350":
		return "Hazırlanıyor"
	case "ready", "prepared":
		return "Hazır"
	case "shipped", "500", "on_the_way":
		return "Gönderildi"
	case "delivered", "600":
		return "Teslim Edildi"
	case "completed":
		return "Tamamlandı"
	case "invoiced":
		return "Fatura Kesildi"
	case "rejected":
		return "Reddedildi"
	case "cancelled", "canceled", "900":
		return "İptal Edildi"
	case "cancelled_by_customer":
		return "Müşteri Tarafından İptal Edildi"
	case "cancelled_by_restaurant":
		return "Restoran Tarafından İptal Edildi"
	case "unsupplied":
		return "Tedarik Edilemedi"
	}

	switch {
	case strings.Contains(s, "cancel"):
		return "İptal Edildi"
	case strings.Contains(s, "approve"), strings.Contains(s, "accept"):
		return "Onaylandı"
	case strings.Contains(s, "new"):
		return "Yeni Sipariş"
	case strings.Contains(s, "pending"):
		return "Bekliyor"
	}

	if o.Type == platform.Migros {
		return "Sipariş Durumu: " + o.Status.String()
	}
	if o.RawResult().Get("isScheduled").Bool() {
		return "İleri Tarihli Sipariş"
	}
	return "Durum Belirsiz"
}
