package platform

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type trendyolAdapter struct{}

var _ Adapter = trendyolAdapter{}

func (trendyolAdapter) Type() Type { return Trendyol }

func (trendyolAdapter) OrderID(raw gjson.Result) string {
	return compositeID(raw.Get("orderNumber").String(), raw.Get("orderCode").String())
}

func (trendyolAdapter) ReceiptOrderID(raw gjson.Result) string {
	return raw.Get("orderNumber").String()
}

func (trendyolAdapter) CustomerName(raw gjson.Result) string {
	first := raw.Get("customer.firstName").String()
	last := raw.Get("customer.lastName").String()
	return strings.TrimSpace(first + " " + last)
}

func (trendyolAdapter) CustomerPhone(raw gjson.Result) string {
	if v := raw.Get("callCenterPhone").String(); v != "" {
		return v
	}
	return raw.Get("address.phone").String()
}

func (trendyolAdapter) DeliveryAddress(raw gjson.Result) Address {
	addr := raw.Get("address")
	parts := make([]string, 0, 5)
	for _, field := range []string{"address1", "address2", "neighborhood", "district", "city"} {
		if v := addr.Get(field).String(); v != "" {
			parts = append(parts, v)
		}
	}
	line := strings.Join(parts, ", ")
	doorNo := addr.Get("doorNumber").String()
	if doorNo == "" {
		doorNo = addr.Get("apartmentNumber").String()
	}
	desc := addr.Get("addressDescription").String()
	if desc == "" {
		desc = raw.Get("customerNote").String()
	}
	return Address{
		Address:     line,
		DoorNo:      doorNo,
		Floor:       addr.Get("floor").String(),
		Description: desc,
		FullAddress: line,
	}
}

func (trendyolAdapter) Products(raw gjson.Result) []Node {
	lines := raw.Get("lines").Array()
	nodes := make([]Node, 0, len(lines))
	for _, line := range lines {
		name := nameOf(line.Get("name"))
		if declinedPromoLine(name) {
			continue
		}
		mapping, localType := trendyolMapping(line)
		quantity := len(line.Get("items").Array())
		if quantity == 0 {
			quantity = 1
		}
		node := Node{
			Name:      name,
			Price:     num(line, "price"),
			Quantity:  quantity,
			Mapping:   mapping,
			LocalType: localType,
			Raw:       line,
		}
		for _, m := range line.Get("modifierProducts").Array() {
			node.Children = append(node.Children, trendyolModifier(m))
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// declinedPromoLine matches top-level lines like "Promosyon Sos İstemiyorum"
// or "Ekstra Sos İstemiyorum" that only record a declined promotion. They are
// dropped before any mapping check.
func declinedPromoLine(name string) bool {
	f := foldTurkish(name)
	if !strings.HasSuffix(f, "istemiyorum") {
		return false
	}
	return strings.HasPrefix(f, "promosyon") || strings.HasPrefix(f, "ekstra")
}

func trendyolModifier(n gjson.Result) Node {
	mapping, localType := trendyolMapping(n)
	node := Node{
		Name:      nameOf(n.Get("name")),
		Price:     num(n, "price"),
		Quantity:  1,
		Mapping:   mapping,
		LocalType: localType,
		Raw:       n,
	}
	for _, m := range n.Get("modifierProducts").Array() {
		node.Children = append(node.Children, trendyolModifier(m))
	}
	return node
}

// Amount subtracts the seller-funded share of line item promotions and
// coupons from the gross total. Platform-funded discounts never reduce the
// restaurant payout and are ignored.
func (trendyolAdapter) Amount(raw gjson.Result) decimal.Decimal {
	total := num(raw, "totalPrice")
	discount := decimal.Zero
	for _, line := range raw.Get("lines").Array() {
		for _, item := range line.Get("items").Array() {
			for _, promo := range item.Get("promotions").Array() {
				discount = discount.Add(num(promo, "amount.seller"))
			}
			discount = discount.Add(num(item, "coupon.amount.seller"))
		}
	}
	return finalize(total.Sub(discount))
}

func (a trendyolAdapter) PaymentAmount(raw gjson.Result) decimal.Decimal {
	return a.Amount(raw)
}

func (trendyolAdapter) IsNew(_ string, raw gjson.Result) bool {
	return strings.EqualFold(raw.Get("packageStatus").String(), "created")
}

func (trendyolAdapter) OrderTypeLabel(raw gjson.Result) string {
	if raw.Get("deliveryType").String() == "STORE_PICKUP" {
		return "Mağazadan Teslim"
	}
	return "Paket Siparişi"
}

func (trendyolAdapter) PaymentTypeLabel(raw gjson.Result) string {
	payment := raw.Get("payment")
	if payment.Get("type").String() == "PAY_WITH_MEAL_CARD" {
		if card := payment.Get("mealCardType").String(); card != "" {
			return "Yemek Kartı (" + card + ")"
		}
	}
	if v := payment.Get("text.tr").String(); v != "" {
		return v
	}
	return "Kredi Kartı"
}
