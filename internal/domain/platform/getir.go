package platform

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type getirAdapter struct{}

var _ Adapter = getirAdapter{}

func (getirAdapter) Type() Type { return Getir }

func (getirAdapter) OrderID(raw gjson.Result) string {
	if v := raw.Get("confirmationId").String(); v != "" {
		return v
	}
	return raw.Get("id").String()
}

func (getirAdapter) ReceiptOrderID(raw gjson.Result) string {
	if v := raw.Get("orderId"); v.Exists() && v.String() != "" {
		return v.String()
	}
	return raw.Get("confirmationId").String()
}

func (getirAdapter) CustomerName(raw gjson.Result) string {
	return raw.Get("client.name").String()
}

func (getirAdapter) CustomerPhone(raw gjson.Result) string {
	return raw.Get("client.contactPhoneNumber").String()
}

func (getirAdapter) DeliveryAddress(raw gjson.Result) Address {
	addr := raw.Get("client.deliveryAddress")
	parts := make([]string, 0, 3)
	for _, field := range []string{"address", "district", "city"} {
		if v := addr.Get(field).String(); v != "" {
			parts = append(parts, v)
		}
	}
	line := strings.Join(parts, ", ")
	return Address{
		Address:     line,
		DoorNo:      addr.Get("doorNo").String(),
		Floor:       addr.Get("floor").String(),
		Description: addr.Get("description").String(),
		FullAddress: line,
	}
}

func (getirAdapter) Products(raw gjson.Result) []Node {
	products := raw.Get("products").Array()
	nodes := make([]Node, 0, len(products))
	for _, p := range products {
		mapping, localType := localMapping(p)
		node := Node{
			Name:      nameOf(p.Get("name")),
			Price:     num(p, "price"),
			Quantity:  quantityOf(p),
			Mapping:   mapping,
			LocalType: localType,
			Raw:       p,
		}
		// Option categories are a display grouping only; the nodes the
		// builder consumes are their options, flattened.
		for _, cat := range p.Get("options").Array() {
			for _, opt := range cat.Get("options").Array() {
				node.Children = append(node.Children, getirOption(opt))
			}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func getirOption(n gjson.Result) Node {
	mapping, localType := localMapping(n)
	node := Node{
		Name:      nameOf(n.Get("name")),
		Price:     num(n, "price"),
		Quantity:  1,
		Mapping:   mapping,
		LocalType: localType,
		Raw:       n,
	}
	for _, cat := range n.Get("optionCategories").Array() {
		catName := nameOf(cat.Get("name"))
		removal := ContainsFold(catName, "çıkarılacak") || ContainsFold(catName, "remove")
		for _, sub := range cat.Get("options").Array() {
			child := getirOption(sub)
			child.ForceUnwanted = removal
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// Amount honors an explicit zero: totalDiscountedPrice set to 0 means a
// fully discounted order, not a missing field.
func (getirAdapter) Amount(raw gjson.Result) decimal.Decimal {
	if v := raw.Get("totalDiscountedPrice"); v.Exists() && v.Type != gjson.Null {
		return finalize(num(raw, "totalDiscountedPrice"))
	}
	return finalize(firstNonZero(raw, "discountedAmount", "totalPrice", "totalAmount"))
}

func (getirAdapter) PaymentAmount(raw gjson.Result) decimal.Decimal {
	if v := raw.Get("totalDiscountedPrice"); v.Exists() && v.Type != gjson.Null {
		return finalize(num(raw, "totalDiscountedPrice"))
	}
	return finalize(num(raw, "totalPrice"))
}

// IsNew keys off the envelope status; the rawData status field is only a
// fallback since some payloads omit it.
func (getirAdapter) IsNew(status string, raw gjson.Result) bool {
	code, err := strconv.Atoi(strings.TrimSpace(status))
	if err != nil {
		code = int(raw.Get("status").Int())
	}
	if raw.Get("isScheduled").Bool() {
		return code == 325 || code == 1600
	}
	return code == 400
}

func (getirAdapter) OrderTypeLabel(raw gjson.Result) string {
	switch raw.Get("deliveryType").Int() {
	case 1:
		return "Getir Getirsin"
	case 2:
		return "Restoran Getirsin"
	}
	return "Paket Siparişi"
}

func (getirAdapter) PaymentTypeLabel(raw gjson.Result) string {
	if v := raw.Get("paymentMethodText.tr").String(); v != "" {
		return v
	}
	if v := raw.Get("payment.text.tr").String(); v != "" {
		return v
	}
	return "Kredi Kartı"
}
