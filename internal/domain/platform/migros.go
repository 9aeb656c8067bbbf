package platform

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type migrosAdapter struct{}

var _ Adapter = migrosAdapter{}

func (migrosAdapter) Type() Type { return Migros }

func (migrosAdapter) OrderID(raw gjson.Result) string {
	return compositeID(raw.Get("orderId").String(), raw.Get("platformConfirmationId").String())
}

func (migrosAdapter) ReceiptOrderID(raw gjson.Result) string {
	return raw.Get("orderId").String()
}

func (migrosAdapter) CustomerName(raw gjson.Result) string {
	if v := raw.Get("customerInfo.name").String(); v != "" {
		return v
	}
	if v := raw.Get("customer.fullName").String(); v != "" {
		return v
	}
	first := raw.Get("customer.firstName").String()
	last := raw.Get("customer.lastName").String()
	return strings.TrimSpace(first + " " + last)
}

func (migrosAdapter) CustomerPhone(raw gjson.Result) string {
	if v := raw.Get("customerInfo.phone").String(); v != "" {
		return v
	}
	return raw.Get("customer.phoneNumber").String()
}

func (migrosAdapter) DeliveryAddress(raw gjson.Result) Address {
	if info := raw.Get("customerInfo.address"); info.Exists() {
		parts := make([]string, 0, 3)
		if v := info.Get("street").String(); v != "" {
			parts = append(parts, v)
		}
		if v := info.Get("number").String(); v != "" {
			parts = append(parts, "No:"+v)
		}
		if v := info.Get("detail").String(); v != "" {
			parts = append(parts, v)
		}
		line := strings.Join(parts, ", ")
		return Address{
			Address:     line,
			DoorNo:      info.Get("door").String(),
			Floor:       info.Get("floor").String(),
			Description: info.Get("direction").String(),
			FullAddress: line,
		}
	}
	addr := raw.Get("customer.deliveryAddress")
	line := addr.Get("detail").String()
	if line == "" {
		line = addr.Get("address").String()
	}
	if line == "" {
		parts := make([]string, 0, 4)
		if v := addr.Get("streetName").String(); v != "" {
			parts = append(parts, v)
		}
		if v := addr.Get("buildingNumber").String(); v != "" {
			parts = append(parts, "No:"+v)
		}
		for _, field := range []string{"district", "city"} {
			if v := addr.Get(field).String(); v != "" {
				parts = append(parts, v)
			}
		}
		line = strings.Join(parts, ", ")
	}
	return Address{
		Address:     line,
		DoorNo:      addr.Get("doorNumber").String(),
		Floor:       addr.Get("floorNumber").String(),
		Description: addr.Get("direction").String(),
		FullAddress: line,
	}
}

func (migrosAdapter) Products(raw gjson.Result) []Node {
	items := raw.Get("items").Array()
	if len(items) == 0 {
		items = raw.Get("products").Array()
	}
	nodes := make([]Node, 0, len(items))
	for _, p := range items {
		mapping, localType := localMapping(p)
		name := nameOf(p.Get("name"))
		if name == "" {
			name = p.Get("itemNames").String()
		}
		node := Node{
			Name:      name,
			Price:     num(p, "price"),
			Quantity:  quantityOf(p),
			Mapping:   mapping,
			LocalType: localType,
			Raw:       p,
		}
		for _, opt := range p.Get("options").Array() {
			node.Children = append(node.Children, migrosOption(opt))
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func migrosOption(n gjson.Result) Node {
	mapping, localType := localMapping(n)
	node := Node{
		Name:          n.Get("itemNames").String(),
		Price:         num(n, "price"),
		Quantity:      1,
		Mapping:       mapping,
		LocalType:     localType,
		ForceUnwanted: n.Get("optionType").String() == "INGREDIENT",
		Raw:           n,
	}
	for _, sub := range n.Get("subOptions").Array() {
		node.Children = append(node.Children, migrosOption(sub))
	}
	return node
}

// Amount prefers the marketplace-level totals; stores that only report the
// penny-denominated prices block fall back to it, dividing by 100.
func (migrosAdapter) Amount(raw gjson.Result) decimal.Decimal {
	if d := firstNonZero(raw, "discountedAmount", "totalAmount"); !d.IsZero() {
		return finalize(d)
	}
	if penny := migrosPenny(raw); !penny.IsZero() {
		return finalize(penny)
	}
	return decimal.Zero
}

func (a migrosAdapter) PaymentAmount(raw gjson.Result) decimal.Decimal {
	if penny := migrosPenny(raw); !penny.IsZero() {
		return finalize(penny)
	}
	return a.Amount(raw)
}

func migrosPenny(raw gjson.Result) decimal.Decimal {
	for _, path := range []string{
		"prices.restaurantDiscounted.amountAsPenny",
		"prices.discounted.amountAsPenny",
		"prices.total.amountAsPenny",
	} {
		if v := raw.Get(path); v.Exists() && v.Int() != 0 {
			return decimal.NewFromInt(v.Int()).Div(decimal.NewFromInt(100))
		}
	}
	return decimal.Zero
}

func (migrosAdapter) IsNew(status string, _ gjson.Result) bool {
	s := strings.ToLower(status)
	return s == "new_pending" || strings.Contains(s, "new")
}

func (migrosAdapter) OrderTypeLabel(raw gjson.Result) string {
	switch strings.ToUpper(raw.Get("deliveryProvider").String()) {
	case "PICKUP":
		return "Gel Al"
	case "MIGROS":
		return "Migros Teslimat"
	}
	return "Paket Siparişi"
}

func (migrosAdapter) PaymentTypeLabel(_ gjson.Result) string {
	return "Kredi Kartı"
}
