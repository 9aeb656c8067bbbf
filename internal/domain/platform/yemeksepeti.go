package platform

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

type yemekSepetiAdapter struct{}

var _ Adapter = yemekSepetiAdapter{}

func (yemekSepetiAdapter) Type() Type { return YemekSepeti }

func (yemekSepetiAdapter) OrderID(raw gjson.Result) string {
	return compositeID(raw.Get("shortCode").String(), raw.Get("code").String())
}

func (yemekSepetiAdapter) ReceiptOrderID(raw gjson.Result) string {
	return raw.Get("code").String()
}

func (yemekSepetiAdapter) CustomerName(raw gjson.Result) string {
	first := raw.Get("customer.firstName").String()
	last := raw.Get("customer.lastName").String()
	return strings.TrimSpace(first + " " + last)
}

func (yemekSepetiAdapter) CustomerPhone(raw gjson.Result) string {
	return raw.Get("customer.mobilePhone").String()
}

func (yemekSepetiAdapter) DeliveryAddress(raw gjson.Result) Address {
	addr := raw.Get("delivery.address")
	parts := make([]string, 0, 5)
	if v := addr.Get("street").String(); v != "" {
		parts = append(parts, v)
	}
	if v := addr.Get("number").String(); v != "" {
		parts = append(parts, "No:"+v)
	}
	for _, field := range []string{"building", "city", "postcode"} {
		if v := addr.Get(field).String(); v != "" {
			parts = append(parts, v)
		}
	}
	line := strings.Join(parts, ", ")
	if company := addr.Get("company").String(); company != "" {
		line += " (" + company + ")"
	}
	desc := raw.Get("delivery.address.deliveryInstructions").String()
	if desc == "" {
		desc = raw.Get("comments.customerComment").String()
	}
	return Address{
		Address:     line,
		DoorNo:      addr.Get("flatNumber").String(),
		Floor:       addr.Get("floor").String(),
		Description: desc,
		FullAddress: line,
	}
}

func (yemekSepetiAdapter) Products(raw gjson.Result) []Node {
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
		for _, t := range p.Get("selectedToppings").Array() {
			node.Children = append(node.Children, yemekSepetiOption(t))
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func yemekSepetiOption(n gjson.Result) Node {
	mapping, localType := localMapping(n)
	node := Node{
		Name:      nameOf(n.Get("name")),
		Price:     num(n, "price"),
		Quantity:  1,
		Mapping:   mapping,
		LocalType: localType,
		Raw:       n,
	}
	for _, c := range n.Get("children").Array() {
		node.Children = append(node.Children, yemekSepetiOption(c))
	}
	return node
}

func (yemekSepetiAdapter) Amount(raw gjson.Result) decimal.Decimal {
	return finalize(num(raw, "price.grandTotal"))
}

func (a yemekSepetiAdapter) PaymentAmount(raw gjson.Result) decimal.Decimal {
	return a.Amount(raw)
}

func (yemekSepetiAdapter) IsNew(status string, _ gjson.Result) bool {
	switch strings.ToLower(status) {
	case "processed", "received":
		return true
	}
	return false
}

func (yemekSepetiAdapter) OrderTypeLabel(raw gjson.Result) string {
	switch strings.ToLower(raw.Get("expeditionType").String()) {
	case "pickup":
		return "Gel Al"
	case "vendor":
		return "Vendor"
	}
	return "Paket Siparişi"
}

func (yemekSepetiAdapter) PaymentTypeLabel(raw gjson.Result) string {
	if v := raw.Get("payment.text.tr").String(); v != "" {
		return v
	}
	if v := raw.Get("payment.text").String(); v != "" && !raw.Get("payment.text").IsObject() {
		return v
	}
	return "Kredi Kartı"
}
