// Package platform holds the per-marketplace adapters that translate each
// platform's raw order payload into the primitives the order facade and the
// local-order builder work with. Adapters are pure and stateless: they only
// read the raw payload, never mutate it.
package platform

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Type identifies the marketplace an order originated from.
type Type string

const (
	YemekSepeti Type = "YEMEKSEPETI"
	Trendyol    Type = "TRENDYOL"
	Migros      Type = "MIGROS"
	Getir       Type = "GETIR"
)

// ParseType maps a lowercase platform name (as sent by the backend in the
// legacy "platform" field) to a Type. The second return reports whether the
// name was recognized.
func ParseType(name string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yemeksepeti":
		return YemekSepeti, true
	case "trendyol":
		return Trendyol, true
	case "migros":
		return Migros, true
	case "getir":
		return Getir, true
	}
	return "", false
}

// Mapping is the backend-attached link from a platform catalog item to the
// tenant's local product catalog. Adapters only consume mappings.
type Mapping struct {
	ID   string
	Name string
}

// Node is one product or option/modifier node of the normalized tree. Depth
// and child field names vary per platform; adapters flatten them into this
// single shape so the builder can run one recursive translation.
type Node struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	// Mapping is nil when the backend attached no local-catalog link.
	Mapping *Mapping
	// LocalType is the mapped local product type (Urun/SKU/Recipe). Empty
	// means the builder applies its per-level default.
	LocalType string
	// ForceUnwanted marks nodes that count as customer removals regardless
	// of their name (Migros INGREDIENT options, Getir removal categories).
	ForceUnwanted bool
	Children      []Node
	// Raw is the original node payload, kept for degrade-gracefully
	// snapshots. Read-only.
	Raw gjson.Result
}

// Address holds the delivery address parts extracted from a raw order.
type Address struct {
	Address     string
	DoorNo      string
	Floor       string
	Description string
	FullAddress string
}

// Adapter translates one platform's raw order payload. Implementations must
// not mutate the payload.
type Adapter interface {
	Type() Type

	// OrderID is the composite display/approval identifier.
	OrderID(raw gjson.Result) string
	// ReceiptOrderID is the platform-native identifier the backend expects
	// when resolving an order for receipt printing.
	ReceiptOrderID(raw gjson.Result) string

	CustomerName(raw gjson.Result) string
	CustomerPhone(raw gjson.Result) string
	DeliveryAddress(raw gjson.Result) Address
	Products(raw gjson.Result) []Node

	// Amount is the display/order total. PaymentAmount is the total used in
	// the payment block of a submission; the two use slightly different
	// precedence on some platforms and must stay independent.
	Amount(raw gjson.Result) decimal.Decimal
	PaymentAmount(raw gjson.Result) decimal.Decimal

	// IsNew reports whether the order counts as newly received. Status
	// vocabularies are platform-specific and must not be generalized.
	IsNew(status string, raw gjson.Result) bool

	OrderTypeLabel(raw gjson.Result) string
	PaymentTypeLabel(raw gjson.Result) string
}

var adapters = map[Type]Adapter{
	YemekSepeti: yemekSepetiAdapter{},
	Trendyol:    trendyolAdapter{},
	Migros:      migrosAdapter{},
	Getir:       getirAdapter{},
}

// ForType returns the adapter for the given platform type.
func ForType(t Type) (Adapter, bool) {
	a, ok := adapters[t]
	return a, ok
}

// compositeID renders "primary (secondary)" when the secondary part is
// present. The format is part of the external contract with printed receipts
// and the approval API.
func compositeID(primary, secondary string) string {
	if primary == "" {
		return secondary
	}
	if secondary == "" {
		return primary
	}
	return fmt.Sprintf("%s (%s)", primary, secondary)
}

// ParseCompositeID splits a composite identifier back into its parts.
// "ABC123 (XY9)" decomposes to ("ABC123", "XY9"); a plain id comes back with
// an empty secondary part.
func ParseCompositeID(id string) (primary, secondary string) {
	if !strings.HasSuffix(id, ")") {
		return id, ""
	}
	open := strings.LastIndex(id, " (")
	if open < 0 {
		return id, ""
	}
	return id[:open], id[open+2 : len(id)-1]
}

// num reads a numeric field as a decimal. Missing fields, nulls, and
// non-finite values all come back as zero.
func num(raw gjson.Result, path string) decimal.Decimal {
	v := raw.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return decimal.Zero
	}
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// firstNonZero returns the first listed field that parses to a non-zero
// value, matching the JS truthiness chains of the legacy clients.
func firstNonZero(raw gjson.Result, paths ...string) decimal.Decimal {
	for _, p := range paths {
		if d := num(raw, p); !d.IsZero() {
			return d
		}
	}
	return decimal.Zero
}

// finalize clamps negative totals to zero and rounds to 2 decimal places.
func finalize(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

// nameOf reads a product/option name that may be a plain string or a
// localized object ({tr, en}).
func nameOf(v gjson.Result) string {
	if v.IsObject() {
		if tr := v.Get("tr"); tr.Exists() {
			return tr.String()
		}
		return v.Get("en").String()
	}
	return v.String()
}

// quantityOf resolves a line quantity with the shared precedence
// count -> amount -> quantity, defaulting to 1. A zero or missing field
// falls through to the next one.
func quantityOf(n gjson.Result) int {
	for _, field := range []string{"count", "amount", "quantity"} {
		if q := int(n.Get(field).Int()); q > 0 {
			return q
		}
	}
	return 1
}

// localMapping reads the mapping.localProduct link used by YemekSepeti,
// Getir, and Migros payloads. Returns nil when no mapping is attached.
func localMapping(n gjson.Result) (*Mapping, string) {
	m := n.Get("mapping.localProduct")
	if !m.Exists() {
		return nil, ""
	}
	return &Mapping{
		ID:   m.Get("_id").String(),
		Name: m.Get("urunAdi").String(),
	}, n.Get("mapping.localProductType").String()
}

// trendyolMapping reads the eslestirilenUrun link used by Trendyol payloads.
func trendyolMapping(n gjson.Result) (*Mapping, string) {
	m := n.Get("mapping.eslestirilenUrun")
	if !m.Exists() {
		return nil, ""
	}
	return &Mapping{
		ID:   m.Get("_id").String(),
		Name: m.Get("urunAdi").String(),
	}, n.Get("mapping.eslestirilenUrunTipi").String()
}

// foldTurkish lowercases a name for classification, folding the Turkish
// dotted/dotless i variants and combining marks so that "İstemiyorum",
// "i̇stemiyorum", and "istemiyorum" all compare equal.
func foldTurkish(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "̇", "") // combining dot above, left by lowering İ
	s = strings.ReplaceAll(s, "ı", "i")
	return s
}

// ContainsFold reports whether the Turkish-folded name contains the
// Turkish-folded substring.
func ContainsFold(name, substr string) bool {
	return strings.Contains(foldTurkish(name), foldTurkish(substr))
}
