package localorder

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/easycorest/easyrest-agent/internal/domain/order"
	"github.com/easycorest/easyrest-agent/internal/domain/platform"
)

// vatDivisor converts gross to net under the fixed 20% VAT assumption the
// POS contract bakes in.
var vatDivisor = decimal.RequireFromString("1.2")

// Builder translates raw orders into the local payload. Mapping gaps are a
// data-quality condition, never an error: YemekSepeti products without a
// local mapping pass through raw with a null id, every other platform drops
// the line with a warning.
type Builder struct {
	lg     *zap.Logger
	facade *order.Facade
	now    func() time.Time
}

func NewBuilder(lg *zap.Logger, facade *order.Facade) *Builder {
	return &Builder{
		lg:     lg.Named("localorder"),
		facade: facade,
		now:    time.Now,
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Build produces the local payload for one order.
func (b *Builder) Build(o *order.Order, storeID string) *Payload {
	products := b.facade.Products(o)
	lines := make([]LineItem, 0, len(products))
	total := decimal.Zero

	for _, p := range products {
		qty := decimal.NewFromInt(int64(p.Quantity))
		if p.Mapping == nil {
			if o.Type != platform.YemekSepeti {
				b.lg.Warn("Skipping unmapped product",
					zap.String("order_id", o.ID),
					zap.String("type", string(o.Type)),
					zap.String("product", p.Name),
				)
				continue
			}
			b.lg.Warn("Passing through unmapped product",
				zap.String("order_id", o.ID),
				zap.String("product", p.Name),
			)
			lines = append(lines, LineItem{
				UrunID:        nil,
				UrunAdi:       p.Name,
				Miktar:        p.Quantity,
				VergiliFiyat:  money(p.Price),
				VergisizFiyat: money(p.Price.Div(vatDivisor)),
				Yapildimi:     "gonderildi",
				Items:         []OptionItem{},
				Raw:           rawSnapshot(p),
			})
			total = total.Add(p.Price.Mul(qty))
			continue
		}

		id := p.Mapping.ID
		lines = append(lines, LineItem{
			UrunID:        &id,
			UrunAdi:       p.Mapping.Name,
			Miktar:        p.Quantity,
			VergiliFiyat:  money(p.Price),
			VergisizFiyat: money(p.Price.Div(vatDivisor)),
			Yapildimi:     "gonderildi",
			Items:         b.translate(o.Type, p.Children),
		})
		total = total.Add(p.Price.Mul(qty))
	}

	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = b.now()
	}
	ad, soyad := splitName(b.facade.CustomerName(o))
	addr := b.facade.DeliveryAddress(o)

	return &Payload{
		MagazaKodu:          storeID,
		SiparisTarihi:       createdAt.Format(time.RFC3339),
		Urunler:             lines,
		ToplamVergiliFiyat:  money(total),
		ToplamVergisizFiyat: money(total.Div(vatDivisor)),
		Musteri: Customer{
			Ad:      ad,
			Soyad:   soyad,
			Telefon: b.facade.CustomerPhone(o),
		},
		SiparisAdresi: OrderAddress{
			Adres:         addr.Address,
			AdresAciklama: addressNote(addr),
		},
		Odeme: b.payment(o),
	}
}

// payment builds the odeme block. Present only when the backend attached a
// local payment-type mapping; the total is recomputed from the raw payload
// because payment and order amounts follow different precedence on Getir.
func (b *Builder) payment(o *order.Order) *Payment {
	m := o.RawResult().Get("payment.mapping.localPaymentType")
	if !m.Exists() {
		return nil
	}
	return &Payment{
		OdemeTipi:       m.Get("_id").String(),
		OdemeAdi:        m.Get("odemeAdi").String(),
		MuhasebeKodu:    m.Get("muhasebeKodu").String(),
		EntegrasyonKodu: m.Get("entegrasyonKodu").String(),
		TotalAmount:     b.facade.PaymentAmount(o).InexactFloat64(),
	}
}

type nodeClass int

const (
	classNormal nodeClass = iota
	classUnwanted
	classSkip
)

// classify applies the three-way rule: "istemiyorum" marks a removal unless
// the name also says "ekstra", in which case the node is dropped entirely.
func classify(n platform.Node) nodeClass {
	wants := platform.ContainsFold(n.Name, "istemiyorum")
	extra := platform.ContainsFold(n.Name, "ekstra")
	switch {
	case wants && extra:
		return classSkip
	case n.ForceUnwanted || wants:
		return classUnwanted
	}
	return classNormal
}

func levelTip(t platform.Type) string {
	if t == platform.Getir {
		return "Recipe"
	}
	return "Urun"
}

func subTip(t platform.Type) string {
	switch t {
	case platform.Getir, platform.Migros:
		return "Recipe"
	}
	return "SKU"
}

func tipOr(n platform.Node, fallback string) string {
	if n.LocalType != "" {
		return n.LocalType
	}
	return fallback
}

// translate turns the first option level of a product into line-item items.
func (b *Builder) translate(t platform.Type, children []platform.Node) []OptionItem {
	items := make([]OptionItem, 0, len(children))
	for _, c := range children {
		class := classify(c)
		if class == classSkip {
			continue
		}
		if c.Mapping == nil {
			b.skipUnmapped(t, c)
			continue
		}
		if class == classUnwanted {
			items = append(items, b.flatItem(t, c, true))
			continue
		}
		items = append(items, b.detailedItem(t, c))
	}
	return items
}

func (b *Builder) skipUnmapped(t platform.Type, n platform.Node) {
	b.lg.Debug("Skipping unmapped option",
		zap.String("type", string(t)),
		zap.String("option", n.Name),
	)
}

func (b *Builder) flatItem(t platform.Type, c platform.Node, unwanted bool) OptionItem {
	return OptionItem{
		Tip:        tipOr(c, subTip(t)),
		ItemID:     ItemRef{ID: c.Mapping.ID},
		Miktar:     1,
		Birim:      "adet",
		EkFiyat:    money(c.Price),
		Selected:   true,
		Istenmeyen: unwanted,
	}
}

func (b *Builder) detailedItem(t platform.Type, c platform.Node) OptionItem {
	detail := &ItemDetails{UrunAdi: c.Mapping.Name}
	if t == platform.YemekSepeti {
		b.flatten(t, c.Children, detail)
	} else {
		b.nest(t, c.Children, detail)
	}
	return OptionItem{
		Tip:         tipOr(c, levelTip(t)),
		ItemID:      ItemRef{ID: c.Mapping.ID},
		Miktar:      1,
		Birim:       "adet",
		EkFiyat:     money(c.Price),
		Selected:    true,
		ItemDetails: detail,
	}
}

// flatten is the YemekSepeti sub-level shape: every descendant lands flat in
// itemDetails.items, removals flagged in place, no envelopes.
func (b *Builder) flatten(t platform.Type, children []platform.Node, detail *ItemDetails) {
	for _, c := range children {
		class := classify(c)
		if class != classSkip {
			if c.Mapping == nil {
				b.skipUnmapped(t, c)
			} else {
				detail.Items = append(detail.Items, b.flatItem(t, c, class == classUnwanted))
			}
		}
		b.flatten(t, c.Children, detail)
	}
}

// nest is the sub-level shape everywhere else: removals flat in
// itemDetails.items, customer choices wrapped in a one-item envelope under
// itemDetails.urunItems. Deeper levels repeat the same shape.
func (b *Builder) nest(t platform.Type, children []platform.Node, detail *ItemDetails) {
	for _, c := range children {
		class := classify(c)
		if class == classSkip {
			continue
		}
		if c.Mapping == nil {
			b.skipUnmapped(t, c)
			continue
		}
		if class == classUnwanted {
			detail.Items = append(detail.Items, b.flatItem(t, c, true))
			continue
		}
		leaf := OptionItem{
			Tip:      tipOr(c, subTip(t)),
			ItemID:   ItemRef{ID: c.Mapping.ID, Name: c.Mapping.Name, Wrapped: true},
			Miktar:   1,
			Birim:    "adet",
			EkFiyat:  money(c.Price),
			Selected: true,
		}
		if len(c.Children) > 0 {
			sub := &ItemDetails{UrunAdi: c.Mapping.Name}
			b.nest(t, c.Children, sub)
			if len(sub.Items) > 0 || len(sub.UrunItems) > 0 {
				leaf.ItemDetails = sub
			}
		}
		detail.UrunItems = append(detail.UrunItems, Envelope{
			Miktar:  1,
			Birim:   "adet",
			EkFiyat: 0,
			Items:   []OptionItem{leaf},
		})
	}
}

func rawSnapshot(p platform.Node) json.RawMessage {
	if p.Raw.Raw == "" {
		return nil
	}
	return json.RawMessage(p.Raw.Raw)
}

func splitName(full string) (ad, soyad string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

func addressNote(addr platform.Address) string {
	parts := make([]string, 0, 3)
	if addr.DoorNo != "" {
		parts = append(parts, "Kapı No: "+addr.DoorNo)
	}
	if addr.Floor != "" {
		parts = append(parts, "Kat: "+addr.Floor)
	}
	if addr.Description != "" {
		parts = append(parts, addr.Description)
	}
	return strings.Join(parts, ", ")
}
