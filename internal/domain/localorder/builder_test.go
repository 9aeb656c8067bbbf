package localorder

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"

	"github.com/easycorest/easyrest-agent/internal/domain/order"
	"github.com/easycorest/easyrest-agent/internal/domain/platform"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	lg := zaptest.NewLogger(t)
	b := NewBuilder(lg, order.NewFacade(lg))
	b.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return b
}

func trendyolOrder(t *testing.T) *order.Order {
	t.Helper()
	return &order.Order{
		ID:        "ty-1",
		Type:      platform.Trendyol,
		CreatedAt: time.Date(2026, 2, 28, 19, 30, 0, 0, time.UTC),
		Raw: json.RawMessage(`{
			"orderNumber": "1044",
			"orderCode": "656-TY",
			"packageStatus": "Created",
			"totalPrice": 100,
			"customer": {"firstName": "Ayşe", "lastName": "Yılmaz"},
			"lines": [{
				"name": "Adana Dürüm",
				"price": 50,
				"items": [{}, {}],
				"mapping": {
					"eslestirilenUrun": {"_id": "p-77", "urunAdi": "Adana Dürüm"},
					"eslestirilenUrunTipi": "Urun"
				},
				"modifierProducts": [{
					"name": "Acı Sos",
					"price": 5,
					"mapping": {"eslestirilenUrun": {"_id": "m-11", "urunAdi": "Acı Sos"}},
					"modifierProducts": [{
						"name": "Soğan İstemiyorum",
						"mapping": {"eslestirilenUrun": {"_id": "m-12", "urunAdi": "Soğan"}}
					}]
				}]
			}]
		}`),
	}
}

func TestBuildSkipsDeclinedPromoLines(t *testing.T) {
	b := newBuilder(t)
	o := &order.Order{
		ID:   "ty-2",
		Type: platform.Trendyol,
		Raw: json.RawMessage(`{
			"orderNumber": "1045",
			"totalPrice": 50,
			"lines": [
				{
					"name": "Promosyon Sos İstemiyorum",
					"mapping": {"eslestirilenUrun": {"_id": "p-90", "urunAdi": "Sos"}}
				},
				{
					"name": "Adana Dürüm",
					"price": 50,
					"mapping": {"eslestirilenUrun": {"_id": "p-77", "urunAdi": "Adana Dürüm"}}
				}
			]
		}`),
	}

	p := b.Build(o, "store-9")
	require.Len(t, p.Urunler, 1)
	assert.Equal(t, "Adana Dürüm", p.Urunler[0].UrunAdi)
	assert.InDelta(t, 50.0, p.ToplamVergiliFiyat, 0.001)
}

func TestBuildTrendyolEndToEnd(t *testing.T) {
	b := newBuilder(t)
	p := b.Build(trendyolOrder(t), "store-9")

	assert.Equal(t, "store-9", p.MagazaKodu)
	assert.Equal(t, "2026-02-28T19:30:00Z", p.SiparisTarihi)
	require.Len(t, p.Urunler, 1)

	line := p.Urunler[0]
	require.NotNil(t, line.UrunID)
	assert.Equal(t, "p-77", *line.UrunID)
	assert.Equal(t, "Adana Dürüm", line.UrunAdi)
	assert.Equal(t, 2, line.Miktar, "quantity comes from the items array length")
	assert.InDelta(t, 50.0, line.VergiliFiyat, 0.001)
	assert.InDelta(t, 41.67, line.VergisizFiyat, 0.001)
	assert.False(t, line.IsOneriliMenu)
	assert.Equal(t, "gonderildi", line.Yapildimi)

	assert.InDelta(t, 100.0, p.ToplamVergiliFiyat, 0.001)
	assert.InDelta(t, 83.33, p.ToplamVergisizFiyat, 0.001)

	assert.Equal(t, "Ayşe", p.Musteri.Ad)
	assert.Equal(t, "Yılmaz", p.Musteri.Soyad)

	require.Len(t, line.Items, 1)
	mod := line.Items[0]
	assert.Equal(t, "Acı Sos", mod.ItemDetails.UrunAdi)
	require.Len(t, mod.ItemDetails.Items, 1, "removal lands flat in itemDetails.items")
	assert.True(t, mod.ItemDetails.Items[0].Istenmeyen)
	assert.Equal(t, "m-12", mod.ItemDetails.Items[0].ItemID.ID)
}

func TestUnmappedProductAsymmetry(t *testing.T) {
	b := newBuilder(t)

	ys := &order.Order{
		ID:   "ys-1",
		Type: platform.YemekSepeti,
		Raw: json.RawMessage(`{
			"code": "o2vk",
			"products": [
				{"name": "Künefe", "price": 80, "quantity": 1},
				{"name": "Ayran", "price": 15, "quantity": 2,
				 "mapping": {"localProduct": {"_id": "p-3", "urunAdi": "Ayran 300ml"}}}
			]
		}`),
	}
	p := b.Build(ys, "s")
	require.Len(t, p.Urunler, 2, "unmapped YemekSepeti lines pass through")
	assert.Nil(t, p.Urunler[0].UrunID)
	assert.Equal(t, "Künefe", p.Urunler[0].UrunAdi)
	assert.NotEmpty(t, p.Urunler[0].Raw)
	assert.True(t, gjson.ParseBytes(p.Urunler[0].Raw).Get("name").Exists())
	assert.InDelta(t, 110.0, p.ToplamVergiliFiyat, 0.001, "passthrough lines still count toward totals")

	ty := &order.Order{
		ID:   "ty-2",
		Type: platform.Trendyol,
		Raw: json.RawMessage(`{
			"totalPrice": 80,
			"lines": [{"name": "Künefe", "price": 80}]
		}`),
	}
	p = b.Build(ty, "s")
	assert.Empty(t, p.Urunler, "other platforms drop unmapped lines")
	assert.Zero(t, p.ToplamVergiliFiyat)
}

func TestPayloadMarshalShapes(t *testing.T) {
	b := newBuilder(t)
	ys := &order.Order{
		Type: platform.YemekSepeti,
		Raw:  json.RawMessage(`{"products": [{"name": "Künefe", "price": 80}]}`),
	}
	raw, err := json.Marshal(b.Build(ys, "s"))
	require.NoError(t, err)

	doc := gjson.ParseBytes(raw)
	assert.Equal(t, gjson.Null, doc.Get("urunler.0.urunId").Type, "passthrough lines carry an explicit null id")
	assert.True(t, doc.Get("urunler.0.items").IsArray())
	assert.False(t, doc.Get("odeme").Exists())
}

func TestClassification(t *testing.T) {
	assert.Equal(t, classSkip, classify(platform.Node{Name: "Ekstra Soğan İstemiyorum"}))
	assert.Equal(t, classUnwanted, classify(platform.Node{Name: "Soğan İstemiyorum"}))
	assert.Equal(t, classUnwanted, classify(platform.Node{Name: "Turşu", ForceUnwanted: true}))
	assert.Equal(t, classNormal, classify(platform.Node{Name: "Ekstra Sos"}))
	assert.Equal(t, classNormal, classify(platform.Node{Name: "Kola"}))
}

func TestMigrosIngredientAndSkipRule(t *testing.T) {
	b := newBuilder(t)
	mg := &order.Order{
		ID:   "mg-1",
		Type: platform.Migros,
		Raw: json.RawMessage(`{
			"orderId": 5512,
			"items": [{
				"name": "Lahmacun",
				"price": 60,
				"amount": 1,
				"mapping": {"localProduct": {"_id": "p-1", "urunAdi": "Lahmacun"}},
				"options": [
					{"itemNames": "Ekstra Soğan İstemiyorum", "optionType": "EXTRA",
					 "mapping": {"localProduct": {"_id": "x-0", "urunAdi": "Soğan"}}},
					{"itemNames": "Acılı", "optionType": "EXTRA",
					 "mapping": {"localProduct": {"_id": "x-1", "urunAdi": "Acılı"}},
					 "subOptions": [
						{"itemNames": "Maydanoz", "optionType": "INGREDIENT",
						 "mapping": {"localProduct": {"_id": "x-2", "urunAdi": "Maydanoz"}}},
						{"itemNames": "Ayran", "optionType": "EXTRA",
						 "mapping": {"localProduct": {"_id": "x-3", "urunAdi": "Ayran"}}}
					 ]}
				]
			}]
		}`),
	}
	p := b.Build(mg, "s")
	require.Len(t, p.Urunler, 1)
	require.Len(t, p.Urunler[0].Items, 1, `"ekstra ... istemiyorum" options vanish entirely`)

	opt := p.Urunler[0].Items[0]
	assert.Equal(t, "x-1", opt.ItemID.ID)
	require.NotNil(t, opt.ItemDetails)
	require.Len(t, opt.ItemDetails.Items, 1, "INGREDIENT counts as a removal")
	assert.True(t, opt.ItemDetails.Items[0].Istenmeyen)
	assert.Equal(t, "x-2", opt.ItemDetails.Items[0].ItemID.ID)

	require.Len(t, opt.ItemDetails.UrunItems, 1, "customer choices are wrapped")
	env := opt.ItemDetails.UrunItems[0]
	assert.Equal(t, 1, env.Miktar)
	assert.Equal(t, "adet", env.Birim)
	assert.Zero(t, env.EkFiyat)
	require.Len(t, env.Items, 1)
	leaf := env.Items[0]
	assert.True(t, leaf.ItemID.Wrapped)
	assert.Equal(t, "x-3", leaf.ItemID.ID)
	assert.Equal(t, "Ayran", leaf.ItemID.Name)
}

func TestGetirRemovalCategory(t *testing.T) {
	b := newBuilder(t)
	gt := &order.Order{
		Type: platform.Getir,
		Raw: json.RawMessage(`{
			"products": [{
				"name": {"tr": "Tavuk Burger Menü"},
				"price": 95,
				"mapping": {"localProduct": {"_id": "p-1", "urunAdi": "Tavuk Burger Menü"}},
				"options": [{
					"name": {"tr": "İçecek"},
					"options": [{
						"name": {"tr": "Kola"},
						"price": "7.5",
						"mapping": {"localProduct": {"_id": "o-1", "urunAdi": "Kola"}},
						"optionCategories": [{
							"name": {"tr": "Çıkarılacak Malzemeler"},
							"options": [{"name": {"tr": "Buz"},
								"mapping": {"localProduct": {"_id": "o-2", "urunAdi": "Buz"}}}]
						}]
					}]
				}]
			}]
		}`),
	}
	p := b.Build(gt, "s")
	require.Len(t, p.Urunler, 1)
	require.Len(t, p.Urunler[0].Items, 1)

	opt := p.Urunler[0].Items[0]
	assert.Equal(t, "Recipe", opt.Tip)
	assert.InDelta(t, 7.5, opt.EkFiyat, 0.001)
	require.NotNil(t, opt.ItemDetails)
	require.Len(t, opt.ItemDetails.Items, 1)
	assert.True(t, opt.ItemDetails.Items[0].Istenmeyen)
	assert.Empty(t, opt.ItemDetails.UrunItems)
}

func TestYemekSepetiFlattensDescendants(t *testing.T) {
	b := newBuilder(t)
	ys := &order.Order{
		Type: platform.YemekSepeti,
		Raw: json.RawMessage(`{
			"products": [{
				"name": "Burger Menü",
				"price": 120,
				"mapping": {"localProduct": {"_id": "p-1", "urunAdi": "Burger Menü"}},
				"selectedToppings": [{
					"name": "Patates",
					"price": 10,
					"mapping": {"localProduct": {"_id": "t-1", "urunAdi": "Patates"}},
					"children": [{
						"name": "Tuz İstemiyorum",
						"mapping": {"localProduct": {"_id": "t-2", "urunAdi": "Tuz"}}
					}]
				}]
			}]
		}`),
	}
	p := b.Build(ys, "s")
	require.Len(t, p.Urunler[0].Items, 1)

	topping := p.Urunler[0].Items[0]
	assert.Equal(t, "Urun", topping.Tip)
	assert.InDelta(t, 10.0, topping.EkFiyat, 0.001)
	require.NotNil(t, topping.ItemDetails)
	assert.Empty(t, topping.ItemDetails.UrunItems, "no envelopes on this platform")
	require.Len(t, topping.ItemDetails.Items, 1)
	assert.True(t, topping.ItemDetails.Items[0].Istenmeyen)
	assert.Equal(t, "SKU", topping.ItemDetails.Items[0].Tip)
}

func TestPaymentBlock(t *testing.T) {
	b := newBuilder(t)
	gt := &order.Order{
		Type: platform.Getir,
		Raw: json.RawMessage(`{
			"totalDiscountedPrice": 0,
			"totalPrice": 185.5,
			"products": [],
			"payment": {"mapping": {"localPaymentType": {
				"_id": "pay-1", "odemeAdi": "Online Kredi Kartı",
				"muhasebeKodu": "600", "entegrasyonKodu": "OKK"
			}}}
		}`),
	}
	p := b.Build(gt, "s")
	require.NotNil(t, p.Odeme)
	assert.Equal(t, "pay-1", p.Odeme.OdemeTipi)
	assert.Equal(t, "Online Kredi Kartı", p.Odeme.OdemeAdi)
	assert.Equal(t, "600", p.Odeme.MuhasebeKodu)
	assert.Equal(t, "OKK", p.Odeme.EntegrasyonKodu)
	assert.Zero(t, p.Odeme.TotalAmount, "an explicit zero discounted total is honored")

	noMapping := &order.Order{
		Type: platform.Getir,
		Raw:  json.RawMessage(`{"products": [], "payment": {"type": 1}}`),
	}
	assert.Nil(t, b.Build(noMapping, "s").Odeme)
}

func TestBuildApproval(t *testing.T) {
	b := newBuilder(t)

	req := b.BuildApproval(trendyolOrder(t), "store-9")
	assert.Equal(t, "trendyol", req.Platform)
	assert.Equal(t, "1044 (656-TY)", req.OrderID)
	assert.Equal(t, "verify", req.Action)
	assert.Equal(t, "Created", req.PackageStatus)
	assert.Nil(t, req.IsScheduled)
	require.Len(t, req.Urunler, 1)

	gt := &order.Order{
		Type: platform.Getir,
		Raw: json.RawMessage(`{
			"confirmationId": "G41",
			"isScheduled": true,
			"scheduledDate": "2026-03-02T10:00:00Z",
			"products": []
		}`),
	}
	req = b.BuildApproval(gt, "s")
	assert.Equal(t, "getir", req.Platform)
	require.NotNil(t, req.IsScheduled)
	assert.True(t, *req.IsScheduled)
	assert.Equal(t, "2026-03-02T10:00:00Z", req.ScheduledDate)

	ys := &order.Order{
		Type: platform.YemekSepeti,
		Raw:  json.RawMessage(`{"code": "o1", "expeditionType": "pickup", "products": []}`),
	}
	req = b.BuildApproval(ys, "s")
	assert.Equal(t, "pickup", req.ExpeditionType)

	mg := &order.Order{
		Type: platform.Migros,
		Raw:  json.RawMessage(`{"orderId": 1, "deliveryProvider": "MIGROS", "items": []}`),
	}
	req = b.BuildApproval(mg, "s")
	assert.Equal(t, "MIGROS", req.DeliveryProvider)
}

func TestSplitName(t *testing.T) {
	ad, soyad := splitName("Mehmet Ali Kaya")
	assert.Equal(t, "Mehmet Ali", ad)
	assert.Equal(t, "Kaya", soyad)

	ad, soyad = splitName("Ayşe")
	assert.Equal(t, "Ayşe", ad)
	assert.Empty(t, soyad)

	ad, soyad = splitName("")
	assert.Empty(t, ad)
	assert.Empty(t, soyad)
}
