// Package localorder builds the submission payload the backend's approval
// endpoint expects from a raw marketplace order. The output shape is a fixed
// external contract shared with the POS side; field names follow it, not Go
// convention.
package localorder

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

// ItemRef is the itemId field of a translated option node. Direct items
// reference the local product by bare id; leaves inside a customer-choice
// envelope carry the id and name as an object.
type ItemRef struct {
	ID      string
	Name    string
	Wrapped bool
}

func (r ItemRef) MarshalJSON() ([]byte, error) {
	if r.Wrapped {
		return json.Marshal(struct {
			ID   string `json:"_id"`
			Name string `json:"urunAdi"`
		}{r.ID, r.Name})
	}
	return json.Marshal(r.ID)
}

func (r *ItemRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '{' {
		var v struct {
			ID   string `json:"_id"`
			Name string `json:"urunAdi"`
		}
		if err := json.Unmarshal(b, &v); err != nil {
			return errors.Wrap(err, "item ref object")
		}
		*r = ItemRef{ID: v.ID, Name: v.Name, Wrapped: true}
		return nil
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		return errors.Wrap(err, "item ref id")
	}
	*r = ItemRef{ID: id}
	return nil
}

// OptionItem is one translated option/modifier node.
type OptionItem struct {
	Tip         string       `json:"tip"`
	ItemID      ItemRef      `json:"itemId"`
	Miktar      int          `json:"miktar"`
	Birim       string       `json:"birim"`
	EkFiyat     float64      `json:"ekFiyat"`
	Selected    bool         `json:"selected"`
	Istenmeyen  bool         `json:"istenmeyen"`
	ItemDetails *ItemDetails `json:"itemDetails,omitempty"`
}

// ItemDetails nests the deeper levels of a detailed option. Removals land
// flat in Items; customer-picked add-ons are wrapped and land in UrunItems.
type ItemDetails struct {
	UrunAdi     string       `json:"urunAdi"`
	Kategori    struct{}     `json:"kategori"`
	AltKategori struct{}     `json:"altKategori"`
	Items       []OptionItem `json:"items,omitempty"`
	UrunItems   []Envelope   `json:"urunItems,omitempty"`
}

// Envelope is the synthetic wrapper around a customer-choice leaf.
type Envelope struct {
	Miktar  int          `json:"miktar"`
	Birim   string       `json:"birim"`
	EkFiyat float64      `json:"ekFiyat"`
	Items   []OptionItem `json:"items"`
}

// LineItem is one accepted product line. UrunID is null for a YemekSepeti
// product that lacks a local-catalog mapping and is passed through raw.
type LineItem struct {
	UrunID        *string         `json:"urunId"`
	UrunAdi       string          `json:"urunAdi"`
	Miktar        int             `json:"miktar"`
	VergiliFiyat  float64         `json:"vergiliFiyat"`
	VergisizFiyat float64         `json:"vergisizFiyat"`
	IsOneriliMenu bool            `json:"isOneriliMenu"`
	Yapildimi     string          `json:"yapildimi"`
	Items         []OptionItem    `json:"items"`
	Raw           json.RawMessage `json:"rawData,omitempty"`
}

type Customer struct {
	Ad      string `json:"ad"`
	Soyad   string `json:"soyad"`
	Telefon string `json:"telefon"`
}

type OrderAddress struct {
	Adres         string `json:"adres"`
	AdresAciklama string `json:"adresAciklama"`
}

// Payment is the odeme block, present only when the backend attached a local
// payment-type mapping to the order.
type Payment struct {
	OdemeTipi       string  `json:"odemeTipi"`
	OdemeAdi        string  `json:"odemeAdi"`
	MuhasebeKodu    string  `json:"muhasebeKodu"`
	EntegrasyonKodu string  `json:"entegrasyonKodu"`
	TotalAmount     float64 `json:"totalAmount"`
}

// Payload is the local order submitted for approval and used for receipt
// generation.
type Payload struct {
	MagazaKodu          string       `json:"magazaKodu"`
	SiparisTarihi       string       `json:"siparisTarihi"`
	Urunler             []LineItem   `json:"urunler"`
	ToplamVergiliFiyat  float64      `json:"toplamVergiliFiyat"`
	ToplamVergisizFiyat float64      `json:"toplamVergisizFiyat"`
	Musteri             Customer     `json:"musteri"`
	SiparisAdresi       OrderAddress `json:"siparisAdresi"`
	Odeme               *Payment     `json:"odeme,omitempty"`
}
