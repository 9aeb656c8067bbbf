// Package order models the aggregated marketplace orders the backend serves
// and exposes a facade for reading them without per-platform branching at
// call sites.
package order

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/tidwall/gjson"

	"github.com/easycorest/easyrest-agent/internal/domain/platform"
)

// ErrUnknownPlatform is returned when an order names a platform no adapter
// handles.
var ErrUnknownPlatform = errors.New("unknown platform")

// Status is an order status as delivered by the backend. Some platforms use
// string vocabularies, Getir uses numeric codes; both deserialize into the
// same textual form.
type Status string

func (s *Status) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return errors.Wrap(err, "status string")
		}
		*s = Status(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "status number")
	}
	*s = Status(n.String())
	return nil
}

func (s Status) String() string { return string(s) }

// Order is one aggregated order document. Raw carries the untouched platform
// payload; everything platform-specific is read out of it through the facade
// and never written back.
type Order struct {
	ID        string          `json:"_id"`
	Type      platform.Type   `json:"type,omitempty"`
	Platform  string          `json:"platform,omitempty"`
	Status    Status          `json:"status,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	StoreID   string          `json:"magazaKodu,omitempty"`
	Raw       json.RawMessage `json:"rawData"`
}

// RawResult parses the raw payload for gjson navigation. Parsing is cheap
// enough to redo per read and keeps Order free of unexported parsed state.
func (o *Order) RawResult() gjson.Result {
	return gjson.ParseBytes(o.Raw)
}

// Sort orders newest-first with unacknowledged new orders pinned to the top.
// Stable so that backend-provided order among equals survives.
func Sort(orders []Order, isNew func(o *Order) bool) {
	sort.SliceStable(orders, func(i, j int) bool {
		ni, nj := isNew(&orders[i]), isNew(&orders[j])
		if ni != nj {
			return ni
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
