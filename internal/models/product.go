package models

import (
	"encoding/json"
	"maps"
)

// Product is a catalog record as returned by the product API. Inside a cart the
// Amount field holds the quantity the shopper wants.
//
// Fields the cart does not know about are kept in Extra and written back
// unchanged, so a persisted cart carries the full record the API returned.
type Product struct {
	ID     int                        `json:"id"`
	Name   string                     `json:"name,omitempty"`
	Title  string                     `json:"title,omitempty"`
	Price  float64                    `json:"price"`
	Image  string                     `json:"image,omitempty"`
	Amount int                        `json:"amount"`
	Extra  map[string]json.RawMessage `json:"-"`
}

var productFields = map[string]struct{}{
	"id": {}, "name": {}, "title": {}, "price": {}, "image": {}, "amount": {},
}

// productAlias drops the methods of Product so encoding/json does not recurse.
type productAlias Product

func (p Product) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(productAlias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return known, nil
	}

	out := make(map[string]json.RawMessage, len(p.Extra)+len(productFields))
	for k, v := range p.Extra {
		if _, ok := productFields[k]; !ok {
			out[k] = v
		}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	maps.Copy(out, fields)
	return json.Marshal(out)
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var alias productAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	alias.Extra = nil
	for k, v := range fields {
		if _, ok := productFields[k]; ok {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = make(map[string]json.RawMessage)
		}
		alias.Extra[k] = v
	}
	*p = Product(alias)
	return nil
}

// Clone returns a copy that shares no mutable state with p.
func (p Product) Clone() Product {
	if p.Extra != nil {
		p.Extra = maps.Clone(p.Extra)
	}
	return p
}
