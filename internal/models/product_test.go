package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductKeepsUnknownFields(t *testing.T) {
	raw := `{"id":5,"title":"Tênis de Caminhada","price":179.9,"image":"https://img/1.jpg","brand":"acme","sizes":[40,41]}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, 5, p.ID)
	assert.Equal(t, "Tênis de Caminhada", p.Title)
	assert.Equal(t, 179.9, p.Price)
	assert.Equal(t, 0, p.Amount)
	assert.JSONEq(t, `"acme"`, string(p.Extra["brand"]))

	p.Amount = 1
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5,"title":"Tênis de Caminhada","price":179.9,"image":"https://img/1.jpg","brand":"acme","sizes":[40,41],"amount":1}`, string(out))
}

func TestProductKnownFieldsWinOverExtra(t *testing.T) {
	p := Product{ID: 1, Price: 2, Amount: 3, Extra: map[string]json.RawMessage{"amount": json.RawMessage(`99`)}}

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"price":2,"amount":3}`, string(out))
}

func TestProductCloneDoesNotShareExtra(t *testing.T) {
	p := Product{ID: 1, Extra: map[string]json.RawMessage{"brand": json.RawMessage(`"a"`)}}
	c := p.Clone()
	c.Extra["brand"] = json.RawMessage(`"b"`)

	assert.JSONEq(t, `"a"`, string(p.Extra["brand"]))
}

func TestInventoryItemProjections(t *testing.T) {
	item := InventoryItem{ID: 3, Name: "X", Price: 9.99, Quantity: 7}

	assert.Equal(t, Product{ID: 3, Name: "X", Price: 9.99}, item.Product())
	assert.Equal(t, Stock{ID: 3, Amount: 7}, item.Stock())
}
