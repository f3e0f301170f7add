package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rogerio-castellano/cart-store/internal/cart"
	"github.com/rogerio-castellano/cart-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T, stock map[int]int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stock/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		amount, ok := stock[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(models.Stock{ID: id, Amount: amount})
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		if _, ok := stock[id]; !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(models.Product{ID: id, Title: fmt.Sprintf("Tênis %d", id), Price: 100})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cli struct {
	t       *testing.T
	file    string
	catalog string
}

func newCLI(t *testing.T, stock map[int]int) *cli {
	t.Chdir(t.TempDir())
	return &cli{t: t, file: filepath.Join(t.TempDir(), "cart.json"), catalog: newCatalogServer(t, stock).URL}
}

func (c *cli) run(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--file", c.file, "--catalog", c.catalog}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func (c *cli) stored() []models.Product {
	c.t.Helper()
	raw, err := os.ReadFile(c.file)
	require.NoError(c.t, err)
	var doc map[string]string
	require.NoError(c.t, json.Unmarshal(raw, &doc))
	var items []models.Product
	require.NoError(c.t, json.Unmarshal([]byte(doc[cart.DefaultKey]), &items))
	return items
}

func TestCartctlFlow(t *testing.T) {
	c := newCLI(t, map[int]int{1: 5, 2: 1})

	out, _, err := c.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart is empty")

	_, _, err = c.run("add", "1")
	require.NoError(t, err)
	_, _, err = c.run("add", "2")
	require.NoError(t, err)
	out, _, err = c.run("set", "1", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Tênis 1")
	assert.Contains(t, out, "400.00")

	items := c.stored()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Amount)
	assert.Equal(t, 1, items[1].Amount)

	_, _, err = c.run("remove", "2")
	require.NoError(t, err)
	assert.Len(t, c.stored(), 1)

	_, _, err = c.run("clear")
	require.NoError(t, err)
	out, _, err = c.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart is empty")
}

func TestCartctlOutOfStock(t *testing.T) {
	c := newCLI(t, map[int]int{2: 1})

	_, _, err := c.run("add", "2")
	require.NoError(t, err)

	_, stderr, err := c.run("add", "2")
	require.ErrorIs(t, err, cart.ErrOutOfStock)
	assert.Contains(t, stderr, cart.MsgOutOfStock)
	assert.Equal(t, 1, c.stored()[0].Amount)
}

func TestCartctlReconcile(t *testing.T) {
	c := newCLI(t, map[int]int{1: 5})
	for range 3 {
		_, _, err := c.run("add", "1")
		require.NoError(t, err)
	}

	c.catalog = newCatalogServer(t, map[int]int{1: 2}).URL
	out, _, err := c.run("reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "product 1: 3 -> 2")
	assert.Equal(t, 2, c.stored()[0].Amount)
}

func TestCartctlArguments(t *testing.T) {
	c := newCLI(t, map[int]int{})

	_, _, err := c.run("add", "abc")
	assert.ErrorContains(t, err, "not a number")

	_, _, err = c.run("set", "1")
	assert.Error(t, err)

	_, _, err = c.run("remove", "1")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}
