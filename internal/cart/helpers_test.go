package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rogerio-castellano/cart-store/internal/catalog"
	"github.com/rogerio-castellano/cart-store/internal/models"
	"github.com/rogerio-castellano/cart-store/internal/storage"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves stock and products from maps. onStock, when set, runs
// before each stock lookup returns.
type fakeCatalog struct {
	mu         sync.Mutex
	stock      map[int]int
	products   map[int]models.Product
	stockErr   error
	productErr error
	stockCalls int
	onStock    func(productID int)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		stock: map[int]int{},
		products: map[int]models.Product{
			1: {ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Image: "1.jpg"},
			2: {ID: 2, Title: "Tênis VR Caminhada Confortável", Price: 139.9, Image: "2.jpg"},
			5: {ID: 5, Name: "X", Price: 9.99},
		},
	}
}

func (f *fakeCatalog) setStock(productID, amount int) {
	f.mu.Lock()
	f.stock[productID] = amount
	f.mu.Unlock()
}

func (f *fakeCatalog) Stock(_ context.Context, productID int) (models.Stock, error) {
	f.mu.Lock()
	f.stockCalls++
	hook := f.onStock
	err := f.stockErr
	amount, ok := f.stock[productID]
	f.mu.Unlock()

	if hook != nil {
		hook(productID)
	}
	if err != nil {
		return models.Stock{}, err
	}
	if !ok {
		return models.Stock{}, catalog.ErrNotFound
	}
	return models.Stock{ID: productID, Amount: amount}, nil
}

func (f *fakeCatalog) Product(_ context.Context, productID int) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productErr != nil {
		return models.Product{}, f.productErr
	}
	p, ok := f.products[productID]
	if !ok {
		return models.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

// recorder collects notices.
type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notices))
	for i, n := range r.notices {
		out[i] = n.Message
	}
	return out
}

// flakyKV fails writes while failSet is true.
type flakyKV struct {
	*storage.Memory
	failSet bool
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *flakyKV) Delete(ctx context.Context, key string) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.Memory.Delete(ctx, key)
}

type fixture struct {
	store   *Store
	kv      *flakyKV
	catalog *fakeCatalog
	notices *recorder
}

func newFixture(t *testing.T, stored string, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		kv:      &flakyKV{Memory: storage.NewMemory()},
		catalog: newFakeCatalog(),
		notices: &recorder{},
	}
	if stored != "" {
		require.NoError(t, f.kv.Set(context.Background(), DefaultKey, stored))
	}
	opts = append([]Option{WithNotifier(f.notices)}, opts...)
	s, err := New(context.Background(), f.kv, f.catalog, opts...)
	require.NoError(t, err)
	f.store = s
	return f
}

// reload builds a second store over the same storage.
func (f *fixture) reload(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), f.kv, f.catalog)
	require.NoError(t, err)
	return s
}

func ids(items []models.Product) []int {
	out := make([]int, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func amounts(items []models.Product) []int {
	out := make([]int, len(items))
	for i, p := range items {
		out[i] = p.Amount
	}
	return out
}
