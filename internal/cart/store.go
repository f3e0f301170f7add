// Package cart keeps the shopper's cart: an ordered, id-unique list of products
// with amounts, checked against remote stock and mirrored to a key-value store
// after every change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rogerio-castellano/cart-store/internal/models"
	"github.com/rogerio-castellano/cart-store/internal/storage"
	"go.uber.org/zap"
)

// DefaultKey is the storage key the storefront has always used for the cart.
const DefaultKey = "@RocketShoes:cart"

const defaultAttempts = 3

// Catalog is the remote product and stock API.
type Catalog interface {
	Stock(ctx context.Context, productID int) (models.Stock, error)
	Product(ctx context.Context, productID int) (models.Product, error)
}

// UpdateAmount is the argument of UpdateProductAmount.
type UpdateAmount struct {
	ProductID int `json:"productId"`
	Amount    int `json:"amount"`
}

// Store owns the cart. It is safe for concurrent use.
//
// Mutations of one product run one at a time, so repeated adds queue up
// instead of racing. The catalog is consulted without holding the cart lock,
// and a commit goes through only if the product's line still holds what the
// stock check was made against. A commit writes storage first and swaps the
// in-memory cart only when the write succeeded, so memory and storage never
// diverge.
type Store struct {
	kv       storage.KeyValue
	catalog  Catalog
	key      string
	notifier Notifier
	policy   Policy
	attempts int
	log      *zap.Logger

	mu      sync.Mutex
	items   []models.Product
	subs    map[uint64]func([]models.Product)
	nextSub uint64

	linesMu sync.Mutex
	lines   map[int]*lineLock
}

type Option func(*Store)

// WithKey sets the storage key. Defaults to DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMaxAttempts bounds how often a mutation retries after losing a race.
func WithMaxAttempts(n int) Option {
	return func(s *Store) { s.attempts = max(n, 1) }
}

// New restores the cart saved under the store key, or starts empty. A stored
// value that does not parse is discarded with a warning.
func New(ctx context.Context, kv storage.KeyValue, catalog Catalog, opts ...Option) (*Store, error) {
	s := &Store{
		kv:       kv,
		catalog:  catalog,
		key:      DefaultKey,
		attempts: defaultAttempts,
		log:      zap.NewNop(),
		subs:     map[uint64]func([]models.Product){},
		lines:    map[int]*lineLock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Log: s.log}
	}
	s.log = s.log.With(zap.String("cart_key", s.key))

	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func (s *Store) load(ctx context.Context) ([]models.Product, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var items []models.Product
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("discarding malformed stored cart", zap.Error(err))
		return nil, nil
	}

	seen := make(map[int]struct{}, len(items))
	kept := items[:0]
	for _, p := range items {
		if _, dup := seen[p.ID]; dup || p.Amount < 1 {
			s.log.Warn("dropping invalid stored cart line", zap.Int("product_id", p.ID), zap.Int("amount", p.Amount))
			continue
		}
		seen[p.ID] = struct{}{}
		kept = append(kept, p)
	}
	return kept, nil
}

// Key returns the storage key the cart is mirrored to.
func (s *Store) Key() string { return s.key }

// Cart returns a copy of the current cart.
func (s *Store) Cart() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Subscribe registers fn to receive the cart after every successful change.
// fn runs outside the store lock and may be called from several goroutines.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func([]models.Product)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// AddProduct adds one unit of the product. A product not yet in the cart is
// fetched from the catalog and appended with amount 1.
func (s *Store) AddProduct(ctx context.Context, productID int) error {
	unlock, err := s.lockLine(ctx, productID)
	if err == nil {
		defer unlock()
		err = s.addProduct(ctx, productID)
	}
	if err != nil {
		return s.fail(ctx, ErrAddFailed, MsgAddFailed, productID, err)
	}
	return nil
}

func (s *Store) addProduct(ctx context.Context, productID int) error {
	for range s.attempts {
		seen := s.line(productID)

		stock, err := s.catalog.Stock(ctx, productID)
		if err != nil {
			return fmt.Errorf("stock lookup: %w", err)
		}
		amount := seen.amount + 1
		if amount > stock.Amount {
			return fmt.Errorf("product %d: want %d, stock %d: %w", productID, amount, stock.Amount, ErrOutOfStock)
		}

		var fresh models.Product
		if !seen.present {
			fresh, err = s.catalog.Product(ctx, productID)
			if err != nil {
				return fmt.Errorf("product lookup: %w", err)
			}
			fresh.ID = productID
			fresh.Amount = 1
		}

		err = s.apply(ctx, func(items []models.Product) ([]models.Product, error) {
			if lineOf(items, productID) != seen {
				return nil, errStale
			}
			if i := indexOf(items, productID); i >= 0 {
				items[i].Amount = amount
				return items, nil
			}
			return append(items, fresh), nil
		})
		if errors.Is(err, errStale) {
			s.log.Debug("line changed during add, retrying", zap.Int("product_id", productID))
			continue
		}
		if err != nil {
			return err
		}
		s.log.Debug("product added", zap.Int("product_id", productID), zap.Int("amount", amount))
		return nil
	}
	return ErrConflict
}

// RemoveProduct drops the product's line from the cart.
func (s *Store) RemoveProduct(ctx context.Context, productID int) error {
	unlock, err := s.lockLine(ctx, productID)
	if err == nil {
		defer unlock()
		err = s.removeLine(ctx, productID)
	}
	if err != nil {
		return s.fail(ctx, ErrRemoveFailed, MsgRemoveFailed, productID, err)
	}
	return nil
}

func (s *Store) removeLine(ctx context.Context, productID int) error {
	err := s.apply(ctx, func(items []models.Product) ([]models.Product, error) {
		i := indexOf(items, productID)
		if i < 0 {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return slices.Delete(items, i, i+1), nil
	})
	if err == nil {
		s.log.Debug("product removed", zap.Int("product_id", productID))
	}
	return err
}

// UpdateProductAmount sets the amount of a product already in the cart, within
// the limits of its stock. Amounts <= 0 and amounts above stock are handled as
// the store's Policy says.
func (s *Store) UpdateProductAmount(ctx context.Context, u UpdateAmount) error {
	unlock, err := s.lockLine(ctx, u.ProductID)
	if err == nil {
		defer unlock()
		err = s.updateProductAmount(ctx, u)
	}
	if err != nil {
		return s.fail(ctx, ErrUpdateFailed, MsgUpdateFailed, u.ProductID, err)
	}
	return nil
}

func (s *Store) updateProductAmount(ctx context.Context, u UpdateAmount) error {
	if u.Amount < 0 || (u.Amount == 0 && s.policy.Zero != RemoveOnZero) {
		return fmt.Errorf("product %d: amount %d: %w", u.ProductID, u.Amount, ErrInvalidAmount)
	}
	if u.Amount == 0 {
		return s.removeLine(ctx, u.ProductID)
	}

	for range s.attempts {
		seen := s.line(u.ProductID)
		if !seen.present {
			return fmt.Errorf("product %d: %w", u.ProductID, ErrNotFound)
		}

		stock, err := s.catalog.Stock(ctx, u.ProductID)
		if err != nil {
			return fmt.Errorf("stock lookup: %w", err)
		}
		amount := u.Amount
		if amount > stock.Amount {
			if s.policy.OverStock != ClampToStock {
				return fmt.Errorf("product %d: want %d, stock %d: %w", u.ProductID, amount, stock.Amount, ErrOutOfStock)
			}
			amount = stock.Amount
		}

		err = s.apply(ctx, func(items []models.Product) ([]models.Product, error) {
			if lineOf(items, u.ProductID) != seen {
				return nil, errStale
			}
			i := indexOf(items, u.ProductID)
			if amount == 0 {
				return slices.Delete(items, i, i+1), nil
			}
			items[i].Amount = amount
			return items, nil
		})
		if errors.Is(err, errStale) {
			s.log.Debug("line changed during update, retrying", zap.Int("product_id", u.ProductID))
			continue
		}
		if err != nil {
			return err
		}
		s.log.Debug("product amount updated", zap.Int("product_id", u.ProductID), zap.Int("amount", amount))
		return nil
	}
	return ErrConflict
}

// Clear deletes the stored cart and empties the in-memory one.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.mu.Unlock()
		err = fmt.Errorf("%w: %w", ErrPersist, err)
		s.notifier.Notify(ctx, noticeFor(0, MsgPersistFailed, err))
		return err
	}
	s.items = nil
	publish := s.publishLocked()
	s.mu.Unlock()

	publish()
	return nil
}

// errStale tells a mutation that the line it checked against stock changed
// before the commit.
var errStale = errors.New("cart line changed")

// apply runs fn on a copy of the cart and commits the result: storage first,
// then memory, then subscribers. fn runs under the cart lock, so the checks it
// makes hold for the commit.
func (s *Store) apply(ctx context.Context, fn func([]models.Product) ([]models.Product, error)) error {
	s.mu.Lock()
	next, err := fn(cloneItems(s.items))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: encode: %w", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.items = next
	publish := s.publishLocked()
	s.mu.Unlock()

	publish()
	return nil
}

// publishLocked returns a func that delivers the current cart to subscribers.
// Call it after releasing the lock.
func (s *Store) publishLocked() func() {
	if len(s.subs) == 0 {
		return func() {}
	}
	fns := make([]func([]models.Product), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	snapshot := cloneItems(s.items)
	return func() {
		for _, fn := range fns {
			fn(cloneItems(snapshot))
		}
	}
}

// lineState is what a mutation saw of a product's line before asking the catalog.
type lineState struct {
	amount  int
	present bool
}

func lineOf(items []models.Product, productID int) lineState {
	if i := indexOf(items, productID); i >= 0 {
		return lineState{amount: items[i].Amount, present: true}
	}
	return lineState{}
}

func (s *Store) line(productID int) lineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lineOf(s.items, productID)
}

type lineLock struct {
	sem  chan struct{}
	refs int
}

// lockLine waits until no other mutation of the product is running, or ctx
// is done. Locks are dropped once nobody holds or waits for them.
func (s *Store) lockLine(ctx context.Context, productID int) (unlock func(), err error) {
	s.linesMu.Lock()
	l, ok := s.lines[productID]
	if !ok {
		l = &lineLock{sem: make(chan struct{}, 1)}
		s.lines[productID] = l
	}
	l.refs++
	s.linesMu.Unlock()

	release := func() {
		s.linesMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.lines, productID)
		}
		s.linesMu.Unlock()
	}

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
	return func() {
		<-l.sem
		release()
	}, nil
}

func (s *Store) fail(ctx context.Context, op error, msg string, productID int, err error) error {
	err = fmt.Errorf("%w: %w", op, err)
	s.log.Warn(op.Error(), zap.Int("product_id", productID), zap.Error(err))
	s.notifier.Notify(ctx, noticeFor(productID, msg, err))
	return err
}

func indexOf(items []models.Product, productID int) int {
	return slices.IndexFunc(items, func(p models.Product) bool { return p.ID == productID })
}

func cloneItems(items []models.Product) []models.Product {
	out := make([]models.Product, len(items))
	for i, p := range items {
		out[i] = p.Clone()
	}
	return out
}
