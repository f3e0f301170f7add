package session

import (
	"context"
	"sync"
	"time"

	"github.com/rogerio-castellano/cart-store/internal/cart"
	"github.com/rogerio-castellano/cart-store/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultIdleTTL = 30 * time.Minute

type entry struct {
	store    *cart.Store
	lastUsed time.Time
}

// Registry hands out the cart store of each session, creating it on first use
// from whatever the storage holds under "<baseKey>:<session id>". Stores
// unused for the idle TTL are dropped by Run; the stored cart stays and is
// loaded again on the next request.
type Registry struct {
	kv        storage.KeyValue
	catalog   cart.Catalog
	baseKey   string
	opts      []cart.Option
	reconcile bool
	idleTTL   time.Duration
	log       *zap.Logger
	now       func() time.Time

	loads  singleflight.Group
	mu     sync.Mutex
	stores map[string]*entry
}

type RegistryOption func(*Registry)

// WithCartOptions passes options to every cart store the registry creates.
func WithCartOptions(opts ...cart.Option) RegistryOption {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

// WithReconcileOnLoad runs Reconcile when a stored cart is restored.
func WithReconcileOnLoad(on bool) RegistryOption {
	return func(r *Registry) { r.reconcile = on }
}

// WithIdleTTL sets how long an unused store is kept in memory. Defaults to 30 minutes.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

func NewRegistry(kv storage.KeyValue, catalog cart.Catalog, baseKey string, opts ...RegistryOption) *Registry {
	r := &Registry{
		kv:      kv,
		catalog: catalog,
		baseKey: baseKey,
		idleTTL: defaultIdleTTL,
		log:     zap.NewNop(),
		now:     time.Now,
		stores:  map[string]*entry{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// KeyFor returns the storage key of a session's cart.
func (r *Registry) KeyFor(sessionID string) string {
	return r.baseKey + ":" + sessionID
}

// Cart returns the session's store, loading it on first use. Concurrent first
// requests for a session share one load. Loading happens outside the registry
// lock so a slow storage or catalog only delays that session.
func (r *Registry) Cart(ctx context.Context, sessionID string) (*cart.Store, error) {
	if s := r.touch(sessionID); s != nil {
		return s, nil
	}

	v, err, _ := r.loads.Do(sessionID, func() (any, error) {
		if s := r.touch(sessionID); s != nil {
			return s, nil
		}
		s, err := r.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.stores[sessionID] = &entry{store: s, lastUsed: r.now()}
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cart.Store), nil
}

func (r *Registry) touch(sessionID string) *cart.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[sessionID]
	if !ok {
		return nil
	}
	e.lastUsed = r.now()
	return e.store
}

func (r *Registry) load(ctx context.Context, sessionID string) (*cart.Store, error) {
	log := r.log.With(zap.String("session_id", sessionID))
	opts := append([]cart.Option{cart.WithLogger(log)}, r.opts...)
	opts = append(opts, cart.WithKey(r.KeyFor(sessionID)))
	s, err := cart.New(ctx, r.kv, r.catalog, opts...)
	if err != nil {
		return nil, err
	}
	if r.reconcile && len(s.Cart()) > 0 {
		if _, err := s.Reconcile(ctx); err != nil {
			log.Warn("reconcile on load failed", zap.Error(err))
		}
	}
	return s, nil
}

// Run drops idle stores until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(min(r.idleTTL/2, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.evictIdle(r.now()); n > 0 {
				r.log.Debug("evicted idle carts", zap.Int("count", n))
			}
		}
	}
}

func (r *Registry) evictIdle(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.stores {
		if now.Sub(e.lastUsed) > r.idleTTL {
			delete(r.stores, id)
			n++
		}
	}
	return n
}
