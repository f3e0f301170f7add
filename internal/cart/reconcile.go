package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rogerio-castellano/cart-store/internal/catalog"
	"github.com/rogerio-castellano/cart-store/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reconcileConcurrency = 8

// Adjustment records a line Reconcile changed. To is 0 when the line was removed.
type Adjustment struct {
	ProductID int `json:"product_id"`
	From      int `json:"from"`
	To        int `json:"to"`
}

// Reconcile checks every line against current stock. Lines above stock are
// lowered to it. Lines whose stock ran out, and lines for products the
// catalog no longer has, are removed. A cart restored
// from storage is never checked on load, so callers run this when they need
// the amounts to be purchasable.
func (s *Store) Reconcile(ctx context.Context) ([]Adjustment, error) {
	adj, err := s.reconcile(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrReconcileFailed, err)
		s.log.Warn("reconcile failed", zap.Error(err))
		s.notifier.Notify(ctx, noticeFor(0, MsgCheckFailed, err))
		return nil, err
	}
	if len(adj) > 0 {
		s.notifier.Notify(ctx, Notice{Kind: NoticeInfo, Message: MsgReconciled})
	}
	return adj, nil
}

func (s *Store) reconcile(ctx context.Context) ([]Adjustment, error) {
	for range s.attempts {
		items := s.Cart()

		stocks, err := s.lookupStocks(ctx, items)
		if err != nil {
			return nil, err
		}

		var adj []Adjustment
		for i, p := range items {
			if p.Amount > stocks[i] {
				adj = append(adj, Adjustment{ProductID: p.ID, From: p.Amount, To: stocks[i]})
			}
		}
		if len(adj) == 0 {
			return nil, nil
		}

		err = s.apply(ctx, func(items []models.Product) ([]models.Product, error) {
			for _, a := range adj {
				i := indexOf(items, a.ProductID)
				if i < 0 || items[i].Amount != a.From {
					return nil, errStale
				}
				items[i].Amount = a.To
			}
			return slices.DeleteFunc(items, func(p models.Product) bool { return p.Amount < 1 }), nil
		})
		if errors.Is(err, errStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.log.Info("cart reconciled with stock", zap.Int("adjusted", len(adj)))
		return adj, nil
	}
	return nil, ErrConflict
}

// lookupStocks fetches the stock of every line. A product the catalog no
// longer knows counts as out of stock.
func (s *Store) lookupStocks(ctx context.Context, items []models.Product) ([]int, error) {
	stocks := make([]int, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for i, p := range items {
		g.Go(func() error {
			st, err := s.catalog.Stock(gctx, p.ID)
			if errors.Is(err, catalog.ErrNotFound) {
				s.log.Info("product left the catalog", zap.Int("product_id", p.ID))
				return nil
			}
			if err != nil {
				return fmt.Errorf("stock lookup for product %d: %w", p.ID, err)
			}
			stocks[i] = max(st.Amount, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stocks, nil
}
