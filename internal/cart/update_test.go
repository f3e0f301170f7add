package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoLines = `[{"id":1,"price":1,"amount":2},{"id":2,"price":1,"amount":1}]`

func TestUpdateProductAmount(t *testing.T) {
	tests := []struct {
		name        string
		policy      Policy
		update      UpdateAmount
		stock       int
		wantErr     error
		wantIDs     []int
		wantAmounts []int
		wantNotice  string
	}{
		{
			name:        "within stock",
			update:      UpdateAmount{ProductID: 1, Amount: 4},
			stock:       5,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{4, 1},
		},
		{
			name:        "equal to stock",
			update:      UpdateAmount{ProductID: 1, Amount: 5},
			stock:       5,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{5, 1},
		},
		{
			name:        "decrease",
			update:      UpdateAmount{ProductID: 1, Amount: 1},
			stock:       5,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{1, 1},
		},
		{
			name:        "above stock rejected",
			update:      UpdateAmount{ProductID: 1, Amount: 6},
			stock:       5,
			wantErr:     ErrOutOfStock,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{2, 1},
			wantNotice:  MsgOutOfStock,
		},
		{
			name:        "above stock clamped",
			policy:      Policy{OverStock: ClampToStock},
			update:      UpdateAmount{ProductID: 1, Amount: 9},
			stock:       5,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{5, 1},
		},
		{
			name:        "clamped to empty stock removes line",
			policy:      Policy{OverStock: ClampToStock},
			update:      UpdateAmount{ProductID: 1, Amount: 3},
			stock:       0,
			wantIDs:     []int{2},
			wantAmounts: []int{1},
		},
		{
			name:        "zero rejected by default",
			update:      UpdateAmount{ProductID: 1, Amount: 0},
			stock:       5,
			wantErr:     ErrInvalidAmount,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{2, 1},
			wantNotice:  MsgUpdateFailed,
		},
		{
			name:        "zero removes with remove policy",
			policy:      Policy{Zero: RemoveOnZero},
			update:      UpdateAmount{ProductID: 1, Amount: 0},
			stock:       5,
			wantIDs:     []int{2},
			wantAmounts: []int{1},
		},
		{
			name:        "negative always rejected",
			policy:      Policy{Zero: RemoveOnZero},
			update:      UpdateAmount{ProductID: 1, Amount: -1},
			stock:       5,
			wantErr:     ErrInvalidAmount,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{2, 1},
			wantNotice:  MsgUpdateFailed,
		},
		{
			name:        "not in cart",
			update:      UpdateAmount{ProductID: 3, Amount: 1},
			stock:       5,
			wantErr:     ErrNotFound,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{2, 1},
			wantNotice:  MsgUpdateFailed,
		},
		{
			name:        "zero on missing product with remove policy",
			policy:      Policy{Zero: RemoveOnZero},
			update:      UpdateAmount{ProductID: 3, Amount: 0},
			stock:       5,
			wantErr:     ErrNotFound,
			wantIDs:     []int{1, 2},
			wantAmounts: []int{2, 1},
			wantNotice:  MsgUpdateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, twoLines, WithPolicy(tt.policy))
			f.catalog.setStock(tt.update.ProductID, tt.stock)

			err := f.store.UpdateProductAmount(context.Background(), tt.update)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrUpdateFailed)
				assert.Equal(t, []string{tt.wantNotice}, f.notices.messages())
			} else {
				require.NoError(t, err)
				assert.Empty(t, f.notices.messages())
			}
			assert.Equal(t, tt.wantIDs, ids(f.store.Cart()))
			assert.Equal(t, tt.wantAmounts, amounts(f.store.Cart()))
			assert.Equal(t, f.store.Cart(), f.reload(t).Cart())
		})
	}
}

func TestUpdateProductAmount_StockLookupFails(t *testing.T) {
	f := newFixture(t, twoLines)

	err := f.store.UpdateProductAmount(context.Background(), UpdateAmount{ProductID: 1, Amount: 3})

	require.ErrorIs(t, err, ErrUpdateFailed)
	assert.Equal(t, []int{2, 1}, amounts(f.store.Cart()))
}

func TestUpdateProductAmount_RemovedWhileWaitingOnStock(t *testing.T) {
	f := newFixture(t, twoLines)
	f.catalog.setStock(1, 10)

	fired := false
	f.catalog.onStock = func(int) {
		if !fired {
			fired = true
			require.NoError(t, f.store.Clear(context.Background()))
		}
	}

	err := f.store.UpdateProductAmount(context.Background(), UpdateAmount{ProductID: 1, Amount: 3})

	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.store.Cart())
}

func TestParsePolicies(t *testing.T) {
	z, err := ParseZeroPolicy("Remove")
	require.NoError(t, err)
	assert.Equal(t, RemoveOnZero, z)

	z, err = ParseZeroPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RejectNonPositive, z)

	_, err = ParseZeroPolicy("ignore")
	require.Error(t, err)

	o, err := ParseOverStockPolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, ClampToStock, o)

	o, err = ParseOverStockPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, RejectOverStock, o)

	_, err = ParseOverStockPolicy("x")
	require.Error(t, err)
}
