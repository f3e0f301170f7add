package repo

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rogerio-castellano/cart-store/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresInventoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresInventoryRepository(db), mock
}

var itemColumns = []string{"id", "name", "title", "price", "image", "quantity"}

func TestPostgresCreate(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO products (name, title, price, image, quantity, created_at, updated_at)`)).
		WithArgs("Sneaker", "Nice sneaker", 139.9, "1.jpg", 3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	got, err := r.Create(models.InventoryItem{Name: "Sneaker", Title: "Nice sneaker", Price: 139.9, Image: "1.jpg", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateDuplicate(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO products`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := r.Create(models.InventoryItem{Name: "Sneaker", Price: 1})
	require.ErrorIs(t, err, ErrDuplicatedName)
}

func TestPostgresGetByID(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, title, price, image, quantity FROM products WHERE id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(1, "Sneaker", "", 139.9, "1.jpg", 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, title, price, image, quantity FROM products WHERE id = $1`)).
		WithArgs(2).
		WillReturnError(sql.ErrNoRows)

	got, err := r.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, models.InventoryItem{ID: 1, Name: "Sneaker", Price: 139.9, Image: "1.jpg", Quantity: 3}, got)

	_, err = r.GetByID(2)
	require.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAll(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, title, price, image, quantity FROM products ORDER BY id`)).
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow(1, "Sneaker", "", 139.9, "", 3).
			AddRow(2, "Boot", "", 200.0, "", 0))

	got, err := r.GetAll()
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Boot", got[1].Name)
}

func TestPostgresSetQuantity(t *testing.T) {
	r, mock := newMockRepo(t)

	_, err := r.SetQuantity(1, -2)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE products`)).
		WithArgs(5, sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(1, "Sneaker", "", 139.9, "", 5))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE products`)).
		WithArgs(5, sqlmock.AnyArg(), 2).
		WillReturnError(sql.ErrNoRows)

	got, err := r.SetQuantity(1, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	_, err = r.SetQuantity(2, 5)
	require.ErrorIs(t, err, ErrProductNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET name = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := r.Update(models.InventoryItem{ID: 3, Name: "x", Price: 1})
	require.ErrorIs(t, err, ErrProductNotFound)
}
