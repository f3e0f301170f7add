package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	kv := NewPostgres(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("@RocketShoes:cart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"id":1,"amount":1}]`))

	v, err := kv.Get(context.Background(), "@RocketShoes:cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"amount":1}]`, v)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err = kv.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	kv := NewPostgres(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, $3)`)).
		WithArgs("@RocketShoes:cart", `[]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, kv.Set(context.Background(), "@RocketShoes:cart", `[]`))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	kv := NewPostgres(db)

	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store`)).WillReturnError(boom)

	require.ErrorIs(t, kv.Set(context.Background(), "k", "v"), boom)
}

func TestPostgresDeleteAndMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	kv := NewPostgres(db)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS kv_store`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_store WHERE key = $1`)).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, kv.Migrate(context.Background()))
	require.NoError(t, kv.Delete(context.Background(), "k"))
	require.NoError(t, mock.ExpectationsWereMet())
}
