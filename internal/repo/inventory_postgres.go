package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rogerio-castellano/cart-store/internal/models"
)

// InventorySchema creates the products table used by PostgresInventoryRepository.
const InventorySchema = `CREATE TABLE IF NOT EXISTS products (
	id         SERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL DEFAULT '',
	price      NUMERIC(12,2) NOT NULL,
	image      TEXT NOT NULL DEFAULT '',
	quantity   INTEGER NOT NULL CHECK (quantity >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresInventoryRepository struct {
	db *sql.DB
}

func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

func (r *PostgresInventoryRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, InventorySchema)
	return err
}

const selectColumns = `SELECT id, name, title, price, image, quantity FROM products`

func (r *PostgresInventoryRepository) Create(it models.InventoryItem) (models.InventoryItem, error) {
	if it.Quantity < 0 {
		return models.InventoryItem{}, ErrInvalidQuantity
	}
	query := `INSERT INTO products (name, title, price, image, quantity, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, it.Name, it.Title, it.Price, it.Image, it.Quantity, now, now).Scan(&it.ID)
	if isUniqueViolation(err) {
		return models.InventoryItem{}, ErrDuplicatedName
	}
	return it, err
}

func (r *PostgresInventoryRepository) GetAll() ([]models.InventoryItem, error) {
	query := selectColumns + ` ORDER BY id`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		var it models.InventoryItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Title, &it.Price, &it.Image, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresInventoryRepository) GetByID(id int) (models.InventoryItem, error) {
	return r.getOne(selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresInventoryRepository) GetByName(name string) (models.InventoryItem, error) {
	return r.getOne(selectColumns+` WHERE lower(name) = lower($1)`, name)
}

func (r *PostgresInventoryRepository) getOne(query string, arg any) (models.InventoryItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var it models.InventoryItem
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&it.ID, &it.Name, &it.Title, &it.Price, &it.Image, &it.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InventoryItem{}, ErrProductNotFound
	}
	return it, err
}

func (r *PostgresInventoryRepository) Update(it models.InventoryItem) (models.InventoryItem, error) {
	if it.Quantity < 0 {
		return models.InventoryItem{}, ErrInvalidQuantity
	}
	query := `UPDATE products SET name = $1, title = $2, price = $3, image = $4, quantity = $5, updated_at = $6 WHERE id = $7`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, it.Name, it.Title, it.Price, it.Image, it.Quantity, time.Now().UTC(), it.ID)
	if isUniqueViolation(err) {
		return models.InventoryItem{}, ErrDuplicatedName
	}
	if err != nil {
		return models.InventoryItem{}, err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return models.InventoryItem{}, ErrProductNotFound
	}
	return it, nil
}

func (r *PostgresInventoryRepository) SetQuantity(id int, quantity int) (models.InventoryItem, error) {
	if quantity < 0 {
		return models.InventoryItem{}, ErrInvalidQuantity
	}
	query := `
		UPDATE products
		SET quantity = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, name, title, price, image, quantity
	`
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var it models.InventoryItem
	err := r.db.QueryRowContext(ctx, query, quantity, time.Now().UTC(), id).
		Scan(&it.ID, &it.Name, &it.Title, &it.Price, &it.Image, &it.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InventoryItem{}, ErrProductNotFound
	}
	return it, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "unique constraint")
}
