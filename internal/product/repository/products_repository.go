package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
)

const productColumns = `id, category_id, name, slug, description, price, stock, reserved_stock,
		       is_active, is_available, created_at, updated_at`

type ListFilter struct {
	CategorySlug string
	ActiveOnly   bool
	Limit        int
	Offset       int
}

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.Stock, &p.ReservedStock,
		&p.IsActive, &p.IsAvailable,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MySQLRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}
	return p, nil
}

// FindByIDForUpdate reads the product holding a row lock until tx ends.
func (r *MySQLRepository) FindByIDForUpdate(ctx context.Context, tx mysql.DBTX, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ? FOR UPDATE`

	p, err := scanProduct(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("locking product: %w", err)
	}
	return p, nil
}

func (r *MySQLRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id IN (%s) ORDER BY id`,
		productColumns, strings.Join(placeholders, ", "))

	return r.queryProducts(ctx, query, args...)
}

func (r *MySQLRepository) List(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.ActiveOnly {
		conds = append(conds, "p.is_active = 1")
	}
	if filter.CategorySlug != "" {
		conds = append(conds, "c.slug = ?")
		args = append(args, filter.CategorySlug)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.price, p.stock, p.reserved_stock,
		       p.is_active, p.is_available, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		ORDER BY p.name, p.id
		LIMIT ? OFFSET ?`, where)
	args = append(args, filter.Limit, filter.Offset)

	return r.queryProducts(ctx, query, args...)
}

// ListLowStock returns active products whose available stock is at or below
// threshold, lowest first.
func (r *MySQLRepository) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_active = 1
		  AND GREATEST(stock - reserved_stock, 0) <= ?
		ORDER BY GREATEST(stock - reserved_stock, 0), id`

	return r.queryProducts(ctx, query, threshold)
}

func (r *MySQLRepository) UpdateStock(ctx context.Context, tx mysql.DBTX, id int64, stock int) error {
	result, err := tx.ExecContext(ctx, `UPDATE products SET stock = ? WHERE id = ?`, stock, id)
	if err != nil {
		return fmt.Errorf("updating product stock: %w", err)
	}
	return expectRow(result, id)
}

// AddReservedStock shifts the reserved counter by delta, never below zero.
func (r *MySQLRepository) AddReservedStock(ctx context.Context, tx mysql.DBTX, id int64, delta int) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE products SET reserved_stock = GREATEST(reserved_stock + ?, 0) WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("updating reserved stock: %w", err)
	}
	return expectRow(result, id)
}

func (r *MySQLRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

// expectRow relies on clientFoundRows=true so that matched-but-unchanged rows count.
func expectRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	return nil
}
