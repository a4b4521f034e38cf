package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// ListRelatedProducts follows the product's edges by position and keeps only
// active targets.
func (r *MySQLRepository) ListRelatedProducts(ctx context.Context, productID int64, limit int) ([]domain.Product, error) {
	query := `
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.price, p.stock, p.reserved_stock,
		       p.is_active, p.is_available, p.created_at, p.updated_at
		FROM product_relations r
		JOIN products p ON p.id = r.related_product_id
		WHERE r.product_id = ? AND p.is_active = 1
		ORDER BY r.position, r.id
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying related products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Price,
			&p.Stock, &p.ReservedStock, &p.IsActive, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning related product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related products: %w", err)
	}
	return products, nil
}

func (r *MySQLRepository) Insert(ctx context.Context, rel *domain.ProductRelation) error {
	query := `
		INSERT INTO product_relations (product_id, related_product_id, type, position, created_at)
		VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, rel.ProductID, rel.RelatedProductID, rel.Type, rel.Position, rel.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting product relation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting relation id: %w", err)
	}
	rel.ID = id
	return nil
}

func (r *MySQLRepository) ListBySource(ctx context.Context, productID int64) ([]domain.ProductRelation, error) {
	query := `
		SELECT id, product_id, related_product_id, type, position, created_at
		FROM product_relations
		WHERE product_id = ?
		ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("querying product relations: %w", err)
	}
	defer rows.Close()

	relations := []domain.ProductRelation{}
	for rows.Next() {
		var rel domain.ProductRelation
		if err := rows.Scan(&rel.ID, &rel.ProductID, &rel.RelatedProductID, &rel.Type, &rel.Position, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning product relation: %w", err)
		}
		relations = append(relations, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product relations: %w", err)
	}
	return relations, nil
}

func (r *MySQLRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_relations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product relation: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("relation with id %d not found", id))
	}
	return nil
}
