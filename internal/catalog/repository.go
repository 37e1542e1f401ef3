package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mcollection/storefront/internal/domain"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrDuplicateTitle    = errors.New("product title already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, title, description, image, price, category, stock_count, is_featured, specs, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Image, &p.Price, &p.Category,
		&p.StockCount, &p.IsFeatured, pq.Array(&p.Specs), &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Specs == nil {
		p.Specs = []string{}
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Specs == nil {
		p.Specs = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, title, description, image, price, category, stock_count, is_featured, specs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`, p.ID, p.Title, p.Description, p.Image, p.Price, p.Category, p.StockCount, p.IsFeatured, pq.Array(p.Specs), now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateTitle
		}
		return err
	}

	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) GetByTitle(ctx context.Context, title string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE title = $1
	`, title)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		conds  []string
		params []any
	)

	if filter.Category != "" {
		params = append(params, filter.Category)
		conds = append(conds, "category = $"+strconv.Itoa(len(params)))
	}
	if filter.MinPrice != nil {
		params = append(params, *filter.MinPrice)
		conds = append(conds, "price >= $"+strconv.Itoa(len(params)))
	}
	if filter.MaxPrice != nil {
		params = append(params, *filter.MaxPrice)
		conds = append(conds, "price <= $"+strconv.Itoa(len(params)))
	}
	if filter.InStockOnly {
		conds = append(conds, "stock_count > 0")
	}
	if filter.FeaturedOnly {
		conds = append(conds, "is_featured")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	switch filter.SortBy {
	case domain.SortPriceAsc:
		query += " ORDER BY price ASC"
	case domain.SortPriceDesc:
		query += " ORDER BY price DESC"
	case domain.SortPopular:
		// Popularity proxy: featured first, then newest.
		query += " ORDER BY is_featured DESC, created_at DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	return r.queryProducts(ctx, query, params...)
}

// Search ranks title matches first, category matches second, everything
// else by recency.
func (r *ProductRepository) Search(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	term := "%" + q + "%"
	return r.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE title ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY
			CASE
				WHEN title ILIKE $1 THEN 1
				WHEN category ILIKE $1 THEN 2
				ELSE 3
			END,
			created_at DESC
		LIMIT $2
	`, term, limit)
}

func (r *ProductRepository) Suggestions(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY random()
		LIMIT $1
	`, limit)
}

func (r *ProductRepository) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_featured
		ORDER BY created_at DESC
	`)
}

// ProductUpdate carries the partial field set of an update; nil fields
// are left untouched.
type ProductUpdate struct {
	Title       *string
	Description *string
	Image       *string
	Price       *int64
	Category    *string
	StockCount  *int
	IsFeatured  *bool
	Specs       []string
}

func (r *ProductRepository) Update(ctx context.Context, id string, upd ProductUpdate) (*domain.Product, error) {
	var (
		sets   []string
		params []any
	)

	set := func(col string, v any) {
		params = append(params, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(params)))
	}

	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Image != nil {
		set("image", *upd.Image)
	}
	if upd.Price != nil {
		set("price", *upd.Price)
	}
	if upd.Category != nil {
		set("category", *upd.Category)
	}
	if upd.StockCount != nil {
		set("stock_count", *upd.StockCount)
	}
	if upd.IsFeatured != nil {
		set("is_featured", *upd.IsFeatured)
	}
	if upd.Specs != nil {
		set("specs", pq.Array(upd.Specs))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	params = append(params, id)

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(sets, ", "), len(params))
	result, err := r.db.ExecContext(ctx, query, params...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateTitle
		}
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ProductRepository) ToggleFeatured(ctx context.Context, id string) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products SET is_featured = NOT is_featured, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// DecrementStock applies the decrement only when enough stock remains;
// a zero-row update reports ErrInsufficientStock and leaves the count
// untouched. Single conditional statement so concurrent checkouts cannot
// oversell.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock_count = stock_count - $2, updated_at = NOW()
		WHERE id = $1 AND stock_count >= $2
	`, id, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrInsufficientStock
	}

	return nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, params ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
