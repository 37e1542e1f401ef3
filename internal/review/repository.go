package review

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mcollection/storefront/internal/domain"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create stores a review. There is no uniqueness constraint: the same
// customer may review a product any number of times and every review
// weighs equally in the average.
func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	rev.ID = uuid.New().String()
	rev.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, product_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rev.ID, rev.UserID, rev.ProductID, rev.Rating, rev.Comment, rev.CreatedAt)
	return err
}

func (r *ReviewRepository) ListForProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, u.username, r.product_id, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.Username, &rev.ProductID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}

// Summary returns the arithmetic mean rounded half-up to two decimals,
// and 0 (not NaN) for a product without reviews.
func (r *ReviewRepository) Summary(ctx context.Context, productID string) (domain.RatingSummary, error) {
	var (
		avg   sql.NullFloat64
		count int
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT AVG(rating), COUNT(*)
		FROM reviews
		WHERE product_id = $1
	`, productID).Scan(&avg, &count)
	if err != nil {
		return domain.RatingSummary{}, err
	}

	summary := domain.RatingSummary{Count: count}
	if avg.Valid {
		summary.Average = math.Round(avg.Float64*100) / 100
	}

	return summary, nil
}
