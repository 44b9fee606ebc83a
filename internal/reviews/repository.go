package reviews

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/store"
)

const reviewColumns = `
	id, beverage_id, user_id, user_name, rating, comment, images, is_verified_purchase, helpful_count, created_date`

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (*domain.Review, error) {
	rv := &domain.Review{}
	err := row.Scan(&rv.ID, &rv.BeverageID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment,
		pq.Array(&rv.Images), &rv.IsVerifiedPurchase, &rv.HelpfulCount, &rv.CreatedDate)
	if err != nil {
		return nil, err
	}
	if rv.Images == nil {
		rv.Images = []string{}
	}
	return rv, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	rv, err := scanReview(store.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rv, nil
}

func (r *ReviewRepository) ListByBeverage(ctx context.Context, beverageID int64) ([]domain.Review, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE beverage_id = $1
		ORDER BY created_date DESC, id DESC
	`, beverageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	return store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO reviews (beverage_id, user_id, user_name, rating, comment, images, is_verified_purchase, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_date
	`, rv.BeverageID, rv.UserID, rv.UserName, rv.Rating, rv.Comment, pq.Array(rv.Images), rv.IsVerifiedPurchase,
	).Scan(&rv.ID, &rv.CreatedDate)
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return err
}

// RatingCounts returns how many reviews the beverage has for each star rating.
func (r *ReviewRepository) RatingCounts(ctx context.Context, beverageID int64) (map[int]int, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT rating, COUNT(*) FROM reviews
		WHERE beverage_id = $1
		GROUP BY rating
	`, beverageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := map[int]int{}
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, err
		}
		counts[rating] = count
	}

	return counts, rows.Err()
}

// HasDeliveredPurchase reports whether the user received an order containing the beverage.
func (r *ReviewRepository) HasDeliveredPurchase(ctx context.Context, userID, beverageID int64) (bool, error) {
	var exists bool
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.beverage_id = $2 AND o.status = $3
		)
	`, userID, beverageID, domain.OrderStatusDelivered).Scan(&exists)
	return exists, err
}
