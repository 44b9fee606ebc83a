package wishlist

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/store"
)

var errAlreadyListed = domain.Conflict("Item already in wishlist")

type WishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// ListByUser returns the user's wishlist, newest first, with each beverage attached.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID int64) ([]domain.WishlistItem, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT w.id, w.user_id, w.beverage_id, w.added_date,
			b.id, b.name, b.slug, b.type, b.category, b.brand, b.price, b.size, b.description,
			b.image_url, b.images, b.stock, b.is_available, b.created_date
		FROM wishlists w
		JOIN beverages b ON b.id = w.beverage_id
		WHERE w.user_id = $1
		ORDER BY w.added_date DESC, w.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var item domain.WishlistItem
		b := &domain.Beverage{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.BeverageID, &item.AddedDate,
			&b.ID, &b.Name, &b.Slug, &b.Type, &b.Category, &b.Brand, &b.Price, &b.Size, &b.Description,
			&b.ImageURL, pq.Array(&b.Images), &b.Stock, &b.IsAvailable, &b.CreatedDate); err != nil {
			return nil, err
		}
		if b.Images == nil {
			b.Images = []string{}
		}
		item.Beverage = b
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *WishlistRepository) GetByID(ctx context.Context, id int64) (*domain.WishlistItem, error) {
	item := &domain.WishlistItem{}
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, user_id, beverage_id, added_date FROM wishlists WHERE id = $1
	`, id).Scan(&item.ID, &item.UserID, &item.BeverageID, &item.AddedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *WishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO wishlists (user_id, beverage_id, added_date)
		VALUES ($1, $2, NOW())
		RETURNING id, added_date
	`, item.UserID, item.BeverageID).Scan(&item.ID, &item.AddedDate)
	if store.IsUniqueViolation(err) {
		return errAlreadyListed
	}
	return err
}

func (r *WishlistRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM wishlists WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *WishlistRepository) DeleteByPair(ctx context.Context, userID, beverageID int64) (bool, error) {
	result, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		DELETE FROM wishlists WHERE user_id = $1 AND beverage_id = $2
	`, userID, beverageID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *WishlistRepository) Contains(ctx context.Context, userID, beverageID int64) (bool, error) {
	var exists bool
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM wishlists WHERE user_id = $1 AND beverage_id = $2)
	`, userID, beverageID).Scan(&exists)
	return exists, err
}
