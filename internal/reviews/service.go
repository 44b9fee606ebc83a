// Package reviews stores customer ratings of beverages.
package reviews

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/domain"
)

var errReviewNotFound = domain.NotFound("Không tìm thấy đánh giá")

type Store interface {
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	ListByBeverage(ctx context.Context, beverageID int64) ([]domain.Review, error)
	Create(ctx context.Context, rv *domain.Review) error
	Delete(ctx context.Context, id int64) error
	RatingCounts(ctx context.Context, beverageID int64) (map[int]int, error)
	HasDeliveredPurchase(ctx context.Context, userID, beverageID int64) (bool, error)
}

type BeverageLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Beverage, error)
}

type Service struct {
	reviews   Store
	beverages BeverageLookup
	logger    *slog.Logger
}

func NewService(reviews Store, beverages BeverageLookup, logger *slog.Logger) *Service {
	return &Service{reviews: reviews, beverages: beverages, logger: logger}
}

func (s *Service) ListByBeverage(ctx context.Context, beverageID int64) ([]domain.Review, error) {
	return s.reviews.ListByBeverage(ctx, beverageID)
}

type NewReview struct {
	BeverageID int64
	Rating     int
	Comment    string
	Images     []string
}

// Create records a review by the caller. The review is marked as a verified purchase when
// the caller has received the beverage in a delivered order.
func (s *Service) Create(ctx context.Context, author *auth.Principal, in NewReview) (*domain.Review, error) {
	if err := auth.RequireUser(author); err != nil {
		return nil, err
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.Invalid("Đánh giá phải từ 1 đến 5 sao")
	}

	b, err := s.beverages.GetByID(ctx, in.BeverageID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("Không tìm thấy đồ uống")
	}

	verified, err := s.reviews.HasDeliveredPurchase(ctx, author.UserID, in.BeverageID)
	if err != nil {
		return nil, err
	}

	rv := &domain.Review{
		BeverageID:         in.BeverageID,
		UserID:             author.UserID,
		UserName:           author.Username,
		Rating:             in.Rating,
		Comment:            in.Comment,
		Images:             in.Images,
		IsVerifiedPurchase: verified,
	}
	if rv.Images == nil {
		rv.Images = []string{}
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}

	s.logger.Info("review created", "review_id", rv.ID, "beverage_id", rv.BeverageID, "rating", rv.Rating)
	return rv, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *Service) Delete(ctx context.Context, caller *auth.Principal, id int64) error {
	if err := auth.RequireUser(caller); err != nil {
		return err
	}

	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rv == nil {
		return errReviewNotFound
	}
	if err := auth.RequireSelfOrAdmin(caller, rv.UserID); err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("review deleted", "review_id", id, "user_id", caller.UserID)
	return nil
}

// Stats summarises the ratings of a beverage. The average is rounded half to even to one
// decimal place.
func (s *Service) Stats(ctx context.Context, beverageID int64) (*domain.ReviewStats, error) {
	counts, err := s.reviews.RatingCounts(ctx, beverageID)
	if err != nil {
		return nil, err
	}

	stats := &domain.ReviewStats{RatingDistribution: counts}
	sum := 0
	for rating, count := range counts {
		stats.TotalReviews += count
		sum += rating * count
	}
	if stats.TotalReviews > 0 {
		avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(stats.TotalReviews)))
		stats.AverageRating = avg.RoundBank(1).InexactFloat64()
	}
	return stats, nil
}
