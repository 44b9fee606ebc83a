package voucher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/beverageshop/internal/domain"
)

var meter = otel.Meter("beverageshop/voucher")

var validatedCounter, _ = meter.Int64Counter("vouchers.validated",
	metric.WithDescription("Voucher validations by result"))

type Store interface {
	GetByID(ctx context.Context, id int64) (*domain.Voucher, error)
	GetByCode(ctx context.Context, code string) (*domain.Voucher, error)
	ListActive(ctx context.Context) ([]domain.Voucher, error)
	ListAll(ctx context.Context) ([]domain.Voucher, error)
	IncrementUsage(ctx context.Context, id int64) error
	Create(ctx context.Context, v *domain.Voucher) error
	Update(ctx context.Context, v *domain.Voucher) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo   Store
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Store, logger *slog.Logger) *Service {
	return &Service{repo: repo, now: time.Now, logger: logger}
}

// Validate quotes code against amount without consuming a use.
func (s *Service) Validate(ctx context.Context, code string, amount decimal.Decimal) (Quote, error) {
	v, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Quote{}, err
	}

	quote, err := Evaluate(v, amount, s.now())
	validatedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultOf(err))))
	if err != nil {
		s.logger.Info("voucher rejected", "code", code, "reason", domain.Message(err))
		return Quote{}, err
	}
	return quote, nil
}

// Apply consumes one use of code outside of any order.
func (s *Service) Apply(ctx context.Context, code string) (*domain.Voucher, error) {
	v, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.NotFound("Mã voucher không tồn tại")
	}

	if err := s.repo.IncrementUsage(ctx, v.ID); err != nil {
		return nil, err
	}
	v.UsedCount++

	s.logger.Info("voucher applied", "code", v.Code, "used_count", v.UsedCount)
	return v, nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "rejected"
	}
}
