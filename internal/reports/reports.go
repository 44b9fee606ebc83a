package reports

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/email"
)

const jobTimeout = 2 * time.Minute

// Location is Vietnam time. A fixed zone keeps the schedule independent of tzdata.
var Location = time.FixedZone("ICT", 7*3600)

type StockSource interface {
	LowStock(ctx context.Context, threshold int) ([]domain.Beverage, error)
	OutOfStock(ctx context.Context) ([]domain.Beverage, error)
}

// Reporter builds the daily stock digest. With a nil mailer or an empty recipient it
// only logs the counts.
type Reporter struct {
	stock     StockSource
	mailer    email.Mailer
	recipient string
	threshold int
	logger    *slog.Logger
	now       func() time.Time
}

func NewReporter(stock StockSource, mailer email.Mailer, recipient string, threshold int, logger *slog.Logger) *Reporter {
	return &Reporter{
		stock:     stock,
		mailer:    mailer,
		recipient: recipient,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *Reporter) Run(ctx context.Context) error {
	low, err := r.stock.LowStock(ctx, r.threshold)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}
	out, err := r.stock.OutOfStock(ctx)
	if err != nil {
		return fmt.Errorf("list out of stock: %w", err)
	}

	r.logger.InfoContext(ctx, "stock report",
		"low_stock", len(low),
		"out_of_stock", len(out),
		"threshold", r.threshold,
	)

	if r.mailer == nil || r.recipient == "" {
		return nil
	}

	msg, err := email.LowStockDigest(r.recipient, email.StockReport{
		GeneratedAt: r.now().In(Location),
		Threshold:   r.threshold,
		LowStock:    low,
		OutOfStock:  out,
	})
	if err != nil {
		return err
	}
	if err := r.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send stock digest: %w", err)
	}
	return nil
}

type Scheduler struct {
	scheduler gocron.Scheduler
	reporter  *Reporter
	logger    *slog.Logger
}

// NewScheduler registers the digest to run once a day at hour:minute Vietnam time.
func NewScheduler(reporter *Reporter, hour, minute uint, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(Location))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	sched := &Scheduler{
		scheduler: s,
		reporter:  reporter,
		logger:    logger,
	}

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(hour, minute, 0),
			),
		),
		gocron.NewTask(sched.run),
		gocron.WithName("stock-digest"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule stock digest: %w", err)
	}

	return sched, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reporter.Run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "stock report failed", "error", err)
	}
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
