package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/beverageshop/internal/accounts"
	"github.com/joao-fontenele/beverageshop/internal/admin"
	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/catalog"
	"github.com/joao-fontenele/beverageshop/internal/config"
	"github.com/joao-fontenele/beverageshop/internal/email"
	"github.com/joao-fontenele/beverageshop/internal/messaging"
	"github.com/joao-fontenele/beverageshop/internal/orders"
	"github.com/joao-fontenele/beverageshop/internal/reports"
	"github.com/joao-fontenele/beverageshop/internal/reviews"
	"github.com/joao-fontenele/beverageshop/internal/store"
	"github.com/joao-fontenele/beverageshop/internal/telemetry"
	"github.com/joao-fontenele/beverageshop/internal/voucher"
	"github.com/joao-fontenele/beverageshop/internal/wishlist"
)

const serviceName = "beverageshop-api"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireAPI(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var revoker auth.Revoker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()
		revoker = auth.NewRedisRevoker(client)
	} else {
		logger.Warn("REDIS_URL not set, logout will not revoke tokens")
	}

	var publisher orders.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events will not be published")
	}

	tx := store.NewTxManager(db)
	beverageRepo := catalog.NewBeverageRepository(db)
	voucherRepo := voucher.NewVoucherRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	userRepo := accounts.NewUserRepository(db)
	reviewRepo := reviews.NewReviewRepository(db)
	wishlistRepo := wishlist.NewWishlistRepository(db)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewAuthenticator(tokens, revoker, userRepo, logger)

	orderService := orders.NewService(tx, beverageRepo, voucherRepo, orderRepo, publisher, logger)
	accountService := accounts.NewService(tx, userRepo, tokens, logger)

	h := handlers{
		catalog:  catalog.NewHandler(beverageRepo, logger),
		vouchers: voucher.NewHandler(voucher.NewService(voucherRepo, logger), voucherRepo, logger),
		orders:   orders.NewHandler(orderService, logger),
		accounts: accounts.NewHandler(accountService, authenticator, logger),
		admin:    admin.NewHandler(admin.NewStatsRepository(db), beverageRepo, orderRepo, cfg.LowStockThreshold, logger),
		reviews:  reviews.NewHandler(reviews.NewService(reviewRepo, beverageRepo, logger), logger),
		wishlist: wishlist.NewHandler(wishlistRepo, beverageRepo, logger),
	}

	mux := http.NewServeMux()
	routes(mux, h, authenticator)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", healthz(db))

	var mailer email.Mailer
	if cfg.MailEnabled() {
		mailer = email.NewSMTPMailer(cfg)
	}
	hour, minute, _ := cfg.ReportTime()
	reporter := reports.NewReporter(beverageRepo, mailer, cfg.AdminEmail, cfg.LowStockThreshold, logger)
	scheduler, err := reports.NewScheduler(reporter, hour, minute, logger)
	if err != nil {
		logger.Error("failed to create report scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(authenticator.Optional(mux), serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", cfg.Port, "version", cfg.ServiceVersion)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
