//go:build integration

package test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/beverageshop/internal/accounts"
	"github.com/joao-fontenele/beverageshop/internal/auth"
	"github.com/joao-fontenele/beverageshop/internal/catalog"
	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/email"
	"github.com/joao-fontenele/beverageshop/internal/messaging"
	"github.com/joao-fontenele/beverageshop/internal/notification"
	"github.com/joao-fontenele/beverageshop/internal/orders"
	"github.com/joao-fontenele/beverageshop/internal/reviews"
	"github.com/joao-fontenele/beverageshop/internal/store"
	"github.com/joao-fontenele/beverageshop/internal/voucher"
	"github.com/joao-fontenele/beverageshop/internal/wishlist"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type shop struct {
	beverages *catalog.BeverageRepository
	vouchers  *voucher.VoucherRepository
	orders    *orders.OrderRepository
	service   *orders.Service
}

func newShop(t *testing.T, db *sql.DB, publisher orders.Publisher) *shop {
	t.Helper()
	s := &shop{
		beverages: catalog.NewBeverageRepository(db),
		vouchers:  voucher.NewVoucherRepository(db),
		orders:    orders.NewOrderRepository(db),
	}
	s.service = orders.NewService(store.NewTxManager(db), s.beverages, s.vouchers, s.orders, publisher, discard)
	return s
}

func (s *shop) stock(t *testing.T, beverageID int64) int {
	t.Helper()
	b, err := s.beverages.GetByID(context.Background(), beverageID)
	if err != nil || b == nil {
		t.Fatalf("GetByID(%d) = %v, %v", beverageID, b, err)
	}
	return b.Stock
}

func customer(name string) domain.CustomerInfo {
	return domain.CustomerInfo{
		CustomerName:    name,
		CustomerEmail:   "khach@example.com",
		CustomerPhone:   "0901234567",
		ShippingAddress: "12 Lê Lợi, Quận 1",
		PaymentMethod:   "COD",
	}
}

func TestPlaceOrderAgainstPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	s := newShop(t, OpenDB(t, pg.ConnStr), nil)

	promo := &domain.Voucher{
		Code:               "ITEST15",
		Name:               "ITEST15",
		Type:               domain.DiscountPercentage,
		Value:              decimal.NewFromInt(15),
		MinimumOrderAmount: decimal.NewFromInt(80000),
		MaxUsageCount:      5,
		StartDate:          time.Now().AddDate(0, 0, -1),
		EndDate:            time.Now().AddDate(0, 1, 0),
		IsActive:           true,
	}
	if err := s.vouchers.Create(ctx, promo); err != nil {
		t.Fatalf("create voucher: %v", err)
	}

	before := s.stock(t, 1)

	order, err := s.service.PlaceOrder(ctx, orders.PlaceOrderRequest{
		Items:       []domain.CartLine{{BeverageID: 1, Quantity: 2}},
		VoucherCode: "itest15",
		Customer:    customer("Lê Thị C"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if !order.DiscountAmount.Equal(decimal.NewFromInt(13500)) {
		t.Errorf("discount = %s, want 13500", order.DiscountAmount)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(76500)) {
		t.Errorf("total = %s, want 76500", order.TotalAmount)
	}
	if got := s.stock(t, 1); got != before-2 {
		t.Errorf("stock = %d, want %d", got, before-2)
	}

	v, err := s.vouchers.GetByCode(ctx, "ITEST15")
	if err != nil || v == nil {
		t.Fatalf("GetByCode = %v, %v", v, err)
	}
	if v.UsedCount != 1 {
		t.Errorf("usedCount = %d, want 1", v.UsedCount)
	}

	stored, err := s.orders.GetByID(ctx, order.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID = %v, %v", stored, err)
	}
	if len(stored.OrderItems) != 1 || !stored.OrderItems[0].Price.Equal(decimal.NewFromInt(45000)) {
		t.Errorf("items = %+v, want one line priced 45000", stored.OrderItems)
	}

	t.Run("insufficient stock leaves nothing behind", func(t *testing.T) {
		before := s.stock(t, 4)
		_, err := s.service.PlaceOrder(ctx, orders.PlaceOrderRequest{
			Items:    []domain.CartLine{{BeverageID: 2, Quantity: 1}, {BeverageID: 4, Quantity: before + 1}},
			Customer: customer("Phạm D"),
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("err = %v, want a validation error", err)
		}
		if got := s.stock(t, 4); got != before {
			t.Errorf("stock = %d, want %d", got, before)
		}
	})

	t.Run("delivery marks paid, cancel restocks", func(t *testing.T) {
		delivered, err := s.service.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered)
		if err != nil {
			t.Fatalf("UpdateStatus(Delivered): %v", err)
		}
		if !delivered.IsPaid || delivered.PaidDate == nil {
			t.Errorf("delivered order not marked paid: %+v", delivered)
		}

		other, err := s.service.PlaceOrder(ctx, orders.PlaceOrderRequest{
			Items:    []domain.CartLine{{BeverageID: 6, Quantity: 3}},
			Customer: customer("Võ E"),
		})
		if err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
		before := s.stock(t, 6)
		if _, err := s.service.UpdateStatus(ctx, other.ID, domain.OrderStatusCancelled); err != nil {
			t.Fatalf("UpdateStatus(Cancelled): %v", err)
		}
		if got := s.stock(t, 6); got != before+3 {
			t.Errorf("stock after cancel = %d, want %d", got, before+3)
		}
	})
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	s := newShop(t, db, nil)

	SetStock(ctx, t, db, 5, 3)

	const buyers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.PlaceOrder(ctx, orders.PlaceOrderRequest{
				Items:    []domain.CartLine{{BeverageID: 5, Quantity: 1}},
				Customer: customer("Khách"),
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("PlaceOrder: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 3 {
		t.Errorf("accepted = %d, want 3", accepted)
	}
	if got := s.stock(t, 5); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}
}

func TestResetDatabaseRestoresSeed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	s := newShop(t, db, nil)

	temporary := &domain.Voucher{
		Code:      "RESET5",
		Name:      "RESET5",
		Type:      domain.DiscountFixedAmount,
		Value:     decimal.NewFromInt(5000),
		StartDate: time.Now().AddDate(0, 0, -1),
		EndDate:   time.Now().AddDate(0, 0, 1),
		IsActive:  true,
	}
	if err := s.vouchers.Create(ctx, temporary); err != nil {
		t.Fatalf("create voucher: %v", err)
	}

	seeded := s.stock(t, 2)
	if _, err := s.service.PlaceOrder(ctx, orders.PlaceOrderRequest{
		Items:       []domain.CartLine{{BeverageID: 2, Quantity: 4}},
		VoucherCode: "RESET5",
		Customer:    customer("Phạm G"),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	SetStock(ctx, t, db, 1, 0)

	ResetDatabase(t, pg.ConnStr)

	if n := CountRows(ctx, t, db, "orders"); n != 0 {
		t.Errorf("orders after reset = %d, want 0", n)
	}
	if got := s.stock(t, 2); got != seeded {
		t.Errorf("stock after reset = %d, want %d", got, seeded)
	}
	b, err := s.beverages.GetByID(ctx, 1)
	if err != nil || b == nil || !b.IsAvailable || b.Stock == 0 {
		t.Errorf("beverage 1 after reset = %+v, %v", b, err)
	}
	if v, err := s.vouchers.GetByCode(ctx, "RESET5"); err != nil || v != nil {
		t.Errorf("voucher after reset = %+v, %v", v, err)
	}
	if n := CountRows(ctx, t, db, "vouchers"); n != 5 {
		t.Errorf("vouchers after reset = %d, want the 5 seeded", n)
	}
}

func TestAccountsAgainstPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	users := accounts.NewUserRepository(db)
	service := accounts.NewService(store.NewTxManager(db), users, auth.NewTokenIssuer("integration", time.Hour), discard)

	admin, token, err := service.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("Login(admin): %v", err)
	}
	if token == "" || admin.Role != domain.RoleAdmin {
		t.Fatalf("login = %+v, %q", admin, token)
	}

	stored, err := users.GetByID(ctx, admin.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID = %v, %v", stored, err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Errorf("seeded admin hash was not upgraded: %q", stored.PasswordHash)
	}

	reg := accounts.Registration{Username: "minh", Password: "matkhau1", Email: "minh@example.com"}
	if _, _, err := service.Register(ctx, reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	reg.Username = "MINH"
	if _, _, err := service.Register(ctx, reg); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate Register err = %v, want conflict", err)
	}

	if _, err := service.ToggleStatus(ctx, admin.ID); err == nil {
		t.Error("deactivating the only admin succeeded")
	}
}

func TestReviewsAndWishlistAgainstPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	s := newShop(t, db, nil)

	users := accounts.NewUserRepository(db)
	buyer := &domain.User{Username: "lan", PasswordHash: "x", Role: domain.RoleCustomer, IsActive: true}
	if err := users.Create(ctx, buyer); err != nil {
		t.Fatalf("create user: %v", err)
	}

	info := customer("Lan")
	info.UserID = &buyer.ID
	order, err := s.service.PlaceOrder(ctx, orders.PlaceOrderRequest{
		Items:    []domain.CartLine{{BeverageID: 3, Quantity: 1}},
		Customer: info,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := s.service.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	reviewService := reviews.NewService(reviews.NewReviewRepository(db), s.beverages, discard)
	author := &auth.Principal{UserID: buyer.ID, Username: buyer.Username, Role: domain.RoleCustomer}

	verified, err := reviewService.Create(ctx, author, reviews.NewReview{BeverageID: 3, Rating: 5, Comment: "Tươi ngon"})
	if err != nil {
		t.Fatalf("Create review: %v", err)
	}
	if !verified.IsVerifiedPurchase {
		t.Error("review of a delivered purchase is not verified")
	}

	unverified, err := reviewService.Create(ctx, author, reviews.NewReview{BeverageID: 1, Rating: 4})
	if err != nil {
		t.Fatalf("Create review: %v", err)
	}
	if unverified.IsVerifiedPurchase {
		t.Error("review without a purchase is verified")
	}

	items := wishlist.NewWishlistRepository(db)
	entry := &domain.WishlistItem{UserID: buyer.ID, BeverageID: 2}
	if err := items.Add(ctx, entry); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := items.Add(ctx, &domain.WishlistItem{UserID: buyer.ID, BeverageID: 2}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate Add err = %v, want conflict", err)
	}

	listed, err := items.ListByUser(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(listed) != 1 || listed[0].Beverage == nil || listed[0].Beverage.Name != "Cà Phê Đen Đá" {
		t.Errorf("wishlist = %+v", listed)
	}
}

type capturingMailer struct {
	mu   sync.Mutex
	sent []email.Message
	got  chan struct{}
}

func (m *capturingMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.got <- struct{}{}
	return nil
}

func TestOrderPlacedNotification(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokers, cleanupKafka := SetupKafka(ctx, t)
	defer cleanupKafka()

	const topic = "order.placed"
	producer := messaging.NewProducer(brokers, topic)
	defer func() { _ = producer.Close() }()

	s := newShop(t, OpenDB(t, pg.ConnStr), producer)

	order, err := s.service.PlaceOrder(ctx, orders.PlaceOrderRequest{
		Items:    []domain.CartLine{{BeverageID: 2, Quantity: 2}},
		Customer: customer("Hoàng F"),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	mailer := &capturingMailer{got: make(chan struct{}, 1)}
	handler := notification.NewOrderPlacedHandler(mailer, discard)
	consumer := messaging.NewConsumer(brokers, topic, "order-notifier-test", discard)
	defer func() { _ = consumer.Close() }()

	consumeCtx, stopConsuming := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- consumer.Consume(consumeCtx, handler.Handle) }()

	select {
	case <-mailer.got:
	case <-time.After(90 * time.Second):
		t.Fatal("timed out waiting for the confirmation email")
	}
	stopConsuming()
	<-done

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	msg := mailer.sent[0]
	if msg.To != "khach@example.com" || msg.Template != email.TemplateOrderConfirmation {
		t.Errorf("sent %+v", msg)
	}
	if len(msg.Inline) != 1 || msg.Inline[0].Name != order.Reference+".png" {
		t.Errorf("inline = %+v, want the QR code of %s", msg.Inline, order.Reference)
	}
}
