//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/mcollection/storefront/internal/auth"
	"github.com/mcollection/storefront/internal/cache"
	"github.com/mcollection/storefront/internal/cart"
	"github.com/mcollection/storefront/internal/catalog"
	"github.com/mcollection/storefront/internal/checkout"
	"github.com/mcollection/storefront/internal/coupon"
	"github.com/mcollection/storefront/internal/domain"
	"github.com/mcollection/storefront/internal/messaging"
	"github.com/mcollection/storefront/internal/orders"
	"github.com/mcollection/storefront/internal/review"
	"github.com/mcollection/storefront/internal/worker"
)

func createUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO users (id, fullname, username, email, password, role)
		VALUES ($1, $2, $3, $4, 'not-a-real-hash', 'user')
	`, id, "Test Customer", "customer-"+id[:8], email)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return id
}

func createProduct(t *testing.T, ctx context.Context, repo *catalog.ProductRepository, title string, price int64, stock int) *domain.Product {
	t.Helper()

	p := &domain.Product{
		Title:       title,
		Description: "test product",
		Category:    "laptops",
		Price:       price,
		StockCount:  stock,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("failed to create product %q: %v", title, err)
	}
	return p
}

func newCheckoutService(db *sql.DB) (*checkout.Service, *cart.CartRepository, *catalog.ProductRepository, *coupon.Service, *orders.OrderRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	productRepo := catalog.NewProductRepository(db)
	cartRepo := cart.NewCartRepository(db)
	couponService := coupon.NewService(coupon.NewCouponRepository(db), logger)
	orderRepo := orders.NewOrderRepository(db)

	svc := checkout.NewService(cartRepo, productRepo, couponService, orderRepo, nil, logger)
	return svc, cartRepo, productRepo, couponService, orderRepo
}

var testShipping = domain.ShippingDetails{
	Address:    "1 Test Street",
	City:       "Lisbon",
	Country:    "Portugal",
	PostalCode: "1000-001",
}

func TestCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	svc, cartRepo, productRepo, couponService, orderRepo := newCheckoutService(db)

	userID := createUser(t, db, "checkout@example.com")
	laptop := createProduct(t, ctx, productRepo, "Test Laptop", 10000, 10)
	mouse := createProduct(t, ctx, productRepo, "Test Mouse", 2500, 5)

	if err := cartRepo.AddItem(ctx, userID, laptop.ID, 2); err != nil {
		t.Fatalf("failed to add laptop: %v", err)
	}
	if err := cartRepo.AddItem(ctx, userID, mouse.ID, 2); err != nil {
		t.Fatalf("failed to add mouse: %v", err)
	}

	order, err := svc.PlaceOrder(ctx, userID, checkout.PlaceOrderInput{
		Shipping:      testShipping,
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if order.Total != 25000 {
		t.Fatalf("expected total 25000, got %d", order.Total)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusPending, order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order lines, got %d", len(order.Items))
	}

	stored, err := orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if stored.Total != order.Total {
		t.Fatalf("stored total mismatch: expected %d, got %d", order.Total, stored.Total)
	}

	afterLaptop, err := productRepo.GetByID(ctx, laptop.ID)
	if err != nil {
		t.Fatalf("failed to fetch laptop: %v", err)
	}
	if afterLaptop.StockCount != 8 {
		t.Fatalf("expected laptop stock 8, got %d", afterLaptop.StockCount)
	}
	afterMouse, err := productRepo.GetByID(ctx, mouse.ID)
	if err != nil {
		t.Fatalf("failed to fetch mouse: %v", err)
	}
	if afterMouse.StockCount != 3 {
		t.Fatalf("expected mouse stock 3, got %d", afterMouse.StockCount)
	}

	items, err := cartRepo.Items(ctx, userID)
	if err != nil {
		t.Fatalf("failed to load cart: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty cart after checkout, got %d items", len(items))
	}

	// The 25000 total crossed the reward threshold.
	issued, err := couponService.ActiveForUser(ctx, userID)
	if err != nil {
		t.Fatalf("failed to load issued coupon: %v", err)
	}
	if issued == nil {
		t.Fatal("expected a reward coupon after a qualifying order")
	}
	if issued.DiscountPercentage != 10 {
		t.Fatalf("expected 10%% reward coupon, got %d%%", issued.DiscountPercentage)
	}
	if !strings.HasPrefix(issued.Code, "Mcollection") {
		t.Fatalf("unexpected coupon code format: %s", issued.Code)
	}
}

func TestCheckoutWithCoupon(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	svc, cartRepo, productRepo, _, _ := newCheckoutService(db)
	couponRepo := coupon.NewCouponRepository(db)

	userID := createUser(t, db, "coupon@example.com")
	laptop := createProduct(t, ctx, productRepo, "Coupon Laptop", 12500, 10)

	if err := cartRepo.AddItem(ctx, userID, laptop.ID, 2); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	seeded := &domain.Coupon{
		Code:               "Mcollectiontest01",
		DiscountPercentage: 10,
		ExpirationDate:     time.Now().UTC().Add(24 * time.Hour),
		IsActive:           true,
		UserID:             userID,
	}
	if err := couponRepo.Create(ctx, seeded); err != nil {
		t.Fatalf("failed to seed coupon: %v", err)
	}

	order, err := svc.PlaceOrder(ctx, userID, checkout.PlaceOrderInput{
		Shipping:      testShipping,
		PaymentMethod: domain.PaymentCashOnDelivery,
		CouponCode:    seeded.Code,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// Subtotal 25000, 10% off.
	if order.Total != 22500 {
		t.Fatalf("expected discounted total 22500, got %d", order.Total)
	}

	// The coupon is single-use; it must be gone after checkout.
	if _, err := couponRepo.FindActive(ctx, seeded.Code, userID); err != coupon.ErrNotFound {
		t.Fatalf("expected consumed coupon to be gone, got err=%v", err)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	svc, cartRepo, productRepo, _, orderRepo := newCheckoutService(db)

	userID := createUser(t, db, "stock@example.com")
	scarce := createProduct(t, ctx, productRepo, "Scarce Item", 5000, 1)

	if err := cartRepo.AddItem(ctx, userID, scarce.ID, 3); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	// The order still goes through; the decrement skips rather than
	// driving the count negative.
	order, err := svc.PlaceOrder(ctx, userID, checkout.PlaceOrderInput{
		Shipping:      testShipping,
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Total != 15000 {
		t.Fatalf("expected total 15000, got %d", order.Total)
	}

	if _, err := orderRepo.GetByID(ctx, order.ID); err != nil {
		t.Fatalf("expected order to exist: %v", err)
	}

	after, err := productRepo.GetByID(ctx, scarce.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if after.StockCount != 1 {
		t.Fatalf("expected stock unchanged at 1, got %d", after.StockCount)
	}
}

func TestCartQuantityAccumulation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	productRepo := catalog.NewProductRepository(db)
	cartRepo := cart.NewCartRepository(db)
	handler := cart.NewHandler(cartRepo, coupon.NewService(coupon.NewCouponRepository(db), logger), logger)

	userID := createUser(t, db, "cart@example.com")
	product := createProduct(t, ctx, productRepo, "Cart Widget", 1999, 10)

	identity := auth.Identity{UserID: userID, Role: domain.RoleUser}

	addOnce := func() *httptest.ResponseRecorder {
		body := `{"product_id": "` + product.ID + `"}`
		req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(auth.WithContext(req.Context(), identity))
		rec := httptest.NewRecorder()
		handler.HandleAdd(rec, req)
		return rec
	}

	// Adding the same product twice accumulates quantity on one line.
	addOnce()
	rec := addOnce()

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Items  []domain.CartItem `json:"items"`
		Totals domain.CartTotals `json:"totals"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(resp.Items))
	}
	if resp.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", resp.Items[0].Quantity)
	}
	if resp.Totals.Subtotal != 3998 {
		t.Fatalf("expected subtotal 3998, got %d", resp.Totals.Subtotal)
	}

	// An unknown product is rejected without touching the cart.
	body := `{"product_id": "` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/cart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithContext(req.Context(), identity))
	rec = httptest.NewRecorder()
	handler.HandleAdd(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func TestReviewAggregation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	productRepo := catalog.NewProductRepository(db)
	reviewRepo := review.NewReviewRepository(db)

	product := createProduct(t, ctx, productRepo, "Reviewed Item", 9999, 5)

	for _, rating := range []int{4, 5, 5} {
		userID := createUser(t, db, uuid.New().String()+"@example.com")
		rev := &domain.Review{
			UserID:    userID,
			ProductID: product.ID,
			Rating:    rating,
			Comment:   "solid product",
		}
		if err := reviewRepo.Create(ctx, rev); err != nil {
			t.Fatalf("failed to create review: %v", err)
		}
	}

	summary, err := reviewRepo.Summary(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to load summary: %v", err)
	}

	if summary.Count != 3 {
		t.Fatalf("expected 3 reviews, got %d", summary.Count)
	}
	if summary.Average != 4.67 {
		t.Fatalf("expected average 4.67, got %v", summary.Average)
	}

	reviews, err := reviewRepo.ListForProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to list reviews: %v", err)
	}
	if len(reviews) != 3 {
		t.Fatalf("expected 3 reviews listed, got %d", len(reviews))
	}
	if reviews[0].Username == "" {
		t.Fatal("expected reviewer username to be joined in")
	}

	// A product nobody reviewed reports a zero summary, not NULL or NaN.
	bare := createProduct(t, ctx, productRepo, "Unreviewed Item", 4999, 5)
	empty, err := reviewRepo.Summary(ctx, bare.ID)
	if err != nil {
		t.Fatalf("failed to load empty summary: %v", err)
	}
	if empty.Count != 0 || empty.Average != 0 {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestOneActiveCouponPerUser(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	couponRepo := coupon.NewCouponRepository(db)
	userID := createUser(t, db, "ledger@example.com")

	first := &domain.Coupon{
		Code:               "Mcollectionfirst1",
		DiscountPercentage: 10,
		ExpirationDate:     time.Now().UTC().Add(24 * time.Hour),
		IsActive:           true,
		UserID:             userID,
	}
	if err := couponRepo.Create(ctx, first); err != nil {
		t.Fatalf("failed to create first coupon: %v", err)
	}

	second := &domain.Coupon{
		Code:               "Mcollectionsecond",
		DiscountPercentage: 10,
		ExpirationDate:     time.Now().UTC().Add(24 * time.Hour),
		IsActive:           true,
		UserID:             userID,
	}
	if err := couponRepo.Create(ctx, second); err != coupon.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate for second active coupon, got %v", err)
	}

	// Deactivating the first opens the slot again.
	if err := couponRepo.Deactivate(ctx, first.ID); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}
	if err := couponRepo.Create(ctx, second); err != nil {
		t.Fatalf("expected second coupon after deactivation, got %v", err)
	}
}

func TestSessionStoreAndFeaturedCache(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	redisClient, redisCleanup := SetupRedis(ctx, t)
	defer redisCleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("session round trip", func(t *testing.T) {
		store := auth.NewRedisSessionStore(redisClient)

		identity := auth.Identity{UserID: uuid.New().String(), Role: domain.RoleAdmin}
		token, err := store.Create(ctx, identity, time.Hour)
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		got, err := store.Get(ctx, token)
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if got != identity {
			t.Fatalf("identity mismatch: expected %+v, got %+v", identity, got)
		}

		if err := store.Delete(ctx, token); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := store.Get(ctx, token); err != auth.ErrSessionNotFound {
			t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
		}
	})

	t.Run("featured products cached", func(t *testing.T) {
		productRepo := catalog.NewProductRepository(db)
		svc := catalog.NewService(productRepo, cache.NewRedisCache(redisClient), logger)

		p := createProduct(t, ctx, productRepo, "Featured Widget", 4999, 7)
		if _, err := svc.ToggleFeatured(ctx, p.ID); err != nil {
			t.Fatalf("failed to feature product: %v", err)
		}

		first, err := svc.Featured(ctx)
		if err != nil {
			t.Fatalf("failed to load featured: %v", err)
		}
		if len(first) != 1 || first[0].ID != p.ID {
			t.Fatalf("unexpected featured list: %+v", first)
		}

		// Second read is served from the cache.
		second, err := svc.Featured(ctx)
		if err != nil {
			t.Fatalf("failed to load featured from cache: %v", err)
		}
		if len(second) != 1 || second[0].ID != p.ID {
			t.Fatalf("unexpected cached featured list: %+v", second)
		}
	})
}

func TestPaymentSessionFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	redisClient, redisCleanup := SetupRedis(ctx, t)
	defer redisCleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, cartRepo, productRepo, _, orderRepo := newCheckoutService(db)
	handler := checkout.NewHandler(svc, checkout.NewRedisSessionStore(redisClient), logger)

	userID := createUser(t, db, "payment@example.com")
	product := createProduct(t, ctx, productRepo, "Card Purchase", 30000, 4)
	if err := cartRepo.AddItem(ctx, userID, product.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	identity := auth.Identity{UserID: userID, Role: domain.RoleUser}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout/session", handler.HandleCreateSession)
	mux.HandleFunc("GET /checkout/session/{sessionId}", handler.HandleSessionStatus)

	body := `{"shipping_address": "1 Test Street", "city": "Lisbon", "country": "Portugal", "postal_code": "1000-001"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/session", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithContext(req.Context(), identity))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var created struct {
		SessionID string `json:"session_id"`
		Total     int64  `json:"total_amount"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	if created.Total != 30000 {
		t.Fatalf("expected session total 30000, got %d", created.Total)
	}

	poll := func() (bool, string) {
		req := httptest.NewRequest(http.MethodGet, "/checkout/session/"+created.SessionID, nil)
		req = req.WithContext(auth.WithContext(req.Context(), identity))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}

		var status struct {
			Paid    bool   `json:"paid"`
			OrderID string `json:"order_id"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode status response: %v", err)
		}
		return status.Paid, status.OrderID
	}

	paid, orderID := poll()
	if !paid || orderID == "" {
		t.Fatalf("expected settled session with an order, got paid=%v order_id=%q", paid, orderID)
	}

	order, err := orderRepo.GetByID(ctx, orderID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if order.PaymentMethod != domain.PaymentCard {
		t.Fatalf("expected payment method %s, got %s", domain.PaymentCard, order.PaymentMethod)
	}
	if order.SessionID != created.SessionID {
		t.Fatalf("expected order session id %s, got %s", created.SessionID, order.SessionID)
	}

	// Polling again must not place a second order.
	paidAgain, orderIDAgain := poll()
	if !paidAgain || orderIDAgain != orderID {
		t.Fatalf("expected idempotent settlement, got paid=%v order_id=%q", paidAgain, orderIDAgain)
	}

	list, err := orderRepo.ListForUser(ctx, userID)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly 1 order, got %d", len(list))
	}
}

type emailCapture struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (e *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.emails = append(e.emails, req)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"sent"}`)
}

func (e *emailCapture) getEmails() []map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]map[string]string, len(e.emails))
	copy(result, e.emails)
	return result
}

func TestOrderConfirmationWorker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, cartRepo, productRepo, _, orderRepo := newCheckoutService(db)

	userID := createUser(t, db, "worker@example.com")
	product := createProduct(t, ctx, productRepo, "Worker Item", 8000, 6)
	if err := cartRepo.AddItem(ctx, userID, product.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	order, err := svc.PlaceOrder(ctx, userID, checkout.PlaceOrderInput{
		Shipping:      testShipping,
		PaymentMethod: domain.PaymentCashOnDelivery,
	})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	emailCap := &emailCapture{}
	emailMux := http.NewServeMux()
	emailMux.HandleFunc("POST /send", emailCap.handler)
	emailServer := httptest.NewServer(emailMux)
	defer emailServer.Close()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	notificationHandler := worker.NewNotificationHandler(orderRepo, emailServer.URL, httpClient, logger)

	event := domain.OrderPlacedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Items:     order.Items,
		Total:     order.Total,
		Timestamp: order.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := notificationHandler.Handle(ctx, payload); err != nil {
		t.Fatalf("worker handler failed: %v", err)
	}

	confirmed, err := orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if confirmed.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusProcessing, confirmed.Status)
	}

	emails := emailCap.getEmails()
	if len(emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emails))
	}
	if emails[0]["to"] != "worker@example.com" {
		t.Fatalf("expected email to customer address, got %s", emails[0]["to"])
	}
	if !strings.Contains(emails[0]["subject"], order.ID) {
		t.Fatalf("expected subject to contain order ID, got: %s", emails[0]["subject"])
	}
}

func TestKafkaPublishConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
	defer func() { _ = producer.Close() }()

	event := domain.OrderPlacedEvent{
		OrderID:   uuid.New().String(),
		UserID:    uuid.New().String(),
		Total:     25000,
		Timestamp: time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderPlaced, messaging.GroupOrderWorker,
		messaging.WithStartOffset(kafkago.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, stopConsuming := context.WithCancel(ctx)
	defer stopConsuming()

	var received domain.OrderPlacedEvent
	err := consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
		if err := json.Unmarshal(payload, &received); err != nil {
			return err
		}
		stopConsuming()
		return nil
	})
	if err != nil && consumeCtx.Err() != context.Canceled {
		t.Fatalf("consumer error: %v", err)
	}

	if received.OrderID != event.OrderID {
		t.Fatalf("expected order ID %s, got %s", event.OrderID, received.OrderID)
	}
	if received.Total != event.Total {
		t.Fatalf("expected total %d, got %d", event.Total, received.Total)
	}
}
