package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mcollection/storefront/internal/admin"
	"github.com/mcollection/storefront/internal/auth"
	"github.com/mcollection/storefront/internal/cache"
	"github.com/mcollection/storefront/internal/cart"
	"github.com/mcollection/storefront/internal/catalog"
	"github.com/mcollection/storefront/internal/checkout"
	"github.com/mcollection/storefront/internal/config"
	"github.com/mcollection/storefront/internal/coupon"
	"github.com/mcollection/storefront/internal/messaging"
	"github.com/mcollection/storefront/internal/orders"
	"github.com/mcollection/storefront/internal/review"
	"github.com/mcollection/storefront/internal/telemetry"
	"github.com/mcollection/storefront/internal/wishlist"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var cfg config.Server
	if err := config.Load(&cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()

	var producer *messaging.Producer
	var publisher checkout.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer = messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	productRepo := catalog.NewProductRepository(db)
	catalogService := catalog.NewService(productRepo, cache.NewRedisCache(redisClient), logger)
	catalogHandler := catalog.NewHandler(catalogService, logger)

	cartRepo := cart.NewCartRepository(db)
	couponRepo := coupon.NewCouponRepository(db)
	couponService := coupon.NewService(couponRepo, logger)
	couponHandler := coupon.NewHandler(couponService, logger)

	cartHandler := cart.NewHandler(cartRepo, couponService, logger)

	orderRepo := orders.NewOrderRepository(db)
	orderHandler := orders.NewHandler(orderRepo, logger)

	checkoutService := checkout.NewService(cartRepo, productRepo, couponService, orderRepo, publisher, logger)
	paymentSessions := checkout.NewRedisSessionStore(redisClient)
	checkoutHandler := checkout.NewHandler(checkoutService, paymentSessions, logger)

	reviewHandler := review.NewHandler(review.NewReviewRepository(db), logger)
	wishlistHandler := wishlist.NewHandler(wishlist.NewWishlistRepository(db), logger)
	adminHandler := admin.NewHandler(admin.NewAdminRepository(db), logger)

	mw := auth.NewMiddleware(auth.NewRedisSessionStore(redisClient), logger)

	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}

	// Catalog, public. Identity is attached when a token is present so
	// browsing stays available to guests.
	route("GET /products", mw.WithIdentity(catalogHandler.HandleList))
	route("GET /products/featured", mw.WithIdentity(catalogHandler.HandleFeatured))
	route("GET /products/search", mw.WithIdentity(catalogHandler.HandleSearch))
	route("GET /products/suggestions", mw.WithIdentity(catalogHandler.HandleSuggestions))
	route("GET /products/category/{category}", mw.WithIdentity(catalogHandler.HandleListByCategory))
	route("GET /products/{id}", mw.WithIdentity(catalogHandler.HandleGet))

	// Catalog, admin.
	route("POST /products", mw.RequireAdmin(catalogHandler.HandleCreate))
	route("PUT /products/{id}", mw.RequireAdmin(catalogHandler.HandleUpdate))
	route("DELETE /products/{id}", mw.RequireAdmin(catalogHandler.HandleDelete))
	route("PATCH /products/{id}/featured", mw.RequireAdmin(catalogHandler.HandleToggleFeatured))

	// Reviews.
	route("GET /products/{productId}/reviews", mw.WithIdentity(reviewHandler.HandleList))
	route("POST /products/{productId}/reviews", mw.RequireUser(reviewHandler.HandleAdd))

	// Cart.
	route("GET /cart", mw.RequireUser(cartHandler.HandleGet))
	route("POST /cart", mw.RequireUser(cartHandler.HandleAdd))
	route("DELETE /cart", mw.RequireUser(cartHandler.HandleClear))
	route("PUT /cart/{productId}", mw.RequireUser(cartHandler.HandleUpdateQuantity))
	route("DELETE /cart/{productId}", mw.RequireUser(cartHandler.HandleRemove))

	// Coupons.
	route("GET /coupons", mw.RequireUser(couponHandler.HandleGet))
	route("POST /coupons/validate/{code}", mw.RequireUser(couponHandler.HandleValidate))

	// Checkout.
	route("POST /checkout", mw.RequireUser(checkoutHandler.HandlePlaceOrder))
	route("POST /checkout/session", mw.RequireUser(checkoutHandler.HandleCreateSession))
	route("GET /checkout/session/{sessionId}", mw.RequireUser(checkoutHandler.HandleSessionStatus))

	// Orders.
	route("GET /orders", mw.RequireUser(orderHandler.HandleListMine))
	route("GET /orders/{id}", mw.RequireUser(orderHandler.HandleGet))

	// Wishlist.
	route("GET /wishlist", mw.RequireUser(wishlistHandler.HandleList))
	route("POST /wishlist", mw.RequireUser(wishlistHandler.HandleAdd))
	route("DELETE /wishlist/{productId}", mw.RequireUser(wishlistHandler.HandleRemove))

	// Admin.
	route("GET /admin/stats", mw.RequireAdmin(adminHandler.HandleStats))
	route("GET /admin/users", mw.RequireAdmin(adminHandler.HandleListUsers))
	route("PATCH /admin/users/{id}/role", mw.RequireAdmin(adminHandler.HandleUpdateUserRole))
	route("DELETE /admin/users/{id}", mw.RequireAdmin(adminHandler.HandleDeleteUser))
	route("GET /admin/orders", mw.RequireAdmin(orderHandler.HandleListAll))
	route("PATCH /admin/orders/{id}/status", mw.RequireAdmin(orderHandler.HandleUpdateStatus))
	route("DELETE /admin/orders/{id}", mw.RequireAdmin(orderHandler.HandleDelete))

	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "storefront",
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
		logger.Info("starting storefront server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
