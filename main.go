package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/egannguyen/jewellery-storefront/internal/attachment"
	"github.com/egannguyen/jewellery-storefront/internal/attachment/cloudinary"
	attmem "github.com/egannguyen/jewellery-storefront/internal/attachment/memory"
	"github.com/egannguyen/jewellery-storefront/internal/availability"
	"github.com/egannguyen/jewellery-storefront/internal/config"
	healthsrv "github.com/egannguyen/jewellery-storefront/internal/delivery/grpc"
	delivery "github.com/egannguyen/jewellery-storefront/internal/delivery/http"
	"github.com/egannguyen/jewellery-storefront/internal/messaging"
	"github.com/egannguyen/jewellery-storefront/internal/messaging/inproc"
	"github.com/egannguyen/jewellery-storefront/internal/messaging/kafka"
	"github.com/egannguyen/jewellery-storefront/internal/payment"
	"github.com/egannguyen/jewellery-storefront/internal/payment/hosted"
	"github.com/egannguyen/jewellery-storefront/internal/pricing"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
	"github.com/egannguyen/jewellery-storefront/internal/repository/memory"
	"github.com/egannguyen/jewellery-storefront/internal/repository/postgres"
	"github.com/egannguyen/jewellery-storefront/internal/service"
	"github.com/egannguyen/jewellery-storefront/internal/storage"
	storemem "github.com/egannguyen/jewellery-storefront/internal/storage/memory"
	"github.com/egannguyen/jewellery-storefront/internal/storage/redis"
)

const cartLockTTL = 10 * time.Second

type broker interface {
	messaging.Publisher
	messaging.Subscriber
	Close() error
}

// adapters are the infrastructure the services run on.
type adapters struct {
	products    repository.ProductRepository
	inventory   repository.InventoryRepository
	orders      repository.OrderRepository
	inquiries   repository.InquiryRepository
	events      repository.EventStore
	store       storage.Store
	locker      storage.Locker
	broker      broker
	attachments attachment.Store
	gateway     payment.Gateway
	closers     []func() error
}

func (a *adapters) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Error("Failed to close adapter", "err", err)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var infra *adapters
	if cfg.DevMode {
		slog.Warn("DEV_MODE: using in-memory adapters")
		infra = devAdapters()
	} else {
		infra, err = connectAdapters(ctx, cfg)
		if err != nil {
			slog.Error("Failed to connect adapters", "err", err)
			os.Exit(1)
		}
	}
	defer infra.close()

	if err := seedProducts(ctx, infra.products); err != nil {
		slog.Error("Failed to seed catalog", "err", err)
		os.Exit(1)
	}

	// --- Services ---
	resolver := pricing.NewResolver(pricing.WithMaxPerAdd(cfg.MaxQtyPerAdd))
	gate := availability.NewGate(infra.inventory, infra.products)

	carts := service.NewCartService(infra.products, resolver, gate, infra.store, infra.locker, cfg.CartTTL)
	inventory := service.NewInventoryService(infra.events, infra.inventory, infra.products)
	orders := service.NewOrderService(infra.orders, infra.events, infra.broker, inventory)

	handler := delivery.NewHandler(delivery.Services{
		Catalog:   service.NewCatalogService(infra.products),
		Carts:     carts,
		Shopper:   service.NewShopperService(infra.products, infra.store, infra.locker, cfg.CartTTL),
		Checkout:  service.NewCheckoutService(carts, infra.products, resolver, gate, infra.gateway, orders, cfg.Currency),
		Orders:    orders,
		Inventory: inventory,
		Inquiries: service.NewInquiryService(infra.inquiries, infra.attachments, infra.broker),
		Gate:      gate,
	}, delivery.Options{
		AdminToken:    cfg.AdminToken,
		PublicBaseURL: cfg.PublicBaseURL,
		Currency:      cfg.Currency,
		SessionTTL:    cfg.CartTTL,
		SecureCookies: !cfg.DevMode,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           delivery.EnableCORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start everything ---
	startConsumers(ctx, infra.broker, orders)
	slog.Info("🔄 Consumers started")

	health := healthsrv.NewHealthServer()
	go func() {
		if err := health.Serve(ctx, cfg.GRPCAddr); err != nil {
			slog.Error("Health server error", "err", err)
		}
	}()

	go func() {
		slog.Info("🚀 HTTP server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()
	health.SetServing(true)

	<-ctx.Done()
	slog.Info("Shutting down...")
	health.SetServing(false)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "err", err)
	}
}

func devAdapters() *adapters {
	bus := inproc.NewBroker(slog.Default())
	return &adapters{
		products:    memory.NewProductRepository(),
		inventory:   memory.NewInventoryRepository(),
		orders:      memory.NewOrderRepository(),
		inquiries:   memory.NewInquiryRepository(),
		events:      memory.NewEventStore(),
		store:       storemem.NewStore(),
		locker:      storemem.NewLocker(),
		broker:      bus,
		attachments: attmem.NewStore("http://localhost:8080/uploads"),
		gateway:     &payment.FakeGateway{},
		closers:     []func() error{bus.Close},
	}
}

func connectAdapters(ctx context.Context, cfg *config.Config) (*adapters, error) {
	a := &adapters{}
	fail := func(err error) (*adapters, error) {
		a.close()
		return nil, err
	}

	// --- Database ---
	db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fail(fmt.Errorf("failed to init database: %w", err))
	}
	a.closers = append(a.closers, db.Close)
	a.products = postgres.NewProductRepository(db)
	a.inventory = postgres.NewInventoryRepository(db)
	a.orders = postgres.NewOrderRepository(db)
	a.inquiries = postgres.NewInquiryRepository(db)
	a.events = postgres.NewEventStore(db)

	// --- Redis ---
	rdb, err := redis.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		return fail(fmt.Errorf("failed to connect to redis: %w", err))
	}
	a.closers = append(a.closers, rdb.Close)
	a.store = redis.NewStore(rdb)
	a.locker = redis.NewLocker(rdb, cartLockTTL)

	// --- Kafka ---
	kb := kafka.NewKafkaBroker(cfg.KafkaBrokers)
	a.closers = append(a.closers, kb.Close)
	a.broker = kb

	// --- Attachments ---
	if cfg.CloudinaryURL != "" {
		a.attachments, err = cloudinary.NewStore(cfg.CloudinaryURL)
		if err != nil {
			return fail(fmt.Errorf("failed to configure cloudinary: %w", err))
		}
	} else {
		slog.Warn("CLOUDINARY_URL not set, inquiry attachments are kept in memory")
		a.attachments = attmem.NewStore(cfg.PublicBaseURL + "/uploads")
	}

	// --- Payments ---
	gw, err := hosted.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
	if err != nil {
		return fail(fmt.Errorf("failed to configure payment gateway: %w", err))
	}
	a.gateway = gw

	slog.Info("Adapters connected", "kafka", cfg.KafkaBrokers, "redis", cfg.RedisAddr)
	return a, nil
}
