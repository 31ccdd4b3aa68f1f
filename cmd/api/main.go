package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/seoulmarket/api/internal/domain"
	"github.com/seoulmarket/api/internal/handlers"
	"github.com/seoulmarket/api/internal/platform/auth"
	"github.com/seoulmarket/api/internal/platform/config"
	pfirestore "github.com/seoulmarket/api/internal/platform/firestore"
	"github.com/seoulmarket/api/internal/platform/jobs"
	"github.com/seoulmarket/api/internal/platform/observability"
	firestoreRepo "github.com/seoulmarket/api/internal/repositories/firestore"
	"github.com/seoulmarket/api/internal/services"
)

// tokenIssuerAdapter bridges the JWT token manager into the user service.
type tokenIssuerAdapter struct {
	manager *auth.TokenManager
}

func (a tokenIssuerAdapter) IssueToken(userID string, role domain.Role, email string) (string, error) {
	return a.manager.Issue(auth.Identity{UserID: userID, Role: role, Email: email})
}

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	tokenManager, err := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal("failed to initialise token manager", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(tokenManager)

	var orderEvents services.OrderEventPublisher
	var refundEvents services.RefundEventPublisher
	var pubsubClient *pubsub.Client
	if cfg.PubSub.OrderTopic != "" && cfg.PubSub.RefundTopic != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err := jobs.NewPubSubEventPublisher(
			pubsubClient.Topic(cfg.PubSub.OrderTopic),
			pubsubClient.Topic(cfg.PubSub.RefundTopic),
		)
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
		orderEvents = publisher
		refundEvents = publisher
	} else {
		logger.Info("pubsub topics not configured; events disabled")
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	inventoryService, err := services.NewInventoryService(services.InventoryServiceDeps{
		Products: registry.Products(),
		Logger:   logger.Named("inventory"),
	})
	if err != nil {
		logger.Fatal("failed to initialise inventory service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     registry.Orders(),
		OrderItems: registry.OrderItems(),
		Users:      registry.Users(),
		Counters:   registry.Counters(),
		Inventory:  inventoryService,
		UnitOfWork: registry,
		Events:     orderEvents,
		Logger:     logger.Named("orders"),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	refundService, err := services.NewRefundService(services.RefundServiceDeps{
		Refunds:    registry.Refunds(),
		OrderItems: registry.OrderItems(),
		Users:      registry.Users(),
		Events:     refundEvents,
		Logger:     logger.Named("refunds"),
	})
	if err != nil {
		logger.Fatal("failed to initialise refund service", zap.Error(err))
	}

	userService, err := services.NewUserService(services.UserServiceDeps{
		Users:  registry.Users(),
		Likes:  registry.Likes(),
		Tokens: tokenIssuerAdapter{manager: tokenManager},
		Logger: logger.Named("users"),
	})
	if err != nil {
		logger.Fatal("failed to initialise user service", zap.Error(err))
	}

	productService, err := services.NewProductService(services.ProductServiceDeps{
		Products:   registry.Products(),
		Categories: registry.Categories(),
		Logger:     logger.Named("products"),
	})
	if err != nil {
		logger.Fatal("failed to initialise product service", zap.Error(err))
	}

	categoryService, err := services.NewCategoryService(services.CategoryServiceDeps{
		Categories: registry.Categories(),
		Logger:     logger.Named("categories"),
	})
	if err != nil {
		logger.Fatal("failed to initialise category service", zap.Error(err))
	}

	reviewService, err := services.NewReviewService(services.ReviewServiceDeps{
		Reviews:    registry.Reviews(),
		Products:   registry.Products(),
		OrderItems: registry.OrderItems(),
		Logger:     logger.Named("reviews"),
	})
	if err != nil {
		logger.Fatal("failed to initialise review service", zap.Error(err))
	}

	likeService, err := services.NewLikeService(services.LikeServiceDeps{
		Likes:    registry.Likes(),
		Products: registry.Products(),
		Logger:   logger.Named("likes"),
	})
	if err != nil {
		logger.Fatal("failed to initialise like service", zap.Error(err))
	}

	authHandlers := handlers.NewAuthHandlers(userService)
	meHandlers := handlers.NewMeHandlers(authenticator, userService)
	productHandlers := handlers.NewProductHandlers(authenticator, productService, reviewService)
	categoryHandlers := handlers.NewCategoryHandlers(authenticator, categoryService, productService)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService)
	refundHandlers := handlers.NewRefundHandlers(authenticator, refundService)
	reviewHandlers := handlers.NewReviewHandlers(authenticator, reviewService)
	likeHandlers := handlers.NewLikeHandlers(authenticator, likeService)

	healthHandlers := handlers.NewHealthHandlers(map[string]handlers.ReadinessCheck{
		"firestore": func(ctx context.Context) error {
			_, err := firestoreProvider.Client(ctx)
			return err
		},
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(cfg.Firestore.ProjectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAuthRoutes(authHandlers.Routes),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithCategoryRoutes(categoryHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithRefundRoutes(refundHandlers.Routes),
		handlers.WithReviewRoutes(reviewHandlers.Routes),
		handlers.WithLikeRoutes(likeHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("seoulmarket api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
