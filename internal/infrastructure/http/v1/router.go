// Package v1 provides HTTP API version 1.
package v1

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"procura/internal/core/numerator"
	"procura/internal/core/security"
	"procura/internal/domain/audit"
	"procura/internal/domain/auth"
	"procura/internal/domain/catalogs/customer"
	"procura/internal/domain/catalogs/product"
	"procura/internal/domain/catalogs/supplier"
	"procura/internal/domain/catalogs/unit"
	"procura/internal/domain/confirmation"
	"procura/internal/domain/dashboard"
	"procura/internal/domain/distribution"
	"procura/internal/domain/documents/customer_order"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/notification"
	"procura/internal/domain/planning"
	"procura/internal/domain/registers/commitment"
	"procura/internal/domain/reports"
	"procura/internal/infrastructure/http/v1/handlers"
	"procura/internal/infrastructure/http/v1/middleware"
	"procura/internal/infrastructure/storage/postgres"
	"procura/internal/infrastructure/storage/postgres/catalog_repo"
	"procura/internal/infrastructure/storage/postgres/document_repo"
	"procura/internal/infrastructure/storage/postgres/notification_repo"
	"procura/internal/infrastructure/storage/postgres/planning_repo"
	"procura/internal/infrastructure/storage/postgres/register_repo"
	"procura/internal/infrastructure/storage/postgres/report_repo"
	"procura/internal/metadata"
	"procura/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager runs queries and transactions on the pool
	TxManager *postgres.TxManager

	// Redis client for the dashboard cache; nil disables caching
	Redis *redis.Client

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// Numerator for document number generation
	Numerator numerator.Generator

	// Audit records entity changes and serves the history endpoint
	Audit *postgres.AuditService

	// Flags gates optional behavior such as auto redistribution
	Flags security.FeatureFlagProvider

	// DeliveryPolicy validates supplier-confirmed delivery dates.
	// Defaults to the strict policy.
	DeliveryPolicy security.DeliveryPolicy

	// DashboardTTL bounds dashboard cache staleness (default 1 minute)
	DashboardTTL time.Duration

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// MetadataRegistry stores entity definitions
	MetadataRegistry *metadata.Registry
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		// Protected endpoints
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator)) // 1. Validate JWT
		protected.Use(middleware.UserContext())          // 2. Add UserID to context for domain layer

		// Apply idempotency middleware for mutating operations
		if cfg.IdempotencyEnabled {
			store := postgres.NewIdempotencyStore(cfg.TxManager, 10*time.Minute)
			protected.Use(middleware.Idempotency(store))
		}

		// Register entity routes
		registerCatalogRoutes(protected, cfg)
		if err := registerWorkflowRoutes(protected, cfg); err != nil {
			return nil, err
		}
		registerReportRoutes(protected, cfg)
		registerSystemRoutes(protected, cfg)
	}

	return router, nil
}

// auditTrail adapts the optional audit service to the domain contract.
func auditTrail(cfg RouterConfig) audit.Trail {
	if cfg.Audit != nil {
		return cfg.Audit
	}
	return audit.NopTrail{}
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required)
	publicAuth := rg.Group("/auth")

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	// --- UNITS ---
	{
		repo := catalog_repo.NewUnitRepo(cfg.TxManager)
		service := unit.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewUnitHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/units"), handler, "catalog:unit")
	}

	// --- PRODUCTS ---
	{
		repo := catalog_repo.NewProductRepo(cfg.TxManager)
		service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewProductHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/products"), handler, "catalog:product")
	}

	// --- CUSTOMERS ---
	{
		repo := catalog_repo.NewCustomerRepo(cfg.TxManager)
		service := customer.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewCustomerHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/customers"), handler, "catalog:customer")
	}

	// --- SUPPLIERS ---
	{
		repo := catalog_repo.NewSupplierRepo(cfg.TxManager)
		caps := catalog_repo.NewCapabilityRepo(cfg.TxManager)
		service := supplier.NewService(repo, caps, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewSupplierHandler(baseHandler, service)

		suppliers := rg.Group("/suppliers")
		RegisterCatalogRoutes(suppliers, handler, "catalog:supplier")

		// Capability matrix is a supplier sub-resource keyed by product
		suppliers.GET("/:id/capabilities", middleware.RequirePermission("catalog:supplier:read"), handler.ListCapabilities)
		suppliers.PUT("/:id/capabilities", middleware.RequirePermission("catalog:supplier:update"), handler.UpsertCapability)
		suppliers.POST("/:id/capabilities", middleware.RequirePermission("catalog:supplier:update"), handler.UpsertCapability)
		suppliers.DELETE("/:id/capabilities/:productId", middleware.RequirePermission("catalog:supplier:update"), handler.DeleteCapability)
	}
}

// registerWorkflowRoutes registers the order-to-confirmation workflow:
// customer orders, distribution planning, purchase orders and the
// supplier portal. These share one planning service because rejections
// and cancellations release commitments across all of them.
func registerWorkflowRoutes(rg *gin.RouterGroup, cfg RouterConfig) error {
	baseHandler := handlers.NewBaseHandler()

	trail := auditTrail(cfg)
	events := postgres.NewOutboxPublisher(cfg.TxManager)

	orderRepo := document_repo.NewCustomerOrderRepo(cfg.TxManager)
	poRepo := document_repo.NewPurchaseOrderRepo(cfg.TxManager)

	orderService := customer_order.NewService(orderRepo, cfg.Numerator, cfg.TxManager, trail, events)
	poService := purchase_order.NewService(poRepo, cfg.Numerator, cfg.TxManager, trail, events)

	engine, err := distribution.NewEngine()
	if err != nil {
		return fmt.Errorf("create distribution engine: %w", err)
	}

	planner := planning.NewService(planning.Config{
		Orders:               orderRepo,
		PurchaseOrders:       poRepo,
		PurchaseOrderService: poService,
		Plans:                planning_repo.NewPlanRepo(cfg.TxManager),
		Capabilities:         catalog_repo.NewCapabilityRepo(cfg.TxManager),
		Suppliers:            catalog_repo.NewSupplierRepo(cfg.TxManager),
		Register:             commitment.NewService(register_repo.NewCommitmentRepo(cfg.TxManager)),
		Engine:               engine,
		TxManager:            cfg.TxManager,
		Trail:                trail,
		Events:               events,
		Flags:                cfg.Flags,
	})

	policy := cfg.DeliveryPolicy
	if policy == nil {
		policy = security.StrictDeliveryPolicy{}
	}
	confirmService := confirmation.NewService(poRepo, policy, planner, cfg.TxManager, trail, events)

	orderHandler := handlers.NewCustomerOrderHandler(baseHandler, orderService, poService, planner)
	poHandler := handlers.NewPurchaseOrderHandler(baseHandler, poService, planner)
	planningHandler := handlers.NewPlanningHandler(baseHandler, planner)
	portalHandler := handlers.NewSupplierPortalHandler(baseHandler, confirmService)

	// --- CUSTOMER ORDERS + DISTRIBUTION ---
	orders := rg.Group("/customer-orders")
	orderHandler.RegisterRoutes(orders)
	orders.POST("/:id/distribution/preview", middleware.RequirePermission("planning:execute"), planningHandler.Preview)
	orders.POST("/:id/distribution", middleware.RequirePermission("planning:execute"), planningHandler.Execute)
	orders.POST("/:id/send-all", middleware.RequirePermission("planning:execute"), planningHandler.SendAll)

	// --- PURCHASE ORDERS ---
	poHandler.RegisterRoutes(rg.Group("/purchase-orders"))

	// --- DISTRIBUTION PLANS ---
	plans := rg.Group("/distribution-plans")
	plans.GET("", middleware.RequirePermission("planning:read"), planningHandler.ListPlans)
	plans.GET("/:id", middleware.RequirePermission("planning:read"), planningHandler.GetPlan)

	// --- SUPPLIER PORTAL ---
	// The confirmation service additionally forces supplier-bound users
	// onto their own purchase orders.
	portal := rg.Group("/supplier-portal")
	portal.Use(middleware.RequireRole("supplier", "admin"))
	portalHandler.RegisterRoutes(portal)

	return nil
}

// registerReportRoutes registers report and dashboard endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	reportService := reports.NewService(report_repo.NewReportRepo(cfg.TxManager))
	reportHandler := handlers.NewReportsHandler(baseHandler, reportService)
	reportHandler.RegisterRoutes(rg.Group("/reports"))

	ttl := cfg.DashboardTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	cache := dashboard.NewCache(cfg.Redis, ttl)
	dashService := dashboard.NewService(report_repo.NewDashboardRepo(cfg.TxManager), cache)
	dashHandler := handlers.NewDashboardHandler(baseHandler, dashService)
	dashHandler.RegisterRoutes(rg.Group("/dashboard"))
}

// registerSystemRoutes registers audit history, the notification
// delivery log and entity metadata.
func registerSystemRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	if cfg.Audit != nil {
		auditHandler := handlers.NewAuditHandler(baseHandler, cfg.Audit)
		rg.GET("/audit/:entityType/:id", middleware.RequirePermission("audit:read"), auditHandler.GetEntityHistory)
	}

	notifService := notification.NewService(notification.Config{
		Repository: notification_repo.NewNotificationRepo(cfg.TxManager),
	})
	notifHandler := handlers.NewNotificationsHandler(baseHandler, notifService)
	rg.GET("/notifications", middleware.RequirePermission("notification:read"), notifHandler.List)

	if cfg.MetadataRegistry != nil {
		metaHandler := handlers.NewMetadataHandler(cfg.MetadataRegistry)
		meta := rg.Group("/metadata")
		{
			meta.GET("", metaHandler.ListEntities)
			meta.GET("/:entity", metaHandler.GetEntity)
		}
	}
}
