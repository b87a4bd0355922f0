package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
)

// Handler serves the kitchen REST API
type Handler struct {
	commands *command.Handlers
	queries  *query.Handlers
	store    domain.Store
	limiter  *RateLimiter
	cache    *ResponseCache
	loc      *time.Location
	auth     func(http.HandlerFunc) http.HandlerFunc
}

// NewHandler creates a new kitchen HTTP handler
func NewHandler(commands *command.Handlers, queries *query.Handlers, store domain.Store, limiter *RateLimiter, cache *ResponseCache, policy domain.Policy) *Handler {
	loc := policy.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		commands: commands,
		queries:  queries,
		store:    store,
		limiter:  limiter,
		cache:    cache,
		loc:      loc,
		auth:     AuthMiddleware(commands.VerifyToken),
	}
}

var (
	anyRole     []domain.Role
	adminOnly   = []domain.Role{domain.RoleAdmin}
	storeStaff  = []domain.Role{domain.RoleStoreStaff}
	managers    = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	kitchenQC   = []domain.Role{domain.RoleAdmin, domain.RoleKitchenStaff}
	rawQC       = []domain.Role{domain.RoleAdmin, domain.RoleKitchenStaff, domain.RoleKitchenSupply}
	planners    = []domain.Role{domain.RoleAdmin, domain.RoleKitchenSupply, domain.RoleManager}
	backOffice  = []domain.Role{domain.RoleAdmin, domain.RoleKitchenStaff, domain.RoleKitchenSupply, domain.RoleManager}
	storeOrBack = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleStoreStaff}
)

// public registers a route open to anonymous callers.
func (h *Handler) public(router *mux.Router, method, path string, fn http.HandlerFunc) {
	if method != http.MethodGet {
		fn = h.limiter.Middleware(fn)
	}
	router.HandleFunc(path, fn).Methods(method)
}

// secured registers a route behind authentication and the role gate.
func (h *Handler) secured(router *mux.Router, method, path string, fn http.HandlerFunc, roles []domain.Role) {
	if method != http.MethodGet {
		fn = h.limiter.Middleware(fn)
	}
	router.HandleFunc(path, h.auth(RoleMiddleware(roles...)(fn))).Methods(method)
}

// RegisterRoutes mounts every API route on router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Auth
	h.public(router, http.MethodPost, "/api/auth/login", h.Login)
	h.public(router, http.MethodPost, "/api/auth/verify", h.VerifyToken)
	h.secured(router, http.MethodPost, "/api/auth/register", h.Register, adminOnly)
	h.public(router, http.MethodGet, "/api/statuses", h.cache.Middleware(h.Statuses))

	// Orders
	h.secured(router, http.MethodPost, "/api/orders", h.CreateOrder, storeStaff)
	h.secured(router, http.MethodGet, "/api/orders/my", h.ListMyOrders, storeStaff)
	h.secured(router, http.MethodGet, "/api/orders", h.ListOrders, backOffice)
	h.secured(router, http.MethodGet, "/api/orders/{id}", h.GetOrder, anyRole)
	h.secured(router, http.MethodPatch, "/api/orders/{id}/status", h.UpdateStatus, anyRole)
	h.secured(router, http.MethodGet, "/api/orders/{id}/consumption", h.ListConsumption, backOffice)
	h.secured(router, http.MethodGet, "/api/orders/{id}/cooked-batches", h.ListCookedBatches, anyRole)
	h.secured(router, http.MethodGet, "/api/orders/{id}/disputes", h.ListOrderDisputes, anyRole)

	// Planning and raw QC
	h.secured(router, http.MethodPost, "/api/planning/run", h.RunPlanning, planners)
	h.secured(router, http.MethodGet, "/api/raw-qc/pending", h.ListPendingRawQC, rawQC)
	h.secured(router, http.MethodPost, "/api/raw-qc/{batchID}", h.RawQC, rawQC)
	h.secured(router, http.MethodGet, "/api/raw-batches", h.ListRawBatches, backOffice)
	h.secured(router, http.MethodGet, "/api/raw-batches/{id}", h.GetRawBatch, backOffice)
	h.secured(router, http.MethodGet, "/api/waste", h.ListWaste, backOffice)

	// Cooked QC and risk pool
	h.secured(router, http.MethodGet, "/api/cooked-qc/pending", h.ListPendingCookedQC, kitchenQC)
	h.secured(router, http.MethodPost, "/api/cooked-qc/{batchID}", h.CookedQC, kitchenQC)
	h.secured(router, http.MethodGet, "/api/cooked-batches/{id}", h.GetCookedBatch, backOffice)
	h.secured(router, http.MethodGet, "/api/risk-pool/search", h.SearchRiskPool, managers)
	h.secured(router, http.MethodPost, "/api/risk-pool/transfer", h.RiskPoolTransfer, managers)
	h.secured(router, http.MethodGet, "/api/risk-pool/transfers", h.ListTransfers, managers)

	// Disputes and credits
	h.secured(router, http.MethodPost, "/api/disputes", h.FileDispute, storeStaff)
	h.secured(router, http.MethodGet, "/api/disputes/my", h.ListMyDisputes, storeStaff)
	h.secured(router, http.MethodGet, "/api/disputes", h.ListDisputes, managers)
	h.secured(router, http.MethodGet, "/api/disputes/{id}", h.GetDispute, anyRole)
	h.secured(router, http.MethodPost, "/api/disputes/{id}/resolve", h.ResolveDispute, managers)
	h.secured(router, http.MethodGet, "/api/credits/my", h.ListMyCredits, storeStaff)
	h.secured(router, http.MethodGet, "/api/credits", h.ListCredits, managers)
	h.secured(router, http.MethodPost, "/api/credits/{id}/use", h.UseCredit, storeStaff)
	h.secured(router, http.MethodGet, "/api/credits/{id}/usage", h.ListCreditUsage, storeOrBack)

	// Inventory
	h.secured(router, http.MethodGet, "/api/inventory/store", h.StoreInventory, storeOrBack)
	h.secured(router, http.MethodGet, "/api/inventory/kitchen", h.KitchenInventory, backOffice)

	// Catalog
	h.public(router, http.MethodGet, "/api/products", h.cache.Middleware(h.ListProducts))
	h.public(router, http.MethodGet, "/api/products/{id}", h.cache.Middleware(h.GetProduct))
	h.secured(router, http.MethodPost, "/api/products", h.CreateProduct, managers)
	h.secured(router, http.MethodPut, "/api/products/{id}", h.UpdateProduct, managers)
	h.secured(router, http.MethodDelete, "/api/products/{id}", h.DeactivateProduct, managers)
	h.secured(router, http.MethodGet, "/api/materials", h.ListMaterials, backOffice)
	h.secured(router, http.MethodPost, "/api/materials", h.CreateMaterial, managers)
	h.secured(router, http.MethodGet, "/api/suppliers", h.ListSuppliers, backOffice)
	h.secured(router, http.MethodPost, "/api/suppliers", h.CreateSupplier, managers)
}

// RegisterHealthCheck mounts /health and /metrics
func (h *Handler) RegisterHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Code:    domain.CodeStoreUnavailable,
				Error:   "Database unavailable",
			})
			return
		}
		respondOK(w, http.StatusOK, "", "Kitchen service is healthy", nil)
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())
}

// NewRouter builds the router with the shared middleware chain
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(RecoveryMiddleware, RequestIDMiddleware, LoggingMiddleware, MetricsMiddleware, SecurityHeadersMiddleware)
	h.RegisterHealthCheck(router)
	h.RegisterRoutes(router)
	return router
}

// NewServer wraps the router with CORS and OpenTelemetry instrumentation
func NewServer(h *Handler, serviceName string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader, "X-RateLimit-Remaining"},
		AllowCredentials: true,
	})
	return otelhttp.NewHandler(c.Handler(NewRouter(h)), serviceName)
}

func actor(r *http.Request) domain.Actor {
	a, _ := ActorFrom(r.Context())
	return a
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// dateParam parses an optional YYYY-MM-DD query parameter.
func (h *Handler) dateParam(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	date, err := domain.ParseDate(value, h.loc)
	if err != nil {
		return nil, domain.Validation(domain.CodeInvalidFormat, "invalid %s %q", name, value)
	}
	return &date, nil
}

func intParam(r *http.Request, name string) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, domain.Validation(domain.CodeInvalidFormat, "invalid %s %q", name, value)
	}
	return n, nil
}
