package kitchen

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/central-kitchen/internal/config"
	kitchengrpc "github.com/tair/central-kitchen/internal/kitchen/delivery/grpc"
	kitchenhttp "github.com/tair/central-kitchen/internal/kitchen/delivery/http"
	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/repository"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
)

// Service is the assembled kitchen bounded context
type Service struct {
	Store    domain.Store
	Commands *command.Handlers
	Queries  *query.Handlers
	HTTP     *kitchenhttp.Handler
	Health   *kitchengrpc.HealthServer
}

// ProvideStore selects the store driver. Postgres stores are wrapped with tracing.
func ProvideStore(cfg *config.Config, db *gorm.DB) domain.Store {
	if cfg.StoreDriver == config.DriverMemory || db == nil {
		return repository.NewMemoryStore()
	}
	return repository.NewTracingStore(repository.NewGormStore(db))
}

// ProvidePolicy provides the business policy
func ProvidePolicy(cfg *config.Config) domain.Policy {
	return cfg.Policy
}

// ProvideDeps provides the shared command dependencies
func ProvideDeps(cfg *config.Config, store domain.Store, policy domain.Policy, publisher domain.EventPublisher) command.Deps {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return command.Deps{
		Store:     store,
		Policy:    policy,
		Clock:     domain.SystemClock,
		Publisher: publisher,
		Picker:    domain.NewRandomPicker(time.Now().UnixNano()),
		Tokens:    command.TokenConfig{Secret: cfg.JWTSecret, TTL: 24 * time.Hour},
	}
}

// ProvideQueryHandlers provides all query handlers
func ProvideQueryHandlers(store domain.Store, policy domain.Policy) *query.Handlers {
	return query.NewHandlers(store, domain.SystemClock, policy)
}

// ProvideRateLimiter provides the Redis rate limiter for mutating routes
func ProvideRateLimiter(cfg *config.Config, rdb *redis.Client) *kitchenhttp.RateLimiter {
	return kitchenhttp.NewRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow)
}

// ProvideResponseCache provides the Redis cache for public catalog reads
func ProvideResponseCache(rdb *redis.Client) *kitchenhttp.ResponseCache {
	return kitchenhttp.NewResponseCache(rdb, 5*time.Minute)
}

// ProvideHealthServer provides the gRPC health server
func ProvideHealthServer(store domain.Store) *kitchengrpc.HealthServer {
	return kitchengrpc.NewHealthServer(store, 10*time.Second)
}

// ProvideService groups the assembled components
func ProvideService(
	store domain.Store,
	commands *command.Handlers,
	queries *query.Handlers,
	handler *kitchenhttp.Handler,
	health *kitchengrpc.HealthServer,
) *Service {
	return &Service{
		Store:    store,
		Commands: commands,
		Queries:  queries,
		HTTP:     handler,
		Health:   health,
	}
}
