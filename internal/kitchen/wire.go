//go:build wireinject
// +build wireinject

package kitchen

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tair/central-kitchen/internal/config"
	kitchenhttp "github.com/tair/central-kitchen/internal/kitchen/delivery/http"
	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
)

// Wire sets
var StoreSet = wire.NewSet(
	ProvideStore,
	ProvidePolicy,
)

var HandlerSet = wire.NewSet(
	ProvideDeps,
	command.NewHandlers,
	ProvideQueryHandlers,
)

var DeliverySet = wire.NewSet(
	ProvideRateLimiter,
	ProvideResponseCache,
	kitchenhttp.NewHandler,
	ProvideHealthServer,
)

// InitializeService initializes the kitchen with all dependencies
func InitializeService(cfg *config.Config, db *gorm.DB, rdb *redis.Client, publisher domain.EventPublisher) (*Service, error) {
	wire.Build(
		StoreSet,
		HandlerSet,
		DeliverySet,
		ProvideService,
	)
	return nil, nil
}
