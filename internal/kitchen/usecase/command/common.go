package command

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/metrics"
	"github.com/tair/central-kitchen/pkg/logger"
)

var tracer = otel.Tracer("kitchen-command")

// Deps carries the collaborators shared by every command handler.
type Deps struct {
	Store     domain.Store
	Policy    domain.Policy
	Clock     domain.Clock
	Publisher domain.EventPublisher
	Picker    domain.SupplierPicker
	Tokens    TokenConfig
}

// TokenConfig configures session tokens issued at login.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}

func (d Deps) picker() domain.SupplierPicker {
	if d.Picker == nil {
		return domain.NewRandomPicker(time.Now().UnixNano())
	}
	return d.Picker
}

// publish delivers events after commit. Delivery failures never fail the command.
func (d Deps) publish(ctx context.Context, events ...domain.Event) {
	if d.Publisher == nil || len(events) == 0 {
		return
	}
	if err := d.Publisher.Publish(ctx, events...); err != nil {
		logger.Warn(ctx).
			Err(err).
			Int("events", len(events)).
			Str("event_type", events[0].Type).
			Msg("Failed to publish events")
	}
}

func startSpan(ctx context.Context, command string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "command."+command)
}

// finish closes the command span and classifies err. Domain rejections are
// logged at warn, system failures at error.
func finish(ctx context.Context, span trace.Span, command string, err error) error {
	defer span.End()
	if err == nil {
		return nil
	}

	de := domain.AsError(err)
	span.RecordError(de)
	span.SetStatus(codes.Error, de.Message)
	metrics.CommandErrors.WithLabelValues(command, string(de.Code)).Inc()

	log := logger.Command(ctx, command)
	event := log.Warn()
	if errors.Is(de, domain.ErrSystem) {
		event = log.Error()
	}
	event.Err(err).
		Str("code", string(de.Code)).
		Msg("Command rejected")
	return de
}

// missing converts a repository miss into a not-found error for what.
func missing(err error, code domain.Code, what, id string) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.NotFound(code, "%s %s not found", what, id)
	}
	return err
}

func findProduct(ctx context.Context, repos domain.Repositories, id string) (*domain.Product, error) {
	product, err := repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, missing(err, domain.CodeProductNotFound, "product", id)
	}
	return product, nil
}

func findRecipe(ctx context.Context, repos domain.Repositories, product *domain.Product) (*domain.Recipe, error) {
	recipe, err := repos.Recipes.FindByProductID(ctx, product.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NotFound(domain.CodeRecipeNotFound, "recipe not found for product %s", product.Name)
		}
		return nil, err
	}
	return recipe, nil
}

func findOrder(ctx context.Context, repos domain.Repositories, id string, lock bool) (*domain.Order, error) {
	find := repos.Orders.FindByID
	if lock {
		find = repos.Orders.FindByIDForUpdate
	}
	order, err := find(ctx, id)
	if err != nil {
		return nil, missing(err, domain.CodeNotFound, "order", id)
	}
	return order, nil
}

// storeStaffOf resolves the store-staff profile of a store-staff user.
func storeStaffOf(ctx context.Context, repos domain.Repositories, actor domain.Actor) (*domain.StoreStaff, error) {
	staff, err := repos.StoreStaff.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.Forbidden(domain.CodeAuthzDenied, "no store staff profile for user %s", actor.UserID)
		}
		return nil, err
	}
	return staff, nil
}

// requireOwner rejects actors who are not the store staff owning storeStaffID.
func requireOwner(ctx context.Context, repos domain.Repositories, actor domain.Actor, storeStaffID string) error {
	staff, err := storeStaffOf(ctx, repos, actor)
	if err != nil {
		return err
	}
	if staff.ID != storeStaffID {
		return domain.Forbidden(domain.CodeAuthzDenied, "resource belongs to another store")
	}
	return nil
}

func appendHistory(ctx context.Context, repos domain.Repositories, order *domain.Order, from domain.OrderStatus, actor domain.Actor, notes string, now time.Time) error {
	return repos.Orders.AppendHistory(ctx, &domain.OrderHistory{
		ID:          domain.NewID(),
		OrderID:     order.ID,
		FromStatus:  from,
		ToStatus:    order.Status,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		Notes:       notes,
		CreatedAt:   now,
	})
}

// StatusChange is the payload of order.status_changed events.
type StatusChange struct {
	OrderID    string             `json:"order_id"`
	From       domain.OrderStatus `json:"from_status_id"`
	To         domain.OrderStatus `json:"to_status_id"`
	ActorID    string             `json:"changed_by_user_id"`
	ActorRole  domain.Role        `json:"changed_by_role_id"`
	Transition string             `json:"transition"`
}

func statusChanged(order *domain.Order, from domain.OrderStatus, actor domain.Actor, kind domain.TransitionKind, at time.Time) domain.Event {
	metrics.OrderTransitions.WithLabelValues(from.Name(), order.Status.Name(), kind.String()).Inc()
	return domain.NewEvent(domain.EventOrderStatusChanged, order.ID, at, StatusChange{
		OrderID:    order.ID,
		From:       from,
		To:         order.Status,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Transition: kind.String(),
	})
}
