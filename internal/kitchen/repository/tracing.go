package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

var tracer = otel.Tracer("kitchen-repository")

// TracingStore wraps a domain.Store with spans around transactions and the
// order and dispute lookups that back most read endpoints.
type TracingStore struct {
	next domain.Store
}

// NewTracingStore creates a new store with tracing
func NewTracingStore(next domain.Store) *TracingStore {
	return &TracingStore{next: next}
}

func (s *TracingStore) Repos() domain.Repositories {
	return withTracing(s.next.Repos())
}

func (s *TracingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	ctx, span := tracer.Start(ctx, "repository.Transaction")
	defer span.End()

	err := s.next.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return fn(ctx, withTracing(repos))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *TracingStore) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "repository.Ping")
	defer span.End()

	if err := s.next.Ping(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func withTracing(repos domain.Repositories) domain.Repositories {
	repos.Orders = tracingOrders{OrderRepository: repos.Orders}
	repos.Disputes = tracingDisputes{DisputeRepository: repos.Disputes}
	return repos
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type tracingOrders struct {
	domain.OrderRepository
}

func (r tracingOrders) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "repository.Order.FindByID",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	order, err := r.OrderRepository.FindByID(ctx, id)
	if err == nil {
		span.SetAttributes(attribute.String("order.status", string(order.Status)))
	}
	endSpan(span, err)
	return order, err
}

func (r tracingOrders) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "repository.Order.FindByIDForUpdate",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	order, err := r.OrderRepository.FindByIDForUpdate(ctx, id)
	endSpan(span, err)
	return order, err
}

func (r tracingOrders) Update(ctx context.Context, order *domain.Order) error {
	ctx, span := tracer.Start(ctx, "repository.Order.Update",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
			attribute.Int("order.version", order.Version),
		),
	)
	err := r.OrderRepository.Update(ctx, order)
	endSpan(span, err)
	return err
}

func (r tracingOrders) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "repository.Order.List")
	orders, err := r.OrderRepository.List(ctx, filter)
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	endSpan(span, err)
	return orders, err
}

type tracingDisputes struct {
	domain.DisputeRepository
}

func (r tracingDisputes) FindByID(ctx context.Context, id string) (*domain.Dispute, error) {
	ctx, span := tracer.Start(ctx, "repository.Dispute.FindByID",
		trace.WithAttributes(attribute.String("dispute.id", id)),
	)
	dispute, err := r.DisputeRepository.FindByID(ctx, id)
	endSpan(span, err)
	return dispute, err
}

func (r tracingDisputes) ListByOrder(ctx context.Context, orderID string) ([]domain.Dispute, error) {
	ctx, span := tracer.Start(ctx, "repository.Dispute.ListByOrder",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)
	disputes, err := r.DisputeRepository.ListByOrder(ctx, orderID)
	span.SetAttributes(attribute.Int("disputes.count", len(disputes)))
	endSpan(span, err)
	return disputes, err
}

var _ domain.Store = (*TracingStore)(nil)
