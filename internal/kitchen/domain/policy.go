package domain

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Policy holds the business constants of the kitchen.
type Policy struct {
	// BufferRate is the safety margin added on top of planned material demand.
	BufferRate decimal.Decimal
	// RawBatchCap bounds the quantity of one raw production batch.
	RawBatchCap decimal.Decimal
	// CookedBatchCap bounds the weight of one cooked batch.
	CookedBatchCap decimal.Decimal
	// CutoffHour is the local hour at and after which new orders are auto-cancelled.
	CutoffHour int
	// FilingWindow is how long after delivery confirmation a dispute may be filed.
	FilingWindow         time.Duration
	DefaultShelfLifeDays int
	DefaultWeightPerUnit decimal.Decimal
	CreditRate           decimal.Decimal
	// CountRejectedDisputes keeps rejected disputes in the per-product ledger.
	CountRejectedDisputes bool
	Location              *time.Location
}

// DefaultPolicy returns the production defaults, evaluated in loc.
func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		BufferRate:           decimal.NewFromFloat(0.10),
		RawBatchCap:          decimal.NewFromInt(5),
		CookedBatchCap:       decimal.NewFromInt(5),
		CutoffHour:           18,
		FilingWindow:         time.Hour,
		DefaultShelfLifeDays: 5,
		DefaultWeightPerUnit: decimal.NewFromFloat(0.5),
		CreditRate:           decimal.NewFromInt(1),
		Location:             loc,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Today returns the local calendar date of now.
func (p Policy) Today(now time.Time) time.Time {
	return DateOf(now.In(p.location()))
}

// DayBounds returns the [start, end) instants of the local day containing now.
func (p Policy) DayBounds(now time.Time) (time.Time, time.Time) {
	local := now.In(p.location())
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.location())
	return start, start.AddDate(0, 0, 1)
}

// CreditFor prices qty units at price under the credit rate.
func (p Policy) CreditFor(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty))).Mul(p.CreditRate)
}

// PastCutoff reports whether now is at or after the daily cut-off hour.
func (p Policy) PastCutoff(now time.Time) bool {
	return now.In(p.location()).Hour() >= p.CutoffHour
}

// DateOf strips the clock from t, keeping its calendar date as UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the calendar date.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t.In(loc)), nil
}

// Clock returns the current instant.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// NewID returns a fresh entity identifier.
func NewID() string { return uuid.NewString() }

// SupplierPicker chooses a supplier for a supply order.
type SupplierPicker interface {
	// Pick returns one of suppliers, avoiding excludeID when another choice exists.
	Pick(suppliers []Supplier, excludeID string) Supplier
}

// RandomPicker picks uniformly among eligible suppliers.
type RandomPicker struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomPicker(seed int64) *RandomPicker {
	return &RandomPicker{rnd: rand.New(rand.NewSource(seed))}
}

func (p *RandomPicker) Pick(suppliers []Supplier, excludeID string) Supplier {
	pool := eligible(suppliers, excludeID)
	p.mu.Lock()
	defer p.mu.Unlock()
	return pool[p.rnd.Intn(len(pool))]
}

// FirstPicker always takes the first eligible supplier.
type FirstPicker struct{}

func (FirstPicker) Pick(suppliers []Supplier, excludeID string) Supplier {
	return eligible(suppliers, excludeID)[0]
}

func eligible(suppliers []Supplier, excludeID string) []Supplier {
	if excludeID == "" {
		return suppliers
	}
	out := make([]Supplier, 0, len(suppliers))
	for _, s := range suppliers {
		if s.ID != excludeID {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return suppliers
	}
	return out
}
