package domain

import "github.com/shopspring/decimal"

// SplitQuantity divides total into fixed-capacity chunks by repeatedly taking
// min(capacity, remaining). The chunks sum to total exactly.
func SplitQuantity(total, capacity decimal.Decimal) []decimal.Decimal {
	if !total.IsPositive() {
		return nil
	}
	if !capacity.IsPositive() {
		return []decimal.Decimal{total}
	}
	var chunks []decimal.Decimal
	remaining := total
	for remaining.IsPositive() {
		chunk := decimal.Min(capacity, remaining)
		chunks = append(chunks, chunk)
		remaining = remaining.Sub(chunk)
	}
	return chunks
}

// PackLine is one order line offered to the cooked-batch packer.
type PackLine struct {
	ProductID     string
	ProductName   string
	Quantity      int
	WeightPerUnit decimal.Decimal
}

// PackedBatch is the content of one cooked batch before it is persisted.
type PackedBatch struct {
	Items       []CookedBatchItem
	TotalWeight decimal.Decimal
}

// PackCookedBatches fills batches of at most capacity weight in line order,
// unit by unit, without reordering lines for a better fit. A single unit
// heavier than capacity gets a batch of its own.
func PackCookedBatches(lines []PackLine, capacity decimal.Decimal) []PackedBatch {
	var (
		batches []PackedBatch
		current PackedBatch
	)
	flush := func() {
		if len(current.Items) > 0 {
			batches = append(batches, current)
		}
		current = PackedBatch{}
	}

	for _, line := range lines {
		remaining := line.Quantity
		for remaining > 0 {
			fit := remaining
			if line.WeightPerUnit.IsPositive() && capacity.IsPositive() {
				space := capacity.Sub(current.TotalWeight)
				fit = int(space.Div(line.WeightPerUnit).Floor().IntPart())
				if fit <= 0 {
					if len(current.Items) > 0 {
						flush()
						continue
					}
					fit = 1
				}
			}
			if fit > remaining {
				fit = remaining
			}
			weight := line.WeightPerUnit.Mul(decimal.NewFromInt(int64(fit)))
			current.Items = append(current.Items, CookedBatchItem{
				ProductID:     line.ProductID,
				ProductName:   line.ProductName,
				Quantity:      fit,
				WeightPerUnit: line.WeightPerUnit,
				TotalWeight:   weight,
			})
			current.TotalWeight = current.TotalWeight.Add(weight)
			remaining -= fit
		}
	}
	flush()
	return batches
}
