package riskrule

import (
	"context"
	"fmt"
)

type TickSizeBand struct {
	MaxPrice int64 `yaml:"max_price"` // 0 = no limit
	Step     int64 `yaml:"step"`
}

// TickSizeRule holds tick size bands per symbol. Bands are checked in order;
// the first band whose MaxPrice covers the price decides the step.
type TickSizeRule struct {
	Config map[string][]TickSizeBand
}

func NewTickSizeRule(cfg map[string][]TickSizeBand) *TickSizeRule {
	return &TickSizeRule{Config: cfg}
}

func (r *TickSizeRule) Check(_ context.Context, order *Order) error {
	if order.Price == nil {
		return nil
	}
	bands, ok := r.Config[order.Symbol.Symbol]
	if !ok { // no config -> no rule
		return nil
	}

	price := *order.Price
	for _, band := range bands {
		if band.MaxPrice == 0 || price <= band.MaxPrice {
			if band.Step > 0 && price%band.Step != 0 {
				return fmt.Errorf("%w: %d is not a multiple of %d", ErrInvalidTickSize, price, band.Step)
			}
			return nil
		}
	}

	return nil
}
