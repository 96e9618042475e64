package domain

import "context"

// VarietyLimit wraps a Container and caps how many distinct products it holds.
// The variety check runs before the wrapped container sees the add, so a full
// shop rejects a new product even when it has free space.
type VarietyLimit struct {
	Container
	maxDistinct int
}

func NewVarietyLimit(inner Container, maxDistinct int) *VarietyLimit {
	return &VarietyLimit{Container: inner, maxDistinct: maxDistinct}
}

func (v *VarietyLimit) MaxDistinct() int { return v.maxDistinct }

func (v *VarietyLimit) Add(ctx context.Context, product string, qty int) error {
	items, err := v.Container.Items(ctx)
	if err != nil {
		return err
	}
	if _, exists := items[product]; !exists && len(items) >= v.maxDistinct {
		return TooManyDistinctItems(v.maxDistinct)
	}
	return v.Container.Add(ctx, product, qty)
}
