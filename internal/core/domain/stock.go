package domain

import (
	"context"
	"maps"
)

// Stock is the in-memory Container.
type Stock struct {
	capacity int
	total    int
	items    map[string]int
}

func NewStock(capacity int) *Stock {
	return &Stock{
		capacity: capacity,
		items:    make(map[string]int),
	}
}

func (s *Stock) Capacity() int { return s.capacity }

func (s *Stock) Add(ctx context.Context, product string, qty int) error {
	if qty <= 0 {
		return InvalidQuantity(qty)
	}
	free := s.capacity - s.total
	if free <= qty {
		return CapacityExceeded(free)
	}
	s.items[product] += qty
	s.total += qty
	return nil
}

func (s *Stock) Remove(ctx context.Context, product string, qty int) error {
	if qty <= 0 {
		return InvalidQuantity(qty)
	}
	have, ok := s.items[product]
	if !ok {
		return NotFound(product)
	}
	if qty > have {
		return InsufficientQuantity(product, have, qty)
	}
	if have == qty {
		delete(s.items, product)
	} else {
		s.items[product] = have - qty
	}
	s.total -= qty
	return nil
}

func (s *Stock) FreeSpace(ctx context.Context) (int, error) {
	return s.capacity - s.total, nil
}

func (s *Stock) Items(ctx context.Context) (map[string]int, error) {
	return maps.Clone(s.items), nil
}

func (s *Stock) UniqueCount(ctx context.Context) (int, error) {
	return len(s.items), nil
}
