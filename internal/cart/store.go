package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

const (
	reorderName     = "Item"
	reorderCategory = "Reorder"
)

// Store is the session-scoped cart. Items keep insertion order and ids are
// unique; every mutation is a single step under the lock.
type Store struct {
	mu    sync.RWMutex
	items []entity.CartItem
	index map[string]int
}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// AddItem increments the quantity of an existing line or appends a new line
// with quantity 1. The incoming Quantity is ignored.
func (s *Store) AddItem(item entity.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(item, 1)
}

// SetQuantity sets the quantity of a present line. Zero or less removes it.
// Unknown ids are ignored.
func (s *Store) SetQuantity(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return
	}
	if quantity <= 0 {
		s.remove(i)
		return
	}
	s.items[i].Quantity = quantity
}

func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[id]; ok {
		s.remove(i)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[string]int)
}

// Reorder adds the lines of a past order. A line without a positive quantity
// counts as one. The whole batch is applied at once.
func (s *Store) Reorder(lines []entity.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		item := entity.CartItem{
			ID:          line.ID,
			Name:        line.Name,
			Description: line.Description,
			Category:    line.Category,
			Price:       line.Price,
			Image:       line.Image,
			Type:        line.Type,
		}
		if item.Name == "" {
			item.Name = reorderName
		}
		if item.Category == "" {
			item.Category = reorderCategory
		}
		if !item.Price.Valid {
			item.Price = entity.NewPrice(0)
		}
		s.add(item, qty)
	}
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []entity.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Quantity returns 0 for ids not in the cart.
func (s *Store) Quantity(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, ok := s.index[id]; ok {
		return s.items[i].Quantity
	}
	return 0
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) TotalItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// TotalAmount sums price × quantity. Lines without a numeric price add nothing.
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Price.Value().Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (s *Store) add(item entity.CartItem, qty int) {
	if i, ok := s.index[item.ID]; ok {
		s.items[i].Quantity += qty
		return
	}
	item.Quantity = qty
	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
}

func (s *Store) remove(i int) {
	delete(s.index, s.items[i].ID)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
}
