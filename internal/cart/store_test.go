package cart

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

func menuItem(id string, price float64) entity.CartItem {
	return entity.CartItem{ID: id, Name: id, Category: "Mains", Price: entity.NewPrice(price)}
}

func TestAddItem_IncrementsExisting(t *testing.T) {
	s := NewStore()
	item := menuItem("a", 5)
	item.Quantity = 7

	s.AddItem(item)
	s.AddItem(item)

	require.Equal(t, 1, s.Len())
	assert.Equal(t, 2, s.Quantity("a"))
}

func TestSetQuantity(t *testing.T) {
	s := NewStore()
	s.AddItem(menuItem("a", 5))
	s.AddItem(menuItem("b", 3))

	s.SetQuantity("a", 4)
	assert.Equal(t, 4, s.Quantity("a"))

	s.SetQuantity("missing", 3)
	assert.Equal(t, 2, s.Len())

	s.SetQuantity("a", 0)
	assert.Equal(t, 0, s.Quantity("a"))
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "b", s.Items()[0].ID)

	s.SetQuantity("b", -2)
	assert.Zero(t, s.Len())
}

func TestRemoveItem_KeepsOrderAndIndex(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"a", "b", "c"} {
		s.AddItem(menuItem(id, 1))
	}

	s.RemoveItem("a")
	s.AddItem(menuItem("c", 1))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "c", items[1].ID)
	assert.Equal(t, 2, items[1].Quantity)
}

func TestTotals(t *testing.T) {
	s := NewStore()
	s.AddItem(menuItem("a", 4.5))
	s.AddItem(menuItem("a", 4.5))
	s.AddItem(menuItem("b", 1.25))
	s.AddItem(entity.CartItem{ID: "free", Name: "Water"})

	assert.Equal(t, 4, s.TotalItemCount())
	assert.True(t, s.TotalAmount().Equal(decimal.RequireFromString("10.25")), s.TotalAmount().String())
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.AddItem(menuItem("a", 1))
	s.Clear()
	assert.Zero(t, s.Len())
	assert.True(t, s.TotalAmount().IsZero())

	s.AddItem(menuItem("a", 1))
	assert.Equal(t, 1, s.Quantity("a"))
}

func TestReorder_EquivalentToRepeatedAdds(t *testing.T) {
	s := NewStore()
	s.AddItem(menuItem("a", 2))

	s.Reorder([]entity.OrderItem{
		{ID: "a", Name: "a", Price: entity.NewPrice(2), Quantity: 3},
		{ID: "b", Quantity: 0},
	})

	assert.Equal(t, 4, s.Quantity("a"))
	assert.Equal(t, 1, s.Quantity("b"))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Item", items[1].Name)
	assert.Equal(t, "Reorder", items[1].Category)
	assert.True(t, items[1].Price.Valid)
	assert.True(t, s.TotalAmount().Equal(decimal.NewFromInt(8)))
}

func TestConcurrentAdds(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(menuItem("a", 1))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Quantity("a"))
}
