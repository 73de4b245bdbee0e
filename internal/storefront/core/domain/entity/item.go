package entity

// MenuItem is a purchasable entry from the remote catalog.
type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       Price  `json:"price"`
	Image       string `json:"image,omitempty"`
	Type        string `json:"type,omitempty"`
}

// CartItem is one line of the cart. Quantity is always >= 1 while the item is
// held by a cart.
type CartItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       Price  `json:"price"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image,omitempty"`
	Type        string `json:"type,omitempty"`
}

// CartItemFromMenu copies the display fields of a menu entry. Quantity is left
// to the cart.
func CartItemFromMenu(m MenuItem) CartItem {
	return CartItem{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Price:       m.Price,
		Image:       m.Image,
		Type:        m.Type,
	}
}

// MealOffering is a single veg or non-veg meal of the weekly plan.
type MealOffering struct {
	Title      string   `json:"title"`
	PriceLabel string   `json:"priceLabel"`
	Items      []string `json:"items"`
}

// DayPlan holds the offerings for one weekday.
type DayPlan struct {
	Veg    *MealOffering `json:"veg,omitempty"`
	NonVeg *MealOffering `json:"nonVeg,omitempty"`
}

// WeeklyPlan is keyed by weekday name ("Monday".."Sunday").
type WeeklyPlan map[string]DayPlan
