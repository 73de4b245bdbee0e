// Package menu holds the pure helpers behind the menu and meal-plan screens.
package menu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

const (
	mealPlanCategory = "Meal Plan"
	mealPlanType     = "menu"
)

// Weekdays is the display order of the weekly plan.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var priceLabel = regexp.MustCompile(`\$(\d+)`)

// Section is a run of menu items sharing a category.
type Section struct {
	Category string            `json:"category"`
	Items    []entity.MenuItem `json:"items"`
}

// Search keeps items whose name or description contains query, ignoring case.
// An empty query keeps everything.
func Search(items []entity.MenuItem, query string) []entity.MenuItem {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]entity.MenuItem, 0, len(items))
	for _, it := range items {
		if q == "" ||
			strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out
}

// GroupByCategory returns sections in the order categories first appear.
func GroupByCategory(items []entity.MenuItem) []Section {
	sections := []Section{}
	index := map[string]int{}
	for _, it := range items {
		i, ok := index[it.Category]
		if !ok {
			i = len(sections)
			index[it.Category] = i
			sections = append(sections, Section{Category: it.Category})
		}
		sections[i].Items = append(sections[i].Items, it)
	}
	return sections
}

// DayOffer is one day of the weekly plan, ready to add to the cart.
type DayOffer struct {
	Day   string            `json:"day"`
	Items []entity.CartItem `json:"items"`
}

// PlanCartItems turns the weekly plan into cart lines, Monday first, veg
// before non-veg. Days without offerings are kept with no items.
func PlanCartItems(plan entity.WeeklyPlan) []DayOffer {
	out := make([]DayOffer, 0, len(Weekdays))
	for _, day := range Weekdays {
		offer := DayOffer{Day: day, Items: []entity.CartItem{}}
		d := plan[day]
		for _, meal := range []*entity.MealOffering{d.Veg, d.NonVeg} {
			if meal == nil {
				continue
			}
			offer.Items = append(offer.Items, mealCartItem(day, meal))
		}
		out = append(out, offer)
	}
	return out
}

func mealCartItem(day string, meal *entity.MealOffering) entity.CartItem {
	return entity.CartItem{
		ID:          fmt.Sprintf("meal-%s-%s", day, meal.Title),
		Name:        fmt.Sprintf("%s (%s)", meal.Title, day),
		Description: strings.Join(meal.Items, ", "),
		Category:    mealPlanCategory,
		Price:       entity.NewPrice(float64(labelPrice(meal.PriceLabel))),
		Type:        mealPlanType,
	}
}

func labelPrice(label string) int {
	m := priceLabel.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
