package services

import (
	"context"
	"sort"
	"strings"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"
)

var (
	dayOrder  = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	mealOrder = []string{"breakfast", "lunch", "dinner"}
)

type MenuItemInput struct {
	DayOfWeek string
	MealType  string
	Items     string
}

type MenuFilter struct {
	DayOfWeek string
	MealType  string
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return len(values)
}

// canonicalDay accepts any casing of a weekday name.
func canonicalDay(day string) (string, bool) {
	for _, d := range dayOrder {
		if strings.EqualFold(d, strings.TrimSpace(day)) {
			return d, true
		}
	}
	return "", false
}

func canonicalMeal(meal string) (string, bool) {
	meal = strings.ToLower(strings.TrimSpace(meal))
	return meal, indexOf(mealOrder, meal) < len(mealOrder)
}

func (in MenuItemInput) validate() (MenuItemInput, error) {
	day, ok := canonicalDay(in.DayOfWeek)
	if !ok {
		return in, ErrValidation("Day of week must be Monday through Sunday")
	}
	meal, ok := canonicalMeal(in.MealType)
	if !ok {
		return in, ErrValidation("Meal type must be breakfast, lunch or dinner")
	}
	items := strings.TrimSpace(in.Items)
	if items == "" {
		return in, ErrValidation("Items are required")
	}
	return MenuItemInput{DayOfWeek: day, MealType: meal, Items: items}, nil
}

// ListFoodMenu returns the menu ordered Monday to Sunday and breakfast to
// dinner. Empty filter fields match everything.
func (s *Service) ListFoodMenu(ctx context.Context, filter MenuFilter) ([]models.FoodMenuItem, error) {
	var day, meal string
	if filter.DayOfWeek != "" {
		d, ok := canonicalDay(filter.DayOfWeek)
		if !ok {
			return nil, ErrValidation("Day of week must be Monday through Sunday")
		}
		day = d
	}
	if filter.MealType != "" {
		m, ok := canonicalMeal(filter.MealType)
		if !ok {
			return nil, ErrValidation("Meal type must be breakfast, lunch or dinner")
		}
		meal = m
	}
	out := []models.FoodMenuItem{}
	err := s.Store.View(ctx, func(doc *models.Document) error {
		for _, item := range doc.FoodMenu {
			if day != "" && item.DayOfWeek != day {
				continue
			}
			if meal != "" && item.MealType != meal {
				continue
			}
			out = append(out, item)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := indexOf(dayOrder, out[i].DayOfWeek), indexOf(dayOrder, out[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return indexOf(mealOrder, out[i].MealType) < indexOf(mealOrder, out[j].MealType)
	})
	return out, err
}

func (s *Service) CreateMenuItem(ctx context.Context, in MenuItemInput) (models.FoodMenuItem, error) {
	in, err := in.validate()
	if err != nil {
		return models.FoodMenuItem{}, err
	}
	var out models.FoodMenuItem
	err = s.Store.Update(ctx, func(tx *store.Tx) error {
		for _, item := range tx.FoodMenu {
			if item.DayOfWeek == in.DayOfWeek && item.MealType == in.MealType {
				return ErrConflict("A menu entry for this day and meal already exists")
			}
		}
		out = models.FoodMenuItem{
			ID:        tx.NextID(models.CollectionFoodMenu),
			DayOfWeek: in.DayOfWeek,
			MealType:  in.MealType,
			Items:     in.Items,
			CreatedAt: s.now(),
		}
		tx.FoodMenu = append(tx.FoodMenu, out)
		return nil
	})
	return out, err
}

func (s *Service) UpdateMenuItem(ctx context.Context, id int64, in MenuItemInput) (models.FoodMenuItem, error) {
	in, err := in.validate()
	if err != nil {
		return models.FoodMenuItem{}, err
	}
	var out models.FoodMenuItem
	err = s.Store.Update(ctx, func(tx *store.Tx) error {
		idx := -1
		for i, item := range tx.FoodMenu {
			if item.ID == id {
				idx = i
				continue
			}
			if item.DayOfWeek == in.DayOfWeek && item.MealType == in.MealType {
				return ErrConflict("A menu entry for this day and meal already exists")
			}
		}
		if idx < 0 {
			return ErrNotFound("Food menu item not found")
		}
		tx.FoodMenu[idx].DayOfWeek = in.DayOfWeek
		tx.FoodMenu[idx].MealType = in.MealType
		tx.FoodMenu[idx].Items = in.Items
		out = tx.FoodMenu[idx]
		return nil
	})
	return out, err
}

func (s *Service) DeleteMenuItem(ctx context.Context, id int64) error {
	return s.Store.Update(ctx, func(tx *store.Tx) error {
		for i, item := range tx.FoodMenu {
			if item.ID == id {
				tx.FoodMenu = append(tx.FoodMenu[:i], tx.FoodMenu[i+1:]...)
				return nil
			}
		}
		return ErrNotFound("Food menu item not found")
	})
}
