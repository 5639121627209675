package services

import (
	"context"
	"fmt"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"
)

const (
	defaultWardenUsername = "warden"
	defaultWardenPassword = "warden123"
	seedRoomCount         = 10
	seedRoomCapacity      = 3
)

var seedMenu = []MenuItemInput{
	{"Monday", "breakfast", "Bread, Butter, Jam, Tea/Coffee, Boiled Eggs"},
	{"Monday", "lunch", "Rice, Dal, Vegetable Curry, Chapati, Pickle"},
	{"Monday", "dinner", "Rice, Sambar, Dry Vegetable, Chapati, Curd"},
	{"Tuesday", "breakfast", "Poha, Tea/Coffee, Banana"},
	{"Tuesday", "lunch", "Rice, Rasam, Vegetable Curry, Chapati, Papad"},
	{"Tuesday", "dinner", "Rice, Dal, Mixed Vegetable, Chapati, Pickle"},
	{"Wednesday", "breakfast", "Idli, Sambar, Chutney, Tea/Coffee"},
	{"Wednesday", "lunch", "Rice, Curd, Vegetable, Chapati, Pickle"},
	{"Wednesday", "dinner", "Rice, Dal, Fry, Chapati, Salad"},
}

// EnsureDefaults creates the warden account, rooms R001..R010 with three
// beds each and a starter menu. Each part is only added when its collection
// is empty, so the call is safe on every start.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	hasWarden := false
	if err := s.Store.View(ctx, func(doc *models.Document) error {
		for _, u := range doc.Users {
			if u.Role == models.RoleWarden {
				hasWarden = true
			}
		}
		return nil
	}); err != nil {
		return err
	}
	var hash string
	if !hasWarden {
		h, err := s.Tokens.HashPassword(defaultWardenPassword)
		if err != nil {
			return WrapError(err, "hash warden password")
		}
		hash = h
	}
	var seeded []string
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		now := s.now()
		if hash != "" {
			tx.Users = append(tx.Users, models.User{
				ID:           tx.NextID(models.CollectionUsers),
				Username:     defaultWardenUsername,
				Role:         models.RoleWarden,
				PasswordHash: hash,
				FullName:     "Hostel Warden",
				Email:        models.StringPtr("warden@hostel.edu"),
				Phone:        models.StringPtr("9876543210"),
				CreatedAt:    now,
			})
			seeded = append(seeded, "warden")
		}
		if len(tx.Rooms) == 0 {
			for i := 1; i <= seedRoomCount; i++ {
				room := models.Room{
					ID:         tx.NextID(models.CollectionRooms),
					RoomNumber: fmt.Sprintf("R%03d", i),
					Floor:      (i + 3) / 4,
					Capacity:   seedRoomCapacity,
					RoomType:   "standard",
					CreatedAt:  now,
				}
				tx.Rooms = append(tx.Rooms, room)
				for n := 1; n <= seedRoomCapacity; n++ {
					tx.Beds = append(tx.Beds, models.Bed{
						ID:        tx.NextID(models.CollectionBeds),
						RoomID:    room.ID,
						BedNumber: n,
						Status:    models.BedAvailable,
					})
				}
			}
			seeded = append(seeded, "rooms")
		}
		if len(tx.FoodMenu) == 0 {
			for _, item := range seedMenu {
				tx.FoodMenu = append(tx.FoodMenu, models.FoodMenuItem{
					ID:        tx.NextID(models.CollectionFoodMenu),
					DayOfWeek: item.DayOfWeek,
					MealType:  item.MealType,
					Items:     item.Items,
					CreatedAt: now,
				})
			}
			seeded = append(seeded, "food_menu")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(seeded) > 0 {
		s.Log.Info().Strs("seeded", seeded).Msg("default data created")
	}
	return nil
}
