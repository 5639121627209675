package httpapi

import (
	"net/http"

	"hostel-backend-go/internal/services"
)

type MenuItemRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required"`
	MealType  string `json:"meal_type" validate:"required"`
	Items     string `json:"items" validate:"required,max=500"`
}

func (req MenuItemRequest) input() services.MenuItemInput {
	return services.MenuItemInput{DayOfWeek: req.DayOfWeek, MealType: req.MealType, Items: req.Items}
}

func (s *Server) FoodMenu(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, err := s.Service.ListFoodMenu(r.Context(), services.MenuFilter{
		DayOfWeek: query.Get("day_of_week"),
		MealType:  query.Get("meal_type"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req MenuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.Service.CreateMenuItem(r.Context(), req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

func (s *Server) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req MenuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.Service.UpdateMenuItem(r.Context(), id, req.input())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

func (s *Server) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "itemId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Service.DeleteMenuItem(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Food menu item deleted successfully"})
}
