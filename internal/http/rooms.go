package httpapi

import (
	"net/http"

	"hostel-backend-go/internal/services"
)

type CreateRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required,max=16"`
	Floor      int    `json:"floor" validate:"min=0"`
	Capacity   int    `json:"capacity" validate:"required,min=1,max=12"`
	RoomType   string `json:"room_type" validate:"max=32"`
}

// BedRequest names a student and a bed. StudentID is ignored by vacate.
type BedRequest struct {
	StudentID int64 `json:"student_id"`
	RoomID    int64 `json:"room_id" validate:"required,gt=0"`
	BedNumber int   `json:"bed_number" validate:"required,gt=0"`
}

func (s *Server) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.Service.ListRoomsWithOccupancy(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rooms)
}

func (s *Server) RoomDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "roomId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	room, err := s.Service.GetRoomDetail(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, room)
}

func (s *Server) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	room, err := s.Service.CreateRoom(r.Context(), services.CreateRoomInput{
		RoomNumber: req.RoomNumber,
		Floor:      req.Floor,
		Capacity:   req.Capacity,
		RoomType:   req.RoomType,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, room)
}

func (s *Server) AssignRoom(w http.ResponseWriter, r *http.Request) {
	var req BedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.StudentID <= 0 {
		s.fail(w, r, services.ErrValidation("student_id is required"))
		return
	}
	target := services.BedRef{RoomID: req.RoomID, BedNumber: req.BedNumber}
	if err := s.Service.AssignBed(r.Context(), req.StudentID, target); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Room assigned successfully"})
}

func (s *Server) VacateBed(w http.ResponseWriter, r *http.Request) {
	var req BedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Service.VacateBed(r.Context(), services.BedRef{RoomID: req.RoomID, BedNumber: req.BedNumber}); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Bed vacated successfully"})
}

func (s *Server) MyRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.Service.MyRoom(r.Context(), CurrentUserID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, room)
}
