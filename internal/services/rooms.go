package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"
)

const maxRoomCapacity = 12

var ErrBedVacant = ServiceError{Kind: KindConflict, Code: "BED_ALREADY_VACANT", Message: "Bed is already vacant"}

type RoomOccupancy struct {
	models.Room
	OccupiedBeds  int `json:"occupied_beds"`
	AvailableBeds int `json:"available_beds"`
}

type BedView struct {
	ID          int64   `json:"id"`
	BedNumber   int     `json:"bed_number"`
	Status      string  `json:"status"`
	StudentID   *int64  `json:"student_id"`
	StudentName *string `json:"student_name"`
}

type RoomDetail struct {
	models.Room
	Beds []BedView `json:"beds"`
}

type Roommate struct {
	FullName  string `json:"full_name"`
	BedNumber int    `json:"bed_number"`
}

type MyRoom struct {
	models.Room
	BedNumber int        `json:"bed_number"`
	Roommates []Roommate `json:"roommates"`
}

type OccupancySummary struct {
	Rooms                  int `json:"rooms"`
	Beds                   int `json:"beds"`
	OccupiedBeds           int `json:"occupied_beds"`
	AvailableBeds          int `json:"available_beds"`
	PendingRoomChanges     int `json:"pending_room_changes"`
	PendingDetailsRequests int `json:"pending_details_requests"`
}

type CreateRoomInput struct {
	RoomNumber string
	Floor      int
	Capacity   int
	RoomType   string
}

// BedRef names a bed by room and bed number.
type BedRef struct {
	RoomID    int64
	BedNumber int
}

func (s *Service) ListRoomsWithOccupancy(ctx context.Context) ([]RoomOccupancy, error) {
	var out []RoomOccupancy
	err := s.Store.View(ctx, func(doc *models.Document) error {
		out = roomsWithOccupancy(doc)
		return nil
	})
	return out, err
}

func roomsWithOccupancy(doc *models.Document) []RoomOccupancy {
	counts := map[int64][2]int{}
	for _, bed := range doc.Beds {
		c := counts[bed.RoomID]
		if bed.Status == models.BedOccupied {
			c[0]++
		} else {
			c[1]++
		}
		counts[bed.RoomID] = c
	}
	out := make([]RoomOccupancy, 0, len(doc.Rooms))
	for _, room := range doc.Rooms {
		c := counts[room.ID]
		out = append(out, RoomOccupancy{Room: room, OccupiedBeds: c[0], AvailableBeds: c[1]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) GetRoomDetail(ctx context.Context, roomID int64) (RoomDetail, error) {
	var out RoomDetail
	err := s.Store.View(ctx, func(doc *models.Document) error {
		idx := findRoom(doc, roomID)
		if idx < 0 {
			return ErrNotFound("Room not found")
		}
		out = roomDetail(doc, doc.Rooms[idx])
		return nil
	})
	return out, err
}

func roomDetail(doc *models.Document, room models.Room) RoomDetail {
	users := usersByID(doc)
	beds := []BedView{}
	for _, bed := range doc.Beds {
		if bed.RoomID != room.ID {
			continue
		}
		view := BedView{ID: bed.ID, BedNumber: bed.BedNumber, Status: bed.Status, StudentID: bed.StudentID}
		if bed.StudentID != nil {
			if u, ok := users[*bed.StudentID]; ok {
				view.StudentName = models.StringPtr(u.FullName)
			}
		}
		beds = append(beds, view)
	}
	sort.Slice(beds, func(i, j int) bool { return beds[i].BedNumber < beds[j].BedNumber })
	return RoomDetail{Room: room, Beds: beds}
}

// AssignBed puts a student into a free bed. A bed the student already holds
// elsewhere is left as it is.
func (s *Service) AssignBed(ctx context.Context, studentID int64, target BedRef) error {
	var occupied, available int
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		if _, err := findStudent(tx.Document, studentID); err != nil {
			return err
		}
		if err := occupyBed(tx.Document, studentID, target); err != nil {
			return err
		}
		occupied, available = bedCounts(tx.Document)
		return nil
	})
	s.recordBedOp("assign", err)
	if err != nil {
		return err
	}
	s.Recorder.Occupancy(occupied, available)
	s.Log.Info().Int64("student_id", studentID).Int64("room_id", target.RoomID).Int("bed_number", target.BedNumber).Msg("bed assigned")
	return nil
}

// TransferBed moves a student into target, freeing from when it is given
// and still held by that student. It must run inside a store transaction;
// on error nothing in doc has been changed.
func TransferBed(doc *models.Document, studentID int64, from *BedRef, target BedRef) error {
	idx := findBed(doc, target.RoomID, target.BedNumber)
	if idx < 0 {
		return ErrBedNotFound
	}
	if !doc.Beds[idx].Available() {
		return ErrBedUnavailable
	}
	if from != nil {
		if src := findBed(doc, from.RoomID, from.BedNumber); src >= 0 {
			bed := doc.Beds[src]
			if bed.StudentID != nil && *bed.StudentID == studentID {
				vacate(&doc.Beds[src])
			}
		}
	}
	return occupyBed(doc, studentID, target)
}

func occupyBed(doc *models.Document, studentID int64, target BedRef) error {
	idx := findBed(doc, target.RoomID, target.BedNumber)
	if idx < 0 {
		return ErrBedNotFound
	}
	if !doc.Beds[idx].Available() {
		return ErrBedUnavailable
	}
	doc.Beds[idx].StudentID = models.Int64Ptr(studentID)
	doc.Beds[idx].Status = models.BedOccupied
	return nil
}

func vacate(bed *models.Bed) {
	bed.StudentID = nil
	bed.Status = models.BedAvailable
}

func (s *Service) VacateBed(ctx context.Context, target BedRef) error {
	var occupied, available int
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		idx := findBed(tx.Document, target.RoomID, target.BedNumber)
		if idx < 0 {
			return ErrBedNotFound
		}
		if tx.Beds[idx].StudentID == nil {
			return ErrBedVacant
		}
		vacate(&tx.Beds[idx])
		occupied, available = bedCounts(tx.Document)
		return nil
	})
	s.recordBedOp("vacate", err)
	if err != nil {
		return err
	}
	s.Recorder.Occupancy(occupied, available)
	return nil
}

func (s *Service) CreateRoom(ctx context.Context, in CreateRoomInput) (RoomDetail, error) {
	number := strings.TrimSpace(in.RoomNumber)
	if number == "" {
		return RoomDetail{}, ErrValidation("Room number is required")
	}
	if in.Capacity < 1 || in.Capacity > maxRoomCapacity {
		return RoomDetail{}, ErrValidation("Capacity must be between 1 and 12")
	}
	if in.Floor < 0 {
		return RoomDetail{}, ErrValidation("Floor must not be negative")
	}
	roomType := strings.TrimSpace(in.RoomType)
	if roomType == "" {
		roomType = "standard"
	}
	var out RoomDetail
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		for _, room := range tx.Rooms {
			if strings.EqualFold(room.RoomNumber, number) {
				return ErrConflict("Room number already exists")
			}
		}
		room := models.Room{
			ID:         tx.NextID(models.CollectionRooms),
			RoomNumber: number,
			Floor:      in.Floor,
			Capacity:   in.Capacity,
			RoomType:   roomType,
			CreatedAt:  s.now(),
		}
		tx.Rooms = append(tx.Rooms, room)
		for n := 1; n <= in.Capacity; n++ {
			tx.Beds = append(tx.Beds, models.Bed{
				ID:        tx.NextID(models.CollectionBeds),
				RoomID:    room.ID,
				BedNumber: n,
				Status:    models.BedAvailable,
			})
		}
		out = roomDetail(tx.Document, room)
		return nil
	})
	return out, err
}

func (s *Service) MyRoom(ctx context.Context, studentID int64) (MyRoom, error) {
	var out MyRoom
	err := s.Store.View(ctx, func(doc *models.Document) error {
		idx := bedOf(doc, studentID)
		if idx < 0 {
			return ErrNoRoomAssigned
		}
		bed := doc.Beds[idx]
		roomIdx := findRoom(doc, bed.RoomID)
		if roomIdx < 0 {
			return ErrNoRoomAssigned
		}
		users := usersByID(doc)
		roommates := []Roommate{}
		for _, other := range doc.Beds {
			if other.RoomID != bed.RoomID || other.StudentID == nil || *other.StudentID == studentID {
				continue
			}
			name := "Unknown"
			if u, ok := users[*other.StudentID]; ok {
				name = u.FullName
			}
			roommates = append(roommates, Roommate{FullName: name, BedNumber: other.BedNumber})
		}
		sort.Slice(roommates, func(i, j int) bool { return roommates[i].BedNumber < roommates[j].BedNumber })
		out = MyRoom{Room: doc.Rooms[roomIdx], BedNumber: bed.BedNumber, Roommates: roommates}
		return nil
	})
	return out, err
}

func (s *Service) OccupancySummary(ctx context.Context) (OccupancySummary, error) {
	var out OccupancySummary
	err := s.Store.View(ctx, func(doc *models.Document) error {
		out.Rooms = len(doc.Rooms)
		out.Beds = len(doc.Beds)
		out.OccupiedBeds, out.AvailableBeds = bedCounts(doc)
		for _, req := range doc.RoomChangeRequests {
			if req.Status == models.StatusPending {
				out.PendingRoomChanges++
			}
		}
		for _, req := range doc.PersonalDetailsRequests {
			if req.Status == models.StatusPending {
				out.PendingDetailsRequests++
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) recordBedOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = strings.ToLower(AsServiceError(err).Code)
		var svcErr ServiceError
		if !errors.As(err, &svcErr) {
			s.Log.Error().Err(err).Str("op", op).Msg("bed operation failed")
		}
	}
	s.Recorder.BedOperation(op, result)
}
