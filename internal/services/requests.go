package services

import (
	"context"
	"strings"
	"time"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"
)

type RoomChangeInput struct {
	RequestedRoomID    int64
	RequestedBedNumber int
	Reason             string
}

// RoomChangeView is a request with names resolved at read time.
type RoomChangeView struct {
	models.RoomChangeRequest
	StudentName   *string `json:"student_name"`
	RollNo        *string `json:"roll_no"`
	CurrentRoom   *string `json:"current_room"`
	RequestedRoom *string `json:"requested_room"`
}

func (s *Service) SubmitRoomChange(ctx context.Context, studentID int64, in RoomChangeInput) (models.RoomChangeRequest, error) {
	if in.RequestedRoomID <= 0 || in.RequestedBedNumber <= 0 {
		return models.RoomChangeRequest{}, ErrValidation("Requested room and bed are required")
	}
	var out models.RoomChangeRequest
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		if _, err := findStudent(tx.Document, studentID); err != nil {
			return err
		}
		target := findBed(tx.Document, in.RequestedRoomID, in.RequestedBedNumber)
		if target < 0 {
			return ErrBedNotFound
		}
		if !tx.Beds[target].Available() {
			return ErrBedUnavailable
		}
		req := models.RoomChangeRequest{
			ID:                 tx.NextID(models.CollectionRoomChanges),
			StudentID:          studentID,
			RequestedRoomID:    in.RequestedRoomID,
			RequestedBedNumber: in.RequestedBedNumber,
			Reason:             strings.TrimSpace(in.Reason),
			Review:             models.Review{Status: models.StatusPending, RequestedAt: s.now()},
		}
		if current := bedOf(tx.Document, studentID); current >= 0 {
			req.CurrentRoomID = models.Int64Ptr(tx.Beds[current].RoomID)
			req.CurrentBedNumber = models.IntPtr(tx.Beds[current].BedNumber)
		}
		tx.RoomChangeRequests = append(tx.RoomChangeRequests, req)
		out = req
		return nil
	})
	if err == nil {
		s.Recorder.RequestTransition("room_change", "submit")
	}
	return out, err
}

// ApproveRoomChange moves the student from the bed they hold now into the
// requested bed. If the requested bed is gone or taken the request stays
// pending and no bed changes.
func (s *Service) ApproveRoomChange(ctx context.Context, requestID, wardenID int64, comments string) (models.RoomChangeRequest, error) {
	var out models.RoomChangeRequest
	var occupied, available int
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		idx, err := pendingRoomChange(tx.Document, requestID)
		if err != nil {
			return err
		}
		req := &tx.RoomChangeRequests[idx]
		var from *BedRef
		if current := bedOf(tx.Document, req.StudentID); current >= 0 {
			from = &BedRef{RoomID: tx.Beds[current].RoomID, BedNumber: tx.Beds[current].BedNumber}
		}
		target := BedRef{RoomID: req.RequestedRoomID, BedNumber: req.RequestedBedNumber}
		if err := TransferBed(tx.Document, req.StudentID, from, target); err != nil {
			return err
		}
		req.Close(models.StatusApproved, wardenID, cleanOptional(&comments), s.now())
		out = *req
		occupied, available = bedCounts(tx.Document)
		return nil
	})
	s.recordBedOp("transfer", err)
	if err != nil {
		return models.RoomChangeRequest{}, err
	}
	s.Recorder.RequestTransition("room_change", "approve")
	s.Recorder.Occupancy(occupied, available)
	s.Log.Info().Int64("request_id", requestID).Int64("student_id", out.StudentID).Msg("room change approved")
	return out, nil
}

func (s *Service) RejectRoomChange(ctx context.Context, requestID, wardenID int64, comments string) (models.RoomChangeRequest, error) {
	var out models.RoomChangeRequest
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		idx, err := pendingRoomChange(tx.Document, requestID)
		if err != nil {
			return err
		}
		req := &tx.RoomChangeRequests[idx]
		req.Close(models.StatusRejected, wardenID, cleanOptional(&comments), s.now())
		out = *req
		return nil
	})
	if err != nil {
		return models.RoomChangeRequest{}, err
	}
	s.Recorder.RequestTransition("room_change", "reject")
	return out, nil
}

func (s *Service) ListRoomChanges(ctx context.Context) ([]RoomChangeView, error) {
	return s.listRoomChanges(ctx, nil)
}

func (s *Service) ListStudentRoomChanges(ctx context.Context, studentID int64) ([]RoomChangeView, error) {
	return s.listRoomChanges(ctx, &studentID)
}

func (s *Service) listRoomChanges(ctx context.Context, studentID *int64) ([]RoomChangeView, error) {
	out := []RoomChangeView{}
	err := s.Store.View(ctx, func(doc *models.Document) error {
		users := usersByID(doc)
		rooms := roomNumbersByID(doc)
		for _, req := range doc.RoomChangeRequests {
			if studentID != nil && req.StudentID != *studentID {
				continue
			}
			view := RoomChangeView{RoomChangeRequest: req}
			if u, ok := users[req.StudentID]; ok {
				view.StudentName = models.StringPtr(u.FullName)
				view.RollNo = u.RollNo
			}
			if req.CurrentRoomID != nil {
				if number, ok := rooms[*req.CurrentRoomID]; ok {
					view.CurrentRoom = models.StringPtr(number)
				}
			}
			if number, ok := rooms[req.RequestedRoomID]; ok {
				view.RequestedRoom = models.StringPtr(number)
			}
			out = append(out, view)
		}
		return nil
	})
	sortNewestFirst(out,
		func(v RoomChangeView) time.Time { return v.RequestedAt },
		func(v RoomChangeView) int64 { return v.ID })
	return out, err
}

func pendingRoomChange(doc *models.Document, id int64) (int, error) {
	for i := range doc.RoomChangeRequests {
		if doc.RoomChangeRequests[i].ID != id {
			continue
		}
		if !doc.RoomChangeRequests[i].Pending() {
			return -1, ErrAlreadyProcessed
		}
		return i, nil
	}
	return -1, ErrNotFound("Request not found")
}
