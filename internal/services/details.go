package services

import (
	"context"
	"time"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"
)

type DetailsUpdateView struct {
	models.PersonalDetailsRequest
	StudentName *string `json:"student_name"`
	RollNo      *string `json:"roll_no"`
}

func normalizePatch(p models.DetailsPatch) models.DetailsPatch {
	return models.DetailsPatch{
		Phone:           cleanOptional(p.Phone),
		AddressLine1:    cleanOptional(p.AddressLine1),
		AddressLine2:    cleanOptional(p.AddressLine2),
		City:            cleanOptional(p.City),
		State:           cleanOptional(p.State),
		PostalCode:      cleanOptional(p.PostalCode),
		GuardianName:    cleanOptional(p.GuardianName),
		GuardianPhone:   cleanOptional(p.GuardianPhone),
		GuardianAddress: cleanOptional(p.GuardianAddress),
	}
}

// SubmitDetailsUpdate files a profile change for warden review. Blank
// fields count as not proposed. A student may have one pending request.
func (s *Service) SubmitDetailsUpdate(ctx context.Context, studentID int64, patch models.DetailsPatch) (models.PersonalDetailsRequest, error) {
	patch = normalizePatch(patch)
	if patch.Phone != nil && !validPhone(*patch.Phone) {
		return models.PersonalDetailsRequest{}, ErrValidation("Phone must be a valid 10-digit mobile number")
	}
	if patch.GuardianPhone != nil && !validPhone(*patch.GuardianPhone) {
		return models.PersonalDetailsRequest{}, ErrValidation("Guardian phone must be a valid 10-digit mobile number")
	}
	var out models.PersonalDetailsRequest
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		if _, err := findStudent(tx.Document, studentID); err != nil {
			return err
		}
		for _, existing := range tx.PersonalDetailsRequests {
			if existing.StudentID == studentID && existing.Pending() {
				return ErrPendingRequest
			}
		}
		req := models.PersonalDetailsRequest{
			ID:           tx.NextID(models.CollectionDetailsUpdates),
			StudentID:    studentID,
			DetailsPatch: patch,
			Review:       models.Review{Status: models.StatusPending, RequestedAt: s.now()},
		}
		tx.PersonalDetailsRequests = append(tx.PersonalDetailsRequests, req)
		out = req
		return nil
	})
	if err == nil {
		s.Recorder.RequestTransition("personal_details", "submit")
	}
	return out, err
}

// ApproveDetailsUpdate copies every proposed field onto the student and
// closes the request in the same transaction.
func (s *Service) ApproveDetailsUpdate(ctx context.Context, requestID, wardenID int64, comments string) (models.PersonalDetailsRequest, error) {
	var out models.PersonalDetailsRequest
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		idx, err := pendingDetailsUpdate(tx.Document, requestID)
		if err != nil {
			return err
		}
		req := &tx.PersonalDetailsRequests[idx]
		userIdx, err := findStudent(tx.Document, req.StudentID)
		if err != nil {
			return err
		}
		now := s.now()
		applyPatch(&tx.Users[userIdx], req.DetailsPatch)
		tx.Users[userIdx].UpdatedAt = &now
		req.Close(models.StatusApproved, wardenID, cleanOptional(&comments), now)
		out = *req
		return nil
	})
	if err != nil {
		return models.PersonalDetailsRequest{}, err
	}
	s.Recorder.RequestTransition("personal_details", "approve")
	s.Log.Info().Int64("request_id", requestID).Int64("student_id", out.StudentID).Msg("personal details approved")
	return out, nil
}

func (s *Service) RejectDetailsUpdate(ctx context.Context, requestID, wardenID int64, comments string) (models.PersonalDetailsRequest, error) {
	var out models.PersonalDetailsRequest
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		idx, err := pendingDetailsUpdate(tx.Document, requestID)
		if err != nil {
			return err
		}
		req := &tx.PersonalDetailsRequests[idx]
		req.Close(models.StatusRejected, wardenID, cleanOptional(&comments), s.now())
		out = *req
		return nil
	})
	if err != nil {
		return models.PersonalDetailsRequest{}, err
	}
	s.Recorder.RequestTransition("personal_details", "reject")
	return out, nil
}

func (s *Service) ListDetailsUpdates(ctx context.Context) ([]DetailsUpdateView, error) {
	return s.listDetailsUpdates(ctx, nil)
}

func (s *Service) ListStudentDetailsUpdates(ctx context.Context, studentID int64) ([]DetailsUpdateView, error) {
	return s.listDetailsUpdates(ctx, &studentID)
}

func (s *Service) listDetailsUpdates(ctx context.Context, studentID *int64) ([]DetailsUpdateView, error) {
	out := []DetailsUpdateView{}
	err := s.Store.View(ctx, func(doc *models.Document) error {
		users := usersByID(doc)
		for _, req := range doc.PersonalDetailsRequests {
			if studentID != nil && req.StudentID != *studentID {
				continue
			}
			view := DetailsUpdateView{PersonalDetailsRequest: req}
			if u, ok := users[req.StudentID]; ok {
				view.StudentName = models.StringPtr(u.FullName)
				view.RollNo = u.RollNo
			}
			out = append(out, view)
		}
		return nil
	})
	sortNewestFirst(out,
		func(v DetailsUpdateView) time.Time { return v.RequestedAt },
		func(v DetailsUpdateView) int64 { return v.ID })
	return out, err
}

func pendingDetailsUpdate(doc *models.Document, id int64) (int, error) {
	for i := range doc.PersonalDetailsRequests {
		if doc.PersonalDetailsRequests[i].ID != id {
			continue
		}
		if !doc.PersonalDetailsRequests[i].Pending() {
			return -1, ErrAlreadyProcessed
		}
		return i, nil
	}
	return -1, ErrNotFound("Request not found")
}

func applyPatch(u *models.User, p models.DetailsPatch) {
	set := func(dst **string, value *string) {
		if value != nil {
			v := *value
			*dst = &v
		}
	}
	set(&u.Phone, p.Phone)
	set(&u.AddressLine1, p.AddressLine1)
	set(&u.AddressLine2, p.AddressLine2)
	set(&u.City, p.City)
	set(&u.State, p.State)
	set(&u.PostalCode, p.PostalCode)
	set(&u.GuardianName, p.GuardianName)
	set(&u.GuardianPhone, p.GuardianPhone)
	set(&u.GuardianAddress, p.GuardianAddress)
}
