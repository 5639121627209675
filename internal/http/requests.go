package httpapi

import (
	"net/http"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type RoomChangeRequestBody struct {
	RequestedRoomID    int64  `json:"requested_room_id" validate:"required,gt=0"`
	RequestedBedNumber int    `json:"requested_bed_number" validate:"required,gt=0"`
	Reason             string `json:"reason" validate:"max=500"`
}

type DetailsUpdateBody struct {
	Phone           *string `json:"phone"`
	AddressLine1    *string `json:"address_line1" validate:"omitempty,max=200"`
	AddressLine2    *string `json:"address_line2" validate:"omitempty,max=200"`
	City            *string `json:"city" validate:"omitempty,max=100"`
	State           *string `json:"state" validate:"omitempty,max=100"`
	PostalCode      *string `json:"postal_code" validate:"omitempty,max=12"`
	GuardianName    *string `json:"guardian_name" validate:"omitempty,max=120"`
	GuardianPhone   *string `json:"guardian_phone"`
	GuardianAddress *string `json:"guardian_address" validate:"omitempty,max=300"`
}

type ReviewBody struct {
	Comments string `json:"comments" validate:"max=500"`
}

const (
	actionApprove = "approve"
	actionReject  = "reject"
)

// reviewAction reads the request id and the approve/reject action of a
// warden review call together with its optional comments.
func reviewAction(w http.ResponseWriter, r *http.Request) (int64, string, string, error) {
	id, err := pathID(r, "requestId")
	if err != nil {
		return 0, "", "", err
	}
	action := chi.URLParam(r, "action")
	if action != actionApprove && action != actionReject {
		return 0, "", "", services.ErrValidation("Action must be approve or reject")
	}
	var body ReviewBody
	if err := decodeJSON(w, r, &body); err != nil {
		return 0, "", "", err
	}
	return id, action, body.Comments, nil
}

func pastTense(action string) string {
	if action == actionApprove {
		return "approved"
	}
	return "rejected"
}

func (s *Server) SubmitRoomChange(w http.ResponseWriter, r *http.Request) {
	var req RoomChangeRequestBody
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.Service.SubmitRoomChange(r.Context(), CurrentUserID(r), services.RoomChangeInput{
		RequestedRoomID:    req.RequestedRoomID,
		RequestedBedNumber: req.RequestedBedNumber,
		Reason:             req.Reason,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, struct {
		Message string                   `json:"message"`
		Request models.RoomChangeRequest `json:"request"`
	}{"Room change request submitted successfully", created})
}

func (s *Server) StudentRoomChanges(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListStudentRoomChanges(r.Context(), CurrentUserID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) ListRoomChanges(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListRoomChanges(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) ProcessRoomChange(w http.ResponseWriter, r *http.Request) {
	id, action, comments, err := reviewAction(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	wardenID := CurrentUserID(r)
	if action == actionApprove {
		_, err = s.Service.ApproveRoomChange(r.Context(), id, wardenID, comments)
	} else {
		_, err = s.Service.RejectRoomChange(r.Context(), id, wardenID, comments)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Room change request " + pastTense(action) + " successfully"})
}

func (s *Server) SubmitDetailsUpdate(w http.ResponseWriter, r *http.Request) {
	var req DetailsUpdateBody
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.Service.SubmitDetailsUpdate(r.Context(), CurrentUserID(r), models.DetailsPatch{
		Phone:           req.Phone,
		AddressLine1:    req.AddressLine1,
		AddressLine2:    req.AddressLine2,
		City:            req.City,
		State:           req.State,
		PostalCode:      req.PostalCode,
		GuardianName:    req.GuardianName,
		GuardianPhone:   req.GuardianPhone,
		GuardianAddress: req.GuardianAddress,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, struct {
		Message string                        `json:"message"`
		Request models.PersonalDetailsRequest `json:"request"`
	}{"Personal details update request submitted successfully", created})
}

func (s *Server) StudentDetailsUpdates(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListStudentDetailsUpdates(r.Context(), CurrentUserID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) ListDetailsUpdates(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListDetailsUpdates(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) ProcessDetailsUpdate(w http.ResponseWriter, r *http.Request) {
	id, action, comments, err := reviewAction(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	wardenID := CurrentUserID(r)
	if action == actionApprove {
		_, err = s.Service.ApproveDetailsUpdate(r.Context(), id, wardenID, comments)
	} else {
		_, err = s.Service.RejectDetailsUpdate(r.Context(), id, wardenID, comments)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Personal details update request " + pastTense(action) + " successfully"})
}
