package httpapi

import (
	"net/http"

	"hostel-backend-go/internal/services"
)

type CreateStudentRequest struct {
	RollNo          string  `json:"roll_no" validate:"required,max=32"`
	FullName        string  `json:"full_name" validate:"required,max=120"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Phone           *string `json:"phone"`
	DateOfBirth     *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender          *string `json:"gender"`
	AadhaarID       *string `json:"aadhaar_id"`
	Stream          *string `json:"stream"`
	Branch          *string `json:"branch"`
	AddressLine1    *string `json:"address_line1"`
	AddressLine2    *string `json:"address_line2"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	PostalCode      *string `json:"postal_code"`
	GuardianName    *string `json:"guardian_name"`
	GuardianPhone   *string `json:"guardian_phone"`
	GuardianAddress *string `json:"guardian_address"`
}

type UpdateStudentRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Stream   *string `json:"stream"`
	Branch   *string `json:"branch"`
}

func (s *Server) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.Service.CreateStudent(r.Context(), services.CreateStudentInput{
		RollNo:          req.RollNo,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		DateOfBirth:     req.DateOfBirth,
		Gender:          req.Gender,
		AadhaarID:       req.AadhaarID,
		Stream:          req.Stream,
		Branch:          req.Branch,
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
	WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.Service.ListStudents(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, students)
}

func (s *Server) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	student, err := s.Service.GetStudent(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req UpdateStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	student, err := s.Service.UpdateStudent(r.Context(), id, services.UpdateStudentInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Stream:   req.Stream,
		Branch:   req.Branch,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, student)
}

func (s *Server) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "studentId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Service.DeleteStudent(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Student deleted successfully"})
}

func (s *Server) WardenContact(w http.ResponseWriter, r *http.Request) {
	contact, err := s.Service.WardenContact(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, contact)
}
