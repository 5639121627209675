package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"
)

const generatedPasswordLength = 8

var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

func validPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

type CreateStudentInput struct {
	RollNo          string
	FullName        string
	Email           *string
	Phone           *string
	DateOfBirth     *string
	Gender          *string
	AadhaarID       *string
	Stream          *string
	Branch          *string
	AddressLine1    *string
	AddressLine2    *string
	City            *string
	State           *string
	PostalCode      *string
	GuardianName    *string
	GuardianPhone   *string
	GuardianAddress *string
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreatedStudent struct {
	Message     string      `json:"message"`
	Credentials Credentials `json:"credentials"`
	Student     UserView    `json:"student"`
}

// StudentView adds the current bed, if any, to a student.
type StudentView struct {
	UserView
	RoomID     *int64  `json:"room_id"`
	RoomNumber *string `json:"room_number"`
	BedNumber  *int    `json:"bed_number"`
}

type UpdateStudentInput struct {
	FullName *string
	Email    *string
	Phone    *string
	Stream   *string
	Branch   *string
}

// CreateStudent registers a student whose username is the roll number and
// returns the generated password once.
func (s *Service) CreateStudent(ctx context.Context, in CreateStudentInput) (CreatedStudent, error) {
	rollNo := strings.TrimSpace(in.RollNo)
	fullName := strings.TrimSpace(in.FullName)
	if rollNo == "" || fullName == "" {
		return CreatedStudent{}, ErrValidation("Roll number and full name are required")
	}
	phone := cleanOptional(in.Phone)
	if phone != nil && !validPhone(*phone) {
		return CreatedStudent{}, ErrValidation("Phone number must be a valid 10-digit Indian mobile number starting with 6, 7, 8, or 9")
	}
	guardianPhone := cleanOptional(in.GuardianPhone)
	if guardianPhone != nil && !validPhone(*guardianPhone) {
		return CreatedStudent{}, ErrValidation("Guardian phone must be a valid 10-digit mobile number")
	}
	aadhaar := cleanOptional(in.AadhaarID)

	password, err := GeneratePassword(generatedPasswordLength)
	if err != nil {
		return CreatedStudent{}, WrapError(err, "generate password")
	}
	hash, err := s.Tokens.HashPassword(password)
	if err != nil {
		return CreatedStudent{}, WrapError(err, "hash password")
	}

	var out CreatedStudent
	err = s.Store.Update(ctx, func(tx *store.Tx) error {
		for _, u := range tx.Users {
			if u.Username == rollNo {
				return ErrDuplicateUsername
			}
			if aadhaar != nil && u.AadhaarID != nil && *u.AadhaarID == *aadhaar {
				return ErrConflict("Aadhaar ID already exists")
			}
			if phone != nil && u.Phone != nil && *u.Phone == *phone {
				return ErrConflict("Phone number already exists")
			}
		}
		student := models.User{
			ID:              tx.NextID(models.CollectionUsers),
			Username:        rollNo,
			Role:            models.RoleStudent,
			PasswordHash:    hash,
			FullName:        fullName,
			Email:           cleanOptional(in.Email),
			Phone:           phone,
			DateOfBirth:     cleanOptional(in.DateOfBirth),
			Gender:          cleanOptional(in.Gender),
			AadhaarID:       aadhaar,
			RollNo:          models.StringPtr(rollNo),
			Stream:          cleanOptional(in.Stream),
			Branch:          cleanOptional(in.Branch),
			AddressLine1:    cleanOptional(in.AddressLine1),
			AddressLine2:    cleanOptional(in.AddressLine2),
			City:            cleanOptional(in.City),
			State:           cleanOptional(in.State),
			PostalCode:      cleanOptional(in.PostalCode),
			GuardianName:    cleanOptional(in.GuardianName),
			GuardianPhone:   guardianPhone,
			GuardianAddress: cleanOptional(in.GuardianAddress),
			FirstLogin:      true,
			CreatedAt:       s.now(),
		}
		tx.Users = append(tx.Users, student)
		out = CreatedStudent{
			Message:     "Student created successfully",
			Credentials: Credentials{Username: rollNo, Password: password},
			Student:     NewUserView(student),
		}
		return nil
	})
	if err != nil {
		return CreatedStudent{}, err
	}
	s.Log.Info().Str("username", rollNo).Int64("student_id", out.Student.ID).Msg("student created")
	return out, nil
}

func (s *Service) ListStudents(ctx context.Context) ([]StudentView, error) {
	out := []StudentView{}
	err := s.Store.View(ctx, func(doc *models.Document) error {
		for _, u := range doc.Users {
			if u.Role != models.RoleStudent {
				continue
			}
			out = append(out, studentView(doc, u))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, err
}

func (s *Service) GetStudent(ctx context.Context, studentID int64) (StudentView, error) {
	var out StudentView
	err := s.Store.View(ctx, func(doc *models.Document) error {
		idx, err := findStudent(doc, studentID)
		if err != nil {
			return err
		}
		out = studentView(doc, doc.Users[idx])
		return nil
	})
	return out, err
}

func studentView(doc *models.Document, u models.User) StudentView {
	view := StudentView{UserView: NewUserView(u)}
	if idx := bedOf(doc, u.ID); idx >= 0 {
		bed := doc.Beds[idx]
		view.RoomID = models.Int64Ptr(bed.RoomID)
		view.BedNumber = models.IntPtr(bed.BedNumber)
		if roomIdx := findRoom(doc, bed.RoomID); roomIdx >= 0 {
			view.RoomNumber = models.StringPtr(doc.Rooms[roomIdx].RoomNumber)
		}
	}
	return view
}

func (s *Service) UpdateStudent(ctx context.Context, studentID int64, in UpdateStudentInput) (StudentView, error) {
	phone := cleanOptional(in.Phone)
	if phone != nil && !validPhone(*phone) {
		return StudentView{}, ErrValidation("Invalid phone number format")
	}
	var out StudentView
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		idx, err := findStudent(tx.Document, studentID)
		if err != nil {
			return err
		}
		if phone != nil {
			for _, u := range tx.Users {
				if u.ID != studentID && u.Phone != nil && *u.Phone == *phone {
					return ErrConflict("Phone number already exists")
				}
			}
		}
		u := &tx.Users[idx]
		if name := cleanOptional(in.FullName); name != nil {
			u.FullName = *name
		}
		if in.Email != nil {
			u.Email = cleanOptional(in.Email)
		}
		if phone != nil {
			u.Phone = phone
		}
		if in.Stream != nil {
			u.Stream = cleanOptional(in.Stream)
		}
		if in.Branch != nil {
			u.Branch = cleanOptional(in.Branch)
		}
		now := s.now()
		u.UpdatedAt = &now
		out = studentView(tx.Document, *u)
		return nil
	})
	return out, err
}

// DeleteStudent frees every bed the student holds, drops their requests and
// removes the account.
func (s *Service) DeleteStudent(ctx context.Context, studentID int64) error {
	var occupied, available int
	err := s.Store.Update(ctx, func(tx *store.Tx) error {
		idx, err := findStudent(tx.Document, studentID)
		if err != nil {
			return err
		}
		for i := range tx.Beds {
			if tx.Beds[i].StudentID != nil && *tx.Beds[i].StudentID == studentID {
				vacate(&tx.Beds[i])
			}
		}
		roomChanges := tx.RoomChangeRequests[:0]
		for _, req := range tx.RoomChangeRequests {
			if req.StudentID != studentID {
				roomChanges = append(roomChanges, req)
			}
		}
		tx.RoomChangeRequests = roomChanges
		details := tx.PersonalDetailsRequests[:0]
		for _, req := range tx.PersonalDetailsRequests {
			if req.StudentID != studentID {
				details = append(details, req)
			}
		}
		tx.PersonalDetailsRequests = details
		tx.Users = append(tx.Users[:idx], tx.Users[idx+1:]...)
		occupied, available = bedCounts(tx.Document)
		return nil
	})
	if err != nil {
		return err
	}
	s.Recorder.Occupancy(occupied, available)
	s.Log.Info().Int64("student_id", studentID).Msg("student deleted")
	return nil
}
