package services

import (
	"sort"
	"strings"
	"time"

	"hostel-backend-go/internal/backup"
	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"

	"github.com/rs/zerolog"
)

// Recorder receives domain events for metrics. A nil Recorder is replaced
// with a no-op one.
type Recorder interface {
	BedOperation(op, result string)
	RequestTransition(kind, action string)
	Occupancy(occupied, available int)
}

type nopRecorder struct{}

func (nopRecorder) BedOperation(string, string)      {}
func (nopRecorder) RequestTransition(string, string) {}
func (nopRecorder) Occupancy(int, int)               {}

// Service implements every hostel operation on top of the store. Each
// mutating method runs inside exactly one store.Update.
type Service struct {
	Store    *store.Store
	Tokens   TokenService
	Recorder Recorder
	Backups  backup.Store
	Log      zerolog.Logger
	Now      func() time.Time
}

func New(st *store.Store, tokens TokenService, recorder Recorder, logger zerolog.Logger) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		Store:    st,
		Tokens:   tokens,
		Recorder: recorder,
		Log:      logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) now() time.Time {
	return s.Now().UTC()
}

func findUser(doc *models.Document, id int64) int {
	for i := range doc.Users {
		if doc.Users[i].ID == id {
			return i
		}
	}
	return -1
}

func findStudent(doc *models.Document, id int64) (int, error) {
	idx := findUser(doc, id)
	if idx < 0 || doc.Users[idx].Role != models.RoleStudent {
		return -1, ErrNotFound("Student not found")
	}
	return idx, nil
}

func findRoom(doc *models.Document, id int64) int {
	for i := range doc.Rooms {
		if doc.Rooms[i].ID == id {
			return i
		}
	}
	return -1
}

func findBed(doc *models.Document, roomID int64, bedNumber int) int {
	for i := range doc.Beds {
		if doc.Beds[i].RoomID == roomID && doc.Beds[i].BedNumber == bedNumber {
			return i
		}
	}
	return -1
}

// bedOf returns the first bed held by the student.
func bedOf(doc *models.Document, studentID int64) int {
	for i := range doc.Beds {
		if doc.Beds[i].StudentID != nil && *doc.Beds[i].StudentID == studentID {
			return i
		}
	}
	return -1
}

func usersByID(doc *models.Document) map[int64]models.User {
	out := make(map[int64]models.User, len(doc.Users))
	for _, u := range doc.Users {
		out[u.ID] = u
	}
	return out
}

func roomNumbersByID(doc *models.Document) map[int64]string {
	out := make(map[int64]string, len(doc.Rooms))
	for _, r := range doc.Rooms {
		out[r.ID] = r.RoomNumber
	}
	return out
}

func bedCounts(doc *models.Document) (occupied, available int) {
	for _, bed := range doc.Beds {
		if bed.Status == models.BedOccupied {
			occupied++
		} else {
			available++
		}
	}
	return occupied, available
}

// cleanOptional trims value and turns blanks into nil.
func cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sortNewestFirst[T any](items []T, at func(T) time.Time, id func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		ai, aj := at(items[i]), at(items[j])
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return id(items[i]) > id(items[j])
	})
}
