package models

import "time"

const (
	RoleStudent = "student"
	RoleWarden  = "warden"

	BedAvailable = "available"
	BedOccupied  = "occupied"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Collection names double as JSON keys of the document and as bucket names
// in the SQL backends.
const (
	CollectionUsers          = "users"
	CollectionRooms          = "rooms"
	CollectionBeds           = "beds"
	CollectionRoomChanges    = "room_change_requests"
	CollectionDetailsUpdates = "personal_details_requests"
	CollectionFoodMenu       = "food_menu"
	CollectionSequences      = "sequences"
)

var Collections = []string{
	CollectionUsers,
	CollectionRooms,
	CollectionBeds,
	CollectionRoomChanges,
	CollectionDetailsUpdates,
	CollectionFoodMenu,
	CollectionSequences,
}

type User struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Role            string     `json:"role"`
	PasswordHash    string     `json:"password_hash"`
	FullName        string     `json:"full_name"`
	Email           *string    `json:"email,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	DateOfBirth     *string    `json:"date_of_birth,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	AadhaarID       *string    `json:"aadhaar_id,omitempty"`
	RollNo          *string    `json:"roll_no,omitempty"`
	Stream          *string    `json:"stream,omitempty"`
	Branch          *string    `json:"branch,omitempty"`
	AddressLine1    *string    `json:"address_line1,omitempty"`
	AddressLine2    *string    `json:"address_line2,omitempty"`
	City            *string    `json:"city,omitempty"`
	State           *string    `json:"state,omitempty"`
	PostalCode      *string    `json:"postal_code,omitempty"`
	GuardianName    *string    `json:"guardian_name,omitempty"`
	GuardianPhone   *string    `json:"guardian_phone,omitempty"`
	GuardianAddress *string    `json:"guardian_address,omitempty"`
	FirstLogin      bool       `json:"first_login"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	ID         int64     `json:"id"`
	RoomNumber string    `json:"room_number"`
	Floor      int       `json:"floor"`
	Capacity   int       `json:"capacity"`
	RoomType   string    `json:"room_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Bed is occupied exactly when StudentID is set.
type Bed struct {
	ID        int64  `json:"id"`
	RoomID    int64  `json:"room_id"`
	BedNumber int    `json:"bed_number"`
	Status    string `json:"status"`
	StudentID *int64 `json:"student_id"`
}

func (b Bed) Available() bool {
	return b.Status == BedAvailable && b.StudentID == nil
}

// Review is the status and audit trail shared by both request kinds.
type Review struct {
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	ProcessedBy *int64     `json:"processed_by"`
	Comments    *string    `json:"comments"`
}

func (r Review) Pending() bool {
	return r.Status == StatusPending
}

// Close moves a pending review to status and stamps the audit fields.
func (r *Review) Close(status string, wardenID int64, comments *string, at time.Time) {
	r.Status = status
	r.ProcessedAt = &at
	r.ProcessedBy = &wardenID
	r.Comments = comments
}

type RoomChangeRequest struct {
	ID                 int64  `json:"id"`
	StudentID          int64  `json:"student_id"`
	CurrentRoomID      *int64 `json:"current_room_id"`
	CurrentBedNumber   *int   `json:"current_bed_number"`
	RequestedRoomID    int64  `json:"requested_room_id"`
	RequestedBedNumber int    `json:"requested_bed_number"`
	Reason             string `json:"reason"`
	Review
}

// DetailsPatch carries the proposed profile fields; nil means untouched.
type DetailsPatch struct {
	Phone           *string `json:"phone,omitempty"`
	AddressLine1    *string `json:"address_line1,omitempty"`
	AddressLine2    *string `json:"address_line2,omitempty"`
	City            *string `json:"city,omitempty"`
	State           *string `json:"state,omitempty"`
	PostalCode      *string `json:"postal_code,omitempty"`
	GuardianName    *string `json:"guardian_name,omitempty"`
	GuardianPhone   *string `json:"guardian_phone,omitempty"`
	GuardianAddress *string `json:"guardian_address,omitempty"`
}

type PersonalDetailsRequest struct {
	ID        int64 `json:"id"`
	StudentID int64 `json:"student_id"`
	DetailsPatch
	Review
}

type FoodMenuItem struct {
	ID        int64     `json:"id"`
	DayOfWeek string    `json:"day_of_week"`
	MealType  string    `json:"meal_type"`
	Items     string    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is the whole persisted state.
type Document struct {
	Users                   []User                   `json:"users"`
	Rooms                   []Room                   `json:"rooms"`
	Beds                    []Bed                    `json:"beds"`
	RoomChangeRequests      []RoomChangeRequest      `json:"room_change_requests"`
	PersonalDetailsRequests []PersonalDetailsRequest `json:"personal_details_requests"`
	FoodMenu                []FoodMenuItem           `json:"food_menu"`
	Sequences               map[string]int64         `json:"sequences"`
}

func NewDocument() *Document {
	return &Document{
		Users:                   []User{},
		Rooms:                   []Room{},
		Beds:                    []Bed{},
		RoomChangeRequests:      []RoomChangeRequest{},
		PersonalDetailsRequests: []PersonalDetailsRequest{},
		FoodMenu:                []FoodMenuItem{},
		Sequences:               map[string]int64{},
	}
}

func StringPtr(value string) *string {
	return &value
}

func Int64Ptr(value int64) *int64 {
	return &value
}

func IntPtr(value int) *int {
	return &value
}

// Deref returns the pointed-to string or "".
func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
