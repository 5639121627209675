package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hostel-backend-go/internal/config"
	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/services"
	"hostel-backend-go/internal/store"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	server      *Server
	handler     http.Handler
	wardenID    int64
	wardenToken string
	roomID      int64
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()
	st, err := store.New(ctx, &store.MemoryBackend{})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cfg := config.Defaults()
	cfg.JWTSecret = "test-secret"
	cfg.LoginRatePerMinute = 100
	if mutate != nil {
		mutate(&cfg)
	}
	metrics := NewMetrics()
	tokens := services.TokenService{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer, AccessTTL: time.Hour}
	svc := services.New(st, tokens, metrics, zerolog.Nop())
	hash, err := bcrypt.GenerateFromPassword([]byte("warden123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	env := &testEnv{}
	err = st.Update(ctx, func(tx *store.Tx) error {
		env.wardenID = tx.NextID(models.CollectionUsers)
		tx.Users = append(tx.Users, models.User{
			ID:           env.wardenID,
			Username:     "warden",
			Role:         models.RoleWarden,
			PasswordHash: string(hash),
			FullName:     "Hostel Warden",
			Phone:        models.StringPtr("9876543210"),
			CreatedAt:    time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		t.Fatalf("seed warden: %v", err)
	}
	room, err := svc.CreateRoom(ctx, services.CreateRoomInput{RoomNumber: "R1", Floor: 1, Capacity: 2})
	if err != nil {
		t.Fatalf("room: %v", err)
	}
	env.roomID = room.ID
	if _, err := svc.CreateRoom(ctx, services.CreateRoomInput{RoomNumber: "R2", Floor: 1, Capacity: 2}); err != nil {
		t.Fatalf("room: %v", err)
	}
	env.server = NewServer(svc, cfg, services.NewOccupancyHub(10), metrics, zerolog.Nop())
	env.handler = env.server.Router()
	env.wardenToken = env.token(t, env.wardenID, "warden", models.RoleWarden)
	return env
}

func (e *testEnv) token(t *testing.T, id int64, username, role string) string {
	t.Helper()
	token, _, err := e.server.Tokens.CreateAccessToken(id, username, role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	var body ErrorResponse
	decode(t, rec, &body)
	if body.Code != code || body.Error == "" {
		t.Fatalf("expected code %s, got %+v", code, body)
	}
	return body
}

// createStudent registers a student through the API and returns its id and
// a token for it.
func (e *testEnv) createStudent(t *testing.T, rollNo, name, phone string) (int64, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/warden/create-student", e.wardenToken, map[string]string{
		"roll_no":   rollNo,
		"full_name": name,
		"phone":     phone,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create student: %d %s", rec.Code, rec.Body.String())
	}
	var created services.CreatedStudent
	decode(t, rec, &created)
	if created.Credentials.Username != rollNo || len(created.Credentials.Password) != 8 {
		t.Fatalf("unexpected credentials %+v", created.Credentials)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Fatalf("response leaks the password hash: %s", rec.Body.String())
	}
	return created.Student.ID, e.token(t, created.Student.ID, rollNo, models.RoleStudent)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{Username: "warden", Password: "warden123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var result services.LoginResult
	decode(t, rec, &result)
	if result.Token == "" || result.User.Role != models.RoleWarden || result.User.FullName != "Hostel Warden" {
		t.Fatalf("unexpected login result %+v", result)
	}
	profile := env.do(t, http.MethodGet, "/api/profile", result.Token, nil)
	if profile.Code != http.StatusOK || !strings.Contains(profile.Body.String(), `"username":"warden"`) {
		t.Fatalf("profile with issued token: %d %s", profile.Code, profile.Body.String())
	}

	bad := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{Username: "warden", Password: "nope"})
	expectError(t, bad, http.StatusUnauthorized, "AUTH_REQUIRED")
	missing := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "warden"})
	body := expectError(t, missing, http.StatusBadRequest, "VALIDATION_FAILED")
	if !strings.Contains(body.Error, "password is required") {
		t.Fatalf("unexpected validation message %q", body.Error)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.LoginRatePerMinute = 2 })
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{Username: "warden", Password: "nope"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{Username: "warden", Password: "warden123"})
	expectError(t, rec, http.StatusTooManyRequests, "RATE_LIMITED")
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestAuthAndRoleGuards(t *testing.T) {
	env := newTestEnv(t, nil)
	expectError(t, env.do(t, http.MethodGet, "/api/rooms", "", nil), http.StatusUnauthorized, "AUTH_REQUIRED")
	expectError(t, env.do(t, http.MethodGet, "/api/rooms", "garbage", nil), http.StatusUnauthorized, "AUTH_REQUIRED")

	other := services.TokenService{Secret: []byte("other"), Issuer: "hostel", AccessTTL: time.Hour}
	forged, _, _ := other.CreateAccessToken(env.wardenID, "warden", models.RoleWarden)
	expectError(t, env.do(t, http.MethodGet, "/api/warden/students", forged, nil), http.StatusUnauthorized, "AUTH_REQUIRED")

	_, studentToken := env.createStudent(t, "21CS001", "Asha Rao", "9876501234")
	expectError(t, env.do(t, http.MethodGet, "/api/warden/students", studentToken, nil), http.StatusForbidden, "FORBIDDEN")
	expectError(t, env.do(t, http.MethodGet, "/api/student/my-room", env.wardenToken, nil), http.StatusForbidden, "FORBIDDEN")
	if rec := env.do(t, http.MethodGet, "/api/rooms", studentToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("rooms for student: %d", rec.Code)
	}
}

func TestAssignmentAndRoomChangeFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	s1, s1Token := env.createStudent(t, "S1", "Student One", "9000000001")
	s2, _ := env.createStudent(t, "S2", "Student Two", "9000000002")

	assign := env.do(t, http.MethodPost, "/api/warden/assign-room", env.wardenToken, BedRequest{StudentID: s1, RoomID: env.roomID, BedNumber: 1})
	if assign.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", assign.Code, assign.Body.String())
	}
	taken := env.do(t, http.MethodPost, "/api/warden/assign-room", env.wardenToken, BedRequest{StudentID: s2, RoomID: env.roomID, BedNumber: 1})
	expectError(t, taken, http.StatusConflict, "BED_UNAVAILABLE")
	missing := env.do(t, http.MethodPost, "/api/warden/assign-room", env.wardenToken, BedRequest{StudentID: s2, RoomID: env.roomID, BedNumber: 7})
	expectError(t, missing, http.StatusNotFound, "BED_NOT_FOUND")

	var rooms []services.RoomOccupancy
	decode(t, env.do(t, http.MethodGet, "/api/rooms", s1Token, nil), &rooms)
	if len(rooms) != 2 || rooms[0].OccupiedBeds != 1 || rooms[0].AvailableBeds != 1 {
		t.Fatalf("unexpected rooms %+v", rooms)
	}

	r2 := rooms[1].ID
	submit := env.do(t, http.MethodPost, "/api/student/room-change-request", s1Token, RoomChangeRequestBody{RequestedRoomID: r2, RequestedBedNumber: 2, Reason: "closer to the stairs"})
	if submit.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", submit.Code, submit.Body.String())
	}
	var list []services.RoomChangeView
	decode(t, env.do(t, http.MethodGet, "/api/warden/room-change-requests", env.wardenToken, nil), &list)
	if len(list) != 1 || models.Deref(list[0].CurrentRoom) != "R1" || models.Deref(list[0].RequestedRoom) != "R2" {
		t.Fatalf("unexpected requests %+v", list)
	}
	path := fmt.Sprintf("/api/warden/room-change-requests/%d/approve", list[0].ID)
	expectError(t, env.do(t, http.MethodPut, fmt.Sprintf("/api/warden/room-change-requests/%d/maybe", list[0].ID), env.wardenToken, nil), http.StatusBadRequest, "VALIDATION_FAILED")
	approve := env.do(t, http.MethodPut, path, env.wardenToken, ReviewBody{Comments: "granted"})
	if approve.Code != http.StatusOK || !strings.Contains(approve.Body.String(), "approved") {
		t.Fatalf("approve: %d %s", approve.Code, approve.Body.String())
	}
	expectError(t, env.do(t, http.MethodPut, path, env.wardenToken, nil), http.StatusConflict, "ALREADY_PROCESSED")

	var mine services.MyRoom
	decode(t, env.do(t, http.MethodGet, "/api/student/my-room", s1Token, nil), &mine)
	if mine.RoomNumber != "R2" || mine.BedNumber != 2 {
		t.Fatalf("unexpected my room %+v", mine)
	}
	var detail services.RoomDetail
	decode(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/rooms/%d", env.roomID), s1Token, nil), &detail)
	if detail.Beds[0].Status != models.BedAvailable || detail.Beds[0].StudentID != nil {
		t.Fatalf("source bed should be free: %+v", detail.Beds[0])
	}
	var own []services.RoomChangeView
	decode(t, env.do(t, http.MethodGet, "/api/student/room-change-requests", s1Token, nil), &own)
	if len(own) != 1 || own[0].Status != models.StatusApproved || models.Deref(own[0].Comments) != "granted" {
		t.Fatalf("unexpected own requests %+v", own)
	}

	vacate := env.do(t, http.MethodPost, "/api/warden/vacate-bed", env.wardenToken, BedRequest{RoomID: r2, BedNumber: 2})
	if vacate.Code != http.StatusOK {
		t.Fatalf("vacate: %d %s", vacate.Code, vacate.Body.String())
	}
	expectError(t, env.do(t, http.MethodGet, "/api/student/my-room", s1Token, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestPersonalDetailsFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	s1, s1Token := env.createStudent(t, "S1", "Student One", "9000000001")

	bad := env.do(t, http.MethodPost, "/api/student/personal-details-update-request", s1Token, map[string]string{"phone": "12"})
	expectError(t, bad, http.StatusBadRequest, "VALIDATION_FAILED")
	submit := env.do(t, http.MethodPost, "/api/student/personal-details-update-request", s1Token, map[string]string{"phone": "9111111111"})
	if submit.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", submit.Code, submit.Body.String())
	}
	again := env.do(t, http.MethodPost, "/api/student/personal-details-update-request", s1Token, map[string]string{"city": "Pune"})
	expectError(t, again, http.StatusConflict, "PENDING_REQUEST_EXISTS")

	var list []services.DetailsUpdateView
	decode(t, env.do(t, http.MethodGet, "/api/warden/personal-details-update-requests", env.wardenToken, nil), &list)
	if len(list) != 1 || models.Deref(list[0].RollNo) != "S1" || models.Deref(list[0].Phone) != "9111111111" {
		t.Fatalf("unexpected list %+v", list)
	}
	approve := env.do(t, http.MethodPut, fmt.Sprintf("/api/warden/personal-details-update-requests/%d/approve", list[0].ID), env.wardenToken, nil)
	if approve.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", approve.Code, approve.Body.String())
	}
	var student services.StudentView
	decode(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/warden/students/%d", s1), env.wardenToken, nil), &student)
	if models.Deref(student.Phone) != "9111111111" || student.FullName != "Student One" || student.City != nil {
		t.Fatalf("unexpected student after approval %+v", student.User)
	}
}

func TestStudentManagement(t *testing.T) {
	env := newTestEnv(t, nil)
	invalid := env.do(t, http.MethodPost, "/api/warden/create-student", env.wardenToken, map[string]string{"full_name": "No Roll"})
	body := expectError(t, invalid, http.StatusBadRequest, "VALIDATION_FAILED")
	if !strings.Contains(body.Error, "roll_no is required") {
		t.Fatalf("unexpected message %q", body.Error)
	}
	s1, _ := env.createStudent(t, "S1", "Student One", "9000000001")
	dup := env.do(t, http.MethodPost, "/api/warden/create-student", env.wardenToken, map[string]string{"roll_no": "S1", "full_name": "Again"})
	expectError(t, dup, http.StatusConflict, "DUPLICATE_USERNAME")

	update := env.do(t, http.MethodPut, fmt.Sprintf("/api/warden/students/%d", s1), env.wardenToken, map[string]string{"branch": "ECE"})
	if update.Code != http.StatusOK || !strings.Contains(update.Body.String(), `"branch":"ECE"`) {
		t.Fatalf("update: %d %s", update.Code, update.Body.String())
	}
	var students []services.StudentView
	decode(t, env.do(t, http.MethodGet, "/api/warden/students", env.wardenToken, nil), &students)
	if len(students) != 1 || students[0].ID != s1 {
		t.Fatalf("unexpected students %+v", students)
	}
	if rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/warden/students/%d", s1), env.wardenToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	expectError(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/warden/students/%d", s1), env.wardenToken, nil), http.StatusNotFound, "NOT_FOUND")
	expectError(t, env.do(t, http.MethodGet, "/api/warden/students/abc", env.wardenToken, nil), http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestChangePasswordEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	short := env.do(t, http.MethodPost, "/api/change-password", env.wardenToken, ChangePasswordRequest{CurrentPassword: "warden123", NewPassword: "abc"})
	expectError(t, short, http.StatusBadRequest, "VALIDATION_FAILED")
	wrong := env.do(t, http.MethodPost, "/api/change-password", env.wardenToken, ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass1"})
	body := expectError(t, wrong, http.StatusBadRequest, "VALIDATION_FAILED")
	if body.Error != "Current password is incorrect" {
		t.Fatalf("unexpected message %q", body.Error)
	}
	ok := env.do(t, http.MethodPost, "/api/change-password", env.wardenToken, ChangePasswordRequest{CurrentPassword: "warden123", NewPassword: "newpass1"})
	if ok.Code != http.StatusOK {
		t.Fatalf("change: %d %s", ok.Code, ok.Body.String())
	}
	login := env.do(t, http.MethodPost, "/api/login", "", LoginRequest{Username: "warden", Password: "newpass1"})
	if login.Code != http.StatusOK {
		t.Fatalf("login with new password: %d", login.Code)
	}
}

func TestFoodMenuAndRooms(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, item := range []MenuItemRequest{
		{DayOfWeek: "Wednesday", MealType: "lunch", Items: "Rice"},
		{DayOfWeek: "Monday", MealType: "dinner", Items: "Roti"},
	} {
		if rec := env.do(t, http.MethodPost, "/api/warden/food-menu", env.wardenToken, item); rec.Code != http.StatusCreated {
			t.Fatalf("create menu: %d %s", rec.Code, rec.Body.String())
		}
	}
	var items []models.FoodMenuItem
	decode(t, env.do(t, http.MethodGet, "/api/food-menu", env.wardenToken, nil), &items)
	if len(items) != 2 || items[0].DayOfWeek != "Monday" {
		t.Fatalf("unexpected menu %+v", items)
	}
	var filtered []models.FoodMenuItem
	decode(t, env.do(t, http.MethodGet, "/api/food-menu?day_of_week=wednesday", env.wardenToken, nil), &filtered)
	if len(filtered) != 1 || filtered[0].Items != "Rice" {
		t.Fatalf("unexpected filtered menu %+v", filtered)
	}
	dup := env.do(t, http.MethodPost, "/api/warden/food-menu", env.wardenToken, MenuItemRequest{DayOfWeek: "Monday", MealType: "dinner", Items: "x"})
	expectError(t, dup, http.StatusConflict, "DUPLICATE")
	if rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/warden/food-menu/%d", items[0].ID), env.wardenToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete menu: %d", rec.Code)
	}

	room := env.do(t, http.MethodPost, "/api/warden/rooms", env.wardenToken, CreateRoomRequest{RoomNumber: "R3", Floor: 2, Capacity: 3})
	if room.Code != http.StatusCreated {
		t.Fatalf("create room: %d %s", room.Code, room.Body.String())
	}
	tooBig := env.do(t, http.MethodPost, "/api/warden/rooms", env.wardenToken, CreateRoomRequest{RoomNumber: "R4", Capacity: 40})
	expectError(t, tooBig, http.StatusBadRequest, "VALIDATION_FAILED")
	expectError(t, env.do(t, http.MethodGet, "/api/rooms/999", env.wardenToken, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	health := env.do(t, http.MethodGet, "/healthz", "", nil)
	if health.Code != http.StatusOK || health.Header().Get(requestIDHeader) == "" {
		t.Fatalf("health: %d %v", health.Code, health.Header())
	}
	_ = env.do(t, http.MethodPost, "/api/warden/assign-room", env.wardenToken, BedRequest{StudentID: 99, RoomID: env.roomID, BedNumber: 1})
	metrics := env.do(t, http.MethodGet, "/metrics", "", nil)
	text := metrics.Body.String()
	for _, name := range []string{"hostel_http_requests_total", "hostel_bed_operations_total", "hostel_http_request_duration_seconds"} {
		if !strings.Contains(text, name) {
			t.Fatalf("metrics output misses %s", name)
		}
	}
	expectError(t, env.do(t, http.MethodGet, "/api/warden/backups", env.wardenToken, nil), http.StatusNotFound, "BACKUPS_DISABLED")

	env.server.Hub.Broadcast(services.OccupancySample{OccupancySummary: services.OccupancySummary{OccupiedBeds: 1}})
	var history OccupancyHistoryResponse
	decode(t, env.do(t, http.MethodGet, "/api/warden/occupancy/history?limit=5", env.wardenToken, nil), &history)
	if len(history.Items) != 1 || history.Items[0].OccupiedBeds != 1 {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestOccupancySocket(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = env.server.Hub.Run(ctx) }()
	srv := httptest.NewServer(env.handler)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/occupancy?token="

	_, studentToken := env.createStudent(t, "S1", "Student One", "9000000001")
	_, resp, err := websocket.DefaultDialer.Dial(base+studentToken, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %v %v", resp, err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+env.wardenToken, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for env.server.Hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	env.server.Hub.Broadcast(services.OccupancySample{OccupancySummary: services.OccupancySummary{Rooms: 2, OccupiedBeds: 3}})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var sample services.OccupancySample
	if err := conn.ReadJSON(&sample); err != nil {
		t.Fatalf("read: %v", err)
	}
	if sample.Rooms != 2 || sample.OccupiedBeds != 3 {
		t.Fatalf("unexpected sample %+v", sample)
	}
}

func TestWardenContact(t *testing.T) {
	env := newTestEnv(t, nil)
	_, s1Token := env.createStudent(t, "S1", "Student One", "9000000001")
	rec := env.do(t, http.MethodGet, "/api/student/warden-contact", s1Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("warden contact: %d %s", rec.Code, rec.Body.String())
	}
	var contact services.WardenContact
	decode(t, rec, &contact)
	if contact.FullName != "Hostel Warden" || models.Deref(contact.Phone) != "9876543210" || contact.OfficeHours == "" {
		t.Fatalf("unexpected contact %+v", contact)
	}
}
