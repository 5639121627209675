package httpapi

import (
	"net/http"

	"hostel-backend-go/internal/config"
	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type Server struct {
	Service      *services.Service
	Config       config.Config
	Tokens       services.TokenService
	Hub          *services.OccupancyHub
	Metrics      *Metrics
	Log          zerolog.Logger
	loginLimiter *RateLimiter
}

func NewServer(svc *services.Service, cfg config.Config, hub *services.OccupancyHub, metrics *Metrics, logger zerolog.Logger) *Server {
	return &Server{
		Service:      svc,
		Config:       cfg,
		Tokens:       svc.Tokens,
		Hub:          hub,
		Metrics:      metrics,
		Log:          logger,
		loginLimiter: NewRateLimiter(cfg.LoginRatePerMinute),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	s.useMiddleware(r)

	r.Get("/healthz", s.Health)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.With(s.loginLimiter.Middleware).Post("/login", s.Login)

		api.Group(func(authed chi.Router) {
			authed.Use(WithAuth(s.Tokens))
			authed.Get("/profile", s.Profile)
			authed.Post("/change-password", s.ChangePassword)
			authed.Get("/rooms", s.ListRooms)
			authed.Get("/rooms/{roomId}", s.RoomDetail)
			authed.Get("/food-menu", s.FoodMenu)
		})

		api.Route("/student", func(student chi.Router) {
			student.Use(WithAuth(s.Tokens))
			student.Use(RequireRole(models.RoleStudent))
			student.Get("/my-room", s.MyRoom)
			student.Get("/warden-contact", s.WardenContact)
			student.Post("/room-change-request", s.SubmitRoomChange)
			student.Get("/room-change-requests", s.StudentRoomChanges)
			student.Post("/personal-details-update-request", s.SubmitDetailsUpdate)
			student.Get("/personal-details-update-requests", s.StudentDetailsUpdates)
		})

		api.Route("/warden", func(warden chi.Router) {
			warden.Use(WithAuth(s.Tokens))
			warden.Use(RequireRole(models.RoleWarden))
			warden.Post("/create-student", s.CreateStudent)
			warden.Route("/students", func(students chi.Router) {
				students.Get("/", s.ListStudents)
				students.Get("/{studentId}", s.GetStudent)
				students.Put("/{studentId}", s.UpdateStudent)
				students.Delete("/{studentId}", s.DeleteStudent)
			})
			warden.Post("/rooms", s.CreateRoom)
			warden.Post("/assign-room", s.AssignRoom)
			warden.Post("/vacate-bed", s.VacateBed)
			warden.Route("/food-menu", func(menu chi.Router) {
				menu.Post("/", s.CreateMenuItem)
				menu.Put("/{itemId}", s.UpdateMenuItem)
				menu.Delete("/{itemId}", s.DeleteMenuItem)
			})
			warden.Get("/room-change-requests", s.ListRoomChanges)
			warden.Put("/room-change-requests/{requestId}/{action}", s.ProcessRoomChange)
			warden.Get("/personal-details-update-requests", s.ListDetailsUpdates)
			warden.Put("/personal-details-update-requests/{requestId}/{action}", s.ProcessDetailsUpdate)
			warden.Get("/occupancy/history", s.OccupancyHistory)
			warden.Get("/backups", s.ListBackups)
			warden.Post("/backups", s.CreateBackup)
		})
	})

	r.Get("/ws/occupancy", s.OccupancySocket)
	return r
}

// useMiddleware installs the stack every route shares. The logger wraps the
// recoverer so recovered panics are still logged and counted.
func (s *Server) useMiddleware(r chi.Router) {
	r.Use(RequestID)
	r.Use(RequestLogger(s.Log, s.Metrics))
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Service.OccupancySummary(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
