package httpapi

import (
	"net/http"
	"strings"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

type OccupancyHistoryResponse struct {
	Items []services.OccupancySample `json:"items"`
}

func (s *Server) OccupancyHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 120)
	if limit > 500 {
		limit = 500
	}
	WriteJSON(w, http.StatusOK, OccupancyHistoryResponse{Items: s.Hub.History(limit)})
}

// OccupancySocket streams occupancy samples to a warden. Browsers cannot set
// headers on websocket requests, so the token comes in the query string.
func (s *Server) OccupancySocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("token")
	if query == "" {
		writeKind(w, services.ErrAuthRequired)
		return
	}
	claims, err := s.Tokens.ParseToken(query)
	if err != nil {
		writeKind(w, services.ErrAuthRequired)
		return
	}
	if claims.Role != models.RoleWarden {
		writeKind(w, services.ErrInsufficientRole)
		return
	}
	upgrader := websocket.Upgrader{CheckOrigin: s.allowedOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	for _, sample := range s.Hub.History(1) {
		_ = conn.WriteJSON(sample)
	}
	s.Hub.Add(conn)
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.Config.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
