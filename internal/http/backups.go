package httpapi

import (
	"net/http"

	"hostel-backend-go/internal/backup"
)

type BackupListResponse struct {
	Items []backup.Info `json:"items"`
}

func (s *Server) CreateBackup(w http.ResponseWriter, r *http.Request) {
	info, err := s.Service.CreateBackup(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, info)
}

func (s *Server) ListBackups(w http.ResponseWriter, r *http.Request) {
	items, err := s.Service.ListBackups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, BackupListResponse{Items: items})
}
