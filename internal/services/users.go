package services

import (
	"context"
	"strings"
	"time"

	"hostel-backend-go/internal/models"
	"hostel-backend-go/internal/store"
)

const minPasswordLength = 6

// UserView is a user as exposed over the API. The outer PasswordHash is
// always empty so the stored hash never reaches a response.
type UserView struct {
	models.User
	PasswordHash string `json:"password_hash,omitempty"`
}

func NewUserView(u models.User) UserView {
	return UserView{User: u}
}

type SessionUser struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	Role       string  `json:"role"`
	FullName   string  `json:"full_name"`
	Email      *string `json:"email"`
	FirstLogin bool    `json:"first_login"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      SessionUser `json:"user"`
}

type WardenContact struct {
	FullName         string  `json:"full_name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	OfficeHours      string  `json:"office_hours"`
	EmergencyContact string  `json:"emergency_contact"`
}

func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	var user models.User
	found := false
	if err := s.Store.View(ctx, func(doc *models.Document) error {
		for _, u := range doc.Users {
			if u.Username == username {
				user, found = u, true
				return nil
			}
		}
		return nil
	}); err != nil {
		return LoginResult{}, err
	}
	if !found || !s.Tokens.VerifyPassword(password, user.PasswordHash) {
		s.Log.Warn().Str("username", username).Msg("login failed")
		return LoginResult{}, ErrInvalidCredentials
	}
	token, exp, err := s.Tokens.CreateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return LoginResult{}, WrapError(err, "sign token")
	}
	return LoginResult{
		Token:     token,
		ExpiresAt: exp,
		User: SessionUser{
			ID:         user.ID,
			Username:   user.Username,
			Role:       user.Role,
			FullName:   user.FullName,
			Email:      user.Email,
			FirstLogin: user.FirstLogin,
		},
	}, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (UserView, error) {
	var out UserView
	err := s.Store.View(ctx, func(doc *models.Document) error {
		idx := findUser(doc, userID)
		if idx < 0 {
			return ErrNotFound("User not found")
		}
		out = NewUserView(doc.Users[idx])
		return nil
	})
	return out, err
}

// ChangePassword verifies current before storing a hash of next. The first
// successful change clears FirstLogin.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrValidation("New password must be at least 6 characters long")
	}
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Tokens.VerifyPassword(current, profile.User.PasswordHash) {
		return ErrIncorrectPassword
	}
	hash, err := s.Tokens.HashPassword(next)
	if err != nil {
		return WrapError(err, "hash password")
	}
	return s.Store.Update(ctx, func(tx *store.Tx) error {
		idx := findUser(tx.Document, userID)
		if idx < 0 {
			return ErrNotFound("User not found")
		}
		if tx.Users[idx].PasswordHash != profile.User.PasswordHash {
			return ErrConflict("Password was changed concurrently")
		}
		now := s.now()
		tx.Users[idx].PasswordHash = hash
		tx.Users[idx].FirstLogin = false
		tx.Users[idx].UpdatedAt = &now
		return nil
	})
}

func (s *Service) WardenContact(ctx context.Context) (WardenContact, error) {
	var out WardenContact
	err := s.Store.View(ctx, func(doc *models.Document) error {
		for _, u := range doc.Users {
			if u.Role == models.RoleWarden {
				out = WardenContact{
					FullName:         u.FullName,
					Email:            u.Email,
					Phone:            u.Phone,
					OfficeHours:      "9:00 AM - 5:00 PM (Monday to Friday)",
					EmergencyContact: "Available 24/7 for emergencies",
				}
				return nil
			}
		}
		return ErrNotFound("Warden contact information not available")
	})
	return out, err
}
