package api

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/pms/internal/auth"
	"github.com/mmynk/pms/internal/middleware"
	"github.com/mmynk/pms/internal/models"
)

const (
	RegisterProcedure       = "/pms.v1.AuthService/Register"
	LoginProcedure          = "/pms.v1.AuthService/Login"
	GetCurrentUserProcedure = "/pms.v1.AuthService/GetCurrentUser"
)

// User is a staff account as returned to clients.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

func toUser(u *models.User) *User {
	return &User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

// RegisterRequest creates a staff account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// LoginRequest exchanges credentials for a session token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by Register and Login.
type Session struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// GetCurrentUserRequest takes no fields; the user comes from the token.
type GetCurrentUserRequest struct{}

// GetCurrentUserResponse wraps the authenticated user.
type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

func (s *Server) registerAuth() {
	handle(s, RegisterProcedure, s.register)
	handle(s, LoginProcedure, s.login)
	handle(s, GetCurrentUserProcedure, s.currentUser)
}

func (s *Server) register(ctx context.Context, req *RegisterRequest) (*Session, error) {
	user, err := s.authn.Register(ctx, req.Email, req.DisplayName, req.Password)
	if err != nil {
		slog.Warn("Registration failed", "email", req.Email, "error", err)
		return nil, err
	}
	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	return s.session(user)
}

func (s *Server) login(ctx context.Context, req *LoginRequest) (*Session, error) {
	user, err := s.authn.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		slog.Warn("Login failed", "email", req.Email, "error", err)
		return nil, err
	}
	slog.Info("User logged in", "user_id", user.ID)
	return s.session(user)
}

func (s *Server) currentUser(ctx context.Context, _ *GetCurrentUserRequest) (*GetCurrentUserResponse, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	user, err := s.authn.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &GetCurrentUserResponse{User: toUser(user)}, nil
}

func (s *Server) session(user *models.User) (*Session, error) {
	token, expires, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: toUser(user), Token: token, ExpiresAt: expires.Unix()}, nil
}
