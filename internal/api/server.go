// Package api exposes the booking core as Connect procedures with a JSON
// codec, and serves them together with health and metrics over echo.
package api

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/pms/internal/auth"
	"github.com/mmynk/pms/internal/middleware"
	"github.com/mmynk/pms/internal/models"
	"github.com/mmynk/pms/internal/service"
)

// Server registers every procedure on its own mux.
type Server struct {
	svc     *service.Services
	authn   auth.Authenticator
	tokens  *auth.JWTManager
	mux     *http.ServeMux
	opts    []connect.HandlerOption
	checker *validator.Validate
}

// New builds the server and registers all procedures.
// Every procedure except Register and Login requires a Bearer token.
func New(svc *service.Services, authn auth.Authenticator, tokens *auth.JWTManager) *Server {
	s := &Server{
		svc:     svc,
		authn:   authn,
		tokens:  tokens,
		mux:     http.NewServeMux(),
		checker: newValidator(),
	}
	s.opts = []connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(
			middleware.RequireAuth(tokens, RegisterProcedure, LoginProcedure),
			middleware.LoggingInterceptor(),
		),
	}

	s.registerAuth()
	s.registerGuests()
	s.registerInventory()
	s.registerBookings()
	s.registerPayments()
	s.registerCash()
	return s
}

// Handler serves the registered procedures.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// handle registers one unary procedure. Requests are validated against their
// struct tags before fn runs; errors from fn are mapped to Connect codes.
func handle[Req, Res any](s *Server, procedure string, fn func(context.Context, *Req) (*Res, error)) {
	s.mux.Handle(procedure, connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			if err := s.checker.StructCtx(ctx, req.Msg); err != nil {
				return nil, toConnectError(fromValidator(err))
			}
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		s.opts...,
	))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseDate parses an already validated YYYY-MM-DD field. Empty means zero.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: field, Msg: err.Error()}
	}
	return t, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// actor is the authenticated staff member recorded as created_by.
func actor(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}
