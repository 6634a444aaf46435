package api

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/pms/internal/auth"
	"github.com/mmynk/pms/internal/service"
	"github.com/mmynk/pms/internal/storage"
)

// errorFieldHeader names the offending request field of an InvalidArgument error.
const errorFieldHeader = "Pms-Error-Field"

// toConnectError maps service and storage errors to Connect codes.
// Unclassified errors are logged and returned as a bare internal error.
func toConnectError(err error) error {
	var (
		connectErr *connect.Error
		validation *service.ValidationError
		transition *service.InvalidTransitionError
		debt       *service.DebtExceededError
		refund     *service.RefundExceedsOriginalError
		funds      *service.InsufficientFundsError
	)

	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.As(err, &validation):
		cerr := connect.NewError(connect.CodeInvalidArgument, err)
		if validation.Field != "" {
			cerr.Meta().Set(errorFieldHeader, validation.Field)
		}
		return cerr
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, service.ErrUnitNotAvailable),
		errors.Is(err, storage.ErrAlreadyExists),
		errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.As(err, &transition),
		errors.As(err, &debt),
		errors.As(err, &refund),
		errors.As(err, &funds):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	slog.Error("Unhandled error", "error", err)
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

// fromValidator reports the first failed struct tag as a ValidationError.
func fromValidator(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	msg := "is invalid"
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "email":
		msg = "must be an email address"
	case "datetime":
		msg = "must be a YYYY-MM-DD date"
	case "oneof":
		msg = "must be one of: " + fe.Param()
	case "min", "gte":
		msg = "must be at least " + fe.Param()
	case "max", "lte":
		msg = "must be at most " + fe.Param()
	}
	return &service.ValidationError{Field: fe.Field(), Msg: msg}
}
