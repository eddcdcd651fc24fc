package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/forgo/lending/api/internal/middleware"
	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// The status code follows the error kind; specific errors only refine the
// detail text.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch service.KindOf(err) {
	case service.KindValidation:
		if result, ok := service.ValidationResultOf(err); ok {
			return model.NewValidationResultError(result)
		}
		return model.NewValidationError(nil)

	case service.KindNotFound:
		switch {
		case errors.Is(err, service.ErrLoanNotFound):
			return model.NewNotFoundError("loan")
		case errors.Is(err, service.ErrAccountNotFound):
			return model.NewNotFoundError("account")
		}
		return model.NewNotFoundError("resource")

	case service.KindForbidden:
		return model.NewForbiddenError(detailOf(err))

	case service.KindConflict:
		return model.NewConflictError(detailOf(err))

	case service.KindUnauthorized:
		return model.NewUnauthorizedError(detailOf(err))

	case service.KindStorage:
		return model.NewStorageError()
	}

	return model.NewInternalError("")
}

func detailOf(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, service.ErrAccountBlocked):
		return "account is blocked"
	case errors.Is(err, service.ErrAccountantRequired):
		return "accountant role required"
	case errors.Is(err, service.ErrAccountAccessDenied):
		return "not allowed to view this account"
	case errors.Is(err, service.ErrLoanAccessDenied):
		return "not allowed to access this loan"
	case errors.Is(err, service.ErrUsernameTaken):
		return "username already taken"
	case errors.Is(err, service.ErrInvalidTransition):
		return "loan status transition not allowed"
	}
	return err.Error()
}

// writeServiceError maps err and logs the failures the client cannot fix
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	problem := MapServiceError(err)
	if problem.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("kind", service.KindOf(err).String()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	WriteError(w, problem)
}

// requireActor returns the authenticated actor or writes a 401
func requireActor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
	}
	return actor, ok
}
