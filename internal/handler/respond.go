package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/security/middleware"
	"github.com/yourorg/rentmatch/internal/service"
)

const maxJSONBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {"error": ...}. Internal errors are logged and hidden from the client.
func writeError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		msg = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is required")
		}
		return domain.Validation("invalid request body: " + err.Error())
	}
	return check(dst)
}

// check runs validate tags on a struct.
func check(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return domain.Validation("invalid input: " + strings.Join(parts, ", "))
		}
		return domain.Validation(err.Error())
	}
	return nil
}

// caller builds the service caller for a role-prefixed route.
func caller(r *http.Request, role domain.Role) service.Caller {
	return service.Caller{SupabaseID: middleware.GetSubjectFromContext(r.Context()), Role: role}
}

// callerFromClaims uses the token's role claim, for routes shared by both roles.
func callerFromClaims(r *http.Request) service.Caller {
	c := service.Caller{SupabaseID: middleware.GetSubjectFromContext(r.Context())}
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		c.Role = claims.AppRole()
	}
	return c
}

func subject(r *http.Request) string {
	return middleware.GetSubjectFromContext(r.Context())
}
