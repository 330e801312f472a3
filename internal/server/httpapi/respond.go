package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	msgBadCredentials    = "Could not validate credentials"
	msgWrongPassword     = "Incorrect username or password"
	msgForbidden         = "Not enough permissions"
	msgUserExists        = "Username already registered"
	msgNotCSV            = "File must be a CSV file"
	msgCSVNotFound       = "CSV file not found"
	msgUserNotFound      = "User not found"
	msgSelfDeletion      = "Cannot delete your own account"
	msgReadFailed        = "Failed to read CSV file"
	msgInternal          = "Internal server error"
	msgUploadTooLarge    = "File too large"
	msgInvalidBody       = "Invalid request body"
	msgFileFieldRequired = "file is required"
	msgInvalidID         = "Invalid id"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// apiError carries an explicit status and client-facing message past
// the default classification.
type apiError struct {
	status int
	detail string
	err    error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return e.detail + ": " + e.err.Error()
	}
	return e.detail
}

func (e *apiError) Unwrap() error { return e.err }

func newAPIError(status int, detail string, err error) *apiError {
	return &apiError{status: status, detail: detail, err: err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", common.BearerScheme)
	writeDetail(w, http.StatusUnauthorized, detail)
}

// classify maps a service error onto a status code and message.
func classify(err error) (int, string) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.detail
	}

	switch {
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgBadCredentials
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, msgUserExists
	case errors.Is(err, common.ErrorInvalidFormat):
		return http.StatusBadRequest, msgNotCSV
	case errors.Is(err, common.ErrorSelfDeletion):
		return http.StatusBadRequest, msgSelfDeletion
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	case errors.Is(err, common.ErrorParse):
		return http.StatusInternalServerError, fmt.Sprintf("%s: %v", msgReadFailed, err)
	case errors.Is(err, common.ErrorStorage):
		return http.StatusInternalServerError, msgReadFailed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	if status == http.StatusUnauthorized {
		writeUnauthorized(w, detail)
		return
	}
	writeDetail(w, status, detail)
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

// validationDetail renders validator errors as "field: reason; ...".
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
