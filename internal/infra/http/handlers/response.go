package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

const (
	codeInvalidJSON          = "INVALID_JSON"
	codeInvalidVersion       = "INVALID_VERSION"
	codePreconditionRequired = "PRECONDITION_REQUIRED"
	codeRateLimited          = "RATE_LIMITED"
	codeInternal             = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

var domainStatus = map[string]int{
	usecase.CodeValidation:          http.StatusBadRequest,
	usecase.CodeInvalidTimestamp:    http.StatusBadRequest,
	usecase.CodeLeadNotFound:        http.StatusNotFound,
	usecase.CodeAlreadyRegistered:   http.StatusConflict,
	usecase.CodeInvalidTransition:   http.StatusConflict,
	usecase.CodeLeadDeleted:         http.StatusGone,
	usecase.CodeConcurrencyConflict: http.StatusPreconditionFailed,
	usecase.CodeUnknownActivityType: http.StatusUnprocessableEntity,
	usecase.CodeUnknownEnum:         http.StatusUnprocessableEntity,
}

// writeUsecaseError renders usecase failures. Technical details stay in the log.
func writeUsecaseError(w http.ResponseWriter, logger *zap.Logger, operation string, err error) {
	var domainErr *usecase.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code == usecase.CodeConcurrencyConflict {
			middleware.RecordConcurrencyConflict(operation)
		}
		status, ok := domainStatus[domainErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, ErrorResponse{Code: domainErr.Code, Message: domainErr.Message, Field: domainErr.Field})
		return
	}

	code := codeInternal
	var techErr *usecase.TechnicalError
	if errors.As(err, &techErr) {
		code = techErr.Code
	}
	logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	writeErrorResponse(w, http.StatusInternalServerError, code, "internal error")
}

func setETag(w http.ResponseWriter, version int) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(version)))
}

// expectedVersion reads the write precondition from If-Match, falling back to
// the version query parameter.
func expectedVersion(r *http.Request) (int, bool, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("version"))
	}
	if raw == "" {
		return 0, false, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, true, errors.New("version must be a positive integer")
	}
	return v, true, nil
}

// requireVersion writes the error response itself and reports whether the
// handler may continue.
func requireVersion(w http.ResponseWriter, r *http.Request) (int, bool) {
	v, present, err := expectedVersion(r)
	if !present {
		writeErrorResponse(w, http.StatusPreconditionRequired, codePreconditionRequired, "If-Match header or version parameter is required")
		return 0, false
	}
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeInvalidVersion, err.Error())
		return 0, false
	}
	return v, true
}
