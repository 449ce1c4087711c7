package usecase

import (
	"errors"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidTimestamp    = "INVALID_TIMESTAMP"
	CodeUnknownActivityType = "UNKNOWN_ACTIVITY_TYPE"
	CodeUnknownEnum         = "UNKNOWN_ENUM_VALUE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeAlreadyRegistered   = "ALREADY_REGISTERED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeLeadNotFound        = "LEAD_NOT_FOUND"
	CodeLeadDeleted         = "LEAD_DELETED"
	CodeDatabase            = "DATABASE_ERROR"
	CodeQueue               = "QUEUE_ERROR"
)

// DomainError is a failure the caller can fix by changing input or retrying
// with fresh data.
type DomainError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

func IsDomainError(err error) bool {
	var d *DomainError
	return errors.As(err, &d)
}

// TechnicalError is an infrastructure failure.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var t *TechnicalError
	return errors.As(err, &t)
}

// classify maps engine and repository errors onto the usecase taxonomy.
// Anything unrecognised is a technical failure of the given code.
func classify(err error, technicalCode string) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) || IsTechnicalError(err) {
		return err
	}

	var vErr *entity.ValidationError
	if errors.As(err, &vErr) {
		return &DomainError{Code: CodeValidation, Message: vErr.Error(), Field: vErr.Field, Err: err}
	}
	var tsErr *entity.InvalidTimestampError
	if errors.As(err, &tsErr) {
		return &DomainError{Code: CodeInvalidTimestamp, Message: tsErr.Error(), Field: tsErr.Field, Err: err}
	}

	switch {
	case errors.Is(err, entity.ErrUnknownActivityType):
		return &DomainError{Code: CodeUnknownActivityType, Message: err.Error(), Field: "activity_type", Err: err}
	case errors.Is(err, entity.ErrUnknownRelationshipStatus),
		errors.Is(err, entity.ErrUnknownDecisionMaker),
		errors.Is(err, entity.ErrUnknownLeadStatus):
		return &DomainError{Code: CodeUnknownEnum, Message: err.Error(), Err: err}
	case errors.Is(err, entity.ErrConcurrencyConflict):
		return &DomainError{Code: CodeConcurrencyConflict, Message: err.Error(), Err: err}
	case errors.Is(err, entity.ErrAlreadyRegistered):
		return &DomainError{Code: CodeAlreadyRegistered, Message: err.Error(), Err: err}
	case errors.Is(err, entity.ErrInvalidTransition):
		return &DomainError{Code: CodeInvalidTransition, Message: err.Error(), Err: err}
	case errors.Is(err, entity.ErrLeadNotFound):
		return &DomainError{Code: CodeLeadNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, entity.ErrLeadDeleted):
		return &DomainError{Code: CodeLeadDeleted, Message: err.Error(), Err: err}
	}
	return &TechnicalError{Code: technicalCode, Message: err.Error(), Err: err}
}
