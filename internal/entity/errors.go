package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownActivityType       = errors.New("unknown activity type")
	ErrUnknownLeadStatus         = errors.New("unknown lead status")
	ErrUnknownRelationshipStatus = errors.New("unknown relationship status")
	ErrUnknownDecisionMaker      = errors.New("unknown decision maker access")
	ErrConcurrencyConflict       = errors.New("lead was modified concurrently")
	ErrAlreadyRegistered         = errors.New("first contact already documented")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrLeadNotFound              = errors.New("lead not found")
	ErrLeadDeleted               = errors.New("lead is deleted")
)

// ValidationError names the offending field and the constraint it broke.
type ValidationError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Constraint)
}

// InvalidTimestampError is returned for unparsable or inconsistent date fields.
type InvalidTimestampError struct {
	Field  string
	Reason string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %s: %s", e.Field, e.Reason)
}
