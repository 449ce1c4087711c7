package entity

import (
	"strings"
	"time"
)

// Clock is injected wherever "now" matters so a batch evaluates every lead
// against the same instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// ParseTimestamp accepts RFC3339 or a plain date (YYYY-MM-DD, midnight UTC).
func ParseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &InvalidTimestampError{Field: field, Reason: "empty"}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, &InvalidTimestampError{Field: field, Reason: "unparsable value " + value}
}

// ParseOptionalTimestamp returns nil for an empty value.
func ParseOptionalTimestamp(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
