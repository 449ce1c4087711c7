package entity

import (
	"fmt"
	"math"
	"time"
)

const (
	Day = 24 * time.Hour

	ProgressWindow      = 60 * Day
	WarningThreshold    = 7 * Day
	WarningHoldWindow   = 7 * Day
	PreClaimWindow      = 10 * Day
	ProtectionMonths    = 6
	warningThresholdDay = 7
)

type ProtectionStatus string

const (
	ProtectionProtected ProtectionStatus = "protected"
	ProtectionWarning   ProtectionStatus = "warning"
	ProtectionExpired   ProtectionStatus = "expired"
)

// Protection is the calculator output. DaysUntilExpiry is nil when the lead
// has no progress deadline yet.
type Protection struct {
	Status          ProtectionStatus `json:"status"`
	DaysUntilExpiry *int             `json:"days_until_expiry,omitempty"`
	WarningMessage  string           `json:"warning_message,omitempty"`
}

// ComputeProtection maps the lead's deadline fields to a protection status.
// The warning-sent hold is applied last and can only tighten the result.
func ComputeProtection(lead *Lead, now time.Time) (Protection, error) {
	if now.IsZero() {
		return Protection{}, &InvalidTimestampError{Field: "now", Reason: "missing"}
	}
	if lead.ProgressDeadline == nil {
		return Protection{Status: ProtectionProtected}, nil
	}
	if err := checkDeadlineFields(lead, now); err != nil {
		return Protection{}, err
	}

	days := DaysUntil(*lead.ProgressDeadline, now)
	p := Protection{DaysUntilExpiry: &days}

	switch {
	case days <= 0:
		p.Status = ProtectionExpired
		p.WarningMessage = "Protection expired: no qualifying activity for 60 or more days."
	case days <= warningThresholdDay:
		p.Status = ProtectionWarning
		p.WarningMessage = fmt.Sprintf("Protection expires in %d day(s) without a qualifying activity.", days)
	default:
		p.Status = ProtectionProtected
	}

	if p.Status == ProtectionProtected && warningHeld(lead, now) {
		p.Status = ProtectionWarning
		p.WarningMessage = fmt.Sprintf("Deadline warning already sent on %s.",
			lead.ProgressWarningSentAt.UTC().Format("2006-01-02"))
	}
	return p, nil
}

// DaysUntil rounds the remaining duration up to whole days.
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(float64(deadline.Sub(now)) / float64(Day)))
}

func warningHeld(lead *Lead, now time.Time) bool {
	if lead.ProgressWarningSentAt == nil {
		return false
	}
	return now.Sub(*lead.ProgressWarningSentAt) <= WarningHoldWindow
}

func checkDeadlineFields(lead *Lead, now time.Time) error {
	if lead.ProgressDeadline.IsZero() {
		return &InvalidTimestampError{Field: "progress_deadline", Reason: "zero value"}
	}
	if lead.RegisteredAt != nil {
		if lead.RegisteredAt.IsZero() {
			return &InvalidTimestampError{Field: "registered_at", Reason: "zero value"}
		}
		if lead.ProgressDeadline.Before(*lead.RegisteredAt) {
			return &InvalidTimestampError{Field: "progress_deadline", Reason: "before registered_at"}
		}
	}
	if sent := lead.ProgressWarningSentAt; sent != nil {
		if sent.IsZero() {
			return &InvalidTimestampError{Field: "progress_warning_sent_at", Reason: "zero value"}
		}
		if sent.After(now) {
			return &InvalidTimestampError{Field: "progress_warning_sent_at", Reason: "after now"}
		}
	}
	return nil
}

// PreClaimStatus is the advisory first-contact window of a pre-claim lead.
// Overdue leads are reported, never expired automatically.
type PreClaimStatus struct {
	Deadline      time.Time `json:"deadline"`
	DaysRemaining int       `json:"days_remaining"`
	Overdue       bool      `json:"overdue"`
}

func ComputePreClaim(lead *Lead, now time.Time) (*PreClaimStatus, error) {
	if !lead.PreClaim() {
		return nil, nil
	}
	if lead.CreatedAt.IsZero() {
		return nil, &InvalidTimestampError{Field: "created_at", Reason: "zero value"}
	}
	deadline := lead.CreatedAt.Add(PreClaimWindow)
	days := DaysUntil(deadline, now)
	return &PreClaimStatus{
		Deadline:      deadline,
		DaysRemaining: days,
		Overdue:       days <= 0,
	}, nil
}

// EffectiveStatus is the read-model status. Expiry is derived on every read
// and never written back.
func EffectiveStatus(lead *Lead, now time.Time) (LeadState, error) {
	state := lead.State
	if !state.Status.Protected() {
		return state, nil
	}
	p, err := ComputeProtection(lead, now)
	if err != nil {
		return LeadState{}, err
	}
	if p.Status == ProtectionExpired {
		state.Status = StatusExpired
	}
	return state, nil
}
