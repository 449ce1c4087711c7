package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	contactPersonMinLen = 2
	contactPersonMaxLen = 255
)

// leadTransitions holds the explicit moves. Expiry is normally derived on
// read (see EffectiveStatus); the explicit edge exists for callers that
// close a lead out administratively.
var leadTransitions = map[LeadStatus]map[LeadStatus]bool{
	StatusPreClaim:    {},
	StatusRegistered:  {StatusQualified: true, StatusLost: true, StatusExpired: true},
	StatusQualified:   {StatusActive: true, StatusLost: true, StatusExpired: true},
	StatusActive:      {StatusGracePeriod: true, StatusLost: true, StatusExpired: true},
	StatusGracePeriod: {StatusActive: true, StatusLost: true, StatusExpired: true},
	StatusExpired:     {},
	StatusLost:        {},
}

func CanTransition(from, to LeadStatus) bool {
	return leadTransitions[from][to]
}

func checkVersion(lead *Lead, expectedVersion int) error {
	if lead.Version != expectedVersion {
		return fmt.Errorf("%w: expected version %d, current %d",
			ErrConcurrencyConflict, expectedVersion, lead.Version)
	}
	return nil
}

func ValidateContactPerson(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n == 0 {
		return "", &ValidationError{Field: "contact_person", Constraint: "required"}
	}
	if n < contactPersonMinLen {
		return "", &ValidationError{Field: "contact_person", Constraint: "min_length_2"}
	}
	if n > contactPersonMaxLen {
		return "", &ValidationError{Field: "contact_person", Constraint: "max_length_255"}
	}
	return trimmed, nil
}

// DocumentFirstContact moves a pre-claim lead to REGISTERED and starts the
// protection clock. The input lead is never modified; on error nothing changes.
func DocumentFirstContact(lead *Lead, contactPerson string, expectedVersion int, now time.Time) (*Lead, error) {
	if lead.State.Deleted() {
		return nil, ErrLeadDeleted
	}
	if !lead.PreClaim() || lead.State.Status != StatusPreClaim {
		return nil, ErrAlreadyRegistered
	}
	if err := checkVersion(lead, expectedVersion); err != nil {
		return nil, err
	}
	name, err := ValidateContactPerson(contactPerson)
	if err != nil {
		return nil, err
	}
	if now.IsZero() {
		return nil, &InvalidTimestampError{Field: "now", Reason: "missing"}
	}

	next := lead.Clone()
	registered := now
	protection := now.AddDate(0, ProtectionMonths, 0)
	deadline := now.Add(ProgressWindow)

	next.ContactPerson = name
	next.FirstContactDocumentedAt = &registered
	next.RegisteredAt = &registered
	next.ProtectionUntil = &protection
	next.ProgressDeadline = &deadline
	next.ProgressWarningSentAt = nil
	next.State.Status = StatusRegistered
	if next.Stage < StageContactData {
		next.Stage = StageContactData
	}
	next.Version++
	next.UpdatedAt = now
	return next, nil
}

// Transition applies one of the externally driven status moves.
func Transition(lead *Lead, to LeadStatus, expectedVersion int, now time.Time) (*Lead, error) {
	if lead.State.Deleted() {
		return nil, ErrLeadDeleted
	}
	if _, err := ParseLeadStatus(string(to)); err != nil {
		return nil, err
	}
	if err := checkVersion(lead, expectedVersion); err != nil {
		return nil, err
	}
	if !CanTransition(lead.State.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, lead.State.Status, to)
	}
	next := lead.Clone()
	next.State.Status = to
	next.Version++
	next.UpdatedAt = now
	return next, nil
}

// SoftDelete overlays DELETED on the current status; every other field is kept.
func SoftDelete(lead *Lead, expectedVersion int, now time.Time) (*Lead, error) {
	if lead.State.Deleted() {
		return nil, ErrLeadDeleted
	}
	if err := checkVersion(lead, expectedVersion); err != nil {
		return nil, err
	}
	next := lead.Clone()
	next.State.Visibility = VisibilityDeleted
	next.Version++
	next.UpdatedAt = now
	return next, nil
}

// ProgressDeadlineFor returns the latest progress activity date plus 60 days,
// or registeredAt plus 60 days when there is none. Pre-claim leads have no
// deadline.
func ProgressDeadlineFor(lead *Lead, activities []*LeadActivity) *time.Time {
	if lead.RegisteredAt == nil {
		return nil
	}
	var latest *time.Time
	for _, a := range activities {
		if !a.CountsAsProgress() {
			continue
		}
		if latest == nil || a.ActivityDate.After(*latest) {
			d := a.ActivityDate
			latest = &d
		}
	}
	base := *lead.RegisteredAt
	if latest != nil {
		base = *latest
	}
	deadline := base.Add(ProgressWindow)
	return &deadline
}

// RecordActivity returns the lead with its progress deadline recomputed
// after appending activity to history.
func RecordActivity(lead *Lead, history []*LeadActivity, activity *LeadActivity, expectedVersion int, now time.Time) (*Lead, error) {
	if lead.State.Deleted() {
		return nil, ErrLeadDeleted
	}
	if activity.LeadID != lead.ID {
		return nil, &ValidationError{Field: "lead_id", Constraint: "mismatch"}
	}
	if lead.PreClaim() || lead.RegisteredAt == nil {
		return nil, &ValidationError{Field: "first_contact_documented_at", Constraint: "required"}
	}
	if activity.ActivityDate.Before(*lead.RegisteredAt) {
		return nil, &InvalidTimestampError{Field: "activity_date", Reason: "before registered_at"}
	}
	if err := checkVersion(lead, expectedVersion); err != nil {
		return nil, err
	}
	all := append(append([]*LeadActivity(nil), history...), activity)
	SortActivities(all)

	next := lead.Clone()
	next.ProgressDeadline = ProgressDeadlineFor(next, all)
	next.Version++
	next.UpdatedAt = now
	return next, nil
}

// SortActivities orders by activity date, oldest first.
func SortActivities(activities []*LeadActivity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].ActivityDate.Before(activities[j].ActivityDate)
	})
}

// MarkWarningSent records the dispatch of a deadline warning.
func MarkWarningSent(lead *Lead, expectedVersion int, now time.Time) (*Lead, error) {
	if err := checkVersion(lead, expectedVersion); err != nil {
		return nil, err
	}
	next := lead.Clone()
	sent := now
	next.ProgressWarningSentAt = &sent
	next.Version++
	next.UpdatedAt = now
	return next, nil
}
