package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityQualifiedCall   ActivityType = "QUALIFIED_CALL"
	ActivityMeeting         ActivityType = "MEETING"
	ActivityDemo            ActivityType = "DEMO"
	ActivityROIPresentation ActivityType = "ROI_PRESENTATION"
	ActivitySampleShipment  ActivityType = "SAMPLE_SHIPMENT"
	ActivityNote            ActivityType = "NOTE"
	ActivityFollowUp        ActivityType = "FOLLOW_UP"
	ActivityEmail           ActivityType = "EMAIL"
	ActivityCall            ActivityType = "CALL"
	ActivitySampleFeedback  ActivityType = "SAMPLE_FEEDBACK"
)

// ActivityTypes lists the closed set in display order.
var ActivityTypes = []ActivityType{
	ActivityQualifiedCall, ActivityMeeting, ActivityDemo, ActivityROIPresentation,
	ActivitySampleShipment, ActivityNote, ActivityFollowUp, ActivityEmail,
	ActivityCall, ActivitySampleFeedback,
}

// Classify reports whether an activity of type t resets the progress deadline.
func Classify(t ActivityType) (bool, error) {
	switch t {
	case ActivityQualifiedCall, ActivityMeeting, ActivityDemo,
		ActivityROIPresentation, ActivitySampleShipment:
		return true, nil
	case ActivityNote, ActivityFollowUp, ActivityEmail, ActivityCall,
		ActivitySampleFeedback:
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownActivityType, string(t))
}

func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if _, err := Classify(t); err != nil {
		return "", err
	}
	return t, nil
}

// LeadActivity is append-only. countsAsProgress is only set by NewLeadActivity.
type LeadActivity struct {
	ID               string       `json:"id"`
	LeadID           string       `json:"lead_id"`
	UserID           string       `json:"user_id"`
	ActivityType     ActivityType `json:"activity_type"`
	ActivityDate     time.Time    `json:"activity_date"`
	Summary          string       `json:"summary"`
	Outcome          string       `json:"outcome,omitempty"`
	NextAction       string       `json:"next_action,omitempty"`
	NextActionDate   *time.Time   `json:"next_action_date,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`

	countsAsProgress bool
}

func NewLeadActivity(leadID, userID string, activityType ActivityType, activityDate time.Time, summary string, now time.Time) (*LeadActivity, error) {
	progress, err := Classify(activityType)
	if err != nil {
		return nil, err
	}
	if activityDate.IsZero() {
		return nil, &InvalidTimestampError{Field: "activity_date", Reason: "missing"}
	}
	if activityDate.After(now) {
		return nil, &InvalidTimestampError{Field: "activity_date", Reason: "in the future"}
	}
	return &LeadActivity{
		ID:               uuid.New().String(),
		LeadID:           leadID,
		UserID:           userID,
		ActivityType:     activityType,
		ActivityDate:     activityDate,
		countsAsProgress: progress,
		Summary:          summary,
		CreatedAt:        now,
	}, nil
}

// RestoreLeadActivity rebuilds a stored activity; the progress flag is
// derived again from the type rather than trusted from storage.
func RestoreLeadActivity(a LeadActivity) (*LeadActivity, error) {
	progress, err := Classify(a.ActivityType)
	if err != nil {
		return nil, err
	}
	a.countsAsProgress = progress
	return &a, nil
}

func (a *LeadActivity) CountsAsProgress() bool { return a.countsAsProgress }

func (a LeadActivity) MarshalJSON() ([]byte, error) {
	type plain LeadActivity
	return json.Marshal(struct {
		plain
		CountsAsProgress bool `json:"counts_as_progress"`
	}{plain(a), a.countsAsProgress})
}

type ActivityRepositoryInterface interface {
	Create(ctx context.Context, activity *LeadActivity) error
	FindByLeadID(ctx context.Context, leadID string) ([]*LeadActivity, error)
	CountProgressByLeadID(ctx context.Context, leadID string) (int, error)
}
