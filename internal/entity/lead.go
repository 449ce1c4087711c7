package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadStatus is the coarse lifecycle stage of a lead.
type LeadStatus string

const (
	StatusPreClaim    LeadStatus = "PRE_CLAIM"
	StatusRegistered  LeadStatus = "REGISTERED"
	StatusQualified   LeadStatus = "QUALIFIED"
	StatusActive      LeadStatus = "ACTIVE"
	StatusGracePeriod LeadStatus = "GRACE_PERIOD"
	StatusExpired     LeadStatus = "EXPIRED"
	StatusLost        LeadStatus = "LOST"
)

func ParseLeadStatus(s string) (LeadStatus, error) {
	switch st := LeadStatus(s); st {
	case StatusPreClaim, StatusRegistered, StatusQualified, StatusActive,
		StatusGracePeriod, StatusExpired, StatusLost:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLeadStatus, s)
}

// Protected reports whether the status is one where the protection clock runs.
func (s LeadStatus) Protected() bool {
	switch s {
	case StatusRegistered, StatusQualified, StatusActive, StatusGracePeriod:
		return true
	}
	return false
}

// Visibility is the soft-delete overlay on top of LeadStatus.
type Visibility string

const (
	VisibilityActive  Visibility = "ACTIVE"
	VisibilityDeleted Visibility = "DELETED"
)

// LeadState pairs the lifecycle status with the soft-delete overlay, so a
// deleted lead still remembers which stage it was deleted from.
type LeadState struct {
	Visibility Visibility `json:"visibility"`
	Status     LeadStatus `json:"status"`
}

func (s LeadState) Deleted() bool { return s.Visibility == VisibilityDeleted }

// OnboardingStage is the wizard step reached while capturing the lead.
type OnboardingStage int

const (
	StageCompanyData OnboardingStage = iota
	StageContactData
	StageBusinessData
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type Lead struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	OwnerEmail    string          `json:"owner_email"`
	CompanyName   string          `json:"company_name"`
	ContactPerson string          `json:"contact_person,omitempty"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Address       Address         `json:"address"`
	State         LeadState       `json:"state"`
	Stage         OnboardingStage `json:"stage"`

	RegisteredAt             *time.Time `json:"registered_at,omitempty"`
	FirstContactDocumentedAt *time.Time `json:"first_contact_documented_at,omitempty"`
	ProtectionUntil          *time.Time `json:"protection_until,omitempty"`
	ProgressDeadline         *time.Time `json:"progress_deadline,omitempty"`
	ProgressWarningSentAt    *time.Time `json:"progress_warning_sent_at,omitempty"`

	RelationshipStatus   RelationshipStatus  `json:"relationship_status"`
	DecisionMakerAccess  DecisionMakerAccess `json:"decision_maker_access"`
	InternalChampionName string              `json:"internal_champion_name,omitempty"`
	CompetitorInUse      string              `json:"competitor_in_use,omitempty"`
	EngagementScore      int                 `json:"engagement_score"`
	LeadScore            int                 `json:"lead_score"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLead builds a pre-claim lead. The 10-day first-contact window runs from now.
func NewLead(ownerID, ownerEmail, companyName string, now time.Time) *Lead {
	return &Lead{
		ID:                  uuid.New().String(),
		OwnerID:             ownerID,
		OwnerEmail:          ownerEmail,
		CompanyName:         companyName,
		State:               LeadState{Visibility: VisibilityActive, Status: StatusPreClaim},
		Stage:               StageCompanyData,
		RelationshipStatus:  RelationshipCold,
		DecisionMakerAccess: DecisionMakerUnknown,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func (l *Lead) PreClaim() bool { return l.FirstContactDocumentedAt == nil }

// Clone returns a deep copy so transitions never mutate the caller's snapshot.
func (l *Lead) Clone() *Lead {
	c := *l
	c.RegisteredAt = copyTime(l.RegisteredAt)
	c.FirstContactDocumentedAt = copyTime(l.FirstContactDocumentedAt)
	c.ProtectionUntil = copyTime(l.ProtectionUntil)
	c.ProgressDeadline = copyTime(l.ProgressDeadline)
	c.ProgressWarningSentAt = copyTime(l.ProgressWarningSentAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// Update persists lead only if the stored version equals expectedVersion.
	// It returns ErrConcurrencyConflict otherwise.
	Update(ctx context.Context, lead *Lead, expectedVersion int) error
	FindDeadlineCandidates(ctx context.Context, deadlineBefore time.Time) ([]*Lead, error)
	FindPreClaimCreatedBefore(ctx context.Context, createdBefore time.Time) ([]*Lead, error)
}

// EngagementChange holds the scoring fields a user may edit. Nil means unchanged.
type EngagementChange struct {
	RelationshipStatus   *RelationshipStatus
	DecisionMakerAccess  *DecisionMakerAccess
	InternalChampionName *string
	CompetitorInUse      *string
}

// ApplyEngagement returns a copy of lead with the change applied. Scores are
// left to Rescore.
func ApplyEngagement(lead *Lead, change EngagementChange, expectedVersion int, now time.Time) (*Lead, error) {
	if lead.State.Deleted() {
		return nil, ErrLeadDeleted
	}
	if err := checkVersion(lead, expectedVersion); err != nil {
		return nil, err
	}
	next := lead.Clone()
	if change.RelationshipStatus != nil {
		if _, err := change.RelationshipStatus.Points(); err != nil {
			return nil, err
		}
		next.RelationshipStatus = *change.RelationshipStatus
	}
	if change.DecisionMakerAccess != nil {
		if _, err := change.DecisionMakerAccess.Points(); err != nil {
			return nil, err
		}
		next.DecisionMakerAccess = *change.DecisionMakerAccess
	}
	if change.InternalChampionName != nil {
		next.InternalChampionName = strings.TrimSpace(*change.InternalChampionName)
	}
	if change.CompetitorInUse != nil {
		next.CompetitorInUse = strings.TrimSpace(*change.CompetitorInUse)
	}
	if next.Stage < StageBusinessData && next.RelationshipStatus != RelationshipCold {
		next.Stage = StageBusinessData
	}
	next.Version++
	next.UpdatedAt = now
	return next, nil
}
