package usecase

import (
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type CreateLeadInput struct {
	CompanyName string         `json:"company_name" validate:"required,min=2,max=255"`
	OwnerID     string         `json:"owner_id" validate:"required"`
	OwnerEmail  string         `json:"owner_email" validate:"omitempty,email"`
	Email       string         `json:"email" validate:"omitempty,email"`
	Phone       string         `json:"phone" validate:"omitempty,phone_digits"`
	Address     entity.Address `json:"address"`
}

type DocumentFirstContactInput struct {
	LeadID          string `json:"-"`
	ContactPerson   string `json:"contact_person"`
	ExpectedVersion int    `json:"-"`
}

type LogActivityInput struct {
	LeadID          string `json:"-"`
	UserID          string `json:"user_id" validate:"required"`
	ActivityType    string `json:"activity_type" validate:"required"`
	ActivityDate    string `json:"activity_date"`
	Summary         string `json:"summary" validate:"required,max=2000"`
	Outcome         string `json:"outcome"`
	NextAction      string `json:"next_action" validate:"required_with=NextActionDate"`
	NextActionDate  string `json:"next_action_date"`
	ExpectedVersion int    `json:"-"`
}

type UpdateEngagementInput struct {
	LeadID               string  `json:"-"`
	RelationshipStatus   *string `json:"relationship_status"`
	DecisionMakerAccess  *string `json:"decision_maker_access"`
	InternalChampionName *string `json:"internal_champion_name"`
	CompetitorInUse      *string `json:"competitor_in_use"`
	ExpectedVersion      int     `json:"-"`
}

type ChangeStatusInput struct {
	LeadID          string `json:"-"`
	Status          string `json:"status"`
	ExpectedVersion int    `json:"-"`
}

type DeleteLeadInput struct {
	LeadID          string
	ExpectedVersion int
}

// LeadView is a lead as the UI renders it: the stored snapshot plus the
// read-model values derived at request time.
type LeadView struct {
	Lead            *entity.Lead           `json:"lead"`
	EffectiveStatus entity.LeadStatus      `json:"effective_status"`
	Deleted         bool                   `json:"deleted"`
	Protection      entity.Protection      `json:"protection"`
	PreClaim        *entity.PreClaimStatus `json:"pre_claim,omitempty"`
	EvaluatedAt     time.Time              `json:"evaluated_at"`
}

type LogActivityOutput struct {
	Activity *entity.LeadActivity `json:"activity"`
	View     *LeadView            `json:"view"`
}

type ScanDeadlinesOutput struct {
	Evaluated int `json:"evaluated"`
	Warned    int `json:"warned"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
