package entity

import (
	"fmt"
	"strings"
)

type RelationshipStatus string

const (
	RelationshipCold             RelationshipStatus = "COLD"
	RelationshipContacted        RelationshipStatus = "CONTACTED"
	RelationshipEngagedSkeptical RelationshipStatus = "ENGAGED_SKEPTICAL"
	RelationshipEngagedPositive  RelationshipStatus = "ENGAGED_POSITIVE"
	RelationshipTrusted          RelationshipStatus = "TRUSTED"
	RelationshipAdvocate         RelationshipStatus = "ADVOCATE"
)

func (r RelationshipStatus) Points() (int, error) {
	switch r {
	case RelationshipCold:
		return 0, nil
	case RelationshipContacted:
		return 5, nil
	case RelationshipEngagedSkeptical:
		return 8, nil
	case RelationshipEngagedPositive:
		return 12, nil
	case RelationshipTrusted:
		return 17, nil
	case RelationshipAdvocate:
		return 25, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRelationshipStatus, string(r))
}

func ParseRelationshipStatus(s string) (RelationshipStatus, error) {
	r := RelationshipStatus(s)
	if _, err := r.Points(); err != nil {
		return "", err
	}
	return r, nil
}

type DecisionMakerAccess string

const (
	DecisionMakerUnknown  DecisionMakerAccess = "UNKNOWN"
	DecisionMakerBlocked  DecisionMakerAccess = "BLOCKED"
	DecisionMakerIndirect DecisionMakerAccess = "INDIRECT"
	DecisionMakerDirect   DecisionMakerAccess = "DIRECT"
	DecisionMakerIsSelf   DecisionMakerAccess = "IS_DECISION_MAKER"
)

func (d DecisionMakerAccess) Points() (int, error) {
	switch d {
	case DecisionMakerUnknown:
		return 0, nil
	case DecisionMakerBlocked:
		return -3, nil
	case DecisionMakerIndirect:
		return 10, nil
	case DecisionMakerDirect:
		return 20, nil
	case DecisionMakerIsSelf:
		return 25, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDecisionMaker, string(d))
}

func ParseDecisionMakerAccess(s string) (DecisionMakerAccess, error) {
	d := DecisionMakerAccess(s)
	if _, err := d.Points(); err != nil {
		return "", err
	}
	return d, nil
}

const (
	ChampionPoints = 30
	MaxScore       = 100
)

// ScoringWeights carries the business-configurable extra signals. Their
// defaults are zero until product confirms the weights.
type ScoringWeights struct {
	CompetitorKnownBonus     int
	ProgressActivityPoints   int
	ProgressActivityPointCap int
}

// ScoreSignals are the inputs that do not live on the lead itself.
type ScoreSignals struct {
	ProgressActivities int
}

// ComputeScore adds the fixed table, the champion bonus and the configured
// extras, then clamps to [0, 100]. It depends only on current values.
func ComputeScore(lead *Lead, weights ScoringWeights, signals ScoreSignals) (int, error) {
	rel, err := lead.RelationshipStatus.Points()
	if err != nil {
		return 0, err
	}
	dm, err := lead.DecisionMakerAccess.Points()
	if err != nil {
		return 0, err
	}
	score := rel + dm
	if strings.TrimSpace(lead.InternalChampionName) != "" {
		score += ChampionPoints
	}
	if strings.TrimSpace(lead.CompetitorInUse) != "" {
		score += weights.CompetitorKnownBonus
	}
	if signals.ProgressActivities > 0 && weights.ProgressActivityPoints > 0 {
		extra := signals.ProgressActivities * weights.ProgressActivityPoints
		if weights.ProgressActivityPointCap > 0 && extra > weights.ProgressActivityPointCap {
			extra = weights.ProgressActivityPointCap
		}
		score += extra
	}
	return clampScore(score), nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Rescore recomputes both derived scores in place. The engagement score
// ignores activity-based signals; the lead score includes them.
func Rescore(lead *Lead, weights ScoringWeights, signals ScoreSignals) error {
	engagement, err := ComputeScore(lead, weights, ScoreSignals{})
	if err != nil {
		return err
	}
	score, err := ComputeScore(lead, weights, signals)
	if err != nil {
		return err
	}
	lead.EngagementScore = engagement
	lead.LeadScore = score
	return nil
}
