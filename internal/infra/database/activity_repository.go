package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// ActivityRepository is append-only: activities are never updated or deleted.
type ActivityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *entity.LeadActivity) error {
	query := `
		INSERT INTO lead_activities (
			id, lead_id, user_id, activity_type, activity_date, counts_as_progress,
			summary, outcome, next_action, next_action_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.DB.ExecContext(ctx, query,
		a.ID, a.LeadID, a.UserID, string(a.ActivityType), a.ActivityDate,
		a.CountsAsProgress(), a.Summary, nullString(a.Outcome),
		nullString(a.NextAction), a.NextActionDate, a.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: %s", entity.ErrLeadNotFound, a.LeadID)
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// FindByLeadID returns the history ordered by activity date. The stored
// progress flag is ignored and derived again from the type.
func (r *ActivityRepository) FindByLeadID(ctx context.Context, leadID string) ([]*entity.LeadActivity, error) {
	query := `
		SELECT id, lead_id, user_id, activity_type, activity_date, summary,
			outcome, next_action, next_action_date, created_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY activity_date ASC, created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []*entity.LeadActivity
	for rows.Next() {
		var a entity.LeadActivity
		var outcome, nextAction sql.NullString
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.UserID, &a.ActivityType, &a.ActivityDate, &a.Summary,
			&outcome, &nextAction, &a.NextActionDate, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Outcome = outcome.String
		a.NextAction = nextAction.String

		restored, err := entity.RestoreLeadActivity(a)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", a.ID, err)
		}
		activities = append(activities, restored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

func (r *ActivityRepository) CountProgressByLeadID(ctx context.Context, leadID string) (int, error) {
	var progressTypes []string
	for _, t := range entity.ActivityTypes {
		if ok, _ := entity.Classify(t); ok {
			progressTypes = append(progressTypes, string(t))
		}
	}

	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_activities WHERE lead_id = $1 AND activity_type = ANY($2)`,
		leadID, pq.Array(progressTypes),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count progress activities: %w", err)
	}
	return n, nil
}
