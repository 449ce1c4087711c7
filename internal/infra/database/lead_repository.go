package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const leadColumns = `
	id, owner_id, owner_email, company_name, contact_person, email, phone,
	street, city, zip_code, country, visibility, status, stage,
	registered_at, first_contact_documented_at, protection_until,
	progress_deadline, progress_warning_sent_at,
	relationship_status, decision_maker_access, internal_champion_name,
	competitor_in_use, engagement_score, lead_score,
	version, created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`

	_, err := r.DB.ExecContext(ctx, query, leadArgs(lead)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("lead %s already exists: %w", lead.ID, err)
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrLeadNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select lead %s: %w", id, err)
	}
	return lead, nil
}

// Update writes every mutable column guarded by the version the caller read.
func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead, expectedVersion int) error {
	query := `
		UPDATE leads SET
			owner_id = $2, owner_email = $3, company_name = $4, contact_person = $5,
			email = $6, phone = $7, street = $8, city = $9, zip_code = $10,
			country = $11, visibility = $12, status = $13, stage = $14,
			registered_at = $15, first_contact_documented_at = $16,
			protection_until = $17, progress_deadline = $18,
			progress_warning_sent_at = $19, relationship_status = $20,
			decision_maker_access = $21, internal_champion_name = $22,
			competitor_in_use = $23, engagement_score = $24, lead_score = $25,
			version = $26, updated_at = $27
		WHERE id = $1 AND version = $28`

	// leadArgs without created_at, then the precondition.
	args := append(leadArgs(lead)[:26], lead.UpdatedAt, expectedVersion)
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lead %s: %w", lead.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead %s: %w", lead.ID, err)
	}
	if affected == 1 {
		return nil
	}

	var current int
	err = r.DB.QueryRowContext(ctx, `SELECT version FROM leads WHERE id = $1`, lead.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrLeadNotFound, lead.ID)
	}
	if err != nil {
		return fmt.Errorf("read lead version %s: %w", lead.ID, err)
	}
	return fmt.Errorf("%w: expected version %d, current %d",
		entity.ErrConcurrencyConflict, expectedVersion, current)
}

// FindDeadlineCandidates returns visible leads in a protected status whose
// progress deadline falls before the given instant.
func (r *LeadRepository) FindDeadlineCandidates(ctx context.Context, deadlineBefore time.Time) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE visibility = $1
			AND status = ANY($2)
			AND progress_deadline IS NOT NULL
			AND progress_deadline <= $3
		ORDER BY progress_deadline ASC`

	protected := []string{
		string(entity.StatusRegistered), string(entity.StatusQualified),
		string(entity.StatusActive), string(entity.StatusGracePeriod),
	}
	return r.queryLeads(ctx, query, string(entity.VisibilityActive), pq.Array(protected), deadlineBefore)
}

func (r *LeadRepository) FindPreClaimCreatedBefore(ctx context.Context, createdBefore time.Time) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE visibility = $1
			AND first_contact_documented_at IS NULL
			AND created_at < $2
		ORDER BY created_at ASC`

	return r.queryLeads(ctx, query, string(entity.VisibilityActive), createdBefore)
}

func (r *LeadRepository) queryLeads(ctx context.Context, query string, args ...any) ([]*entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var l entity.Lead
	var contact, email, phone, champion, competitor sql.NullString
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.OwnerEmail, &l.CompanyName, &contact, &email, &phone,
		&l.Address.Street, &l.Address.City, &l.Address.ZipCode, &l.Address.Country,
		&l.State.Visibility, &l.State.Status, &l.Stage,
		&l.RegisteredAt, &l.FirstContactDocumentedAt, &l.ProtectionUntil,
		&l.ProgressDeadline, &l.ProgressWarningSentAt,
		&l.RelationshipStatus, &l.DecisionMakerAccess, &champion,
		&competitor, &l.EngagementScore, &l.LeadScore,
		&l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.ContactPerson = contact.String
	l.Email = email.String
	l.Phone = phone.String
	l.InternalChampionName = champion.String
	l.CompetitorInUse = competitor.String

	if _, err := entity.ParseLeadStatus(string(l.State.Status)); err != nil {
		return nil, err
	}
	return &l, nil
}

func leadArgs(l *entity.Lead) []any {
	return []any{
		l.ID, l.OwnerID, l.OwnerEmail, l.CompanyName, nullString(l.ContactPerson),
		nullString(l.Email), nullString(l.Phone),
		l.Address.Street, l.Address.City, l.Address.ZipCode, l.Address.Country,
		string(l.State.Visibility), string(l.State.Status), int(l.Stage),
		l.RegisteredAt, l.FirstContactDocumentedAt, l.ProtectionUntil,
		l.ProgressDeadline, l.ProgressWarningSentAt,
		string(l.RelationshipStatus), string(l.DecisionMakerAccess),
		nullString(l.InternalChampionName), nullString(l.CompetitorInUse),
		l.EngagementScore, l.LeadScore,
		l.Version, l.CreatedAt, l.UpdatedAt,
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
