package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"realty-crm/pkg/utils"
)

const recordColumns = `id::text, bland_call_id, campaign_id::text, COALESCE(property_id::text, ''), contact_name,
       phone_number, email, status, outcome, lead_stage, appointment_date, created_at, updated_at`

// PostgresRepo stores records in campaign_calls.
type PostgresRepo struct {
	db utils.DBTX
}

func NewPostgresRepo(db utils.DBTX) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (p *PostgresRepo) Create(ctx context.Context, r Record) error {
	if err := validateNew(r); err != nil {
		return err
	}
	const q = `
INSERT INTO campaign_calls (
  id, bland_call_id, campaign_id, property_id, contact_name, phone_number, email,
  status, outcome, lead_stage, appointment_date, created_at, updated_at
) VALUES (
  $1,$2,$3,NULLIF($4, '')::uuid,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
`
	_, err := p.db.ExecContext(ctx, q,
		r.ID,
		r.ExternalCallID,
		r.CampaignID,
		r.PropertyID,
		r.ContactName,
		r.PhoneNumber,
		r.Email,
		r.Status,
		r.Outcome,
		r.LeadStage,
		r.AppointmentAt,
		r.CreatedAt,
		r.UpdatedAt,
	)
	return err
}

func (p *PostgresRepo) Complete(ctx context.Context, externalCallID string, c Completion) error {
	if externalCallID == "" || !c.LeadStage.Valid() {
		return ErrInvalidArgument
	}
	const q = `
UPDATE campaign_calls
SET status = $2, outcome = $3, lead_stage = $4, appointment_date = $5, updated_at = $6
WHERE bland_call_id = $1
`
	res, err := p.db.ExecContext(ctx, q,
		externalCallID,
		StatusCompleted,
		c.Outcome,
		c.LeadStage,
		c.AppointmentAt,
		c.CompletedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresRepo) Get(ctx context.Context, id string) (Record, error) {
	return p.getOne(ctx, `SELECT `+recordColumns+` FROM campaign_calls WHERE id = $1`, id)
}

func (p *PostgresRepo) GetByExternalID(ctx context.Context, externalCallID string) (Record, error) {
	return p.getOne(ctx, `SELECT `+recordColumns+` FROM campaign_calls WHERE bland_call_id = $1`, externalCallID)
}

func (p *PostgresRepo) ListByCampaign(ctx context.Context, campaignID string) ([]Record, error) {
	return p.list(ctx, `
SELECT `+recordColumns+`
FROM campaign_calls
WHERE campaign_id = $1
ORDER BY created_at DESC
`, campaignID)
}

func (p *PostgresRepo) ListAppointments(ctx context.Context, from, to time.Time) ([]Record, error) {
	return p.list(ctx, `
SELECT `+recordColumns+`
FROM campaign_calls
WHERE appointment_date >= $1 AND appointment_date < $2
ORDER BY appointment_date ASC
`, from, to)
}

func (p *PostgresRepo) getOne(ctx context.Context, q string, arg string) (Record, error) {
	if arg == "" {
		return Record{}, ErrInvalidArgument
	}
	r, err := scanRecord(p.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (p *PostgresRepo) list(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.ID,
		&r.ExternalCallID,
		&r.CampaignID,
		&r.PropertyID,
		&r.ContactName,
		&r.PhoneNumber,
		&r.Email,
		&r.Status,
		&r.Outcome,
		&r.LeadStage,
		&r.AppointmentAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
