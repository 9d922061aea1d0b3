package audit

import (
	"context"

	"realty-crm/pkg/utils"
)

// PostgresRepo appends events to the campaign_events table.
type PostgresRepo struct {
	db utils.DBTX
}

func NewPostgresRepo(db utils.DBTX) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaign_events (id, type, campaign_id, call_id, actor_user_id, actor_role, message, metadata, created_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, '')::jsonb, $9)`,
		e.ID, string(e.Type), e.CampaignID, e.CallID, e.ActorUserID, e.ActorRole, e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, campaignID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, type, COALESCE(campaign_id::text, ''), COALESCE(call_id, ''), COALESCE(actor_user_id, ''),
		       COALESCE(actor_role, ''), message, COALESCE(metadata::text, ''), created_at
		FROM campaign_events
		WHERE campaign_id = $1
		ORDER BY created_at ASC, id ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(&e.ID, &typ, &e.CampaignID, &e.CallID, &e.ActorUserID, &e.ActorRole, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ Repository = (*PostgresRepo)(nil)
var _ Repository = (*MemoryRepo)(nil)
