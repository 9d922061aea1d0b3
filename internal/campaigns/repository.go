package campaigns

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"realty-crm/pkg/utils"
)

var (
	ErrNotFound        = errors.New("campaigns: not found")
	ErrInvalidArgument = errors.New("campaigns: invalid argument")
)

type Repository interface {
	Get(ctx context.Context, id string) (Campaign, error)
	SetStatus(ctx context.Context, id string, status Status) error
}

// PostgresRepo reads campaigns with their property and updates their status.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Campaign, error) {
	const q = `
SELECT c.id::text, c.name, c.campaign_type, COALESCE(c.property_id::text, ''), c.status, c.created_at,
       COALESCE(p.address, ''), COALESCE(p.description, '')
FROM campaigns c
LEFT JOIN properties p ON p.id = c.property_id
WHERE c.id = $1
`
	var c Campaign
	var status, address, description string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&c.Name,
		&c.Type,
		&c.PropertyID,
		&status,
		&c.CreatedAt,
		&address,
		&description,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	c.Status = Status(status)
	c.PropertyDetails = propertyDetails(address, description)
	return c, nil
}

// SetStatus locks the campaign row and updates it only when the status changes.
func (r *PostgresRepo) SetStatus(ctx context.Context, id string, status Status) error {
	if id == "" || !status.Valid() {
		return ErrInvalidArgument
	}
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var current string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM campaigns WHERE id = $1 FOR UPDATE`, id).Scan(&current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if Status(current) == status {
			return nil
		}
		_, err := tx.ExecContext(ctx, `UPDATE campaigns SET status = $2 WHERE id = $1`, id, string(status))
		return err
	})
}

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu        sync.Mutex
	campaigns map[string]Campaign
}

func NewMemoryRepo(seed ...Campaign) *MemoryRepo {
	m := &MemoryRepo{campaigns: make(map[string]Campaign, len(seed))}
	for _, c := range seed {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryRepo) SetStatus(ctx context.Context, id string, status Status) error {
	if id == "" || !status.Valid() {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	m.campaigns[id] = c
	return nil
}
