// Package pgtest starts a throwaway Postgres with the CRM schema applied.
// Only tests import it.
package pgtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"realty-crm/migrations"
	"realty-crm/pkg/logger"
	"realty-crm/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Start runs a postgres:16-alpine container, migrates it, and returns a pool.
// The test is skipped under -short or when no container runtime is reachable.
func Start(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("crm"),
		postgres.WithUsername("crm"),
		postgres.WithPassword("crm"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	db, err := utils.OpenPostgres(ctx, "pgx", connStr, utils.PostgresPoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := migrations.Apply(ctx, db, logger.Discard()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedCampaign inserts a property (when propertyID is set) and a campaign.
func SeedCampaign(t *testing.T, db *sql.DB, campaignID, propertyID, status string) {
	t.Helper()
	ctx := context.Background()
	if propertyID != "" {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO properties (id, address, description) VALUES ($1, '12 Elm St', '3BR house')`, propertyID); err != nil {
			t.Fatalf("seed property: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, campaign_type, property_id, status) VALUES ($1, 'Elm St', 'Solicit Buyers', NULLIF($2, '')::uuid, $3)`,
		campaignID, propertyID, status); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
}
