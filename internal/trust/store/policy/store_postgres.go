package policy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustgate/internal/trust/models"
)

// PostgresStore persists policies in PostgreSQL. Policies are soft-disabled
// via is_active, never deleted.
//
// Schema:
//
//	CREATE TABLE zero_trust_policies (
//	    id          TEXT PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    priority    INT NOT NULL DEFAULT 0,
//	    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
//	    conditions  JSONB NOT NULL DEFAULT '[]',
//	    actions     JSONB NOT NULL DEFAULT '[]'
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]models.Policy, error) {
	const query = `
		SELECT id, name, description, priority, is_active, conditions, actions
		FROM zero_trust_policies
		WHERE is_active
		ORDER BY priority DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active policies: %w", err)
	}
	defer rows.Close()

	var policies []models.Policy
	for rows.Next() {
		var p models.Policy
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Priority,
			&p.IsActive, &p.Conditions, &p.Actions); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return policies, nil
}

func (s *PostgresStore) Insert(ctx context.Context, policy models.Policy) (string, error) {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO zero_trust_policies
			(id, name, description, priority, is_active, conditions, actions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		policy.ID, policy.Name, policy.Description, policy.Priority,
		policy.IsActive, policy.Conditions, policy.Actions)
	if err != nil {
		return "", fmt.Errorf("insert policy: %w", err)
	}
	return policy.ID, nil
}
