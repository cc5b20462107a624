package trust

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustgate/internal/trust/models"
	"trustgate/pkg/platform/sentinel"
)

// PostgresStore persists trust records in PostgreSQL. Every Upsert inserts a
// new version row; Get reads the latest by updated_at. Old versions are never
// deleted, forming the audit trail.
//
// Schema:
//
//	CREATE TABLE trust_records (
//	    id            BIGSERIAL PRIMARY KEY,
//	    user_id       TEXT NOT NULL,
//	    device_id     TEXT NOT NULL,
//	    trust_level   DOUBLE PRECISION NOT NULL,
//	    risk_factors  TEXT[] NOT NULL DEFAULT '{}',
//	    micro_segment TEXT NOT NULL,
//	    controls      JSONB NOT NULL DEFAULT '[]',
//	    violations    INT NOT NULL DEFAULT 0,
//	    last_verification TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX trust_records_pair_idx ON trust_records (user_id, device_id, updated_at DESC);
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, userID, deviceID string) (models.TrustRecord, error) {
	const query = `
		SELECT user_id, device_id, trust_level, risk_factors, micro_segment,
		       controls, violations, last_verification, updated_at
		FROM trust_records
		WHERE user_id = $1 AND device_id = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var record models.TrustRecord
	var segment string
	err := s.pool.QueryRow(ctx, query, userID, deviceID).Scan(
		&record.UserID,
		&record.DeviceID,
		&record.TrustLevel,
		&record.RiskFactors,
		&segment,
		&record.AdaptiveControls,
		&record.PolicyViolationCount,
		&record.LastVerification,
		&record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TrustRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.TrustRecord{}, fmt.Errorf("get trust record: %w", err)
	}
	record.MicroSegment = models.MicroSegment(segment)
	return record, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record models.TrustRecord) error {
	const query = `
		INSERT INTO trust_records
			(user_id, device_id, trust_level, risk_factors, micro_segment,
			 controls, violations, last_verification, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		record.UserID,
		record.DeviceID,
		record.TrustLevel,
		record.RiskFactors,
		string(record.MicroSegment),
		record.AdaptiveControls,
		record.PolicyViolationCount,
		record.LastVerification,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trust record version: %w", err)
	}
	return nil
}
