// Package postgres provides a PostgreSQL-backed permission store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trustgate/internal/delegation/models"
)

// Store persists delegation grants in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE delegated_permissions (
//	    id            TEXT PRIMARY KEY,
//	    grantor_id    TEXT NOT NULL,
//	    grantee_id    TEXT NOT NULL,
//	    platform_id   TEXT NOT NULL,
//	    access_type   TEXT NOT NULL,
//	    permissions   JSONB NOT NULL DEFAULT '{}',
//	    capabilities  JSONB NOT NULL DEFAULT '{}',
//	    custom_rules  JSONB NOT NULL DEFAULT '{}',
//	    ip_whitelist  TEXT[] NOT NULL DEFAULT '{}',
//	    time_restrictions JSONB,
//	    expires_at    TIMESTAMPTZ,
//	    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL,
//	    UNIQUE (grantor_id, grantee_id, platform_id, access_type)
//	);
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// capabilities groups the six boolean flags for one JSONB column.
type capabilities struct {
	Content   bool `json:"content"`
	Moderate  bool `json:"moderate"`
	Users     bool `json:"users"`
	Analytics bool `json:"analytics"`
	Settings  bool `json:"settings"`
	Payments  bool `json:"payments"`
}

func (s *Store) ListActive(ctx context.Context, filter models.Filter) ([]models.Permission, error) {
	query := `
		SELECT id, grantor_id, grantee_id, platform_id, access_type,
		       permissions, capabilities, custom_rules, ip_whitelist,
		       time_restrictions, expires_at, is_active, created_at, updated_at
		FROM delegated_permissions
		WHERE is_active
	`
	var clauses []string
	var args []any
	addClause := func(column, value string) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.GrantorID != "" {
		addClause("grantor_id", filter.GrantorID)
	}
	if filter.GranteeID != "" {
		addClause("grantee_id", filter.GranteeID)
	}
	if filter.PlatformID != "" {
		addClause("platform_id", filter.PlatformID)
	}
	if filter.AccessType != "" {
		addClause("access_type", string(filter.AccessType))
	}
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var out []models.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return out, nil
}

func scanPermission(rows *sql.Rows) (models.Permission, error) {
	var (
		p                models.Permission
		accessType       string
		permissionsJSON  []byte
		capabilitiesJSON []byte
		rulesJSON        []byte
		restrictionsJSON []byte
		expiresAt        sql.NullTime
	)
	err := rows.Scan(&p.ID, &p.GrantorID, &p.GranteeID, &p.PlatformID, &accessType,
		&permissionsJSON, &capabilitiesJSON, &rulesJSON, pq.Array(&p.IPWhitelist),
		&restrictionsJSON, &expiresAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Permission{}, fmt.Errorf("scan permission: %w", err)
	}

	p.AccessType = models.AccessType(accessType)
	if len(permissionsJSON) > 0 {
		if err := json.Unmarshal(permissionsJSON, &p.Permissions); err != nil {
			return models.Permission{}, fmt.Errorf("decode permissions map: %w", err)
		}
	}
	var caps capabilities
	if len(capabilitiesJSON) > 0 {
		if err := json.Unmarshal(capabilitiesJSON, &caps); err != nil {
			return models.Permission{}, fmt.Errorf("decode capabilities: %w", err)
		}
	}
	p.CanAccessContent = caps.Content
	p.CanModerate = caps.Moderate
	p.CanManageUsers = caps.Users
	p.CanViewAnalytics = caps.Analytics
	p.CanManageSettings = caps.Settings
	p.CanManagePayments = caps.Payments

	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &p.CustomRules); err != nil {
			return models.Permission{}, fmt.Errorf("decode custom rules: %w", err)
		}
	}
	if len(restrictionsJSON) > 0 && string(restrictionsJSON) != "null" {
		p.TimeRestrictions = &models.TimeRestrictions{}
		if err := json.Unmarshal(restrictionsJSON, p.TimeRestrictions); err != nil {
			return models.Permission{}, fmt.Errorf("decode time restrictions: %w", err)
		}
	}
	if expiresAt.Valid {
		p.ExpiresAt = &expiresAt.Time
	}
	return p, nil
}

func (s *Store) Upsert(ctx context.Context, p models.Permission) (models.Permission, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	permissionsJSON, err := json.Marshal(orEmptyBoolMap(p.Permissions))
	if err != nil {
		return models.Permission{}, fmt.Errorf("encode permissions map: %w", err)
	}
	capabilitiesJSON, err := json.Marshal(capabilities{
		Content:   p.CanAccessContent,
		Moderate:  p.CanModerate,
		Users:     p.CanManageUsers,
		Analytics: p.CanViewAnalytics,
		Settings:  p.CanManageSettings,
		Payments:  p.CanManagePayments,
	})
	if err != nil {
		return models.Permission{}, fmt.Errorf("encode capabilities: %w", err)
	}
	rulesJSON, err := json.Marshal(orEmptyAnyMap(p.CustomRules))
	if err != nil {
		return models.Permission{}, fmt.Errorf("encode custom rules: %w", err)
	}
	var restrictionsJSON any
	if p.TimeRestrictions != nil {
		encoded, err := json.Marshal(p.TimeRestrictions)
		if err != nil {
			return models.Permission{}, fmt.Errorf("encode time restrictions: %w", err)
		}
		restrictionsJSON = encoded
	}

	const query = `
		INSERT INTO delegated_permissions
			(id, grantor_id, grantee_id, platform_id, access_type,
			 permissions, capabilities, custom_rules, ip_whitelist,
			 time_restrictions, expires_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (grantor_id, grantee_id, platform_id, access_type) DO UPDATE SET
			permissions = EXCLUDED.permissions,
			capabilities = EXCLUDED.capabilities,
			custom_rules = EXCLUDED.custom_rules,
			ip_whitelist = EXCLUDED.ip_whitelist,
			time_restrictions = EXCLUDED.time_restrictions,
			expires_at = EXCLUDED.expires_at,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.GrantorID, p.GranteeID, p.PlatformID, string(p.AccessType),
		permissionsJSON, capabilitiesJSON, rulesJSON, pq.Array(p.IPWhitelist),
		restrictionsJSON, p.ExpiresAt, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return models.Permission{}, fmt.Errorf("upsert permission: %w", err)
	}
	return p, nil
}

func (s *Store) SoftDeactivate(ctx context.Context, filter models.Filter) (int, error) {
	query := "UPDATE delegated_permissions SET is_active = FALSE, updated_at = NOW() WHERE is_active"
	var args []any
	addClause := func(column, value string) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}
	if filter.GrantorID != "" {
		addClause("grantor_id", filter.GrantorID)
	}
	if filter.GranteeID != "" {
		addClause("grantee_id", filter.GranteeID)
	}
	if filter.PlatformID != "" {
		addClause("platform_id", filter.PlatformID)
	}
	if filter.AccessType != "" {
		addClause("access_type", string(filter.AccessType))
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivate permissions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate permissions: %w", err)
	}
	return int(affected), nil
}

func orEmptyBoolMap(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}

func orEmptyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
