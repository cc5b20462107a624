package trust

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trustgate/internal/trust/models"
	"trustgate/pkg/platform/sentinel"
)

const trustRecordKeyPrefix = "trust:pair:"

// RedisStore is a Redis-backed trust store. This is the production
// recommended implementation for distributed deployments where multiple
// instances share trust state. Records are stored as JSON under one key per
// (user, device) pair; concurrent assessments race and the last writer wins,
// consistent with the engine's self-healing recompute-on-every-call design.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(userID, deviceID string) string {
	return trustRecordKeyPrefix + userID + ":" + deviceID
}

func (s *RedisStore) Get(ctx context.Context, userID, deviceID string) (models.TrustRecord, error) {
	raw, err := s.client.Get(ctx, recordKey(userID, deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.TrustRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.TrustRecord{}, fmt.Errorf("get trust record: %w", err)
	}

	var record models.TrustRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.TrustRecord{}, fmt.Errorf("decode trust record: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Upsert(ctx context.Context, record models.TrustRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode trust record: %w", err)
	}
	// No TTL: trust records form an audit trail and decay through the
	// engine's own formulas, not through key expiry.
	if err := s.client.Set(ctx, recordKey(record.UserID, record.DeviceID), payload, 0).Err(); err != nil {
		return fmt.Errorf("upsert trust record: %w", err)
	}
	return nil
}
