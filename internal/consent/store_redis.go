package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "pathway/pkg/domain"
	"pathway/pkg/platform/sentinel"
)

// Redis key prefix for consent records.
const consentKeyPrefix = "consent:ref:"

// RedisStore is the production store for multi-instance deployments where
// every instance must see a revocation immediately.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// storedRecord is the JSON shape persisted in Redis.
type storedRecord struct {
	StudentRef              string     `json:"studentRef"`
	Tier                    string     `json:"tier"`
	GrantedAt               time.Time  `json:"grantedAt"`
	ExpiresAt               time.Time  `json:"expiresAt"`
	RevokedAt               *time.Time `json:"revokedAt,omitempty"`
	ParentalConsentRequired bool       `json:"parentalConsentRequired"`
}

func (s *RedisStore) Save(ctx context.Context, record Record) error {
	payload, err := json.Marshal(storedRecord{
		StudentRef:              record.StudentRef.String(),
		Tier:                    record.Tier.String(),
		GrantedAt:               record.GrantedAt,
		ExpiresAt:               record.ExpiresAt,
		RevokedAt:               record.RevokedAt,
		ParentalConsentRequired: record.ParentalConsentRequired,
	})
	if err != nil {
		return fmt.Errorf("marshal consent record: %w", err)
	}
	// No TTL: expiry is a policy decision made by the gate, not the store.
	return s.client.Set(ctx, consentKeyPrefix+record.StudentRef.String(), payload, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, ref id.StudentRef) (Record, error) {
	raw, err := s.client.Get(ctx, consentKeyPrefix+ref.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("get consent record: %w", err)
	}

	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Record{}, fmt.Errorf("unmarshal consent record: %w", err)
	}
	tier, err := id.ParsePrivacyTier(stored.Tier)
	if err != nil {
		return Record{}, fmt.Errorf("stored consent record has invalid tier: %w", err)
	}
	return Record{
		StudentRef:              ref,
		Tier:                    tier,
		GrantedAt:               stored.GrantedAt,
		ExpiresAt:               stored.ExpiresAt,
		RevokedAt:               stored.RevokedAt,
		ParentalConsentRequired: stored.ParentalConsentRequired,
	}, nil
}

func (s *RedisStore) Revoke(ctx context.Context, ref id.StudentRef, revokedAt time.Time) error {
	record, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	record.RevokedAt = &revokedAt
	return s.Save(ctx, record)
}
