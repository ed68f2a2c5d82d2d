package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "pathway/pkg/domain"
)

// Redis key layout: one hash per cohort (field = student ref), plus a reverse
// set per student listing the cohort hashes they appear in. The reverse set is
// what makes PurgeStudent O(cohorts-touched) instead of a keyspace scan.
const (
	cohortKeyPrefix  = "agg:cohort:"
	studentKeyPrefix = "agg:student:"
)

// RedisStore is the production accumulator store for multi-instance
// deployments, where every instance must contribute to the same cohorts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func cohortRedisKey(cohort cohortID) string {
	return cohortKeyPrefix + cohort.ObjectiveID.String() + ":" + cohort.CohortKey.String()
}

func (s *RedisStore) Upsert(ctx context.Context, cohort cohortID, ref id.StudentRef, stat StudentStat) error {
	payload, err := json.Marshal(stat)
	if err != nil {
		return fmt.Errorf("marshal student stat: %w", err)
	}
	key := cohortRedisKey(cohort)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, ref.String(), payload)
	pipe.SAdd(ctx, studentKeyPrefix+ref.String(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert cohort contribution: %w", err)
	}
	return nil
}

// Accumulate does a read-merge-write on the student's hash field. Concurrent
// writers from different instances can race on the same student's field; for
// accumulator statistics a lost delta is tolerable, so this avoids a Lua
// script.
func (s *RedisStore) Accumulate(ctx context.Context, cohort cohortID, ref id.StudentRef, delta StudentStat) error {
	key := cohortRedisKey(cohort)
	var current StudentStat
	raw, err := s.client.HGet(ctx, key, ref.String()).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("unmarshal student stat: %w", err)
		}
	case errors.Is(err, redis.Nil):
		// First contribution from this student.
	default:
		return fmt.Errorf("read student stat: %w", err)
	}
	return s.Upsert(ctx, cohort, ref, current.merge(delta))
}

func (s *RedisStore) Snapshot(ctx context.Context, cohort cohortID) (map[id.StudentRef]StudentStat, error) {
	fields, err := s.client.HGetAll(ctx, cohortRedisKey(cohort)).Result()
	if err != nil {
		return nil, fmt.Errorf("snapshot cohort: %w", err)
	}
	out := make(map[id.StudentRef]StudentStat, len(fields))
	for field, raw := range fields {
		ref, err := id.ParseStudentRef(field)
		if err != nil {
			return nil, fmt.Errorf("stored cohort has invalid student ref: %w", err)
		}
		var stat StudentStat
		if err := json.Unmarshal([]byte(raw), &stat); err != nil {
			return nil, fmt.Errorf("unmarshal student stat: %w", err)
		}
		out[ref] = stat
	}
	return out, nil
}

func (s *RedisStore) PurgeStudent(ctx context.Context, ref id.StudentRef) (int, error) {
	studentKey := studentKeyPrefix + ref.String()
	cohortKeys, err := s.client.SMembers(ctx, studentKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list student cohorts: %w", err)
	}
	if len(cohortKeys) == 0 {
		return 0, nil
	}

	pipe := s.client.TxPipeline()
	removals := make([]*redis.IntCmd, 0, len(cohortKeys))
	for _, key := range cohortKeys {
		removals = append(removals, pipe.HDel(ctx, key, ref.String()))
	}
	pipe.Del(ctx, studentKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("purge cohort contributions: %w", err)
	}

	removed := 0
	for _, cmd := range removals {
		removed += int(cmd.Val())
	}
	return removed, nil
}
