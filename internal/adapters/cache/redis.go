// Package cache provides an optional read-through cache for computed risk
// assessments. Cache misses and cache failures are never errors: the engine
// simply recomputes.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
)

// DefaultTTL bounds how long a cached assessment stays valid without a
// recompute.
const DefaultTTL = 15 * time.Minute

// RedisAssessmentCache implements ports.AssessmentCache on Redis.
type RedisAssessmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.AssessmentCache = (*RedisAssessmentCache)(nil)

// NewRedisAssessmentCache connects to Redis and verifies the connection.
func NewRedisAssessmentCache(addr, password string, db int, ttl time.Duration) (*RedisAssessmentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisAssessmentCache{client: client, ttl: ttl}, nil
}

func assessmentKey(threatID, associationID string) string {
	return "threatwatch:assessment:" + threatID + ":" + associationID
}

// Get returns a cached assessment, or ok=false on miss or any Redis error.
func (c *RedisAssessmentCache) Get(ctx context.Context, threatID, associationID string) (*domain.RiskAssessment, bool) {
	data, err := c.client.Get(ctx, assessmentKey(threatID, associationID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[CACHE] Get failed for %s/%s: %v", threatID, associationID, err)
		return nil, false
	}

	var assessment domain.RiskAssessment
	if err := json.Unmarshal(data, &assessment); err != nil {
		log.Printf("[CACHE] Corrupt entry for %s/%s: %v", threatID, associationID, err)
		return nil, false
	}
	return &assessment, true
}

// Put stores an assessment under its (threat, association) key.
func (c *RedisAssessmentCache) Put(ctx context.Context, assessment domain.RiskAssessment) error {
	data, err := json.Marshal(assessment)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, assessmentKey(assessment.ThreatID, assessment.AssociationID), data, c.ttl).Err()
}

// Close releases the Redis connection.
func (c *RedisAssessmentCache) Close() error {
	return c.client.Close()
}

// NoopCache is used when no Redis endpoint is configured.
type NoopCache struct{}

var _ ports.AssessmentCache = (*NoopCache)(nil)

func (NoopCache) Get(context.Context, string, string) (*domain.RiskAssessment, bool) { return nil, false }
func (NoopCache) Put(context.Context, domain.RiskAssessment) error                   { return nil }
