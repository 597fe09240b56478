package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "cheerconnect_is_session_revoked_duration_ms",
	Help:    "Latency of session revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const revokedSessionKeyPrefix = "srl:sid:"

// RedisList is a Redis-backed session revocation list. This is the
// production implementation for distributed deployments where multiple
// instances share revocation state.
type RedisList struct {
	client *redis.Client
}

// NewRedisList constructs a Redis-backed session revocation list.
func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

// Revoke adds a session to the revocation list with TTL matching the
// session's remaining lifetime.
func (l *RedisList) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if sessionID == "" {
		return nil
	}
	// Key existence is the marker; the value is irrelevant.
	return l.client.Set(ctx, revokedSessionKeyPrefix+sessionID, "1", ttl).Err()
}

// IsRevoked checks if a session is in the revocation list.
// Returns false if the key doesn't exist (not revoked, or already expired).
func (l *RedisList) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if sessionID == "" {
		return false, nil
	}
	err := l.client.Get(ctx, revokedSessionKeyPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
