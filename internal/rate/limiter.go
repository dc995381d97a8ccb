package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle  bool
	MaxIssuePerWindow int
	IssueWindow       time.Duration
	MaxVerifyAttempts int
	VerifyWindow      time.Duration
}

// Limiter enforces per-mobile and per-IP limits for OTP issuance and
// verification using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckIssue counts an issuance request for the mobile number (and the client
// IP when IP throttling is enabled). Every call consumes budget, so a request
// that trips the limit stays limited until the window rolls over.
func (l *Limiter) CheckIssue(ctx context.Context, mobile, ip string) error {
	count, err := l.incrementWithTTL(ctx, issueKey(mobile), l.config.IssueWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxIssuePerWindow) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, issueIPKey(ip), l.config.IssueWindow)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxIssuePerWindow) {
			return ErrRateLimited
		}
	}

	return nil
}

// ConsumeVerify spends one verification attempt for the mobile number before
// the candidate code is compared. Once more than MaxVerifyAttempts have been
// spent inside the window it returns ErrRateLimited. A successful
// verification clears the budget through ResetVerify.
func (l *Limiter) ConsumeVerify(ctx context.Context, mobile string) error {
	count, err := l.incrementWithTTL(ctx, verifyKey(mobile), l.config.VerifyWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxVerifyAttempts) {
		return ErrRateLimited
	}
	return nil
}

// ResetVerify clears the attempt counter after a successful verification.
func (l *Limiter) ResetVerify(ctx context.Context, mobile string) error {
	if err := l.redis.Del(ctx, verifyKey(mobile)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// VerifyAttempts returns the attempts spent since the last success.
// Missing keys return zero.
func (l *Limiter) VerifyAttempts(ctx context.Context, mobile string) (int, error) {
	count, err := l.counter(ctx, verifyKey(mobile))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (l *Limiter) counter(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return count, nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed window: the TTL is only armed by the first hit.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
