package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/richxcame/ride-reputation/pkg/logger"
	"github.com/richxcame/ride-reputation/pkg/resilience"
)

// ClientInterface abstracts the Redis helper surface so services can be
// tested against redismock or an in-memory fake.
type ClientInterface interface {
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// retryableMessages are transient conditions: network faults, failovers,
// cluster slot migrations, and server-side busy states.
var retryableMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"temporary failure",
	"timeout",
	"server closed",
	"unexpected eof",
	"pool timeout",
	"i/o timeout",
	"connection pool exhausted",
	"loading",
	"busy",
	"masterdown",
	"readonly",
	"noscript",
	"cluster",
	"moved",
	"ask",
	"tryagain",
	"clusterdown",
}

// nonRetryableMessages are caller errors: wrong types, bad syntax, auth and
// permission failures. Retrying these only repeats the mistake.
var nonRetryableMessages = []string{
	"wrongtype",
	"err syntax",
	"err invalid",
	"noauth",
	"wrongpass",
	"noperm",
	"err unknown",
	"execabort",
}

// isRedisRetryable reports whether a Redis operation is worth retrying.
// Unknown errors default to retryable; attempts are capped by config.
func isRedisRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Key-not-found is an expected outcome, not a fault.
	if errors.Is(err, goredis.Nil) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryableMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	for _, pattern := range nonRetryableMessages {
		if strings.Contains(msg, pattern) {
			return false
		}
	}
	return true
}

// ConservativeRetryConfig suits read paths where latency matters more than
// eventual success.
func ConservativeRetryConfig() resilience.RetryConfig {
	cfg := resilience.ConservativeRetryConfig()
	cfg.InitialBackoff = 50 * time.Millisecond
	cfg.MaxBackoff = 1 * time.Second
	cfg.RetryableChecker = isRedisRetryable
	return cfg
}

// AggressiveRetryConfig suits short critical writes such as rate-limit
// bookkeeping, where a dropped update is worse than a few extra attempts.
func AggressiveRetryConfig() resilience.RetryConfig {
	cfg := resilience.AggressiveRetryConfig()
	cfg.InitialBackoff = 20 * time.Millisecond
	cfg.MaxBackoff = 500 * time.Millisecond
	cfg.RetryableChecker = isRedisRetryable
	return cfg
}

// RetryableOperation runs op with the conservative Redis retry policy and
// returns its typed result. name labels the operation in retry logs.
func RetryableOperation[T any](ctx context.Context, op func(context.Context) (T, error), name string) (T, error) {
	result, err := resilience.Retry(ctx, ConservativeRetryConfig(), func(ctx context.Context) (interface{}, error) {
		return op(ctx)
	})
	if err != nil {
		logger.Warn("redis operation failed after retries",
			zap.String("operation", name),
			zap.Error(err))
		var zero T
		return zero, err
	}
	return result.(T), nil
}
