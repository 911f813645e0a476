package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker verifies a single dependency and returns nil when it is healthy.
type Checker func() error

// CheckerConfig controls how long an individual check may run.
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns the timeout used when a caller does not
// provide one.
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{Timeout: 2 * time.Second}
}

// DatabaseChecker returns a health check function for the PostgreSQL database.
func DatabaseChecker(db *sql.DB) Checker {
	return DatabaseCheckerWithConfig(db, DefaultCheckerConfig())
}

// DatabaseCheckerWithConfig is DatabaseChecker with an explicit timeout.
func DatabaseCheckerWithConfig(db *sql.DB, config CheckerConfig) Checker {
	return func() error {
		if db == nil {
			return errors.New("database connection is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()
		return db.PingContext(ctx)
	}
}

// RedisChecker returns a health check function for Redis.
func RedisChecker(client *redis.Client) Checker {
	return RedisCheckerWithConfig(client, DefaultCheckerConfig())
}

// RedisCheckerWithConfig is RedisChecker with an explicit timeout.
func RedisCheckerWithConfig(client *redis.Client, config CheckerConfig) Checker {
	return func() error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// HTTPEndpointChecker returns a health check function for an HTTP endpoint.
// Any response below 400 counts as healthy, redirects included.
func HTTPEndpointChecker(url string) Checker {
	return HTTPEndpointCheckerWithConfig(url, DefaultCheckerConfig())
}

// HTTPEndpointCheckerWithConfig is HTTPEndpointChecker with an explicit timeout.
func HTTPEndpointCheckerWithConfig(url string, config CheckerConfig) Checker {
	client := &http.Client{Timeout: config.Timeout}
	return func() error {
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("endpoint %s unreachable: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("endpoint %s returned status %d", url, resp.StatusCode)
		}
		return nil
	}
}

// GRPCEndpointChecker returns a health check function for a gRPC endpoint.
// The admin API has no gRPC dependencies today, so the check always passes.
func GRPCEndpointChecker(target string) Checker {
	return func() error {
		_ = target
		return nil
	}
}

// CompositeChecker combines several named checks into one. The returned
// checker runs all of them and reports every failure as "<name>.<check>".
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		var failures []string
		for checkName, check := range checkers {
			if err := check(); err != nil {
				failures = append(failures, fmt.Sprintf("%s.%s: %v", name, checkName, err))
			}
		}
		if len(failures) > 0 {
			return errors.New(strings.Join(failures, "; "))
		}
		return nil
	}
}

// AsyncChecker runs check in a goroutine and gives up after timeout, so a
// stuck dependency cannot wedge the readiness endpoint.
func AsyncChecker(check Checker, timeout time.Duration) Checker {
	return func() error {
		result := make(chan error, 1)
		go func() {
			result <- check()
		}()
		select {
		case err := <-result:
			return err
		case <-time.After(timeout):
			return fmt.Errorf("health check timeout after %v", timeout)
		}
	}
}

// CachedChecker memoizes the result of an expensive check for a TTL.
// Errors are cached the same way as successes.
type CachedChecker struct {
	mu        sync.Mutex
	checker   Checker
	cacheTTL  time.Duration
	lastCheck time.Time
	lastErr   error
}

// NewCachedChecker wraps check so repeated calls within ttl reuse the
// previous result.
func NewCachedChecker(check Checker, ttl time.Duration) *CachedChecker {
	return &CachedChecker{checker: check, cacheTTL: ttl}
}

// Check runs the underlying checker or returns the cached result.
func (c *CachedChecker) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCheck.IsZero() && time.Since(c.lastCheck) < c.cacheTTL {
		return c.lastErr
	}

	c.lastErr = c.checker()
	c.lastCheck = time.Now()
	return c.lastErr
}
