// Package ratelimit implements a Redis-backed GCRA rate limiter. All state
// lives in Redis so limits hold across replicas; the decision runs in a Lua
// script to stay atomic under concurrent requests.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/ride-reputation/pkg/config"
)

// IdentityType distinguishes how the caller was identified for limiting.
type IdentityType int

const (
	// IdentityAnonymous keys the limit on client IP.
	IdentityAnonymous IdentityType = iota
	// IdentityAuthenticated keys the limit on the user ID.
	IdentityAuthenticated
)

// Rule is the limit applied to one request.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	Limit        int
	Window       time.Duration
	ResetAfter   time.Duration
	IdentityKey  string
	EndpointKey  string
	IdentityType IdentityType
}

// luaScript implements GCRA. KEYS[1] holds the theoretical arrival time;
// ARGV: now (fractional seconds), limit, window seconds, burst.
// Returns {allowed, remaining, retry_after, reset_after}.
const luaScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local burst = tonumber(ARGV[4])

local emission_interval = window / limit
local burst_offset = emission_interval * (burst + 1)

local tat = redis.call("GET", key)
if not tat then
    tat = now
else
    tat = tonumber(tat)
end
if tat < now then
    tat = now
end

local new_tat = tat + emission_interval
local allow_at = new_tat - burst_offset
local diff = now - allow_at
local remaining = math.floor(diff / emission_interval)

if remaining < 0 then
    local reset_after = tat - now
    local retry_after = -diff
    return {0, 0, tostring(retry_after), tostring(reset_after)}
end

local reset_after = new_tat - now
redis.call("SET", key, tostring(new_tat), "EX", math.ceil(reset_after + window))
return {1, remaining, "-1", tostring(reset_after)}
`

// Limiter checks requests against per-endpoint rules.
type Limiter struct {
	client *redis.Client
	script *redis.Script
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewLimiter builds a Limiter from the shared rate limit configuration.
func NewLimiter(client *redis.Client, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		script: redis.NewScript(luaScript),
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithNow replaces the limiter's clock. Tests use this to pin time.
func (l *Limiter) WithNow(now func() time.Time) {
	l.now = now
}

// RuleFor resolves the rule for an endpoint, applying any per-endpoint
// override from configuration. Override limits of zero fall back to the
// defaults; override bursts apply as given so an endpoint can disable
// bursting outright.
func (l *Limiter) RuleFor(endpoint string, identity IdentityType) Rule {
	rule := Rule{Window: l.cfg.Window()}

	switch identity {
	case IdentityAuthenticated:
		rule.Limit = l.cfg.DefaultLimit
		rule.Burst = l.cfg.DefaultBurst
	default:
		rule.Limit = l.cfg.AnonymousLimit
		rule.Burst = l.cfg.AnonymousBurst
	}

	if override, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		if override.WindowSeconds > 0 {
			rule.Window = time.Duration(override.WindowSeconds) * time.Second
		}
		switch identity {
		case IdentityAuthenticated:
			if override.AuthenticatedLimit > 0 {
				rule.Limit = override.AuthenticatedLimit
			}
			if override.AuthenticatedBurst >= 0 {
				rule.Burst = override.AuthenticatedBurst
			}
		default:
			if override.AnonymousLimit > 0 {
				rule.Limit = override.AnonymousLimit
			}
			if override.AnonymousBurst >= 0 {
				rule.Burst = override.AnonymousBurst
			}
		}
	}

	if rule.Burst < 0 {
		rule.Burst = 0
	}
	return rule
}

// Allow checks one request against the rule. A disabled limiter and rules
// without a positive limit always allow. On Redis errors the permissive
// result is returned along with the error so callers can fail open.
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule, identityType IdentityType) (Result, error) {
	result := Result{
		Allowed:      true,
		Remaining:    rule.Limit,
		Limit:        rule.Limit,
		Window:       rule.Window,
		IdentityKey:  identity,
		EndpointKey:  endpoint,
		IdentityType: identityType,
	}

	if !l.cfg.Enabled || rule.Limit <= 0 {
		return result, nil
	}

	window := rule.Window
	if window <= 0 {
		window = l.cfg.Window()
		result.Window = window
	}

	key := fmt.Sprintf("%s:%s:%s", l.cfg.RedisPrefix, endpoint, identity)
	now := float64(l.now().UnixNano()) / float64(time.Second)

	values, err := l.script.Run(ctx, l.client, []string{key},
		formatFloat(now),
		strconv.Itoa(rule.Limit),
		formatFloat(window.Seconds()),
		strconv.Itoa(rule.Burst),
	).Slice()
	if err != nil {
		return result, fmt.Errorf("rate limit check: %w", err)
	}
	if len(values) < 4 {
		return result, fmt.Errorf("rate limit script returned %d values", len(values))
	}

	result.Allowed = toInt(values[0]) == 1
	result.Remaining = toInt(values[1])
	if retry := toFloat(values[2]); retry > 0 {
		result.RetryAfter = time.Duration(retry * float64(time.Second))
	}
	if reset := toFloat(values[3]); reset > 0 {
		result.ResetAfter = time.Duration(reset * float64(time.Second))
	}
	return result, nil
}

// formatFloat renders a float with fixed precision for Lua, which parses
// scientific notation inconsistently across Redis versions.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 10, 64)
}

func toInt(v interface{}) int {
	switch value := v.(type) {
	case int64:
		return int(value)
	case int:
		return value
	case float64:
		return int(value)
	case string:
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
