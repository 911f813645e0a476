// Package jwtkeys manages the HMAC signing keys used to verify access
// tokens. Keys rotate on a schedule and remain valid for a grace period so
// tokens signed with the previous key keep verifying until they expire.
package jwtkeys

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

var (
	// ErrKeyNotFound is returned when a token references an unknown,
	// revoked, or expired signing key.
	ErrKeyNotFound = errors.New("jwtkeys: signing key not found")

	errNoActiveKey = errors.New("jwtkeys: no active signing key available")
	errReadOnly    = errors.New("jwtkeys: manager is read-only")
)

const (
	defaultRotationInterval = 30 * 24 * time.Hour
	defaultGracePeriod      = 30 * 24 * time.Hour

	// secretLength is the raw secret size in bytes (384 bits).
	secretLength = 48
)

// SigningKey is a single HMAC key. The secret is stored base64-encoded so
// the whole struct serializes cleanly to JSON-backed stores.
type SigningKey struct {
	ID        string    `json:"id"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// SecretBytes decodes the base64 secret into raw key material.
func (k SigningKey) SecretBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(k.Secret)
}

// Clone returns a copy of the key, or nil for a nil receiver.
func (k *SigningKey) Clone() *SigningKey {
	if k == nil {
		return nil
	}
	cp := *k
	return &cp
}

// Store persists the full key set. Save replaces whatever was stored before.
type Store interface {
	Load(ctx context.Context) ([]SigningKey, error)
	Save(ctx context.Context, keys []SigningKey) error
}

// KeyProvider resolves verification secrets for incoming tokens.
type KeyProvider interface {
	// ResolveKey returns the secret for the given key ID.
	ResolveKey(kid string) ([]byte, error)
	// LegacyKey returns the pre-rotation shared secret, if one is
	// configured, for tokens issued without a key ID header.
	LegacyKey() []byte
}

// Config controls how a Manager loads, seeds, and rotates keys.
type Config struct {
	// Store persists keys. When nil, KeyFilePath selects a file store and
	// an in-memory store is the final fallback.
	Store            Store
	KeyFilePath      string
	RotationInterval time.Duration
	GracePeriod      time.Duration
	// LegacySecret seeds the first key and verifies tokens without a kid.
	LegacySecret string
	// ReadOnly prevents seeding and rotation. Verifier-only services set
	// this so only the auth service writes to the shared store.
	ReadOnly bool
}

// Manager owns the key set for a service. It is safe for concurrent use.
type Manager struct {
	mu               sync.RWMutex
	store            Store
	rotationInterval time.Duration
	gracePeriod      time.Duration
	legacySecret     string
	readOnly         bool

	keys     []SigningKey
	activeID string
}

// NewManager loads keys from the configured store and, unless read-only,
// seeds an initial key when the store is empty.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	store := cfg.Store
	if store == nil {
		if cfg.KeyFilePath != "" {
			store = newFileStore(cfg.KeyFilePath)
		} else {
			store = newMemoryStore()
		}
	}

	rotation := cfg.RotationInterval
	if rotation <= 0 {
		rotation = defaultRotationInterval
	}
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	m := &Manager{
		store:            store,
		rotationInterval: rotation,
		gracePeriod:      grace,
		legacySecret:     cfg.LegacySecret,
		readOnly:         cfg.ReadOnly,
	}

	keys, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtkeys: load keys: %w", err)
	}
	m.keys = keys
	m.activeID = selectActive(m.keys, time.Now())

	if m.activeID == "" && !m.readOnly {
		if err := m.seedInitialKey(ctx); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// CurrentSigningKey returns a copy of the key new tokens should be signed
// with.
func (m *Manager) CurrentSigningKey() (*SigningKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeID == "" {
		return nil, errNoActiveKey
	}
	for i := range m.keys {
		if m.keys[i].ID == m.activeID {
			return m.keys[i].Clone(), nil
		}
	}
	return nil, errNoActiveKey
}

// ResolveKey returns the secret for kid. Revoked and expired keys resolve
// as not found so their tokens stop verifying.
func (m *Manager) ResolveKey(kid string) ([]byte, error) {
	if kid == "" {
		return nil, ErrKeyNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	for i := range m.keys {
		k := &m.keys[i]
		if k.ID != kid {
			continue
		}
		if k.Revoked || now.After(k.ExpiresAt) {
			return nil, ErrKeyNotFound
		}
		return k.SecretBytes()
	}
	return nil, ErrKeyNotFound
}

// LegacyKey returns the configured legacy shared secret, or nil.
func (m *Manager) LegacyKey() []byte {
	if m.legacySecret == "" {
		return nil
	}
	return []byte(m.legacySecret)
}

// EnsureRotation prunes expired keys and rotates when the active key is
// older than the rotation interval. Read-only managers never rotate; they
// pick up new keys from the store on restart.
func (m *Manager) EnsureRotation(ctx context.Context) error {
	if m.readOnly {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	changed := m.pruneExpiredLocked(now)

	active := m.findLocked(m.activeID)
	if active == nil || now.Sub(active.CreatedAt) >= m.rotationInterval {
		if err := m.rotateLocked(now); err != nil {
			return err
		}
		changed = true
	}

	if changed {
		return m.persistLocked(ctx)
	}
	return nil
}

// Rotate forces a new active key regardless of the rotation schedule.
func (m *Manager) Rotate(ctx context.Context) error {
	if m.readOnly {
		return errReadOnly
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.rotateLocked(time.Now()); err != nil {
		return err
	}
	return m.persistLocked(ctx)
}

func (m *Manager) seedInitialKey(ctx context.Context) error {
	now := time.Now()
	key := SigningKey{
		ID:        generateKeyID(now),
		CreatedAt: now,
		ExpiresAt: now.Add(m.rotationInterval + m.gracePeriod),
	}

	if m.legacySecret != "" {
		key.Secret = base64.StdEncoding.EncodeToString([]byte(m.legacySecret))
	} else {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		key.Secret = base64.StdEncoding.EncodeToString(secret)
	}

	m.keys = append(m.keys, key)
	m.activeID = key.ID
	return m.persistLocked(ctx)
}

func (m *Manager) rotateLocked(now time.Time) error {
	secret, err := generateSecret()
	if err != nil {
		return err
	}

	key := SigningKey{
		ID:        generateKeyID(now),
		Secret:    base64.StdEncoding.EncodeToString(secret),
		CreatedAt: now,
		ExpiresAt: now.Add(m.rotationInterval + m.gracePeriod),
	}
	m.keys = append(m.keys, key)
	m.activeID = key.ID
	return nil
}

func (m *Manager) pruneExpiredLocked(now time.Time) bool {
	kept := m.keys[:0]
	pruned := false
	for _, k := range m.keys {
		if now.After(k.ExpiresAt) {
			pruned = true
			continue
		}
		kept = append(kept, k)
	}
	m.keys = kept
	return pruned
}

func (m *Manager) findLocked(id string) *SigningKey {
	for i := range m.keys {
		if m.keys[i].ID == id {
			return &m.keys[i]
		}
	}
	return nil
}

func (m *Manager) persistLocked(ctx context.Context) error {
	cp := make([]SigningKey, len(m.keys))
	copy(cp, m.keys)
	return m.store.Save(ctx, cp)
}

// selectActive picks the newest usable key, skipping revoked and expired
// entries.
func selectActive(keys []SigningKey, now time.Time) string {
	var active string
	var newest time.Time
	for _, k := range keys {
		if k.Revoked || now.After(k.ExpiresAt) {
			continue
		}
		if active == "" || k.CreatedAt.After(newest) {
			active = k.ID
			newest = k.CreatedAt
		}
	}
	return active
}

func generateKeyID(now time.Time) string {
	return "kid_" + strconv.FormatInt(now.UnixNano(), 36)
}

func generateSecret() ([]byte, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("jwtkeys: generate secret: %w", err)
	}
	return buf, nil
}

// StaticProvider is a KeyProvider backed by a single fixed secret, for
// deployments that have not adopted rotation.
type StaticProvider struct {
	secret []byte
}

// NewStaticProvider wraps a shared secret in the KeyProvider interface.
func NewStaticProvider(secret string) *StaticProvider {
	return &StaticProvider{secret: []byte(secret)}
}

// ResolveKey returns the fixed secret for any kid.
func (p *StaticProvider) ResolveKey(string) ([]byte, error) {
	if len(p.secret) == 0 {
		return nil, ErrKeyNotFound
	}
	return p.secret, nil
}

// LegacyKey returns the fixed secret, or nil when unset.
func (p *StaticProvider) LegacyKey() []byte {
	if len(p.secret) == 0 {
		return nil
	}
	return p.secret
}

type memoryStore struct {
	mu   sync.Mutex
	keys []SigningKey
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) Load(context.Context) ([]SigningKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]SigningKey, len(s.keys))
	copy(cp, s.keys)
	return cp, nil
}

func (s *memoryStore) Save(_ context.Context, keys []SigningKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = make([]SigningKey, len(keys))
	copy(s.keys, keys)
	return nil
}
