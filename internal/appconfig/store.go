// Package appconfig holds the small set of runtime-tunable knobs exposed
// through PUT /admin/config: the per-request and global timeouts and the
// default quote expiry window. Everything else in the configuration
// surface (chains, DATABASE_URL, *_URL) is process-global and loaded once
// at startup. These three are persisted and cached here; cmd/server reads
// the two timeouts from the cache once at startup, so an update takes
// effect on the next restart, and quote issuance does not read
// QuoteExpirySeconds.
package appconfig

import (
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the single persisted row (id=1) backing the runtime config.
type Record struct {
	ID                 int `gorm:"primaryKey"`
	RequestTimeoutMs   int
	GlobalTimeoutMs    int
	QuoteExpirySeconds int
}

func (Record) TableName() string { return "app_config" }

const singletonID = 1

// Store persists the config row and caches the current value in memory so
// Get never hits the database.
type Store struct {
	db *gorm.DB

	mu     sync.RWMutex
	cached Record
}

// NewStore wraps an already-migrated *gorm.DB. Call Load once at startup
// before serving traffic, seeding the row with defaults on first run.
func NewStore(db *gorm.DB, defaults Record) *Store {
	defaults.ID = singletonID
	return &Store{db: db, cached: defaults}
}

// Load reads the persisted row into the cache, creating it from the
// constructor's defaults if this is the first run.
func (s *Store) Load() error {
	rec := s.cached
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	if err != nil {
		return err
	}

	var current Record
	if err := s.db.Where("id = ?", singletonID).First(&current).Error; err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = current
	s.mu.Unlock()
	return nil
}

// Get returns the cached config snapshot.
func (s *Store) Get() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

// UpdateInput is PUT /admin/config's payload; nil fields leave the
// current value unchanged.
type UpdateInput struct {
	RequestTimeoutMs   *int
	GlobalTimeoutMs    *int
	QuoteExpirySeconds *int
}

// Update applies non-nil fields from in, persists the result, and refreshes
// the cache.
func (s *Store) Update(in UpdateInput) (Record, error) {
	s.mu.Lock()
	next := s.cached
	if in.RequestTimeoutMs != nil {
		next.RequestTimeoutMs = *in.RequestTimeoutMs
	}
	if in.GlobalTimeoutMs != nil {
		next.GlobalTimeoutMs = *in.GlobalTimeoutMs
	}
	if in.QuoteExpirySeconds != nil {
		next.QuoteExpirySeconds = *in.QuoteExpirySeconds
	}
	s.mu.Unlock()

	next.ID = singletonID
	err := s.db.Model(&Record{}).Where("id = ?", singletonID).Updates(map[string]interface{}{
		"request_timeout_ms":   next.RequestTimeoutMs,
		"global_timeout_ms":    next.GlobalTimeoutMs,
		"quote_expiry_seconds": next.QuoteExpirySeconds,
	}).Error
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	s.cached = next
	s.mu.Unlock()
	return next, nil
}
