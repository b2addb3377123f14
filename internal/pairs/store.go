// Package pairs implements the Pair Admission Store (component C): enabled/
// disabled trading pairs keyed by canonical (chainId, token0, token1).
package pairs

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aquaquote/internal/addr"
	"aquaquote/internal/apperr"
)

// Record is the persisted admission state for one canonical pair.
type Record struct {
	ChainID  int    `gorm:"primaryKey;column:chain_id"`
	Token0   string `gorm:"primaryKey;column:token0;type:varchar(42)"`
	Token1   string `gorm:"primaryKey;column:token1;type:varchar(42)"`
	Enabled  bool   `gorm:"not null"`
	Metadata *string
}

func (Record) TableName() string { return "pairs" }

// Store persists pair admission records.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-migrated *gorm.DB; see internal/migrate.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// EnsureEnabled canonicalizes (sell, buy), looks the pair up, and fails
// PAIR_NOT_ENABLED if it is absent or disabled.
func (s *Store) EnsureEnabled(chainID int, sell, buy string) (*Record, error) {
	sellAddr, err := addr.Checksum(sell)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidRequest, "sellToken is not a valid address", err)
	}
	buyAddr, err := addr.Checksum(buy)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidRequest, "buyToken is not a valid address", err)
	}
	token0, token1, _ := addr.Canon(sellAddr, buyAddr)

	var rec Record
	err = s.db.Where("chain_id = ? AND token0 = ? AND token1 = ?", chainID, token0.Hex(), token1.Hex()).
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.PairNotEnabled, "pair is not admitted for trading")
		}
		return nil, fmt.Errorf("looking up pair %d/%s/%s: %w", chainID, token0, token1, err)
	}
	if !rec.Enabled {
		return nil, apperr.New(apperr.PairNotEnabled, "pair is disabled")
	}
	return &rec, nil
}

// Upsert canonicalizes (a, b) and inserts or updates its admission state.
func (s *Store) Upsert(chainID int, a, b string, enabled bool) (*Record, error) {
	aAddr, err := addr.Checksum(a)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidRequest, "token a is not a valid address", err)
	}
	bAddr, err := addr.Checksum(b)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidRequest, "token b is not a valid address", err)
	}
	token0, token1, _ := addr.Canon(aAddr, bAddr)

	rec := Record{ChainID: chainID, Token0: token0.Hex(), Token1: token1.Hex(), Enabled: enabled}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain_id"}, {Name: "token0"}, {Name: "token1"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled"}),
	}).Create(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("upserting pair %d/%s/%s: %w", chainID, token0, token1, err)
	}
	return &rec, nil
}

// List returns every admitted pair for a chain.
func (s *Store) List(chainID int) ([]Record, error) {
	var recs []Record
	if err := s.db.Where("chain_id = ?", chainID).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing pairs for chain %d: %w", chainID, err)
	}
	return recs, nil
}
