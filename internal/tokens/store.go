package tokens

import (
	"fmt"

	"gorm.io/gorm"
)

// Record is the persisted (chainId, address) -> decimals/symbol mapping.
// Mirrors the teacher's AssetSnapshotRecord shape: a GORM model with an
// explicit TableName.
type Record struct {
	ChainID   int     `gorm:"primaryKey;column:chain_id"`
	Address   string  `gorm:"primaryKey;column:address;type:varchar(42)"`
	Decimals  uint8   `gorm:"not null"`
	Symbol    *string `gorm:"type:varchar(64)"`
	CreatedAt int64   `gorm:"autoCreateTime"`
}

func (Record) TableName() string { return "tokens" }

// Store persists token metadata records. Entries are never mutated once
// cached in a run, so the only operations are find-by-key, insert and
// list.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-migrated *gorm.DB. Schema migration for every
// table is centralized in internal/migrate, run once at startup against
// the shared connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Find(chainID int, address string) (*Record, error) {
	var rec Record
	err := s.db.Where("chain_id = ? AND address = ?", chainID, address).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up token %d/%s: %w", chainID, address, err)
	}
	return &rec, nil
}

func (s *Store) Insert(rec *Record) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("inserting token %d/%s: %w", rec.ChainID, rec.Address, err)
	}
	return nil
}

// List returns every cached token record for a chain, for the admin
// inspection endpoint.
func (s *Store) List(chainID int) ([]Record, error) {
	var recs []Record
	if err := s.db.Where("chain_id = ?", chainID).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing tokens for chain %d: %w", chainID, err)
	}
	return recs, nil
}
