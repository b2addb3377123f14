// Package quotes implements the Quote Orchestrator (component I): composes
// A-H, validates preconditions, computes gross/net amounts with the
// executor fee, builds calldata, persists and returns the quote.
package quotes

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"aquaquote/internal/apperr"
)

// Record is the persisted quote, immutable after insert.
type Record struct {
	QuoteID           string `gorm:"primaryKey;type:varchar(36);column:quote_id"`
	ChainID           int    `gorm:"not null;index;column:chain_id"`
	Maker             string `gorm:"not null;type:varchar(42)"`
	Taker             string `gorm:"not null;type:varchar(42)"`
	Recipient         string `gorm:"not null;type:varchar(42)"`
	Executor          string `gorm:"not null;type:varchar(42)"`
	StrategyID        string `gorm:"not null;type:varchar(36);column:strategy_id"`
	StrategyVersion   int    `gorm:"not null;column:strategy_version"`
	StrategyHash      string `gorm:"not null;type:varchar(66);column:strategy_hash"`
	SellToken         string `gorm:"not null;type:varchar(42);column:sell_token"`
	BuyToken          string `gorm:"not null;type:varchar(42);column:buy_token"`
	SellAmount        string `gorm:"not null;type:varchar(78);column:sell_amount"`
	BuyAmount         string `gorm:"not null;type:varchar(78);column:buy_amount;comment:net, after executor fee"`
	FeeBps            int    `gorm:"not null;column:fee_bps"`
	FeeAmount         string `gorm:"not null;type:varchar(78);column:fee_amount"`
	Nonce             string `gorm:"not null;type:varchar(78)"`
	Expiry            int64  `gorm:"not null"`
	TypedData         json.RawMessage `gorm:"type:json;column:typed_data"`
	Signature         string `gorm:"not null;type:varchar(132)"`
	TxTo              string `gorm:"not null;type:varchar(42);column:tx_to"`
	TxData            string `gorm:"not null;type:mediumtext;column:tx_data"`
	TxValue           string `gorm:"not null;type:varchar(78);column:tx_value"`
	Status            string `gorm:"not null;type:varchar(16)"`
	RejectCode        *string `gorm:"type:varchar(64);column:reject_code"`
	PricingAsOfMs     int64   `gorm:"column:pricing_as_of_ms"`
	PricingConfidence float64 `gorm:"column:pricing_confidence"`
	PricingStale      bool    `gorm:"column:pricing_stale"`
	PricingSources    json.RawMessage `gorm:"type:json;column:pricing_sources"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (Record) TableName() string { return "quotes" }

const StatusIssued = "ISSUED"

// Store persists quote records.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-migrated *gorm.DB; see internal/migrate.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(rec *Record) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("persisting quote %s: %w", rec.QuoteID, err)
	}
	return nil
}

// FindByID returns the persisted record verbatim, or QUOTE_NOT_FOUND.
func (s *Store) FindByID(quoteID string) (*Record, error) {
	var rec Record
	err := s.db.Where("quote_id = ?", quoteID).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.QuoteNotFound, fmt.Sprintf("quote %s not found", quoteID))
		}
		return nil, fmt.Errorf("looking up quote %s: %w", quoteID, err)
	}
	return &rec, nil
}
