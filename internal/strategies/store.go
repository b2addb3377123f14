// Package strategies implements the Strategy Catalog & Chain State
// (component D): strategy definitions and per-chain active-strategy/paused
// flags.
package strategies

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"aquaquote/internal/apperr"
)

// Strategy is immutable once created except for Enabled.
type Strategy struct {
	ID       string          `gorm:"primaryKey;type:varchar(36)"`
	ChainID  int             `gorm:"not null;index;column:chain_id"`
	Name     string          `gorm:"not null"`
	Version  int             `gorm:"not null"`
	Params   json.RawMessage `gorm:"type:json"`
	Hash     string          `gorm:"not null;type:varchar(66);comment:bytes32 hex"`
	Enabled  bool            `gorm:"not null"`
}

func (Strategy) TableName() string { return "strategies" }

// ChainState has exactly one row per chain, created lazily on first read.
type ChainState struct {
	ChainID          int     `gorm:"primaryKey;column:chain_id"`
	ActiveStrategyID *string `gorm:"column:active_strategy_id;type:varchar(36)"`
	Paused           bool    `gorm:"not null"`
}

func (ChainState) TableName() string { return "chain_state" }

// Store persists strategy definitions and chain state.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-migrated *gorm.DB; see internal/migrate.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateInput is the payload for Create.
type CreateInput struct {
	ChainID int
	Name    string
	Version int
	Params  json.RawMessage
	Hash    string
}

// Create inserts a new strategy, always enabled.
func (s *Store) Create(in CreateInput) (*Strategy, error) {
	rec := Strategy{
		ID:      uuid.NewString(),
		ChainID: in.ChainID,
		Name:    in.Name,
		Version: in.Version,
		Params:  in.Params,
		Hash:    in.Hash,
		Enabled: true,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("creating strategy for chain %d: %w", in.ChainID, err)
	}
	return &rec, nil
}

// List returns every strategy defined for a chain.
func (s *Store) List(chainID int) ([]Strategy, error) {
	var recs []Strategy
	if err := s.db.Where("chain_id = ?", chainID).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing strategies for chain %d: %w", chainID, err)
	}
	return recs, nil
}

// FindByID returns STRATEGY_NOT_FOUND if no such strategy exists.
func (s *Store) FindByID(id string) (*Strategy, error) {
	var rec Strategy
	err := s.db.Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.New(apperr.StrategyNotFound, fmt.Sprintf("strategy %s not found", id))
		}
		return nil, fmt.Errorf("looking up strategy %s: %w", id, err)
	}
	return &rec, nil
}

// GetChainState returns the chain's state, creating a default
// {paused:false} row on first read.
func (s *Store) GetChainState(chainID int) (*ChainState, error) {
	var state ChainState
	err := s.db.Where("chain_id = ?", chainID).First(&state).Error
	if err == nil {
		return &state, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("looking up chain state %d: %w", chainID, err)
	}

	state = ChainState{ChainID: chainID, Paused: false}
	if err := s.db.Create(&state).Error; err != nil {
		return nil, fmt.Errorf("creating default chain state %d: %w", chainID, err)
	}
	return &state, nil
}

// SetPaused flips the chain's paused flag.
func (s *Store) SetPaused(chainID int, paused bool) error {
	if _, err := s.GetChainState(chainID); err != nil {
		return err
	}
	err := s.db.Model(&ChainState{}).Where("chain_id = ?", chainID).Update("paused", paused).Error
	if err != nil {
		return fmt.Errorf("setting paused=%v on chain %d: %w", paused, chainID, err)
	}
	return nil
}

// SetActive sets the chain's active strategy, failing STRATEGY_NOT_FOUND if
// strategyID does not belong to that chain.
func (s *Store) SetActive(chainID int, strategyID string) error {
	strategy, err := s.FindByID(strategyID)
	if err != nil {
		return err
	}
	if strategy.ChainID != chainID {
		return apperr.New(apperr.StrategyNotFound, fmt.Sprintf("strategy %s does not belong to chain %d", strategyID, chainID))
	}
	if _, err := s.GetChainState(chainID); err != nil {
		return err
	}
	err = s.db.Model(&ChainState{}).Where("chain_id = ?", chainID).Update("active_strategy_id", strategyID).Error
	if err != nil {
		return fmt.Errorf("activating strategy %s on chain %d: %w", strategyID, chainID, err)
	}
	return nil
}

// GetActiveStrategy resolves the chain's active strategy, failing
// STRATEGY_NOT_CONFIGURED if none is set and STRATEGY_NOT_ENABLED if the
// active strategy has since been disabled.
func (s *Store) GetActiveStrategy(chainID int) (*Strategy, error) {
	state, err := s.GetChainState(chainID)
	if err != nil {
		return nil, err
	}
	if state.ActiveStrategyID == nil {
		return nil, apperr.New(apperr.StrategyNotConfigured, fmt.Sprintf("chain %d has no active strategy", chainID))
	}
	strategy, err := s.FindByID(*state.ActiveStrategyID)
	if err != nil {
		return nil, err
	}
	if !strategy.Enabled {
		return nil, apperr.New(apperr.StrategyNotEnabled, fmt.Sprintf("strategy %s is disabled", strategy.ID))
	}
	return strategy, nil
}
