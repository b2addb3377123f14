// Package nonce implements the Nonce Allocator (component G): atomically
// allocates a monotonically increasing per-(chain, maker) nonce.
package nonce

import (
	"fmt"
	"math/big"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// State is the persisted next-nonce counter for one (chainId, maker).
// NextNonce is stored as a decimal string since it is an unbounded integer.
type State struct {
	ChainID      int    `gorm:"primaryKey;column:chain_id"`
	MakerAddress string `gorm:"primaryKey;column:maker_address;type:varchar(42)"`
	NextNonce    string `gorm:"not null;type:varchar(78)"`
}

func (State) TableName() string { return "nonce_state" }

// Allocator hands out strictly increasing nonces under a row-level lock.
type Allocator struct {
	db *gorm.DB
}

// NewAllocator wraps an already-migrated *gorm.DB; see internal/migrate.
func NewAllocator(db *gorm.DB) *Allocator {
	return &Allocator{db: db}
}

// Allocate returns the current nextNonce as a decimal string and atomically
// increments it. The row is locked for the full read-modify-write; if it
// does not exist it is created with nextNonce = 0 first. The allocator does
// not honor context cancellation once the transaction has started — a
// nonce, once allocated, is never handed out twice even if the caller
// abandons the request (§5 "the nonce allocator does not participate in
// cancellation once it has acquired the lock").
func (a *Allocator) Allocate(chainID int, maker string) (string, error) {
	var allocated string

	err := a.db.Transaction(func(tx *gorm.DB) error {
		var state State
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("chain_id = ? AND maker_address = ?", chainID, maker).
			First(&state).Error
		if err == gorm.ErrRecordNotFound {
			state = State{ChainID: chainID, MakerAddress: maker, NextNonce: "0"}
			if err := tx.Create(&state).Error; err != nil {
				return fmt.Errorf("creating nonce row for %d/%s: %w", chainID, maker, err)
			}
		} else if err != nil {
			return fmt.Errorf("locking nonce row for %d/%s: %w", chainID, maker, err)
		}

		current, ok := new(big.Int).SetString(state.NextNonce, 10)
		if !ok {
			return fmt.Errorf("corrupt nonce value %q for %d/%s", state.NextNonce, chainID, maker)
		}
		allocated = current.String()

		next := new(big.Int).Add(current, big.NewInt(1))
		err = tx.Model(&State{}).
			Where("chain_id = ? AND maker_address = ?", chainID, maker).
			Update("next_nonce", next.String()).Error
		if err != nil {
			return fmt.Errorf("advancing nonce for %d/%s: %w", chainID, maker, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return allocated, nil
}
