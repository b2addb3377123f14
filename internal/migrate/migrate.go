// Package migrate runs schema migration once, at startup, against the
// single shared database connection every store wraps.
package migrate

import (
	"fmt"

	"gorm.io/gorm"

	"aquaquote/internal/appconfig"
	"aquaquote/internal/nonce"
	"aquaquote/internal/pairs"
	"aquaquote/internal/quotes"
	"aquaquote/internal/strategies"
	"aquaquote/internal/tokens"
)

// Run auto-migrates every persisted model. Order doesn't matter: none of
// these tables declare foreign keys across packages.
func Run(db *gorm.DB) error {
	models := []interface{}{
		&tokens.Record{},
		&pairs.Record{},
		&strategies.Strategy{},
		&strategies.ChainState{},
		&nonce.State{},
		&quotes.Record{},
		&appconfig.Record{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("running schema migration: %w", err)
	}
	return nil
}
