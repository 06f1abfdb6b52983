package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenInfo represents metadata for a token traded on the marketplace
type TokenInfo struct {
	Address      string    `gorm:"primaryKey" json:"address"` // checksummed hex
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Decimals     int32     `json:"decimals"`
	IsActive     bool      `json:"is_active" gorm:"index"` // Active trading status
	LastSyncedAt time.Time `json:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Addr returns the parsed token address.
func (t *TokenInfo) Addr() common.Address {
	return common.HexToAddress(t.Address)
}

// AppConfig represents engine-local configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
