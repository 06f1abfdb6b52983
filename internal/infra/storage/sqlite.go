package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"swap_go/internal/domain"
)

// Keys used in the app config KV store.
const (
	KeyLastSyncOrders = "last_sync_orders"
	KeyLastSyncUnix   = "last_sync_unix"
)

// Storage defines the interface for data persistence
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance at the default OS path
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return NewStorageAt(dbPath)
}

// NewStorageAt creates a SQLite storage instance at an explicit path
func NewStorageAt(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.TokenInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "SwapGo", "data", "swapgo.db"), nil
}

// ======================================================================================
// Token Operations
// ======================================================================================

// UpsertToken creates or updates token metadata
func (s *Storage) UpsertToken(token *domain.TokenInfo) error {
	return s.db.Save(token).Error
}

// GetToken retrieves token metadata by checksummed address
func (s *Storage) GetToken(address string) (*domain.TokenInfo, error) {
	var token domain.TokenInfo
	err := s.db.First(&token, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &token, err
}

// GetAllTokens retrieves all tokens
func (s *Storage) GetAllTokens() ([]domain.TokenInfo, error) {
	var tokens []domain.TokenInfo
	err := s.db.Find(&tokens).Error
	return tokens, err
}

// SetTokenActive flips the trading status of a token
func (s *Storage) SetTokenActive(address string, active bool) error {
	var token domain.TokenInfo
	if err := s.db.First(&token, "address = ?", address).Error; err != nil {
		return err
	}

	token.IsActive = active
	return s.db.Save(&token).Error
}

// DeleteToken deletes a token from the database
func (s *Storage) DeleteToken(address string) error {
	return s.db.Where("address = ?", address).Delete(&domain.TokenInfo{}).Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves an engine configuration value
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all engine configuration as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}

// SaveLastSync records bulk resync metadata for diagnostics across restarts
func (s *Storage) SaveLastSync(orders int, at time.Time) error {
	if err := s.SaveConfig(KeyLastSyncOrders, strconv.Itoa(orders)); err != nil {
		return err
	}
	return s.SaveConfig(KeyLastSyncUnix, strconv.FormatInt(at.Unix(), 10))
}
