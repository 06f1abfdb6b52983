package storage

import (
	"path/filepath"
	"testing"
	"time"

	"swap_go/internal/domain"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorageAt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	return s
}

func TestTokenRoundTrip(t *testing.T) {
	s := setupTestStorage(t)

	token := &domain.TokenInfo{
		Address:  "0x2000000000000000000000000000000000000001",
		Symbol:   "WETH",
		Name:     "Wrapped Ether",
		Decimals: 18,
		IsActive: true,
	}
	if err := s.UpsertToken(token); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetToken(token.Address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("token not found after upsert")
	}
	if got.Symbol != "WETH" || got.Decimals != 18 || !got.IsActive {
		t.Errorf("got %+v", got)
	}

	// Upsert updates in place.
	token.Symbol = "WETH2"
	if err := s.UpsertToken(token); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	all, err := s.GetAllTokens()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 || all[0].Symbol != "WETH2" {
		t.Errorf("all = %+v", all)
	}
}

func TestGetTokenNotFound(t *testing.T) {
	s := setupTestStorage(t)

	got, err := s.GetToken("0x2000000000000000000000000000000000000099")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for unknown address", got)
	}
}

func TestSetTokenActive(t *testing.T) {
	s := setupTestStorage(t)

	token := &domain.TokenInfo{
		Address:  "0x2000000000000000000000000000000000000001",
		Symbol:   "DAI",
		Decimals: 18,
		IsActive: true,
	}
	if err := s.UpsertToken(token); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.SetTokenActive(token.Address, false); err != nil {
		t.Fatalf("set inactive: %v", err)
	}
	got, _ := s.GetToken(token.Address)
	if got.IsActive {
		t.Error("token still active")
	}

	if err := s.SetTokenActive("0xdead", false); err == nil {
		t.Error("expected error for unknown token")
	}
}

func TestDeleteToken(t *testing.T) {
	s := setupTestStorage(t)

	token := &domain.TokenInfo{
		Address:  "0x2000000000000000000000000000000000000001",
		Symbol:   "USDC",
		Decimals: 6,
	}
	if err := s.UpsertToken(token); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.DeleteToken(token.Address); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.GetToken(token.Address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("token survived delete: %+v", got)
	}
}

func TestConfigMap(t *testing.T) {
	s := setupTestStorage(t)

	if err := s.SaveConfig("theme", "dark"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveConfig("theme", "light"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.SaveConfig("locale", "en"); err != nil {
		t.Fatalf("save second key: %v", err)
	}

	m, err := s.LoadConfigMap()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m["theme"] != "light" || m["locale"] != "en" {
		t.Errorf("map = %v", m)
	}
}

func TestSaveLastSync(t *testing.T) {
	s := setupTestStorage(t)

	at := time.Unix(1_700_000_000, 0)
	if err := s.SaveLastSync(42, at); err != nil {
		t.Fatalf("save: %v", err)
	}

	m, err := s.LoadConfigMap()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m[KeyLastSyncOrders] != "42" {
		t.Errorf("orders = %q, want 42", m[KeyLastSyncOrders])
	}
	if m[KeyLastSyncUnix] != "1700000000" {
		t.Errorf("unix = %q, want 1700000000", m[KeyLastSyncUnix])
	}
}
