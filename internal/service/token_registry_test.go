package service

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swap_go/internal/domain"
	"swap_go/internal/infra/storage"
)

func TestTokenRegistryMemoryOnly(t *testing.T) {
	r := NewTokenRegistry(nil)
	if err := r.Load(); err != nil {
		t.Fatalf("load with nil store: %v", err)
	}

	addr := common.HexToAddress("0x2000000000000000000000000000000000000001")
	if err := r.Put(&domain.TokenInfo{Address: addr.Hex(), Symbol: "WETH", Decimals: 18}); err != nil {
		t.Fatalf("put: %v", err)
	}

	info, ok := r.Token(addr)
	if !ok || info.Symbol != "WETH" {
		t.Errorf("token = %+v ok=%v", info, ok)
	}
	if _, ok := r.Token(common.HexToAddress("0xdead000000000000000000000000000000000000")); ok {
		t.Error("unknown address resolved")
	}
	if len(r.All()) != 1 || len(r.Addresses()) != 1 {
		t.Errorf("all=%d addresses=%d, want 1", len(r.All()), len(r.Addresses()))
	}
}

func TestTokenRegistryPersistsAcrossReload(t *testing.T) {
	store, err := storage.NewStorageAt(filepath.Join(t.TempDir(), "reg.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}

	addr := common.HexToAddress("0x2000000000000000000000000000000000000002")
	r1 := NewTokenRegistry(store)
	if err := r1.Put(&domain.TokenInfo{Address: addr.Hex(), Symbol: "USDC", Decimals: 6}); err != nil {
		t.Fatalf("put: %v", err)
	}

	r2 := NewTokenRegistry(store)
	if err := r2.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	info, ok := r2.Token(addr)
	if !ok || info.Decimals != 6 {
		t.Errorf("token after reload = %+v ok=%v", info, ok)
	}
}
