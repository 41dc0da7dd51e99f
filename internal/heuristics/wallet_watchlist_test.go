package heuristics

import (
	"testing"

	"github.com/anhanga/fincrime-engine/pkg/models"
)

func TestWalletWatchlist_CheckMatches(t *testing.T) {
	wl := NewWalletWatchlist()
	wl.Add(WatchedWallet{
		Address:    "0x742d35cc6634c0532925a3b844bc9e7595f2bd48",
		Coin:       "ETH/EVM",
		Label:      "Case 2024-117 cashout wallet",
		CaseID:     "2024-117",
		AlertLevel: "critical",
	})

	matches := []models.WalletMatch{
		{Coin: "ETH/EVM", Address: "0x742d35cc6634c0532925a3b844bc9e7595f2bd48", Confidence: "High"},
		{Coin: "BTC (Legacy)", Address: "1aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Confidence: "High"},
	}

	hits := wl.CheckMatches("site-suspeito.com", matches)
	if len(hits) != 1 {
		t.Fatalf("Expected 1 watchlist hit. Got: %d", len(hits))
	}
	if hits[0].CaseID != "2024-117" || hits[0].Target != "site-suspeito.com" {
		t.Errorf("Hit metadata mismatch: %+v", hits[0])
	}
	if hits[0].AlertLevel != "critical" {
		t.Errorf("Expected critical alert level. Got: %q", hits[0].AlertLevel)
	}
}

func TestWalletWatchlist_Defaults(t *testing.T) {
	wl := NewWalletWatchlist()
	wl.Add(WatchedWallet{Address: "abc"})

	entries := wl.List()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry. Got: %d", len(entries))
	}
	if entries[0].AlertLevel != "medium" {
		t.Errorf("Expected default medium alert level. Got: %q", entries[0].AlertLevel)
	}
	if entries[0].AddedAt.IsZero() {
		t.Errorf("Expected AddedAt to be stamped")
	}
}

func TestWalletWatchlist_Remove(t *testing.T) {
	wl := NewWalletWatchlist()
	wl.Add(WatchedWallet{Address: "abc"})

	if !wl.Remove("abc") {
		t.Errorf("Expected removal of a present address to report true")
	}
	if wl.Remove("abc") {
		t.Errorf("Expected removal of an absent address to report false")
	}
	if len(wl.List()) != 0 {
		t.Errorf("Expected empty watchlist after removal")
	}
}
