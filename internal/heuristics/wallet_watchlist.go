package heuristics

import (
	"sync"
	"time"

	"github.com/anhanga/fincrime-engine/pkg/models"
)

// Wallet Watchlist — Cross-Case Address Monitoring
//
// Deposit addresses recur: the same USDT wallet shows up on a dozen
// illegal betting fronts before it rotates. Every wallet extracted during
// an investigation is checked against this list; a hit links the new case
// to whichever case first flagged the address and fires an alert on the
// event stream.
//
// Concurrency: sync.RWMutex allows concurrent reads on the hot path
// (checking scan results) while writes (adding/removing addresses) are
// serialized.

// WatchedWallet holds investigator-supplied metadata for one address.
type WatchedWallet struct {
	Address    string    `json:"address"`
	Coin       string    `json:"coin"`
	Label      string    `json:"label"`
	CaseID     string    `json:"caseId"`
	AddedAt    time.Time `json:"addedAt"`
	AlertLevel string    `json:"alertLevel"` // info/low/medium/high/critical
}

// WatchlistHit is a match between a scan result and a watched wallet.
type WatchlistHit struct {
	Address    string `json:"address"`
	Coin       string `json:"coin"`
	Label      string `json:"label"`
	CaseID     string `json:"caseId"`
	Target     string `json:"target"` // site the address was seen on
	AlertLevel string `json:"alertLevel"`
}

// WalletWatchlist is a concurrent-safe monitoring set.
type WalletWatchlist struct {
	mu      sync.RWMutex
	wallets map[string]WatchedWallet
}

// NewWalletWatchlist creates an empty watchlist.
func NewWalletWatchlist() *WalletWatchlist {
	return &WalletWatchlist{wallets: make(map[string]WatchedWallet)}
}

// Add registers or updates a watched address.
func (w *WalletWatchlist) Add(entry WatchedWallet) {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}
	if entry.AlertLevel == "" {
		entry.AlertLevel = "medium"
	}

	w.mu.Lock()
	w.wallets[entry.Address] = entry
	w.mu.Unlock()
}

// Remove deletes an address; reports whether it was present.
func (w *WalletWatchlist) Remove(address string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.wallets[address]; !ok {
		return false
	}
	delete(w.wallets, address)
	return true
}

// List returns a snapshot of all watched wallets.
func (w *WalletWatchlist) List() []WatchedWallet {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]WatchedWallet, 0, len(w.wallets))
	for _, entry := range w.wallets {
		out = append(out, entry)
	}
	return out
}

// CheckMatches compares extracted wallets against the watchlist. O(1) per
// address.
func (w *WalletWatchlist) CheckMatches(target string, matches []models.WalletMatch) []WatchlistHit {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var hits []WatchlistHit
	for _, m := range matches {
		entry, ok := w.wallets[m.Address]
		if !ok {
			continue
		}
		hits = append(hits, WatchlistHit{
			Address:    m.Address,
			Coin:       m.Coin,
			Label:      entry.Label,
			CaseID:     entry.CaseID,
			Target:     target,
			AlertLevel: entry.AlertLevel,
		})
	}
	return hits
}
