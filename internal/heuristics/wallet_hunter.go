package heuristics

import (
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/anhanga/fincrime-engine/pkg/models"
)

// Wallet Hunter — Strict Anti-Hallucination Extraction
//
// Scans raw page content for cryptocurrency deposit addresses. Naive regex
// matching over real pages (minified JS, analytics IDs, UUIDs, CSS class
// soup) is almost pure noise, so this is a precision-over-recall engine:
// a candidate must survive, in order,
//
//   1. camelCase rejection — a lowercase letter immediately followed by an
//      uppercase one is the signature of a code identifier, not an address
//   2. lexical blacklist — common programming/English tokens embedded in
//      the candidate
//   3. network-specific sanity — SOL base58 candidates need at least one
//      digit; segwit candidates must carry a valid bech32 checksum
//   4. context window — a finance/crypto keyword within 50 chars on either
//      side of the match
//
// Later filters assume the candidate already passed earlier ones. Matches
// are deduplicated by address and always labeled "High": anything that
// would be lower confidence has been dropped, not down-weighted.

// ContextWindow is the number of characters inspected on each side of a
// candidate when looking for contextual keyword support.
const ContextWindow = 50

type walletPattern struct {
	Coin string
	Re   *regexp.Regexp
}

// Scan order matters: the SOL pattern overlaps the base58 portions of the
// BTC and TRON patterns, and deduplication keeps the first (most specific)
// coin label for a given address.
var walletPatterns = []walletPattern{
	{"BTC (Legacy)", regexp.MustCompile(`\b1[a-km-zA-Z1-9]{25,34}\b`)},
	{"BTC (Segwit)", regexp.MustCompile(`\bbc1[a-zA-Z0-9]{35,59}\b`)},
	{"ETH/EVM", regexp.MustCompile(`\b0x[a-fA-F0-9]{40}\b`)},
	{"TRON (TRC20)", regexp.MustCompile(`\bT[a-zA-Z0-9]{33}\b`)},
	{"SOL", regexp.MustCompile(`\b[1-9A-HJ-NP-Za-km-z]{32,44}\b`)},
}

var camelCaseRe = regexp.MustCompile(`[a-z]+[A-Z]`)

// contextKeywords indicate a financial context around a candidate.
// Portuguese terms included: the primary targets are BR-facing sites.
var contextKeywords = []string{
	"deposit", "deposito", "depósito",
	"address", "endereço", "wallet", "carteira",
	"send", "enviar", "pay", "pagar",
	"usdt", "btc", "eth", "tron", "sol", "bitcoin", "solana",
	"copy", "copiar", "erc20", "trc20", "bep20", "network", "rede",
}

// blacklistWords are common code/English tokens that frequently appear
// inside syntactically valid-looking candidates on real pages.
var blacklistWords = []string{
	"success", "description", "part", "payment", "bank", "account",
	"edit", "delete", "update", "create", "new", "method", "type",
	"status", "message", "error", "code", "token", "auth", "session",
	"user", "id", "name", "email", "password", "key", "value",
	"params", "query", "body", "header", "footer", "div", "span",
	"class", "style", "script", "function", "var", "let", "const",
}

// ScanWallets extracts every high-confidence cryptocurrency address from
// arbitrary text. Running it twice on the same input yields the same set.
func ScanWallets(text string) []models.WalletMatch {
	var found []models.WalletMatch
	seen := make(map[string]bool)

	for _, p := range walletPatterns {
		for _, loc := range p.Re.FindAllStringIndex(text, -1) {
			candidate := text[loc[0]:loc[1]]

			if camelCaseRe.MatchString(candidate) {
				continue
			}
			if containsBlacklistedWord(candidate) {
				continue
			}
			if !passesNetworkSanity(p.Coin, candidate) {
				continue
			}
			if !hasFinancialContext(text, loc[0], loc[1]) {
				continue
			}
			if seen[candidate] {
				continue
			}

			seen[candidate] = true
			found = append(found, models.WalletMatch{
				Coin:       p.Coin,
				Address:    candidate,
				Confidence: "High",
			})
		}
	}

	return found
}

func containsBlacklistedWord(candidate string) bool {
	lowered := strings.ToLower(candidate)
	for _, word := range blacklistWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

// passesNetworkSanity applies per-network structural checks. SOL-length
// base58 strings made purely of letters are disproportionately prose
// fragments; segwit strings that fail bech32 checksum decoding are
// truncated copies or random base32-ish junk.
func passesNetworkSanity(coin, candidate string) bool {
	switch coin {
	case "SOL":
		return strings.ContainsAny(candidate, "123456789")
	case "BTC (Segwit)":
		_, _, _, err := bech32.DecodeGeneric(strings.ToLower(candidate))
		return err == nil
	default:
		return true
	}
}

// hasFinancialContext requires a keyword within ContextWindow chars of the
// match. Syntactic validity alone is not enough on arbitrary pages.
func hasFinancialContext(text string, start, end int) bool {
	snippetStart := start - ContextWindow
	if snippetStart < 0 {
		snippetStart = 0
	}
	snippetEnd := end + ContextWindow
	if snippetEnd > len(text) {
		snippetEnd = len(text)
	}

	snippet := strings.ToLower(text[snippetStart:snippetEnd])
	for _, keyword := range contextKeywords {
		if strings.Contains(snippet, keyword) {
			return true
		}
	}
	return false
}
