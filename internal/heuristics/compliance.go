package heuristics

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/anhanga/fincrime-engine/pkg/models"
)

// Betting Compliance Classifier
//
// Matches a target domain against the registry of operators licensed under
// the Brazilian fixed-odds betting regime (SPA/MF authorization list).
// Verdicts:
//
//   AUTHORIZED            — domain (or a parent of it) is in the registry
//   UNLICENSED_SOVEREIGN  — .bet.br domain missing from the registry
//   ILLEGAL_FOREIGN       — any other domain not in the registry
//
// The registry is read-only after load and safe to share across
// concurrent investigations.

const sovereignSuffix = ".bet.br"

// registryJSON is the packaged snapshot of the authorization list,
// compiled into the binary the same way the DB schema is.
//
//go:embed data/bets_db.json
var registryJSON []byte

type registryFile struct {
	Whitelist []models.ComplianceEntry `json:"whitelist"`
}

// ComplianceClassifier answers licensing questions about domains.
type ComplianceClassifier struct {
	whitelist []models.ComplianceEntry
}

// NewComplianceClassifier loads the registry from path, falling back to
// the embedded snapshot when path is empty. A registry that cannot be
// loaded degrades to an empty whitelist: every lookup then deterministically
// returns a non-authorized verdict. Degradation is logged, never raised.
func NewComplianceClassifier(path string) *ComplianceClassifier {
	data := registryJSON
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			log.Printf("[Compliance] Failed to read registry %s, using embedded snapshot: %v", path, err)
		} else {
			data = fileData
		}
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf("[Compliance] Corrupt registry data, degrading to empty whitelist: %v", err)
		return &ComplianceClassifier{}
	}

	return &ComplianceClassifier{whitelist: file.Whitelist}
}

// RegistrySize reports how many operator entries are loaded.
func (c *ComplianceClassifier) RegistrySize() int {
	return len(c.whitelist)
}

// Classify normalizes the input to a bare host and returns its
// authorization verdict. Subdomains of a registered domain are treated as
// the registered domain ("promo.betano.bet.br" matches "betano.bet.br").
func (c *ComplianceClassifier) Classify(target string) models.ComplianceResult {
	host := NormalizeHost(target)

	for _, entry := range c.whitelist {
		for _, domain := range entry.Domains {
			domain = strings.ToLower(domain)
			if host == domain || strings.HasSuffix(host, "."+domain) {
				brand := ""
				if len(entry.Brands) > 0 {
					brand = entry.Brands[0]
				}
				return models.ComplianceResult{
					Status:   models.ComplianceAuthorized,
					Operator: entry.Operator,
					AuthType: entry.AuthType,
					Brand:    brand,
				}
			}
		}
	}

	if strings.HasSuffix(host, sovereignSuffix) {
		return models.ComplianceResult{
			Status: models.ComplianceUnlicensedSovereign,
			Reason: "Domain ends with .bet.br but is not in the authorization registry",
		}
	}

	return models.ComplianceResult{
		Status: models.ComplianceIllegalForeign,
		Reason: "Foreign domain not present in the authorization registry",
	}
}

// NormalizeHost reduces a URL or bare domain to a lowercase host without
// a leading "www." label.
func NormalizeHost(target string) string {
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}

	host := ""
	if u, err := url.Parse(target); err == nil {
		host = u.Hostname()
	}
	if host == "" {
		// Unparseable input: best-effort split on the raw string.
		host = strings.SplitN(strings.SplitN(target, "://", 2)[1], "/", 2)[0]
	}

	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}
