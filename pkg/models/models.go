package models

import "time"

// DecodedPayment is the output of the PIX EMV/BR Code decoder. All fields
// except FullPayload are optional: absent TLV tags map to empty strings,
// never to sentinel values.
type DecodedPayment struct {
	FullPayload     string `json:"fullPayload"`
	BeneficiaryName string `json:"beneficiaryName,omitempty"`
	City            string `json:"city,omitempty"`
	Amount          string `json:"amount,omitempty"`
	TransactionID   string `json:"transactionId,omitempty"`
	PixKey          string `json:"pixKey,omitempty"`
	PixKeyType      string `json:"pixKeyType,omitempty"` // "email"/"cpf"/"cnpj"/"evp"/"random"
	CRCValid        bool   `json:"crcValid"`
}

// WalletMatch is a cryptocurrency address that survived every extraction
// filter. Only high-confidence matches are ever emitted; low-confidence
// candidates are dropped during scanning, not down-weighted.
type WalletMatch struct {
	Coin       string `json:"coin"`
	Address    string `json:"address"`
	Confidence string `json:"confidence"` // always "High"
}

// Compliance verdicts for a domain against the licensing registry.
const (
	ComplianceAuthorized          = "AUTHORIZED"
	ComplianceUnlicensedSovereign = "UNLICENSED_SOVEREIGN"
	ComplianceIllegalForeign      = "ILLEGAL_FOREIGN"
)

// ComplianceEntry is one row of the authorized-operator registry.
type ComplianceEntry struct {
	Domains  []string `json:"domains"`
	Operator string   `json:"operator"`
	AuthType string   `json:"auth_type"`
	Brands   []string `json:"brands"`
}

// ComplianceResult is the classification verdict for a single domain.
type ComplianceResult struct {
	Status   string `json:"status"`
	Operator string `json:"operator,omitempty"`
	AuthType string `json:"authType,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// FinancialIntel aggregates every financial-analysis finding for one run.
// RiskScore is only ever increased by the money-trail scorer.
type FinancialIntel struct {
	RiskScore  int              `json:"riskScore"`
	Flags      []string         `json:"flags"`
	PixData    []DecodedPayment `json:"pixData"`
	CryptoData []WalletMatch    `json:"cryptoData"`
}

// CaseEntity is a person or instrument tied to a case. Document is the
// identifying key: the case store never holds two entities with the same one.
type CaseEntity struct {
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// InfraRecord is the infrastructure fingerprint of an investigated domain.
type InfraRecord struct {
	Domain      string    `json:"domain"`
	IP          string    `json:"ip"`
	Protection  string    `json:"protection,omitempty"`
	FaviconHash int32     `json:"faviconHash,omitempty"`
	ShodanPivot string    `json:"shodanPivot,omitempty"`
	Subdomains  []string  `json:"subdomains,omitempty"`
	Info        string    `json:"info,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// CaseRelation is a directional forensic link between two case nodes
// (e.g. domain → beneficiary).
type CaseRelation struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
