package pipeline

import (
	"strings"

	"github.com/anhanga/fincrime-engine/pkg/models"
)

// ProtectionType classifies the anti-bot posture detected by the probe.
type ProtectionType string

const (
	ProtectionCloudflare ProtectionType = "Cloudflare"
	ProtectionNone       ProtectionType = "None"
	ProtectionUnknown    ProtectionType = "Unknown"
)

// RunStatus is the overall outcome of the content-acquisition path.
type RunStatus string

const (
	StatusPending RunStatus = "Pending"
	StatusSuccess RunStatus = "Success"
	StatusFailed  RunStatus = "Failed"
)

// InvestigationState is the single record threaded through the pipeline.
// One state belongs to exactly one run; stages mutate it in place and no
// state is shared between concurrent investigations.
//
// Errors is append-only and never cleared: it preserves the causal order
// of failures across stages, and a populated Errors slice does not imply
// the run produced nothing — partial results are the norm, and callers
// must inspect Errors and Status rather than assume a clean run.
type InvestigationState struct {
	Target           string                   `json:"target"`
	HTML             string                   `json:"-"`
	ProtectionType   ProtectionType           `json:"protectionType"`
	ScreenshotPath   string                   `json:"screenshotPath,omitempty"`
	Status           RunStatus                `json:"status"`
	RetryCount       int                      `json:"retryCount"`
	Errors           []string                 `json:"errors"`
	ComplianceResult *models.ComplianceResult `json:"complianceResult,omitempty"`
	FinancialIntel   models.FinancialIntel    `json:"financialIntel"`
}

// NewInvestigationState creates a fresh state for one run. The target is
// normalized to carry a scheme; bare domains get https.
func NewInvestigationState(target string) *InvestigationState {
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	return &InvestigationState{
		Target:         target,
		ProtectionType: ProtectionUnknown,
		Status:         StatusPending,
	}
}

// AddError appends to the run's error trail.
func (s *InvestigationState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}
