package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anhanga/fincrime-engine/internal/fetcher"
	"github.com/anhanga/fincrime-engine/internal/heuristics"
	"github.com/anhanga/fincrime-engine/internal/infra"
)

// Investigation Pipeline — typed state machine
//
//	Start → InfraProbe → {StealthFetch | StandardFetch} → ComplianceCheck
//	      → FinancialAnalysis → End
//
// The probe/fetch fork is the only branch point and is decided by a pure
// function of the detected protection type. Every stage is failure-
// isolated: a failed probe or fetch is appended to the error trail and
// the run continues, because a partially analyzed target is worth more
// than an aborted case. Compliance runs regardless of fetch outcome (it
// only needs the domain); financial analysis degrades explicitly when no
// content was acquired.
//
// Stage implementations are a static registry keyed by StageID — no
// runtime module resolution. Swapping a collaborator means passing a
// different interface value to NewPipeline.

// StageID identifies one node of the state machine.
type StageID string

const (
	StageStart             StageID = "start"
	StageInfraProbe        StageID = "infra_probe"
	StageStealthFetch      StageID = "stealth_fetch"
	StageStandardFetch     StageID = "standard_fetch"
	StageComplianceCheck   StageID = "compliance_check"
	StageFinancialAnalysis StageID = "financial_analysis"
	StageEnd               StageID = "end"
)

// StageEvent reports the outcome of one executed stage. Wired to the
// WebSocket stream and the Prometheus collectors by the caller.
type StageEvent struct {
	Stage    StageID       `json:"stage"`
	Target   string        `json:"target"`
	Failed   bool          `json:"failed"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"-"`
}

// stageFunc runs one stage against the state and names the next stage.
type stageFunc func(ctx context.Context, st *InvestigationState) StageID

// Options bundles the pipeline's collaborators and tuning.
type Options struct {
	Prober     infra.Prober
	Standard   fetcher.Fetcher
	Stealth    fetcher.Fetcher
	Classifier *heuristics.ComplianceClassifier

	ProbeTimeout time.Duration
	FetchTimeout time.Duration

	// OnStage, when set, receives an event after every executed stage.
	OnStage func(StageEvent)
}

// Pipeline executes investigations. Safe for concurrent use: all mutable
// state lives in the per-run InvestigationState.
type Pipeline struct {
	opts   Options
	stages map[StageID]stageFunc
}

// NewPipeline builds the static stage registry around the collaborators.
func NewPipeline(opts Options) *Pipeline {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 10 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 90 * time.Second
	}

	p := &Pipeline{opts: opts}
	p.stages = map[StageID]stageFunc{
		StageInfraProbe:        p.runInfraProbe,
		StageStealthFetch:      p.runStealthFetch,
		StageStandardFetch:     p.runStandardFetch,
		StageComplianceCheck:   p.runComplianceCheck,
		StageFinancialAnalysis: p.runFinancialAnalysis,
	}
	return p
}

// RouteAfterProbe is the pipeline's single routing decision: a pure
// function of the detected protection type.
func RouteAfterProbe(protection ProtectionType) StageID {
	if protection == ProtectionCloudflare {
		return StageStealthFetch
	}
	return StageStandardFetch
}

// Run executes the full state machine for one target and returns the
// final state. The returned state is always non-nil and inspectable even
// when ctx was cancelled mid-run; the error is non-nil only for
// cancellation (stage failures are recorded in state.Errors instead).
func (p *Pipeline) Run(ctx context.Context, target string) (*InvestigationState, error) {
	st := NewInvestigationState(target)

	current := StageInfraProbe
	for current != StageEnd {
		if err := ctx.Err(); err != nil {
			st.AddError(fmt.Sprintf("investigation cancelled at stage %s: %v", current, err))
			return st, err
		}

		stage, ok := p.stages[current]
		if !ok {
			// Contract violation: a transition named a stage that was
			// never registered. No safe default exists.
			return st, fmt.Errorf("pipeline: no implementation registered for stage %q", current)
		}

		started := time.Now()
		errsBefore := len(st.Errors)
		next := stage(ctx, st)

		p.emit(StageEvent{
			Stage:    current,
			Target:   st.Target,
			Failed:   len(st.Errors) > errsBefore,
			Duration: time.Since(started),
		})

		current = next
	}

	return st, nil
}

func (p *Pipeline) emit(ev StageEvent) {
	if p.opts.OnStage != nil {
		p.opts.OnStage(ev)
	}
}

// runInfraProbe classifies the target's anti-bot posture. Probe failure
// is fail-open toward the cheaper path: protection defaults to None, so
// an unreachable or flaky target still gets the standard fetch attempt.
func (p *Pipeline) runInfraProbe(ctx context.Context, st *InvestigationState) StageID {
	probeCtx, cancel := context.WithTimeout(ctx, p.opts.ProbeTimeout)
	defer cancel()

	res, err := p.opts.Prober.Probe(probeCtx, st.Target)
	if err != nil {
		st.AddError(fmt.Sprintf("infra probe: %v", err))
		st.ProtectionType = ProtectionNone
		return RouteAfterProbe(st.ProtectionType)
	}

	if infra.IsCloudflare(res) {
		st.ProtectionType = ProtectionCloudflare
	} else {
		st.ProtectionType = ProtectionNone
	}

	return RouteAfterProbe(st.ProtectionType)
}

func (p *Pipeline) runStealthFetch(ctx context.Context, st *InvestigationState) StageID {
	p.acquireContent(ctx, st, p.opts.Stealth, "stealth fetch")
	return StageComplianceCheck
}

func (p *Pipeline) runStandardFetch(ctx context.Context, st *InvestigationState) StageID {
	p.acquireContent(ctx, st, p.opts.Standard, "standard fetch")
	return StageComplianceCheck
}

// acquireContent runs one fetch collaborator. On failure the run keeps
// going with empty HTML; RetryCount is diagnostic only — nothing re-enters
// a failed fetch within a run.
func (p *Pipeline) acquireContent(ctx context.Context, st *InvestigationState, f fetcher.Fetcher, label string) {
	if f == nil {
		st.AddError(label + ": no fetcher configured")
		st.RetryCount++
		st.Status = StatusFailed
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	res, err := f.Fetch(fetchCtx, st.Target)
	if err != nil {
		st.AddError(fmt.Sprintf("%s: %v", label, err))
		st.RetryCount++
		st.Status = StatusFailed
		return
	}

	st.HTML = res.HTML
	if res.ScreenshotPath != "" {
		st.ScreenshotPath = res.ScreenshotPath
	}
	st.Status = StatusSuccess
}

// runComplianceCheck classifies the domain. Depends only on the target,
// never on page content, so it runs even after a failed fetch.
func (p *Pipeline) runComplianceCheck(_ context.Context, st *InvestigationState) StageID {
	if p.opts.Classifier == nil {
		st.AddError("compliance check: no classifier configured")
		return StageFinancialAnalysis
	}

	result := p.opts.Classifier.Classify(st.Target)
	st.ComplianceResult = &result
	return StageFinancialAnalysis
}

// runFinancialAnalysis decodes PIX payloads, hunts wallets, and scores
// the money trail against the compliance operator.
func (p *Pipeline) runFinancialAnalysis(_ context.Context, st *InvestigationState) StageID {
	if st.HTML == "" {
		st.AddError("financial analysis: no content to analyze")
		return StageEnd
	}

	for _, payload := range heuristics.ExtractPixPayloads(st.HTML) {
		decoded := heuristics.DecodePix(payload)
		st.FinancialIntel.PixData = append(st.FinancialIntel.PixData, decoded)
		if !decoded.CRCValid {
			st.FinancialIntel.Flags = append(st.FinancialIntel.Flags, fmt.Sprintf(
				"Integrity: CRC16 invalid for payload of beneficiary %q (corrupted or hand-edited code)",
				decoded.BeneficiaryName))
		}
	}

	st.FinancialIntel.CryptoData = heuristics.ScanWallets(st.HTML)

	operator := ""
	if st.ComplianceResult != nil {
		operator = st.ComplianceResult.Operator
	}
	score, flags := heuristics.ScoreMoneyTrail(st.FinancialIntel.PixData, operator)
	st.FinancialIntel.RiskScore += score
	st.FinancialIntel.Flags = append(st.FinancialIntel.Flags, flags...)

	if score >= heuristics.MismatchPenalty {
		log.Printf("[Pipeline] Money-trail alert for %s: risk score %d", st.Target, st.FinancialIntel.RiskScore)
	}

	return StageEnd
}
