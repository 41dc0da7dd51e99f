package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/anhanga/fincrime-engine/internal/fetcher"
	"github.com/anhanga/fincrime-engine/internal/heuristics"
	"github.com/anhanga/fincrime-engine/internal/infra"
)

type fakeProber struct {
	res infra.ProbeResult
	err error
}

func (f *fakeProber) Probe(ctx context.Context, target string) (infra.ProbeResult, error) {
	return f.res, f.err
}

type fakeFetcher struct {
	html  string
	shot  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, target string) (fetcher.FetchResult, error) {
	f.calls++
	if f.err != nil {
		return fetcher.FetchResult{}, f.err
	}
	return fetcher.FetchResult{HTML: f.html, ScreenshotPath: f.shot}, nil
}

func cloudflareProbe() infra.ProbeResult {
	h := http.Header{}
	h.Set("Cf-Ray", "8a1b2c3d4e5f6789-GRU")
	h.Set("Server", "cloudflare")
	return infra.ProbeResult{StatusCode: 403, Headers: h}
}

func plainProbe() infra.ProbeResult {
	h := http.Header{}
	h.Set("Server", "nginx")
	return infra.ProbeResult{StatusCode: 200, Headers: h}
}

func TestRouteAfterProbe(t *testing.T) {
	if got := RouteAfterProbe(ProtectionCloudflare); got != StageStealthFetch {
		t.Errorf("Expected Cloudflare to route to stealth fetch. Got: %s", got)
	}
	if got := RouteAfterProbe(ProtectionNone); got != StageStandardFetch {
		t.Errorf("Expected unprotected target to route to standard fetch. Got: %s", got)
	}
	if got := RouteAfterProbe(ProtectionUnknown); got != StageStandardFetch {
		t.Errorf("Expected unknown protection to route to standard fetch. Got: %s", got)
	}
}

func TestRun_CloudflareTakesStealthPath(t *testing.T) {
	standard := &fakeFetcher{html: "<html>standard</html>"}
	stealth := &fakeFetcher{html: "<html>stealth</html>", shot: "/tmp/shot.png"}

	p := NewPipeline(Options{
		Prober:   &fakeProber{res: cloudflareProbe()},
		Standard: standard,
		Stealth:  stealth,
	})

	st, err := p.Run(context.Background(), "site-suspeito.com")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if st.ProtectionType != ProtectionCloudflare {
		t.Errorf("Expected Cloudflare detection. Got: %s", st.ProtectionType)
	}
	if stealth.calls != 1 || standard.calls != 0 {
		t.Errorf("Expected only the stealth fetcher to run. stealth=%d standard=%d", stealth.calls, standard.calls)
	}
	if st.ScreenshotPath != "/tmp/shot.png" {
		t.Errorf("Expected screenshot path carried onto the state. Got: %q", st.ScreenshotPath)
	}
	if st.Status != StatusSuccess {
		t.Errorf("Expected successful acquisition. Got: %s", st.Status)
	}
}

func TestRun_PlainTargetTakesStandardPath(t *testing.T) {
	standard := &fakeFetcher{html: "<html>ok</html>"}
	stealth := &fakeFetcher{}

	p := NewPipeline(Options{
		Prober:   &fakeProber{res: plainProbe()},
		Standard: standard,
		Stealth:  stealth,
	})

	st, err := p.Run(context.Background(), "site-suspeito.com")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st.ProtectionType != ProtectionNone {
		t.Errorf("Expected no protection detected. Got: %s", st.ProtectionType)
	}
	if standard.calls != 1 || stealth.calls != 0 {
		t.Errorf("Expected only the standard fetcher to run. standard=%d stealth=%d", standard.calls, stealth.calls)
	}
}

func TestRun_ProbeFailureFailsOpen(t *testing.T) {
	standard := &fakeFetcher{html: "<html>ok</html>"}

	p := NewPipeline(Options{
		Prober:   &fakeProber{err: errors.New("connection refused")},
		Standard: standard,
		Stealth:  &fakeFetcher{},
	})

	st, err := p.Run(context.Background(), "site-suspeito.com")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st.ProtectionType != ProtectionNone {
		t.Errorf("Expected fail-open toward the cheap path. Got: %s", st.ProtectionType)
	}
	if standard.calls != 1 {
		t.Errorf("Expected the standard fetch attempt despite the probe error")
	}
	if len(st.Errors) == 0 || !strings.Contains(st.Errors[0], "infra probe") {
		t.Errorf("Expected the probe error on the trail. Got: %v", st.Errors)
	}
}

func TestRun_FetchFailureContinuesInvestigation(t *testing.T) {
	p := NewPipeline(Options{
		Prober:     &fakeProber{res: plainProbe()},
		Standard:   &fakeFetcher{err: errors.New("timeout")},
		Stealth:    &fakeFetcher{},
		Classifier: heuristics.NewComplianceClassifier(""),
	})

	st, err := p.Run(context.Background(), "betano.bet.br")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if st.Status != StatusFailed {
		t.Errorf("Expected failed acquisition status. Got: %s", st.Status)
	}
	if st.RetryCount != 1 {
		t.Errorf("Expected retry counter to record the failure. Got: %d", st.RetryCount)
	}
	// Compliance depends only on the target, never on page content.
	if st.ComplianceResult == nil {
		t.Fatal("Expected compliance verdict despite the failed fetch")
	}
	// Financial analysis has nothing to chew on and says so.
	found := false
	for _, e := range st.Errors {
		if strings.Contains(e, "no content to analyze") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected the empty-content error on the trail. Got: %v", st.Errors)
	}
}

func TestRun_EndToEndStrawRecipient(t *testing.T) {
	// A licensed operator's domain serving a PIX code that pays an
	// unrelated individual plus a crypto deposit address.
	body := "00020126430014br.gov.bcb.pix0121fraudster@example.com520400005303986" +
		"5406150.005802BR5910JOAO SILVA6008BRASILIA62070503***6304"
	payload := body + heuristics.ComputeCRC16(body)

	html := `<html><body>
		<div class="pix">` + payload + `</div>
		<p>ou envie o depósito USDT para 0x742d35cc6634c0532925a3b844bc9e7595f2bd48</p>
	</body></html>`

	var events []StageEvent
	p := NewPipeline(Options{
		Prober:     &fakeProber{res: plainProbe()},
		Standard:   &fakeFetcher{html: html},
		Stealth:    &fakeFetcher{},
		Classifier: heuristics.NewComplianceClassifier(""),
		OnStage:    func(ev StageEvent) { events = append(events, ev) },
	})

	st, err := p.Run(context.Background(), "betano.bet.br")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(st.FinancialIntel.PixData) != 1 {
		t.Fatalf("Expected 1 decoded payment. Got: %d", len(st.FinancialIntel.PixData))
	}
	if st.FinancialIntel.PixData[0].BeneficiaryName != "JOAO SILVA" {
		t.Errorf("Unexpected beneficiary: %q", st.FinancialIntel.PixData[0].BeneficiaryName)
	}
	if len(st.FinancialIntel.CryptoData) != 1 {
		t.Fatalf("Expected 1 wallet. Got: %d", len(st.FinancialIntel.CryptoData))
	}
	if st.FinancialIntel.RiskScore != heuristics.MismatchPenalty {
		t.Errorf("Expected straw-recipient risk score %d. Got: %d",
			heuristics.MismatchPenalty, st.FinancialIntel.RiskScore)
	}

	mismatch := false
	for _, f := range st.FinancialIntel.Flags {
		if strings.HasPrefix(f, "Mismatch:") {
			mismatch = true
		}
	}
	if !mismatch {
		t.Errorf("Expected a mismatch flag. Got: %v", st.FinancialIntel.Flags)
	}

	wantStages := []StageID{StageInfraProbe, StageStandardFetch, StageComplianceCheck, StageFinancialAnalysis}
	if len(events) != len(wantStages) {
		t.Fatalf("Expected %d stage events. Got: %d", len(wantStages), len(events))
	}
	for i, want := range wantStages {
		if events[i].Stage != want {
			t.Errorf("Stage %d: expected %s, got %s", i, want, events[i].Stage)
		}
		if events[i].Failed {
			t.Errorf("Stage %s unexpectedly flagged failed", events[i].Stage)
		}
	}
}

func TestRun_CancelledContextReturnsPartialState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(Options{
		Prober:   &fakeProber{res: plainProbe()},
		Standard: &fakeFetcher{html: "x"},
		Stealth:  &fakeFetcher{},
	})

	st, err := p.Run(ctx, "site-suspeito.com")
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if st == nil {
		t.Fatal("Expected partial state even on cancellation")
	}
	if len(st.Errors) == 0 || !strings.Contains(st.Errors[0], "cancelled") {
		t.Errorf("Expected cancellation recorded on the trail. Got: %v", st.Errors)
	}
}

func TestNewInvestigationState_NormalizesScheme(t *testing.T) {
	if st := NewInvestigationState("site-suspeito.com"); st.Target != "https://site-suspeito.com" {
		t.Errorf("Expected https scheme prepended. Got: %q", st.Target)
	}
	if st := NewInvestigationState("http://site-suspeito.com"); st.Target != "http://site-suspeito.com" {
		t.Errorf("Expected explicit scheme preserved. Got: %q", st.Target)
	}
}
