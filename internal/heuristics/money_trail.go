package heuristics

import (
	"fmt"
	"strings"

	"github.com/anhanga/fincrime-engine/pkg/models"
)

// Money-Trail Risk Scorer ("Orange Check")
//
// Flags beneficiary substitution: a licensed operator claims to run the
// site while PIX payments land on an unrelated person or shell company —
// the "laranja" (straw recipient) pattern common in unlicensed gambling.
//
// The declared operator name (from the compliance registry hit) is fuzzy-
// compared against every decoded beneficiary. Below 0.6 similarity the
// payment is a mismatch worth +50 risk. The score is intentionally
// unclamped: three different straw recipients on one page are three times
// the signal, and downstream consumers care about the ordering, not an
// absolute ceiling.

// MismatchPenalty is added to the risk score per mismatching payment.
const MismatchPenalty = 50

// SimilarityThreshold below which operator and beneficiary are treated as
// unrelated identities.
const SimilarityThreshold = 0.6

// ScoreMoneyTrail correlates decoded payments against the declared
// operator. With no operator available there is nothing to correlate:
// the score is 0 and no flags are produced.
func ScoreMoneyTrail(payments []models.DecodedPayment, operator string) (int, []string) {
	if operator == "" {
		return 0, nil
	}

	riskScore := 0
	var flags []string

	for _, p := range payments {
		if p.BeneficiaryName == "" {
			continue
		}

		ratio := SimilarityRatio(
			strings.ToLower(operator),
			strings.ToLower(p.BeneficiaryName),
		)

		if ratio < SimilarityThreshold {
			riskScore += MismatchPenalty
			flags = append(flags, fmt.Sprintf(
				"Mismatch: operator %q vs beneficiary %q (similarity %.2f)",
				operator, p.BeneficiaryName, ratio))
		} else {
			flags = append(flags, fmt.Sprintf(
				"Verified: beneficiary %q consistent with operator %q (similarity %.2f)",
				p.BeneficiaryName, operator, ratio))
		}
	}

	return riskScore, flags
}
