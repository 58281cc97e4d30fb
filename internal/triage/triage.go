// Package triage computes review priority and a human-readable reason for
// unreviewed document items from extraction confidence and flags. It is pure
// and stateless: the same item always triages the same way.
package triage

import (
	"fmt"
	"sort"
	"strings"

	"docflow/internal/domain"
)

// Priority orders items in the review queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Confidence cut-offs. The reason threshold is deliberately higher than the
// priority thresholds: any item below very high confidence carries a visible
// reason for audit purposes even when its priority is merely low.
const (
	highConfidenceCutoff   = 0.5
	mediumConfidenceCutoff = 0.75
	reasonConfidenceCutoff = 0.85
)

// FallbackReason is used when no confidence or flag clause applies.
const FallbackReason = "Manual review requested"

// Evaluate returns the review priority and reason for an item with the given
// extraction confidence and flags.
func Evaluate(ocrConfidence float64, flags domain.FlagMap) (Priority, string) {
	return evalPriority(ocrConfidence, flags), evalReason(ocrConfidence, flags)
}

func evalPriority(confidence float64, flags domain.FlagMap) Priority {
	if confidence < highConfidenceCutoff || flags.IsDetected("illegible") {
		return PriorityHigh
	}
	if confidence < mediumConfidenceCutoff ||
		flags.IsDetected("crossed_out") || flags.IsDetected("handwritten") {
		return PriorityMedium
	}
	return PriorityLow
}

func evalReason(confidence float64, flags domain.FlagMap) string {
	var clauses []string
	if confidence < reasonConfidenceCutoff {
		clauses = append(clauses, fmt.Sprintf("Low OCR confidence (%.1f%%)", confidence*100))
	}

	names := make([]string, 0, len(flags))
	for name, flag := range flags {
		if flag.Detected {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		clauses = append(clauses, fmt.Sprintf("%s detected", name))
	}

	if len(clauses) == 0 {
		return FallbackReason
	}
	return strings.Join(clauses, ", ")
}
