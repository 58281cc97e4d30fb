package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docflow/internal/domain"
)

func TestEvaluate_ConfidenceOnly(t *testing.T) {
	tests := []struct {
		name         string
		confidence   float64
		wantPriority Priority
		wantReason   string
	}{
		{"very low confidence", 0.40, PriorityHigh, "Low OCR confidence (40.0%)"},
		{"medium confidence", 0.70, PriorityMedium, "Low OCR confidence (70.0%)"},
		{"high confidence", 0.95, PriorityLow, "Manual review requested"},
		{"just below high cutoff", 0.49, PriorityHigh, "Low OCR confidence (49.0%)"},
		{"exactly at high cutoff", 0.50, PriorityMedium, "Low OCR confidence (50.0%)"},
		{"exactly at medium cutoff", 0.75, PriorityLow, "Low OCR confidence (75.0%)"},
		{"below reason cutoff but low priority", 0.80, PriorityLow, "Low OCR confidence (80.0%)"},
		{"exactly at reason cutoff", 0.85, PriorityLow, "Manual review requested"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			priority, reason := Evaluate(tt.confidence, nil)
			assert.Equal(t, tt.wantPriority, priority)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestEvaluate_Flags(t *testing.T) {
	t.Run("illegible forces high regardless of confidence", func(t *testing.T) {
		priority, reason := Evaluate(0.99, domain.FlagMap{
			"illegible": {Detected: true, Evidence: "smudged region"},
		})
		assert.Equal(t, PriorityHigh, priority)
		assert.Equal(t, "illegible detected", reason)
	})

	t.Run("handwritten forces medium", func(t *testing.T) {
		priority, reason := Evaluate(0.99, domain.FlagMap{
			"handwritten": {Detected: true},
		})
		assert.Equal(t, PriorityMedium, priority)
		assert.Equal(t, "handwritten detected", reason)
	})

	t.Run("crossed_out forces medium", func(t *testing.T) {
		priority, _ := Evaluate(0.99, domain.FlagMap{
			"crossed_out": {Detected: true},
		})
		assert.Equal(t, PriorityMedium, priority)
	})

	t.Run("undetected flags are ignored", func(t *testing.T) {
		priority, reason := Evaluate(0.99, domain.FlagMap{
			"illegible":   {Detected: false},
			"handwritten": {Detected: false},
		})
		assert.Equal(t, PriorityLow, priority)
		assert.Equal(t, "Manual review requested", reason)
	})

	t.Run("unknown flag names contribute to the reason", func(t *testing.T) {
		priority, reason := Evaluate(0.99, domain.FlagMap{
			"watermark": {Detected: true},
		})
		assert.Equal(t, PriorityLow, priority)
		assert.Equal(t, "watermark detected", reason)
	})

	t.Run("confidence clause joins flag clauses", func(t *testing.T) {
		_, reason := Evaluate(0.60, domain.FlagMap{
			"handwritten": {Detected: true},
			"crossed_out": {Detected: true},
		})
		assert.Equal(t, "Low OCR confidence (60.0%), crossed_out detected, handwritten detected", reason)
	})
}

// Priority must never drop as confidence falls, flags held equal.
func TestEvaluate_Monotonicity(t *testing.T) {
	rank := map[Priority]int{PriorityLow: 0, PriorityMedium: 1, PriorityHigh: 2}

	flagSets := []domain.FlagMap{
		nil,
		{"handwritten": {Detected: true}},
		{"illegible": {Detected: true}},
		{"watermark": {Detected: true}},
	}

	for _, flags := range flagSets {
		prev := -1
		for conf := 1.0; conf >= 0; conf -= 0.01 {
			priority, _ := Evaluate(conf, flags)
			if prev >= 0 {
				assert.GreaterOrEqual(t, rank[priority], prev,
					"priority dropped as confidence fell to %.2f", conf)
			}
			prev = rank[priority]
		}
	}
}
