package model

import "testing"

func TestIsValidRetakeReason(t *testing.T) {
	valid := []string{
		RetakeReasonPerformance,
		RetakeReasonSkillImprovement,
		RetakeReasonExamPreparation,
		RetakeReasonInterest,
	}
	for _, r := range valid {
		if !IsValidRetakeReason(r) {
			t.Errorf("IsValidRetakeReason(%q) = false, want true", r)
		}
	}

	invalid := []string{"", "curiosity", "Performance", "retake"}
	for _, r := range invalid {
		if IsValidRetakeReason(r) {
			t.Errorf("IsValidRetakeReason(%q) = true, want false", r)
		}
	}
}
