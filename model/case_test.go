package model

import "testing"

func TestIsValidCaseDifficulty(t *testing.T) {
	valid := []string{"beginner", "intermediate", "advanced"}
	for _, d := range valid {
		if !IsValidCaseDifficulty(d) {
			t.Errorf("IsValidCaseDifficulty(%q) = false, want true", d)
		}
	}

	invalid := []string{"", "expert", "Beginner", "INTERMEDIATE", "hard"}
	for _, d := range invalid {
		if IsValidCaseDifficulty(d) {
			t.Errorf("IsValidCaseDifficulty(%q) = true, want false", d)
		}
	}
}
