package services

import (
	"testing"

	"github.com/clinisim/simulator-api/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    model.ContributionStatus
		to      model.ContributionStatus
		allowed bool
	}{
		// Authoring
		{model.ContributionDraft, model.ContributionSubmitted, true},
		{model.ContributionDraft, model.ContributionApproved, false},
		{model.ContributionDraft, model.ContributionPublished, false},

		// Review intake
		{model.ContributionSubmitted, model.ContributionUnderReview, true},
		{model.ContributionSubmitted, model.ContributionRejected, true},
		{model.ContributionSubmitted, model.ContributionDraft, true},
		{model.ContributionSubmitted, model.ContributionApproved, false},

		// Review outcomes
		{model.ContributionUnderReview, model.ContributionApproved, true},
		{model.ContributionUnderReview, model.ContributionRejected, true},
		{model.ContributionUnderReview, model.ContributionDraft, true},
		{model.ContributionUnderReview, model.ContributionPublished, false},

		// Publication
		{model.ContributionApproved, model.ContributionPublished, true},
		{model.ContributionApproved, model.ContributionDraft, false},

		// Terminal and recovery states
		{model.ContributionPublished, model.ContributionDraft, false},
		{model.ContributionPublished, model.ContributionSubmitted, false},
		{model.ContributionRejected, model.ContributionDraft, true},
		{model.ContributionRejected, model.ContributionSubmitted, false},

		// Self transitions are never allowed
		{model.ContributionDraft, model.ContributionDraft, false},
		{model.ContributionUnderReview, model.ContributionUnderReview, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.from, tt.to)
		if got != tt.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}
