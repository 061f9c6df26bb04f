package simulation

import (
	"testing"

	"github.com/clinisim/simulator-api/utils/validation"
)

func TestStartRetakeRequestValidation(t *testing.T) {
	v := validation.NewValidator()

	tests := []struct {
		name    string
		req     StartRetakeRequest
		wantErr bool
	}{
		{
			name: "full request",
			req: StartRetakeRequest{
				CaseID:                1,
				PreviousSessionID:     "a1b2c3",
				RetakeReason:          "performance",
				ImprovementFocusAreas: []string{"History Taking"},
			},
		},
		{
			// A retake does not have to reference an earlier session.
			name: "no previous session",
			req: StartRetakeRequest{
				CaseID:                1,
				RetakeReason:          "practice",
				ImprovementFocusAreas: []string{"Communication"},
			},
		},
		{
			name:    "missing case id",
			req:     StartRetakeRequest{RetakeReason: "performance"},
			wantErr: true,
		},
		{
			name:    "missing reason",
			req:     StartRetakeRequest{CaseID: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
