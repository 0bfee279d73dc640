package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validAssessment() RiskAssessment {
	return RiskAssessment{
		RPCStatus:      RPCStatusYes,
		CallOutcome:    CallOutcomePTP,
		RiskScore:      30,
		MatrixQuadrant: QuadrantForgetful,
		FinancialProfile: FinancialProfile{
			PaymentMethodMentioned: PaymentMethodNone,
		},
	}
}

func TestValidateAcceptsSchema(t *testing.T) {
	a := validAssessment()
	assert.NoError(t, a.Validate())
}

func TestValidateRejections(t *testing.T) {
	badDate := "next Tuesday"

	cases := map[string]func(*RiskAssessment){
		"rpc_status":     func(a *RiskAssessment) { a.RPCStatus = "Maybe" },
		"call_outcome":   func(a *RiskAssessment) { a.CallOutcome = "Error" },
		"score too high": func(a *RiskAssessment) { a.RiskScore = 101 },
		"score negative": func(a *RiskAssessment) { a.RiskScore = -1 },
		"quadrant":       func(a *RiskAssessment) { a.MatrixQuadrant = "Deadbeat" },
		"payment method": func(a *RiskAssessment) { a.FinancialProfile.PaymentMethodMentioned = "Cash" },
		"promised date":  func(a *RiskAssessment) { a.NegotiationDetails.PromisedDate = &badDate },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			a := validAssessment()
			mutate(&a)
			assert.Error(t, a.Validate())
		})
	}
}

func TestDeriveTags(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RiskAssessment)
		want   []string
	}{
		{
			name:   "low risk forgetful",
			mutate: func(a *RiskAssessment) {},
			want:   nil,
		},
		{
			name:   "high score",
			mutate: func(a *RiskAssessment) { a.RiskScore = 80 },
			want:   []string{TagHighRisk},
		},
		{
			name:   "strategic defaulter",
			mutate: func(a *RiskAssessment) { a.MatrixQuadrant = QuadrantStrategicDefaulter },
			want:   []string{TagLegalReview},
		},
		{
			name:   "hardship",
			mutate: func(a *RiskAssessment) { a.MatrixQuadrant = QuadrantHardship },
			want:   []string{TagSettlementOffer},
		},
		{
			name: "everything at once",
			mutate: func(a *RiskAssessment) {
				a.RiskScore = 95
				a.MatrixQuadrant = QuadrantStrategicDefaulter
				a.LegalFlags.BankruptcyRisk = true
			},
			want: []string{TagHighRisk, TagLegalReview, TagDNCBankruptcy},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAssessment()
			tc.mutate(&a)
			assert.Equal(t, tc.want, a.DeriveTags())
		})
	}
}

func TestFlattenTranscript(t *testing.T) {
	cfg := CallConfiguration{DebtorName: "Alice", AgentName: "Rachel"}
	entries := []TranscriptEntry{
		{Role: RoleSystem, Content: "internal instructions"},
		{Role: RoleAssistant, Content: "Hello Alice."},
		{Role: RoleUser, Content: "Hi."},
	}

	got := FlattenTranscript(entries, cfg)

	assert.Equal(t, "Rachel: Hello Alice.\nAlice: Hi.", got)
	assert.NotContains(t, got, "internal instructions")
}

func TestFlattenTranscriptEmpty(t *testing.T) {
	assert.Equal(t, "", FlattenTranscript(nil, CallConfiguration{}))
}

func TestSpeakerForFallbacks(t *testing.T) {
	assert.Equal(t, "Defaulter", SpeakerFor(RoleUser, CallConfiguration{}))
	assert.Equal(t, "Agent", SpeakerFor(RoleAssistant, CallConfiguration{}))
	assert.Equal(t, "system", SpeakerFor(RoleSystem, CallConfiguration{}))
}
