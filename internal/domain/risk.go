package domain

import (
	"fmt"
	"time"
)

// Closed enumerations of the risk assessment schema. CallOutcomeError and
// CallOutcomeUnknown are not part of the model's output contract; they mark
// assessments that were degraded locally after an analysis failure.
const (
	RPCStatusYes       = "Yes"
	RPCStatusNo        = "No"
	RPCStatusVoicemail = "Voicemail"

	CallOutcomePTP      = "PTP"
	CallOutcomeRefusal  = "Refusal"
	CallOutcomeDispute  = "Dispute"
	CallOutcomeHangup   = "Hangup"
	CallOutcomeCallback = "Callback_Requested"
	CallOutcomeError    = "Error"
	CallOutcomeUnknown  = "Unknown"

	QuadrantStrategicDefaulter = "Strategic Defaulter"
	QuadrantHardship           = "Hardship"
	QuadrantForgetful          = "Forgetful"
	QuadrantBrokenPromise      = "Broken Promise"
	QuadrantUnclear            = "Unclear"

	PaymentMethodCreditCard   = "Credit Card"
	PaymentMethodBankTransfer = "Bank Transfer"
	PaymentMethodNone         = "None"
)

// Derived tag values.
const (
	TagHighRisk        = "High Risk"
	TagLegalReview     = "Legal Review"
	TagSettlementOffer = "Settlement Offer"
	TagDNCBankruptcy   = "DNC - Bankruptcy"
)

// FinancialProfile captures what the debtor revealed about their finances.
type FinancialProfile struct {
	Employed               *bool   `json:"employed"`
	HardshipReason         *string `json:"hardship_reason"`
	PaymentMethodMentioned string  `json:"payment_method_mentioned"`
}

// LegalFlags are the FDCPA compliance triggers scanned for on every call.
type LegalFlags struct {
	BankruptcyRisk      bool `json:"bankruptcy_risk"`
	AttorneyRepresented bool `json:"attorney_represented"`
	CeaseAndDesist      bool `json:"cease_and_desist"`
	DisputeRaised       bool `json:"dispute_raised"`
}

// NegotiationDetails records a concrete promise to pay, if one was made.
type NegotiationDetails struct {
	PromisedAmount *float64 `json:"promised_amount"`
	PromisedDate   *string  `json:"promised_date"`
}

// RiskAssessment is the structured output of the post-call analysis. Created
// exactly once per session and immutable afterwards.
type RiskAssessment struct {
	RPCStatus          string             `json:"rpc_status"`
	CallOutcome        string             `json:"call_outcome"`
	RiskScore          int                `json:"risk_score"`
	MatrixQuadrant     string             `json:"matrix_quadrant"`
	FinancialProfile   FinancialProfile   `json:"financial_profile"`
	LegalFlags         LegalFlags         `json:"legal_flags"`
	NegotiationDetails NegotiationDetails `json:"negotiation_details"`
	AgentNotes         string             `json:"agent_notes"`
	GeneratedTags      []string           `json:"generated_tags"`
}

var (
	validRPCStatuses = map[string]bool{
		RPCStatusYes: true, RPCStatusNo: true, RPCStatusVoicemail: true,
	}
	validCallOutcomes = map[string]bool{
		CallOutcomePTP: true, CallOutcomeRefusal: true, CallOutcomeDispute: true,
		CallOutcomeHangup: true, CallOutcomeCallback: true,
	}
	validQuadrants = map[string]bool{
		QuadrantStrategicDefaulter: true, QuadrantHardship: true,
		QuadrantForgetful: true, QuadrantBrokenPromise: true, QuadrantUnclear: true,
	}
	validPaymentMethods = map[string]bool{
		PaymentMethodCreditCard: true, PaymentMethodBankTransfer: true, PaymentMethodNone: true,
	}
)

// Validate checks the assessment against the closed schema. Assessments coming
// back from the model are untrusted and must pass this before they are used.
func (a *RiskAssessment) Validate() error {
	if !validRPCStatuses[a.RPCStatus] {
		return fmt.Errorf("invalid rpc_status %q", a.RPCStatus)
	}
	if !validCallOutcomes[a.CallOutcome] {
		return fmt.Errorf("invalid call_outcome %q", a.CallOutcome)
	}
	if a.RiskScore < 0 || a.RiskScore > 100 {
		return fmt.Errorf("risk_score %d out of range [0,100]", a.RiskScore)
	}
	if !validQuadrants[a.MatrixQuadrant] {
		return fmt.Errorf("invalid matrix_quadrant %q", a.MatrixQuadrant)
	}
	if !validPaymentMethods[a.FinancialProfile.PaymentMethodMentioned] {
		return fmt.Errorf("invalid payment_method_mentioned %q", a.FinancialProfile.PaymentMethodMentioned)
	}
	if d := a.NegotiationDetails.PromisedDate; d != nil && *d != "" {
		if _, err := time.Parse("2006-01-02", *d); err != nil {
			return fmt.Errorf("invalid promised_date %q: %w", *d, err)
		}
	}
	return nil
}

// DeriveTags computes the routing tags for a validated assessment. The
// derivation is deterministic: same assessment, same tags.
func (a *RiskAssessment) DeriveTags() []string {
	var tags []string
	if a.RiskScore >= 80 {
		tags = append(tags, TagHighRisk)
	}
	switch a.MatrixQuadrant {
	case QuadrantStrategicDefaulter:
		tags = append(tags, TagLegalReview)
	case QuadrantHardship:
		tags = append(tags, TagSettlementOffer)
	}
	if a.LegalFlags.BankruptcyRisk {
		tags = append(tags, TagDNCBankruptcy)
	}
	return tags
}
