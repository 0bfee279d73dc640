package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasu-devs/Vaani/internal/domain"
	"github.com/vasu-devs/Vaani/internal/llm"
)

type fakeClient struct {
	content string
	err     error
	calls   int
}

func (f *fakeClient) Generate(ctx context.Context, msgs []llm.Message) (llm.Response, error) {
	f.calls++
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.content}, nil
}

const validAssessmentJSON = `{
	"rpc_status": "Yes",
	"call_outcome": "PTP",
	"risk_score": 85,
	"matrix_quadrant": "Strategic Defaulter",
	"financial_profile": {"employed": true, "hardship_reason": null, "payment_method_mentioned": "Credit Card"},
	"legal_flags": {"bankruptcy_risk": true, "attorney_represented": false, "cease_and_desist": false, "dispute_raised": false},
	"negotiation_details": {"promised_amount": 500.0, "promised_date": "2026-09-15"},
	"agent_notes": "Debtor agreed to pay."
}`

var testCfg = domain.CallConfiguration{DebtorName: "Alice", DebtAmount: "1500"}

func TestAnalyzeParsesFencedOutput(t *testing.T) {
	client := &fakeClient{content: "```json\n" + validAssessmentJSON + "\n```"}
	a := NewAnalyzer(client)

	got := a.Analyze(context.Background(), "Agent: hello\nDefaulter: I will pay", testCfg)

	assert.Equal(t, domain.RPCStatusYes, got.RPCStatus)
	assert.Equal(t, domain.CallOutcomePTP, got.CallOutcome)
	assert.Equal(t, 85, got.RiskScore)
	assert.Equal(t, []string{
		domain.TagHighRisk,
		domain.TagLegalReview,
		domain.TagDNCBankruptcy,
	}, got.GeneratedTags)
}

func TestAnalyzeToleratesSurroundingProse(t *testing.T) {
	client := &fakeClient{content: "Here is the analysis you asked for:\n" + validAssessmentJSON + "\nLet me know if you need more."}
	a := NewAnalyzer(client)

	got := a.Analyze(context.Background(), "some transcript", testCfg)

	assert.Equal(t, domain.CallOutcomePTP, got.CallOutcome)
	assert.Equal(t, "Debtor agreed to pay.", got.AgentNotes)
}

func TestAnalyzeDegradesOnNonJSON(t *testing.T) {
	client := &fakeClient{content: "I cannot analyze this call."}
	a := NewAnalyzer(client)

	got := a.Analyze(context.Background(), "some transcript", testCfg)

	assert.Equal(t, 50, got.RiskScore)
	assert.Equal(t, domain.CallOutcomeError, got.CallOutcome)
	assert.Equal(t, domain.QuadrantUnclear, got.MatrixQuadrant)
	assert.Contains(t, got.AgentNotes, "Analysis failed")
}

func TestAnalyzeDegradesOnSchemaViolation(t *testing.T) {
	client := &fakeClient{content: `{"rpc_status": "Maybe", "call_outcome": "PTP", "risk_score": 10,
		"matrix_quadrant": "Unclear", "financial_profile": {"payment_method_mentioned": "None"}}`}
	a := NewAnalyzer(client)

	got := a.Analyze(context.Background(), "some transcript", testCfg)

	assert.Equal(t, domain.CallOutcomeError, got.CallOutcome)
	assert.Equal(t, 50, got.RiskScore)
}

func TestAnalyzeDegradesOnModelError(t *testing.T) {
	client := &fakeClient{err: errors.New("rate limited")}
	a := NewAnalyzer(client)

	got := a.Analyze(context.Background(), "some transcript", testCfg)

	assert.Equal(t, domain.CallOutcomeError, got.CallOutcome)
	assert.Equal(t, 50, got.RiskScore)
	assert.Contains(t, got.AgentNotes, "rate limited")
}

func TestAnalyzeEmptyTranscriptSkipsModel(t *testing.T) {
	client := &fakeClient{content: validAssessmentJSON}
	a := NewAnalyzer(client)

	got := a.Analyze(context.Background(), "   \n  ", testCfg)

	assert.Zero(t, client.calls, "model must not be called for an empty transcript")
	assert.Equal(t, 0, got.RiskScore)
	assert.Equal(t, domain.CallOutcomeHangup, got.CallOutcome)
	assert.Equal(t, "No conversation recorded.", got.AgentNotes)
}

func TestExtractJSONObjectIgnoresBracesInStrings(t *testing.T) {
	obj, ok := extractJSONObject(`noise {"note": "literal } brace and \" quote", "n": 1} trailing`)

	assert.True(t, ok)
	assert.Equal(t, `{"note": "literal } brace and \" quote", "n": 1}`, obj)
}

func TestExtractJSONObjectUnbalanced(t *testing.T) {
	_, ok := extractJSONObject(`{"cut": "off`)
	assert.False(t, ok)
}
