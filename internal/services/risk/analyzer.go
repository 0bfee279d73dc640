package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vasu-devs/Vaani/internal/domain"
	"github.com/vasu-devs/Vaani/internal/llm"
	"github.com/vasu-devs/Vaani/internal/prompts"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// Analyzer turns a raw call transcript into a structured risk assessment via
// a generative-text model. The model's output is untrusted: it is sanitized,
// parsed and validated against the closed schema before use, and any failure
// degrades to a fixed low-confidence assessment instead of propagating. A
// call record is always produced.
type Analyzer struct {
	client llm.Client
}

// NewAnalyzer creates an analyzer backed by the given text generator.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze profiles the debtor from the transcript. It never returns an error:
// analysis failures are recovered locally per the degradation policy.
func (a *Analyzer) Analyze(ctx context.Context, transcriptText string, cfg domain.CallConfiguration) domain.RiskAssessment {
	if strings.TrimSpace(transcriptText) == "" {
		logger.Base().Info("empty transcript, skipping risk analysis")
		return emptyTranscriptAssessment()
	}

	logger.Base().Info("starting risk and compliance analysis",
		zap.String("debtor_name", cfg.DebtorName),
		zap.Int("transcript_len", len(transcriptText)))

	resp, err := a.client.Generate(ctx, []llm.Message{
		{Role: "system", Content: prompts.RiskAnalysisSystem},
		{Role: "user", Content: prompts.BuildRiskAnalysisPrompt(cfg, transcriptText)},
	})
	if err != nil {
		logger.Base().Error("risk analysis model call failed", zap.Error(err))
		return degradedAssessment(fmt.Sprintf("Analysis failed: %v", err))
	}

	assessment, err := parseAssessment(resp.Content)
	if err != nil {
		logger.Base().Error("risk analysis output rejected",
			zap.Error(err),
			zap.Int("raw_len", len(resp.Content)))
		return degradedAssessment(fmt.Sprintf("Analysis failed: %v", err))
	}

	assessment.GeneratedTags = assessment.DeriveTags()
	if assessment.LegalFlags.BankruptcyRisk {
		// Compliance-visible: the account must not be called again.
		logger.Base().Warn("AUTO-COMPLIANCE: bankruptcy flag detected, account marked do-not-call",
			zap.String("debtor_name", cfg.DebtorName))
	}

	logger.Base().Info("risk analysis complete",
		zap.Int("risk_score", assessment.RiskScore),
		zap.String("call_outcome", assessment.CallOutcome),
		zap.String("matrix_quadrant", assessment.MatrixQuadrant),
		zap.Strings("tags", assessment.GeneratedTags))
	return assessment
}

// parseAssessment sanitizes and validates the raw model output.
func parseAssessment(raw string) (domain.RiskAssessment, error) {
	clean := stripCodeFences(raw)
	obj, ok := extractJSONObject(clean)
	if !ok {
		return domain.RiskAssessment{}, fmt.Errorf("no JSON object found in model output")
	}

	var assessment domain.RiskAssessment
	if err := json.Unmarshal([]byte(obj), &assessment); err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("failed to parse model output: %w", err)
	}
	if err := assessment.Validate(); err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("model output failed schema validation: %w", err)
	}
	return assessment, nil
}

// stripCodeFences removes markdown fence markers the model tends to wrap its
// output with.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the first balanced JSON object in s, tolerating
// extraneous text before and after it. Braces inside JSON strings are not
// counted.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// degradedAssessment is the fixed fallback used when the model call fails,
// times out, or returns output that does not satisfy the schema.
func degradedAssessment(reason string) domain.RiskAssessment {
	return domain.RiskAssessment{
		RPCStatus:      domain.RPCStatusNo,
		CallOutcome:    domain.CallOutcomeError,
		RiskScore:      50,
		MatrixQuadrant: domain.QuadrantUnclear,
		FinancialProfile: domain.FinancialProfile{
			PaymentMethodMentioned: domain.PaymentMethodNone,
		},
		AgentNotes: reason,
	}
}

// emptyTranscriptAssessment is returned without touching the model when no
// conversation was recorded.
func emptyTranscriptAssessment() domain.RiskAssessment {
	return domain.RiskAssessment{
		RPCStatus:      domain.RPCStatusNo,
		CallOutcome:    domain.CallOutcomeHangup,
		RiskScore:      0,
		MatrixQuadrant: domain.QuadrantUnclear,
		FinancialProfile: domain.FinancialProfile{
			PaymentMethodMentioned: domain.PaymentMethodNone,
		},
		AgentNotes: "No conversation recorded.",
	}
}
