package domain

import (
	"strings"
	"time"
)

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// CallConfiguration is the effective per-call configuration after layered
// resolution (room metadata > environment > compiled-in defaults). Every field
// is guaranteed non-empty after resolution except UserDetails, whose default
// is the empty string.
type CallConfiguration struct {
	DebtorName  string `json:"debtor_name"`
	DebtAmount  string `json:"debt_amount"`
	AgentName   string `json:"agent_name"`
	AgentVoice  string `json:"agent_voice"`
	UserDetails string `json:"user_details"`
}

// TranscriptEntry is one utterance captured during a call. The sequence is
// append-only while the call is live; the finalizer only ever sees a snapshot.
type TranscriptEntry struct {
	Role       Role      `json:"role"`
	Speaker    string    `json:"speaker"`
	Content    string    `json:"content"`
	CapturedAt time.Time `json:"timestamp"`
}

// SpeakerFor maps a transcript role to the human-readable speaker label used
// in persisted records: the debtor's name for user entries, the agent's name
// for assistant entries.
func SpeakerFor(role Role, cfg CallConfiguration) string {
	switch role {
	case RoleUser:
		if cfg.DebtorName != "" {
			return cfg.DebtorName
		}
		return "Defaulter"
	case RoleAssistant:
		if cfg.AgentName != "" {
			return cfg.AgentName
		}
		return "Agent"
	default:
		return string(role)
	}
}

// FlattenTranscript renders the conversation as "Speaker: content" lines for
// the analysis prompt. System entries are operational instructions, not
// conversation, and are excluded.
func FlattenTranscript(entries []TranscriptEntry, cfg CallConfiguration) string {
	var b strings.Builder
	for _, e := range entries {
		if e.Role == RoleSystem {
			continue
		}
		b.WriteString(SpeakerFor(e.Role, cfg))
		b.WriteString(": ")
		b.WriteString(e.Content)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// RecordStatusCompleted is the terminal status written on every persisted record.
const RecordStatusCompleted = "completed"

// CallRecord is the terminal, write-once artifact persisted per call.
// RiskScore duplicates RiskAnalysis.RiskScore for backward compatibility with
// older history readers.
type CallRecord struct {
	ID           string            `json:"id"`
	Timestamp    string            `json:"timestamp"`
	Metadata     CallConfiguration `json:"metadata"`
	Transcript   []TranscriptEntry `json:"transcript"`
	RiskAnalysis RiskAssessment    `json:"risk_analysis"`
	RiskScore    int               `json:"risk_score"`
	Status       string            `json:"status"`
}

// CallSummary is the listing row returned by the history endpoint.
type CallSummary struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	RiskScore  int    `json:"risk_score"`
	Status     string `json:"status"`
	DebtorName string `json:"debtor_name"`
}
