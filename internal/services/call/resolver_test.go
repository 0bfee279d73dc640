package call

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasu-devs/Vaani/internal/config"
	"github.com/vasu-devs/Vaani/internal/domain"
)

func TestResolveConfigurationDefaults(t *testing.T) {
	cfg := ResolveConfiguration("")

	assert.Equal(t, config.DefaultDebtorName, cfg.DebtorName)
	assert.Equal(t, config.DefaultDebtAmount, cfg.DebtAmount)
	assert.Equal(t, config.DefaultAgentName, cfg.AgentName)
	assert.Equal(t, config.DefaultAgentVoice, cfg.AgentVoice)
	assert.Equal(t, config.DefaultUserDetails, cfg.UserDetails)
}

func TestResolveConfigurationPrecedence(t *testing.T) {
	t.Setenv(config.EnvDebtorName, "Env Debtor")
	t.Setenv(config.EnvAgentName, "Env Agent")

	cfg := ResolveConfiguration(`{"debtor_name":"Meta Debtor","debt_amount":"250"}`)

	// Metadata wins over env and defaults.
	assert.Equal(t, "Meta Debtor", cfg.DebtorName)
	assert.Equal(t, "250", cfg.DebtAmount)
	// Env wins over the default when metadata is silent.
	assert.Equal(t, "Env Agent", cfg.AgentName)
	// Default fills the rest.
	assert.Equal(t, config.DefaultAgentVoice, cfg.AgentVoice)
}

func TestResolveConfigurationEmptyMetadataFieldFallsThrough(t *testing.T) {
	t.Setenv(config.EnvDebtorName, "Env Debtor")

	cfg := ResolveConfiguration(`{"debtor_name":"","agent_voice":null}`)

	assert.Equal(t, "Env Debtor", cfg.DebtorName)
	assert.Equal(t, config.DefaultAgentVoice, cfg.AgentVoice)
}

func TestResolveConfigurationMalformedMetadata(t *testing.T) {
	t.Setenv(config.EnvAgentName, "Env Agent")

	cfg := ResolveConfiguration("{not json")

	assert.Equal(t, "Env Agent", cfg.AgentName)
	assert.Equal(t, config.DefaultDebtorName, cfg.DebtorName)
}

func TestOverlayConfiguration(t *testing.T) {
	base := domain.CallConfiguration{
		DebtorName:  "Dispatched Debtor",
		DebtAmount:  "100",
		AgentName:   "Rachel",
		AgentVoice:  "asteria",
		UserDetails: "past due 60 days",
	}

	merged := OverlayConfiguration(base, `{"debtor_name":"Room Debtor","debt_amount":""}`)

	// Non-empty room metadata replaces the dispatched value.
	assert.Equal(t, "Room Debtor", merged.DebtorName)
	// Empty metadata values never discard what the first resolution produced.
	assert.Equal(t, "100", merged.DebtAmount)
	assert.Equal(t, "past due 60 days", merged.UserDetails)
}

func TestOverlayConfigurationMalformedKeepsBase(t *testing.T) {
	base := domain.CallConfiguration{DebtorName: "Kept"}
	assert.Equal(t, base, OverlayConfiguration(base, "####"))
}
