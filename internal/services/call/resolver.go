package call

import (
	"encoding/json"
	"os"

	"github.com/vasu-devs/Vaani/internal/config"
	"github.com/vasu-devs/Vaani/internal/domain"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// configField binds one configuration field to its three sources.
type configField struct {
	metadataKey  string
	envVar       string
	defaultValue string
	assign       func(*domain.CallConfiguration, string)
}

var configFields = []configField{
	{"debtor_name", config.EnvDebtorName, config.DefaultDebtorName,
		func(c *domain.CallConfiguration, v string) { c.DebtorName = v }},
	{"debt_amount", config.EnvDebtAmount, config.DefaultDebtAmount,
		func(c *domain.CallConfiguration, v string) { c.DebtAmount = v }},
	{"agent_name", config.EnvAgentName, config.DefaultAgentName,
		func(c *domain.CallConfiguration, v string) { c.AgentName = v }},
	{"agent_voice", config.EnvAgentVoice, config.DefaultAgentVoice,
		func(c *domain.CallConfiguration, v string) { c.AgentVoice = v }},
	{"user_details", config.EnvUserDetails, config.DefaultUserDetails,
		func(c *domain.CallConfiguration, v string) { c.UserDetails = v }},
}

// ResolveConfiguration merges the three configuration sources into one
// effective call configuration. Precedence per field, highest first: metadata
// blob (if present and non-empty), environment variable (if set), compiled-in
// default. An empty or null metadata value falls through to the next source.
// A malformed blob is logged and treated as absent; resolution never fails.
func ResolveConfiguration(metadataJSON string) domain.CallConfiguration {
	meta := parseMetadata(metadataJSON)

	var cfg domain.CallConfiguration
	for _, f := range configFields {
		switch {
		case meta[f.metadataKey] != "":
			f.assign(&cfg, meta[f.metadataKey])
		case os.Getenv(f.envVar) != "":
			f.assign(&cfg, os.Getenv(f.envVar))
		default:
			f.assign(&cfg, f.defaultValue)
		}
	}
	return cfg
}

// OverlayConfiguration applies a second resolution pass on top of an already
// resolved configuration. The room metadata written at creation time is the
// authoritative source of truth and may differ from what was seen during
// dispatch; non-empty metadata fields replace the base, everything else is
// kept.
func OverlayConfiguration(base domain.CallConfiguration, metadataJSON string) domain.CallConfiguration {
	meta := parseMetadata(metadataJSON)
	for _, f := range configFields {
		if v := meta[f.metadataKey]; v != "" {
			f.assign(&base, v)
		}
	}
	return base
}

// parseMetadata decodes the room metadata blob. All values are carried as
// strings on the wire; anything else is ignored.
func parseMetadata(metadataJSON string) map[string]string {
	if metadataJSON == "" {
		return nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
		logger.Base().Warn("failed to parse call metadata, falling back to env/defaults", zap.Error(err))
		return nil
	}
	return meta
}
