package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Compiled-in defaults for the per-call configuration fields. These are the
// lowest-precedence source: room metadata wins over environment, environment
// wins over these.
const (
	DefaultDebtorName  = "John Doe"
	DefaultDebtAmount  = "1500"
	DefaultAgentName   = "Rachel"
	DefaultAgentVoice  = "asteria"
	DefaultUserDetails = ""
)

// Environment variable names for the per-call configuration overrides.
const (
	EnvDebtorName  = "DEBTOR_NAME"
	EnvDebtAmount  = "DEBT_AMOUNT"
	EnvAgentName   = "AGENT_NAME"
	EnvAgentVoice  = "AGENT_VOICE"
	EnvUserDetails = "USER_DETAILS"
)

// FinalizeTimeout bounds the whole post-call pipeline (snapshot, analysis,
// persistence). It must stay at or below ShutdownGracePeriod so a finalizing
// session is never killed mid-write during shutdown.
const (
	FinalizeTimeout     = 15 * time.Second
	ShutdownGracePeriod = 20 * time.Second
)

// Config holds the call gateway configuration.
type Config struct {
	Port string

	// LiveKit room-hosting service
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string

	// SIP / telephony
	SIPOutboundTrunkID string

	// Analysis model
	OpenAIAPIKey  string
	OpenAIBaseURL string
	AnalysisModel string

	// Record storage
	RecordsDir string

	// Optional Redis record index
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// HTTP surface
	EnableCORS     bool
	DispatchRPS    float64
	DispatchBurst  int
	MaxConnections int
}

// ErrLiveKitNotConfigured is returned when the LiveKit credentials are absent.
var ErrLiveKitNotConfigured = errors.New("LIVEKIT_URL, LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")

// LoadFromEnv builds the gateway configuration from environment variables.
// The .env files are loaded by main before this runs.
func LoadFromEnv() *Config {
	return &Config{
		Port: getEnvOrDefault("VAANI_PORT", "8001"),

		LiveKitURL:       getEnvOrDefault("LIVEKIT_URL", ""),
		LiveKitAPIKey:    getEnvOrDefault("LIVEKIT_API_KEY", ""),
		LiveKitAPISecret: getEnvOrDefault("LIVEKIT_API_SECRET", ""),

		SIPOutboundTrunkID: getEnvOrDefault("SIP_OUTBOUND_TRUNK_ID", ""),

		OpenAIAPIKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnvOrDefault("OPENAI_BASE_URL", ""),
		AnalysisModel: getEnvOrDefault("ANALYSIS_MODEL", "gpt-4o-mini"),

		RecordsDir: getEnvOrDefault("CALL_LOGS_DIR", "call_logs"),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsIntOrDefault("REDIS_DB", 0),

		EnableCORS:     getEnvAsBoolOrDefault("VAANI_ENABLE_CORS", true),
		DispatchRPS:    getEnvAsFloatOrDefault("VAANI_DISPATCH_RPS", 1),
		DispatchBurst:  getEnvAsIntOrDefault("VAANI_DISPATCH_BURST", 3),
		MaxConnections: getEnvAsIntOrDefault("VAANI_MAX_CONNECTIONS", 50),
	}
}

// ValidateLiveKit checks that the room-hosting service is reachable by config.
func (c *Config) ValidateLiveKit() error {
	if c.LiveKitURL == "" || c.LiveKitAPIKey == "" || c.LiveKitAPISecret == "" {
		return ErrLiveKitNotConfigured
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
