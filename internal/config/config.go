// Package config provides configuration for the call-assist orchestrator.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the orchestrator configuration.
type Config struct {
	// Server settings
	HTTPPort int
	RPCPort  int

	// Push gateway that receives forwarded events; empty disables forwarding.
	IngressURL string

	// Mode selects mock adapters when set to MOCK.
	Mode string

	// Language model
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration

	// Speech-to-text
	STTBaseURL  string
	STTAPIKey   string
	STTModel    string
	STTLanguage string
	STTTimeout  time.Duration

	// Audio cadence
	SampleRate      int
	ChunkDuration   time.Duration
	CadenceInterval time.Duration
	EndGrace        time.Duration

	// Suggestions
	SuggestLookback    int
	SuggestMinPriority string
	PolicyFile         string

	OperatorExtension string

	// Demo call pacing
	DemoAnswerDelay  time.Duration
	DemoLineInterval time.Duration

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables.
func Load() *Config {
	chunk := time.Duration(getEnvInt("CHUNK_DURATION_MS", 3000)) * time.Millisecond
	cfg := &Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 8000),
		RPCPort:            getEnvInt("RPC_PORT", 8001),
		IngressURL:         getEnv("INGRESS_URL", ""),
		Mode:               getEnv("CALLASSIST_MODE", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "anthropic/claude-3.5-sonnet"),
		LLMTemperature:     getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:       getEnvInt("LLM_MAX_TOKENS", 300),
		LLMTimeout:         time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		STTBaseURL:         getEnv("STT_BASE_URL", "https://api.openai.com/v1"),
		STTAPIKey:          getEnv("STT_API_KEY", ""),
		STTModel:           getEnv("STT_MODEL", "whisper-1"),
		STTLanguage:        getEnv("STT_LANGUAGE", "ru"),
		STTTimeout:         time.Duration(getEnvInt("STT_TIMEOUT_MS", 15000)) * time.Millisecond,
		SampleRate:         getEnvInt("SAMPLE_RATE", 16000),
		ChunkDuration:      chunk,
		CadenceInterval:    time.Duration(getEnvInt("CADENCE_INTERVAL_MS", int(chunk/time.Millisecond))) * time.Millisecond,
		EndGrace:           time.Duration(getEnvInt("END_GRACE_MS", 5000)) * time.Millisecond,
		SuggestLookback:    getEnvInt("SUGGEST_LOOKBACK", 10),
		SuggestMinPriority: getEnv("SUGGEST_MIN_PRIORITY", "low"),
		PolicyFile:         getEnv("POLICY_FILE", ""),
		OperatorExtension:  getEnv("OPERATOR_EXTENSION", "1001"),
		DemoAnswerDelay:    time.Duration(getEnvInt("DEMO_ANSWER_DELAY_MS", 2000)) * time.Millisecond,
		DemoLineInterval:   time.Duration(getEnvInt("DEMO_LINE_INTERVAL_MS", 3000)) * time.Millisecond,
		PingInterval:       time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:       time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:        time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:     int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
