package services

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	AI           AIConfig
	WebSocket    WebSocketConfig
	Orchestrator OrchestratorConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type AIConfig struct {
	GeminiAPIKey  string
	ElevenLabsKey string
}

type WebSocketConfig struct {
	AllowedOrigins string
}

// OrchestratorConfig holds the assessment engine tunables.
type OrchestratorConfig struct {
	AgentTimeout  time.Duration
	AgentRetries  int
	QueuePolicy   string
	IdleTimeout   time.Duration
	SweepSchedule string
	MinStageTurns int
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("websocket.allowed_origins", "")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("elevenlabs.api_key", "")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("orchestrator.agent_timeout", "30s")
	viper.SetDefault("orchestrator.agent_retries", "3")
	viper.SetDefault("orchestrator.queue_policy", "queue")
	viper.SetDefault("orchestrator.idle_timeout", "10m")
	viper.SetDefault("orchestrator.sweep_schedule", "@every 30s")
	viper.SetDefault("orchestrator.min_stage_turns", "0")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("orchestrator.agent_timeout", "ORCHESTRATOR_AGENT_TIMEOUT")
	viper.BindEnv("orchestrator.agent_retries", "ORCHESTRATOR_AGENT_RETRIES")
	viper.BindEnv("orchestrator.queue_policy", "ORCHESTRATOR_QUEUE_POLICY")
	viper.BindEnv("orchestrator.idle_timeout", "ORCHESTRATOR_IDLE_TIMEOUT")
	viper.BindEnv("orchestrator.sweep_schedule", "ORCHESTRATOR_SWEEP_SCHEDULE")
	viper.BindEnv("orchestrator.min_stage_turns", "ORCHESTRATOR_MIN_STAGE_TURNS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		AI: AIConfig{
			GeminiAPIKey:  viper.GetString("gemini.api_key"),
			ElevenLabsKey: viper.GetString("elevenlabs.api_key"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
		Orchestrator: OrchestratorConfig{
			AgentTimeout:  viper.GetDuration("orchestrator.agent_timeout"),
			AgentRetries:  viper.GetInt("orchestrator.agent_retries"),
			QueuePolicy:   viper.GetString("orchestrator.queue_policy"),
			IdleTimeout:   viper.GetDuration("orchestrator.idle_timeout"),
			SweepSchedule: viper.GetString("orchestrator.sweep_schedule"),
			MinStageTurns: viper.GetInt("orchestrator.min_stage_turns"),
		},
	}
}
