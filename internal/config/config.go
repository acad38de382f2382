// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/DoyleJ11/askai-quiz-backend/internal/ai"
	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/store"
)

// Config holds application configuration loaded from environment variables.
// Missing credentials are not an error; the dependent feature degrades.
type Config struct {
	Addr      string `envconfig:"ADDR" default:":8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	StoreDriver  string        `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL  string        `envconfig:"DATABASE_URL" default:"quiz.db"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"1500ms"`

	GeminiAPIKey    string             `envconfig:"GEMINI_API_KEY"`
	APIKey          string             `envconfig:"API_KEY"`
	GeminiModel     string             `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	Classifier      string             `envconfig:"AI_CLASSIFIER" default:"model-self-classify"`
	SearchGrounding bool               `envconfig:"AI_SEARCH_GROUNDING" default:"true"`
	AITimeout       time.Duration      `envconfig:"AI_TIMEOUT" default:"30s"`
	JudgePolicy     engine.JudgePolicy `envconfig:"JUDGE_POLICY" default:"reapply"`

	ElevenLabsBaseURL      string `envconfig:"ELEVENLABS_BASE_URL" default:"https://api.elevenlabs.io"`
	ElevenLabsAPIKey       string `envconfig:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID      string `envconfig:"ELEVENLABS_VOICE_ID"`
	ElevenLabsModelID      string `envconfig:"ELEVENLABS_MODEL_ID" default:"eleven_flash_v2_5"`
	ElevenLabsOutputFormat string `envconfig:"ELEVENLABS_OUTPUT_FORMAT" default:"mp3_44100_128"`
}

// Load reads an optional .env file (or the given files), then the
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case store.DriverMemory, store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	if !c.JudgePolicy.Valid() {
		return fmt.Errorf("JUDGE_POLICY: unknown policy %q", c.JudgePolicy)
	}
	if _, err := ai.ParseClassifier(c.Classifier); err != nil {
		return fmt.Errorf("AI_CLASSIFIER: %w", err)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	return nil
}

// ModelAPIKey is GEMINI_API_KEY, falling back to API_KEY.
func (c *Config) ModelAPIKey() string {
	if k := strings.TrimSpace(c.GeminiAPIKey); k != "" {
		return k
	}
	return strings.TrimSpace(c.APIKey)
}
