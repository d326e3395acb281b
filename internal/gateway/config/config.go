package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `validate:"required"`
	Env      string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`

	// AllowedOrigins limits browser callers; empty allows any origin.
	AllowedOrigins []string `validate:"dive,url"`

	LLM        LLMConfig
	Validation ValidationConfig
	Session    SessionConfig
	Snapshot   SnapshotConfig
}

type LLMConfig struct {
	Provider      string `validate:"oneof=openai gemini fake"`
	OpenAIKey     string
	OpenAIBaseURL string `validate:"omitempty,url"`
	OpenAIModel   string
	GeminiKey     string
	GeminiModel   string
	RPS           float64 `validate:"gte=0"`
	Burst         int     `validate:"gte=0"`
	Retries       int     `validate:"gte=0,lte=10"`
}

type ValidationConfig struct {
	// RemoteURL selects the remote validator; empty means local rules.
	RemoteURL string        `validate:"omitempty,url"`
	Timeout   time.Duration `validate:"gt=0"`
	CacheSize int           `validate:"gte=0"`
}

type SessionConfig struct {
	Max            int `validate:"gt=0"`
	MaxDepth       int `validate:"gt=0,lte=16"`
	DiscardStaleAI bool
}

type SnapshotConfig struct {
	Backend string `validate:"oneof=memory file postgres sqlite s3"`
	Path    string `validate:"required_if=Backend file"`
	DSN     string `validate:"required_if=Backend postgres,required_if=Backend sqlite"`
	S3      S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether enough is configured to talk to a bucket.
func (c S3Config) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

// Load reads .env (if present), the environment and command line args.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("contractcreator", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := env("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	appEnv := firstNonEmpty(env("APP_ENV"), "local")
	cfg := &Config{
		Port:     *port,
		Env:      appEnv,
		LogLevel: strings.ToLower(firstNonEmpty(env("LOG_LEVEL"), "info")),

		AllowedOrigins: envList("CORS_ALLOWED_ORIGINS"),
		LLM: LLMConfig{
			Provider:      strings.ToLower(firstNonEmpty(env("LLM_PROVIDER"), "openai")),
			OpenAIKey:     env("OPENAI_API_KEY"),
			OpenAIBaseURL: env("OPENAI_BASE_URL"),
			OpenAIModel:   env("OPENAI_MODEL"),
			GeminiKey:     env("GEMINI_API_KEY"),
			GeminiModel:   env("GEMINI_MODEL"),
			RPS:           envFloat("LLM_RPS", 1),
			Burst:         envInt("LLM_BURST", 2),
			Retries:       envInt("LLM_RETRIES", 3),
		},
		Validation: ValidationConfig{
			RemoteURL: env("VALIDATOR_URL"),
			Timeout:   envDuration("VALIDATOR_TIMEOUT", 15*time.Second),
			CacheSize: envInt("VALIDATION_CACHE_SIZE", 256),
		},
		Session: SessionConfig{
			Max:            envInt("SESSION_MAX", 1024),
			MaxDepth:       envInt("SESSION_MAX_DEPTH", 3),
			DiscardStaleAI: envBool("SESSION_DISCARD_STALE_AI", false),
		},
		Snapshot: SnapshotConfig{
			Backend: strings.ToLower(firstNonEmpty(env("SNAPSHOT_BACKEND"), "memory")),
			Path:    firstNonEmpty(env("SNAPSHOT_PATH"), "tmp/snapshots.json"),
			DSN:     env("SNAPSHOT_DSN"),
			S3:      loadS3Config(appEnv),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Snapshot.Backend == "s3" && !c.Snapshot.S3.CanUseS3() {
		return fmt.Errorf("invalid config: snapshot backend s3 needs endpoint, keys and bucket")
	}
	return nil
}

func loadS3Config(appEnv string) S3Config {
	local := strings.EqualFold(appEnv, "local")
	endpoint := env("SNAPSHOT_S3_ENDPOINT")
	if local {
		endpoint = firstNonEmpty(endpoint, "minio:9000")
	}
	return S3Config{
		Endpoint:  endpoint,
		Region:    firstNonEmpty(env("SNAPSHOT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(env("SNAPSHOT_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(env("SNAPSHOT_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(env("SNAPSHOT_S3_BUCKET"), "contract-snapshots"),
		UseSSL:    !local && envBool("SNAPSHOT_S3_USE_SSL", true),
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(env(key))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(env(key), 64)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(env(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(env(key))
	if err != nil {
		return def
	}
	return v
}

// envList splits a comma separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(env(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
