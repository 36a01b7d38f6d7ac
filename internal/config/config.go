package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ComparatorKind selects the semantic fallback backend.
type ComparatorKind string

const (
	ComparatorHF     ComparatorKind = "hf"
	ComparatorLocal  ComparatorKind = "local"
	ComparatorFlight ComparatorKind = "flight"
	ComparatorNone   ComparatorKind = "none"
)

const (
	DefaultHFModel   = "sentence-transformers/all-MiniLM-L6-v2"
	hfInferenceBase  = "https://api-inference.huggingface.co/models/"
	defaultEnvFile   = ".env"
	defaultTimeout   = 20 * time.Second
	defaultMaxSeqLen = 256
	defaultEmbedDim  = 384
)

type HFConfig struct {
	Endpoint string
	Token    string
	Model    string
}

type LocalConfig struct {
	SharedLibrary string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	Dim           int
}

type FlightConfig struct {
	Addr  string
	Model string
}

type Config struct {
	Host           string
	Port           int
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string

	Comparator      ComparatorKind
	SemanticTimeout time.Duration

	HF     HFConfig
	Local  LocalConfig
	Flight FlightConfig
}

func Default() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		LogLevel:        "info",
		LogFormat:       "console",
		Comparator:      ComparatorHF,
		SemanticTimeout: defaultTimeout,
		HF: HFConfig{
			Endpoint: hfInferenceBase + DefaultHFModel,
			Model:    DefaultHFModel,
		},
		Local: LocalConfig{
			MaxSeqLen: defaultMaxSeqLen,
			Dim:       defaultEmbedDim,
		},
		Flight: FlightConfig{
			Model: DefaultHFModel,
		},
	}
}

// FromEnv loads envFile (".env" when empty; a missing file is not an error)
// and builds a Config from the process environment over Default.
func FromEnv(envFile string) (Config, error) {
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()
	cfg.Host = envOr("HOST", cfg.Host)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
	cfg.AllowedOrigins = SplitList(os.Getenv("CORS_ORIGINS"))
	cfg.Comparator = ComparatorKind(strings.ToLower(envOr("COMPARATOR", string(cfg.Comparator))))

	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return cfg, err
	}
	if cfg.SemanticTimeout, err = envDuration("SEMANTIC_TIMEOUT", cfg.SemanticTimeout); err != nil {
		return cfg, err
	}

	cfg.HF.Model = envOr("HF_MODEL_ID", cfg.HF.Model)
	cfg.HF.Endpoint = envOr("HF_ENDPOINT", hfInferenceBase+cfg.HF.Model)
	cfg.HF.Token = os.Getenv("HF_API_TOKEN")

	cfg.Local.SharedLibrary = os.Getenv("ORT_SHARED_LIBRARY")
	cfg.Local.ModelPath = os.Getenv("EMBED_MODEL_PATH")
	cfg.Local.TokenizerPath = os.Getenv("EMBED_TOKENIZER_PATH")
	if cfg.Local.MaxSeqLen, err = envInt("EMBED_MAX_SEQ_LEN", cfg.Local.MaxSeqLen); err != nil {
		return cfg, err
	}
	if cfg.Local.Dim, err = envInt("EMBED_DIM", cfg.Local.Dim); err != nil {
		return cfg, err
	}

	cfg.Flight.Addr = os.Getenv("FLIGHT_ADDR")
	cfg.Flight.Model = envOr("FLIGHT_MODEL", cfg.Flight.Model)

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.SemanticTimeout <= 0 {
		return fmt.Errorf("invalid semantic timeout: %v (must be positive)", c.SemanticTimeout)
	}

	switch c.Comparator {
	case ComparatorNone:
	case ComparatorHF:
		if c.HF.Endpoint == "" {
			return fmt.Errorf("comparator %q requires HF_ENDPOINT", c.Comparator)
		}
	case ComparatorLocal:
		if c.Local.ModelPath == "" || c.Local.TokenizerPath == "" {
			return fmt.Errorf("comparator %q requires EMBED_MODEL_PATH and EMBED_TOKENIZER_PATH", c.Comparator)
		}
		if c.Local.MaxSeqLen <= 0 {
			return fmt.Errorf("invalid max_seq_len: %d (must be positive)", c.Local.MaxSeqLen)
		}
		if c.Local.Dim <= 0 {
			return fmt.Errorf("invalid embedding dim: %d (must be positive)", c.Local.Dim)
		}
	case ComparatorFlight:
		if c.Flight.Addr == "" {
			return fmt.Errorf("comparator %q requires FLIGHT_ADDR", c.Comparator)
		}
	default:
		return fmt.Errorf("unknown comparator %q (want hf, local, flight or none)", c.Comparator)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return d, nil
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
