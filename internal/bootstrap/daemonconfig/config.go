package daemonconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

const DefaultRPCAddr = "127.0.0.1:8787"

// Config is the fully merged daemon configuration.
type Config struct {
	RPCAddr        string
	RPCToken       string
	RPCTokenFile   string
	RequireToken   *bool
	Env            string
	AllowedOrigins []string
	RateLimit      RateLimitConfig
	Streams        StreamLimitConfig
	Log            LogConfig
	MetricsEnabled bool
	EventsEnabled  bool
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type StreamLimitConfig struct {
	MaxGlobal    int
	MaxPerClient int
}

type LogConfig struct {
	Level  string
	Format string
}

func Default() Config {
	return Config{
		RPCAddr: DefaultRPCAddr,
		Env:     "production",
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     30,
			Burst:   60,
		},
		Streams: StreamLimitConfig{
			MaxGlobal:    128,
			MaxPerClient: 8,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		MetricsEnabled: true,
		EventsEnabled:  true,
	}
}

// FileConfig mirrors config.yaml. Pointer fields distinguish "unset" from
// zero values during Merge.
type FileConfig struct {
	Server    FileServerConfig    `yaml:"server"`
	RateLimit FileRateLimitConfig `yaml:"rateLimit"`
	Streams   FileStreamConfig    `yaml:"streams"`
	Log       FileLogConfig       `yaml:"log"`
	Metrics   *bool               `yaml:"metrics"`
	Events    *bool               `yaml:"events"`
}

type FileServerConfig struct {
	Addr           string   `yaml:"addr"`
	Token          string   `yaml:"token"`
	TokenFile      string   `yaml:"tokenFile"`
	RequireToken   *bool    `yaml:"requireToken"`
	Env            string   `yaml:"env"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type FileRateLimitConfig struct {
	Enabled *bool   `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type FileStreamConfig struct {
	MaxGlobal    int `yaml:"maxGlobal"`
	MaxPerClient int `yaml:"maxPerClient"`
}

type FileLogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var defaultCandidates = []string{
	"go-backend/configs/config.yaml",
	"configs/config.yaml",
}

// LoadFromPath merges defaults, the YAML file and environment overrides. An
// explicit configPath must exist; without one the default candidates are
// tried and silently skipped when absent.
func LoadFromPath(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		parsed, err := readFile(configPath)
		if err != nil {
			return Config{}, err
		}
		Merge(&cfg, parsed)
	} else {
		for _, path := range defaultCandidates {
			parsed, err := readFile(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return Config{}, err
			}
			Merge(&cfg, parsed)
			break
		}
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return parsed, nil
}

func Merge(dst *Config, src FileConfig) {
	if src.Server.Addr != "" {
		dst.RPCAddr = src.Server.Addr
	}
	if src.Server.Token != "" {
		dst.RPCToken = src.Server.Token
	}
	if src.Server.TokenFile != "" {
		dst.RPCTokenFile = src.Server.TokenFile
	}
	if src.Server.RequireToken != nil {
		v := *src.Server.RequireToken
		dst.RequireToken = &v
	}
	if src.Server.Env != "" {
		dst.Env = src.Server.Env
	}
	if src.Server.AllowedOrigins != nil {
		dst.AllowedOrigins = src.Server.AllowedOrigins
	}
	if src.RateLimit.Enabled != nil {
		dst.RateLimit.Enabled = *src.RateLimit.Enabled
	}
	if src.RateLimit.RPS != 0 {
		dst.RateLimit.RPS = src.RateLimit.RPS
	}
	if src.RateLimit.Burst != 0 {
		dst.RateLimit.Burst = src.RateLimit.Burst
	}
	if src.Streams.MaxGlobal != 0 {
		dst.Streams.MaxGlobal = src.Streams.MaxGlobal
	}
	if src.Streams.MaxPerClient != 0 {
		dst.Streams.MaxPerClient = src.Streams.MaxPerClient
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
	if src.Metrics != nil {
		dst.MetricsEnabled = *src.Metrics
	}
	if src.Events != nil {
		dst.EventsEnabled = *src.Events
	}
}

type envOverrides struct {
	RPCAddr          string  `env:"ROMAN_RPC_ADDR"`
	RPCToken         string  `env:"ROMAN_RPC_TOKEN"`
	RPCTokenFile     string  `env:"ROMAN_RPC_TOKEN_FILE"`
	RequireToken     string  `env:"ROMAN_REQUIRE_RPC_TOKEN"`
	Env              string  `env:"ROMAN_ENV"`
	AllowedOrigins   string  `env:"ROMAN_ALLOWED_ORIGINS"`
	RateLimitEnabled string  `env:"ROMAN_RATE_LIMIT_ENABLED"`
	RateLimitRPS     float64 `env:"ROMAN_RATE_LIMIT_RPS"`
	RateLimitBurst   int     `env:"ROMAN_RATE_LIMIT_BURST"`
	LogLevel         string  `env:"ROMAN_LOG_LEVEL"`
	LogFormat        string  `env:"ROMAN_LOG_FORMAT"`
	MetricsEnabled   string  `env:"ROMAN_METRICS_ENABLED"`
	EventsEnabled    string  `env:"ROMAN_EVENTS_ENABLED"`
}

func ApplyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("decode environment: %w", err)
	}
	if v := strings.TrimSpace(env.RPCAddr); v != "" {
		cfg.RPCAddr = v
	}
	if v := strings.TrimSpace(env.RPCToken); v != "" {
		cfg.RPCToken = v
	}
	if v := strings.TrimSpace(env.RPCTokenFile); v != "" {
		cfg.RPCTokenFile = v
	}
	if v, ok := parseBool(env.RequireToken); ok {
		cfg.RequireToken = &v
	}
	if v := strings.TrimSpace(env.Env); v != "" {
		cfg.Env = v
		if isTestEnv(v) {
			cfg.RateLimit.Enabled = false
		}
	}
	if v := strings.TrimSpace(env.AllowedOrigins); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v, ok := parseBool(env.RateLimitEnabled); ok {
		cfg.RateLimit.Enabled = v
	}
	if env.RateLimitRPS > 0 {
		cfg.RateLimit.RPS = env.RateLimitRPS
	}
	if env.RateLimitBurst > 0 {
		cfg.RateLimit.Burst = env.RateLimitBurst
	}
	if v := strings.TrimSpace(env.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(env.LogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v, ok := parseBool(env.MetricsEnabled); ok {
		cfg.MetricsEnabled = v
	}
	if v, ok := parseBool(env.EventsEnabled); ok {
		cfg.EventsEnabled = v
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.RPCAddr) == "" {
		return errors.New("rpc address must not be empty")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be positive (got %v/%d)", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.Streams.MaxGlobal <= 0 || c.Streams.MaxPerClient <= 0 {
		return errors.New("stream limits must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// IsNonProd reports whether the environment relaxes token requirements.
func (c Config) IsNonProd() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "test", "testing", "dev", "development", "local":
		return true
	default:
		return false
	}
}

// TokenRequired resolves whether requests must carry the RPC token. Opting
// out is honoured only outside production-like environments.
func (c Config) TokenRequired() bool {
	if c.RequireToken != nil {
		if !*c.RequireToken && !c.IsNonProd() {
			return true
		}
		return *c.RequireToken
	}
	return !c.IsNonProd()
}

func isTestEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test", "testing":
		return true
	default:
		return false
	}
}

func parseBool(raw string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		if v, err := strconv.ParseBool(raw); err == nil {
			return v, true
		}
		return false, false
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
