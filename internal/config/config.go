package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("dingtalk-oauth version %s, commit %s, built at %s", version, commit, date)
}

// ErrUnknownProfile is returned when a named credential set is not configured
var ErrUnknownProfile = errors.New("unknown oauth profile")

const (
	DefaultAPIBaseURL = "https://oapi.dingtalk.com/"
	DefaultAPITimeout = 30 * time.Second
	DefaultStateTTL   = 10 * time.Minute
	DefaultCookieName = "dingtalk_oauth"
	DefaultPort       = 3000
)

type Config struct {
	Server      ServerConfig                `mapstructure:"server"`
	Logging     LoggingConfig               `mapstructure:"logging"`
	API         APIConfig                   `mapstructure:"api"`
	OAuth       map[string]CredentialConfig `mapstructure:"oauth"`
	AccessToken AccessTokenConfig           `mapstructure:"access_token"`
	State       StateConfig                 `mapstructure:"state"`
}

// ExchangeVariant selects which user info call the callback performs
type ExchangeVariant string

const (
	ExchangeLegacy ExchangeVariant = "legacy"
	ExchangeBearer ExchangeVariant = "bearer"
)

type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	Host           string          `mapstructure:"host"`
	BaseURL        string          `mapstructure:"base_url"`
	DefaultProfile string          `mapstructure:"default_profile"`
	Exchange       ExchangeVariant `mapstructure:"exchange"`
	AllowOrigins   []string        `mapstructure:"allow_origins"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// TimeoutDuration parses the configured timeout, falling back to the default
func (a APIConfig) TimeoutDuration() time.Duration {
	if a.Timeout == "" {
		return DefaultAPITimeout
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return DefaultAPITimeout
	}
	return d
}

// CredentialConfig is one named credential set under oauth.<name>
type CredentialConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Scope        string `mapstructure:"scope"`
	Redirect     string `mapstructure:"redirect"`
}

// AccessTokenConfig configures the token provider used by the bearer call.
// A static token takes precedence over app credentials.
type AccessTokenConfig struct {
	AppKey    string `mapstructure:"app_key"`
	AppSecret string `mapstructure:"app_secret"`
	Token     string `mapstructure:"token"`
}

type StateBackend string

const (
	StateBackendMemory  StateBackend = "memory"
	StateBackendSession StateBackend = "session"
	StateBackendRedis   StateBackend = "redis"
)

type StateConfig struct {
	Backend       StateBackend `mapstructure:"backend"`
	CookieName    string       `mapstructure:"cookie_name"`
	SessionSecret string       `mapstructure:"session_secret"`
	TTL           string       `mapstructure:"ttl"`
	Redis         RedisConfig  `mapstructure:"redis"`
}

// TTLDuration parses the configured state lifetime, falling back to the default
func (s StateConfig) TTLDuration() time.Duration {
	if s.TTL == "" {
		return DefaultStateTTL
	}
	d, err := time.ParseDuration(s.TTL)
	if err != nil || d <= 0 {
		return DefaultStateTTL
	}
	return d
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Credential resolves a named credential set. An empty name resolves
// server.default_profile.
func (c *Config) Credential(name string) (CredentialConfig, error) {
	if name == "" {
		name = c.Server.DefaultProfile
	}
	cred, ok := c.OAuth[name]
	if !ok {
		return CredentialConfig{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return cred, nil
}

// Validate checks backend specific requirements
func (c *Config) Validate() error {
	switch c.Server.Exchange {
	case ExchangeLegacy, ExchangeBearer:
	default:
		return fmt.Errorf("unsupported server.exchange %q, expected legacy or bearer", c.Server.Exchange)
	}

	switch c.State.Backend {
	case StateBackendMemory:
	case StateBackendSession:
		if c.State.SessionSecret == "" {
			return fmt.Errorf("state.session_secret is required for the session backend, please adjust the config or set DINGTALK_OAUTH_STATE_SESSION_SECRET")
		}
	case StateBackendRedis:
		if c.State.Redis.Addr == "" {
			return fmt.Errorf("state.redis.addr is required for the redis backend, please adjust the config or set DINGTALK_OAUTH_STATE_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unsupported state.backend %q", c.State.Backend)
	}

	if c.Server.DefaultProfile != "" {
		if _, ok := c.OAuth[c.Server.DefaultProfile]; !ok {
			return fmt.Errorf("server.default_profile %q is not configured under oauth", c.Server.DefaultProfile)
		}
	}
	return nil
}

// InitFlags registers the flags shared by every command on the given set
func InitFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to the config file")
	flags.String("profile", "", "OAuth profile name")
}

// setDefaults registers every scalar key. Unmarshal only reads environment
// variables for keys viper already knows, so keys without a meaningful
// default are registered with their zero value.
func setDefaults(v *viper.Viper) {
	// server
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.default_profile", "")
	v.SetDefault("server.exchange", string(ExchangeLegacy))
	v.SetDefault("server.allow_origins", []string{})

	// logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", false)
	v.SetDefault("logging.disable_stacktrace", false)
	v.SetDefault("logging.output_path", "")
	v.SetDefault("logging.append_to_file", false)
	v.SetDefault("logging.disable_console", false)

	// api
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", DefaultAPITimeout.String())

	// access token
	v.SetDefault("access_token.app_key", "")
	v.SetDefault("access_token.app_secret", "")
	v.SetDefault("access_token.token", "")

	// state
	v.SetDefault("state.backend", string(StateBackendMemory))
	v.SetDefault("state.cookie_name", DefaultCookieName)
	v.SetDefault("state.session_secret", "")
	v.SetDefault("state.ttl", DefaultStateTTL.String())
	v.SetDefault("state.redis.addr", "")
	v.SetDefault("state.redis.username", "")
	v.SetDefault("state.redis.password", "")
	v.SetDefault("state.redis.db", 0)
	v.SetDefault("state.redis.key_prefix", "dingtalk:oauth:state:")
}

// Load reads configuration from flags, environment and an optional config file.
// A missing config file is not an error. Credential sets under oauth are
// keyed by arbitrary profile names and can only come from the config file.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DINGTALK_OAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dingtalk-oauth")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if profile := v.GetString("profile"); profile != "" {
		config.Server.DefaultProfile = profile
	}

	if config.Server.BaseURL == "" {
		config.Server.BaseURL = fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	}

	return &config, nil
}
