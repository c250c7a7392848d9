package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// TurnConfig drives the ICE-server vending endpoint. With Secret set the
// endpoint issues coturn REST-style ephemeral credentials; otherwise the
// static pair is handed out as-is.
type TurnConfig struct {
	STUNURLs         []string      `mapstructure:"stun_urls"`
	TURNURLs         []string      `mapstructure:"turn_urls"`
	Secret           string        `mapstructure:"secret"`
	TTL              time.Duration `mapstructure:"ttl"`
	StaticUsername   string        `mapstructure:"static_username"`
	StaticCredential string        `mapstructure:"static_credential"`
}

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateInterval   time.Duration `mapstructure:"rate_interval"`
	Secret         string        `mapstructure:"secret"`
	Turn           TurnConfig    `mapstructure:"turn"`
}

// Origins splits the comma-separated allow-list.
func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3001)
	v.SetDefault("allowed_origins", "http://localhost:3000")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("rate_limit", 64)
	v.SetDefault("rate_interval", "1s")
	v.SetDefault("turn.stun_urls", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("turn.turn_urls", []string{})
	v.SetDefault("turn.ttl", "24h")

	v.SetEnvPrefix("MSGLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("origins", cfg.AllowedOrigins).Msg("config ready")
	return &cfg, nil
}
