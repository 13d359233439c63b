// README: Config loader; config.yaml plus FLYBOT_* environment overrides, validated on load.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

type AIConfig struct {
	GeminiKey string `mapstructure:"gemini_key"`
	Model     string `mapstructure:"model"`

	// Rules enables the offline rule extractor, alone or as the Gemini fallback.
	Rules bool `mapstructure:"rules"`

	// MonthlyCalls caps Gemini extractions per conversation; 0 means the default allowance.
	MonthlyCalls int `mapstructure:"monthly_calls" validate:"gte=0"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required_with=Brokers"`
}

type BookingConfig struct {
	DefaultCurrency string   `mapstructure:"default_currency" validate:"required"`
	SupportedCities []string `mapstructure:"supported_cities"`
}

type ConversationConfig struct {
	MaxMisunderstandings int           `mapstructure:"max_misunderstandings" validate:"gte=1"`
	HistorySize          int           `mapstructure:"history_size" validate:"gte=1"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
}

type RateConfig struct {
	Limit float64 `mapstructure:"limit" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MapsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type Config struct {
	Env          string             `mapstructure:"env" validate:"oneof=development production test"`
	Log          LogConfig          `mapstructure:"log"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Redis        RedisConfig        `mapstructure:"redis"`
	DB           DBConfig           `mapstructure:"db"`
	AI           AIConfig           `mapstructure:"ai"`
	Maps         MapsConfig         `mapstructure:"maps"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Booking      BookingConfig      `mapstructure:"booking"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Rate         RateConfig         `mapstructure:"rate"`
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

var ErrInvalid = errors.New("invalid config")

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.request_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 6*time.Hour)
	v.SetDefault("db.dsn", "")
	v.SetDefault("ai.gemini_key", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.rules", true)
	v.SetDefault("ai.monthly_calls", 0)
	v.SetDefault("maps.api_key", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "flybot.events")
	v.SetDefault("booking.default_currency", "Euros")
	v.SetDefault("booking.supported_cities", []string{})
	v.SetDefault("conversation.max_misunderstandings", 3)
	v.SetDefault("conversation.history_size", 100)
	v.SetDefault("conversation.idle_timeout", 30*time.Minute)
	v.SetDefault("rate.limit", 5)
	v.SetDefault("rate.burst", 10)
}

// Load reads config.yaml from the working directory or ./config when present,
// then FLYBOT_* environment variables (FLYBOT_HTTP_ADDR for http.addr).
// A non-empty path names the config file explicitly.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLYBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// Comma-separated env values arrive as a single element.
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Booking.SupportedCities = splitList(cfg.Booking.SupportedCities)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
