package shared

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/pms_sync?parseTime=true&charset=utf8mb4&loc=UTC"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	MewsBase string `env:"MEWS_BASE_URL" envDefault:"https://api.mews.com/api/connector/v1"`
	MewsKey  string `env:"MEWS_API_KEY"`
	MewsRPS  int    `env:"MEWS_RPS" envDefault:"5"`

	BreakfastTTL time.Duration `env:"BREAKFAST_CACHE_TTL" envDefault:"15m"`

	RefreshSchedule string `env:"REFRESH_SCHEDULE" envDefault:"0 0 * * *"`
	RefreshTimezone string `env:"REFRESH_TIMEZONE" envDefault:"Europe/Skopje"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"pms_sync.stay_changes"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads the environment, after an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	if c.MewsKey == "" {
		log.Warn().Msg("MEWS_API_KEY is empty")
	}
	return c, nil
}
