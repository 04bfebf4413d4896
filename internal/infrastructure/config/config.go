package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	QRCode   QRCodeConfig
	Schedule ScheduleConfig
	Admin    AdminConfig

	ConfirmLockTTL time.Duration `env:"CONFIRM_LOCK_TTL, default=30s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=colisapp"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// KafkaConfig is optional: with no brokers, tracking events are only stored.
type KafkaConfig struct {
	Brokers       string `env:"KAFKA_BROKERS"`
	TrackingTopic string `env:"KAFKA_TRACKING_TOPIC, default=colisapp.tracking-events"`
}

type QRCodeConfig struct {
	Dir     string `env:"QRCODE_DIR,      default=./data/qrcodes"`
	BaseURL string `env:"QRCODE_BASE_URL, default=http://localhost:8080/qrcodes"`
}

type ScheduleConfig struct {
	PickupHour            int           `env:"PICKUP_HOUR,             default=9"`
	DomesticLeadTime      time.Duration `env:"DOMESTIC_LEAD_TIME,      default=48h"`
	InternationalLeadTime time.Duration `env:"INTERNATIONAL_LEAD_TIME, default=120h"`
}

// AdminConfig bootstraps the back-office account at startup. Registration
// through the API only ever creates clients.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.Schedule.PickupHour < 0 || c.Schedule.PickupHour > 23 {
		errs = append(errs, fmt.Errorf("PICKUP_HOUR must be within 0..23, got %d", c.Schedule.PickupHour))
	}
	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	if c.ConfirmLockTTL <= 0 {
		errs = append(errs, errors.New("CONFIRM_LOCK_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
