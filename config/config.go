package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// AuthConfig holds the admin identity constants. AdminEmail and the bypass
// pair are placeholders until accounts carry real roles everywhere.
type AuthConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	JWTExpireMins  int    `mapstructure:"jwt_expire_mins"`
	AdminEmail     string `mapstructure:"admin_email"`
	BypassEnabled  bool   `mapstructure:"bypass_enabled"`
	BypassEmail    string `mapstructure:"bypass_email"`
	BypassPassword string `mapstructure:"bypass_password"`
	TokenFile      string `mapstructure:"token_file"`
}

const minJWTSecretLen = 16

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type MetricsConfig struct {
	Port string `mapstructure:"port"`
}

type NotifyConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxVisible int           `mapstructure:"max_visible"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var bindings = map[string]string{
	"database.host":         "DB_HOST",
	"database.port":         "DB_PORT",
	"database.user":         "DB_USER",
	"database.password":     "DB_PASSWORD",
	"database.dbname":       "DB_NAME",
	"database.sslmode":      "DB_SSLMODE",
	"minio.endpoint":        "MINIO_ENDPOINT",
	"minio.access_key":      "MINIO_ACCESS_KEY",
	"minio.secret_key":      "MINIO_SECRET_KEY",
	"minio.use_ssl":         "MINIO_USE_SSL",
	"minio.bucket":          "MINIO_BUCKET_NAME",
	"minio.public_base_url": "MINIO_PUBLIC_BASE_URL",
	"auth.jwt_secret":       "JWT_SECRET",
	"auth.jwt_expire_mins":  "JWT_EXPIRE_MINUTES",
	"auth.admin_email":      "ADMIN_EMAIL",
	"auth.bypass_enabled":   "ADMIN_BYPASS_ENABLED",
	"auth.bypass_email":     "ADMIN_BYPASS_EMAIL",
	"auth.bypass_password":  "ADMIN_BYPASS_PASSWORD",
	"auth.token_file":       "AUTH_TOKEN_FILE",
	"kafka.brokers":         "KAFKA_BROKERS",
	"kafka.topic":           "KAFKA_TOPIC",
	"http.port":             "HTTP_PORT",
	"metrics.port":          "METRICS_PORT",
	"notify.ttl":            "NOTIFY_TTL",
	"notify.max_visible":    "NOTIFY_MAX_VISIBLE",
	"upload.max_bytes":      "UPLOAD_MAX_BYTES",
	"log.level":             "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("minio.bucket", "covers")
	v.SetDefault("auth.jwt_expire_mins", 60*24*7)
	v.SetDefault("auth.admin_email", "admin@academia.com")
	v.SetDefault("auth.bypass_enabled", true)
	v.SetDefault("auth.bypass_email", "admin@academia.com")
	v.SetDefault("auth.bypass_password", "admin123")
	v.SetDefault("kafka.topic", "catalog.events")
	v.SetDefault("http.port", "8080")
	v.SetDefault("metrics.port", "2112")
	v.SetDefault("notify.ttl", 6*time.Second)
	v.SetDefault("notify.max_visible", 0)
	v.SetDefault("upload.max_bytes", 5*1024*1024)
	v.SetDefault("log.level", "info")
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Notify.TTL <= 0 {
		return fmt.Errorf("notify.ttl must be positive, got %s", c.Notify.TTL)
	}
	if c.Notify.MaxVisible < 0 {
		return fmt.Errorf("notify.max_visible must not be negative, got %d", c.Notify.MaxVisible)
	}
	if c.Auth.JWTExpireMins <= 0 {
		return fmt.Errorf("auth.jwt_expire_mins must be positive, got %d", c.Auth.JWTExpireMins)
	}
	return nil
}

// RequireSigning checks what signing sessions and access tokens needs. Only
// the commands that sign tokens call it, so seed and repair-sql run without
// a secret.
func (c *AuthConfig) RequireSigning() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required: set JWT_SECRET")
	}
	if len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("auth.jwt_secret is too short: JWT_SECRET needs at least %d characters", minJWTSecretLen)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *KafkaConfig) BrokerList() []string {
	var out []string
	for _, p := range strings.Split(c.Brokers, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
