package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DB        DBConfig
	S3        S3Config
	Extractor ExtractorConfig
	Queue     QueueConfig
	Retention RetentionConfig
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings for original uploaded files.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// ExtractorConfig holds settings for the external recognition provider.
type ExtractorConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIKey      string `mapstructure:"api_key"`
	Provider    string `mapstructure:"provider"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Timeout returns the per-call extraction timeout.
func (e *ExtractorConfig) Timeout() time.Duration {
	if e.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(e.TimeoutSecs) * time.Second
}

// QueueConfig holds ingest queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	Concurrency      int `mapstructure:"concurrency"`
	JobTimeoutSecs   int `mapstructure:"job_timeout_secs"`
}

// RetentionConfig holds soft-delete sweep settings.
type RetentionConfig struct {
	SweepIntervalSecs int `mapstructure:"sweep_interval_secs"`
}

// Load reads configuration from environment variables with the DOCFLOW_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docflow")
	v.SetDefault("db.password", "docflow_secret")
	v.SetDefault("db.name", "docflow_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docflow-uploads")
	v.SetDefault("s3.endpoint", "")

	// Extractor defaults
	v.SetDefault("extractor.endpoint", "")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.provider", "remote")
	v.SetDefault("extractor.timeout_secs", 120)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.job_timeout_secs", 300)

	// Retention defaults
	v.SetDefault("retention.sweep_interval_secs", 3600)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"db.host":                       "DOCFLOW_DB_HOST",
		"db.port":                       "DOCFLOW_DB_PORT",
		"db.user":                       "DOCFLOW_DB_USER",
		"db.password":                   "DOCFLOW_DB_PASSWORD",
		"db.name":                       "DOCFLOW_DB_NAME",
		"db.sslmode":                    "DOCFLOW_DB_SSLMODE",
		"db.max_open":                   "DOCFLOW_DB_MAX_OPEN",
		"db.max_idle":                   "DOCFLOW_DB_MAX_IDLE",
		"s3.region":                     "DOCFLOW_S3_REGION",
		"s3.bucket":                     "DOCFLOW_S3_BUCKET",
		"s3.endpoint":                   "DOCFLOW_S3_ENDPOINT",
		"s3.access_key":                 "DOCFLOW_S3_ACCESS_KEY",
		"s3.secret_key":                 "DOCFLOW_S3_SECRET_KEY",
		"extractor.endpoint":            "DOCFLOW_EXTRACTOR_ENDPOINT",
		"extractor.api_key":             "DOCFLOW_EXTRACTOR_API_KEY",
		"extractor.provider":            "DOCFLOW_EXTRACTOR_PROVIDER",
		"extractor.timeout_secs":        "DOCFLOW_EXTRACTOR_TIMEOUT_SECS",
		"queue.poll_interval_secs":      "DOCFLOW_QUEUE_POLL_INTERVAL_SECS",
		"queue.concurrency":             "DOCFLOW_QUEUE_CONCURRENCY",
		"queue.job_timeout_secs":        "DOCFLOW_QUEUE_JOB_TIMEOUT_SECS",
		"retention.sweep_interval_secs": "DOCFLOW_RETENTION_SWEEP_INTERVAL_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Extractor = ExtractorConfig{
		Endpoint:    v.GetString("extractor.endpoint"),
		APIKey:      v.GetString("extractor.api_key"),
		Provider:    v.GetString("extractor.provider"),
		TimeoutSecs: v.GetInt("extractor.timeout_secs"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		Concurrency:      v.GetInt("queue.concurrency"),
		JobTimeoutSecs:   v.GetInt("queue.job_timeout_secs"),
	}
	cfg.Retention = RetentionConfig{
		SweepIntervalSecs: v.GetInt("retention.sweep_interval_secs"),
	}

	return cfg, nil
}
