package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	MirrorBucket  string
	UseSSL        bool
	Region        string
	ExampleObject string
}

type SecurityConfig struct {
	JWTSecret   string
	JWTTTL      time.Duration
	ResetSecret string
	ResetTTL    time.Duration
	ResetURL    string
}

type OCRConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type UploadConfig struct {
	MaxBytes        int64
	MaxDimension    int
	ThumbnailMaxDim int
}

type WorkerConfig struct {
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	ReconcileSpec string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	OCR              OCRConfig
	Upload           UploadConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("TABLEIZER")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "tableizer-images")
	v.SetDefault("storage.mirrorbucket", "tableizer-mirror")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.exampleobject", "examples/sample_table.png")

	v.SetDefault("security.jwtttl", "24h")
	v.SetDefault("security.resetttl", "600s")
	v.SetDefault("security.reseturl", "http://localhost:8080/reset_password")

	v.SetDefault("ocr.timeout", "30s")

	v.SetDefault("upload.maxbytes", 16<<20)
	v.SetDefault("upload.maxdimension", 2200)
	v.SetDefault("upload.thumbnailmaxdim", 200)

	v.SetDefault("worker.stream", "tableizer:tasks")
	v.SetDefault("worker.group", "tableizer-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "1m")
	v.SetDefault("worker.reconcilespec", "0 */30 * * * *")
}
