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

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Driver      string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	Region      string
	CallTimeout time.Duration
}

type SecurityConfig struct {
	SessionTTL     time.Duration
	AccessCodeDays int
	ScriptCacheTTL time.Duration
	SweepSpec      string
}

// AdminConfig is the default admin seed. The password only ever exists
// here and in process memory; it is hashed before first persistence.
type AdminConfig struct {
	Username string
	Password string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Admin            AdminConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SCRIPTVAULT")
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

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", "minio")
	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.bucket", "scriptvault")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.calltimeout", "10s")

	v.SetDefault("security.sessionttl", "24h")
	v.SetDefault("security.accesscodedays", 30)
	v.SetDefault("security.scriptcachettl", "5m")
	v.SetDefault("security.sweepspec", "0 0 * * * *") // hourly

	v.SetDefault("admin.username", "daveblunts")
	v.SetDefault("admin.password", "escolar112200")
}
