package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	OIDC      OIDCConfig
	Gateway   GatewayConfig
	RateLimit RateLimitConfig
	OpenAI    OpenAIConfig
	Audio     AudioConfig
	Storage   StorageConfig
	R2        R2Config
	MinIO     MinIOConfig
	Database  DatabaseConfig
	Draft     DraftConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type OIDCConfig struct {
	Issuer   string
	ClientID string
}

type GatewayConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	GeneratePerHour int
	SubmitPerHour   int
	UploadPerHour   int
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	SpeechModel string
	ImageModel  string
	ImageSize   string
	Timeout     int // seconds
}

type AudioConfig struct {
	ServiceURL string
	Timeout    int // seconds
}

type StorageConfig struct {
	Provider string // r2, minio or empty for mock
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type DatabaseConfig struct {
	Driver        string // mysql, mongo or sqlite
	DSN           string
	MongoURI      string
	MongoDatabase string
	SQLitePath    string
}

type DraftConfig struct {
	IdleTTLMinutes  int
	SweepIntervalMs int
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("OPENAI_API_KEY")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("MINIO_SECRET_KEY")
	readSecret("DATABASE_DSN")
	readSecret("MONGO_URI")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("oidc.issuer", "OIDC_ISSUER")
	_ = viper.BindEnv("oidc.client_id", "OIDC_CLIENT_ID")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = viper.BindEnv("ratelimit.generate_per_hour", "RATELIMIT_GENERATE_PER_HOUR")
	_ = viper.BindEnv("ratelimit.submit_per_hour", "RATELIMIT_SUBMIT_PER_HOUR")
	_ = viper.BindEnv("ratelimit.upload_per_hour", "RATELIMIT_UPLOAD_PER_HOUR")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = viper.BindEnv("openai.speech_model", "OPENAI_SPEECH_MODEL")
	_ = viper.BindEnv("openai.image_model", "OPENAI_IMAGE_MODEL")
	_ = viper.BindEnv("openai.image_size", "OPENAI_IMAGE_SIZE")
	_ = viper.BindEnv("openai.timeout", "OPENAI_TIMEOUT")
	_ = viper.BindEnv("audio.service_url", "AUDIO_SERVICE_URL")
	_ = viper.BindEnv("audio.timeout", "AUDIO_SERVICE_TIMEOUT")
	_ = viper.BindEnv("storage.provider", "STORAGE_PROVIDER")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	_ = viper.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	_ = viper.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	_ = viper.BindEnv("minio.bucket", "MINIO_BUCKET")
	_ = viper.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	_ = viper.BindEnv("minio.public_url", "MINIO_PUBLIC_URL")
	_ = viper.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = viper.BindEnv("database.dsn", "DATABASE_DSN")
	_ = viper.BindEnv("database.mongo_uri", "MONGO_URI")
	_ = viper.BindEnv("database.mongo_database", "MONGO_DATABASE")
	_ = viper.BindEnv("database.sqlite_path", "SQLITE_PATH")
	_ = viper.BindEnv("draft.idle_ttl_minutes", "DRAFT_IDLE_TTL_MINUTES")
	_ = viper.BindEnv("draft.sweep_interval_ms", "DRAFT_SWEEP_INTERVAL_MS")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("gateway.enabled", false)
	viper.SetDefault("ratelimit.generate_per_hour", 20)
	viper.SetDefault("ratelimit.submit_per_hour", 10)
	viper.SetDefault("ratelimit.upload_per_hour", 30)

	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("openai.speech_model", "tts-1")
	viper.SetDefault("openai.image_model", "dall-e-3")
	viper.SetDefault("openai.image_size", "1024x1024")
	viper.SetDefault("openai.timeout", 120)

	viper.SetDefault("audio.service_url", "")
	viper.SetDefault("audio.timeout", 60)

	viper.SetDefault("storage.provider", "")
	viper.SetDefault("minio.bucket", "podcasts")
	viper.SetDefault("minio.use_ssl", false)

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.mongo_database", "podcastr")
	viper.SetDefault("database.sqlite_path", "podcastr.db")

	viper.SetDefault("draft.idle_ttl_minutes", 120)
	viper.SetDefault("draft.sweep_interval_ms", 60000)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		OIDC: OIDCConfig{
			Issuer:   viper.GetString("oidc.issuer"),
			ClientID: viper.GetString("oidc.client_id"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: viper.GetInt("ratelimit.generate_per_hour"),
			SubmitPerHour:   viper.GetInt("ratelimit.submit_per_hour"),
			UploadPerHour:   viper.GetInt("ratelimit.upload_per_hour"),
		},
		OpenAI: OpenAIConfig{
			APIKey:      viper.GetString("openai.api_key"),
			BaseURL:     viper.GetString("openai.base_url"),
			SpeechModel: viper.GetString("openai.speech_model"),
			ImageModel:  viper.GetString("openai.image_model"),
			ImageSize:   viper.GetString("openai.image_size"),
			Timeout:     viper.GetInt("openai.timeout"),
		},
		Audio: AudioConfig{
			ServiceURL: viper.GetString("audio.service_url"),
			Timeout:    viper.GetInt("audio.timeout"),
		},
		Storage: StorageConfig{
			Provider: strings.ToLower(viper.GetString("storage.provider")),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("minio.endpoint"),
			AccessKey: viper.GetString("minio.access_key"),
			SecretKey: viper.GetString("minio.secret_key"),
			Bucket:    viper.GetString("minio.bucket"),
			UseSSL:    viper.GetBool("minio.use_ssl"),
			PublicURL: viper.GetString("minio.public_url"),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(viper.GetString("database.driver")),
			DSN:           viper.GetString("database.dsn"),
			MongoURI:      viper.GetString("database.mongo_uri"),
			MongoDatabase: viper.GetString("database.mongo_database"),
			SQLitePath:    viper.GetString("database.sqlite_path"),
		},
		Draft: DraftConfig{
			IdleTTLMinutes:  viper.GetInt("draft.idle_ttl_minutes"),
			SweepIntervalMs: viper.GetInt("draft.sweep_interval_ms"),
		},
	}

	return cfg, nil
}
