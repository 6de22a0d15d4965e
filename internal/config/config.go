package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderCloudinary  = "cloudinary"
	ProviderObjectStore = "objectstore"
)

type Settings struct {
	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ServerPort      int

	ScratchDir    string
	ImageProvider string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	RedisAddr     string
	RedisPassword string

	JWTPublicKey string
	JWTIssuer    string
	JWTAudience  string

	AssetTimeout           time.Duration
	AssetUploadConcurrency int
	CommitMaxAttempts      int

	UploadRatePerMinute int
	UploadRateBurst     int

	BreakerFailureRate float64
	BreakerMinRequests uint32
	BreakerTimeout     time.Duration

	CORSAllowedOrigins []string
}

// ObjectStoreEnabled reports whether MinIO credentials were provided.
func (s *Settings) ObjectStoreEnabled() bool {
	return s.MinioEndpoint != "" && s.MinioAccessKey != "" && s.MinioSecretKey != ""
}

func (s *Settings) CloudinaryEnabled() bool {
	return s.CloudinaryCloudName != "" && s.CloudinaryAPIKey != "" && s.CloudinaryAPISecret != ""
}

func setDefaults() {
	viper.SetDefault("SCRATCH_DIR", "uploads")
	viper.SetDefault("IMAGE_PROVIDER", ProviderCloudinary)
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("JWT_ISSUER", "skillswap-auth")
	viper.SetDefault("JWT_AUDIENCE", "skillswap-api")
	viper.SetDefault("ASSET_TIMEOUT_SECONDS", 30)
	viper.SetDefault("ASSET_UPLOAD_CONCURRENCY", 4)
	viper.SetDefault("COMMIT_MAX_ATTEMPTS", 3)
	viper.SetDefault("UPLOAD_RATE_PER_MINUTE", 30)
	viper.SetDefault("UPLOAD_RATE_BURST", 10)
	viper.SetDefault("BREAKER_FAILURE_RATE", 0.5)
	viper.SetDefault("BREAKER_MIN_REQUESTS", 10)
	viper.SetDefault("BREAKER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	setDefaults()

	for _, key := range []string{
		"MARIADB_DSN",
		"MARIADB_MAX_OPEN_CONN",
		"MARIADB_MAX_IDLE_CONNS",
		"MARIADB_CONN_MAX_LIFETIME",
		"SERVER_PORT",
	} {
		if !viper.IsSet(key) {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	s := &Settings{
		MariaDBDSN:      viper.GetString("MARIADB_DSN"),
		MaxOpenConns:    viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,
		ServerPort:      viper.GetInt("SERVER_PORT"),

		ScratchDir:    viper.GetString("SCRATCH_DIR"),
		ImageProvider: strings.ToLower(viper.GetString("IMAGE_PROVIDER")),

		CloudinaryCloudName: viper.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    viper.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: viper.GetString("CLOUDINARY_API_SECRET"),

		MinioEndpoint:  viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:    viper.GetBool("MINIO_USE_SSL"),

		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		JWTPublicKey: viper.GetString("JWT_PUBLIC_KEY"),
		JWTIssuer:    viper.GetString("JWT_ISSUER"),
		JWTAudience:  viper.GetString("JWT_AUDIENCE"),

		AssetTimeout:           time.Duration(viper.GetInt("ASSET_TIMEOUT_SECONDS")) * time.Second,
		AssetUploadConcurrency: viper.GetInt("ASSET_UPLOAD_CONCURRENCY"),
		CommitMaxAttempts:      viper.GetInt("COMMIT_MAX_ATTEMPTS"),

		UploadRatePerMinute: viper.GetInt("UPLOAD_RATE_PER_MINUTE"),
		UploadRateBurst:     viper.GetInt("UPLOAD_RATE_BURST"),

		BreakerFailureRate: viper.GetFloat64("BREAKER_FAILURE_RATE"),
		BreakerMinRequests: viper.GetUint32("BREAKER_MIN_REQUESTS"),
		BreakerTimeout:     time.Duration(viper.GetInt("BREAKER_TIMEOUT_SECONDS")) * time.Second,

		CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := s.validateProviders(); err != nil {
		return nil, err
	}

	return s, nil
}

// validateProviders fails when the provider serving image profiles has no credentials.
func (s *Settings) validateProviders() error {
	switch s.ImageProvider {
	case ProviderCloudinary:
		if s.CloudinaryCloudName == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME is required")
		}
		if s.CloudinaryAPIKey == "" {
			return fmt.Errorf("CLOUDINARY_API_KEY is required")
		}
		if s.CloudinaryAPISecret == "" {
			return fmt.Errorf("CLOUDINARY_API_SECRET is required")
		}
	case ProviderObjectStore:
		if s.MinioEndpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required")
		}
		if s.MinioAccessKey == "" {
			return fmt.Errorf("MINIO_ACCESS_KEY is required")
		}
		if s.MinioSecretKey == "" {
			return fmt.Errorf("MINIO_SECRET_KEY is required")
		}
	default:
		return fmt.Errorf("IMAGE_PROVIDER %q is not supported", s.ImageProvider)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
