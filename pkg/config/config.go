package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Catalog drivers.
const (
	CatalogPostgres = "postgres"
	CatalogMemory   = "memory"
)

// Object storage drivers.
const (
	ObjectStorageLocal = "local"
	ObjectStorageS3    = "s3"
)

type Config struct {
	Env             string
	Port            int
	APIPrefix       string
	ShutdownTimeout time.Duration

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Admin         AdminConfig
	CORS          CORSConfig
	Log           LogConfig
	Catalog       CatalogConfig
	ObjectStorage ObjectStorageConfig
	Uploads       UploadConfig
	Stats         StatsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AdminConfig holds the single uploader account.
type AdminConfig struct {
	Email        string
	PasswordHash string
	Name         string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig selects the resource metadata store.
type CatalogConfig struct {
	Driver     string
	SoftDelete bool
}

// ObjectStorageConfig configures where uploaded file bytes are kept.
type ObjectStorageConfig struct {
	Driver     string
	Folder     string
	QuotaBytes int64

	S3    S3Config
	Local LocalObjectConfig
}

// S3Config covers AWS S3 and S3-compatible providers (MinIO, R2, Spaces).
type S3Config struct {
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Endpoint      string
	PresignExpiry time.Duration
}

// LocalObjectConfig stores objects on disk and serves them through signed links.
type LocalObjectConfig struct {
	BaseDir         string
	PublicBaseURL   string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// UploadConfig governs multipart intake and the temporary spool.
type UploadConfig struct {
	TmpDir           string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	SpoolTTL         time.Duration
	SweepInterval    time.Duration
}

// StatsConfig governs caching of aggregate endpoints.
type StatsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Admin = AdminConfig{
		Email:        strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		Name:         v.GetString("ADMIN_NAME"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		Driver:     strings.ToLower(v.GetString("CATALOG_DRIVER")),
		SoftDelete: v.GetBool("RESOURCES_SOFT_DELETE"),
	}

	cfg.ObjectStorage = ObjectStorageConfig{
		Driver:     strings.ToLower(v.GetString("OBJECT_STORAGE_DRIVER")),
		Folder:     strings.Trim(v.GetString("OBJECT_STORAGE_FOLDER"), "/"),
		QuotaBytes: v.GetInt64("OBJECT_STORAGE_QUOTA_BYTES"),
		S3: S3Config{
			Region:        v.GetString("S3_REGION"),
			Bucket:        v.GetString("S3_BUCKET"),
			AccessKey:     v.GetString("S3_ACCESS_KEY"),
			SecretKey:     v.GetString("S3_SECRET_KEY"),
			Endpoint:      v.GetString("S3_ENDPOINT"),
			PresignExpiry: parseDuration(v.GetString("S3_PRESIGN_EXPIRY"), time.Hour),
		},
		Local: LocalObjectConfig{
			BaseDir:         v.GetString("LOCAL_STORAGE_DIR"),
			PublicBaseURL:   strings.TrimRight(v.GetString("LOCAL_STORAGE_PUBLIC_URL"), "/"),
			SignedURLSecret: v.GetString("LOCAL_STORAGE_SIGNED_URL_SECRET"),
			SignedURLTTL:    parseDuration(v.GetString("LOCAL_STORAGE_SIGNED_URL_TTL"), time.Hour),
		},
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 100 * 1024 * 1024
	}
	tmpDir := v.GetString("UPLOAD_TMP_DIR")
	if tmpDir == "" {
		tmpDir = filepath.Join(os.TempDir(), "campushub-uploads")
	}
	cfg.Uploads = UploadConfig{
		TmpDir:           tmpDir,
		MaxFileSizeBytes: maxUpload,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOAD_ALLOWED_MIME_TYPES")),
		SpoolTTL:         parseDuration(v.GetString("UPLOAD_SPOOL_TTL"), time.Hour),
		SweepInterval:    parseDuration(v.GetString("UPLOAD_SPOOL_SWEEP_INTERVAL"), 15*time.Minute),
	}

	cfg.Stats = StatsConfig{
		CacheEnabled: v.GetBool("STATS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Driver {
	case CatalogPostgres, CatalogMemory:
	default:
		return errors.New("CATALOG_DRIVER must be postgres or memory")
	}
	switch c.ObjectStorage.Driver {
	case ObjectStorageLocal:
		if c.ObjectStorage.Local.SignedURLSecret == "" {
			return errors.New("LOCAL_STORAGE_SIGNED_URL_SECRET is required for local object storage")
		}
	case ObjectStorageS3:
		if c.ObjectStorage.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required for s3 object storage")
		}
		if c.ObjectStorage.S3.Region == "" {
			return errors.New("S3_REGION is required for s3 object storage")
		}
	default:
		return errors.New("OBJECT_STORAGE_DRIVER must be local or s3")
	}
	if c.Env == EnvProduction && c.JWT.Secret == "dev_secret" {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campushub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "campushub-api")

	v.SetDefault("ADMIN_EMAIL", "admin@campushub.local")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("ADMIN_NAME", "admin")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_DRIVER", CatalogPostgres)
	v.SetDefault("RESOURCES_SOFT_DELETE", false)

	v.SetDefault("OBJECT_STORAGE_DRIVER", ObjectStorageLocal)
	v.SetDefault("OBJECT_STORAGE_FOLDER", "campushub-resources")
	v.SetDefault("OBJECT_STORAGE_QUOTA_BYTES", 0)
	v.SetDefault("S3_REGION", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PRESIGN_EXPIRY", "1h")
	v.SetDefault("LOCAL_STORAGE_DIR", "./storage")
	v.SetDefault("LOCAL_STORAGE_PUBLIC_URL", "http://localhost:8080/api/v1")
	v.SetDefault("LOCAL_STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("LOCAL_STORAGE_SIGNED_URL_TTL", "1h")

	v.SetDefault("UPLOAD_TMP_DIR", "")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 100*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_MIME_TYPES", "application/pdf")
	v.SetDefault("UPLOAD_SPOOL_TTL", "1h")
	v.SetDefault("UPLOAD_SPOOL_SWEEP_INTERVAL", "15m")

	v.SetDefault("STATS_CACHE_ENABLED", true)
	v.SetDefault("STATS_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
