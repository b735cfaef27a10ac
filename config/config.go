package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	OTP      OTPConfig
	SLA      SLAConfig
	Storage  StorageConfig
	Mail     MailConfig
	Firebase FirebaseConfig
	OAuth    OAuthConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// RateLimit is the number of requests allowed per IP per RateWindow.
	RateLimit  int
	RateWindow time.Duration
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OTPConfig struct {
	Length      int
	Expiry      time.Duration
	MaxAttempts int
	Cooldown    time.Duration
	// RequestsPerHour caps OTP requests per client IP.
	RequestsPerHour int
}

type SLAConfig struct {
	DefaultHours  int
	WarnPercent   float64
	CheckInterval time.Duration
}

type StorageConfig struct {
	Backend     string // local | s3 | cloudinary
	LocalDir    string
	MaxFileSize int64
	S3Bucket    string
	S3Region    string
	CDNURL      string
	Cloudinary  CloudinaryConfig
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type MailConfig struct {
	Enabled bool
	Region  string
	From    string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AdminConfig is used by the seed command to create the first administrator.
type AdminConfig struct {
	Email    string
	Password string
	FullName string
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }

// Load reads configuration from the process environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "4005"),
			Env:          getEnv("NODE_ENV", getEnv("APP_ENV", "development")),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			RateLimit:    getInt("RATE_LIMIT_MAX", 300),
			RateWindow:   getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DATABASE_DRIVER", "sqlite"),
			DSN:             getEnv("DATABASE_URL", "file:cms.db?_foreign_keys=on"),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
			LogQueries:      getBool("DATABASE_LOG_QUERIES", false),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_SECRET", ""),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
			AccessExpiry:  getDuration("JWT_EXPIRE", 24*time.Hour),
			RefreshExpiry: getDuration("JWT_REFRESH_EXPIRE", 7*24*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "nlc-cms"),
		},
		OTP: OTPConfig{
			Length:          getInt("OTP_LENGTH", 6),
			Expiry:          getDuration("OTP_EXPIRY", 10*time.Minute),
			MaxAttempts:     getInt("OTP_MAX_ATTEMPTS", 5),
			Cooldown:        getDuration("OTP_RESEND_COOLDOWN", time.Minute),
			RequestsPerHour: getInt("OTP_REQUESTS_PER_HOUR", 10),
		},
		SLA: SLAConfig{
			DefaultHours:  getInt("DEFAULT_SLA_HOURS", 48),
			WarnPercent:   getFloat("SLA_WARNING_PERCENT", 80),
			CheckInterval: getDuration("SLA_CHECK_INTERVAL", 15*time.Minute),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			LocalDir:    getEnv("UPLOAD_PATH", "uploads"),
			MaxFileSize: int64(getInt("MAX_FILE_SIZE_MB", 10)) << 20,
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3Region:    getEnv("S3_REGION", getEnv("AWS_REGION", "")),
			CDNURL:      getEnv("CLOUDFRONT_URL", ""),
			Cloudinary: CloudinaryConfig{
				CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
				APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
				APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
				Folder:    getEnv("CLOUDINARY_FOLDER", "nlc-cms"),
			},
		},
		Mail: MailConfig{
			Enabled: getBool("EMAIL_ENABLED", false),
			Region:  getEnv("AWS_REGION", ""),
			From:    getEnv("EMAIL_FROM", ""),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ORIGIN", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@cms.local"),
			Password: getEnv("ADMIN_PASSWORD", ""),
			FullName: getEnv("ADMIN_NAME", "System Administrator"),
		},
	}
}

// Validate reports every configuration problem found. An empty result means
// the environment is ready to serve.
func (c *Config) Validate() []error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not one of mysql, postgres, sqlite", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}
	if c.JWT.AccessSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 32 characters in production"))
	}
	if c.IsProduction() && c.Database.Driver == "sqlite" {
		errs = append(errs, fmt.Errorf("sqlite is not supported in production"))
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		errs = append(errs, fmt.Errorf("OTP_LENGTH must be between 4 and 10"))
	}
	if c.OTP.Expiry <= 0 {
		errs = append(errs, fmt.Errorf("OTP_EXPIRY must be positive"))
	}
	if c.SLA.WarnPercent <= 0 || c.SLA.WarnPercent >= 100 {
		errs = append(errs, fmt.Errorf("SLA_WARNING_PERCENT must be between 0 and 100"))
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, fmt.Errorf("UPLOAD_PATH is required for local storage"))
		}
	case "s3":
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			errs = append(errs, fmt.Errorf("S3_BUCKET and S3_REGION are required for s3 storage"))
		}
	case "cloudinary":
		cl := c.Storage.Cloudinary
		if cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "" {
			errs = append(errs, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for cloudinary storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND %q is not one of local, s3, cloudinary", c.Storage.Backend))
	}
	if c.Mail.Enabled && (c.Mail.From == "" || c.Mail.Region == "") {
		errs = append(errs, fmt.Errorf("EMAIL_FROM and AWS_REGION are required when EMAIL_ENABLED is set"))
	}
	return errs
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

// getDuration accepts Go durations ("15m") and the "7d" day suffix used by
// the legacy deployment env files.
func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if strings.HasSuffix(raw, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(raw, "d")); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
