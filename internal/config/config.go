package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Storage   StorageConfig
	Email     EmailConfig
	AMQP      AMQPConfig
	Invoice   InvoiceConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Database      string
	Schema        string
	MigrationsDir string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type AdminConfig struct {
	InitialPassword string
	AlertEmail      string
}

type StorageConfig struct {
	Driver           string // local or drive
	LocalDir         string
	PublicBaseURL    string
	InvoiceDir       string
	DriveCredentials string
	DriveFolderID    string
}

type EmailConfig struct {
	APIURL  string
	Timeout time.Duration
}

type AMQPConfig struct {
	URL   string
	Queue string
}

type InvoiceConfig struct {
	ChromePath string
	Timeout    time.Duration
}

type SecurityConfig struct {
	CSRFKey        string
	AllowedOrigins []string
	SecureCookies  bool
}

type RateLimitConfig struct {
	OrderSubmissions int
	Window           time.Duration
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func Load() *Config {
	// .env values are only a development convenience
	if env := strings.ToLower(os.Getenv("SERVER_ENV")); env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: Could not load .env: %v", err)
		}
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return fromViper()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 12*60)
	viper.SetDefault("ADMIN_INITIAL_PASSWORD", "admin123")
	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("STORAGE_LOCAL_DIR", "uploads")
	viper.SetDefault("STORAGE_PUBLIC_BASE_URL", "/uploads")
	viper.SetDefault("EMAIL_API_URL", "https://api.brevo.com/v3/smtp/email")
	viper.SetDefault("EMAIL_TIMEOUT", "10s")
	viper.SetDefault("AMQP_QUEUE", "order_events")
	viper.SetDefault("INVOICE_TIMEOUT", "20s")
	viper.SetDefault("INVOICE_DIR", "invoices")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT_ORDERS", 5)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")
}

func fromViper() *Config {
	env := viper.GetString("SERVER_ENV")

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  env,
		},
		Database: DatabaseConfig{
			Host:          viper.GetString("DB_HOST"),
			Port:          viper.GetString("DB_PORT"),
			User:          viper.GetString("DB_USER"),
			Password:      viper.GetString("DB_PASSWORD"),
			Database:      viper.GetString("DB_DATABASE"),
			Schema:        viper.GetString("DB_SCHEMA"),
			MigrationsDir: viper.GetString("DB_MIGRATIONS_DIR"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Admin: AdminConfig{
			InitialPassword: viper.GetString("ADMIN_INITIAL_PASSWORD"),
			AlertEmail:      viper.GetString("ADMIN_ALERT_EMAIL"),
		},
		Storage: StorageConfig{
			Driver:           viper.GetString("STORAGE_DRIVER"),
			LocalDir:         viper.GetString("STORAGE_LOCAL_DIR"),
			PublicBaseURL:    viper.GetString("STORAGE_PUBLIC_BASE_URL"),
			InvoiceDir:       viper.GetString("INVOICE_DIR"),
			DriveCredentials: viper.GetString("DRIVE_CREDENTIALS_FILE"),
			DriveFolderID:    viper.GetString("DRIVE_FOLDER_ID"),
		},
		Email: EmailConfig{
			APIURL:  viper.GetString("EMAIL_API_URL"),
			Timeout: viper.GetDuration("EMAIL_TIMEOUT"),
		},
		AMQP: AMQPConfig{
			URL:   viper.GetString("AMQP_URL"),
			Queue: viper.GetString("AMQP_QUEUE"),
		},
		Invoice: InvoiceConfig{
			ChromePath: viper.GetString("CHROME_PATH"),
			Timeout:    viper.GetDuration("INVOICE_TIMEOUT"),
		},
		Security: SecurityConfig{
			CSRFKey:        viper.GetString("CSRF_KEY"),
			AllowedOrigins: splitList(viper.GetString("ALLOWED_ORIGINS")),
			SecureCookies:  env == "production",
		},
		RateLimit: RateLimitConfig{
			OrderSubmissions: viper.GetInt("RATE_LIMIT_ORDERS"),
			Window:           viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
