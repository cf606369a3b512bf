package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer `yaml:"http_server"`
	Storage    `yaml:"storage"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	Auth       `yaml:"auth"`
	Analytics  `yaml:"analytics"`
	UserAgent  `yaml:"useragent"`
}

// HTTPServer holds HTTP listener settings.
type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Storage selects the backing store: "postgres" or "memory".
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"biolink"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"50"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	SeedData        bool   `yaml:"seed_data" env:"DB_SEED_DATA" env-default:"true"`
}

// Redis holds the optional report cache settings.
type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_REPORT_TTL" env-default:"30s"`
}

// Auth holds bearer token validation settings.
type Auth struct {
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer         string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"BioLink-Backend"`
	TokenTTL       time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"15m"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://127.0.0.1:3000"`
}

// Analytics holds pipeline tuning.
type Analytics struct {
	DefaultTimeRange string        `yaml:"default_time_range" env:"ANALYTICS_DEFAULT_TIME_RANGE" env-default:"7d"`
	RealtimeWindow   time.Duration `yaml:"realtime_window" env:"ANALYTICS_REALTIME_WINDOW" env-default:"5m"`
	RecentWindow     time.Duration `yaml:"recent_window" env:"ANALYTICS_RECENT_WINDOW" env-default:"720h"`
	MaxBatchSize     int           `yaml:"max_batch_size" env:"ANALYTICS_MAX_BATCH_SIZE" env-default:"100"`
	BadgeRetry       BadgeRetry    `yaml:"badge_retry"`
}

// BadgeRetry tunes the in-memory queue that re-runs failed badge evaluations.
type BadgeRetry struct {
	Workers    int           `yaml:"workers" env:"BADGE_RETRY_WORKERS" env-default:"2"`
	BufferSize int           `yaml:"buffer_size" env:"BADGE_RETRY_BUFFER_SIZE" env-default:"1000"`
	Attempts   int           `yaml:"attempts" env:"BADGE_RETRY_ATTEMPTS" env-default:"3"`
	Delay      time.Duration `yaml:"delay" env:"BADGE_RETRY_DELAY" env-default:"1s"`
}

// UserAgent points at an optional uap-core regexes.yaml.
type UserAgent struct {
	RegexesPath string `yaml:"regexes_path" env:"UA_REGEXES_PATH"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
