package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT,default=8080"`
	PublicURL  string `env:"PUBLIC_URL,default=http://localhost:8080"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
	LogFormat  string `env:"LOG_FORMAT,default=text"`

	// StoreDriver selects the document store: postgres or memory.
	StoreDriver string `env:"STORE_DRIVER,default=postgres"`
	DBHost      string `env:"DB_HOST,default=localhost"`
	DBPort      string `env:"DB_PORT,default=5432"`
	DBUser      string `env:"DB_USER,default=parley"`
	DBPassword  string `env:"DB_PASSWORD,default=parley_dev_password"`
	DBName      string `env:"DB_NAME,default=parley"`
	DBSSLMode   string `env:"DB_SSLMODE,default=disable"`

	JWTSecret string        `env:"JWT_SECRET,default=dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=168h"`

	// SearchEngine selects the full-text engine: bluge or postgres.
	SearchEngine string `env:"SEARCH_ENGINE,default=bluge"`
	BlugePath    string `env:"BLUGE_PATH,default=data/search"`

	// BlobDriver selects the attachment store: local or s3.
	BlobDriver     string        `env:"BLOB_DRIVER,default=local"`
	BadgerPath     string        `env:"BADGER_PATH,default=data/blobs"`
	UploadTTL      time.Duration `env:"UPLOAD_TTL,default=15m"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES,default=5242880"`
	S3Bucket       string        `env:"S3_BUCKET"`
	S3Region       string        `env:"S3_REGION,default=us-east-1"`
	S3Endpoint     string        `env:"S3_ENDPOINT"`
	BlobURLTTL     time.Duration `env:"BLOB_URL_TTL,default=1h"`

	WSEventsPerSecond float64 `env:"WS_EVENTS_PER_SECOND,default=20"`
	WSEventBurst      int     `env:"WS_EVENT_BURST,default=40"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (use postgres or memory)", c.StoreDriver)
	}
	switch c.SearchEngine {
	case "bluge", "postgres":
	default:
		return fmt.Errorf("unknown SEARCH_ENGINE %q (use bluge or postgres)", c.SearchEngine)
	}
	if c.SearchEngine == "postgres" && c.StoreDriver != "postgres" {
		return fmt.Errorf("SEARCH_ENGINE=postgres requires STORE_DRIVER=postgres")
	}
	switch c.BlobDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("BLOB_DRIVER=s3 requires S3_BUCKET")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q (use local or s3)", c.BlobDriver)
	}
	return nil
}
