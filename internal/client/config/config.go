package config

import (
	"time"

	"github.com/rentsaathi/listingsync/internal/logging"
)

// Document store drivers.
const (
	DocumentMemory   = "memory"
	DocumentMongo    = "mongo"
	DocumentPostgres = "postgres"
)

// Object store drivers.
const (
	ObjectMemory = "memory"
	ObjectS3     = "s3"
	ObjectMinio  = "minio"
)

// Config holds runtime settings for the listing client.
type Config struct {
	DocumentDriver  string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	PostgresDSN     string

	ObjectDriver  string
	S3Endpoint    string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string
	S3UseSSL      bool
	PublicBaseURL string

	LocalDBPath   string
	NATSURL       string
	SessionSecret string

	UploadConcurrency   int
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates c with defaults that run fully in-process.
func (c *Config) LoadDefaults() {
	c.DocumentDriver = DocumentMemory
	c.MongoURI = "mongodb://127.0.0.1:27017"
	c.MongoDatabase = "rentsaathi"
	c.MongoCollection = "listings"

	c.ObjectDriver = ObjectMemory
	c.S3Region = "ap-south-1"
	c.S3Bucket = "listing-images"

	c.LocalDBPath = ".rentsaathi/client.db"

	c.UploadConcurrency = 3
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 3 * time.Second

	c.LogFormat = logging.FormatTint
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then the JSON file, then the environment
// (including .env), then command-line flags. Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg, ".env")
	parseFlags(cfg)
	return cfg
}
