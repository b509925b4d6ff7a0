package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "RENTSAATHI_"

// parseEnv overlays cfg with RENTSAATHI_* variables. Values from dotenvFile
// are used only when the process environment does not set the same name.
// A missing dotenv file is not an error; malformed values panic.
func parseEnv(cfg *Config, dotenvFile string) {
	fromFile := map[string]string{}
	if dotenvFile != "" {
		m, err := godotenv.Read(dotenvFile)
		switch {
		case err == nil:
			fromFile = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			panic(fmt.Errorf("read %s: %w", dotenvFile, err))
		}
	}

	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			return v, true
		}
		v, ok := fromFile[envPrefix+name]
		return v, ok
	}

	strs := map[string]*string{
		"DOCUMENT_DRIVER":  &cfg.DocumentDriver,
		"MONGO_URI":        &cfg.MongoURI,
		"MONGO_DATABASE":   &cfg.MongoDatabase,
		"MONGO_COLLECTION": &cfg.MongoCollection,
		"POSTGRES_DSN":     &cfg.PostgresDSN,
		"OBJECT_DRIVER":    &cfg.ObjectDriver,
		"S3_ENDPOINT":      &cfg.S3Endpoint,
		"S3_REGION":        &cfg.S3Region,
		"S3_BUCKET":        &cfg.S3Bucket,
		"S3_ACCESS_KEY":    &cfg.S3AccessKey,
		"S3_SECRET_KEY":    &cfg.S3SecretKey,
		"PUBLIC_BASE_URL":  &cfg.PublicBaseURL,
		"LOCAL_DB_PATH":    &cfg.LocalDBPath,
		"NATS_URL":         &cfg.NATSURL,
		"SESSION_SECRET":   &cfg.SessionSecret,
		"LOG_FORMAT":       &cfg.LogFormat,
		"LOG_LEVEL":        &cfg.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup("S3_USE_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%sS3_USE_SSL: %w", envPrefix, err))
		}
		cfg.S3UseSSL = b
	}
	if v, ok := lookup("UPLOAD_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%sUPLOAD_CONCURRENCY: %w", envPrefix, err))
		}
		cfg.UploadConcurrency = n
	}
	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT":       &cfg.RequestTimeout,
		"ONLINE_CHECK_INTERVAL": &cfg.OnlineCheckInterval,
	}
	for name, dst := range durations {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = d
	}
}
