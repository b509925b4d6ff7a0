package config

import (
	"encoding/json"
	"os"

	"github.com/rentsaathi/listingsync/internal/flagx"
	"github.com/rentsaathi/listingsync/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from zero values so a partial file keeps the defaults.
type JsonConfig struct {
	DocumentDriver  *string `json:"document_driver"`
	MongoURI        *string `json:"mongo_uri"`
	MongoDatabase   *string `json:"mongo_database"`
	MongoCollection *string `json:"mongo_collection"`
	PostgresDSN     *string `json:"postgres_dsn"`

	ObjectDriver  *string `json:"object_driver"`
	S3Endpoint    *string `json:"s3_endpoint"`
	S3Region      *string `json:"s3_region"`
	S3Bucket      *string `json:"s3_bucket"`
	S3AccessKey   *string `json:"s3_access_key"`
	S3SecretKey   *string `json:"s3_secret_key"`
	S3UseSSL      *bool   `json:"s3_use_ssl"`
	PublicBaseURL *string `json:"public_base_url"`

	LocalDBPath   *string `json:"local_db_path"`
	NATSURL       *string `json:"nats_url"`
	SessionSecret *string `json:"session_secret"`

	UploadConcurrency   *int            `json:"upload_concurrency"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`

	LogFormat *string `json:"log_format"`
	LogLevel  *string `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config. Read or decode
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DocumentDriver, jc.DocumentDriver)
	setString(&cfg.MongoURI, jc.MongoURI)
	setString(&cfg.MongoDatabase, jc.MongoDatabase)
	setString(&cfg.MongoCollection, jc.MongoCollection)
	setString(&cfg.PostgresDSN, jc.PostgresDSN)

	setString(&cfg.ObjectDriver, jc.ObjectDriver)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	if jc.S3UseSSL != nil {
		cfg.S3UseSSL = *jc.S3UseSSL
	}
	setString(&cfg.PublicBaseURL, jc.PublicBaseURL)

	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.NATSURL, jc.NATSURL)
	setString(&cfg.SessionSecret, jc.SessionSecret)

	if jc.UploadConcurrency != nil {
		cfg.UploadConcurrency = *jc.UploadConcurrency
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}

	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
