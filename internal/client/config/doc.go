// Package config loads runtime configuration for the listing client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. RENTSAATHI_* environment variables, falling back to a .env file in the
//     working directory.
//  4. Command-line flags (-d, -o, -db, -n, -i, -l).
//
// # JSON schema
//
// Intervals use timex.Duration, so they may be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "document_driver": "mongo",
//	  "mongo_uri": "mongodb://127.0.0.1:27017",
//	  "object_driver": "minio",
//	  "s3_endpoint": "127.0.0.1:9000",
//	  "online_check_interval": "3s"
//	}
//
// Malformed input panics; configuration is read once at startup.
package config
