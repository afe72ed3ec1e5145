// Package config provides environment-driven application configuration.
//
// # Overview
//
// Configuration comes from VEIL_* environment variables, with an optional
// YAML file (VEIL_CONFIG_FILE) underneath; environment variables always win.
//
// # Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Key Variables
//
//	VEIL_PORT              HTTP port (default 8080)
//	VEIL_HEALTH_PORT       health/metrics port (default 9090)
//	VEIL_STORAGE_TYPE      filesystem or s3
//	VEIL_DB_DRIVER         postgres or sqlite3
//	VEIL_DB_DSN            database connection string
//	VEIL_REDIS_ADDR        Redis address; empty disables Redis
//	VEIL_NER_URL           NER sidecar base URL
//	VEIL_OCR_URL           OCR sidecar base URL
//	VEIL_ASR_URL           speech-to-text sidecar base URL
//	VEIL_FACE_URL          face detection sidecar base URL
//	VEIL_API_KEYS          comma-separated id:secret pairs
//	VEIL_JOB_TTL           artifact retention (default 1h)
//	VEIL_PATTERN_DIR       extra detection pattern packs
//
// # Related Packages
//
//   - pkg/storage: Artifact storage configuration types
//   - pkg/observability: Log level types
package config
