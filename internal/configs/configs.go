/*
Package configs is responsible for loading and parsing the application's configuration settings.

It reads operating system environment variables: the running environment, the service
endpoints, timeouts, where persisted client state lives, the optional attachment storage
and the optional local inspection API.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Settings
	Environment string

	// Service Settings
	APIURL         string
	WSURL          string
	RequestTimeout time.Duration
	OTPCooldown    time.Duration

	// Persisted State Settings
	StateDir    string
	DatabaseDSN string

	// S3 Storage Settings
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicURL       string

	// Inspection API Settings
	InspectAddr    string
	AllowedOrigins []string
}

// IsDevelopment reports whether the development environment is selected.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// AttachmentsEnabled reports whether the S3 settings are present.
func (c *AppConfig) AttachmentsEnabled() bool {
	return c.S3BucketName != ""
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// --- Service Settings ---
	cfg.APIURL = getEnv("API_URL", "http://localhost:8080/api")
	if err := checkURL("API_URL", cfg.APIURL, "http", "https"); err != nil {
		return nil, err
	}

	cfg.WSURL = getEnv("WS_URL", "ws://localhost:8080/api")
	if err := checkURL("WS_URL", cfg.WSURL, "ws", "wss"); err != nil {
		return nil, err
	}

	timeout, err := getDuration("REQUEST_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = timeout

	cooldown, err := getDuration("OTP_COOLDOWN", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.OTPCooldown = cooldown

	// --- Persisted State Settings ---
	cfg.StateDir = os.Getenv("STATE_DIR")
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("STATE_DIR is not set and the home directory is unknown: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".livesync")
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	// --- S3 Storage Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	cfg.S3PublicURL = os.Getenv("S3_PUBLIC_URL")

	s3 := map[string]string{
		"S3_BUCKET_NAME":       cfg.S3BucketName,
		"S3_ENDPOINT":          cfg.S3Endpoint,
		"S3_ACCESS_KEY_ID":     cfg.S3AccessKeyID,
		"S3_SECRET_ACCESS_KEY": cfg.S3SecretAccessKey,
	}
	var set, missing []string
	for _, name := range []string{"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"} {
		if s3[name] == "" {
			missing = append(missing, name)
		} else {
			set = append(set, name)
		}
	}
	if len(set) > 0 && len(missing) > 0 {
		return nil, fmt.Errorf("incomplete S3 configuration, missing %s", strings.Join(missing, ", "))
	}

	// --- Inspection API Settings ---
	cfg.InspectAddr = os.Getenv("INSPECT_ADDR")

	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	return cfg, nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getDuration(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, raw)
	}

	return d, nil
}

func checkURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", name, err)
	}

	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}

	return fmt.Errorf("%s must be an absolute %s URL, got %q", name, strings.Join(schemes, "/"), raw)
}
