package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// UNIXSock is the IPC binding path. Overrides Addr and Port
	UNIXSock string
	// Data is the data directory
	Data string
	// DSN points to where userpulse mirrors its data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your userpulse instance.
	InstanceURL string

	// Mirror Configuration
	MirrorEnabled       bool // USERPULSE_MIRROR_ENABLED (default: true)
	MirrorTimeoutSec    int  // USERPULSE_MIRROR_TIMEOUT (default: 3)
	MirrorRetentionDays int  // USERPULSE_MIRROR_RETENTION_DAYS (default: 0, disabled)

	// LLM Configuration (demo agent only)
	LLMProvider string // USERPULSE_LLM_PROVIDER (default: openai)
	LLMAPIKey   string // USERPULSE_LLM_API_KEY
	LLMBaseURL  string // USERPULSE_LLM_BASE_URL (default: https://api.openai.com/v1)
	LLMModel    string // USERPULSE_LLM_MODEL (default: gpt-4o-mini)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled returns true if an LLM API key is configured for the demo agent.
func (p *Profile) IsLLMEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from USERPULSE_* environment variables.
func (p *Profile) FromEnv() {
	getBoolEnv := func(key string, defaultValue bool) bool {
		val := os.Getenv(key)
		if val == "" {
			return defaultValue
		}
		return val == "true"
	}

	getIntEnv := func(key string, defaultValue int) int {
		val := os.Getenv(key)
		if val == "" {
			return defaultValue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return defaultValue
		}
		return n
	}

	p.MirrorEnabled = getBoolEnv("USERPULSE_MIRROR_ENABLED", true)
	p.MirrorTimeoutSec = getIntEnv("USERPULSE_MIRROR_TIMEOUT", 3)
	p.MirrorRetentionDays = getIntEnv("USERPULSE_MIRROR_RETENTION_DAYS", 0)

	p.LLMProvider = getEnvOrDefault("USERPULSE_LLM_PROVIDER", "openai")
	p.LLMAPIKey = os.Getenv("USERPULSE_LLM_API_KEY")
	p.LLMBaseURL = getEnvOrDefault("USERPULSE_LLM_BASE_URL", "https://api.openai.com/v1")
	p.LLMModel = getEnvOrDefault("USERPULSE_LLM_MODEL", "gpt-4o-mini")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "userpulse")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/userpulse"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("userpulse_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
