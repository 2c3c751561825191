package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where habitpulse stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Secret signs access tokens. A fixed dev value is used when unset.
	Secret string

	// AI configuration
	AIProvider       string // HABITPULSE_AI_PROVIDER: "openai" or "anthropic"
	AIModel          string // HABITPULSE_AI_MODEL (defaults per provider)
	OpenAIAPIKey     string // HABITPULSE_OPENAI_API_KEY
	OpenAIBaseURL    string // HABITPULSE_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AnthropicAPIKey  string // HABITPULSE_ANTHROPIC_API_KEY
	AnthropicBaseURL string // HABITPULSE_ANTHROPIC_BASE_URL (default: https://api.anthropic.com)

	// Twilio WhatsApp configuration
	TwilioAccountSID   string // HABITPULSE_TWILIO_ACCOUNT_SID
	TwilioAuthToken    string // HABITPULSE_TWILIO_AUTH_TOKEN
	TwilioWhatsAppFrom string // HABITPULSE_TWILIO_WHATSAPP_FROM

	// Scheduler configuration
	SchedulerEnabled bool   // HABITPULSE_SCHEDULER_ENABLED (default: true)
	ReminderTime     string // HABITPULSE_REMINDER_TIME, HH:MM wall clock (default: 09:00)
	MilestoneTime    string // HABITPULSE_MILESTONE_TIME, HH:MM wall clock (default: 20:00)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true when a usable provider credential is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.OpenAIAPIKey != "" || p.AnthropicAPIKey != ""
}

// IsTwilioEnabled returns true when outbound WhatsApp delivery is configured.
func (p *Profile) IsTwilioEnabled() bool {
	return p.TwilioAccountSID != "" && p.TwilioAuthToken != ""
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.Secret = getEnvOrDefault("HABITPULSE_SECRET", "habitpulse-dev-secret")
	p.AIProvider = getEnvOrDefault("HABITPULSE_AI_PROVIDER", "openai")
	p.AIModel = os.Getenv("HABITPULSE_AI_MODEL")
	p.OpenAIAPIKey = os.Getenv("HABITPULSE_OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("HABITPULSE_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AnthropicAPIKey = os.Getenv("HABITPULSE_ANTHROPIC_API_KEY")
	p.AnthropicBaseURL = getEnvOrDefault("HABITPULSE_ANTHROPIC_BASE_URL", "https://api.anthropic.com")

	p.TwilioAccountSID = os.Getenv("HABITPULSE_TWILIO_ACCOUNT_SID")
	p.TwilioAuthToken = os.Getenv("HABITPULSE_TWILIO_AUTH_TOKEN")
	p.TwilioWhatsAppFrom = getEnvOrDefault("HABITPULSE_TWILIO_WHATSAPP_FROM", "whatsapp:+14155238886")

	p.SchedulerEnabled = getEnvOrDefault("HABITPULSE_SCHEDULER_ENABLED", "true") == "true"
	p.ReminderTime = getEnvOrDefault("HABITPULSE_REMINDER_TIME", "09:00")
	p.MilestoneTime = getEnvOrDefault("HABITPULSE_MILESTONE_TIME", "20:00")
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
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "habitpulse")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/habitpulse"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("habitpulse_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
