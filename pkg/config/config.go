package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	GigaChat  GigaChatConfig
	Gemini    GeminiConfig
	Insights  InsightsConfig
	Email     EmailConfig
	Scheduler SchedulerConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

// DSN returns the libpq style connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// JWTConfig holds the shared secret of the identity provider. The service
// only verifies tokens, it never issues user tokens.
type JWTConfig struct {
	SecretKey string
	Issuer    string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

const (
	InsightProviderGigaChat = "gigachat"
	InsightProviderGemini   = "gemini"
	InsightProviderStatic   = "static"
)

type InsightsConfig struct {
	Provider string
	Timeout  time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
	Currency     string
}

type SchedulerConfig struct {
	Timezone          string
	BudgetAlertCron   string
	RecurringScanCron string
	MonthlyReportCron string

	Workers           int
	QueueSize         int
	ThrottleLimit     int
	ThrottlePeriod    time.Duration
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	ReportConcurrency int
	JobTimeout        time.Duration
}

// Location resolves the configured time zone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Load() (*Config, error) {
	// .env is optional, plain environment variables work as well (Docker/K8s)
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getSeconds("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getSeconds("SERVER_WRITE_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "finelytics"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getInt("DB_MAX_CONNS", 10)),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", ""),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true",
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Insights: InsightsConfig{
			Provider: getEnv("INSIGHTS_PROVIDER", InsightProviderGemini),
			Timeout:  getSeconds("INSIGHTS_TIMEOUT", 30),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "Finelytics <onboarding@resend.dev>"),
			Currency:     getEnv("DEFAULT_CURRENCY", "INR"),
		},
		Scheduler: SchedulerConfig{
			Timezone:          getEnv("SCHEDULER_TIMEZONE", "UTC"),
			BudgetAlertCron:   getEnv("SCHEDULER_BUDGET_ALERT_CRON", "0 */6 * * *"),
			RecurringScanCron: getEnv("SCHEDULER_RECURRING_SCAN_CRON", "0 0 * * *"),
			MonthlyReportCron: getEnv("SCHEDULER_MONTHLY_REPORT_CRON", "0 0 1 * *"),
			Workers:           getInt("SCHEDULER_WORKERS", 5),
			QueueSize:         getInt("SCHEDULER_QUEUE_SIZE", 1000),
			ThrottleLimit:     getInt("SCHEDULER_THROTTLE_LIMIT", 10),
			ThrottlePeriod:    getSeconds("SCHEDULER_THROTTLE_PERIOD", 60),
			MaxAttempts:       getInt("SCHEDULER_MAX_ATTEMPTS", 2),
			RetryBaseDelay:    getSeconds("SCHEDULER_RETRY_BASE_DELAY", 1),
			ReportConcurrency: getInt("SCHEDULER_REPORT_CONCURRENCY", 10),
			JobTimeout:        getSeconds("SCHEDULER_JOB_TIMEOUT", 600),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the scheduler or the API cannot run with.
func (c *Config) Validate() error {
	for name, spec := range map[string]string{
		"SCHEDULER_BUDGET_ALERT_CRON":   c.Scheduler.BudgetAlertCron,
		"SCHEDULER_RECURRING_SCAN_CRON": c.Scheduler.RecurringScanCron,
		"SCHEDULER_MONTHLY_REPORT_CRON": c.Scheduler.MonthlyReportCron,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}

	switch c.Insights.Provider {
	case InsightProviderGigaChat, InsightProviderGemini, InsightProviderStatic:
	default:
		return fmt.Errorf("unknown INSIGHTS_PROVIDER %q", c.Insights.Provider)
	}

	s := c.Scheduler
	if s.Workers <= 0 || s.QueueSize <= 0 || s.ThrottleLimit <= 0 || s.ReportConcurrency <= 0 {
		return fmt.Errorf("scheduler workers, queue size, throttle limit and report concurrency must be positive")
	}
	if s.ThrottlePeriod <= 0 || s.MaxAttempts <= 0 {
		return fmt.Errorf("scheduler throttle period and max attempts must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}
