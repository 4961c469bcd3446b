package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// SMTPConfig is one outbound mail account. Senders are looked up by the
// domain of the message's from-address.
type SMTPConfig struct {
	Domain   string
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	// Senders maps an email domain (e.g. "muze.co.th") to its SMTP account.
	Senders map[string]SMTPConfig

	// DigestSchedule is a cron expression for the stale-card digest; empty
	// disables the job.
	DigestSchedule string
	DigestMaxAge   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         getEnv("DB_NAME", "cadence"),
		SkipAuth:       getEnv("SKIP_AUTH", "false") == "true",
		Environment:    getEnv("ENVIRONMENT", "development"),
		AppId:          getEnv("APP_ID", "cadence"),
		Senders:        loadSenders(),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", ""),
		DigestMaxAge:   getEnv("DIGEST_MAX_AGE", "168h"),
	}, nil
}

// loadSenders parses SMTP_DOMAINS="a.com,b.com" plus SMTP_<DOMAIN>_HOST style
// variables, where <DOMAIN> is the domain upper-cased with dots replaced by
// underscores.
func loadSenders() map[string]SMTPConfig {
	senders := map[string]SMTPConfig{}
	domains := getEnv("SMTP_DOMAINS", "")
	if domains == "" {
		return senders
	}
	for _, domain := range strings.Split(domains, ",") {
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		key := strings.ToUpper(strings.ReplaceAll(domain, ".", "_"))
		senders[domain] = SMTPConfig{
			Domain:   domain,
			Host:     getEnv("SMTP_"+key+"_HOST", ""),
			Port:     getEnv("SMTP_"+key+"_PORT", "587"),
			User:     getEnv("SMTP_"+key+"_USER", ""),
			Password: getEnv("SMTP_"+key+"_PASSWORD", ""),
			From:     getEnv("SMTP_"+key+"_FROM", ""),
		}
	}
	return senders
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
