package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Matching MatchingConfig
	Anomaly  AnomalyConfig
	Pattern  PatternConfig
	Mail     MailConfig
	Logger   LoggerConfig
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
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// MatchingConfig drives the line-level price comparator: a deviation within
// OkThresholdPct of the reference price is classified "ok".
type MatchingConfig struct {
	OkThresholdPct    float64
	HighSeverityPct   float64
	FuzzyMinScore     float64
	NegligibleEuros   float64
	QuantityTolerance float64
	TotalTolerance    float64
}

// AnomalyConfig drives the operator-facing detector. Kept independent from
// MatchingConfig.OkThresholdPct: the comparator threshold classifies lines
// for display, this one gates escalation to the supplier-correspondence
// workflow.
type AnomalyConfig struct {
	PercentThreshold float64
	EuroThreshold    float64
}

type PatternConfig struct {
	MinDeviationPct float64
	MinOccurrences  int
	MaxCoV          float64
	MinConfidence   float64
	StrongTier      float64
	ModerateTier    float64
	UrgentPatterns  int
	PriorityImpact  float64
}

type MailConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}
	// If no .env file was found, continue with plain environment variables
	// (useful for Docker/K8s)

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "facturo"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Matching: MatchingConfig{
			OkThresholdPct:    getEnvFloat("MATCHING_OK_THRESHOLD_PCT", 5.0),
			HighSeverityPct:   getEnvFloat("MATCHING_HIGH_SEVERITY_PCT", 20.0),
			FuzzyMinScore:     getEnvFloat("MATCHING_FUZZY_MIN_SCORE", 0.6),
			NegligibleEuros:   getEnvFloat("MATCHING_NEGLIGIBLE_EUROS", 0.01),
			QuantityTolerance: getEnvFloat("MATCHING_QUANTITY_TOLERANCE", 0.01),
			TotalTolerance:    getEnvFloat("MATCHING_TOTAL_TOLERANCE", 1.0),
		},
		Anomaly: AnomalyConfig{
			PercentThreshold: getEnvFloat("ANOMALY_PERCENT_THRESHOLD", 10.0),
			EuroThreshold:    getEnvFloat("ANOMALY_EURO_THRESHOLD", 2.0),
		},
		Pattern: PatternConfig{
			MinDeviationPct: getEnvFloat("PATTERN_MIN_DEVIATION_PCT", 5.0),
			MinOccurrences:  getEnvInt("PATTERN_MIN_OCCURRENCES", 2),
			MaxCoV:          getEnvFloat("PATTERN_MAX_COV", 0.20),
			MinConfidence:   getEnvFloat("PATTERN_MIN_CONFIDENCE", 0.6),
			StrongTier:      getEnvFloat("PATTERN_STRONG_TIER", 0.85),
			ModerateTier:    getEnvFloat("PATTERN_MODERATE_TIER", 0.7),
			UrgentPatterns:  getEnvInt("PATTERN_URGENT_COUNT", 3),
			PriorityImpact:  getEnvFloat("PATTERN_PRIORITY_IMPACT", 1000.0),
		},
		Mail: MailConfig{
			Host:     getEnv("MAIL_HOST", "localhost"),
			Port:     getEnv("MAIL_PORT", "587"),
			From:     getEnv("MAIL_FROM", "anomalies@facturo.local"),
			Username: getEnv("MAIL_USERNAME", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
