// Package config provides environment configuration helpers for cognisync.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default service configuration.
const (
	DefaultPort = "8000"
)

// LoadDotenv loads a .env file from the working directory if present.
// Missing files are not an error; explicit environment always wins.
func LoadDotenv() {
	_ = godotenv.Load()
}

// Port returns the HTTP listen port from COGNISYNC_PORT.
// Falls back to DefaultPort if not set.
func Port() string {
	if p := os.Getenv("COGNISYNC_PORT"); p != "" {
		return p
	}
	return DefaultPort
}

// OpenAIKey returns the OpenAI API key, empty if unset.
func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// GeminiKey returns the Gemini API key, empty if unset.
func GeminiKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// AlertLogPath returns the sqlite alert log path from COGNISYNC_ALERT_DB.
// Empty disables persistence.
func AlertLogPath() string {
	return os.Getenv("COGNISYNC_ALERT_DB")
}

// IntEnv returns an integer environment value or the provided default
// when the variable is unset or malformed.
func IntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
