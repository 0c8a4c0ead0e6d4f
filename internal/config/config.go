package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	AdminEmails    []string
	RefreshMinutes int
	Timezone       string
	LogMode        string
	Points         ScorePoints
}

// ScorePoints is the base score per solved tier used to estimate anonymous
// visitors' scores.
type ScorePoints struct {
	Easy       int
	Hard       int
	Impossible int
}

// Load reads the environment, after merging a .env file when one exists.
// Variables already set in the environment win over the file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "chainstats.db"),
		AdminEmails:    getEnvList("ADMIN_EMAILS"),
		RefreshMinutes: getEnvInt("REFRESH_MINUTES", 5),
		Timezone:       getEnv("TIMEZONE", "Local"),
		LogMode:        getEnv("LOG_MODE", "dev"),
		Points: ScorePoints{
			Easy:       getEnvInt("SCORE_EASY", 100),
			Hard:       getEnvInt("SCORE_HARD", 200),
			Impossible: getEnvInt("SCORE_IMPOSSIBLE", 300),
		},
	}
	if cfg.RefreshMinutes < 1 {
		cfg.RefreshMinutes = 5
	}
	return cfg
}

// Location resolves Timezone, falling back to time.Local.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
