package config

import (
	"os"
	"strconv"
	"time"
)

func loadProductionConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.DatabaseFilePath = "/data/quarto.sqlite"
	if path := os.Getenv("DATABASE_FILE_PATH"); path != "" {
		cfg.DatabaseFilePath = path
	}
	cfg.ServerHost = "0.0.0.0"

	loadSourceOverrides(cfg)
}

func loadSourceOverrides(cfg *Config) {
	if u := os.Getenv("SOURCE_BASE_URL"); u != "" {
		cfg.SourceBaseURL = u
	}
	if s := os.Getenv("SOURCE_TIMEOUT_SECONDS"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			cfg.SourceTimeout = time.Duration(secs) * time.Second
		}
	}
	if s := os.Getenv("SOURCE_CACHE_TTL_HOURS"); s != "" {
		if hours, err := strconv.Atoi(s); err == nil && hours > 0 {
			cfg.SourceCacheTTL = time.Duration(hours) * time.Hour
		}
	}
}
