package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envConfig mirrors the tunable Options fields onto environment variables.
type envConfig struct {
	MaxCount      int           `env:"TIERCACHE_MAX_COUNT" envDefault:"500"`
	MaxCostMB     int           `env:"TIERCACHE_MAX_COST_MB" envDefault:"0"`
	ID            string        `env:"TIERCACHE_ID"`
	BaseDir       string        `env:"TIERCACHE_DIR"`
	DiskRetention time.Duration `env:"TIERCACHE_RETENTION" envDefault:"1h"`
	CleanupEvery  int           `env:"TIERCACHE_CLEANUP_EVERY" envDefault:"64"`
}

var loadDotEnv sync.Once

// OptionsFromEnv builds Options from TIERCACHE_* environment variables,
// loading a .env file once if one exists. Codec, Cost, Pressure, and the
// observability hooks cannot come from the environment; set them on the
// returned Options before calling New.
func OptionsFromEnv[V any]() (Options[V], error) {
	loadDotEnv.Do(func() {
		// The .env file is optional; absence is not an error.
		_ = godotenv.Load()
	})

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return Options[V]{}, fmt.Errorf("cache: parse environment: %w", err)
	}
	return Options[V]{
		MaxCount:      cfg.MaxCount,
		MaxCostMB:     cfg.MaxCostMB,
		ID:            cfg.ID,
		BaseDir:       cfg.BaseDir,
		DiskRetention: cfg.DiskRetention,
		CleanupEvery:  cfg.CleanupEvery,
	}, nil
}
