package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Catalogue
		Sync
		Database
		Tasks
		Scheduler
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}

	Catalogue struct {
		BaseURL string
		AppCode string
		APIKey  string
		Timeout time.Duration
	}

	Sync struct {
		PaceInterval     time.Duration // Minimum gap between catalogue calls in a bulk run
		RateLimitBackoff time.Duration // Wait after a 429 before the single retry
		BatchSize        int           // Books per bulk-run invocation before continuation
	}

	Database struct {
		Path string
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	Scheduler struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

const DefaultDatabasePath = "./shelftrack.db"

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("catalogue_base_url", "https://openweb.nlb.gov.sg/api/v2/Catalogue")
	v.SetDefault("catalogue_app_code", "")
	v.SetDefault("catalogue_api_key", "")
	v.SetDefault("catalogue_timeout", "30s")

	// The upstream catalogue budget is roughly one request per second; the
	// pacing sleep is the only throttle against it.
	v.SetDefault("sync_pace_interval", "1s")
	v.SetDefault("sync_rate_limit_backoff", "2s")
	v.SetDefault("sync_batch_size", 50)

	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("refresh_schedule_enabled", false)
	v.SetDefault("refresh_schedule", "0 3 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Catalogue: Catalogue{
			BaseURL: v.GetString("CATALOGUE_BASE_URL"),
			AppCode: v.GetString("CATALOGUE_APP_CODE"),
			APIKey:  v.GetString("CATALOGUE_API_KEY"),
			Timeout: v.GetDuration("CATALOGUE_TIMEOUT"),
		},
		Sync: Sync{
			PaceInterval:     v.GetDuration("SYNC_PACE_INTERVAL"),
			RateLimitBackoff: v.GetDuration("SYNC_RATE_LIMIT_BACKOFF"),
			BatchSize:        v.GetInt("SYNC_BATCH_SIZE"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			Enabled:  v.GetBool("REFRESH_SCHEDULE_ENABLED"),
			Schedule: v.GetString("REFRESH_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
