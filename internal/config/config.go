package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Destination
		Media
		Rewrite
		Importer
		State
		Audit
		Tasks
	}

	Destination struct {
		Driver string // "sqlite" or "postgres"
		Path   string // SQLite database path
		DSN    string // Postgres connection string
	}

	Media struct {
		Dir             string
		BaseURL         string // public prefix rewritten bodies point at
		MaxBytes        int64
		FetchTimeout    time.Duration
		PerHostInterval time.Duration
		AllowedTypes    []string // empty means the fetcher's stock allow-list
	}

	Rewrite struct {
		Section string   // destination section entry permalinks live under
		Bases   []string // "sourceBase=destBase" pairs
	}

	Importer struct {
		BatchSize     int
		MinBatchSize  int
		MaxBatchSize  int
		MemoryCeiling uint64 // bytes; 0 disables adaptive sizing
		BatchPause    time.Duration
		ContainerID   int64  // destination container categories are placed in
		Schedule      string // cron line for staged re-runs, "" = one-shot
	}

	State struct {
		Dir     string
		LockTTL time.Duration
	}

	Audit struct {
		Dir string
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// ProgressPath is where the run state file lives.
func (c *Config) ProgressPath() string {
	return filepath.Join(c.State.Dir, ProgressFileName)
}

// LockPath is where the run-exclusivity lock file lives.
func (c *Config) LockPath() string {
	return filepath.Join(c.State.Dir, LockFileName)
}

// TasksDBPath is where the task queue database lives.
func (c *Config) TasksDBPath() string {
	return filepath.Join(c.State.Dir, TasksDBFileName)
}

// splitList parses a comma-separated env value into trimmed entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("destination_driver", "sqlite")
	v.SetDefault("destination_path", DefaultDestinationPath)
	v.SetDefault("destination_dsn", "")
	v.SetDefault("media_dir", DefaultMediaDir)
	v.SetDefault("media_base_url", "/media")
	v.SetDefault("media_max_mb", 50)
	v.SetDefault("media_fetch_timeout", "30s")
	v.SetDefault("media_host_interval", "1s")
	v.SetDefault("media_allowed_types", "")
	v.SetDefault("rewrite_section", "blog")
	v.SetDefault("rewrite_bases", "")
	v.SetDefault("batch_size", 50)
	v.SetDefault("batch_min", 10)
	v.SetDefault("batch_max", 200)
	v.SetDefault("memory_ceiling_mb", 512)
	v.SetDefault("batch_pause", "250ms")
	v.SetDefault("container_id", 1)
	v.SetDefault("import_schedule", "")
	v.SetDefault("state_dir", DefaultStateDir)
	v.SetDefault("lock_ttl", "2h")
	v.SetDefault("audit_dir", DefaultAuditDir)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		Destination: Destination{
			Driver: v.GetString("DESTINATION_DRIVER"),
			Path:   v.GetString("DESTINATION_PATH"),
			DSN:    v.GetString("DESTINATION_DSN"),
		},
		Media: Media{
			Dir:             v.GetString("MEDIA_DIR"),
			BaseURL:         v.GetString("MEDIA_BASE_URL"),
			MaxBytes:        v.GetInt64("MEDIA_MAX_MB") << 20,
			FetchTimeout:    v.GetDuration("MEDIA_FETCH_TIMEOUT"),
			PerHostInterval: v.GetDuration("MEDIA_HOST_INTERVAL"),
			AllowedTypes:    splitList(v.GetString("MEDIA_ALLOWED_TYPES")),
		},
		Rewrite: Rewrite{
			Section: v.GetString("REWRITE_SECTION"),
			Bases:   splitList(v.GetString("REWRITE_BASES")),
		},
		Importer: Importer{
			BatchSize:     v.GetInt("BATCH_SIZE"),
			MinBatchSize:  v.GetInt("BATCH_MIN"),
			MaxBatchSize:  v.GetInt("BATCH_MAX"),
			MemoryCeiling: v.GetUint64("MEMORY_CEILING_MB") << 20,
			BatchPause:    v.GetDuration("BATCH_PAUSE"),
			ContainerID:   v.GetInt64("CONTAINER_ID"),
			Schedule:      v.GetString("IMPORT_SCHEDULE"),
		},
		State: State{
			Dir:     v.GetString("STATE_DIR"),
			LockTTL: v.GetDuration("LOCK_TTL"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
