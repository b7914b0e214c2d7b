package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	// Redis backs the unread-count cache. Leave Addr empty to run without it;
	// unread counts then always hit the indexed DB count.
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      int    `yaml:"ttl"` // seconds
	} `yaml:"redis"`

	// Broadcast fan-out tuning.
	Broadcast BroadcastConfig `yaml:"broadcast"`

	Workers struct {
		StatsReconcileMinutes int `yaml:"stats_reconcile_minutes"`
	} `yaml:"workers"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

// BroadcastConfig tunes the synchronous fan-out pipeline.
type BroadcastConfig struct {
	FanoutWorkers int `yaml:"fanout_workers"` // concurrent insert workers
	FanoutBatch   int `yaml:"fanout_batch"`   // rows per insert batch
}

var AppConfig *Config

// LoadConfig reads config.yaml unless DATABASE_URL is set, in which case the
// whole config comes from environment variables (test mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Broadcast.FanoutWorkers <= 0 {
		cfg.Broadcast.FanoutWorkers = 8
	}
	if cfg.Broadcast.FanoutBatch <= 0 {
		cfg.Broadcast.FanoutBatch = 200
	}
	if cfg.Workers.StatsReconcileMinutes <= 0 {
		cfg.Workers.StatsReconcileMinutes = 60
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 300
	}
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 60
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
