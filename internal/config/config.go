package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type Worker struct {
	// Concurrency bounds how many orders run through the pipeline at once.
	Concurrency int
	// FallbackDelay is how long the in-memory queue waits before dispatching
	// a job, giving the client time to attach its status stream.
	FallbackDelay time.Duration
	// ProbeTimeout bounds the startup reachability check of the durable backend.
	ProbeTimeout time.Duration
}

type Config struct {
	HTTPAddr       string
	SubmitInterval time.Duration // min gap between submissions per client IP
	Redis          Redis
	Worker         Worker
}

func Default() Config {
	return Config{
		HTTPAddr:       ":3000",
		SubmitInterval: 100 * time.Millisecond,
		Redis: Redis{
			Host: "127.0.0.1",
			Port: 6379,
		},
		Worker: Worker{
			Concurrency:   10,
			FallbackDelay: 2500 * time.Millisecond,
			ProbeTimeout:  2 * time.Second,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Redis.Port = p
		}
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = n
		}
	}
	if c := os.Getenv("WORKER_CONCURRENCY"); c != "" {
		if n, err := strconv.Atoi(c); err == nil && n > 0 {
			cfg.Worker.Concurrency = n
		}
	}
	if d := os.Getenv("FALLBACK_DELAY_MS"); d != "" {
		if ms, err := strconv.Atoi(d); err == nil && ms >= 0 {
			cfg.Worker.FallbackDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if t := os.Getenv("PROBE_TIMEOUT_MS"); t != "" {
		if ms, err := strconv.Atoi(t); err == nil && ms > 0 {
			cfg.Worker.ProbeTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if i := os.Getenv("SUBMIT_INTERVAL_MS"); i != "" {
		if ms, err := strconv.Atoi(i); err == nil && ms >= 0 {
			cfg.SubmitInterval = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

// Addr returns the host:port address of the Redis backend.
func (r Redis) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}
