package config

import (
    "strings"
    "testing"
    "time"
)

func setRequired(t *testing.T) {
    t.Setenv("DB_USER", "app")
    t.Setenv("DB_HOST", "localhost")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "rooms")
    t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadAppliesDefaults(t *testing.T) {
    setRequired(t)
    cfg, err := Load()
    if err != nil {
        t.Fatal(err)
    }
    if cfg.Port != "8080" || cfg.AccessTTLMin != 15 || cfg.BcryptCost != 12 {
        t.Fatalf("defaults not applied: %+v", cfg)
    }
    if cfg.ChatSessionTTL != 30*time.Minute {
        t.Fatalf("chat ttl = %v", cfg.ChatSessionTTL)
    }
}

func TestLoadReadsEnvironment(t *testing.T) {
    setRequired(t)
    t.Setenv("APP_PORT", "9090")
    t.Setenv("CHAT_SESSION_TTL", "5m")
    cfg, err := Load()
    if err != nil {
        t.Fatal(err)
    }
    if cfg.Port != "9090" || cfg.ChatSessionTTL != 5*time.Minute || cfg.DBName != "rooms" {
        t.Fatalf("got %+v", cfg)
    }
}

func TestLoadReportsAllMissing(t *testing.T) {
    setRequired(t)
    t.Setenv("DB_HOST", "")
    t.Setenv("JWT_SECRET", "")
    _, err := Load()
    if err == nil || !strings.Contains(err.Error(), "DB_HOST") || !strings.Contains(err.Error(), "JWT_SECRET") {
        t.Fatalf("got %v", err)
    }
}

func TestRateLimitNormalized(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 1 || cfg.TTL != 10*time.Second || cfg.PerSecond() != 0.5 {
        t.Fatalf("got %+v", cfg)
    }
}
