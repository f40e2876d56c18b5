package config

import (
	"os"
	"strconv"
	"time"
)

// ThrottleConfig controls the token-bucket throttle applied to the
// auth endpoints (login, register, refresh). Credential stuffing is
// the concern here, so the defaults are tighter than a general API
// limit would be.
type ThrottleConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadThrottleConfig reads the throttle settings from the environment,
// clamping nonsensical values back to workable ones.
func LoadThrottleConfig() ThrottleConfig {
	cfg := ThrottleConfig{
		Enabled:        envBool("AUTH_THROTTLE_ENABLED", true),
		Capacity:       envInt("AUTH_THROTTLE_CAPACITY", 10),
		RefillTokens:   envInt("AUTH_THROTTLE_REFILL_TOKENS", 1),
		RefillInterval: envDur("AUTH_THROTTLE_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("AUTH_THROTTLE_TTL", 10*time.Minute),
		Prefix:         envStr("AUTH_THROTTLE_PREFIX", "authrl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dd, err := time.ParseDuration(v); err == nil {
		return dd
	}
	return d
}
