package authgate

import (
	"testing"
	"time"
)

func TestDefaultConfigValidatesWithSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with secret must validate: %v", err)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWT.Secret = nil }},
		{"bad signing method", func(c *Config) { c.JWT.SigningMethod = "none" }},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"zero refresh ttl", func(c *Config) { c.JWT.RefreshTTL = 0 }},
		{"negative leeway", func(c *Config) { c.JWT.Leeway = -time.Second }},
		{"oversized leeway", func(c *Config) { c.JWT.Leeway = 5 * time.Minute }},
		{"empty redis prefix", func(c *Config) { c.Session.RedisPrefix = "" }},
		{"bcrypt cost too low", func(c *Config) { c.Password.Cost = 1 }},
		{"bcrypt cost too high", func(c *Config) { c.Password.Cost = 99 }},
		{"throttle without budget", func(c *Config) {
			c.Throttle.EnableLoginThrottle = true
			c.Throttle.MaxLoginAttempts = 0
		}},
		{"throttle without cooldown", func(c *Config) {
			c.Throttle.EnableLoginThrottle = true
			c.Throttle.LoginCooldown = 0
		}},
		{"audit without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.JWT.Secret = []byte("test-secret")
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected Validate to reject config")
			}
		})
	}
}

func TestWithConfigClonesSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("test-secret")

	b := New().WithConfig(cfg)

	// Mutating the caller's slice must not leak into the builder's copy.
	cfg.JWT.Secret[0] = 'X'

	if b.config.JWT.Secret[0] == 'X' {
		t.Fatal("expected WithConfig to deep-copy the secret")
	}
}
